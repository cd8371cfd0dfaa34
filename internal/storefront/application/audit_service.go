// internal/storefront/application/audit_service.go
package application

import (
	"context"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/storefront/domain"
)

// AuditService 负责后台变更的审计落账。
// Record 永远不会让被审计的主操作失败：追加出错只记日志。
type AuditService struct {
	repo domain.AuditRepository
}

func NewAuditService(repo domain.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Record 追加一条审计记录，返回带服务端 id 和时间戳的条目。
// 追加失败时返回 nil，错误只写日志，不向上传播。
func (s *AuditService) Record(ctx context.Context, actor domain.Actor, action domain.AdminAction, targetType domain.TargetType, targetID int64, details domain.AuditDetails) *domain.AdminLog {
	entry := &domain.AdminLog{
		AdminUserID: actor.ID,
		AdminName:   actor.Name,
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		Details:     details,
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("action", string(action)).
			Int64("target_id", targetID).
			Msg("Failed to append audit entry")
		return nil
	}
	return entry
}

// Query 查询审计日志，条件按 AND 组合，结果按时间倒序。
func (s *AuditService) Query(ctx context.Context, f domain.AuditFilter) ([]*domain.AdminLog, error) {
	return s.repo.Query(ctx, f)
}

// internal/pkg/session/manager.go
package session

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "push:session:"
	sessionTTL       = 24 * time.Hour
)

// Manager 在 Redis 中维护 用户 -> 推送网关节点 的会话映射。
// 多个网关节点共享同一份映射，消息路由方据此找到用户所在节点。
type Manager struct {
	rdb *redis.Client
}

func NewManager(addr string) *Manager {
	return &Manager{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

// SetUserGateway 记录用户当前连接的网关节点，带 TTL 避免僵尸会话。
func (m *Manager) SetUserGateway(ctx context.Context, userID, nodeID string) error {
	if err := m.rdb.Set(ctx, sessionKeyPrefix+userID, nodeID, sessionTTL).Err(); err != nil {
		return errors.Wrapf(err, "set session for user %s", userID)
	}
	return nil
}

// GetUserGateway 查询用户所在的网关节点。未连接时返回空串。
func (m *Manager) GetUserGateway(ctx context.Context, userID string) (string, error) {
	nodeID, err := m.rdb.Get(ctx, sessionKeyPrefix+userID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "get session for user %s", userID)
	}
	return nodeID, nil
}

// RemoveUserGateway 在连接断开时清除会话。只清理仍指向本节点的条目，
// 避免误删用户重连到其他节点后写入的新会话。
func (m *Manager) RemoveUserGateway(ctx context.Context, userID, nodeID string) error {
	current, err := m.GetUserGateway(ctx, userID)
	if err != nil {
		return err
	}
	if current != nodeID {
		return nil
	}
	return m.rdb.Del(ctx, sessionKeyPrefix+userID).Err()
}

func (m *Manager) Close() error {
	return m.rdb.Close()
}

// internal/storefront/domain/notification.go
package domain

import "time"

// ProductNotification 是一条"到货提醒"订阅。
// 不变式：每个 (UserID, ProductID) 至多一条。行存在即表示待通知，
// 行不存在表示从未订阅、或已随补货派发被清理。
// 这个唯一性对派发扇出的正确性是承重的：重复行意味着重复推送。
type ProductNotification struct {
	ID        int64
	UserID    int64
	ProductID int64
	CreatedAt time.Time
}

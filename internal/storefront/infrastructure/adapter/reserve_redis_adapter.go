// internal/storefront/infrastructure/adapter/reserve_redis_adapter.go
package adapter

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ReserveResult 是一次抢购预占的三种结局。
type ReserveResult int

const (
	ReserveSuccess ReserveResult = iota
	ReserveSoldOut
	ReserveDuplicate
)

// reserveScript 在 Redis 内原子地完成"查重、比较库存、扣减、记名"。
// 库存的比较和扣减在同一脚本里执行，并发请求不可能都读到
// 最后一件然后双双扣减。
var reserveScript = redis.NewScript(`
-- KEYS[1]: 预占库存, 例如 flash:stock:{42}
-- KEYS[2]: 已预占用户集合, 例如 flash:users:{42}
-- ARGV[1]: 用户 ID
if redis.call('sismember', KEYS[2], ARGV[1]) == 1 then
    return 2
end
local stock = tonumber(redis.call('get', KEYS[1]))
if stock and stock > 0 then
    redis.call('decr', KEYS[1])
    redis.call('sadd', KEYS[2], ARGV[1])
    return 1
end
return 0
`)

var releaseScript = redis.NewScript(`
if redis.call('srem', KEYS[2], ARGV[1]) == 1 then
    redis.call('incr', KEYS[1])
    return 1
end
return 0
`)

// FlashSaleRedisAdapter 用 Redis 为限量抢购做前置预占：
// 真正的订单创建仍然走库存控制器，这里只在入口处把
// 超卖流量挡在数据库之外，并保证一人一件。
type FlashSaleRedisAdapter struct {
	client *redis.Client
}

func NewFlashSaleRedisAdapter(client *redis.Client) *FlashSaleRedisAdapter {
	return &FlashSaleRedisAdapter{client: client}
}

func (a *FlashSaleRedisAdapter) keys(productID int64) []string {
	// hash tag 保证两个 key 落在同一个槽，脚本在集群模式下也能跑
	return []string{
		fmt.Sprintf("flash:stock:{%d}", productID),
		fmt.Sprintf("flash:users:{%d}", productID),
	}
}

// Reserve 尝试为 userID 预占一件 productID。
func (a *FlashSaleRedisAdapter) Reserve(ctx context.Context, productID, userID int64) (ReserveResult, error) {
	result, err := reserveScript.Run(ctx, a.client, a.keys(productID), userID).Result()
	if err != nil {
		return 0, errors.Wrap(err, "run reserve script")
	}
	code, ok := result.(int64)
	if !ok {
		return 0, errors.Errorf("unexpected result type from reserve script: %T", result)
	}
	switch code {
	case 1:
		return ReserveSuccess, nil
	case 0:
		return ReserveSoldOut, nil
	case 2:
		return ReserveDuplicate, nil
	}
	return 0, errors.Errorf("unknown result code from reserve script: %d", code)
}

// Release 归还一次预占（下游订单创建失败时的补偿）。
func (a *FlashSaleRedisAdapter) Release(ctx context.Context, productID, userID int64) error {
	return errors.Wrap(releaseScript.Run(ctx, a.client, a.keys(productID), userID).Err(), "run release script")
}

// Prepare 初始化抢购库存并清空已预占名单（管理端）。
func (a *FlashSaleRedisAdapter) Prepare(ctx context.Context, productID, stock int64) error {
	keys := a.keys(productID)
	pipe := a.client.Pipeline()
	pipe.Set(ctx, keys[0], stock, 0)
	pipe.Del(ctx, keys[1])
	_, err := pipe.Exec(ctx)
	return errors.Wrap(err, "prepare flash sale stock")
}

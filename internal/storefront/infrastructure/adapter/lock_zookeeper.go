// internal/storefront/infrastructure/adapter/lock_zookeeper.go
package adapter

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/pkg/errors"

	"bazaar/internal/storefront/domain/port"
)

const lockRoot = "/bazaar/stock_locks"

// ZkProductLocker 是 port.ProductLocker 的 ZooKeeper 实现，
// 供多进程部署时跨实例串行化同一商品的库存写入。
// 算法是标准的临时顺序节点加前驱监听：自己是最小节点即持锁，
// 否则只等前一个节点消失，避免惊群。
type ZkProductLocker struct {
	conn *zk.Conn
}

// NewZkProductLocker 连接 ZooKeeper 并确保锁的根节点存在。
func NewZkProductLocker(servers []string, sessionTimeout time.Duration) (*ZkProductLocker, error) {
	conn, _, err := zk.Connect(servers, sessionTimeout)
	if err != nil {
		return nil, errors.Wrap(err, "connect zookeeper")
	}
	if err := ensurePath(conn, lockRoot); err != nil {
		conn.Close()
		return nil, err
	}
	return &ZkProductLocker{conn: conn}, nil
}

func (l *ZkProductLocker) Lock(ctx context.Context, productID int64) (func(), error) {
	resourcePath := fmt.Sprintf("%s/product-%d", lockRoot, productID)
	if err := ensurePath(l.conn, resourcePath); err != nil {
		return nil, err
	}

	node, err := l.conn.CreateProtectedEphemeralSequential(resourcePath+"/lock-", []byte{}, zk.WorldACL(zk.PermAll))
	if err != nil {
		return nil, errors.Wrap(err, "create lock node")
	}
	unlock := func() {
		// 临时节点随会话消亡，删除失败只能留给会话超时兜底
		_ = l.conn.Delete(node, -1)
	}

	for {
		children, _, err := l.conn.Children(resourcePath)
		if err != nil {
			unlock()
			return nil, errors.Wrap(err, "list lock nodes")
		}
		sort.Strings(children)

		mine := strings.TrimPrefix(node, resourcePath+"/")
		if mine == children[0] {
			return unlock, nil
		}

		prev := -1
		for i, child := range children {
			if child == mine {
				prev = i - 1
				break
			}
		}
		if prev < 0 {
			unlock()
			return nil, errors.New("lock node missing from children listing")
		}

		exists, _, eventCh, err := l.conn.ExistsW(resourcePath + "/" + children[prev])
		if err != nil {
			unlock()
			return nil, errors.Wrap(err, "watch previous lock node")
		}
		if !exists {
			continue
		}

		select {
		case ev := <-eventCh:
			if ev.Type == zk.EventNodeDeleted {
				continue
			}
		case <-ctx.Done():
			unlock()
			return nil, ctx.Err()
		}
	}
}

// Close 断开 ZooKeeper 会话，持有中的锁随临时节点一并释放。
func (l *ZkProductLocker) Close() {
	l.conn.Close()
}

func ensurePath(conn *zk.Conn, path string) error {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	cur := ""
	for _, part := range parts {
		cur += "/" + part
		_, err := conn.Create(cur, []byte{}, 0, zk.WorldACL(zk.PermAll))
		if err != nil && err != zk.ErrNodeExists {
			return errors.Wrapf(err, "create zk path %s", cur)
		}
	}
	return nil
}

var _ port.ProductLocker = (*ZkProductLocker)(nil)

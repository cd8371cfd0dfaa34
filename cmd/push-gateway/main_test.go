package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/pkg/session"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	// 指向不可达地址：会话清理失败只记告警，不影响本地连接表
	mgr := session.NewManager("127.0.0.1:1")
	t.Cleanup(func() { mgr.Close() })
	return newHub(mgr, "push-gateway-test")
}

func (h *Hub) clientFor(userID string) *Client {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return h.clients[userID]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestHubStaleUnregisterKeepsNewClient(t *testing.T) {
	hub := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.run(ctx)

	first := &Client{hub: hub, send: make(chan []byte, 1), userID: "u1"}
	hub.register <- first
	waitFor(t, func() bool { return hub.clientFor("u1") == first })

	// 重连：新连接顶替旧连接
	second := &Client{hub: hub, send: make(chan []byte, 1), userID: "u1"}
	hub.register <- second
	waitFor(t, func() bool { return hub.clientFor("u1") == second })

	// 旧连接收尾发出的注销不能摘掉新连接，
	// 也不触发会话清理。借另一个用户的注销确认事件已被消费
	other := &Client{hub: hub, send: make(chan []byte, 1), userID: "u2"}
	hub.register <- other
	waitFor(t, func() bool { return hub.clientFor("u2") == other })
	hub.unregister <- first
	hub.unregister <- other
	waitFor(t, func() bool { return hub.clientFor("u2") == nil })

	require.Equal(t, second, hub.clientFor("u1"))
	assert.True(t, hub.Deliver("u1", []byte("hi")))

	hub.unregister <- second
	waitFor(t, func() bool { return hub.clientFor("u1") == nil })
	assert.False(t, hub.Deliver("u1", []byte("bye")))
}

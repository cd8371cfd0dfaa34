package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"bazaar/internal/pkg/bootstrap"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/mq"
	"bazaar/internal/pkg/session"
)

const serviceName = "push-gateway"

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool { // 简化处理，允许所有跨域
		return true
	},
}

// Hub 维护本节点全部活跃连接，并按 userID 投递消息。
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	lock       sync.RWMutex
	sessionMgr *session.Manager
	nodeID     string
}

func newHub(sessionMgr *session.Manager, nodeID string) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		sessionMgr: sessionMgr,
		nodeID:     nodeID,
	}
}

func (h *Hub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.lock.Lock()
			// 同一用户重连时替换旧连接
			if old, ok := h.clients[client.userID]; ok {
				close(old.send)
			}
			h.clients[client.userID] = client
			h.lock.Unlock()
			logger.Logger().Info().Str("user_id", client.userID).Msg("client registered")
		case client := <-h.unregister:
			h.lock.Lock()
			removed := false
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				close(client.send)
				removed = true
			}
			h.lock.Unlock()
			// 只有真正下线（而非被重连替换）才清会话，
			// Manager 侧还会比对节点归属，避免误删其他节点的新会话
			if removed {
				if err := h.sessionMgr.RemoveUserGateway(ctx, client.userID, h.nodeID); err != nil {
					logger.Logger().Warn().Err(err).Str("user_id", client.userID).Msg("failed to remove session")
				}
			}
			logger.Logger().Info().Str("user_id", client.userID).Msg("client unregistered")
		}
	}
}

// Deliver 把消息投递给本节点上的目标用户。用户不在本节点时返回 false。
func (h *Hub) Deliver(userID string, message []byte) bool {
	h.lock.RLock()
	client, ok := h.clients[userID]
	h.lock.RUnlock()
	if !ok {
		return false
	}
	select {
	case client.send <- message:
		return true
	default:
		// 发送缓冲已满，视为连接不健康，交给读写协程收尾
		return false
	}
}

// Client 是一条 WebSocket 连接。
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		// 客户端只发心跳，读到任何错误就断开
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func serveWs(hub *Hub, sessionMgr *session.Manager, nodeID string, w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Logger().Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256), userID: userID}
	client.hub.register <- client

	if err := sessionMgr.SetUserGateway(r.Context(), userID, nodeID); err != nil {
		logger.Logger().Error().Err(err).Str("user_id", userID).Msg("failed to set session")
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// consumeTopic 消费一个 topic 并把消息按 key（userID）投递到本地 Hub。
// 每个节点用自己的 groupID 整读 topic，非本节点用户的消息直接丢弃，
// 由持有该用户连接的节点投递。
func consumeTopic(ctx context.Context, brokers []string, topic, groupID string, hub *Hub) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		msgCtx := mq.ExtractHeaders(ctx, msg.Headers)

		userID := string(msg.Key)
		if hub.Deliver(userID, msg.Value) {
			logger.Ctx(msgCtx).Debug().Str("user_id", userID).Str("topic", topic).Msg("message delivered")
		}
	}
}

func main() {
	cfg, err := bootstrap.LoadConfig("configs/push-gateway.yaml")
	if err != nil {
		logger.Init(serviceName)
		logger.Logger().Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(serviceName)

	nodeID := serviceName + "-" + uuid.New().String()[:8]
	sessionMgr := session.NewManager(cfg.Redis.Addr)
	hub := newHub(sessionMgr, nodeID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.run(ctx)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return consumeTopic(groupCtx, cfg.Kafka.Brokers, cfg.Kafka.RestockTopic, nodeID, hub)
	})
	group.Go(func() error {
		return consumeTopic(groupCtx, cfg.Kafka.Brokers, cfg.Kafka.OrderEventsTopic, nodeID, hub)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, sessionMgr, nodeID, w, r)
	})
	server := &http.Server{Addr: ":8088", Handler: mux}
	go func() {
		logger.Logger().Info().Str("node_id", nodeID).Msgf("%s listening on %s", serviceName, server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger().Fatal().Err(err).Msg("listen failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Logger().Info().Msg("shutting down push gateway")

	cancel()
	if err := group.Wait(); err != nil {
		logger.Logger().Error().Err(err).Msg("consumer exited with error")
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Logger().Error().Err(err).Msg("error shutting down http server")
	}
	if err := sessionMgr.Close(); err != nil {
		logger.Logger().Error().Err(err).Msg("error closing session manager")
	}
}

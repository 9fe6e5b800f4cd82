package interfaces

import (
	"context"
	"net/http"
	"sync"
	"time"

	"bookstore/internal/pkg/logger"
	"bookstore/internal/pkg/mq"

	"github.com/gorilla/websocket"
	"github.com/segmentio/kafka-go"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 推送通道对所有来源开放，鉴权在边缘层完成
	CheckOrigin: func(r *http.Request) bool { return true },
}

// OrderEventHub 把订单事件流实时推给 WebSocket 客户端。
// 事件从 Kafka 的 order-events topic 消费，每个实例用独立的
// 消费组，保证每个实例都能收到全量事件。
type OrderEventHub struct {
	reader *kafka.Reader

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewOrderEventHub(reader *kafka.Reader) *OrderEventHub {
	return &OrderEventHub{
		reader:  reader,
		clients: make(map[*websocket.Conn]bool),
	}
}

// Run 循环消费订单事件并广播。ctx 取消后退出。
func (h *OrderEventHub) Run(ctx context.Context) {
	logger.Logger().Info().Str("topic", h.reader.Config().Topic).Msg("order event hub started")
	for {
		msg, err := h.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Logger().Info().Msg("order event hub shutting down")
				return
			}
			logger.Logger().Error().Err(err).Msg("could not read order event, retrying")
			time.Sleep(time.Second)
			continue
		}
		// 从消息头恢复生产方的链路上下文，让推送日志挂在同一条 trace 上
		msgCtx := mq.ExtractContext(ctx, msg)
		logger.Ctx(msgCtx).Debug().Msg("broadcasting order event")
		h.broadcast(msg.Value)
	}
}

func (h *OrderEventHub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			// 写失败的连接直接摘掉
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// HandleWS 处理 GET /ws/orders 的升级请求。
func (h *OrderEventHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Logger().Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	// 读循环只为感知断开，推送通道不接受客户端消息
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Close 停止消费。
func (h *OrderEventHub) Close() error {
	return h.reader.Close()
}

// NewOrderEventReader 为推送通道创建独立消费组的 reader。
func NewOrderEventReader(brokers []string, topic, instanceID string) *kafka.Reader {
	return mq.NewReader(brokers, topic, "order-push-"+instanceID)
}

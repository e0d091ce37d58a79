package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/LENAX/saucer/pkg/core/events"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	streamSendBuffer = 64
	streamWriteWait  = 10 * time.Second
)

// EventStream 通过 WebSocket 把进度事件推送给所有连接的客户端
// Broadcast 作为事件总线的处理器注册
type EventStream struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*streamClient]struct{}
}

type streamClient struct {
	conn  *websocket.Conn
	send  chan []byte
	runID string // 非空时只接收该运行的事件
}

// NewEventStream 创建事件流处理器
func NewEventStream() *EventStream {
	return &EventStream{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*streamClient]struct{}),
	}
}

// Serve 升级为 WebSocket 连接并持续推送事件
// GET /api/v1/events?run_id=
func (s *EventStream) Serve(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &streamClient{
		conn:  conn,
		send:  make(chan []byte, streamSendBuffer),
		runID: c.Query("run_id"),
	}
	s.mu.Lock()
	s.clients[client] = struct{}{}
	s.mu.Unlock()

	go s.writeLoop(client)
	s.readLoop(client)
}

// Broadcast 把事件发送给所有匹配的客户端，发送缓冲已满的客户端丢弃该事件
func (s *EventStream) Broadcast(msg *events.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		if client.runID != "" && client.runID != msg.RunID {
			continue
		}
		select {
		case client.send <- payload:
		default:
			log.Printf("⚠️ 事件流客户端过慢，丢弃事件 %s", msg.Kind)
		}
	}
	return nil
}

// Clients 当前连接数
func (s *EventStream) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Close 断开所有客户端
func (s *EventStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		delete(s.clients, client)
		close(client.send)
	}
}

func (s *EventStream) remove(client *streamClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		close(client.send)
	}
}

// readLoop 丢弃客户端消息，读失败即视为断开
func (s *EventStream) readLoop(client *streamClient) {
	defer s.remove(client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
	}
}

func (s *EventStream) writeLoop(client *streamClient) {
	defer client.conn.Close()
	for payload := range client.send {
		client.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	client.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	client.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

package notify

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"ArtistStudio/logger"

	"github.com/gorilla/websocket"
)

// EventType 上传事件类型
type EventType string

const (
	EventURLIssued       EventType = "url_issued"       // 已签发上传地址
	EventRecordConfirmed EventType = "record_confirmed" // 上传记录已激活
)

// Event is pushed to every connection of the owning user.
type Event struct {
	Type      EventType `json:"type"`
	UploadID  string    `json:"uploadId"`
	Kind      string    `json:"kind,omitempty"`
	Key       string    `json:"key,omitempty"`
	TrackID   string    `json:"trackId,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

type delivery struct {
	userID  int64
	payload []byte
}

// Client WebSocket 客户端
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	UserID int64
}

// Hub 上传通知管理中心，一个用户可以有多个连接
type Hub struct {
	users map[int64]map[*Client]struct{}
	mu    sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan delivery
	done       chan struct{}
	stopOnce   sync.Once

	upgrader websocket.Upgrader
}

// NewHub 创建通知 Hub。allowedOrigin 为空或 "*" 时接受任意来源，
// 否则浏览器发起的连接必须来自该来源
func NewHub(allowedOrigin string) *Hub {
	return &Hub{
		users:      make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan delivery, 256),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigin),
		},
	}
}

func originChecker(allowed string) func(r *http.Request) bool {
	allowed = strings.TrimRight(strings.TrimSpace(allowed), "/")
	return func(r *http.Request) bool {
		if allowed == "" || allowed == "*" {
			return true
		}
		origin := r.Header.Get("Origin")
		// 非浏览器客户端不带 Origin
		return origin == "" || strings.EqualFold(origin, allowed)
	}
}

// Run 启动 Hub 主循环
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case d := <-h.broadcast:
			h.deliver(d)
		case <-h.done:
			h.cleanup()
			return
		}
	}
}

// Stop 停止 Hub
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Publish queues ev for userID. It never blocks; events are dropped when the queue is full.
func (h *Hub) Publish(userID int64, ev Event) {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().UnixMilli()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- delivery{userID: userID, payload: data}:
	default:
		logger.Warn("[Notify] broadcast queue full, dropping event",
			logger.Int64("user", userID),
			logger.String("type", string(ev.Type)))
	}
}

// Connections returns the number of live connections of userID.
func (h *Hub) Connections(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[c.UserID] == nil {
		h.users[c.UserID] = make(map[*Client]struct{})
	}
	h.users[c.UserID][c] = struct{}{}
	logger.Debug("[Notify] client registered", logger.Int64("user", c.UserID))
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.users[c.UserID]
	if !ok {
		return
	}
	if _, ok := clients[c]; ok {
		delete(clients, c)
		close(c.send)
	}
	if len(clients) == 0 {
		delete(h.users, c.UserID)
	}
}

func (h *Hub) deliver(d delivery) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.users[d.userID]))
	for c := range h.users[d.userID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- d.payload:
		default:
			// 发送缓冲区满，移除客户端
			h.removeClient(c)
		}
	}
}

func (h *Hub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.users {
		for c := range clients {
			close(c.send)
		}
	}
	h.users = make(map[int64]map[*Client]struct{})
}

// ServeWS upgrades the request and subscribes the connection to userID's events.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID int64) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("[Notify] websocket upgrade failed", logger.ErrorField(err))
		return
	}
	c := &Client{hub: h, conn: conn, send: make(chan []byte, 32), UserID: userID}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

// readPump only drains control frames; clients never send events.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("[Notify] websocket read error",
					logger.ErrorField(err),
					logger.Int64("user", c.UserID))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub 关闭了通道
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

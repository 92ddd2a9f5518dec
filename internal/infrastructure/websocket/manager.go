package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"goldmarket/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

var ErrClientClosed = errors.New("websocket client closed")

// Client is one socket following one chat room.
type Client struct {
	UserID string
	ChatID string
	Conn   *websocket.Conn

	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc
	mutex  sync.Mutex
	closed bool
}

func NewClient(parent context.Context, conn *websocket.Conn, userID, chatID string) *Client {
	ctx, cancel := context.WithCancel(parent)
	return &Client{
		UserID: userID,
		ChatID: chatID,
		Conn:   conn,
		send:   make(chan []byte, sendBuffer),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context is cancelled once the socket is gone.
func (c *Client) Context() context.Context {
	return c.ctx
}

// SendFrame queues a frame. A client that cannot keep up is dropped.
func (c *Client) SendFrame(frame Frame) error {
	if frame.Timestamp == "" {
		frame.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.send <- payload:
		return nil
	default:
		c.closeLocked()
		return ErrClientClosed
	}
}

func (c *Client) close() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	c.cancel()
}

// Manager tracks live sockets per chat room.
type Manager struct {
	rooms map[string]map[*Client]struct{}
	mutex sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		rooms: make(map[string]map[*Client]struct{}),
	}
}

func (m *Manager) Register(client *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	clients, ok := m.rooms[client.ChatID]
	if !ok {
		clients = make(map[*Client]struct{})
		m.rooms[client.ChatID] = clients
	}
	clients[client] = struct{}{}
	logger.Debug("WebSocket: %s joined chat %s", client.UserID, client.ChatID)
}

func (m *Manager) Unregister(client *Client) {
	m.mutex.Lock()
	if clients, ok := m.rooms[client.ChatID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(m.rooms, client.ChatID)
		}
	}
	m.mutex.Unlock()

	client.close()
	logger.Debug("WebSocket: %s left chat %s", client.UserID, client.ChatID)
}

// Count returns the number of sockets following chatID.
func (m *Manager) Count(chatID string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms[chatID])
}

// Shutdown closes every socket.
func (m *Manager) Shutdown() {
	m.mutex.Lock()
	var all []*Client
	for _, clients := range m.rooms {
		for c := range clients {
			all = append(all, c)
		}
	}
	m.rooms = make(map[string]map[*Client]struct{})
	m.mutex.Unlock()

	for _, c := range all {
		c.close()
	}
}

// ReadPump reads client commands until the socket closes, then unregisters.
func (c *Client) ReadPump(m *Manager, onCommand func(Command)) {
	defer func() {
		m.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket: read error for %s: %v", c.UserID, err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			_ = c.SendFrame(ErrorFrame("Invalid message format"))
			continue
		}
		if cmd.Type == CommandPing {
			_ = c.SendFrame(Frame{Type: FramePong})
			continue
		}
		if onCommand != nil {
			onCommand(cmd)
		}
	}
}

// WritePump drains queued frames to the socket and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("WebSocket: write error for %s: %v", c.UserID, err)
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

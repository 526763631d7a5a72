package ws

import (
	"context"

	"messaging_backend/internal/logger"
	"messaging_backend/internal/metrics"
	"messaging_backend/internal/services/dto"
)

const pushBuffer = 256

type delivery struct {
	userID  string
	payload any
}

// WebSocketManager keeps the live connections per user and delivers
// notifications to them. All map access happens on the Run goroutine.
type WebSocketManager struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	push       chan delivery
	count      chan chan int
	done       chan struct{}
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		push:       make(chan delivery, pushBuffer),
		count:      make(chan chan int),
		done:       make(chan struct{}),
	}
}

// Run serves the manager until ctx is done, then closes every client.
func (m *WebSocketManager) Run(ctx context.Context) {
	defer close(m.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range m.clients {
				for client := range set {
					close(client.Send)
				}
			}
			m.clients = make(map[string]map[*Client]struct{})
			return

		case client := <-m.register:
			set, ok := m.clients[client.UserID]
			if !ok {
				set = make(map[*Client]struct{})
				m.clients[client.UserID] = set
			}
			set[client] = struct{}{}
			logger.Debug("websocket client registered", "user_id", client.UserID, "connections", len(set))

		case client := <-m.unregister:
			m.drop(client)

		case d := <-m.push:
			for client := range m.clients[d.userID] {
				select {
				case client.Send <- d.payload:
					metrics.NotificationsPushed.Inc()
				default:
					logger.Warn("websocket client too slow, dropping", "user_id", client.UserID)
					m.drop(client)
				}
			}

		case reply := <-m.count:
			n := 0
			for _, set := range m.clients {
				n += len(set)
			}
			reply <- n
		}
	}
}

func (m *WebSocketManager) drop(client *Client) {
	set, ok := m.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.Send)
	if len(set) == 0 {
		delete(m.clients, client.UserID)
	}
	logger.Debug("websocket client unregistered", "user_id", client.UserID)
}

// PublishNotification queues n for userID's connections. It never blocks;
// when the queue is full the notification is only in the database.
func (m *WebSocketManager) PublishNotification(userID string, n *dto.NotificationResponse) {
	select {
	case m.push <- delivery{userID: userID, payload: Envelope{Type: "notification", Data: n}}:
	default:
		logger.Warn("websocket push queue full, notification not delivered live", "user_id", userID)
	}
}

// ClientCount reports the number of live connections, or 0 once stopped.
func (m *WebSocketManager) ClientCount() int {
	reply := make(chan int, 1)
	select {
	case m.count <- reply:
		return <-reply
	case <-m.done:
		return 0
	}
}

// Register adds client; it reports false when the manager has stopped.
func (m *WebSocketManager) Register(client *Client) bool {
	select {
	case m.register <- client:
		return true
	case <-m.done:
		return false
	}
}

func (m *WebSocketManager) Unregister(client *Client) {
	select {
	case m.unregister <- client:
	case <-m.done:
	}
}

// Envelope is the JSON frame sent to clients.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

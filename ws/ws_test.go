package ws_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"messaging_backend/internal/middleware"
	"messaging_backend/internal/models"
	"messaging_backend/internal/services/dto"
	"messaging_backend/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*ws.WebSocketManager, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	manager := ws.NewWebSocketManager()
	go manager.Run(ctx)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if user := c.Query("as"); user != "" {
			middleware.SetIdentity(c, models.Identity{UserID: user})
		}
		c.Next()
	})
	router.GET("/ws/notifications", ws.NewWebSocketHandler(manager, nil).ServeWS)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return manager, srv
}

func dial(t *testing.T, srv *httptest.Server, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications?as=" + user
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestPushReachesEveryConnectionOfTheUser(t *testing.T) {
	manager, srv := newServer(t)

	first := dial(t, srv, "bob")
	second := dial(t, srv, "bob")
	other := dial(t, srv, "carol")
	require.Eventually(t, func() bool { return manager.ClientCount() == 3 }, time.Second, 10*time.Millisecond)

	manager.PublishNotification("bob", &dto.NotificationResponse{ID: "n1", UserID: "bob", Title: "New message"})

	for _, conn := range []*websocket.Conn{first, second} {
		var frame struct {
			Type string                   `json:"type"`
			Data dto.NotificationResponse `json:"data"`
		}
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&frame))
		assert.Equal(t, "notification", frame.Type)
		assert.Equal(t, "n1", frame.Data.ID)
	}

	// carol gets nothing.
	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err)
}

func TestDisconnectUnregisters(t *testing.T) {
	manager, srv := newServer(t)

	conn := dial(t, srv, "bob")
	require.Eventually(t, func() bool { return manager.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return manager.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestAnonymousIsRejected(t *testing.T) {
	_, srv := newServer(t)

	resp, err := http.Get(srv.URL + "/ws/notifications")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPublishWithoutConnectionsDoesNotBlock(t *testing.T) {
	manager := ws.NewWebSocketManager()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			manager.PublishNotification("nobody", &dto.NotificationResponse{ID: "x"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("PublishNotification blocked without a running manager")
	}
}

package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warden-io/warden-panel/models"
)

type staticToken string

func (t staticToken) Token() string { return string(t) }

// wsTestServer upgrades every request, writes the given frames and then
// waits for the client to hang up.
func wsTestServer(t *testing.T, frames ...interface{}) (*httptest.Server, <-chan string) {
	t.Helper()

	tokens := make(chan string, 1)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens <- r.URL.Query().Get("token")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for _, frame := range frames {
			switch f := frame.(type) {
			case string:
				_ = conn.WriteMessage(websocket.TextMessage, []byte(f))
			default:
				_ = conn.WriteJSON(f)
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return server, tokens
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func TestWebSocketServiceDeliversOperationUpdates(t *testing.T) {
	update, err := models.NewStandardMessage(models.EventMessage, models.OperationUpdatedEvent, models.OperationUpdatedMessage{
		RequestID: "42",
		Name:      "signed_up",
		State:     models.OperationStateCompleted,
	})
	require.NoError(t, err)
	other, err := models.NewStandardMessage(models.EventMessage, "note_created", map[string]string{"id": "1"})
	require.NoError(t, err)

	server, tokens := wsTestServer(t, "not json", other, update)

	var mu sync.Mutex
	var received []models.OperationUpdatedMessage
	ws := NewWebSocketService(wsURL(server), staticToken("abc"), func(msg models.OperationUpdatedMessage) bool {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, msg)
		return true
	})

	require.NoError(t, ws.Connect(context.Background()))
	defer ws.Close()

	assert.Equal(t, "abc", <-tokens)
	assert.True(t, ws.Connected())
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "42", received[0].RequestID)
	assert.True(t, received[0].Succeeded())
	mu.Unlock()
}

func TestWebSocketServiceClose(t *testing.T) {
	server, _ := wsTestServer(t)
	ws := NewWebSocketService(wsURL(server), nil, nil)

	require.NoError(t, ws.Connect(context.Background()))
	done := ws.Done()

	require.NoError(t, ws.Close())
	assert.False(t, ws.Connected())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("read pump did not stop")
	}

	assert.ErrorIs(t, ws.Close(), ErrNotConnected)
}

func TestWebSocketServiceDisconnectedByServer(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"))
		conn.Close()
	}))
	defer server.Close()

	ws := NewWebSocketService(wsURL(server), nil, nil)
	require.NoError(t, ws.Connect(context.Background()))

	select {
	case <-ws.Done():
	case <-time.After(time.Second):
		t.Fatal("read pump did not stop")
	}
	assert.False(t, ws.Connected())
}

func TestWebSocketServiceHandshakeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	ws := NewWebSocketService(wsURL(server), staticToken("expired"), nil)
	err := ws.Connect(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.False(t, ws.Connected())
}

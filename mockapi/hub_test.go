package mockapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warden-io/warden-panel/models"
)

func startHub(t *testing.T) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("user"))
	}))
	t.Cleanup(func() {
		cancel()
		server.Close()
	})
	return hub, server, cancel
}

func dial(t *testing.T, server *httptest.Server, user string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/?user=" + user
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubSendsToUser(t *testing.T) {
	hub, server, _ := startHub(t)
	alice := dial(t, server, "alice")
	bob := dial(t, server, "bob")
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	message, err := models.NewStandardMessage(models.EventMessage, models.OperationUpdatedEvent, models.OperationUpdatedMessage{RequestID: "42", Name: "signed_up", State: models.OperationStateCompleted})
	require.NoError(t, err)
	hub.SendToUser("alice", message)

	var received models.StandardMessage
	require.NoError(t, alice.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, alice.ReadJSON(&received))
	update, ok := received.OperationUpdate()
	require.True(t, ok)
	assert.Equal(t, "42", update.RequestID)

	require.NoError(t, bob.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	_, _, err = bob.ReadMessage()
	assert.Error(t, err)
}

func TestHubBroadcastsWithoutUser(t *testing.T) {
	hub, server, _ := startHub(t)
	conn := dial(t, server, "carol")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	message, err := models.NewStandardMessage(models.EventMessage, "maintenance", map[string]string{})
	require.NoError(t, err)
	hub.SendToUser("", message)

	var received models.StandardMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&received))
	assert.Equal(t, "maintenance", received.Event)
}

func TestHubUnregistersClosedClients(t *testing.T) {
	hub, server, _ := startHub(t)
	conn := dial(t, server, "dave")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub, server, cancel := startHub(t)
	conn := dial(t, server, "erin")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/warden-io/warden-panel/models"
)

const (
	wsPongWait   = 60 * time.Second
	wsWriteWait  = 10 * time.Second
	wsReadLimit  = 64 * 1024
	wsCloseGrace = time.Second
)

// OperationUpdateHandler receives operation_updated notifications. It
// reports whether the notification resolved a pending operation.
type OperationUpdateHandler func(message models.OperationUpdatedMessage) bool

type TokenSource interface {
	Token() string
}

type WebSocketServiceInterface interface {
	Connect(ctx context.Context) error
	Connected() bool
	Close() error
}

// WebSocketService is the realtime channel to the API. It forwards
// operation_updated events to its handler.
type WebSocketService struct {
	url     string
	tokens  TokenSource
	handler OperationUpdateHandler
	dialer  *websocket.Dialer

	mu        sync.Mutex
	conn      *websocket.Conn
	done      chan struct{}
	connected atomic.Bool
}

func NewWebSocketService(wsURL string, tokens TokenSource, handler OperationUpdateHandler) *WebSocketService {
	return &WebSocketService{
		url:     wsURL,
		tokens:  tokens,
		handler: handler,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
	}
}

func (ws *WebSocketService) Connect(ctx context.Context) error {
	target, err := url.Parse(ws.url)
	if err != nil {
		return fmt.Errorf("invalid websocket url %q: %w", ws.url, err)
	}
	if ws.tokens != nil {
		if token := ws.tokens.Token(); token != "" {
			query := target.Query()
			query.Set("token", token)
			target.RawQuery = query.Encode()
		}
	}

	conn, resp, err := ws.dialer.DialContext(ctx, target.String(), nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket handshake failed with status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("dialing websocket: %w", err)
	}

	ws.mu.Lock()
	if ws.conn != nil {
		ws.conn.Close()
	}
	ws.conn = conn
	ws.done = make(chan struct{})
	done := ws.done
	ws.mu.Unlock()

	ws.connected.Store(true)
	log.Info().Str("url", ws.url).Msg("websocket connected")

	go ws.readPump(conn, done)
	return nil
}

func (ws *WebSocketService) Connected() bool {
	return ws.connected.Load()
}

// Done is closed when the current connection stops reading.
func (ws *WebSocketService) Done() <-chan struct{} {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.done
}

func (ws *WebSocketService) Close() error {
	ws.mu.Lock()
	conn := ws.conn
	ws.conn = nil
	ws.mu.Unlock()

	ws.connected.Store(false)
	if conn == nil {
		return ErrNotConnected
	}

	deadline := time.Now().Add(wsCloseGrace)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		log.Debug().Err(err).Msg("websocket close frame not sent")
	}
	return conn.Close()
}

func (ws *WebSocketService) readPump(conn *websocket.Conn, done chan struct{}) {
	defer func() {
		ws.mu.Lock()
		if ws.conn == conn {
			ws.conn = nil
			ws.connected.Store(false)
		}
		ws.mu.Unlock()
		conn.Close()
		close(done)
	}()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(wsWriteWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		ws.processMessage(data)
	}
}

func (ws *WebSocketService) processMessage(data []byte) {
	var message models.StandardMessage
	if err := json.Unmarshal(data, &message); err != nil {
		log.Warn().Err(err).Msg("unreadable websocket message")
		return
	}

	update, ok := message.OperationUpdate()
	if !ok {
		log.Debug().Str("type", string(message.Type)).Str("event", message.Event).Msg("ignoring websocket message")
		return
	}
	if ws.handler != nil {
		ws.handler(update)
	}
}

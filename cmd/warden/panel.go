package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/warden-io/warden-panel/broker"
	"github.com/warden-io/warden-panel/config"
	"github.com/warden-io/warden-panel/services"
)

// panel wires the client services together.
type panel struct {
	cfg        config.Config
	auth       *services.AuthService
	api        *services.ApiBaseService
	store      *services.PendingOperationStore
	operations *services.OperationService

	closers []func()
}

func newPanel(cfg config.Config) (*panel, error) {
	auth := services.NewAuthService(cfg.AuthToken)
	api, err := services.NewApiBaseService(cfg.APIURL, auth, cfg.CacheTTL, cfg.RequestTimeout)
	if err != nil {
		return nil, err
	}

	store := services.NewPendingOperationStore(cfg.PendingTTL)
	retryer := services.NewBackoffRetryer(cfg.PollAttempts, cfg.PollMinInterval, cfg.PollMaxInterval)
	operations := services.NewOperationService(
		services.NewSubscriptionManager(services.NewOperationRegistry()),
		store,
		services.NewOperationPoller(api, retryer),
		auth,
		cfg.PushTimeout,
	)

	return &panel{cfg: cfg, auth: auth, api: api, store: store, operations: operations}, nil
}

func (p *panel) signIn(ctx context.Context, username, password string) error {
	response, err := p.api.Post(ctx, "tokens", map[string]string{"username": username, "password": password})
	if err != nil {
		return fmt.Errorf("signing in: %w", err)
	}
	if messages := response.ErrorMessages(); len(messages) > 0 {
		return fmt.Errorf("signing in: %s", messages[0])
	}

	accessToken, _ := response["accessToken"].(string)
	if accessToken == "" {
		return fmt.Errorf("signing in: %w", services.ErrUnauthorized)
	}
	p.auth.SetToken(accessToken)
	return nil
}

// startPush connects the configured push transport. Failures only disable
// push; operations are then resolved by polling.
func (p *panel) startPush(ctx context.Context) {
	p.store.StartJanitor(ctx, p.cfg.PendingTTL/2)

	switch p.cfg.PushTransport {
	case config.PushWebSocket:
		if !p.auth.IsLoggedIn() {
			log.Debug().Msg("not signed in, realtime channel disabled")
			return
		}
		ws := services.NewWebSocketService(p.cfg.WebSocketURL, p.auth, p.operations.HandleOperationUpdated)
		if err := ws.Connect(ctx); err != nil {
			log.Warn().Err(err).Msg("websocket unavailable, falling back to polling")
			return
		}
		p.operations.SetRealtimeChannel(ws)
		p.closers = append(p.closers, func() { _ = ws.Close() })

	case config.PushNATS:
		consumer, err := broker.InitConsumer(p.cfg.NatsURL, []string{p.cfg.NatsSubject}, "")
		if err != nil {
			log.Warn().Err(err).Msg("nats unavailable, falling back to polling")
			return
		}
		handler := services.NewEventHandlerService(consumer, p.operations.HandleOperationUpdated)
		handler.Start()
		p.operations.SetRealtimeChannel(handler)
		p.closers = append(p.closers, handler.Stop)

	case config.PushNone:
	default:
		log.Warn().Str("transport", p.cfg.PushTransport).Msg("unknown push transport, polling only")
	}
}

func (p *panel) close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
}

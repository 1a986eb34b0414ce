// Package client is an asynchronous sc-server client.
//
// A Client keeps one WebSocket connection to sc-server and multiplexes every
// request and event subscription over it. All methods are safe for concurrent use.
//
// Example:
//
//	c, err := client.New(client.DefaultConfig())
//	if err != nil {
//	    log.Fatal().Err(err).Msg("client")
//	}
//	defer c.Close(ctx)
//
//	if err := c.Connect(ctx, "ws://localhost:8090/ws_json"); err != nil {
//	    log.Fatal().Err(err).Msg("connect")
//	}
//	addrs, err := c.ResolveKeynodes(ctx, sc.IdtfResolveParams{Idtf: "nrel_main_idtf"})
package client

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/luciancaetano/scnet"
	"github.com/luciancaetano/scnet/internal/executor"
	"github.com/luciancaetano/scnet/internal/session"
	"github.com/luciancaetano/scnet/internal/websocket"
	"github.com/luciancaetano/scnet/sc"
)

// Client is a connection to sc-server.
type Client struct {
	session *session.Session
	exec    *executor.Executor
}

// New creates a disconnected Client. A nil cfg uses DefaultConfig().
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	transport := cfg.Transport
	if transport == nil {
		dialerCfg := websocket.DefaultDialerConfig()
		if cfg.HandshakeTimeout > 0 {
			dialerCfg.HandshakeTimeout = cfg.HandshakeTimeout
		}
		if cfg.PingInterval > 0 {
			dialerCfg.PingInterval = cfg.PingInterval
			if dialerCfg.ReadTimeout <= cfg.PingInterval {
				dialerCfg.ReadTimeout = cfg.PingInterval * 10 / 9
			}
		}
		dialerCfg.Logger = &logger
		transport = websocket.NewDialer(dialerCfg)
	}

	s, err := session.New(&session.Config{
		URL:                  cfg.URL,
		Transport:            transport,
		ResponseTimeout:      cfg.ResponseTimeout,
		EstablishTimeout:     cfg.EstablishTimeout,
		ReconnectRetries:     cfg.ReconnectRetries,
		ReconnectRetryDelay:  cfg.ReconnectRetryDelay,
		MaxPayloadSize:       cfg.MaxPayloadSize,
		RateLimit:            sessionRateLimit(cfg.RateLimit),
		ErrorHandler:         cfg.ErrorHandler,
		ReconnectHandler:     cfg.ReconnectHandler,
		PostReconnectHandler: cfg.PostReconnectHandler,
		Logger:               &logger,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		session: s,
		exec:    executor.New(s, s.Subscriptions(), logger),
	}, nil
}

func sessionRateLimit(c *RateLimitConfig) *session.RateLimitConfig {
	if c == nil {
		return nil
	}
	return &session.RateLimitConfig{
		MessagesPerSecond: rate.Limit(c.MessagesPerSecond),
		Burst:             c.Burst,
		Enabled:           c.Enabled,
	}
}

// ID returns the session identifier attached to every log line of this Client.
func (c *Client) ID() string {
	return c.session.ID()
}

// Connect opens the connection to url and waits up to the establish timeout for it.
// A Client that is already connected only remembers url for later reconnects.
func (c *Client) Connect(ctx context.Context, url string) error {
	return c.session.Connect(ctx, url)
}

func (c *Client) IsConnected() bool {
	return c.session.IsConnected()
}

// Disconnect closes the connection. The Client may connect again later.
func (c *Client) Disconnect(ctx context.Context) error {
	return c.session.Disconnect(ctx)
}

// Close disconnects and releases the Client. Pending requests fail at once.
func (c *Client) Close(ctx context.Context) error {
	return c.session.Close(ctx)
}

// SetErrorHandler replaces the error handler. nil restores the default, which
// returns every error to the caller.
func (c *Client) SetErrorHandler(h scnet.ErrorHandler) {
	c.session.SetErrorHandler(h)
}

// SetReconnectHandler replaces the reconnect policy.
func (c *Client) SetReconnectHandler(cfg ReconnectConfig) {
	c.session.SetReconnectHandler(cfg.Handler, cfg.PostHandler, cfg.Retries, cfg.Delay)
}

// GetElementsTypes returns the type of every address; missing elements are sc.Unknown.
func (c *Client) GetElementsTypes(ctx context.Context, addrs ...sc.Addr) ([]sc.Type, error) {
	return c.exec.GetElementsTypes(ctx, addrs...)
}

// GenerateElements generates a construction and returns the new addresses in command order.
func (c *Client) GenerateElements(ctx context.Context, constr *sc.Construction) ([]sc.Addr, error) {
	return c.exec.GenerateElements(ctx, constr)
}

func (c *Client) GenerateElementsBySCs(ctx context.Context, texts []sc.SCs) ([]bool, error) {
	return c.exec.GenerateElementsBySCs(ctx, texts)
}

func (c *Client) EraseElements(ctx context.Context, addrs ...sc.Addr) (bool, error) {
	return c.exec.EraseElements(ctx, addrs...)
}

func (c *Client) SetLinkContents(ctx context.Context, contents ...sc.LinkContent) (bool, error) {
	return c.exec.SetLinkContents(ctx, contents...)
}

func (c *Client) GetLinkContent(ctx context.Context, addrs ...sc.Addr) ([]sc.LinkContent, error) {
	return c.exec.GetLinkContent(ctx, addrs...)
}

// SearchLinksByContents accepts sc.LinkContent values or raw string, integer and float data.
func (c *Client) SearchLinksByContents(ctx context.Context, contents ...any) ([][]sc.Addr, error) {
	return c.exec.SearchLinksByContents(ctx, contents...)
}

func (c *Client) SearchLinksByContentsSubstrings(ctx context.Context, contents ...any) ([][]sc.Addr, error) {
	return c.exec.SearchLinksByContentsSubstrings(ctx, contents...)
}

// SearchLinkContentsByContentSubstrings returns the raw values reported by sc-server.
func (c *Client) SearchLinkContentsByContentSubstrings(ctx context.Context, contents ...any) ([][]uint64, error) {
	return c.exec.SearchLinkContentsByContentSubstrings(ctx, contents...)
}

func (c *Client) ResolveKeynodes(ctx context.Context, params ...sc.IdtfResolveParams) ([]sc.Addr, error) {
	return c.exec.ResolveKeynodes(ctx, params...)
}

// SearchByTemplate accepts a *sc.Template, SCs text, an sc.TemplateIdtf or an sc.Addr.
func (c *Client) SearchByTemplate(ctx context.Context, template any, params sc.TemplateParams) ([]*sc.TemplateResult, error) {
	return c.exec.SearchByTemplate(ctx, template, params)
}

func (c *Client) GenerateByTemplate(ctx context.Context, template any, params sc.TemplateParams) (*sc.TemplateResult, error) {
	return c.exec.GenerateByTemplate(ctx, template, params)
}

// CreateElementaryEventSubscriptions subscribes to events. Handlers of one
// subscription are called in event order.
func (c *Client) CreateElementaryEventSubscriptions(ctx context.Context, params ...sc.EventSubscriptionParams) ([]*sc.EventSubscription, error) {
	return c.exec.CreateElementaryEventSubscriptions(ctx, params...)
}

func (c *Client) DestroyElementaryEventSubscriptions(ctx context.Context, subs ...*sc.EventSubscription) (bool, error) {
	return c.exec.DestroyElementaryEventSubscriptions(ctx, subs...)
}

func (c *Client) IsEventSubscriptionValid(sub *sc.EventSubscription) (bool, error) {
	return c.exec.IsEventSubscriptionValid(sub)
}

// Package client is the authenticated NaNoWriMo API client.
//
// Every operation goes through one request protocol: the session token is
// attached, the exchange is sent, and a 401 received while holding a token
// triggers exactly one re-login followed by one retry. Failures are
// *fault.Error values, so callers can tell transport, service, decode and
// contract failures apart with fault.Is.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/conduit-lang/nanowrimo/pkg/nano/model"
	"github.com/conduit-lang/nanowrimo/pkg/nano/session"
	"github.com/conduit-lang/nanowrimo/pkg/nano/transport"
)

// Client talks to the NaNoWriMo API on behalf of one account, or
// anonymously. It is safe for concurrent use.
type Client struct {
	transport transport.Transport
	session   *session.Session
	logins    *singleflight.Group
	logger    *zap.Logger
	decode    model.DecodeOptions
	requestID func() string

	baseURL    string
	timeout    time.Duration
	store      session.Store
	storeTTL   time.Duration
	sharedSess *session.Session
}

// Option configures a Client
type Option func(*Client)

// WithTransport replaces the HTTP transport, mostly for tests
func WithTransport(t transport.Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithBaseURL points the default HTTP transport at another API root
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the per-exchange timeout of the default HTTP transport
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTokenStore persists session tokens in store
func WithTokenStore(store session.Store, ttl time.Duration) Option {
	return func(c *Client) {
		c.store = store
		c.storeTTL = ttl
	}
}

// WithSession shares an existing session with this client
func WithSession(s *session.Session) Option {
	return func(c *Client) {
		c.sharedSess = s
	}
}

// WithLenientKinds decodes resources of unregistered kinds as kind.Unknown
// instead of failing the response
func WithLenientKinds() Option {
	return func(c *Client) {
		c.decode.AllowUnknownKinds = true
	}
}

// WithRequestIDs replaces the request ID generator
func WithRequestIDs(gen func() string) Option {
	return func(c *Client) {
		c.requestID = gen
	}
}

// New creates an anonymous client
func New(opts ...Option) (*Client, error) {
	c := &Client{
		logins:    new(singleflight.Group),
		logger:    zap.NewNop(),
		requestID: func() string { return uuid.New().String() },
		timeout:   transport.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		h, err := transport.NewHTTP(c.baseURL, transport.WithTimeout(c.timeout))
		if err != nil {
			return nil, fmt.Errorf("failed to create transport: %w", err)
		}
		c.transport = h
	}

	switch {
	case c.sharedSess != nil:
		c.session = c.sharedSess
	case c.store != nil:
		c.session = session.New(session.Credentials{}, session.WithStore(c.store), session.WithTokenTTL(c.storeTTL))
	default:
		c.session = session.New(session.Credentials{})
	}
	return c, nil
}

// NewUser creates a client and logs in with the given credentials. A token
// saved in the configured store is reused instead of logging in again.
func NewUser(ctx context.Context, identifier, secret string, opts ...Option) (*Client, error) {
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	c.session.SetCredentials(session.Credentials{Identifier: identifier, Secret: secret})

	restored, err := c.session.Restore(ctx)
	if err != nil {
		c.logger.Warn("could not restore saved session", zap.String("identifier", identifier), zap.Error(err))
	}
	if restored {
		c.logger.Debug("restored saved session", zap.String("identifier", identifier))
		return c, nil
	}

	if err := c.LoginWith(ctx, identifier, secret); err != nil {
		return nil, err
	}
	return c, nil
}

// Clone returns a client sharing this client's session and transport, with
// its own options applied on top
func (c *Client) Clone(opts ...Option) *Client {
	cp := *c
	for _, opt := range opts {
		opt(&cp)
	}
	cp.session = c.session
	cp.logins = c.logins
	return &cp
}

// Session returns the session cell of the client
func (c *Client) Session() *session.Session {
	return c.session
}

// IsAuthenticated reports whether the client holds a session token
func (c *Client) IsAuthenticated() bool {
	return c.session.Authenticated()
}

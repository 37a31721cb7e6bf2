package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/nanowrimo/internal/testing/fixtures"
	"github.com/conduit-lang/nanowrimo/pkg/nano/session"
	"github.com/conduit-lang/nanowrimo/pkg/nano/transport"
)

// fakeTransport answers requests through a handler and records them
type fakeTransport struct {
	mu       sync.Mutex
	handler  func(req *transport.Request) (*transport.Response, error)
	requests []transport.Request
}

func (f *fakeTransport) Do(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, *req)
	f.mu.Unlock()
	return f.handler(req)
}

func (f *fakeTransport) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (f *fakeTransport) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func respond(status int, body string) (*transport.Response, error) {
	return &transport.Response{Status: status, Body: []byte(body)}, nil
}

func loginBody(token string) string {
	return fmt.Sprintf(`{"auth_token":%q}`, token)
}

func isLogin(req *transport.Request) bool {
	return req.Method == http.MethodPost && req.Path == signInPath
}

// newTestClient returns a client over ft that already holds token for the
// account writer/pw. An empty token gives an anonymous client.
func newTestClient(t *testing.T, ft *fakeTransport, token string, opts ...Option) *Client {
	t.Helper()

	sess := session.New(session.Credentials{})
	if token != "" {
		creds := session.Credentials{Identifier: "writer", Secret: "pw"}
		require.NoError(t, sess.Authenticate(context.Background(), creds, token))
	}

	opts = append([]Option{WithTransport(ft), WithSession(sess)}, opts...)
	c, err := New(opts...)
	require.NoError(t, err)
	return c
}

func resource(typ string, id uint64, attrs string) string {
	return fmt.Sprintf(`{"id":"%d","type":%q,"attributes":%s,"links":{"self":"%s/%d"}}`, id, typ, attrs, typ, id)
}

var (
	genreDoc        = `{"data":` + resource("genres", 1, fixtures.Attributes("genres", nil)) + `}`
	notificationDoc = `{"data":[` + resource("notifications", 3, fixtures.Attributes("notifications", nil)) + `]}`
	userDoc         = `{"data":` + resource("users", 42, fixtures.Attributes("users", map[string]any{"name": "Writer"})) + `}`
)

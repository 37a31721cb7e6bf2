package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/nanowrimo/pkg/nano/fault"
	"github.com/conduit-lang/nanowrimo/pkg/nano/kind"
	"github.com/conduit-lang/nanowrimo/pkg/nano/model"
	"github.com/conduit-lang/nanowrimo/pkg/nano/transport"
)

func TestClient_ReauthenticatesOnceAndRetries(t *testing.T) {
	ft := &fakeTransport{}
	ft.handler = func(req *transport.Request) (*transport.Response, error) {
		switch {
		case isLogin(req):
			assert.Empty(t, req.Token)
			return respond(http.StatusOK, loginBody("fresh"))
		case req.Token == "stale":
			return respond(http.StatusUnauthorized, `{"error":"token expired"}`)
		default:
			return respond(http.StatusOK, notificationDoc)
		}
	}
	c := newTestClient(t, ft, "stale")

	coll, err := c.Notifications(context.Background())
	require.NoError(t, err)
	require.Len(t, coll.Data, 1)
	assert.Equal(t, kind.Notification, coll.Data[0].Kind)

	assert.Equal(t, 1, ft.count(http.MethodPost, signInPath))
	assert.Equal(t, 2, ft.count(http.MethodGet, "notifications"))
	assert.Equal(t, "fresh", c.Session().Token())
}

func TestClient_SecondUnauthorizedSurfaces(t *testing.T) {
	ft := &fakeTransport{}
	ft.handler = func(req *transport.Request) (*transport.Response, error) {
		if isLogin(req) {
			return respond(http.StatusOK, loginBody("fresh"))
		}
		return respond(http.StatusUnauthorized, `{"error":"nope"}`)
	}
	c := newTestClient(t, ft, "stale")

	_, err := c.Notifications(context.Background())
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.CategoryService))
	assert.Equal(t, http.StatusUnauthorized, fault.StatusOf(err))
	assert.Equal(t, 1, ft.count(http.MethodPost, signInPath))
	assert.Equal(t, 2, ft.count(http.MethodGet, "notifications"))
}

func TestClient_UnauthorizedWithoutTokenDoesNotLogIn(t *testing.T) {
	ft := &fakeTransport{handler: func(req *transport.Request) (*transport.Response, error) {
		return respond(http.StatusUnauthorized, `{"error":"You must be logged in"}`)
	}}
	c := newTestClient(t, ft, "")

	_, err := c.Notifications(context.Background())
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.CategoryService))
	assert.Contains(t, err.Error(), "You must be logged in")
	assert.Equal(t, 0, ft.count(http.MethodPost, signInPath))
	assert.Equal(t, 1, ft.total())
}

func TestClient_FailedReloginSurfaces(t *testing.T) {
	ft := &fakeTransport{}
	ft.handler = func(req *transport.Request) (*transport.Response, error) {
		if isLogin(req) {
			return respond(http.StatusUnauthorized, `{"error":"Invalid identifier or password"}`)
		}
		return respond(http.StatusUnauthorized, `{"error":"expired"}`)
	}
	c := newTestClient(t, ft, "stale")

	_, err := c.Notifications(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid identifier or password")
	assert.Equal(t, 1, ft.count(http.MethodGet, "notifications"))
}

func TestClient_ConcurrentReloginsCollapse(t *testing.T) {
	var logins int32
	var current atomic.Value
	current.Store("stale")

	ft := &fakeTransport{}
	ft.handler = func(req *transport.Request) (*transport.Response, error) {
		if isLogin(req) {
			atomic.AddInt32(&logins, 1)
			time.Sleep(20 * time.Millisecond)
			current.Store("fresh")
			return respond(http.StatusOK, loginBody("fresh"))
		}
		if req.Token != current.Load().(string) || req.Token == "stale" {
			return respond(http.StatusUnauthorized, `{"error":"expired"}`)
		}
		return respond(http.StatusOK, genreDoc)
	}
	c := newTestClient(t, ft, "stale")

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.GetID(context.Background(), kind.Genre, 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&logins))
}

func TestClient_ServerFaultsAreNotRetried(t *testing.T) {
	tests := []struct {
		status  int
		message string
	}{
		{http.StatusInternalServerError, "Internal Server Error"},
		{http.StatusNotFound, "Page Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			ft := &fakeTransport{handler: func(req *transport.Request) (*transport.Response, error) {
				return respond(tt.status, `<html>oops</html>`)
			}}
			c := newTestClient(t, ft, "tok")

			_, err := c.GetID(context.Background(), kind.Genre, 1)
			require.Error(t, err)

			var fe *fault.Error
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, fault.CategoryService, fe.Category)
			assert.Equal(t, tt.status, fe.Status)
			assert.Equal(t, tt.message, fe.Message)
			assert.Equal(t, 1, ft.total())
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	boom := errors.New("connection refused")
	ft := &fakeTransport{handler: func(req *transport.Request) (*transport.Response, error) {
		return nil, boom
	}}
	c := newTestClient(t, ft, "tok")

	_, err := c.Fundometer(context.Background())
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.CategoryTransport))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, ft.total())
}

func TestClient_ServiceErrorDocuments(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
		details int
	}{
		{"simple error on success status", http.StatusOK, `{"error":"Slug not found"}`, "Slug not found", 0},
		{"structured errors", http.StatusUnprocessableEntity,
			`{"errors":[{"title":"Invalid","detail":"name is blank","status":"422"},{"code":"locked","status":422}]}`,
			"Invalid: name is blank; locked", 2},
		{"bare error list", http.StatusUnprocessableEntity,
			`[{"title":"Invalid","code":"bad","detail":"name is blank","status":"422"}]`,
			"Invalid: name is blank", 1},
		{"bare error list on success status", http.StatusOK,
			`[{"title":"Invalid","code":"bad","detail":"name is blank","status":"422"}]`,
			"Invalid: name is blank", 1},
		{"unparseable error body", http.StatusForbidden, `forbidden`, "Forbidden", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &fakeTransport{handler: func(req *transport.Request) (*transport.Response, error) {
				return respond(tt.status, tt.body)
			}}
			c := newTestClient(t, ft, "")

			_, err := c.GetID(context.Background(), kind.Genre, 1)
			require.Error(t, err)

			var fe *fault.Error
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, fault.CategoryService, fe.Category)
			assert.Equal(t, tt.status, fe.Status)
			assert.Equal(t, tt.message, fe.Message)
			require.Len(t, fe.Details, tt.details)
			for _, d := range fe.Details {
				require.NotNil(t, d.Status)
				assert.Equal(t, 422, *d.Status)
			}
		})
	}
}

func TestServiceError_ListBodies(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		fault bool
	}{
		{"error objects", `[{"status":"422","title":"Invalid"},{"code":"locked"}]`, true},
		{"store items", `[{"handle":"mug","image":{"src":"https://cdn/mug.png"},"title":"Mug"}]`, false},
		{"offers", `[{"data":{"id":"9","type":"posts"}}]`, false},
		{"empty list", `[]`, false},
		{"objects without error members", `[{"meta":{}}]`, false},
		{"mixed list", `[{"title":"Invalid"},{"title":"Mug","handle":"mug"}]`, false},
		{"numbers", `[1,2]`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ferr := serviceError("op", http.StatusOK, []byte(tt.body))
			assert.Equal(t, tt.fault, ferr != nil)
		})
	}
}

func TestClient_UndecodableSuccessBody(t *testing.T) {
	for _, body := range []string{`not json`, `{"data":{"id":"1"}}`, `{"meta":{}}`} {
		ft := &fakeTransport{handler: func(req *transport.Request) (*transport.Response, error) {
			return respond(http.StatusOK, body)
		}}
		c := newTestClient(t, ft, "")

		_, err := c.GetID(context.Background(), kind.Genre, 1)
		require.Error(t, err)
		assert.True(t, fault.Is(err, fault.CategoryDecode), "body %s: %v", body, err)
	}
}

func TestClient_TypedEndpointChecksKind(t *testing.T) {
	ft := &fakeTransport{handler: func(req *transport.Request) (*transport.Response, error) {
		return respond(http.StatusOK, userDoc)
	}}
	c := newTestClient(t, ft, "")

	_, err := c.RandomOffer(context.Background())
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.CategoryDecode))

	_, err = c.GetID(context.Background(), kind.Genre, 42)
	assert.True(t, fault.Is(err, fault.CategoryDecode))
}

func TestClient_RequestHeaders(t *testing.T) {
	ft := &fakeTransport{handler: func(req *transport.Request) (*transport.Response, error) {
		return respond(http.StatusOK, genreDoc)
	}}
	c := newTestClient(t, ft, "tok", WithRequestIDs(func() string { return "req-1" }))

	_, err := c.GetID(context.Background(), kind.Genre, 1)
	require.NoError(t, err)
	require.Equal(t, 1, ft.total())
	assert.Equal(t, "tok", ft.requests[0].Token)
	assert.Equal(t, "req-1", ft.requests[0].RequestID)
	assert.Equal(t, http.MethodGet, ft.requests[0].Method)
	assert.Equal(t, "genres/1", ft.requests[0].Path)
}

func TestClient_DefaultRequestIDsAreUnique(t *testing.T) {
	ft := &fakeTransport{handler: func(req *transport.Request) (*transport.Response, error) {
		return respond(http.StatusOK, genreDoc)
	}}
	c := newTestClient(t, ft, "")

	for i := 0; i < 2; i++ {
		_, err := c.GetID(context.Background(), kind.Genre, 1)
		require.NoError(t, err)
	}
	assert.NotEmpty(t, ft.requests[0].RequestID)
	assert.NotEqual(t, ft.requests[0].RequestID, ft.requests[1].RequestID)
}

func TestClient_LenientKinds(t *testing.T) {
	body := `{"data":[` + resource("sprints", 1, `{"length":20}`) + `]}`
	ft := &fakeTransport{handler: func(req *transport.Request) (*transport.Response, error) {
		return respond(http.StatusOK, body)
	}}
	link := model.RelationLink{Related: "users/42/sprints"}

	strict := newTestClient(t, ft, "")
	_, err := strict.GetAllRelated(context.Background(), link)
	assert.True(t, fault.Is(err, fault.CategoryDecode))

	lenient := strict.Clone(WithLenientKinds())
	coll, err := lenient.GetAllRelated(context.Background(), link)
	require.NoError(t, err)
	assert.Equal(t, kind.Unknown, coll.Data[0].Kind)
}

func TestClient_CloneSharesSession(t *testing.T) {
	ft := &fakeTransport{handler: func(req *transport.Request) (*transport.Response, error) {
		return respond(http.StatusOK, `{}`)
	}}
	c := newTestClient(t, ft, "tok")
	clone := c.Clone()

	require.NoError(t, clone.Logout(context.Background()))
	assert.False(t, c.IsAuthenticated())
	assert.Same(t, c.Session(), clone.Session())
}

func TestNew_DefaultTransport(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	assert.False(t, c.IsAuthenticated())

	_, err = New(WithBaseURL("ftp://example.org"))
	assert.Error(t, err)
}

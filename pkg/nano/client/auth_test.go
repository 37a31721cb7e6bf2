package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/nanowrimo/internal/testing/fakeapi"
	"github.com/conduit-lang/nanowrimo/internal/testing/fixtures"
	"github.com/conduit-lang/nanowrimo/pkg/nano/fault"
	"github.com/conduit-lang/nanowrimo/pkg/nano/kind"
	"github.com/conduit-lang/nanowrimo/pkg/nano/model"
	"github.com/conduit-lang/nanowrimo/pkg/nano/session"
	"github.com/conduit-lang/nanowrimo/pkg/nano/transport"
)

func TestLoginWith(t *testing.T) {
	ft := &fakeTransport{}
	ft.handler = func(req *transport.Request) (*transport.Response, error) {
		var body model.LoginRequest
		require.NoError(t, json.Unmarshal(mustJSON(t, req.Body), &body))
		if body.Password != "pw" {
			return respond(http.StatusUnauthorized, `{"error":"Invalid identifier or password"}`)
		}
		return respond(http.StatusOK, loginBody("tok"))
	}
	c := newTestClient(t, ft, "")

	err := c.LoginWith(context.Background(), "writer", "wrong")
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.CategoryService))
	assert.False(t, c.IsAuthenticated())
	assert.True(t, c.Session().Credentials().Empty())

	require.NoError(t, c.LoginWith(context.Background(), "writer", "pw"))
	assert.True(t, c.IsAuthenticated())
	assert.Equal(t, "writer", c.Session().Credentials().Identifier)
}

func TestLogin_ResponseWithoutToken(t *testing.T) {
	ft := &fakeTransport{handler: func(req *transport.Request) (*transport.Response, error) {
		return respond(http.StatusOK, `{"user":"writer"}`)
	}}
	c := newTestClient(t, ft, "")

	err := c.LoginWith(context.Background(), "writer", "pw")
	assert.True(t, fault.Is(err, fault.CategoryDecode))
	assert.False(t, c.IsAuthenticated())
}

func TestContractViolationsSendNothing(t *testing.T) {
	ft := &fakeTransport{handler: func(req *transport.Request) (*transport.Response, error) {
		t.Fatalf("unexpected exchange %s %s", req.Method, req.Path)
		return nil, nil
	}}
	ctx := context.Background()
	anon := newTestClient(t, ft, "")
	authed := newTestClient(t, ft, "tok")

	tests := []struct {
		name string
		call func() error
	}{
		{"logout without session", func() error { return anon.Logout(ctx) }},
		{"login without credentials", func() error { return anon.Login(ctx) }},
		{"login with half credentials", func() error { return anon.LoginWith(ctx, "writer", "") }},
		{"change credentials with identifier only", func() error { return authed.ChangeCredentials(ctx, "other", "") }},
		{"change credentials with secret only", func() error { return authed.ChangeCredentials(ctx, "", "pw") }},
		{"unique related on many link", func() error {
			_, err := anon.GetUniqueRelated(ctx, model.RelationLink{Related: "users/42/projects"})
			return err
		}},
		{"all related on one link", func() error {
			_, err := anon.GetAllRelated(ctx, model.RelationLink{Related: "projects/7/user"})
			return err
		}},
		{"list unknown kind", func() error {
			_, err := anon.GetAll(ctx, kind.Unknown)
			return err
		}},
		{"fetch unknown kind", func() error {
			_, err := anon.GetID(ctx, kind.Unknown, 1)
			return err
		}},
		{"include unknown kind", func() error {
			_, err := anon.GetAllInclude(ctx, kind.Project, kind.Unknown)
			return err
		}},
		{"empty page slug", func() error {
			_, err := anon.Page(ctx, "")
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.True(t, fault.Is(err, fault.CategoryContract), "got %v", err)
		})
	}
	assert.Equal(t, 0, ft.total())
	assert.True(t, authed.IsAuthenticated())
}

func TestChangeCredentials(t *testing.T) {
	ft := &fakeTransport{}
	ft.handler = func(req *transport.Request) (*transport.Response, error) {
		switch req.Path {
		case logoutPath:
			return respond(http.StatusOK, `{}`)
		case signInPath:
			return respond(http.StatusOK, loginBody("other-token"))
		}
		return respond(http.StatusNotFound, ``)
	}
	ctx := context.Background()

	c := newTestClient(t, ft, "tok")
	require.NoError(t, c.ChangeCredentials(ctx, "other", "secret"))
	assert.Equal(t, "other-token", c.Session().Token())
	assert.Equal(t, "other", c.Session().Credentials().Identifier)
	assert.Equal(t, 1, ft.count(http.MethodPost, logoutPath))

	require.NoError(t, c.ChangeCredentials(ctx, "", ""))
	assert.False(t, c.IsAuthenticated())
	assert.True(t, c.Session().Credentials().Empty())
	assert.Equal(t, 2, ft.count(http.MethodPost, logoutPath))
	assert.Equal(t, 1, ft.count(http.MethodPost, signInPath))
}

func TestQueryBuilders(t *testing.T) {
	ft := &fakeTransport{handler: func(req *transport.Request) (*transport.Response, error) {
		return respond(http.StatusOK, `{"data":[]}`)
	}}
	c := newTestClient(t, ft, "")
	ctx := context.Background()

	_, err := c.GetAllIncludeFiltered(ctx, kind.Project,
		[]kind.Kind{kind.User, kind.Genre},
		[]Filter{{Key: "user_id", ID: 42}, {Key: "challenge_id", ID: 9}})
	require.NoError(t, err)

	req := ft.requests[0]
	assert.Equal(t, "projects", req.Path)
	assert.Equal(t, "users,genres", req.Query.Get("include"))
	assert.Equal(t, "42", req.Query.Get("filter[user_id]"))
	assert.Equal(t, "9", req.Query.Get("filter[challenge_id]"))

	_, err = c.GetAll(ctx, kind.Badge)
	require.NoError(t, err)
	assert.Equal(t, "badges", ft.requests[1].Path)
	assert.Empty(t, ft.requests[1].Query)
}

func TestGetIDInclude(t *testing.T) {
	ft := &fakeTransport{handler: func(req *transport.Request) (*transport.Response, error) {
		return respond(http.StatusOK, userDoc)
	}}
	c := newTestClient(t, ft, "")

	item, err := c.GetIDInclude(context.Background(), kind.User, 42, kind.Project)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), item.Data.ID)
	assert.Equal(t, "users/42", ft.requests[0].Path)
	assert.Equal(t, "projects", ft.requests[0].Query.Get("include"))
}

func TestTypedOperations(t *testing.T) {
	offer := `{"data":` + resource("posts", 9, fixtures.Attributes("posts", map[string]any{"headline": "Scrivener"})) + `}`
	routes := map[string]string{
		"fundometer":           `{"goal":1200000,"raised":"845123.5","donorCount":9876}`,
		"search":               `{"data":[` + resource("users", 42, fixtures.Attributes("users", nil)) + `]}`,
		"random_offer":         offer,
		"store_items":          `[{"handle":"mug","image":{"src":"https://cdn/mug.png"},"title":"Mug"}]`,
		"offers":               `[` + offer + `,` + offer + `]`,
		"users/current":        userDoc,
		"pages/pep-talks":      `{"data":` + resource("pages", 5, fixtures.Attributes("pages", map[string]any{"headline": "Pep Talks"})) + `,"after_posts":[` + offer + `]}`,
		"notifications":        notificationDoc,
		"challenges/available": `{"data":[` + resource("challenges", 1, fixtures.Attributes("challenges", nil)) + `]}`,
	}
	ft := &fakeTransport{handler: func(req *transport.Request) (*transport.Response, error) {
		body, ok := routes[req.Path]
		if !ok {
			return respond(http.StatusNotFound, ``)
		}
		return respond(http.StatusOK, body)
	}}
	c := newTestClient(t, ft, "")
	ctx := context.Background()

	f, err := c.Fundometer(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1200000), f.Goal)
	assert.InDelta(t, 845123.5, float64(f.Raised), 0.001)

	users, err := c.Search(ctx, "writer")
	require.NoError(t, err)
	assert.Len(t, users.Data, 1)
	last := ft.requests[len(ft.requests)-1]
	assert.Equal(t, "writer", last.Query.Get("q"))

	item, err := c.RandomOffer(ctx)
	require.NoError(t, err)
	assert.Equal(t, kind.Post, item.Data.Kind)

	items, err := c.StoreItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Mug", items[0].Title)

	offers, err := c.Offers(ctx)
	require.NoError(t, err)
	assert.Len(t, offers, 2)

	me, err := c.CurrentUser(ctx, kind.Project, kind.Genre)
	require.NoError(t, err)
	assert.Equal(t, kind.User, me.Data.Kind)
	last = ft.requests[len(ft.requests)-1]
	assert.Equal(t, "projects,genres", last.Query.Get("include"))

	page, err := c.Page(ctx, "pep-talks")
	require.NoError(t, err)
	require.NotNil(t, page.PostInfo)
	assert.Len(t, page.PostInfo.AfterPosts, 1)

	notes, err := c.Notifications(ctx)
	require.NoError(t, err)
	assert.Len(t, notes.Data, 1)

	challenges, err := c.AvailableChallenges(ctx)
	require.NoError(t, err)
	attrs, err := model.AttributesAs[*model.ChallengeAttributes](&challenges.Data[0])
	require.NoError(t, err)
	assert.Equal(t, model.EventNanoWrimo, attrs.EventType)
}

func TestRelatedFetches(t *testing.T) {
	ft := &fakeTransport{handler: func(req *transport.Request) (*transport.Response, error) {
		switch req.Path {
		case "users/42/projects":
			return respond(http.StatusOK, `{"data":[`+resource("projects", 7, fixtures.Attributes("projects", nil))+`]}`)
		case "projects/7/user":
			return respond(http.StatusOK, userDoc)
		}
		return respond(http.StatusNotFound, ``)
	}}
	c := newTestClient(t, ft, "")
	ctx := context.Background()

	projects, err := c.GetAllRelated(ctx, model.RelationLink{Related: "users/42/projects"})
	require.NoError(t, err)
	assert.Equal(t, kind.Project, projects.Data[0].Kind)

	user, err := c.GetUniqueRelated(ctx, model.RelationLink{Related: "projects/7/user"})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), user.Data.ID)
}

func TestClient_AgainstFakeService(t *testing.T) {
	api := fakeapi.New(t)
	api.AddUser("writer", "hunter2")
	api.HandleAuth(http.MethodGet, "notifications", http.StatusOK, notificationDoc)

	ctx := context.Background()
	store := session.NewMemoryStore()

	c, err := NewUser(ctx, "writer", "hunter2", WithBaseURL(api.URL), WithTokenStore(store, time.Hour))
	require.NoError(t, err)
	assert.True(t, c.IsAuthenticated())

	_, err = c.Notifications(ctx)
	require.NoError(t, err)

	// a second client picks the saved token up instead of signing in
	again, err := NewUser(ctx, "writer", "hunter2", WithBaseURL(api.URL), WithTokenStore(store, time.Hour))
	require.NoError(t, err)
	assert.Equal(t, c.Session().Token(), again.Session().Token())
	assert.Equal(t, 1, api.Calls(http.MethodPost, "users/sign_in"))

	api.Advance(2 * time.Hour)
	_, err = again.Notifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, api.Calls(http.MethodPost, "users/sign_in"))

	last, ok := api.Last("notifications")
	require.True(t, ok)
	assert.NotEmpty(t, last.RequestID)

	require.NoError(t, again.Logout(ctx))
	assert.False(t, again.IsAuthenticated())
	_, err = store.Get(ctx, "writer")
	assert.True(t, session.IsTokenMiss(err))

	_, err = NewUser(ctx, "writer", "wrong", WithBaseURL(api.URL))
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, fault.StatusOf(err))
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

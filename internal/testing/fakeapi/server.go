// Package fakeapi is an in-process stand-in for the NaNoWriMo service used
// by tests. It implements the sign-in and logout exchanges for real
// (bcrypt-checked passwords, expiring signed tokens) and serves canned
// documents for every other route.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenTTL is how long issued session tokens stay valid
const DefaultTokenTTL = time.Hour

type account struct {
	hash []byte
}

type route struct {
	status int
	body   string
	auth   bool
}

// Recorded is a request the server received
type Recorded struct {
	Method        string
	Path          string
	Query         url.Values
	Authorization string
	RequestID     string
	Body          string
}

// Server is a running fake service
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]account
	routes   map[string]route
	revoked  map[string]bool
	requests []Recorded
	now      time.Time
	signKey  []byte
	tokenTTL time.Duration
}

// New starts a fake service that is shut down when the test ends
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		accounts: make(map[string]account),
		routes:   make(map[string]route),
		revoked:  make(map[string]bool),
		now:      time.Now(),
		signKey:  []byte(uuid.New().String()),
		tokenTTL: DefaultTokenTTL,
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Post("/users/sign_in", s.signIn)
	r.With(s.requireToken).Post("/users/logout", s.logout)
	r.HandleFunc("/*", s.serveRoute)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// AddUser registers an account
func (s *Server) AddUser(identifier, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("fakeapi: hashing password: %v", err))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[identifier] = account{hash: hash}
}

// Handle serves body with status for method and path. Path is given
// without a leading slash, e.g. "users/42".
func (s *Server) Handle(method, path string, status int, body string) {
	s.setRoute(method, path, route{status: status, body: body})
}

// HandleAuth is like Handle but answers 401 unless a valid token is sent
func (s *Server) HandleAuth(method, path string, status int, body string) {
	s.setRoute(method, path, route{status: status, body: body, auth: true})
}

func (s *Server) setRoute(method, path string, r route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[routeKey(method, "/"+strings.TrimPrefix(path, "/"))] = r
}

// Advance moves the token clock forward, expiring tokens older than the TTL
func (s *Server) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

// Requests returns every request received so far
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recorded(nil), s.requests...)
}

// Calls counts the requests received for method and path
func (s *Server) Calls(method, path string) int {
	path = "/" + strings.TrimPrefix(path, "/")
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Last returns the most recent request for path
func (s *Server) Last(path string) (Recorded, bool) {
	path = "/" + strings.TrimPrefix(path, "/")
	reqs := s.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return Recorded{}, false
}

func routeKey(method, path string) string {
	return method + " " + path
}

func (s *Server) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Recorded{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.Query(),
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
			Body:          string(body),
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed sign in request"})
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[req.Identifier]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acct.hash, []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid identifier or password"})
		return
	}

	token, err := s.issue(req.Identifier)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"auth_token": token})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	claims, _ := s.parse(r.Header.Get("Authorization"))
	if claims != nil {
		s.mu.Lock()
		s.revoked[claims.ID] = true
		s.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, map[string]string{})
}

func (s *Server) serveRoute(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rt, ok := s.routes[routeKey(r.Method, r.URL.Path)]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if rt.auth {
		if _, err := s.parse(r.Header.Get("Authorization")); err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "You must be logged in"})
			return
		}
	}
	w.Header().Set("Content-Type", "application/vnd.api+json")
	w.WriteHeader(rt.status)
	_, _ = io.WriteString(w, rt.body)
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.parse(r.Header.Get("Authorization")); err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "You must be logged in"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) issue(identifier string) (string, error) {
	now := s.clock()
	claims := jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   identifier,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
}

func (s *Server) parse(token string) (*jwt.RegisteredClaims, error) {
	if token == "" {
		return nil, fmt.Errorf("missing token")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock),
		jwt.WithExpirationRequired(),
	)
	claims := &jwt.RegisteredClaims{}
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.signKey, nil
	}); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked[claims.ID] {
		return nil, fmt.Errorf("token revoked")
	}
	return claims, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

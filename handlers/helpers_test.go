package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"notesapi/auth"
	"notesapi/crypto"
	"notesapi/db"
	"notesapi/store"
)

const testSecret = "test-secret-key-for-api-handlers-test"

type testEnv struct {
	handler http.Handler
	store   *store.Store
}

func newTestEnv(t *testing.T, mutate func(*Dependencies)) *testEnv {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("db.Open failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Migrate(ctx, conn, db.DriverSQLite); err != nil {
		t.Fatalf("db.Migrate failed: %v", err)
	}
	st := store.New(conn)

	authKey, encKey, _ := crypto.DeriveSessionKeys(testSecret)
	sessionCfg := auth.SessionConfig{Name: "notes_session", MaxAge: time.Minute, Rolling: true}
	sessionStore := auth.NewServerStore(auth.NewSQLBackend(conn), sessionCfg.CookieOptions(), authKey, encKey)

	hasher := crypto.NewHasher(4)
	deps := Dependencies{
		Users:                st.Users(),
		Notes:                st.Notes(),
		Registrar:            st,
		Authenticator:        auth.NewAuthenticator(st.Users(), hasher, nil),
		Sessions:             auth.NewSessionManager(sessionStore, sessionCfg),
		Hasher:               hasher,
		AllowedOrigins:       []string{"http://localhost:3000"},
		RateLimitMaxAttempts: 5,
		RateLimitWindow:      time.Minute,
	}
	if mutate != nil {
		mutate(&deps)
	}

	h, err := NewHTTPHandler(deps)
	if err != nil {
		t.Fatalf("NewHTTPHandler failed: %v", err)
	}
	return &testEnv{handler: h, store: st}
}

// client replays cookies between requests like a browser would.
type client struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]*http.Cookie
	ip      string
}

func (e *testEnv) client(t *testing.T) *client {
	return &client{t: t, h: e.handler, cookies: map[string]*http.Cookie{}, ip: "192.0.2.1"}
}

func (c *client) do(method, path, contentType, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	header := http.Header{}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	return c.send(method, path, header, body)
}

func (c *client) doWithHeader(method, path, key, value string) *httptest.ResponseRecorder {
	c.t.Helper()
	header := http.Header{}
	header.Set(key, value)
	return c.send(method, path, header, "")
}

func (c *client) send(method, path string, header http.Header, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = c.ip + ":12345"
	for k, v := range header {
		req.Header[k] = v
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	c.h.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return w
}

func (c *client) json(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.do(method, path, "application/json", body)
}

func (c *client) register(email, password, username string) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.json("POST", "/register",
		`{"email":"`+email+`","password":"`+password+`","username":"`+username+`"}`)
}

func (c *client) login(email, password string) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.do("POST", "/login", "application/x-www-form-urlencoded",
		"username="+email+"&password="+password)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("Expected status %d, got %d. Body: %s", want, w.Code, w.Body.String())
	}
}

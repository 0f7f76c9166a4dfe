package handlers

import (
	"net/http"
	"reflect"
	"testing"
)

var testCSRFKey = []byte("0123456789abcdef0123456789abcdef")

func TestCSRFRejectsMissingToken(t *testing.T) {
	env := newTestEnv(t, func(d *Dependencies) { d.CSRFKey = testCSRFKey })
	c := env.client(t)

	w := c.register("a@x.com", "pw", "alice")
	expectStatus(t, w, http.StatusForbidden)
	if e := decode[errorResponse](t, w).Error; e == "" {
		t.Error("Expected JSON error body")
	}

	// Safe methods pass through.
	expectStatus(t, c.do("GET", "/", "", ""), http.StatusOK)
}

func TestCSRFTokenEndpoint(t *testing.T) {
	env := newTestEnv(t, func(d *Dependencies) { d.CSRFKey = testCSRFKey })
	c := env.client(t)

	w := c.do("GET", "/csrf", "", "")
	expectStatus(t, w, http.StatusOK)
	if tok := decode[csrfResponse](t, w).Token; tok == "" {
		t.Error("Expected a CSRF token")
	}
}

func TestCSRFEndpointAbsentWhenDisabled(t *testing.T) {
	env := newTestEnv(t, nil)
	c := env.client(t)

	expectStatus(t, c.do("GET", "/csrf", "", ""), http.StatusNotFound)
}

func TestOriginHosts(t *testing.T) {
	got := originHosts([]string{"http://localhost:3000", "https://notes.example", "*", "::bad"})
	want := []string{"localhost:3000", "notes.example"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/luvhive/hivelink/internal/config"
	"github.com/luvhive/hivelink/internal/session"
	"github.com/luvhive/hivelink/internal/store"
)

func newTestServer(t *testing.T) (*Server, *session.Session) {
	t.Helper()
	st := store.NewInMemoryStore()
	t.Cleanup(func() { st.Close() })
	sess := session.New(st, "")
	srv := New(config.Config{}, sess, func() map[string]any {
		return map[string]any{"call_state": "idle"}
	})
	return srv, sess
}

func getJSON(t *testing.T, h http.Handler, path string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %s response: %v", path, err)
	}
	return rec.Code, body
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	code, body := getJSON(t, srv.Router(), "/healthz")
	if code != http.StatusOK {
		t.Fatalf("/healthz status = %d", code)
	}
	if body["status"] != "ok" {
		t.Fatalf("/healthz body = %v", body)
	}
}

func TestReadyzReflectsSignIn(t *testing.T) {
	srv, sess := newTestServer(t)
	router := srv.Router()

	_, body := getJSON(t, router, "/readyz")
	if body["signed_in"] != false {
		t.Fatalf("signed_in = %v before login", body["signed_in"])
	}

	if err := sess.SetToken(context.Background(), "tok"); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}
	_, body = getJSON(t, router, "/readyz")
	if body["signed_in"] != true {
		t.Fatalf("signed_in = %v after login", body["signed_in"])
	}
}

func TestStatusSnapshot(t *testing.T) {
	srv, sess := newTestServer(t)
	router := srv.Router()

	if err := sess.SetToken(context.Background(), "tok"); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}
	if err := sess.SetProfile(context.Background(), &session.Profile{ID: "u1", Username: "ada"}); err != nil {
		t.Fatalf("SetProfile() error = %v", err)
	}

	code, body := getJSON(t, router, "/v1/status")
	if code != http.StatusOK {
		t.Fatalf("/v1/status status = %d", code)
	}
	if body["scope"] != session.DefaultScope {
		t.Fatalf("scope = %v", body["scope"])
	}
	if body["signed_in"] != true {
		t.Fatalf("signed_in = %v", body["signed_in"])
	}
	if body["username"] != "ada" {
		t.Fatalf("username = %v", body["username"])
	}
	if body["call_state"] != "idle" {
		t.Fatalf("status func fields missing: %v", body)
	}
}

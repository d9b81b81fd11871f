package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/gox/netrt/nw"
)

func newTestWrapper(t *testing.T) *nw.ServerWrapper {
	t.Helper()
	srv := nw.NewStreamServer(&nw.Config{
		ListenAddr:     "127.0.0.1:0",
		Transport:      nw.TransportStream,
		Dialect:        nw.DialectTCP,
		BufferCapacity: 64,
	}, nil)
	w := nw.NewServerWrapper(srv, nil)
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(w.Stop)
	return w
}

func TestMountAdminHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := newTestWrapper(t)

	router := gin.New()
	MountAdmin(router, w)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body basicResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	raw, _ := json.Marshal(body.Data)
	var health healthResponse
	if err := json.Unmarshal(raw, &health); err != nil {
		t.Fatalf("decode health payload: %v", err)
	}
	if !health.Running || !health.Healthy {
		t.Fatalf("expected running+healthy server, got %+v", health)
	}
}

func TestMountAdminConnectionsEmpty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := newTestWrapper(t)

	router := gin.New()
	MountAdmin(router, w)

	req := httptest.NewRequest(http.MethodGet, "/connections", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body basicResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	conns, ok := body.Data.([]any)
	if !ok {
		t.Fatalf("expected connections payload to be a list, got %T", body.Data)
	}
	if len(conns) != 0 {
		t.Fatalf("expected no connections, got %d", len(conns))
	}
}

func TestNewAdminServerMountsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := newTestWrapper(t)

	s, err := NewAdminServer("127.0.0.1:0", false, w)
	if err != nil {
		t.Fatalf("NewAdminServer: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

package control

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"execution-core/internal/monitor"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHealthzIsAlwaysOpen(t *testing.T) {
	s := NewServer(nil, monitor.NewSystemMetrics(), "top-secret", "BTC")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz = %d, want 200", rec.Code)
	}
}

func TestStatusRequiresBearerTokenWhenSecretConfigured(t *testing.T) {
	s := NewServer(nil, monitor.NewSystemMetrics(), "top-secret", "BTC")

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("GET /status without a token = %d, want 401", rec.Code)
	}

	token, err := GenerateToken("top-secret", time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /status with a valid token = %d, want 200", rec.Code)
	}
}

func TestStatusIsOpenWithNoSecretConfigured(t *testing.T) {
	s := NewServer(nil, monitor.NewSystemMetrics(), "", "BTC")
	s.StateSynced = func() bool { return true }
	s.Authenticated = func() bool { return false }

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /status with no secret configured = %d, want 200", rec.Code)
	}
}

package adminhttp

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kovanka/streamvault/internal/config"
	"github.com/kovanka/streamvault/internal/daemon"
	"github.com/kovanka/streamvault/internal/store"
)

func TestServer_HealthzReportsNotRunning(t *testing.T) {
	d := daemon.New(config.DaemonConfig{BaseDir: t.TempDir(), Wait: time.Second, Threshold: time.Second}, config.TaskConfig{TickInterval: time.Second, ReconcileInterval: 10 * time.Second}, store.NewMemory(nil))
	s := New(config.MetricsConfig{Enabled: true, Path: "/metrics", Addr: ":0"}, d)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"running":false`)
}

func TestServer_MetricsRouteServed(t *testing.T) {
	d := daemon.New(config.DaemonConfig{BaseDir: t.TempDir(), Wait: time.Second, Threshold: time.Second}, config.TaskConfig{TickInterval: time.Second, ReconcileInterval: 10 * time.Second}, store.NewMemory(nil))
	s := New(config.MetricsConfig{Enabled: true, Path: "/metrics", Addr: ":0"}, d)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

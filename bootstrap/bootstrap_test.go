package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/opsml/opsml/config"
)

// A single construction test; the metrics collector registers on the
// global registry, so building two Apps in one process would collide.
func TestNewWiresLocalMode(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{
		Database: config.DatabaseConfig{DSN: filepath.Join(dir, "opsml.db")},
		Storage:  config.StorageConfig{Backend: config.BackendLocal, URI: filepath.Join(dir, "artifacts")},
		Registry: config.RegistryConfig{Mode: config.RegistryModeLocal},
		Limits:   config.LimitsConfig{MaxFileSize: 1024, MaxBodySize: 2048, DownloadChunkSize: 64},
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: 0},
	}

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Shutdown()

	if a.DB == nil {
		t.Error("database not opened in local mode")
	}
	if a.Registry == nil || a.Artifacts == nil {
		t.Error("services not wired")
	}

	// The wired router serves liveness without a running listener.
	rec := httptest.NewRecorder()
	a.HTTPServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthz = %d", rec.Code)
	}
}

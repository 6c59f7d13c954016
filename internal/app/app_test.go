package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportsdb_sync/ingestion/internal/config"
	"sportsdb_sync/ingestion/internal/eventlog"
)

func TestNewLogger_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.log")
	cfg := &config.Config{AppEnv: "production", LogLevel: "info", LogFile: path}

	_, events, closeLogs, err := NewLogger(cfg)
	require.NoError(t, err)
	events.Record(eventlog.Info("API call initiated"))
	require.NoError(t, closeLogs())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"API call initiated"`)
	assert.Contains(t, string(data), `"level":"info"`)
}

func TestNewLogger_BadPath(t *testing.T) {
	cfg := &config.Config{LogFile: filepath.Join(t.TempDir(), "missing", "sync.log")}

	_, _, _, err := NewLogger(cfg)
	assert.Error(t, err)
}

func TestPushMetrics(t *testing.T) {
	var pushes atomic.Int32
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pushes.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	t.Run("disabled without a gateway", func(t *testing.T) {
		events := eventlog.NewMemory()
		a := &App{Config: &config.Config{}, Events: events}

		a.PushMetrics(context.Background())
		assert.Empty(t, events.Events())
	})

	t.Run("pushes to the gateway", func(t *testing.T) {
		events := eventlog.NewMemory()
		a := &App{Config: &config.Config{PushgatewayURL: gateway.URL}, Events: events}

		a.PushMetrics(context.Background())
		assert.Equal(t, int32(1), pushes.Load())
		assert.Empty(t, events.Messages(eventlog.LevelError))
	})
}

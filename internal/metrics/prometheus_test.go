package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAPICall(t *testing.T) {
	before := testutil.ToFloat64(APICallsTotal.WithLabelValues("all_leagues.php", "success"))

	RecordAPICall("all_leagues.php", "success", 0.2)

	after := testutil.ToFloat64(APICallsTotal.WithLabelValues("all_leagues.php", "success"))
	assert.Equal(t, before+1, after)
}

func TestRecordUnitAndInserted(t *testing.T) {
	units := UnitsTotal.WithLabelValues("team", "skipped-no-data")
	rows := RecordsInserted.WithLabelValues("api_assets")
	beforeUnits, beforeRows := testutil.ToFloat64(units), testutil.ToFloat64(rows)

	RecordUnit("team", "skipped-no-data")
	RecordInserted("api_assets", 20)

	assert.Equal(t, beforeUnits+1, testutil.ToFloat64(units))
	assert.Equal(t, beforeRows+20, testutil.ToFloat64(rows))
}

func TestRecordSync_SetsLastSuccess(t *testing.T) {
	RecordSync("partial", 1)
	RecordSync("success", 1)

	assert.Greater(t, testutil.ToFloat64(LastSuccessfulSync), float64(0))
}

func TestPush(t *testing.T) {
	var (
		mu   sync.Mutex
		path string
		body string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		path, body = r.URL.Path, string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	RecordSkippedSync()
	require.NoError(t, Push(context.Background(), server.URL, "sportsdb_sync"))

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, strings.HasPrefix(path, "/metrics/job/sportsdb_sync"), path)
	assert.NotEmpty(t, body)
}

func TestPush_ReportsGatewayFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := Push(context.Background(), server.URL, "sportsdb_sync")
	assert.ErrorContains(t, err, "failed to push metrics")
}

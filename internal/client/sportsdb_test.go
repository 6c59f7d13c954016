package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportsdb_sync/ingestion/internal/eventlog"
)

func newTestClient(events eventlog.Sink) *Client {
	return NewClient(5*time.Second, "sportsdb-sync-test/1.0", events)
}

func TestFetch_DecodesJSON(t *testing.T) {
	var gotAccept, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"leagues":[{"idLeague":"4328","strLeague":"English Premier League","strSport":"Soccer"}]}`))
	}))
	defer server.Close()

	events := eventlog.NewMemory()
	data, err := newTestClient(events).Fetch(context.Background(), server.URL+"/api/v1/json/3/all_leagues.php")
	require.NoError(t, err)

	leagues, ok := data["leagues"].([]any)
	require.True(t, ok)
	require.Len(t, leagues, 1)
	league := leagues[0].(map[string]any)
	assert.Equal(t, "4328", league["idLeague"])

	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "sportsdb-sync-test/1.0", gotAgent)

	assert.Equal(t, []string{"API call initiated", "API call terminated"}, events.Messages(eventlog.LevelInfo))
	assert.Empty(t, events.Messages(eventlog.LevelError))

	end := events.Events()[1]
	_, hasDuration := end.Field("duration")
	assert.True(t, hasDuration, "completion event carries the duration")
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	events := eventlog.NewMemory()
	url := server.URL + "/lookup_all_teams.php?id=1"
	data, err := newTestClient(events).Fetch(context.Background(), url)
	require.Error(t, err)
	assert.Nil(t, data)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, url, fetchErr.URL)
	assert.Equal(t, http.StatusTooManyRequests, fetchErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load(), "the fetcher never retries")

	assert.Equal(t, []string{"API call initiated"}, events.Messages(eventlog.LevelInfo))
	assert.Equal(t, []string{"Failed to fetch data"}, events.Messages(eventlog.LevelError))
}

func TestFetch_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL + "/all_leagues.php"
	server.Close()

	_, err := newTestClient(nil).Fetch(context.Background(), url)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Zero(t, fetchErr.StatusCode)
	assert.Contains(t, err.Error(), "fetch "+url)
}

func TestFetch_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	_, err := newTestClient(nil).Fetch(context.Background(), server.URL+"/all_leagues.php")

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusOK, fetchErr.StatusCode)
}

func TestFetch_NullBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))
	defer server.Close()

	data, err := newTestClient(nil).Fetch(context.Background(), server.URL+"/lookup_all_teams.php?id=9")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestEndpointName(t *testing.T) {
	assert.Equal(t, "lookup_all_teams.php", endpointName("https://www.thesportsdb.com/api/v1/json/3/lookup_all_teams.php?id=4328"))
	assert.Equal(t, "unknown", endpointName("::not a url"))
}

package check

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factsync/internal/domain"
)

func newTestSource(t *testing.T, handler http.HandlerFunc) (*Source, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	src := New(Config{
		APIURL:       server.URL,
		Token:        "test-token",
		TeamSlug:     "my-team",
		FetchLimit:   200,
		Timeout:      5 * time.Second,
		ProbeTimeout: 5 * time.Second,
	}, logger)

	return src, server
}

func graphQLData(t *testing.T, data string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]json.RawMessage{"data": json.RawMessage(data)})
	require.NoError(t, err)
	return body
}

func TestFetchPosts(t *testing.T) {
	var gotRequest graphQLRequest

	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-token", r.Header.Get("X-Check-Token"))
		assert.Equal(t, "my-team", r.Header.Get("X-Check-Team"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

		w.Write(graphQLData(t, `{
			"search": {"medias": {"edges": [
				{"node": {"dbid": 10, "title": "first claim", "last_status": "false", "url": "https://www.facebook.com/p/1", "created_at": 1755000000}},
				{"node": {"dbid": 11, "quote": "second claim", "last_status": "verified"}}
			]}}
		}`))
	})

	posts, err := src.FetchPosts(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, int64(10), posts[0].ExternalID)
	assert.Equal(t, domain.StatusFalse, posts[0].Status)
	assert.Equal(t, domain.PlatformFacebook, posts[0].Platform)
	assert.Equal(t, "second claim", posts[1].Claim)
	assert.Equal(t, domain.StatusVerified, posts[1].Status)

	var vars map[string]any
	require.NoError(t, json.Unmarshal([]byte(gotRequest.Variables["query"]), &vars))
	assert.Equal(t, float64(50), vars["eslimit"])
	assert.Equal(t, "recent_added", vars["sort"])
}

func TestFetchPosts_DefaultLimit(t *testing.T) {
	var gotRequest graphQLRequest

	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
		w.Write(graphQLData(t, `{"search": {"medias": {"edges": []}}}`))
	})

	_, err := src.FetchPosts(context.Background(), 0)
	require.NoError(t, err)

	var vars map[string]any
	require.NoError(t, json.Unmarshal([]byte(gotRequest.Variables["query"]), &vars))
	assert.Equal(t, float64(200), vars["eslimit"])
}

func TestFetchPosts_GraphQLErrorList(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"errors": [{"message": "Not authorized"}, {"message": "rate limited"}]}`))
	})

	_, err := src.FetchPosts(context.Background(), 10)
	require.Error(t, err)

	var upstreamErr *domain.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Contains(t, upstreamErr.Message, "Not authorized")
	assert.Contains(t, upstreamErr.Message, "rate limited")
}

func TestFetchPosts_NonOKStatus(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := src.FetchPosts(context.Background(), 10)

	var upstreamErr *domain.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Contains(t, upstreamErr.Message, "502")
}

func TestFetchPosts_TransportFailure(t *testing.T) {
	src, server := newTestSource(t, func(http.ResponseWriter, *http.Request) {})
	server.Close()

	_, err := src.FetchPosts(context.Background(), 10)

	var upstreamErr *domain.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
}

func TestFetchPostsSince_FiltersByUpdatedAt(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write(graphQLData(t, `{
			"search": {"medias": {"edges": [
				{"node": {"dbid": 1, "updated_at": 1755090000}},
				{"node": {"dbid": 2, "updated_at": 1755000000}}
			]}}
		}`))
	})

	since := time.Unix(1755050000, 0).UTC()
	posts, err := src.FetchPostsSince(context.Background(), since)
	require.NoError(t, err)

	require.Len(t, posts, 1)
	assert.Equal(t, int64(1), posts[0].ExternalID)
}

func TestTestConnection(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write(graphQLData(t, `{"me": {"name": "verifier-bot"}}`))
	})

	result := src.TestConnection(context.Background())
	assert.True(t, result.Success)
	assert.Equal(t, "verifier-bot", result.Account)
	assert.Empty(t, result.Error)
}

func TestTestConnection_FailureIsAResult(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"errors": [{"message": "invalid token"}]}`))
	})

	result := src.TestConnection(context.Background())
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "invalid token")
}

func TestFetchStatistics(t *testing.T) {
	recent := time.Now().Add(-time.Hour).Unix()

	src, _ := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write(graphQLData(t, `{
			"search": {"medias": {"edges": [
				{"node": {"last_status": "verified", "created_at": `+strconv.FormatInt(recent, 10)+`}},
				{"node": {"last_status": "false", "created_at": 1755000000}},
				{"node": {"last_status": "misleading", "created_at": 1755000000}},
				{"node": {"last_status": "in_progress", "created_at": 1755000000}}
			]}}
		}`))
	})

	stats, err := src.FetchStatistics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Verified)
	assert.Equal(t, 1, stats.False)
	assert.Equal(t, 1, stats.Misleading)
	assert.Equal(t, 1, stats.Unverified)
	assert.Equal(t, 1, stats.Recent24h)
	assert.Equal(t, statsSampleLimit, stats.SampleLimit)
}

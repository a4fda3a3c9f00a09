package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yourorg/moex-data-service/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testHTTPConfig() config.HTTPClientConfig {
	return config.HTTPClientConfig{
		Timeout:       5 * time.Second,
		MaxConns:      20,
		MaxIdleConns:  10,
		RetryAttempts: 3,
		RetryMinWait:  time.Millisecond,
		RetryMaxWait:  5 * time.Millisecond,
	}
}

func TestGetJSONRecoversAfterFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	c := NewBaseClient(srv.URL, testHTTPConfig(), zap.NewNop())

	var out map[string]bool
	err := c.GetJSON(context.Background(), "/data.json", nil, &out)
	require.NoError(t, err)
	assert.True(t, out["ok"])
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetJSONGivesUpAfterAllAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := NewBaseClient(srv.URL, testHTTPConfig(), zap.NewNop())

	var out map[string]bool
	err := c.GetJSON(context.Background(), "/data.json", nil, &out)
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "boom")
}

func TestGetJSONQueryParams(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewBaseClient(srv.URL, testHTTPConfig(), zap.NewNop())

	params := url.Values{}
	params.Set("iss.meta", "off")
	params.Set("limit", "unlimited")

	var out map[string]interface{}
	require.NoError(t, c.GetJSON(context.Background(), "/x.json", params, &out))
	assert.Equal(t, "off", gotQuery.Get("iss.meta"))
	assert.Equal(t, "unlimited", gotQuery.Get("limit"))
}

func TestGetJSONBackoffDoublesBetweenAttempts(t *testing.T) {
	var mu sync.Mutex
	var hits []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits = append(hits, time.Now())
		mu.Unlock()
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testHTTPConfig()
	cfg.RetryMinWait = 40 * time.Millisecond
	cfg.RetryMaxWait = 400 * time.Millisecond
	c := NewBaseClient(srv.URL, cfg, zap.NewNop())

	var out map[string]interface{}
	err := c.GetJSON(context.Background(), "/data.json", nil, &out)
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, hits, 3)
	firstWait := hits[1].Sub(hits[0])
	secondWait := hits[2].Sub(hits[1])
	assert.GreaterOrEqual(t, firstWait, 40*time.Millisecond)
	assert.Less(t, firstWait, 80*time.Millisecond)
	// the second wait is twice the first
	assert.GreaterOrEqual(t, secondWait, 80*time.Millisecond)
}

func TestGetJSONContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testHTTPConfig()
	cfg.RetryMinWait = time.Second
	cfg.RetryMaxWait = 2 * time.Second
	c := NewBaseClient(srv.URL, cfg, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var out map[string]interface{}
	start := time.Now()
	err := c.GetJSON(ctx, "/slow.json", nil, &out)
	require.Error(t, err)
	// cancellation short-circuits the backoff wait
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestStatusErrorBodyTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer srv.Close()

	c := NewBaseClient(srv.URL, testHTTPConfig(), zap.NewNop())

	_, err := c.GetText(context.Background(), "/big.json", nil)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Len(t, statusErr.Body, 512)
}

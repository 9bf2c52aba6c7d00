package polymarket_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alejandrodnm/polybasket/internal/adapters/polymarket"
	"github.com/alejandrodnm/polybasket/internal/ports"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(srv *httptest.Server, maxRetries int) *polymarket.Client {
	return polymarket.NewClient(srv.URL, srv.URL, polymarket.WithRetry(maxRetries, time.Millisecond))
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"conditionId":"0xabc","question":"Q?"}]`))
	}))
	defer srv.Close()

	markets, err := newTestClient(srv, 3).FetchTopMarkets(context.Background(), ports.MarketQuery{Closed: true})
	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, int32(3), hits.Load())
}

func TestClient_RetriesRateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv, 3).FetchTopMarkets(context.Background(), ports.MarketQuery{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_ClientErrorNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, 3).FetchTopMarkets(context.Background(), ports.MarketQuery{})
	require.Error(t, err)

	var se *polymarket.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Status)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_ServerErrorExhaustsRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, 2).FetchTopMarkets(context.Background(), ports.MarketQuery{})
	assert.Error(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(srv, 0)
	for i := 0; i < 5; i++ {
		_, err := client.FetchTopMarkets(context.Background(), ports.MarketQuery{})
		require.Error(t, err)
	}
	assert.Equal(t, int32(5), hits.Load())

	_, err := client.FetchTopMarkets(context.Background(), ports.MarketQuery{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(5), hits.Load(), "con el breaker abierto no hay request")
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv, 0)
	for i := 0; i < 8; i++ {
		_, err := client.FetchHolders(context.Background(), "0xabc", 10)
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}
	assert.Equal(t, int32(8), hits.Load())
}

func TestClient_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestClient(srv, 3).FetchTopMarkets(ctx, ports.MarketQuery{})
	assert.ErrorIs(t, err, context.Canceled)
}

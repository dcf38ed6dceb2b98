package oracle

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

	"github.com/roach88/craftgraph/internal/craft"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(Config{
		URL:        srv.URL + "/api/pair",
		Referer:    "https://example.test/",
		UserAgent:  "craftgraph-test",
		Timeout:    2 * time.Second,
		Backoff:    time.Millisecond,
		MaxBackoff: 2 * time.Millisecond,
	})
}

func TestHTTPClient_Combine(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Fire", r.URL.Query().Get("first"))
		assert.Equal(t, "Water", r.URL.Query().Get("second"))
		assert.Equal(t, "https://example.test/", r.Header.Get("Referer"))
		assert.Equal(t, "craftgraph-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"result":"Steam","emoji":"💨","isNew":false}`))
	})

	got, err := c.Combine(context.Background(), craft.NewPair("Water", "Fire"))
	require.NoError(t, err)
	assert.Equal(t, craft.Combination{Result: "Steam", Emoji: "💨"}, got)
}

func TestHTTPClient_AbuseDetected(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<script>window._cf_chl_opt={}</script>`))
	})

	_, err := c.Combine(context.Background(), craft.NewPair("a", "b"))
	assert.ErrorIs(t, err, ErrAbuseDetected)
	assert.Equal(t, int32(1), calls.Load(), "abuse signal must not be retried")
}

func TestHTTPClient_PlainForbiddenIsStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("nope"))
	})

	_, err := c.Combine(context.Background(), craft.NewPair("a", "b"))
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Code)
	assert.Equal(t, "nope", se.Body)
	assert.NotErrorIs(t, err, ErrAbuseDetected)
}

func TestHTTPClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"result":"Mud","emoji":"🟫","isNew":true}`))
	})

	got, err := c.Combine(context.Background(), craft.NewPair("Earth", "Water"))
	require.NoError(t, err)
	assert.Equal(t, "Mud", got.Result)
	assert.True(t, got.IsNew)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPClient_RetriesTooManyRequests(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"result":"Dust","emoji":"🌫️","isNew":false}`))
	})

	got, err := c.Combine(context.Background(), craft.NewPair("Earth", "Wind"))
	require.NoError(t, err)
	assert.Equal(t, "Dust", got.Result)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPClient_DecodeError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "<html>"},
		{name: "missing result", body: `{"emoji":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Combine(context.Background(), craft.NewPair("a", "b"))
			var de *DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.body, string(de.Body))
			assert.Equal(t, craft.NewPair("a", "b"), de.Pair)
		})
	}
}

func TestHTTPClient_TransientErrorOnCancel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	c.cfg.Backoff = time.Hour
	c.cfg.MaxBackoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.Combine(ctx, craft.NewPair("a", "b"))
	var te *TransientError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 1, te.Attempts)
}

func TestNewHTTPClient_Defaults(t *testing.T) {
	c := NewHTTPClient(Config{})
	assert.Equal(t, DefaultURL, c.cfg.URL)
	assert.Equal(t, DefaultTimeout, c.cfg.Timeout)
	assert.Equal(t, DefaultBackoff, c.cfg.Backoff)
	assert.Equal(t, DefaultBackoff, c.cfg.MaxBackoff)
}

func TestClientFunc(t *testing.T) {
	want := errors.New("boom")
	var c Client = ClientFunc(func(context.Context, craft.Pair) (craft.Combination, error) {
		return craft.Combination{}, want
	})

	_, err := c.Combine(context.Background(), craft.NewPair("a", "b"))
	assert.ErrorIs(t, err, want)
}

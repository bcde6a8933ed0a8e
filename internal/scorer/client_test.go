package scorer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/score/AAPL", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"symbol": "AAPL", "score": 72.5, "price": "182.40"}`))
	}))
	defer server.Close()

	client := New(server.URL, 5*time.Second)
	sc, err := client.Score(context.Background(), "AAPL")

	require.NoError(t, err)
	assert.Equal(t, "AAPL", sc.Symbol)
	assert.Equal(t, 72.5, sc.Score)
	assert.True(t, sc.Price.Equal(decimal.RequireFromString("182.40")))
}

func TestScore_Non200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no data for symbol", http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, 5*time.Second)
	sc, err := client.Score(context.Background(), "NOPE")

	assert.Error(t, err)
	assert.Nil(t, sc)
	assert.Contains(t, err.Error(), "404")
}

func TestScore_BadPriceFallsBackToZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol": "SOFI", "score": 41.7, "price": "n/a"}`))
	}))
	defer server.Close()

	client := New(server.URL, 5*time.Second)
	sc, err := client.Score(context.Background(), "SOFI")

	require.NoError(t, err)
	assert.Equal(t, 41.7, sc.Score)
	assert.True(t, sc.Price.IsZero())
}

func TestScore_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := New(server.URL, 5*time.Second)
	_, err := client.Score(context.Background(), "AAPL")

	assert.Error(t, err)
}

func TestScore_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"symbol": "AAPL", "score": 1, "price": "1"}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := New(server.URL, 5*time.Second)
	_, err := client.Score(ctx, "AAPL")

	assert.Error(t, err)
}

package dao

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/nebularun/internal/common"
	"github.com/dmitrijs2005/nebularun/internal/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewClient(srv.URL, "anon-key", 2*time.Second, log)
}

func TestClient_SetsAPIKeyAndBearerHeaders(t *testing.T) {
	var gotKey, gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	})

	var out []struct{}
	require.NoError(t, c.do(context.Background(), http.MethodGet, "/rest/v1/x", "tok-123", nil, "", &out))
	assert.Equal(t, "anon-key", gotKey)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestClient_NonOKStatusBecomesStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"JWT expired"}`))
	})

	err := c.do(context.Background(), http.MethodGet, "/rest/v1/x", "tok", nil, "", nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Contains(t, se.Body, "JWT expired")
	assert.Contains(t, err.Error(), "401")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestClient_UndecodableBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	var out []struct{}
	err := c.do(context.Background(), http.MethodGet, "/rest/v1/x", "", nil, "", &out)
	require.ErrorIs(t, err, common.ErrDecode)
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	c := NewClient(srv.URL, "anon-key", 200*time.Millisecond, log)

	err := c.do(context.Background(), http.MethodGet, "/rest/v1/x", "", nil, "", nil)
	require.ErrorIs(t, err, common.ErrOffline)
	var se *StatusError
	assert.False(t, errors.As(err, &se), "transport failures are not StatusError")
}

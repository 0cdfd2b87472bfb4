package analysis

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rescribe/internal/domain/services"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAnalyzePostsFile(t *testing.T) {
	var got services.AnalyzeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/processFile", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"symbols":["main"]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/"}, discard())
	out, err := c.Analyze(context.Background(), &services.AnalyzeRequest{
		ID: "f1", FileName: "main.go", Path: "cmd/main.go", Content: "package main\n",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"symbols":["main"]}`, string(out))
	assert.Equal(t, "main.go", got.FileName)
	assert.Equal(t, "package main\n", got.Content)
}

func TestAnalyzeRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, discard())
	_, err := c.Analyze(context.Background(), &services.AnalyzeRequest{ID: "f1", Path: "a.go"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAnalyzeRejectsBadResponses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"client error", http.StatusBadRequest, `{"error":"bad"}`},
		{"not json", http.StatusOK, `<html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(Config{BaseURL: srv.URL, RetryMax: 1}, discard())
			_, err := c.Analyze(context.Background(), &services.AnalyzeRequest{ID: "f1", Path: "a.go"})
			require.Error(t, err)
		})
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ping" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	require.NoError(t, NewClient(Config{BaseURL: srv.URL}, discard()).Ping(context.Background()))
}

package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/capsync/internal/common"
	"github.com/dmitrijs2005/capsync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	token string
	err   error
}

func (s *staticTokens) AccessToken(ctx context.Context) (string, error) {
	return s.token, s.err
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHTTPClient_FetchSessionURIs(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/session-uri", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"sessionUris": map[string]string{
				"video.mp4":     "https://store.example/put/video",
				"metadata.json": "https://store.example/put/meta",
			},
		})
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, &staticTokens{token: "tok-1"}, testLogger())

	uris, err := c.FetchSessionURIs(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "abc123", gotBody["folderName"])
	assert.Equal(t, "https://store.example/put/video", uris["video.mp4"])
	assert.Equal(t, "https://store.example/put/meta", uris["metadata.json"])
}

func TestHTTPClient_FetchSessionURIs_NonOKIsStableError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend exploded: pq: connection refused", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, &staticTokens{token: "tok"}, testLogger())

	_, err := c.FetchSessionURIs(context.Background(), "abc123")
	require.ErrorIs(t, err, common.ErrRemoteAPI)
	// raw backend detail must not leak across this boundary
	assert.NotContains(t, err.Error(), "exploded")
	assert.NotContains(t, err.Error(), "connection refused")
}

func TestHTTPClient_FetchSessionURIs_TransportErrorIsStableError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewHTTPClient(srv.URL, &staticTokens{token: "tok"}, testLogger())

	_, err := c.FetchSessionURIs(context.Background(), "abc123")
	require.ErrorIs(t, err, common.ErrRemoteAPI)
}

func TestHTTPClient_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/token", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req["password"] != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "issued-token"})
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, &staticTokens{}, testLogger())

	token, err := c.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "issued-token", token)

	_, err = c.Login(context.Background(), "alice", "wrong")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestFileTokenProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	p := NewFileTokenProvider(path)
	ctx := context.Background()

	_, err := p.AccessToken(ctx)
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	require.NoError(t, p.Store("first-token"))
	tok, err := p.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first-token", tok)

	// an external writer replacing the file is picked up
	require.NoError(t, os.WriteFile(path, []byte("second-token\n"), 0o600))
	future := p.modTime.Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))
	tok, err = p.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second-token", tok)
}

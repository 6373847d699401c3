package transport

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rubiojr/gsuggest/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(url string) core.Request {
	return core.Request{Generation: 7, RegionID: "US", URL: url}
}

func TestFetchOK(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte("<toplevel/>"))
	}))
	defer srv.Close()

	tr := New(WithUserAgent("test-agent/1.0"))
	body, err := tr.Fetch(context.Background(), request(srv.URL+"/complete/search?q=golang"))
	require.NoError(t, err)
	assert.Equal(t, "<toplevel/>", string(body))
	assert.Equal(t, "test-agent/1.0", gotUA)
}

func TestFetchGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(`["q",["a"]]`))
		_ = gz.Close()
	}))
	defer srv.Close()

	body, err := New().Fetch(context.Background(), request(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, `["q",["a"]]`, string(body))
}

func TestFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unusual traffic", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New().Fetch(context.Background(), request(srv.URL))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrTransport)

	var te *core.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusTooManyRequests, te.StatusCode)
	assert.Equal(t, "US", te.RegionID)
	assert.False(t, te.Timeout)
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New().Fetch(ctx, request(srv.URL))
	var te *core.TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.Timeout)
}

func TestFetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New().Fetch(context.Background(), request(url))
	var te *core.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 0, te.StatusCode)
	assert.False(t, te.Timeout)
}

func TestFetchBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	_, err := New(WithMaxBodyBytes(16)).Fetch(context.Background(), request(srv.URL))
	assert.ErrorIs(t, err, core.ErrTransport)

	body, err := New(WithMaxBodyBytes(64)).Fetch(context.Background(), request(srv.URL))
	require.NoError(t, err)
	assert.Len(t, body, 64)
}

func TestFetchBadURL(t *testing.T) {
	_, err := New().Fetch(context.Background(), request("http://bad host/\x7f"))
	assert.ErrorIs(t, err, core.ErrTransport)
}

package metrics_http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/davarch/ci-pulse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const body = `gitlab_ci_pipeline_last_run_status{project="p",ref="main",id="1"} 0` + "\n"

func TestFetch_ReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metrics", r.URL.Path)
		_, _ = fmt.Fprint(w, body)
	}))
	defer srv.Close()

	got, err := New(srv.URL+"/metrics", time.Second, 0).Fetch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestFetch_OversizedBodyIsTransportFailure(t *testing.T) {
	prev := maxBody
	maxBody = int64(len(body)) - 1
	t.Cleanup(func() { maxBody = prev })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, body)
	}))
	defer srv.Close()

	got, err := New(srv.URL, time.Second, 2).Fetch(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransport))
	assert.Contains(t, err.Error(), "exceeds")
	assert.Empty(t, got)
}

func TestFetch_BodyAtLimitIsAccepted(t *testing.T) {
	prev := maxBody
	maxBody = int64(len(body))
	t.Cleanup(func() { maxBody = prev })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, body)
	}))
	defer srv.Close()

	got, err := New(srv.URL, time.Second, 0).Fetch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestFetch_ServerErrorIsTransportFailureWithoutRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second, 0).Fetch(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransport))
	assert.Contains(t, err.Error(), "502")
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetch_RetriesWhenConfigured(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, body)
	}))
	defer srv.Close()

	got, err := New(srv.URL, time.Second, 2).Fetch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, body, got)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetch_ClientErrorIsPermanent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second, 3).Fetch(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransport))
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetch_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, 200*time.Millisecond, 0).Fetch(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransport))
}

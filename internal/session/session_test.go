package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsquant/marquee-go/internal/metrics"
)

func newTestSession(t *testing.T, handler http.Handler) (*Session, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	s := New(Config{
		BaseURL:     srv.URL,
		Token:       "test-token",
		MaxRetries:  2,
		BackoffBase: time.Millisecond,
		BackoffMax:  2 * time.Millisecond,
	})
	return s, srv
}

func TestSessionGetDecodesJSON(t *testing.T) {
	var gotAuth, gotAccept string
	s, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Write([]byte(`{"id":"CWS1","name":"Macro"}`))
	}))

	var out struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, s.Get(context.Background(), "/workspaces/CWS1", &out))
	assert.Equal(t, "CWS1", out.ID)
	assert.Equal(t, "Macro", out.Name)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
}

func TestSessionPostSendsBody(t *testing.T) {
	s, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]string
		require.NoError(t, decodeRequest(r, &in))
		assert.Equal(t, "fx-pulse", in["alias"])
		w.Write([]byte(`{"id":"CWS2"}`))
	}))

	var out struct {
		ID string `json:"id"`
	}
	err := s.Post(context.Background(), "/workspaces", map[string]string{"alias": "fx-pulse"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "CWS2", out.ID)
}

func TestSessionAPIError(t *testing.T) {
	s, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errorCode":"WSP404","message":"workspace not found"}`))
	}))

	err := s.Get(context.Background(), "/workspaces/CWSX", nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "WSP404", apiErr.Code)
	assert.Equal(t, "workspace not found", apiErr.Message)
	assert.Contains(t, apiErr.Error(), "WSP404")
}

func TestSessionRetriesRetryableStatus(t *testing.T) {
	var calls int64
	s, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))

	var out map[string]bool
	require.NoError(t, s.Get(context.Background(), "/reports/RJOB1", &out))
	assert.EqualValues(t, 2, atomic.LoadInt64(&calls))
	assert.Equal(t, float64(1), metrics.CounterValue(s.Metrics().RequestRetries.WithLabelValues("reports")))
}

func TestSessionDoesNotRetryClientErrors(t *testing.T) {
	var calls int64
	s, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errorCode":"BADREQ","message":"no"}`))
	}))

	err := s.Get(context.Background(), "/workspaces/CWS1", nil)
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt64(&calls))
}

func TestSessionCachesGetResponses(t *testing.T) {
	var calls int64
	s, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.Write([]byte(`{"id":"CWS1"}`))
	}))

	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, s.Get(context.Background(), "/workspaces/CWS1", &out, WithCacheTTL(time.Minute)))
	require.NoError(t, s.Get(context.Background(), "/workspaces/CWS1", &out, WithCacheTTL(time.Minute)))

	assert.EqualValues(t, 1, atomic.LoadInt64(&calls), "second call should hit the cache")
	assert.Equal(t, "CWS1", out.ID)
	assert.Equal(t, float64(1), metrics.CounterValue(s.Metrics().CacheHits))
}

func TestSessionBreakerOpensAfterServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := New(Config{
		BaseURL:         srv.URL,
		Token:           "t",
		MaxRetries:      1,
		BackoffBase:     time.Millisecond,
		BreakerFailures: 2,
	})

	require.Error(t, s.Get(context.Background(), "/workspaces/a", nil))
	require.Error(t, s.Get(context.Background(), "/workspaces/b", nil))

	err := s.Get(context.Background(), "/workspaces/c", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit open")
}

func TestRouteClass(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "/workspaces/CWS1", want: "workspaces"},
		{path: "/workspaces", want: "workspaces"},
		{path: "/reports/jobs/RJOB1", want: "reports"},
		{path: "/", want: "root"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, routeClass(tt.path))
	}
}

func decodeRequest(r *http.Request, out interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/gsquant/marquee-go/internal/cache"
	"github.com/gsquant/marquee-go/internal/metrics"
	"github.com/gsquant/marquee-go/internal/net/ratelimit"
)

// Environment selects a Marquee deployment.
type Environment string

const (
	EnvProd Environment = "prod"
	EnvQA   Environment = "qa"
	EnvDev  Environment = "dev"
)

// BaseURL returns the API root for the environment.
func (e Environment) BaseURL() string {
	switch e {
	case EnvQA:
		return "https://api.marquee-qa.web.gs.com/v1"
	case EnvDev:
		return "https://api.marquee-dev.web.gs.com/v1"
	default:
		return "https://api.marquee.web.gs.com/v1"
	}
}

// Config configures a Session. Zero values get sensible defaults; Token is
// required (acquiring it is the caller's concern).
type Config struct {
	Environment Environment
	BaseURL     string // overrides Environment when set
	Token       string
	UserAgent   string

	RequestTimeout time.Duration
	MaxRetries     int
	BackoffBase    time.Duration
	BackoffMax     time.Duration
	MaxConcurrency int

	// Breaker trips after this many consecutive failures; zero disables it.
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	Limiter *ratelimit.Limiter
	Cache   cache.Cache
	Metrics *metrics.Registry
}

// Session is the thin wrapper every Marquee API call goes through: auth
// header, rate limit, circuit breaker, retrying transport, response cache
// and metrics. Services hold a *Session and never touch net/http directly.
type Session struct {
	baseURL   string
	token     string
	transport *Transport
	limiter   *ratelimit.Limiter
	breaker   *gobreaker.CircuitBreaker
	cache     cache.Cache
	metrics   *metrics.Registry
}

func New(cfg Config) *Session {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = 500 * time.Millisecond
	}
	if cfg.BackoffMax == 0 {
		cfg.BackoffMax = 10 * time.Second
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = 8
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "marquee-go/1.0"
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.NewLimiter(ratelimit.Class{RPS: 10, Burst: 20}, nil)
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewMemory()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewRegistry()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = cfg.Environment.BaseURL()
	}

	s := &Session{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   cfg.Token,
		transport: NewTransport(TransportConfig{
			MaxConcurrency: cfg.MaxConcurrency,
			RequestTimeout: cfg.RequestTimeout,
			MaxRetries:     cfg.MaxRetries,
			BackoffBase:    cfg.BackoffBase,
			BackoffMax:     cfg.BackoffMax,
			UserAgent:      cfg.UserAgent,
		}),
		limiter: cfg.Limiter,
		cache:   cfg.Cache,
		metrics: cfg.Metrics,
	}

	if cfg.BreakerFailures > 0 {
		failures := cfg.BreakerFailures
		timeout := cfg.BreakerTimeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "marquee",
			Timeout: timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Marquee circuit breaker state change")
				s.metrics.BreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			},
		})
	}

	return s
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateOpen:
		return 2
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 0
	}
}

// Metrics exposes the session's metrics registry, e.g. for the preview
// server's /metrics endpoint.
func (s *Session) Metrics() *metrics.Registry {
	return s.metrics
}

type requestOptions struct {
	cacheTTL time.Duration
}

// RequestOption adjusts a single request.
type RequestOption func(*requestOptions)

// WithCacheTTL caches a GET response body for the given duration, keyed by
// URL. Non-GET requests ignore it.
func WithCacheTTL(ttl time.Duration) RequestOption {
	return func(o *requestOptions) { o.cacheTTL = ttl }
}

// Get issues a GET and decodes the JSON response into out.
func (s *Session) Get(ctx context.Context, path string, out interface{}, opts ...RequestOption) error {
	return s.do(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post issues a POST with the JSON-encoded body and decodes the response.
func (s *Session) Post(ctx context.Context, path string, body, out interface{}, opts ...RequestOption) error {
	return s.do(ctx, http.MethodPost, path, body, out, opts...)
}

// Put issues a PUT with the JSON-encoded body and decodes the response.
func (s *Session) Put(ctx context.Context, path string, body, out interface{}, opts ...RequestOption) error {
	return s.do(ctx, http.MethodPut, path, body, out, opts...)
}

// Delete issues a DELETE. out may be nil.
func (s *Session) Delete(ctx context.Context, path string, out interface{}, opts ...RequestOption) error {
	return s.do(ctx, http.MethodDelete, path, nil, out, opts...)
}

// routeClass buckets a path by its first segment: /workspaces/CWS1 and
// /workspaces/alias/x share one rate limit bucket and breaker label.
func routeClass(path string) string {
	trimmed := strings.TrimLeft(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i > 0 {
		return trimmed[:i]
	}
	if trimmed == "" {
		return "root"
	}
	return trimmed
}

func (s *Session) do(ctx context.Context, method, path string, body, out interface{}, opts ...RequestOption) error {
	var options requestOptions
	for _, opt := range opts {
		opt(&options)
	}

	url := s.baseURL + path
	class := routeClass(path)

	cacheable := method == http.MethodGet && options.cacheTTL > 0
	if cacheable {
		if cached, ok := s.cache.Get(url); ok {
			s.metrics.CacheHits.Inc()
			return decodeBody(cached, out)
		}
		s.metrics.CacheMisses.Inc()
	}

	if err := s.limiter.Wait(ctx, class); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", class, err)
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s body: %w", method, path, err)
		}
	}

	requestID := uuid.NewString()
	start := time.Now()
	respBody, err := s.roundTrip(ctx, method, url, class, payload, requestID)
	duration := time.Since(start)

	result := "success"
	if err != nil {
		result = "error"
	}
	s.metrics.RequestsTotal.WithLabelValues(class, result).Inc()
	s.metrics.RequestDuration.WithLabelValues(class).Observe(duration.Seconds())

	if err != nil {
		log.Error().
			Err(err).
			Str("method", method).
			Str("path", path).
			Str("request_id", requestID).
			Dur("duration", duration).
			Msg("Marquee request failed")
		return err
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Dur("duration", duration).
		Msg("Marquee request complete")

	if cacheable {
		s.cache.Set(url, respBody, options.cacheTTL)
	}
	return decodeBody(respBody, out)
}

// callResult separates API-level client errors from transport failures so
// the breaker only counts the latter: a stream of 404s must not open the
// circuit.
type callResult struct {
	body   []byte
	apiErr *APIError
}

func (s *Session) roundTrip(ctx context.Context, method, url, class string, payload []byte, requestID string) ([]byte, error) {
	call := func() (interface{}, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("build %s %s: %w", method, url, err)
		}
		req.Header.Set("Authorization", "Bearer "+s.token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := s.transport.Do(ctx, req, func() {
			s.metrics.RequestRetries.WithLabelValues(class).Inc()
		})
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiErr := newAPIError(resp.StatusCode, respBody, requestID)
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return nil, apiErr
			}
			return &callResult{apiErr: apiErr}, nil
		}
		return &callResult{body: respBody}, nil
	}

	var result interface{}
	var err error
	if s.breaker == nil {
		result, err = call()
	} else {
		result, err = s.breaker.Execute(call)
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("marquee circuit open: %w", err)
		}
	}
	if err != nil {
		return nil, err
	}
	res := result.(*callResult)
	if res.apiErr != nil {
		return nil, res.apiErr
	}
	return res.body, nil
}

func decodeBody(body []byte, out interface{}) error {
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// TransportConfig tunes the retrying HTTP transport shared by all calls on a
// session.
type TransportConfig struct {
	MaxConcurrency int
	RequestTimeout time.Duration
	MaxRetries     int
	BackoffBase    time.Duration
	BackoffMax     time.Duration
	UserAgent      string
}

// Transport issues HTTP requests with bounded concurrency and retries
// retryable failures with exponential backoff. Retried POSTs replay the
// original body via GetBody.
type Transport struct {
	config    TransportConfig
	semaphore chan struct{}
	client    *http.Client
}

func NewTransport(config TransportConfig) *Transport {
	return &Transport{
		config:    config,
		semaphore: make(chan struct{}, config.MaxConcurrency),
		client: &http.Client{
			Timeout: config.RequestTimeout,
		},
	}
}

// Do executes the request, retrying up to MaxRetries times. onRetry is
// invoked once per retry attempt; the session uses it to bump metrics.
func (t *Transport) Do(ctx context.Context, req *http.Request, onRetry func()) (*http.Response, error) {
	select {
	case t.semaphore <- struct{}{}:
		defer func() { <-t.semaphore }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if t.config.UserAgent != "" {
		req.Header.Set("User-Agent", t.config.UserAgent)
	}

	var lastErr error
	for attempt := 0; attempt <= t.config.MaxRetries; attempt++ {
		if attempt > 0 {
			if onRetry != nil {
				onRetry()
			}
			backoff := t.backoff(attempt)
			log.Debug().
				Dur("backoff", backoff).
				Int("attempt", attempt).
				Str("url", req.URL.String()).
				Msg("retrying Marquee request")

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}

			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("replay request body: %w", err)
				}
				req.Body = body
			}
		}

		resp, err := t.client.Do(req.WithContext(ctx))
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if isRetryableError(err) {
				continue
			}
			break
		}

		if isRetryableStatus(resp.StatusCode) && attempt < t.config.MaxRetries {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

func (t *Transport) backoff(attempt int) time.Duration {
	backoff := t.config.BackoffBase * time.Duration(1<<uint(attempt-1))
	if backoff > t.config.BackoffMax {
		backoff = t.config.BackoffMax
	}

	// Up to 10% jitter so concurrent retries spread out
	jitter := time.Duration(rand.Float64() * 0.1 * float64(backoff))
	return backoff + jitter
}

func isRetryableError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"wave-dashboard/internal/metrics"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type BaseClient struct {
	client         HTTPClient
	logger         *zap.Logger
	circuitBreaker *gobreaker.CircuitBreaker
	maxRetries     int
	retryDelay     time.Duration
	multiplier     float64
}

type ClientConfig struct {
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	Multiplier     float64
	Threshold      int
	BreakerTimeout time.Duration
}

func NewBaseClient(name string, config ClientConfig, logger *zap.Logger) *BaseClient {
	httpClient := &http.Client{
		Timeout: config.Timeout,
	}

	minRequests := uint32(3)
	if config.Threshold > 0 {
		minRequests = uint32(config.Threshold)
	}

	breakerSettings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && failureRatio >= 0.6
		},
		// Client errors say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || isPermanent(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("client", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &BaseClient{
		client:         httpClient,
		logger:         logger,
		circuitBreaker: gobreaker.NewCircuitBreaker(breakerSettings),
		maxRetries:     config.MaxRetries,
		retryDelay:     config.RetryDelay,
		multiplier:     config.Multiplier,
	}
}

// WithHTTPClient swaps the transport, mainly for tests.
func (c *BaseClient) WithHTTPClient(hc HTTPClient) *BaseClient {
	c.client = hc
	return c
}

// Response is a successful upstream reply.
type Response struct {
	Body        []byte
	ContentType string
}

// GetWithRetry issues a GET through the circuit breaker, retrying transient
// failures with exponential backoff. endpoint labels metrics and logs.
func (c *BaseClient) GetWithRetry(ctx context.Context, endpoint, url string) (*Response, error) {
	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.doGetWithRetry(ctx, endpoint, url)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.UpstreamCallsTotal.WithLabelValues(endpoint, "breaker_open").Inc()
			return nil, fmt.Errorf("%s: prediction API unavailable: %w", endpoint, err)
		}
		return nil, err
	}

	return result.(*Response), nil
}

func (c *BaseClient) doGetWithRetry(ctx context.Context, endpoint, url string) (*Response, error) {
	var response *Response
	attempt := 0

	operation := func() error {
		attempt++
		start := time.Now()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request failed: %w", err))
		}

		resp, err := c.client.Do(req)
		metrics.UpstreamLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.UpstreamCallsTotal.WithLabelValues(endpoint, "error").Inc()
			c.logger.Warn("HTTP request failed",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		metrics.UpstreamCallsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		if err != nil {
			return fmt.Errorf("reading response body failed: %w", err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			c.logger.Debug("Request successful",
				zap.String("url", url),
				zap.Int("status", resp.StatusCode),
				zap.Int("body_size", len(body)))
			response = &Response{Body: body, ContentType: resp.Header.Get("Content-Type")}
			return nil
		}

		apiErr := newAPIError(resp.StatusCode, body, resp.Header.Get("Content-Type"))

		// Don't retry on client errors (4xx) except 429 (rate limiting)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return backoff.Permanent(apiErr)
		}
		return apiErr
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryDelay
	if c.multiplier > 0 {
		policy.Multiplier = c.multiplier
	}
	policy.MaxElapsedTime = 0

	notify := func(err error, delay time.Duration) {
		c.logger.Debug("Retrying request",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
	}

	retries := uint64(0)
	if c.maxRetries > 0 {
		retries = uint64(c.maxRetries)
	}

	err := backoff.RetryNotify(operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx),
		notify)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}

	return response, nil
}

func isPermanent(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests
}

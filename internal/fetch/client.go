// Package fetch wraps single outbound HTTP GET calls with timeouts, bounded
// retries, a circuit breaker and an optional rate limit.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/HongRae-Kim/travel-taipei/internal/apperr"
)

// BreakerSettings tunes the per-provider circuit breaker.
// A zero FailureThreshold keeps the breaker permanently closed.
type BreakerSettings struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// Config bundles resilience settings for one provider client.
type Config struct {
	Retry   RetryPolicy
	Breaker BreakerSettings

	// RateLimit caps outbound requests per second; 0 disables throttling.
	RateLimit float64
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Retry: DefaultRetryPolicy(),
		Breaker: BreakerSettings{
			FailureThreshold: 5,
			OpenTimeout:      30 * time.Second,
		},
	}
}

// NewHTTPClient builds a client whose connect and response timeouts are
// independent limits applied to every attempt.
func NewHTTPClient(connectTimeout, responseTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = connectTimeout
	transport.ResponseHeaderTimeout = responseTimeout

	return &http.Client{
		Transport: transport,
		Timeout:   connectTimeout + responseTimeout,
	}
}

// Client performs JSON GET requests against one upstream provider.
type Client struct {
	name    string
	http    *http.Client
	policy  RetryPolicy
	circuit *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	log     logrus.FieldLogger
}

// New creates a provider client. A nil httpClient falls back to
// http.DefaultClient; a nil logger discards output.
func New(name string, httpClient *http.Client, cfg Config, log logrus.FieldLogger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	if cfg.Retry.Retryable == nil {
		cfg.Retry.Retryable = IsRetryable
	}

	threshold := cfg.Breaker.FailureThreshold
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.Breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return threshold > 0 && counts.ConsecutiveFailures >= threshold
		},
		// Client errors say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || !IsRetryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"provider": name,
				"from":     from.String(),
				"to":       to.String(),
			}).Warn("circuit breaker state changed")
		},
	})

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		name:    name,
		http:    httpClient,
		policy:  cfg.Retry,
		circuit: cb,
		limiter: limiter,
		log:     log.WithField("provider", name),
	}
}

// Name returns the provider name used in logs and errors.
func (c *Client) Name() string {
	return c.name
}

// GetJSON issues GET endpoint?query and decodes the body into dest. Unknown
// fields are ignored. Every failure is wrapped in apperr.ErrUpstream.
func (c *Client) GetJSON(ctx context.Context, endpoint string, query url.Values, dest interface{}) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", apperr.ErrUpstream, c.name, err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	target := u.String()

	attempt := 0
	err = c.policy.Do(ctx, func(ctx context.Context) error {
		attempt++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		_, err := c.circuit.Execute(func() (interface{}, error) {
			return nil, c.do(ctx, target, dest)
		})
		if err != nil {
			c.log.WithFields(logrus.Fields{
				"endpoint": u.Path,
				"attempt":  attempt,
				"error":    err.Error(),
			}).Debug("upstream attempt failed")
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", apperr.ErrUpstream, c.name, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, target string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

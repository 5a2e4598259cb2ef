// Package github implements a GitHub REST API v3 client.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/axiom-hq/axiom-hub/internal/application/command"
	"github.com/axiom-hq/axiom-hub/pkg/circuitbreaker"
	"github.com/axiom-hq/axiom-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the GitHub API client.
type ClientConfig struct {
	// BaseURL is the API base URL, https://api.github.com in production
	BaseURL string

	// Token is an optional personal access token. Raises the rate limit
	// from 60 to 5000 requests per hour.
	Token string

	// UserAgent is sent with every request, GitHub requires one
	UserAgent string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// Retry settings, zero values fall back to defaults
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// Circuit breaker settings, zero values fall back to defaults
	BreakerThreshold   int
	BreakerTimeout     time.Duration
	BreakerHalfOpenMax int

	// RateGuardConfig for API budget tracking
	RateGuardConfig RateGuardConfig

	// Logger for structured logging
	Logger *slog.Logger

	// Debug enables per-request debug logging
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:         baseURL,
		UserAgent:       "axiom-hub",
		Timeout:         15 * time.Second,
		RateGuardConfig: DefaultRateGuardConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the GitHub REST API client.
// Implements the application-layer GitHub contract.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	rateGuard  *RateGuard
	breaker    *circuitbreaker.CircuitBreaker
	retrier    *retry.Retrier
	mapper     *Mapper
}

// NewClient creates a new GitHub API client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.UserAgent == "" {
		config.UserAgent = "axiom-hub"
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.RetryBaseDelay <= 0 {
		config.RetryBaseDelay = 500 * time.Millisecond
	}
	if config.RetryMaxDelay <= 0 {
		config.RetryMaxDelay = 10 * time.Second
	}
	if config.BreakerThreshold <= 0 {
		config.BreakerThreshold = 3
	}
	if config.BreakerTimeout <= 0 {
		config.BreakerTimeout = time.Minute
	}
	if config.BreakerHalfOpenMax <= 0 {
		config.BreakerHalfOpenMax = 1
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:    config.Logger,
		rateGuard: NewRateGuard(config.RateGuardConfig),
		breaker: circuitbreaker.New("github-api",
			circuitbreaker.WithFailureThreshold(config.BreakerThreshold),
			circuitbreaker.WithTimeout(config.BreakerTimeout),
			circuitbreaker.WithMaxHalfOpenRequests(config.BreakerHalfOpenMax),
		),
		retrier: retry.New(
			retry.WithMaxAttempts(config.MaxRetries),
			retry.WithInitialDelay(config.RetryBaseDelay),
			retry.WithMaxDelay(config.RetryMaxDelay),
			retry.WithMultiplier(2.0),
			retry.WithJitter(0.2),
		),
		mapper: NewMapper(),
	}
}

// compile-time contract check
var _ command.GitHubClient = (*Client)(nil)

// ══════════════════════════════════════════════════════════════════════════════
// USER OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetUser fetches a public profile by login.
func (c *Client) GetUser(ctx context.Context, login string) (*command.GitHubProfile, error) {
	path := "/users/" + url.PathEscape(login)

	var dto UserDTO
	if err := c.doRequest(ctx, path, &dto); err != nil {
		return nil, fmt.Errorf("get github user %s: %w", login, err)
	}

	return c.mapper.ProfileFromDTO(&dto)
}

// GetUserRepos fetches up to perPage public repositories of a user,
// newest pushed first.
func (c *Client) GetUserRepos(ctx context.Context, login string, perPage int) ([]RepoDTO, error) {
	if perPage <= 0 || perPage > 100 {
		perPage = 100
	}

	params := url.Values{}
	params.Set("sort", "pushed")
	params.Set("per_page", strconv.Itoa(perPage))
	path := "/users/" + url.PathEscape(login) + "/repos?" + params.Encode()

	var repos []RepoDTO
	if err := c.doRequest(ctx, path, &repos); err != nil {
		return nil, fmt.Errorf("get github repos for %s: %w", login, err)
	}

	return repos, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMIT AND HEALTH
// ══════════════════════════════════════════════════════════════════════════════

// GetRateLimit fetches the current core rate-limit budget.
// The /rate_limit endpoint itself does not count against the budget.
func (c *Client) GetRateLimit(ctx context.Context) (*RateLimitDTO, error) {
	var resp rateLimitResponse
	if err := c.doSingleRequest(ctx, "/rate_limit", &resp); err != nil {
		return nil, fmt.Errorf("get rate limit: %w", err)
	}
	return &resp.Resources.Core, nil
}

// IsHealthy checks if the GitHub API is reachable.
func (c *Client) IsHealthy(ctx context.Context) bool {
	_, err := c.GetRateLimit(ctx)
	return err == nil
}

// ClientStatus is the current state of the client's protections.
type ClientStatus struct {
	RateGuard    RateGuardStatus
	BreakerState circuitbreaker.State
}

// Status returns the current status of the client.
func (c *Client) Status() ClientStatus {
	return ClientStatus{
		RateGuard:    c.rateGuard.Status(),
		BreakerState: c.breaker.State(),
	}
}

// Reset resets the rate guard and circuit breaker.
func (c *Client) Reset() {
	c.rateGuard.Reset()
	c.breaker.Reset()
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// doRequest performs a GET with budget tracking, circuit breaking and retries.
func (c *Client) doRequest(ctx context.Context, path string, result interface{}) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			if err := c.rateGuard.Wait(ctx); err != nil {
				return retry.Permanent(err)
			}

			err := c.doSingleRequest(ctx, path, result)
			if err == nil {
				return nil
			}
			if c.isRetryable(err) {
				return retry.Retryable(err)
			}
			return retry.Permanent(err)
		})
	})
}

// doSingleRequest performs a single GET request.
func (c *Client) doSingleRequest(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", c.config.UserAgent)
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	if c.config.Debug {
		c.logger.Debug("github api request", "path", path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	c.rateGuard.Observe(resp.Header)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrUserNotFound

	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		// Primary rate limit answers 403 with a reset header, secondary 429.
		resetAt := time.Now().Add(time.Minute)
		if v, parseErr := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); parseErr == nil {
			resetAt = time.Unix(v, 0)
		}
		c.rateGuard.RecordExhausted(resetAt)
		return &BudgetError{ResetAt: resetAt}

	case resp.StatusCode >= 400:
		apiErr := &APIErrorDTO{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(respBody, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// isRetryable reports whether an error is worth retrying.
func (c *Client) isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Budget errors are not retryable within one call, the window
	// refills on the scale of minutes to an hour.
	var budgetErr *BudgetError
	if errors.As(err, &budgetErr) {
		return false
	}

	// Unknown login is final.
	if errors.Is(err, ErrUserNotFound) {
		return false
	}

	var apiErr *APIErrorDTO
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}

	// Transport errors are worth one more try.
	return true
}

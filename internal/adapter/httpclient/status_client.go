package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/infrastructure/metrics"
)

const (
	defaultBreakerTimeout     = 30 * time.Second
	defaultConsecutiveFailure = 5
	maxErrorBody              = 512
)

// ErrUnexpectedStatus is returned for any status other than 200 and 404.
var ErrUnexpectedStatus = errors.New("unexpected status from account service")

// TokenSource supplies the bearer token attached to every request.
type TokenSource interface {
	Token() (string, error)
}

// StatusClientConfig configures a StatusClient.
type StatusClientConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenSource
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger
	// ConsecutiveFailures trips the breaker; zero uses the default.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open; zero uses the default.
	OpenTimeout time.Duration
}

// StatusClient asks the account service whether it processed a transaction.
type StatusClient struct {
	baseURL *url.URL
	client  *http.Client
	tokens  TokenSource
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// processedResponse mirrors the account service's internal status payload.
type processedResponse struct {
	TransactionID string    `json:"transaction_id"`
	Status        string    `json:"status"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewStatusClient creates a StatusClient guarded by a circuit breaker.
func NewStatusClient(cfg StatusClientConfig) (*StatusClient, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse account service url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("account service url %q must be absolute", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	failures := cfg.ConsecutiveFailures
	if failures == 0 {
		failures = defaultConsecutiveFailure
	}
	openTimeout := cfg.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = defaultBreakerTimeout
	}

	c := &StatusClient{
		baseURL: base,
		client:  httpClient,
		tokens:  cfg.Tokens,
		metrics: cfg.Metrics,
		logger:  cfg.Logger.With().Str("component", "status_client").Logger(),
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "account-service-status",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// A missing record is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrProcessedNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return c, nil
}

// GetProcessed fetches the processed record for transactionID. It returns
// domain.ErrProcessedNotFound when the account service has none.
func (c *StatusClient) GetProcessed(ctx context.Context, transactionID string) (*domain.ProcessedTransaction, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, transactionID)
	})
	c.observe(err)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: account service unavailable: %w", domain.ErrTransient, err)
		}
		return nil, err
	}

	return result.(*domain.ProcessedTransaction), nil
}

// State exposes the breaker state for readiness reporting.
func (c *StatusClient) State() string {
	return c.breaker.State().String()
}

func (c *StatusClient) fetch(ctx context.Context, transactionID string) (*domain.ProcessedTransaction, error) {
	endpoint := c.baseURL.JoinPath("internal", "transactions", transactionID, "status")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("issue service token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: status request: %w", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, domain.ErrProcessedNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload processedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}

	status := domain.TransactionStatus(payload.Status)
	if status != domain.TransactionStatusCompleted && status != domain.TransactionStatusFailed {
		return nil, fmt.Errorf("%w: processed status %q", ErrUnexpectedStatus, payload.Status)
	}

	return &domain.ProcessedTransaction{
		TransactionID: payload.TransactionID,
		Status:        status,
		ErrorMessage:  payload.ErrorMessage,
		CreatedAt:     payload.CreatedAt,
	}, nil
}

func (c *StatusClient) observe(err error) {
	if c.metrics == nil {
		return
	}

	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrProcessedNotFound):
		result = "not_found"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		result = "open"
	default:
		result = "error"
	}
	c.metrics.StatusClientRequests.WithLabelValues(result).Inc()
}

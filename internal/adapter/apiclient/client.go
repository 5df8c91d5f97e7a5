// Package apiclient is the REST client the console and the CLI use to talk
// to the remitdesk API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/remitdesk/internal/adapter/http/dto"
)

// IdempotencyKeyHeader carries the key the server deduplicates mutations by.
const IdempotencyKeyHeader = "Idempotency-Key"

// Config configures a Client.
type Config struct {
	BaseURL string
	// Token is sent as a bearer token when set.
	Token   string
	Timeout time.Duration
	// MaxRetries bounds retries of idempotent GET requests.
	MaxRetries      uint64
	InitialInterval time.Duration
	Logger          zerolog.Logger
	HTTPClient      *http.Client
}

// Client is a REST client for the remitdesk API.
type Client struct {
	baseURL         *url.URL
	token           string
	httpClient      *http.Client
	maxRetries      uint64
	initialInterval time.Duration
	logger          zerolog.Logger
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Code)
}

// NotFound reports whether the API answered 404.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (e *APIError) retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	initial := cfg.InitialInterval
	if initial == 0 {
		initial = 200 * time.Millisecond
	}

	return &Client{
		baseURL:         base,
		token:           cfg.Token,
		httpClient:      httpClient,
		maxRetries:      cfg.MaxRetries,
		initialInterval: initial,
		logger:          cfg.Logger.With().Str("component", "api_client").Logger(),
	}, nil
}

// GetService fetches a service.
func (c *Client) GetService(ctx context.Context, id string) (*dto.ServiceResponse, error) {
	var out dto.ServiceResponse
	if err := c.get(ctx, "/api/v1/services/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCommissions lists the commission records of a service, newest first.
func (c *Client) ListCommissions(ctx context.Context, serviceID string, activeOnly bool) ([]dto.CommissionResponse, error) {
	query := url.Values{}
	if activeOnly {
		query.Set("isActive", "true")
	}

	var out []dto.CommissionResponse
	if err := c.get(ctx, "/api/v1/services/"+url.PathEscape(serviceID)+"/commissions", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BaseCommission returns the commission of the newest active record of a
// service. A service without active records has a zero base.
func (c *Client) BaseCommission(ctx context.Context, serviceID string) (decimal.Decimal, error) {
	records, err := c.ListCommissions(ctx, serviceID, true)
	if err != nil {
		return decimal.Zero, err
	}
	if len(records) == 0 {
		return decimal.Zero, nil
	}
	base, err := decimal.NewFromString(records[0].Commission)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed commission %q: %w", records[0].Commission, err)
	}
	return base, nil
}

// CommissionByDay resolves the waiting-days surcharge of a service.
func (c *Client) CommissionByDay(ctx context.Context, serviceID string, minDate, maxDate *time.Time) (decimal.Decimal, error) {
	query := url.Values{}
	if minDate != nil {
		query.Set("minDate", minDate.UTC().Format(time.RFC3339))
	}
	if maxDate != nil {
		query.Set("maxDate", maxDate.UTC().Format(time.RFC3339))
	}

	var out dto.CommissionByDayResponse
	if err := c.get(ctx, "/api/v1/services/"+url.PathEscape(serviceID)+"/commission-by-day", query, &out); err != nil {
		return decimal.Zero, err
	}
	pct, err := decimal.NewFromString(out.Percentage)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed percentage %q: %w", out.Percentage, err)
	}
	return pct, nil
}

// Quote asks the server for a settlement preview.
func (c *Client) Quote(ctx context.Context, req dto.QuoteRequest) (*dto.QuoteResponse, error) {
	var out dto.QuoteResponse
	if err := c.send(ctx, http.MethodPost, "/api/v1/quotes", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTransaction fetches a transaction.
func (c *Client) GetTransaction(ctx context.Context, id string) (*dto.TransactionResponse, error) {
	var out dto.TransactionResponse
	if err := c.get(ctx, "/api/v1/transactions/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTransactions lists the transactions of a client.
func (c *Client) ListTransactions(ctx context.Context, clientID string, limit, offset int) ([]dto.TransactionResponse, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	var out []dto.TransactionResponse
	if err := c.get(ctx, "/api/v1/clients/"+url.PathEscape(clientID)+"/transactions", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListGroups lists the groups of a client.
func (c *Client) ListGroups(ctx context.Context, clientID string) ([]dto.GroupResponse, error) {
	var out []dto.GroupResponse
	if err := c.get(ctx, "/api/v1/clients/"+url.PathEscape(clientID)+"/groups", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ChangeGroup sets the group of a transaction; nil removes it from its group.
func (c *Client) ChangeGroup(ctx context.Context, transactionID string, groupID *string) (*dto.GroupChangeResponse, error) {
	var out dto.GroupChangeResponse
	path := "/api/v1/transactions/changeGroup/" + url.PathEscape(transactionID)
	if err := c.send(ctx, http.MethodPut, path, dto.ChangeGroupRequest{GroupID: groupID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// get issues a GET, retrying transport failures, 429 and 5xx answers with
// exponential backoff.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := c.do(ctx, http.MethodGet, path, query, nil, out)
		if err == nil {
			return nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.retryable() {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}

		c.logger.Warn().Err(err).Str("path", path).Int("attempt", attempt).Msg("request failed, retrying")
		return err
	}, policy)
}

// send issues a mutating request once, tagged with a fresh idempotency key.
func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	return c.doWithKey(ctx, method, path, nil, payload, uuid.NewString(), out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte, out any) error {
	return c.doWithKey(ctx, method, path, query, payload, "", out)
}

func (c *Client) doWithKey(ctx context.Context, method, path string, query url.Values, payload []byte, idempotencyKey string, out any) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = query.Encode()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("creating request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if idempotencyKey != "" {
		req.Header.Set(IdempotencyKeyHeader, idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Code: http.StatusText(resp.StatusCode)}
		var errBody dto.ErrorResponse
		if json.Unmarshal(data, &errBody) == nil && errBody.Error != "" {
			apiErr.Code = errBody.Error
			apiErr.Message = errBody.Message
		} else if text := strings.TrimSpace(string(data)); text != "" {
			apiErr.Message = text
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response failed: %w", err)
	}
	return nil
}

package finance

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

	"golang.org/x/time/rate"

	"github.com/Jvinniec/di-milestoneproj/internal/common"
)

const (
	DefaultBaseURL           = "https://www.alphavantage.co"
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerMinute = 5
)

// Provider is the market data source behind the Fetcher.
type Provider interface {
	// SearchSymbol returns candidates for a free-text query, best first.
	SearchSymbol(ctx context.Context, keywords string) ([]SymbolMatch, error)
	// DailyAdjusted returns the full daily adjusted history, oldest first.
	DailyAdjusted(ctx context.Context, symbol string) ([]DailyRow, error)
}

// AlphaVantageClient talks to the Alpha Vantage query API.
type AlphaVantageClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *common.Logger
}

// ClientOption configures the client.
type ClientOption func(*AlphaVantageClient)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *AlphaVantageClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithLogger(logger *common.Logger) ClientOption {
	return func(c *AlphaVantageClient) {
		c.logger = logger.Component("alphavantage")
	}
}

// WithRateLimit caps outgoing calls per minute. Zero or less disables the cap.
func WithRateLimit(requestsPerMinute int) ClientOption {
	return func(c *AlphaVantageClient) {
		if requestsPerMinute <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute)
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *AlphaVantageClient) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client. The configured timeout is kept
// unless hc sets its own.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *AlphaVantageClient) {
		if hc.Timeout == 0 {
			hc.Timeout = c.httpClient.Timeout
		}
		c.httpClient = hc
	}
}

// NewAlphaVantageClient builds a client for apiKey.
func NewAlphaVantageClient(apiKey string, opts ...ClientOption) (*AlphaVantageClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("alphavantage: api key is required")
	}
	c := &AlphaVantageClient{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     common.NewSilentLogger(),
	}
	WithRateLimit(DefaultRequestsPerMinute)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// providerNotice captures the messages Alpha Vantage returns with a 200
// status instead of data: bad symbols, exhausted quota, premium endpoints.
type providerNotice struct {
	ErrorMessage string `json:"Error Message"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
}

func (n providerNotice) notice() string {
	switch {
	case n.ErrorMessage != "":
		return n.ErrorMessage
	case n.Note != "":
		return n.Note
	default:
		return n.Information
	}
}

type noticer interface{ notice() string }

type symbolSearchResp struct {
	providerNotice
	BestMatches []map[string]string `json:"bestMatches"`
}

type dailyAdjustedResp struct {
	providerNotice
	MetaData   map[string]string            `json:"Meta Data"`
	TimeSeries map[string]map[string]string `json:"Time Series (Daily)"`
}

// get performs one rate limited query and decodes the JSON body into result.
func (c *AlphaVantageClient) get(ctx context.Context, function string, params url.Values, result noticer) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &ProviderError{Endpoint: function, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("function", function)
	q.Set("apikey", c.apiKey)
	reqURL := c.baseURL + "/query?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &ProviderError{Endpoint: function, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Error().Err(err).Str("function", function).Dur("elapsed", elapsed).Msg("request failed")
		return &ProviderError{Endpoint: function, Err: fmt.Errorf("%s request: %w", function, redactKey(err, c.apiKey))}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ProviderError{Endpoint: function, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		preview := string(body)
		if len(preview) > 120 {
			preview = preview[:120]
		}
		c.logger.Warn().Str("function", function).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("non-OK response")
		return &ProviderError{
			Endpoint:   function,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Alpha Vantage returned status %d: %s", resp.StatusCode, strings.TrimSpace(preview)),
		}
	}
	if err := json.Unmarshal(body, result); err != nil {
		return &ProviderError{Endpoint: function, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode %s response: %w", function, err)}
	}
	if msg := result.notice(); msg != "" {
		c.logger.Warn().Str("function", function).Str("notice", msg).Msg("provider notice")
		return &ProviderError{Endpoint: function, StatusCode: resp.StatusCode, Message: msg}
	}

	c.logger.Debug().Str("function", function).Dur("elapsed", elapsed).Msg("provider call")
	return nil
}

// SearchSymbol calls SYMBOL_SEARCH.
func (c *AlphaVantageClient) SearchSymbol(ctx context.Context, keywords string) ([]SymbolMatch, error) {
	var resp symbolSearchResp
	if err := c.get(ctx, "SYMBOL_SEARCH", url.Values{"keywords": {keywords}}, &resp); err != nil {
		return nil, err
	}
	return normalizeMatches(resp.BestMatches), nil
}

// DailyAdjusted calls TIME_SERIES_DAILY_ADJUSTED with the full output size.
func (c *AlphaVantageClient) DailyAdjusted(ctx context.Context, symbol string) ([]DailyRow, error) {
	var resp dailyAdjustedResp
	params := url.Values{"symbol": {symbol}, "outputsize": {"full"}}
	if err := c.get(ctx, "TIME_SERIES_DAILY_ADJUSTED", params, &resp); err != nil {
		return nil, err
	}
	rows, skipped := normalizeDaily(resp.TimeSeries)
	if skipped > 0 {
		c.logger.Warn().Str("symbol", symbol).Int("skipped", skipped).Msg("dropped malformed rows")
	}
	if len(rows) == 0 {
		return nil, &ProviderError{
			Endpoint: "TIME_SERIES_DAILY_ADJUSTED",
			Message:  fmt.Sprintf("Alpha Vantage returned no daily history for %s", symbol),
		}
	}
	return rows, nil
}

// redactKey keeps the API key out of url.Error messages shown to users.
func redactKey(err error, key string) error {
	msg := err.Error()
	if !strings.Contains(msg, key) {
		return err
	}
	return errors.New(strings.ReplaceAll(msg, key, "REDACTED"))
}

var _ Provider = (*AlphaVantageClient)(nil)

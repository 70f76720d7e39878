package jikan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/five82/shiki/internal/logging"
)

// Fetcher is the catalog surface the rest of shiki depends on.
type Fetcher interface {
	Anime(ctx context.Context, id string) (Anime, error)
	AnimeFull(ctx context.Context, id string) (Anime, error)
	Characters(ctx context.Context, id string) ([]Character, error)
	Recommendations(ctx context.Context, id string) ([]Recommendation, error)
	Schedule(ctx context.Context, day string, sfw bool) ([]Anime, error)
	SeasonNow(ctx context.Context, sfw bool) ([]Anime, error)
	SeasonUpcoming(ctx context.Context) ([]Anime, error)
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// ErrNoData is returned when a response decodes but carries no data field.
var ErrNoData = errors.New("jikan: response has no data")

// StatusError reports a non-2xx response.
type StatusError struct {
	Status int
	Path   string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("jikan %s returned status %d", e.Path, e.Status)
	}
	return fmt.Sprintf("jikan %s returned status %d: %s", e.Path, e.Status, e.Body)
}

// Temporary reports whether retrying the same request may succeed.
func (e *StatusError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// Options configures a Client. Zero values pick defaults.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	UserAgent     string
	Logger        *log.Logger
	HTTPClient    *http.Client
}

// Client talks to the Jikan v4 REST API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	logger    *log.Logger
}

const (
	DefaultBaseURL   = "https://api.jikan.moe/v4"
	defaultUserAgent = "shiki/dev"
	defaultTimeout   = 10 * time.Second
	defaultRate      = 3.0
	maxErrorBody     = 200
)

// NewClient builds a Client from opts.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	perSecond := opts.RatePerSecond
	if perSecond <= 0 {
		perSecond = defaultRate
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	logger := logging.Component(opts.Logger, "jikan")

	c := &Client{
		baseURL:   base,
		http:      httpClient,
		userAgent: userAgent,
		limiter:   rate.NewLimiter(rate.Limit(perSecond), 1),
		logger:    logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "jikan",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from, "to", to)
		},
		IsSuccessful: countsAsHealthy,
	})
	return c, nil
}

// countsAsHealthy reports which outcomes the breaker records as successes.
// Not-found responses and empty payloads count as healthy.
func countsAsHealthy(err error) bool {
	if err == nil || errors.Is(err, ErrNoData) || errors.Is(err, context.Canceled) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return !se.Temporary()
	}
	return false
}

// Anime fetches /anime/{id}.
func (c *Client) Anime(ctx context.Context, id string) (Anime, error) {
	var a Anime
	if err := c.get(ctx, animePath(id), nil, &a, nil); err != nil {
		return Anime{}, err
	}
	return a, nil
}

// AnimeFull fetches /anime/{id}/full, which adds streaming links and
// relations.
func (c *Client) AnimeFull(ctx context.Context, id string) (Anime, error) {
	var a Anime
	if err := c.get(ctx, animePath(id, "full"), nil, &a, nil); err != nil {
		return Anime{}, err
	}
	return a, nil
}

// Characters fetches /anime/{id}/characters.
func (c *Client) Characters(ctx context.Context, id string) ([]Character, error) {
	var out []Character
	if err := c.get(ctx, animePath(id, "characters"), nil, &out, nil); err != nil {
		return nil, err
	}
	return out, nil
}

// Recommendations fetches /anime/{id}/recommendations.
func (c *Client) Recommendations(ctx context.Context, id string) ([]Recommendation, error) {
	var out []Recommendation
	if err := c.get(ctx, animePath(id, "recommendations"), nil, &out, nil); err != nil {
		return nil, err
	}
	return out, nil
}

// Schedule fetches /schedules for one lower-case weekday name.
func (c *Client) Schedule(ctx context.Context, day string, sfw bool) ([]Anime, error) {
	values := url.Values{}
	if day = strings.ToLower(strings.TrimSpace(day)); day != "" {
		values.Set("filter", day)
	}
	if sfw {
		values.Set("sfw", "true")
	}
	return c.list(ctx, "/schedules", values)
}

// SeasonNow fetches /seasons/now.
func (c *Client) SeasonNow(ctx context.Context, sfw bool) ([]Anime, error) {
	values := url.Values{}
	if sfw {
		values.Set("sfw", "true")
	}
	return c.list(ctx, "/seasons/now", values)
}

// SeasonUpcoming fetches /seasons/upcoming.
func (c *Client) SeasonUpcoming(ctx context.Context) ([]Anime, error) {
	return c.list(ctx, "/seasons/upcoming", nil)
}

func (c *Client) list(ctx context.Context, path string, values url.Values) ([]Anime, error) {
	var out []Anime
	var page Pagination
	if err := c.get(ctx, path, values, &out, &page); err != nil {
		return nil, err
	}
	c.logger.Debug("list fetched", "path", path, "count", len(out), "has_next", page.HasNextPage)
	return out, nil
}

type envelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination"`
}

func (c *Client) get(ctx context.Context, path string, values url.Values, dest any, page *Pagination) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	body, err := c.breaker.Execute(func() (any, error) {
		return c.do(ctx, path, values)
	})
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body.([]byte), &env); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return fmt.Errorf("%s: %w", path, ErrNoData)
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("decode %s data: %w", path, err)
	}
	if page != nil && env.Pagination != nil {
		*page = *env.Pagination
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string, values url.Values) ([]byte, error) {
	reqURL := c.baseURL.JoinPath(path)
	if len(values) > 0 {
		reqURL.RawQuery = values.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("request", "path", path, "status", resp.StatusCode, "elapsed", time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &StatusError{Status: resp.StatusCode, Path: path, Body: snippet}
	}
	return body, nil
}

func animePath(id string, sub ...string) string {
	parts := append([]string{"/anime", url.PathEscape(strings.TrimSpace(id))}, sub...)
	return strings.Join(parts, "/")
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api base url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api base url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// Package fbref fetches and parses league standard-stats pages.
package fbref

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/transfermetrics/pipeline/internal/domain/normalize"
	"github.com/transfermetrics/pipeline/internal/domain/performance"
	"github.com/transfermetrics/pipeline/internal/platform/logging"
)

const (
	defaultBaseURL = "https://fbref.com"
	defaultDelay   = 6 * time.Second
	maxPageBytes   = 8 << 20
)

var errTransient = crerr.New("fbref transient failure")

// ErrUnknownLeague is returned for leagues without a competition id.
var ErrUnknownLeague = crerr.New("unknown league")

// competitionIDs maps canonical league tokens to fbref competition ids.
var competitionIDs = map[string]int{
	normalize.LeaguePremierLeague: 9,
	normalize.LeagueLaLiga:        12,
	normalize.LeagueSerieA:        11,
	normalize.LeagueBundesliga:    20,
	normalize.LeagueLigue1:        13,
}

type ClientConfig struct {
	BaseURL    string
	Delay      time.Duration
	MaxRetries int
	Timeout    time.Duration
	Logger     *logging.Logger
}

// Client fetches standard-stats pages politely: one request per Delay,
// retrying transient failures with linear backoff.
type Client struct {
	http       *fasthttp.Client
	baseURL    string
	delay      time.Duration
	maxRetries int
	timeout    time.Duration
	logger     *logging.Logger

	mu        sync.Mutex
	lastFetch time.Time
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	delay := cfg.Delay
	if delay <= 0 {
		delay = defaultDelay
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		http: &fasthttp.Client{
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxResponseBodySize: maxPageBytes,
		},
		baseURL:    baseURL,
		delay:      delay,
		maxRetries: cfg.MaxRetries,
		timeout:    timeout,
		logger:     logger,
	}
}

// StatsURL builds the standard-stats page URL for a canonical league
// token and a season label like "2023-2024".
func (c *Client) StatsURL(league, season string) (string, error) {
	compID, ok := competitionIDs[league]
	if !ok {
		return "", crerr.Wrapf(ErrUnknownLeague, "league %q", league)
	}
	return fmt.Sprintf("%s/en/comps/%d/%s/stats/%s-%s-Stats",
		c.baseURL, compID, season, season, league), nil
}

// FetchStats downloads and parses one league-season page.
func (c *Client) FetchStats(ctx context.Context, league, season string) ([]performance.Record, error) {
	pageURL, err := c.StatsURL(league, season)
	if err != nil {
		return nil, err
	}

	body, err := c.fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch stats league=%s season=%s: %w", league, season, err)
	}
	defer bytebufferpool.Put(body)

	rows, err := ParseStandardTable(body.B, league, season)
	if err != nil {
		return nil, fmt.Errorf("parse stats league=%s season=%s: %w", league, season, err)
	}

	c.logger.Info("stats page fetched", "league", league, "season", season, "players", len(rows))
	return rows, nil
}

// fetch downloads one page into a pooled buffer. The caller returns the
// buffer to the pool.
func (c *Client) fetch(ctx context.Context, pageURL string) (*bytebufferpool.ByteBuffer, error) {
	if err := c.politeWait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		req.SetRequestURI(pageURL)
		req.Header.SetMethod(fasthttp.MethodGet)
		setBrowserHeaders(&req.Header)

		err := c.http.DoTimeout(req, resp, c.timeout)
		status := resp.StatusCode()
		var body *bytebufferpool.ByteBuffer
		if err == nil && status >= 200 && status < 300 {
			body = bytebufferpool.Get()
			body.Set(resp.Body())
		}
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)

		switch {
		case err != nil:
			lastErr = crerr.Wrapf(errTransient, "send request: %v", err)
		case body != nil:
			return body, nil
		case isRetryableStatus(status):
			lastErr = crerr.Wrapf(errTransient, "status=%d", status)
		default:
			return nil, crerr.Newf("fbref status=%d url=%s", status, pageURL)
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * c.delay
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.Warn("fbref request failed", "url", pageURL, "error", lastErr)
	return nil, lastErr
}

// politeWait enforces the inter-request delay. Concurrent fetchers queue
// on the mutex, so the site never sees more than one request per delay.
func (c *Client) politeWait(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	wait := c.delay - time.Since(c.lastFetch)
	if wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	c.lastFetch = time.Now()
	return nil
}

// setBrowserHeaders mimics a desktop browser; fbref rejects bare
// programmatic user agents.
func setBrowserHeaders(h *fasthttp.RequestHeader) {
	h.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
}

func isRetryableStatus(code int) bool {
	return code == fasthttp.StatusTooManyRequests || code >= fasthttp.StatusInternalServerError
}

// IsTransient reports whether the error was a retryable fetch failure
// that exhausted its retries.
func IsTransient(err error) bool {
	return stderrors.Is(err, errTransient)
}

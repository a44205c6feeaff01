// Package fred accesses the FRED time-series API (fred.stlouisfed.org).
//
// All requests issued by one Client draw on a single rate budget: callers
// that would exceed it suspend until budget is available, they are never
// dropped. Failures are classified (rate-limited, not-found, transient,
// fatal) so callers branch on kind instead of catching generic errors.
package fred

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/etnz/fredsync"
	"github.com/etnz/fredsync/date"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const fredAPIKeyEnv = "FRED_API_KEY"

var fredAPIFlag = flag.String("fred-api-key", "", "FRED API key to use for fetching series data.\n If missing it will read the environment variable \""+fredAPIKeyEnv+"\". You can get one at https://fred.stlouisfed.org/docs/api/api_key.html")

// APIKey returns the configured FRED API key, reading the environment
// variable when the flag is not set.
func APIKey() string {
	if *fredAPIFlag == "" {
		*fredAPIFlag = os.Getenv(fredAPIKeyEnv)
	}
	return *fredAPIFlag
}

const defaultBaseURL = "https://api.stlouisfed.org/fred"

// SeriesURL returns the public FRED page for a series code.
func SeriesURL(code string) string { return "https://fred.stlouisfed.org/series/" + code }

// Client is a rate-limited FRED API client, safe for concurrent use.
// Concurrent fetches share the one limiter, so they never jointly exceed
// the configured request rate.
type Client struct {
	// BaseURL is the API root, overridable for tests.
	BaseURL string
	// HTTPClient performs the requests.
	HTTPClient *http.Client
	// RetryMax bounds how many times a rate-limited or transient failure
	// is retried before it is surfaced.
	RetryMax int
	// BackoffInitial and BackoffMax bound the exponential backoff between
	// retries. A provider-specified Retry-After overrides the computed delay.
	BackoffInitial time.Duration
	BackoffMax     time.Duration

	apiKey  string
	limiter *rate.Limiter
}

// NewClient returns a Client enforcing at most requestsPerMinute calls,
// with a small burst so a run cannot front-load a whole minute of budget.
func NewClient(apiKey string, requestsPerMinute int) *Client {
	if requestsPerMinute < 1 {
		requestsPerMinute = 1
	}
	burst := min(requestsPerMinute, 5)
	return &Client{
		BaseURL:        defaultBaseURL,
		HTTPClient:     &http.Client{Timeout: 30 * time.Second},
		RetryMax:       3,
		BackoffInitial: 2 * time.Second,
		BackoffMax:     30 * time.Second,
		apiKey:         apiKey,
		limiter:        rate.NewLimiter(rate.Limit(requestsPerMinute)/60, burst),
	}
}

var _ fredsync.Provider = (*Client)(nil)

// Fetch returns the observations for a series within r, ascending.
// A date the provider has no value for is absent from the result: FRED
// marks missing values with "." and those are dropped here.
func (c *Client) Fetch(ctx context.Context, code string, r date.Range) ([]fredsync.Observation, error) {
	// https://api.stlouisfed.org/fred/series/observations?series_id=PAYEMS&...
	// {
	//   "observation_start": "2020-01-01",
	//   ...
	//   "observations": [
	//     {"realtime_start": "...", "realtime_end": "...", "date": "2020-01-01", "value": "152234"},
	q := url.Values{}
	q.Set("series_id", code)
	q.Set("api_key", c.apiKey)
	q.Set("file_type", "json")
	q.Set("observation_start", r.From.String())
	q.Set("observation_end", r.To.String())
	q.Set("sort_order", "asc")

	body, err := c.get(ctx, code, c.BaseURL+"/series/observations?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var payload struct {
		Observations []struct {
			Date  date.Date `json:"date"`
			Value string    `json:"value"`
		} `json:"observations"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &fredsync.ProviderError{Kind: fredsync.KindFatal, Code: code, Err: fmt.Errorf("malformed observations response: %w", err)}
	}

	obs := make([]fredsync.Observation, 0, len(payload.Observations))
	for _, o := range payload.Observations {
		if o.Value == "." {
			// FRED's marker for "no data on that date".
			continue
		}
		v, err := decimal.NewFromString(o.Value)
		if err != nil {
			return nil, &fredsync.ProviderError{Kind: fredsync.KindFatal, Code: code, Err: fmt.Errorf("malformed value %q on %s: %w", o.Value, o.Date, err)}
		}
		obs = append(obs, fredsync.Observation{Date: o.Date, Value: v})
	}
	return obs, nil
}

// get performs one budgeted GET with bounded retries, classifying failures.
func (c *Client) get(ctx context.Context, code, addr string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.RetryMax; attempt++ {
		// The one serialization point: every request of every caller
		// waits its turn on the shared budget.
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
		if err != nil {
			return nil, &fredsync.ProviderError{Kind: fredsync.KindFatal, Code: code, Err: err}
		}
		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			lastErr = &fredsync.ProviderError{Kind: fredsync.KindTransient, Code: code, Err: err}
			if attempt < c.RetryMax && c.sleepBackoff(ctx, attempt, 0) {
				continue
			}
			return nil, lastErr
		}

		body, rerr := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK && rerr == nil:
			return body, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = &fredsync.ProviderError{Kind: fredsync.KindRateLimited, Code: code, Err: fmt.Errorf("http %s", resp.Status)}
			if attempt < c.RetryMax && c.sleepBackoff(ctx, attempt, retryAfter(resp)) {
				continue
			}
			return nil, lastErr

		case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
			// FRED answers 400 with an error_message for unknown series.
			return nil, &fredsync.ProviderError{Kind: fredsync.KindNotFound, Code: code, Err: fmt.Errorf("http %s: %s", resp.Status, errorMessage(body))}

		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusRequestTimeout || rerr != nil:
			lastErr = &fredsync.ProviderError{Kind: fredsync.KindTransient, Code: code, Err: fmt.Errorf("http %s", resp.Status)}
			if attempt < c.RetryMax && c.sleepBackoff(ctx, attempt, 0) {
				continue
			}
			return nil, lastErr

		default:
			return nil, &fredsync.ProviderError{Kind: fredsync.KindFatal, Code: code, Err: fmt.Errorf("http %s: %s", resp.Status, errorMessage(body))}
		}
	}
	return nil, lastErr
}

// sleepBackoff waits the exponential backoff for the given attempt, or the
// provider-specified delay when there is one. It reports false when ctx
// was cancelled while waiting.
func (c *Client) sleepBackoff(ctx context.Context, attempt int, providerDelay time.Duration) bool {
	d := c.BackoffInitial << attempt
	if d > c.BackoffMax {
		d = c.BackoffMax
	}
	if providerDelay > 0 {
		d = providerDelay
	}
	d += time.Duration(rand.Intn(250)) * time.Millisecond

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter reads the provider-specified throttling delay, if any.
func retryAfter(resp *http.Response) time.Duration {
	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}

// errorMessage extracts FRED's error_message from an error payload, falling
// back to the raw body when there is none.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"error_message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	if len(body) > 120 {
		body = body[:120]
	}
	return string(body)
}

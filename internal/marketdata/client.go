package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"pattern-scanner/internal/logging"
)

const (
	// DefaultBaseURL is the Marketstack v1 API root
	DefaultBaseURL = "http://api.marketstack.com/v1"

	// DefaultCacheTTL keeps batch responses fresh enough for repeated scans
	// while staying well inside the provider's daily quota
	DefaultCacheTTL = 15 * time.Minute

	// DefaultCallSpacing is the conservative one-request-per-second limit
	DefaultCallSpacing = time.Second

	// maxLimit is the provider's hard cap on records per request
	maxLimit = 1000
)

// Client is a batched Marketstack client. Every symbol batch costs at most
// one upstream call: responses are cached by request fingerprint, concurrent
// requests for the same fingerprint are coalesced, and all outbound calls
// respect the rate limiter.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *RateLimiter
	cache      *ResponseCache
	flight     singleflight.Group
	apiCalls   atomic.Int64
	log        zerolog.Logger
}

// Option customizes client construction
type Option func(*Client)

// WithCacheTTL overrides the response cache TTL
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.cache = NewResponseCache(ttl)
		}
	}
}

// WithCallSpacing overrides the minimum interval between upstream calls
func WithCallSpacing(spacing time.Duration) Option {
	return func(c *Client) {
		if spacing > 0 {
			c.limiter = NewRateLimiter(spacing)
		}
	}
}

// NewClient creates a client with default cache TTL and call spacing.
// An empty baseURL selects the production Marketstack endpoint.
func NewClient(apiKey, baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    NewRateLimiter(DefaultCallSpacing),
		cache:      NewResponseCache(DefaultCacheTTL),
		log:        logging.Component("marketdata"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// requestSpec is the upstream request shape derived from a timeframe
type requestSpec struct {
	endpoint string // "eod" or "intraday"
	interval string // intraday only
	limit    int
}

// resolveRange converts a period shorthand into an absolute date range
// ending now. Unknown periods default to 30 days.
func resolveRange(period string) (dateFrom, dateTo string, days int) {
	periodDays := map[string]int{
		"1d":  1,
		"5d":  5,
		"1mo": 30,
		"3mo": 90,
		"6mo": 180,
		"1y":  365,
		"2y":  730,
	}

	days, ok := periodDays[period]
	if !ok {
		days = 30
	}

	end := time.Now()
	start := end.AddDate(0, 0, -days)
	return start.Format("2006-01-02"), end.Format("2006-01-02"), days
}

// resolveRequest derives the upstream endpoint, interval and sample limit
// from a timeframe. The endpoint choice depends only on the timeframe:
// daily data uses the cheaper EOD endpoint, everything else is intraday.
func resolveRequest(timeframe string, days int) requestSpec {
	switch timeframe {
	case "1d":
		return requestSpec{endpoint: "eod", limit: min(days+5, maxLimit)}
	case "1h":
		return requestSpec{endpoint: "intraday", interval: "1hour", limit: min(days*24, maxLimit)}
	case "30m":
		return requestSpec{endpoint: "intraday", interval: "30min", limit: min(days*48, maxLimit)}
	case "15m":
		return requestSpec{endpoint: "intraday", interval: "15min", limit: min(days*96, maxLimit)}
	case "5m":
		return requestSpec{endpoint: "intraday", interval: "5min", limit: min(days*288, maxLimit)}
	case "1m":
		return requestSpec{endpoint: "intraday", interval: "1min", limit: maxLimit}
	default:
		return requestSpec{endpoint: "intraday", interval: "1hour", limit: maxLimit}
	}
}

// FetchBatch fetches historical data for all symbols in one upstream call.
// Symbols with no usable records are omitted from the result map.
func (c *Client) FetchBatch(ctx context.Context, symbols []string, timeframe, period string) (map[string]Series, error) {
	if len(symbols) == 0 {
		return map[string]Series{}, nil
	}

	dateFrom, dateTo, days := resolveRange(period)
	spec := resolveRequest(timeframe, days)
	fingerprint := Fingerprint(spec.endpoint, symbols, spec.interval, dateFrom, dateTo, spec.limit)

	if payload, ok := c.cache.Get(fingerprint); ok {
		c.log.Debug().Str("fingerprint", fingerprint).Msg("cache hit, no upstream call")
		return payload, nil
	}

	// Coalesce concurrent misses for the same fingerprint into one call.
	// Followers block on the leader's fetch and share its result.
	result, err, _ := c.flight.Do(fingerprint, func() (interface{}, error) {
		if payload, ok := c.cache.Get(fingerprint); ok {
			return payload, nil
		}

		if err := c.limiter.AwaitSlot(ctx); err != nil {
			return nil, err
		}

		payload, err := c.fetch(ctx, symbols, spec, dateFrom, dateTo)
		if err != nil {
			return nil, err
		}

		c.cache.Put(fingerprint, payload)
		return payload, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(map[string]Series), nil
}

// barRecord is one per-bar record of the flat upstream response
type barRecord struct {
	Symbol string   `json:"symbol"`
	Date   string   `json:"date"`
	Open   float64  `json:"open"`
	High   float64  `json:"high"`
	Low    float64  `json:"low"`
	Close  float64  `json:"close"`
	Volume *float64 `json:"volume"`
}

type batchResponse struct {
	Data []barRecord `json:"data"`
}

// fetch issues exactly one upstream call for the whole symbol batch
func (c *Client) fetch(ctx context.Context, symbols []string, spec requestSpec, dateFrom, dateTo string) (map[string]Series, error) {
	op := spec.endpoint + " batch"

	params := url.Values{}
	params.Set("access_key", c.apiKey)
	params.Set("symbols", strings.Join(symbols, ","))
	params.Set("date_from", dateFrom)
	params.Set("date_to", dateTo)
	params.Set("limit", strconv.Itoa(spec.limit))
	if spec.interval != "" {
		params.Set("interval", spec.interval)
	}

	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, spec.endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Kind: KindUpstreamProtocol, Op: op, Err: err}
	}

	c.log.Info().
		Str("endpoint", spec.endpoint).
		Int("symbols", len(symbols)).
		Int64("call", c.apiCalls.Load()+1).
		Msg("issuing upstream batch call")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, &Error{Kind: KindUpstreamTimeout, Op: op, Err: err}
		}
		return nil, &Error{Kind: KindUpstreamProtocol, Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.apiCalls.Add(1)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindUpstreamProtocol, Op: op, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &Error{Kind: KindRateLimited, Op: op, Err: fmt.Errorf("status %d: %s", resp.StatusCode, body)}
	case resp.StatusCode != http.StatusOK:
		return nil, &Error{Kind: KindUpstreamProtocol, Op: op, Err: fmt.Errorf("status %d: %s", resp.StatusCode, body)}
	}

	var parsed batchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &Error{Kind: KindUpstreamProtocol, Op: op, Err: err}
	}

	return groupBySymbol(parsed.Data), nil
}

// dateLayouts are the timestamp formats Marketstack has been observed to return
var dateLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
	"2006-01-02",
}

func parseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// groupBySymbol converts the flat record list into one date-sorted Series
// per symbol. Records with unparseable dates are dropped; symbols that end
// up with zero usable records are omitted entirely.
func groupBySymbol(records []barRecord) map[string]Series {
	grouped := make(map[string]Series)

	for _, rec := range records {
		if rec.Symbol == "" {
			continue
		}
		ts, ok := parseDate(rec.Date)
		if !ok {
			continue
		}

		var volume int64
		if rec.Volume != nil {
			volume = int64(*rec.Volume)
		}

		grouped[rec.Symbol] = append(grouped[rec.Symbol], Bar{
			Timestamp: ts,
			Open:      rec.Open,
			High:      rec.High,
			Low:       rec.Low,
			Close:     rec.Close,
			Volume:    volume,
		})
	}

	for symbol, series := range grouped {
		sort.Slice(series, func(i, j int) bool {
			return series[i].Timestamp.Before(series[j].Timestamp)
		})

		// Drop duplicate timestamps, keeping the first occurrence
		deduped := series[:0]
		for i, bar := range series {
			if i > 0 && bar.Timestamp.Equal(series[i-1].Timestamp) {
				continue
			}
			deduped = append(deduped, bar)
		}

		if len(deduped) == 0 {
			delete(grouped, symbol)
			continue
		}
		grouped[symbol] = deduped
	}

	return grouped
}

// UsageStats reports API call and cache statistics
type UsageStats struct {
	APICalls     int64   `json:"total_api_calls"`
	CacheEntries int     `json:"cache_entries"`
	CacheHits    int64   `json:"cache_hits"`
	CacheMisses  int64   `json:"cache_misses"`
	CacheHitRate float64 `json:"cache_hit_rate"`
}

// UsageStats returns current usage counters. APICalls is monotonic and
// survives cache clears.
func (c *Client) UsageStats() UsageStats {
	hits, misses, hitRate := c.cache.Stats()
	return UsageStats{
		APICalls:     c.apiCalls.Load(),
		CacheEntries: c.cache.Len(),
		CacheHits:    hits,
		CacheMisses:  misses,
		CacheHitRate: hitRate,
	}
}

// ClearCache removes all cached responses, forcing the next fetch
// upstream, and returns how many entries were removed
func (c *Client) ClearCache() int {
	removed := c.cache.Clear()
	c.log.Info().Int("entries_removed", removed).Msg("response cache cleared")
	return removed
}

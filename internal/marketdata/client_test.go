package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

const sampleBody = `{
	"data": [
		{"symbol": "MSFT", "date": "2024-01-03T00:00:00+0000", "open": 370, "high": 373, "low": 368, "close": 372, "volume": 21000000},
		{"symbol": "AAPL", "date": "2024-01-03T00:00:00+0000", "open": 184, "high": 186, "low": 183, "close": 185, "volume": 52000000},
		{"symbol": "AAPL", "date": "2024-01-02T00:00:00+0000", "open": 187, "high": 188, "low": 183, "close": 184, "volume": 58000000},
		{"symbol": "MSFT", "date": "2024-01-02T00:00:00+0000", "open": 373, "high": 375, "low": 369, "close": 370, "volume": 25000000}
	]
}`

func newTestServer(t *testing.T, calls *atomic.Int64, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

// TestFetchBatchSingleCall tests the central efficiency property: M symbols
// on a cold cache cost exactly one upstream call
func TestFetchBatchSingleCall(t *testing.T) {
	var calls atomic.Int64
	server := newTestServer(t, &calls, http.StatusOK, sampleBody)

	client := NewClient("test-key", server.URL)
	symbols := []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA"}

	result, err := client.FetchBatch(context.Background(), symbols, "1d", "1mo")
	if err != nil {
		t.Fatalf("FetchBatch failed: %v", err)
	}

	if calls.Load() != 1 {
		t.Errorf("Expected exactly 1 upstream call for %d symbols, got %d", len(symbols), calls.Load())
	}

	// Symbols with no records are omitted, not empty placeholders
	if _, ok := result["GOOGL"]; ok {
		t.Error("Symbols without records should be omitted from the result")
	}
	if len(result) != 2 {
		t.Errorf("Expected 2 symbols with data, got %d", len(result))
	}
}

// TestFetchBatchSortsSeries tests that each symbol's bars come back sorted
// ascending by date even when the upstream response interleaves them
func TestFetchBatchSortsSeries(t *testing.T) {
	var calls atomic.Int64
	server := newTestServer(t, &calls, http.StatusOK, sampleBody)

	client := NewClient("test-key", server.URL)
	result, err := client.FetchBatch(context.Background(), []string{"AAPL", "MSFT"}, "1d", "1mo")
	if err != nil {
		t.Fatalf("FetchBatch failed: %v", err)
	}

	aapl := result["AAPL"]
	if len(aapl) != 2 {
		t.Fatalf("Expected 2 AAPL bars, got %d", len(aapl))
	}
	if !aapl[0].Timestamp.Before(aapl[1].Timestamp) {
		t.Error("Bars should be sorted ascending by timestamp")
	}
	if aapl[0].Close != 184 || aapl[1].Close != 185 {
		t.Errorf("Unexpected close ordering: %f, %f", aapl[0].Close, aapl[1].Close)
	}
}

// TestFetchBatchCacheHit tests that a repeated request, even with the
// symbols reordered, is served from cache without an upstream call
func TestFetchBatchCacheHit(t *testing.T) {
	var calls atomic.Int64
	server := newTestServer(t, &calls, http.StatusOK, sampleBody)

	client := NewClient("test-key", server.URL)

	if _, err := client.FetchBatch(context.Background(), []string{"AAPL", "MSFT"}, "1d", "1mo"); err != nil {
		t.Fatalf("First FetchBatch failed: %v", err)
	}
	if _, err := client.FetchBatch(context.Background(), []string{"MSFT", "AAPL"}, "1d", "1mo"); err != nil {
		t.Fatalf("Second FetchBatch failed: %v", err)
	}

	if calls.Load() != 1 {
		t.Errorf("Reordered batch should hit the cache, got %d upstream calls", calls.Load())
	}

	stats := client.UsageStats()
	if stats.APICalls != 1 {
		t.Errorf("Expected 1 recorded API call, got %d", stats.APICalls)
	}
	if stats.CacheHits != 1 {
		t.Errorf("Expected 1 cache hit, got %d", stats.CacheHits)
	}
}

// TestFetchBatchCoalescing tests that concurrent cold fetches for the same
// fingerprint collapse into one upstream call
func TestFetchBatchCoalescing(t *testing.T) {
	var calls atomic.Int64
	server := newTestServer(t, &calls, http.StatusOK, sampleBody)

	client := NewClient("test-key", server.URL)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.FetchBatch(context.Background(), []string{"AAPL", "MSFT"}, "1d", "1mo"); err != nil {
				t.Errorf("FetchBatch failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("Concurrent identical fetches should coalesce to 1 call, got %d", calls.Load())
	}
}

// TestFetchBatchRateLimited tests classification of a 429 response
func TestFetchBatchRateLimited(t *testing.T) {
	var calls atomic.Int64
	server := newTestServer(t, &calls, http.StatusTooManyRequests, `{"error": "rate limit"}`)

	client := NewClient("test-key", server.URL)
	_, err := client.FetchBatch(context.Background(), []string{"AAPL"}, "1d", "1mo")
	if err == nil {
		t.Fatal("Expected an error from a 429 response")
	}
	if KindOf(err) != KindRateLimited {
		t.Errorf("Expected KindRateLimited, got %v", KindOf(err))
	}
}

// TestFetchBatchProtocolError tests classification of non-success statuses
// and unparseable payloads
func TestFetchBatchProtocolError(t *testing.T) {
	var calls atomic.Int64
	server := newTestServer(t, &calls, http.StatusInternalServerError, "boom")

	client := NewClient("test-key", server.URL)
	_, err := client.FetchBatch(context.Background(), []string{"AAPL"}, "1d", "1mo")
	if KindOf(err) != KindUpstreamProtocol {
		t.Errorf("Expected KindUpstreamProtocol for a 500, got %v", KindOf(err))
	}

	var calls2 atomic.Int64
	badJSON := newTestServer(t, &calls2, http.StatusOK, "{not json")
	client2 := NewClient("test-key", badJSON.URL)
	_, err = client2.FetchBatch(context.Background(), []string{"AAPL"}, "1d", "1mo")
	if KindOf(err) != KindUpstreamProtocol {
		t.Errorf("Expected KindUpstreamProtocol for bad JSON, got %v", KindOf(err))
	}
}

// TestFetchBatchIntradayEndpoint tests that the endpoint is chosen purely
// from the timeframe
func TestFetchBatchIntradayEndpoint(t *testing.T) {
	var path string
	var interval string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		interval = r.URL.Query().Get("interval")
		fmt.Fprint(w, `{"data": []}`)
	}))
	t.Cleanup(server.Close)

	client := NewClient("test-key", server.URL)
	if _, err := client.FetchBatch(context.Background(), []string{"AAPL"}, "1h", "1d"); err != nil {
		t.Fatalf("FetchBatch failed: %v", err)
	}

	if path != "/intraday" {
		t.Errorf("Expected the intraday endpoint for 1h, got %s", path)
	}
	if interval != "1hour" {
		t.Errorf("Expected interval 1hour, got %q", interval)
	}
}

// TestResolveRequestLimits tests the limit derivation table
func TestResolveRequestLimits(t *testing.T) {
	cases := []struct {
		timeframe string
		days      int
		endpoint  string
		limit     int
	}{
		{"1d", 30, "eod", 35},
		{"1d", 730, "eod", 735},
		{"1d", 2000, "eod", 1000},
		{"1h", 5, "intraday", 120},
		{"30m", 5, "intraday", 240},
		{"15m", 5, "intraday", 480},
		{"5m", 5, "intraday", 1000},
		{"1m", 5, "intraday", 1000},
		{"weird", 5, "intraday", 1000},
	}

	for _, tc := range cases {
		spec := resolveRequest(tc.timeframe, tc.days)
		if spec.endpoint != tc.endpoint {
			t.Errorf("%s: expected endpoint %s, got %s", tc.timeframe, tc.endpoint, spec.endpoint)
		}
		if spec.limit != tc.limit {
			t.Errorf("%s/%dd: expected limit %d, got %d", tc.timeframe, tc.days, tc.limit, spec.limit)
		}
	}
}

// TestResolveRangeDefault tests the unknown-period fallback
func TestResolveRangeDefault(t *testing.T) {
	_, _, days := resolveRange("6w")
	if days != 30 {
		t.Errorf("Unknown period should default to 30 days, got %d", days)
	}
	_, _, days = resolveRange("2y")
	if days != 730 {
		t.Errorf("Expected 730 days for 2y, got %d", days)
	}
}

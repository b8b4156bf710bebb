package scanner

import (
	"time"

	"pattern-scanner/internal/patterns"
)

// Match is one symbol that exhibited the requested pattern
type Match struct {
	Symbol         string  `json:"ticker"`
	Pattern        string  `json:"pattern"`
	Confidence     float64 `json:"confidence"`
	Price          float64 `json:"current_price"`
	PriceChangePct float64 `json:"price_change"`
	Volume         int64   `json:"volume"`
}

// SymbolError records a per-symbol failure that did not abort the scan
type SymbolError struct {
	Symbol  string `json:"symbol"`
	Message string `json:"message"`
}

// ScanResult aggregates the outcome of one scan cycle
type ScanResult struct {
	ScanID       string        `json:"scan_id"`
	Pattern      patterns.Kind `json:"pattern"`
	Timeframe    string        `json:"timeframe"`
	Period       string        `json:"period"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	TotalScanned int           `json:"total_scanned"`
	TotalMatches int           `json:"total_matches"`
	Matches      []Match       `json:"matches"`
	Errors       []SymbolError `json:"errors,omitempty"`
}

// ChartPoint is one bar with moving-average overlays. Overlay values are
// nil until enough history has accumulated behind the bar.
type ChartPoint struct {
	Timestamp  time.Time `json:"timestamp"`
	Open       float64   `json:"open"`
	High       float64   `json:"high"`
	Low        float64   `json:"low"`
	Close      float64   `json:"close"`
	Volume     int64     `json:"volume"`
	SMA20      *float64  `json:"sma20,omitempty"`
	SMA50      *float64  `json:"sma50,omitempty"`
	VolumeMA20 *float64  `json:"volume_ma20,omitempty"`
}

// SymbolSummary is a one-year price summary for a single symbol
type SymbolSummary struct {
	Symbol         string  `json:"ticker"`
	CurrentPrice   float64 `json:"current_price"`
	PriceChangePct float64 `json:"price_change"`
	YearHigh       float64 `json:"52_week_high"`
	YearLow        float64 `json:"52_week_low"`
	AvgVolume      int64   `json:"avg_volume"`
}

// Config holds scanner tuning
type Config struct {
	WorkerCount  int
	StreamBuffer int
}

// DefaultConfig returns the scanner defaults used when config omits them
func DefaultConfig() Config {
	return Config{
		WorkerCount:  8,
		StreamBuffer: 64,
	}
}

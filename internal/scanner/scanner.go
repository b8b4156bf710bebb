package scanner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pattern-scanner/internal/events"
	"pattern-scanner/internal/logging"
	"pattern-scanner/internal/marketdata"
	"pattern-scanner/internal/patterns"
)

const (
	chartFastWindow   = 20
	chartSlowWindow   = 50
	chartVolumeWindow = 20
)

// MarketData is the slice of the market data client the scanner needs
type MarketData interface {
	FetchBatch(ctx context.Context, symbols []string, timeframe, period string) (map[string]marketdata.Series, error)
}

// Scanner runs one pattern classifier across a symbol universe
type Scanner struct {
	client   MarketData
	detector *patterns.Detector
	bus      *events.EventBus
	config   Config
	log      zerolog.Logger

	mu         sync.RWMutex
	lastResult *ScanResult
}

// NewScanner creates a scanner. A nil bus disables event publication.
func NewScanner(client MarketData, detector *patterns.Detector, bus *events.EventBus, config Config) *Scanner {
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultConfig().WorkerCount
	}
	if config.StreamBuffer <= 0 {
		config.StreamBuffer = DefaultConfig().StreamBuffer
	}
	return &Scanner{
		client:   client,
		detector: detector,
		bus:      bus,
		config:   config,
		log:      logging.Component("scanner"),
	}
}

// Scan fetches the universe in one batch and classifies every symbol,
// returning matches sorted by confidence (ties break on symbol)
func (sc *Scanner) Scan(ctx context.Context, symbols []string, pattern patterns.Kind, timeframe, period string) (*ScanResult, error) {
	if !patterns.Valid(pattern) {
		return nil, fmt.Errorf("unknown pattern %q", pattern)
	}

	startTime := time.Now()
	scanID := uuid.NewString()

	sc.log.Info().
		Str("scan_id", scanID).
		Str("pattern", string(pattern)).
		Int("symbols", len(symbols)).
		Msg("starting scan")

	data, err := sc.client.FetchBatch(ctx, symbols, timeframe, period)
	if err != nil {
		return nil, fmt.Errorf("fetch batch: %w", err)
	}

	matches, symbolErrors := sc.classifyAll(ctx, scanID, symbols, pattern, data, nil)

	sortMatches(matches)

	result := &ScanResult{
		ScanID:       scanID,
		Pattern:      pattern,
		Timeframe:    timeframe,
		Period:       period,
		StartedAt:    startTime,
		Duration:     time.Since(startTime),
		TotalScanned: len(symbols),
		TotalMatches: len(matches),
		Matches:      matches,
		Errors:       symbolErrors,
	}

	sc.mu.Lock()
	sc.lastResult = result
	sc.mu.Unlock()

	if sc.bus != nil {
		sc.bus.PublishScanComplete(scanID, len(matches), len(symbols), result.Duration)
	}

	sc.log.Info().
		Str("scan_id", scanID).
		Int("matches", len(matches)).
		Dur("duration", result.Duration).
		Msg("scan completed")

	return result, nil
}

// ScanStream runs a scan while emitting progress events on the returned
// channel. The channel closes after the COMPLETE event; cancelling the
// context stops dispatching further symbols.
func (sc *Scanner) ScanStream(ctx context.Context, symbols []string, pattern patterns.Kind, timeframe, period string) (<-chan events.Event, error) {
	if !patterns.Valid(pattern) {
		return nil, fmt.Errorf("unknown pattern %q", pattern)
	}

	out := make(chan events.Event, sc.config.StreamBuffer)

	go func() {
		defer close(out)

		startTime := time.Now()
		scanID := uuid.NewString()

		emit := func(event events.Event) {
			if event.Timestamp.IsZero() {
				event.Timestamp = time.Now()
			}
			event.ScanID = scanID
			select {
			case out <- event:
			case <-ctx.Done():
			}
		}

		emit(events.Event{
			Type: events.EventScanStatus,
			Data: map[string]interface{}{
				"pattern": string(pattern),
				"total":   len(symbols),
			},
		})

		data, err := sc.client.FetchBatch(ctx, symbols, timeframe, period)
		if err != nil {
			emit(events.Event{
				Type: events.EventScanError,
				Data: map[string]interface{}{"message": err.Error()},
			})
			return
		}

		matches, _ := sc.classifyAll(ctx, scanID, symbols, pattern, data, emit)
		sortMatches(matches)

		emit(events.Event{
			Type: events.EventScanComplete,
			Data: map[string]interface{}{
				"matches":     matches,
				"scanned":     len(symbols),
				"duration_ms": time.Since(startTime).Milliseconds(),
			},
		})
	}()

	return out, nil
}

// classifyAll fans symbols out to the worker pool. The optional emit
// callback receives SCANNING/MATCH/ERROR progress events.
func (sc *Scanner) classifyAll(
	ctx context.Context,
	scanID string,
	symbols []string,
	pattern patterns.Kind,
	data map[string]marketdata.Series,
	emit func(events.Event),
) ([]Match, []SymbolError) {
	symbolChan := make(chan string, len(symbols))
	matchChan := make(chan Match, len(symbols))
	errorChan := make(chan SymbolError, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < sc.config.WorkerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range symbolChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				if emit != nil {
					emit(events.Event{
						Type: events.EventScanScanning,
						Data: map[string]interface{}{"symbol": symbol},
					})
				}

				series, ok := data[symbol]
				if !ok || len(series) == 0 {
					errorChan <- SymbolError{Symbol: symbol, Message: "no data returned"}
					if emit != nil {
						emit(events.Event{
							Type: events.EventScanError,
							Data: map[string]interface{}{"symbol": symbol, "message": "no data returned"},
						})
					}
					continue
				}

				match := sc.evaluate(pattern, symbol, series)
				if match == nil {
					continue
				}
				matchChan <- *match
				if sc.bus != nil {
					sc.bus.PublishScanMatch(scanID, symbol, string(pattern), match.Confidence, match.Price)
				}
				if emit != nil {
					emit(events.Event{
						Type: events.EventScanMatch,
						Data: map[string]interface{}{
							"symbol":     symbol,
							"pattern":    string(pattern),
							"confidence": match.Confidence,
							"price":      match.Price,
						},
					})
				}
			}
		}()
	}

	for _, symbol := range symbols {
		symbolChan <- symbol
	}
	close(symbolChan)

	wg.Wait()
	close(matchChan)
	close(errorChan)

	matches := make([]Match, 0, len(matchChan))
	for match := range matchChan {
		matches = append(matches, match)
	}
	symbolErrors := make([]SymbolError, 0, len(errorChan))
	for symbolError := range errorChan {
		symbolErrors = append(symbolErrors, symbolError)
	}
	return matches, symbolErrors
}

// evaluate runs the classifier over one symbol's series
func (sc *Scanner) evaluate(pattern patterns.Kind, symbol string, series marketdata.Series) *Match {
	result := sc.detector.Detect(pattern, series)
	if !result.Found {
		return nil
	}

	last := series[len(series)-1]
	match := &Match{
		Symbol:     symbol,
		Pattern:    string(pattern),
		Confidence: result.Confidence,
		Price:      last.Close,
		Volume:     last.Volume,
	}
	if len(series) >= 2 {
		prev := series[len(series)-2].Close
		if prev != 0 {
			match.PriceChangePct = (last.Close - prev) / prev * 100
		}
	}
	return match
}

// ChartSeries returns one symbol's bars with SMA20/SMA50 and 20-bar
// volume average overlays
func (sc *Scanner) ChartSeries(ctx context.Context, symbol, timeframe, period string) ([]ChartPoint, error) {
	data, err := sc.client.FetchBatch(ctx, []string{symbol}, timeframe, period)
	if err != nil {
		return nil, err
	}

	series, ok := data[symbol]
	if !ok || len(series) == 0 {
		return nil, &marketdata.Error{
			Kind: marketdata.KindSymbolNotFound,
			Op:   "chart",
			Err:  fmt.Errorf("no data for symbol %s", symbol),
		}
	}

	closes := series.Closes()
	points := make([]ChartPoint, len(series))
	for i, bar := range series {
		points[i] = ChartPoint{
			Timestamp: bar.Timestamp,
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    bar.Volume,
		}
		if i >= chartFastWindow-1 {
			v := meanOf(closes[i-chartFastWindow+1 : i+1])
			points[i].SMA20 = &v
		}
		if i >= chartSlowWindow-1 {
			v := meanOf(closes[i-chartSlowWindow+1 : i+1])
			points[i].SMA50 = &v
		}
		if i >= chartVolumeWindow-1 {
			var sum float64
			for _, b := range series[i-chartVolumeWindow+1 : i+1] {
				sum += float64(b.Volume)
			}
			v := sum / float64(chartVolumeWindow)
			points[i].VolumeMA20 = &v
		}
	}
	return points, nil
}

// SymbolSummary derives a one-year price summary for a symbol
func (sc *Scanner) SymbolSummary(ctx context.Context, symbol string) (*SymbolSummary, error) {
	data, err := sc.client.FetchBatch(ctx, []string{symbol}, "1d", "1y")
	if err != nil {
		return nil, err
	}

	series, ok := data[symbol]
	if !ok || len(series) == 0 {
		return nil, &marketdata.Error{
			Kind: marketdata.KindSymbolNotFound,
			Op:   "summary",
			Err:  fmt.Errorf("no data for symbol %s", symbol),
		}
	}

	last := series[len(series)-1]
	summary := &SymbolSummary{
		Symbol:       symbol,
		CurrentPrice: last.Close,
		YearHigh:     last.High,
		YearLow:      last.Low,
	}

	var volumeSum float64
	for _, bar := range series {
		if bar.High > summary.YearHigh {
			summary.YearHigh = bar.High
		}
		if bar.Low < summary.YearLow {
			summary.YearLow = bar.Low
		}
		volumeSum += float64(bar.Volume)
	}
	summary.AvgVolume = int64(volumeSum / float64(len(series)))

	if len(series) >= 2 {
		prev := series[len(series)-2].Close
		if prev != 0 {
			summary.PriceChangePct = (last.Close - prev) / prev * 100
		}
	}
	return summary, nil
}

// GetLastResult returns the most recent scan result
func (sc *Scanner) GetLastResult() *ScanResult {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.lastResult
}

// sortMatches orders by confidence descending, then symbol ascending
func sortMatches(matches []Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return matches[i].Symbol < matches[j].Symbol
	})
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

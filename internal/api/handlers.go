package api

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"pattern-scanner/internal/marketdata"
	"pattern-scanner/internal/patterns"
)

// matchView is the wire shape of one scan match, with rounded numerics
type matchView struct {
	Ticker       string  `json:"ticker"`
	Confidence   float64 `json:"confidence"`
	CurrentPrice float64 `json:"current_price"`
	PriceChange  float64 `json:"price_change"`
	Volume       int64   `json:"volume"`
}

// handlePatterns lists the supported pattern kinds
func (s *Server) handlePatterns(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"patterns": patterns.Kinds()})
}

// handleTickers lists the scan universe
func (s *Server) handleTickers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tickers": s.universe.Tickers()})
}

// handleScan runs a blocking scan across the universe
func (s *Server) handleScan(c *gin.Context) {
	pattern := c.Query("pattern")
	if pattern == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pattern parameter is required"})
		return
	}
	if !patterns.Valid(patterns.Kind(pattern)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown pattern: " + pattern})
		return
	}
	timeframe := c.DefaultQuery("timeframe", "1d")
	period := c.DefaultQuery("period", "1mo")

	result, err := s.scanner.Scan(c.Request.Context(), s.universe.Tickers(), patterns.Kind(pattern), timeframe, period)
	if err != nil {
		s.respondUpstreamError(c, err)
		return
	}

	matches := make([]matchView, len(result.Matches))
	for i, m := range result.Matches {
		matches[i] = matchView{
			Ticker:       m.Symbol,
			Confidence:   round2(m.Confidence),
			CurrentPrice: round2(m.Price),
			PriceChange:  round2(m.PriceChangePct),
			Volume:       m.Volume,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"scan_id":       result.ScanID,
		"pattern":       result.Pattern,
		"timeframe":     result.Timeframe,
		"period":        result.Period,
		"matches":       matches,
		"errors":        result.Errors,
		"total_scanned": result.TotalScanned,
		"total_matches": result.TotalMatches,
		"duration_ms":   result.Duration.Milliseconds(),
	})
}

// handleChart returns one symbol's bars with moving-average overlays
func (s *Server) handleChart(c *gin.Context) {
	symbol := c.Param("symbol")
	timeframe := c.DefaultQuery("timeframe", "1d")
	period := c.DefaultQuery("period", "1mo")

	points, err := s.scanner.ChartSeries(c.Request.Context(), symbol, timeframe, period)
	if err != nil {
		if marketdata.KindOf(err) == marketdata.KindSymbolNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "no data found for " + symbol})
			return
		}
		s.respondUpstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":    symbol,
		"timeframe": timeframe,
		"period":    period,
		"points":    points,
	})
}

// handleStock returns a one-year price summary for a symbol
func (s *Server) handleStock(c *gin.Context) {
	symbol := c.Param("symbol")

	summary, err := s.scanner.SymbolSummary(c.Request.Context(), symbol)
	if err != nil {
		if marketdata.KindOf(err) == marketdata.KindSymbolNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "no data found for " + symbol})
			return
		}
		s.respondUpstreamError(c, err)
		return
	}

	summary.CurrentPrice = round2(summary.CurrentPrice)
	summary.PriceChangePct = round2(summary.PriceChangePct)
	summary.YearHigh = round2(summary.YearHigh)
	summary.YearLow = round2(summary.YearLow)
	c.JSON(http.StatusOK, summary)
}

// handleStats reports upstream usage and cache statistics
func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.client.UsageStats())
}

// handleCacheClear empties the response cache
func (s *Server) handleCacheClear(c *gin.Context) {
	removed := s.client.ClearCache()
	if s.eventBus != nil {
		s.eventBus.PublishCacheCleared(removed)
	}
	c.JSON(http.StatusOK, gin.H{"entries_removed": removed})
}

// respondUpstreamError maps market data error kinds onto HTTP statuses
func (s *Server) respondUpstreamError(c *gin.Context, err error) {
	var mdErr *marketdata.Error
	if errors.As(err, &mdErr) {
		switch mdErr.Kind {
		case marketdata.KindRateLimited:
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "upstream rate limit exceeded"})
			return
		case marketdata.KindUpstreamTimeout:
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "upstream request timed out"})
			return
		case marketdata.KindUpstreamProtocol:
			c.JSON(http.StatusBadGateway, gin.H{"error": "upstream returned an invalid response"})
			return
		}
	}
	s.log.Error().Err(err).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package universe

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"pattern-scanner/internal/logging"
)

// defaultTickers is a NASDAQ-100 sample list used when no override is
// configured
var defaultTickers = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "TSLA", "AVGO", "COST", "NFLX",
	"ASML", "AMD", "PEP", "ADBE", "CSCO", "CMCSA", "TMUS", "INTC", "TXN", "QCOM",
	"INTU", "AMAT", "HON", "AMGN", "BKNG", "ADP", "SBUX", "GILD", "ISRG", "REGN",
	"VRTX", "ADI", "MU", "LRCX", "PANW", "KLAC", "MDLZ", "SNPS", "CDNS", "MELI",
	"PYPL", "MAR", "CSX", "ORLY", "CRWD", "ABNB", "FTNT", "MNST", "DASH", "WDAY",
}

// Config selects where the symbol universe comes from. File wins over
// URL; with neither set the built-in list is used.
type Config struct {
	File string `json:"file"`
	URL  string `json:"url"`
}

// Universe is an immutable list of symbols to scan
type Universe struct {
	tickers []string
	log     zerolog.Logger
}

// Load builds the universe from config, falling back to the built-in
// list when an override cannot be loaded
func Load(cfg Config) *Universe {
	u := &Universe{log: logging.Component("universe")}

	switch {
	case cfg.File != "":
		tickers, err := loadFile(cfg.File)
		if err != nil {
			u.log.Warn().Err(err).Str("file", cfg.File).Msg("falling back to built-in universe")
			break
		}
		u.tickers = tickers
	case cfg.URL != "":
		tickers, err := loadURL(cfg.URL)
		if err != nil {
			u.log.Warn().Err(err).Str("url", cfg.URL).Msg("falling back to built-in universe")
			break
		}
		u.tickers = tickers
	}

	if len(u.tickers) == 0 {
		u.tickers = defaultTickers
	}
	u.log.Info().Int("tickers", len(u.tickers)).Msg("universe loaded")
	return u
}

// Tickers returns a copy of the symbol list
func (u *Universe) Tickers() []string {
	out := make([]string, len(u.tickers))
	copy(out, u.tickers)
	return out
}

// Size returns the number of symbols in the universe
func (u *Universe) Size() int {
	return len(u.tickers)
}

func loadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}
	return parseTickers(data)
}

func loadURL(url string) ([]string, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch universe: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch universe: status %d", resp.StatusCode)
	}

	var tickers []string
	if err := json.NewDecoder(resp.Body).Decode(&tickers); err != nil {
		return nil, fmt.Errorf("decode universe: %w", err)
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("universe is empty")
	}
	return tickers, nil
}

func parseTickers(data []byte) ([]string, error) {
	var tickers []string
	if err := json.Unmarshal(data, &tickers); err != nil {
		return nil, fmt.Errorf("parse universe: %w", err)
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("universe is empty")
	}
	return tickers, nil
}

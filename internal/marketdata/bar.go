package marketdata

import "time"

// Bar represents one OHLCV sample for a symbol
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// Series is a time-ordered sequence of bars for one symbol.
// Bars are strictly increasing by timestamp. The series is read-only
// once handed out: cache hits return the same backing slice to every
// caller, so consumers must never mutate it.
type Series []Bar

// Closes returns the close prices of the series in order
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, b := range s {
		closes[i] = b.Close
	}
	return closes
}

// Volumes returns the volumes of the series in order
func (s Series) Volumes() []int64 {
	volumes := make([]int64, len(s))
	for i, b := range s {
		volumes[i] = b.Volume
	}
	return volumes
}

// Last returns the most recent bar
func (s Series) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

// Tail returns the last n bars (the whole series if it is shorter)
func (s Series) Tail(n int) Series {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

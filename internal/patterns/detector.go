package patterns

import (
	"pattern-scanner/internal/marketdata"
)

// Kind identifies a chart pattern
type Kind string

const (
	BullFlag           Kind = "bull_flag"
	BearFlag           Kind = "bear_flag"
	HeadShoulders      Kind = "head_shoulders"
	DoubleTop          Kind = "double_top"
	DoubleBottom       Kind = "double_bottom"
	GapUp              Kind = "gap_up"
	GapDown            Kind = "gap_down"
	VolumeSpike        Kind = "volume_spike"
	MACrossoverBullish Kind = "ma_crossover_bullish"
	MACrossoverBearish Kind = "ma_crossover_bearish"
)

// Descriptor pairs a pattern kind with its display name
type Descriptor struct {
	ID   Kind   `json:"id"`
	Name string `json:"name"`
}

// Kinds returns descriptors for every supported pattern, in display order
func Kinds() []Descriptor {
	return []Descriptor{
		{BullFlag, "Bull Flag"},
		{BearFlag, "Bear Flag"},
		{HeadShoulders, "Head and Shoulders"},
		{DoubleTop, "Double Top"},
		{DoubleBottom, "Double Bottom"},
		{GapUp, "Gap Up"},
		{GapDown, "Gap Down"},
		{VolumeSpike, "Volume Spike"},
		{MACrossoverBullish, "MA Crossover (Bullish)"},
		{MACrossoverBearish, "MA Crossover (Bearish)"},
	}
}

// Valid reports whether kind names a supported pattern
func Valid(kind Kind) bool {
	for _, d := range Kinds() {
		if d.ID == kind {
			return true
		}
	}
	return false
}

// Result is the outcome of one classifier over one series
type Result struct {
	Found      bool
	Confidence float64 // 0.0 to 1.0
}

// Detector classifies price/volume series into chart patterns. Each
// classifier is pure: it never mutates the series and never fails on
// short history, reporting found=false instead.
type Detector struct {
	minConfidence float64
}

// NewDetector creates a detector with the 0.5 acceptance cutoff shared
// by all classifiers
func NewDetector() *Detector {
	return &Detector{minConfidence: 0.5}
}

// Detect runs the classifier for kind against the series. Unknown kinds
// report no match.
func (d *Detector) Detect(kind Kind, series marketdata.Series) Result {
	switch kind {
	case BullFlag:
		return d.detectBullFlag(series)
	case BearFlag:
		return d.detectBearFlag(series)
	case HeadShoulders:
		return d.detectHeadShoulders(series)
	case DoubleTop:
		return d.detectDoubleTop(series)
	case DoubleBottom:
		return d.detectDoubleBottom(series)
	case GapUp:
		return d.detectGapUp(series)
	case GapDown:
		return d.detectGapDown(series)
	case VolumeSpike:
		return d.detectVolumeSpike(series)
	case MACrossoverBullish:
		return d.detectMACrossover(series, true)
	case MACrossoverBearish:
		return d.detectMACrossover(series, false)
	default:
		return Result{}
	}
}

// accept applies the shared confidence cutoff
func (d *Detector) accept(confidence float64) Result {
	confidence = clamp01(confidence)
	return Result{
		Found:      confidence > d.minConfidence,
		Confidence: confidence,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func minMax(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return
}

package patterns

import "pattern-scanner/internal/marketdata"

// Reversal patterns built on local extrema of the closing prices.

const (
	peakSeparation = 5 // minimum bars between extrema

	hsWindow     = 40
	doubleWindow = 30
)

// detectHeadShoulders looks for three peaks in the last 40 closes where
// the middle peak (the head) tops both shoulders, the shoulders are within
// 10% of each other, and the price relative to the neckline (mean of the
// two intervening troughs) confirms the breakdown
func (d *Detector) detectHeadShoulders(series marketdata.Series) Result {
	if len(series) < hsWindow {
		return Result{}
	}

	closes := series.Tail(hsWindow).Closes()

	peaks := FindPeaks(closes, peakSeparation)
	if len(peaks) < 3 {
		return Result{}
	}

	last3 := peaks[len(peaks)-3:]
	left, head, right := closes[last3[0]], closes[last3[1]], closes[last3[2]]

	if head <= left || head <= right {
		return Result{}
	}
	if left == 0 || head == 0 {
		return Result{}
	}

	shoulderDiff := abs(left-right) / left
	if shoulderDiff > 0.10 {
		return Result{}
	}

	// Neckline: mean of the lowest closes between adjacent peaks
	troughs := make([]float64, 0, 2)
	for i := 0; i < 2; i++ {
		segment := closes[last3[i]:last3[i+1]]
		lo, _ := minMax(segment)
		troughs = append(troughs, lo)
	}
	neckline := mean(troughs)

	current := closes[len(closes)-1]
	breakdown := 0.5
	if current < neckline {
		breakdown = 1.0
	}

	headProminence := (head - (left+right)/2) / head

	confidence := 0.4*(1-shoulderDiff/0.10) +
		0.3*min(1.0, headProminence/0.05) +
		0.3*breakdown

	return d.accept(confidence)
}

// detectDoubleTop looks for two peaks within 3% of each other, a trough at
// least 2% below them, and a pullback from the second peak
func (d *Detector) detectDoubleTop(series marketdata.Series) Result {
	if len(series) < doubleWindow {
		return Result{}
	}

	closes := series.Tail(doubleWindow).Closes()

	peaks := FindPeaks(closes, peakSeparation)
	if len(peaks) < 2 {
		return Result{}
	}

	last2 := peaks[len(peaks)-2:]
	first, second := closes[last2[0]], closes[last2[1]]
	if first == 0 || second == 0 {
		return Result{}
	}

	peakDiff := abs(first-second) / first
	if peakDiff > 0.03 {
		return Result{}
	}

	segment := closes[last2[0]:last2[1]]
	trough, _ := minMax(segment)
	higher := max(first, second)
	troughDepth := (higher - trough) / higher
	if troughDepth < 0.02 {
		return Result{}
	}

	current := closes[len(closes)-1]
	pullback := (second - current) / second

	confidence := 0.4*(1-peakDiff/0.03) +
		0.3*min(1.0, troughDepth/0.05) +
		0.3*min(1.0, pullback/0.05)

	return d.accept(confidence)
}

// detectDoubleBottom is the mirror of detectDoubleTop using troughs
func (d *Detector) detectDoubleBottom(series marketdata.Series) Result {
	if len(series) < doubleWindow {
		return Result{}
	}

	closes := series.Tail(doubleWindow).Closes()

	troughs := FindTroughs(closes, peakSeparation)
	if len(troughs) < 2 {
		return Result{}
	}

	last2 := troughs[len(troughs)-2:]
	first, second := closes[last2[0]], closes[last2[1]]
	if first == 0 || second == 0 {
		return Result{}
	}

	troughDiff := abs(first-second) / first
	if troughDiff > 0.03 {
		return Result{}
	}

	segment := closes[last2[0]:last2[1]]
	_, peak := minMax(segment)
	lower := min(first, second)
	peakHeight := (peak - lower) / lower
	if peakHeight < 0.02 {
		return Result{}
	}

	current := closes[len(closes)-1]
	recovery := (current - second) / second

	confidence := 0.4*(1-troughDiff/0.03) +
		0.3*min(1.0, peakHeight/0.05) +
		0.3*min(1.0, recovery/0.05)

	return d.accept(confidence)
}

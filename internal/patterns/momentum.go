package patterns

import "pattern-scanner/internal/marketdata"

// Gap, volume and moving-average classifiers.

const (
	gapMin   = 0.02 // minimum gap size
	gapScale = 0.10 // gap size that earns full confidence

	volumeWindow = 20
	volumeRatio  = 2.0

	fastWindow = 20
	slowWindow = 50
)

// detectGapUp fires when today's low opens clear above yesterday's high
// by at least 2%
func (d *Detector) detectGapUp(series marketdata.Series) Result {
	if len(series) < 2 {
		return Result{}
	}

	yesterdayHigh := series[len(series)-2].High
	todayLow := series[len(series)-1].Low
	if yesterdayHigh <= 0 || todayLow <= yesterdayHigh {
		return Result{}
	}

	gap := (todayLow - yesterdayHigh) / yesterdayHigh
	if gap < gapMin {
		return Result{}
	}

	return d.accept(0.5 + gap/gapScale)
}

// detectGapDown fires when today's high stays clear below yesterday's low
// by at least 2%
func (d *Detector) detectGapDown(series marketdata.Series) Result {
	if len(series) < 2 {
		return Result{}
	}

	yesterdayLow := series[len(series)-2].Low
	todayHigh := series[len(series)-1].High
	if yesterdayLow <= 0 || todayHigh >= yesterdayLow {
		return Result{}
	}

	gap := (yesterdayLow - todayHigh) / yesterdayLow
	if gap < gapMin {
		return Result{}
	}

	return d.accept(0.5 + gap/gapScale)
}

// detectVolumeSpike fires when the last volume is at least twice the mean
// of the prior 20 volumes
func (d *Detector) detectVolumeSpike(series marketdata.Series) Result {
	if len(series) < volumeWindow+1 {
		return Result{}
	}

	volumes := series.Volumes()
	current := float64(volumes[len(volumes)-1])

	var sum float64
	for _, v := range volumes[len(volumes)-1-volumeWindow : len(volumes)-1] {
		sum += float64(v)
	}
	avg := sum / volumeWindow
	if avg == 0 {
		return Result{}
	}

	ratio := current / avg
	if ratio < volumeRatio {
		return Result{}
	}

	return d.accept(0.4 + ratio/10)
}

// detectMACrossover fires when the 20-period SMA crosses the 50-period SMA
// between the previous and current bar. Averages are computed over the full
// supplied series, not a truncated tail.
func (d *Detector) detectMACrossover(series marketdata.Series, bullish bool) Result {
	if len(series) < slowWindow+1 {
		return Result{}
	}

	closes := series.Closes()
	n := len(closes)

	fastCur := mean(closes[n-fastWindow:])
	fastPrev := mean(closes[n-1-fastWindow : n-1])
	slowCur := mean(closes[n-slowWindow:])
	slowPrev := mean(closes[n-1-slowWindow : n-1])

	if slowCur == 0 {
		return Result{}
	}

	if bullish {
		if fastPrev <= slowPrev && fastCur > slowCur {
			separation := (fastCur - slowCur) / slowCur
			return d.accept(0.6 + separation/0.02)
		}
	} else {
		if fastPrev >= slowPrev && fastCur < slowCur {
			separation := (slowCur - fastCur) / slowCur
			return d.accept(0.6 + separation/0.02)
		}
	}

	return Result{}
}

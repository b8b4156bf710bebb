package patterns

import "pattern-scanner/internal/marketdata"

// Flag patterns: a sharp directional move (the flagpole) followed by a
// tight consolidation (the flag), with the current price positioned to
// continue the move.

const (
	flagWindow     = 30
	flagHalf       = 15
	flagpoleMin    = 0.05 // minimum flagpole move
	flagpoleScale  = 0.15 // flagpole gain that earns full credit
	flagDriftLimit = 0.05 // consolidation tightness denominator
)

// detectBullFlag looks for a >=5% rise over the first 15 of the last 30
// closes followed by a consolidation drifting between -5% and +2%
func (d *Detector) detectBullFlag(series marketdata.Series) Result {
	if len(series) < flagWindow {
		return Result{}
	}

	closes := series.Tail(flagWindow).Closes()

	pole := closes[:flagHalf]
	if pole[0] == 0 {
		return Result{}
	}
	gain := (pole[flagHalf-1] - pole[0]) / pole[0]
	if gain < flagpoleMin {
		return Result{}
	}

	flag := closes[flagHalf:]
	if flag[0] == 0 {
		return Result{}
	}
	drift := (flag[len(flag)-1] - flag[0]) / flag[0]
	if drift < -0.05 || drift > 0.02 {
		return Result{}
	}

	lo, hi := minMax(flag)
	span := hi - lo
	if span == 0 {
		return Result{}
	}
	positionInRange := (closes[len(closes)-1] - lo) / span

	confidence := 0.3*min(1.0, gain/flagpoleScale) +
		0.4*(1-abs(drift)/flagDriftLimit) +
		0.3*positionInRange

	return d.accept(confidence)
}

// detectBearFlag is the mirror: a >=5% drop, a consolidation drifting
// between -2% and +5%, and the current price near the bottom of the flag
func (d *Detector) detectBearFlag(series marketdata.Series) Result {
	if len(series) < flagWindow {
		return Result{}
	}

	closes := series.Tail(flagWindow).Closes()

	pole := closes[:flagHalf]
	if pole[0] == 0 {
		return Result{}
	}
	drop := (pole[0] - pole[flagHalf-1]) / pole[0]
	if drop < flagpoleMin {
		return Result{}
	}

	flag := closes[flagHalf:]
	if flag[0] == 0 {
		return Result{}
	}
	drift := (flag[len(flag)-1] - flag[0]) / flag[0]
	if drift < -0.02 || drift > 0.05 {
		return Result{}
	}

	lo, hi := minMax(flag)
	span := hi - lo
	if span == 0 {
		return Result{}
	}
	positionInRange := (hi - closes[len(closes)-1]) / span

	confidence := 0.3*min(1.0, drop/flagpoleScale) +
		0.4*(1-abs(drift)/flagDriftLimit) +
		0.3*positionInRange

	return d.accept(confidence)
}

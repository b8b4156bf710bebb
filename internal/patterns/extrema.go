package patterns

// FindPeaks locates local maxima in values, returning their indices in
// ascending order. A point is a local maximum when it is strictly greater
// than both neighbors; boundary points are never extrema. Among extrema
// closer together than minSeparation, a single left-to-right sweep keeps
// the most extreme one (earliest index on ties).
func FindPeaks(values []float64, minSeparation int) []int {
	if len(values) < 3 {
		return nil
	}

	var peaks []int
	for i := 1; i < len(values)-1; i++ {
		if values[i] <= values[i-1] || values[i] <= values[i+1] {
			continue
		}

		if len(peaks) == 0 || i-peaks[len(peaks)-1] >= minSeparation {
			peaks = append(peaks, i)
			continue
		}

		// Too close to the previously kept peak: keep whichever is higher.
		// A tie keeps the earlier index.
		if values[i] > values[peaks[len(peaks)-1]] {
			peaks[len(peaks)-1] = i
		}
	}

	return peaks
}

// FindTroughs locates local minima with the same separation semantics,
// by running the peak test on the negated sequence.
func FindTroughs(values []float64, minSeparation int) []int {
	negated := make([]float64, len(values))
	for i, v := range values {
		negated[i] = -v
	}
	return FindPeaks(negated, minSeparation)
}

package patterns

import "testing"

// TestHeadShoulders tests a textbook three-peak formation with a neckline
// breakdown
func TestHeadShoulders(t *testing.T) {
	detector := NewDetector()

	closes := []float64{
		90, 92, 94, 96, 98,
		100, // left shoulder
		98, 96, 94, 92,
		90,
		94, 98, 102, 106,
		110, // head
		106, 102, 98, 94,
		90,
		92, 94, 96, 98,
		100, // right shoulder
		98, 96, 94, 92,
		90, 89, 88, 87, 86,
		85, 84, 83, 82, 81, // breakdown below the 90 neckline
	}

	result := detector.Detect(HeadShoulders, seriesFromCloses(closes))
	if !result.Found {
		t.Fatalf("Should detect head and shoulders, confidence=%f", result.Confidence)
	}
	if result.Confidence <= 0.5 {
		t.Errorf("Confidence should exceed 0.5, got %f", result.Confidence)
	}
}

// TestHeadShouldersUnevenShoulders tests rejection when shoulder heights
// differ by more than 10%
func TestHeadShouldersUnevenShoulders(t *testing.T) {
	detector := NewDetector()

	closes := []float64{
		90, 92, 94, 96, 98,
		120, // left shoulder far above the right
		98, 96, 94, 92,
		90,
		94, 98, 102, 106,
		125, // head
		106, 102, 98, 94,
		90,
		92, 94, 96, 98,
		100, // right shoulder
		98, 96, 94, 92,
		90, 89, 88, 87, 86,
		85, 84, 83, 82, 81,
	}

	if result := detector.Detect(HeadShoulders, seriesFromCloses(closes)); result.Found {
		t.Error("Should NOT detect head and shoulders with uneven shoulders")
	}
}

// TestHeadShouldersHeadNotHighest tests rejection when the middle peak is
// not the highest of the three
func TestHeadShouldersHeadNotHighest(t *testing.T) {
	detector := NewDetector()

	closes := []float64{
		90, 92, 94, 96, 98,
		110,
		98, 96, 94, 92,
		90,
		94, 96, 98, 100,
		102, // lower than both shoulders
		100, 98, 96, 94,
		90,
		94, 98, 102, 106,
		110,
		106, 102, 98, 94,
		90, 89, 88, 87, 86,
		85, 84, 83, 82, 81,
	}

	if result := detector.Detect(HeadShoulders, seriesFromCloses(closes)); result.Found {
		t.Error("Should NOT detect head and shoulders when the head is not the highest peak")
	}
}

// TestDoubleTop tests the reference scenario: equal 100 peaks at indices
// 10 and 25 with a 90 trough between them and a 95 close
func TestDoubleTop(t *testing.T) {
	detector := NewDetector()

	closes := []float64{
		90, 91, 92, 93, 94, 95, 96, 97, 98, 99,
		100, // first peak
		98, 96, 94, 92,
		90, // trough
		91, 92, 93, 94, 95, 96, 97, 98, 99,
		100, // second peak
		99, 98,
		96, 95, // pullback to 95
	}

	result := detector.Detect(DoubleTop, seriesFromCloses(closes))
	if !result.Found {
		t.Fatalf("Should detect double top, confidence=%f", result.Confidence)
	}
}

// TestDoubleTopShallowTrough tests rejection when the trough is less than
// 2% below the peaks
func TestDoubleTopShallowTrough(t *testing.T) {
	detector := NewDetector()

	closes := []float64{
		99, 99.1, 99.2, 99.3, 99.4, 99.5, 99.6, 99.7, 99.8, 99.9,
		100,
		99.8, 99.6, 99.4, 99.3,
		99.2, // only 0.8% below the peaks
		99.3, 99.4, 99.5, 99.6, 99.7, 99.75, 99.8, 99.85, 99.9,
		100,
		99.9, 99.8, 99.7, 99.6,
	}

	if result := detector.Detect(DoubleTop, seriesFromCloses(closes)); result.Found {
		t.Error("Should NOT detect double top with a shallow trough")
	}
}

// TestDoubleTopUnequalPeaks tests rejection when the peaks differ by more
// than 3%
func TestDoubleTopUnequalPeaks(t *testing.T) {
	detector := NewDetector()

	closes := []float64{
		90, 91, 92, 93, 94, 95, 96, 97, 98, 99,
		110, // first peak well above the second
		98, 96, 94, 92,
		90,
		91, 92, 93, 94, 95, 96, 97, 98, 99,
		100,
		99, 98, 97, 96, 95,
	}

	if result := detector.Detect(DoubleTop, seriesFromCloses(closes)); result.Found {
		t.Error("Should NOT detect double top with unequal peaks")
	}
}

// TestDoubleBottom tests the mirrored formation
func TestDoubleBottom(t *testing.T) {
	detector := NewDetector()

	closes := []float64{
		110, 109, 108, 107, 106, 105, 104, 103, 102, 101,
		100, // first trough
		102, 104, 106, 108,
		110, // peak between
		109, 108, 107, 106, 105, 104, 103, 102, 101,
		100, // second trough
		101, 102,
		103, 105, // recovering
	}

	result := detector.Detect(DoubleBottom, seriesFromCloses(closes))
	if !result.Found {
		t.Fatalf("Should detect double bottom, confidence=%f", result.Confidence)
	}
}

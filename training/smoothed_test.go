package training

import (
	"errors"
	"math"
	"testing"
)

const epsilon = 1e-9

// TestNewSmoothedValue tests tracker creation and capacity defaulting
func TestNewSmoothedValue(t *testing.T) {
	sv := NewSmoothedValue(20)
	if sv.WindowSize() != 20 {
		t.Errorf("Expected window size 20, got %d", sv.WindowSize())
	}
	if sv.Count() != 0 {
		t.Errorf("Expected count 0, got %d", sv.Count())
	}
	if sv.Total() != 0 {
		t.Errorf("Expected total 0, got %f", sv.Total())
	}

	sv = NewSmoothedValue(0)
	if sv.WindowSize() != DefaultWindowSize {
		t.Errorf("Expected default window size %d for zero capacity, got %d", DefaultWindowSize, sv.WindowSize())
	}

	sv = NewSmoothedValue(-5)
	if sv.WindowSize() != DefaultWindowSize {
		t.Errorf("Expected default window size %d for negative capacity, got %d", DefaultWindowSize, sv.WindowSize())
	}
}

// TestSmoothedValueEmptyQueries tests that statistics on a fresh tracker
// fail with an explicit error rather than returning zero or NaN
func TestSmoothedValueEmptyQueries(t *testing.T) {
	sv := NewSmoothedValue(10)

	if _, err := sv.Average(); !errors.Is(err, ErrNoObservations) {
		t.Errorf("Average on empty tracker: expected ErrNoObservations, got %v", err)
	}
	if _, err := sv.Median(); !errors.Is(err, ErrNoObservations) {
		t.Errorf("Median on empty tracker: expected ErrNoObservations, got %v", err)
	}
	if _, err := sv.GlobalAverage(); !errors.Is(err, ErrNoObservations) {
		t.Errorf("GlobalAverage on empty tracker: expected ErrNoObservations, got %v", err)
	}
}

// TestSmoothedValueSingleObservation tests that a single value dominates
// every statistic
func TestSmoothedValueSingleObservation(t *testing.T) {
	sv := NewSmoothedValue(100)
	sv.Add(5.0)

	avg, err := sv.Average()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if avg != 5.0 {
		t.Errorf("Expected average 5.0, got %f", avg)
	}

	median, err := sv.Median()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if median != 5.0 {
		t.Errorf("Expected median 5.0, got %f", median)
	}

	global, err := sv.GlobalAverage()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if global != 5.0 {
		t.Errorf("Expected global average 5.0, got %f", global)
	}
}

// TestSmoothedValueWindowEviction tests strict FIFO eviction at capacity
func TestSmoothedValueWindowEviction(t *testing.T) {
	sv := NewSmoothedValue(3)
	for _, v := range []float64{1.0, 2.0, 3.0, 4.0} {
		sv.Add(v)
	}

	window := sv.Window()
	expected := []float64{2.0, 3.0, 4.0}
	if len(window) != len(expected) {
		t.Fatalf("Expected window length %d, got %d", len(expected), len(window))
	}
	for i, v := range expected {
		if window[i] != v {
			t.Errorf("Window[%d]: expected %f, got %f", i, v, window[i])
		}
	}

	avg, err := sv.Average()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(avg-3.0) > epsilon {
		t.Errorf("Expected windowed average 3.0, got %f", avg)
	}

	median, err := sv.Median()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(median-3.0) > epsilon {
		t.Errorf("Expected windowed median 3.0, got %f", median)
	}

	global, err := sv.GlobalAverage()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(global-2.5) > epsilon {
		t.Errorf("Expected global average 2.5, got %f", global)
	}
}

// TestSmoothedValueWindowedAverage tests the windowed mean against the last
// min(N, W) values for several capacities and sequence lengths
func TestSmoothedValueWindowedAverage(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		values   int
	}{
		{"UnderCapacity", 10, 5},
		{"AtCapacity", 10, 10},
		{"OverCapacity", 10, 25},
		{"TinyWindow", 1, 8},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			sv := NewSmoothedValue(test.capacity)

			values := make([]float64, test.values)
			for i := range values {
				values[i] = float64(i)*0.5 - 3.0
				sv.Add(values[i])
			}

			start := 0
			if test.values > test.capacity {
				start = test.values - test.capacity
			}
			sum := 0.0
			for _, v := range values[start:] {
				sum += v
			}
			expected := sum / float64(len(values[start:]))

			avg, err := sv.Average()
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if math.Abs(avg-expected) > epsilon {
				t.Errorf("Expected windowed average %f, got %f", expected, avg)
			}
		})
	}
}

// TestSmoothedValueGlobalAverage tests that the global average covers every
// observation regardless of window capacity
func TestSmoothedValueGlobalAverage(t *testing.T) {
	sv := NewSmoothedValue(2)

	sum := 0.0
	for i := 1; i <= 50; i++ {
		v := float64(i)
		sv.Add(v)
		sum += v
	}

	global, err := sv.GlobalAverage()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := sum / 50.0
	if math.Abs(global-expected) > epsilon {
		t.Errorf("Expected global average %f, got %f", expected, global)
	}

	if sv.Count() != 50 {
		t.Errorf("Expected count 50, got %d", sv.Count())
	}
	if math.Abs(sv.Total()-sum) > epsilon {
		t.Errorf("Expected total %f, got %f", sum, sv.Total())
	}
}

// TestSmoothedValueMedian tests the windowed median for odd and even window
// fills
func TestSmoothedValueMedian(t *testing.T) {
	t.Run("OddCount", func(t *testing.T) {
		sv := NewSmoothedValue(10)
		for _, v := range []float64{9.0, 1.0, 5.0} {
			sv.Add(v)
		}
		median, err := sv.Median()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if median != 5.0 {
			t.Errorf("Expected median 5.0, got %f", median)
		}
	})

	t.Run("EvenCount", func(t *testing.T) {
		sv := NewSmoothedValue(10)
		for _, v := range []float64{4.0, 1.0, 3.0, 2.0} {
			sv.Add(v)
		}
		median, err := sv.Median()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if math.Abs(median-2.5) > epsilon {
			t.Errorf("Expected median 2.5, got %f", median)
		}
	})

	t.Run("MedianDoesNotReorderWindow", func(t *testing.T) {
		sv := NewSmoothedValue(5)
		for _, v := range []float64{3.0, 1.0, 2.0} {
			sv.Add(v)
		}
		if _, err := sv.Median(); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		window := sv.Window()
		expected := []float64{3.0, 1.0, 2.0}
		for i, v := range expected {
			if window[i] != v {
				t.Errorf("Window[%d] after Median: expected %f, got %f", i, v, window[i])
			}
		}
	})
}

// TestSmoothedValueQueryIdempotence tests that read-only queries do not
// mutate state
func TestSmoothedValueQueryIdempotence(t *testing.T) {
	sv := NewSmoothedValue(4)
	for _, v := range []float64{1.5, -2.25, 0.75, 4.0, 8.5} {
		sv.Add(v)
	}

	firstAvg, err := sv.Average()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	firstMedian, _ := sv.Median()
	firstGlobal, _ := sv.GlobalAverage()

	for i := 0; i < 10; i++ {
		avg, _ := sv.Average()
		median, _ := sv.Median()
		global, _ := sv.GlobalAverage()

		if avg != firstAvg {
			t.Errorf("Average changed between queries: %f vs %f", avg, firstAvg)
		}
		if median != firstMedian {
			t.Errorf("Median changed between queries: %f vs %f", median, firstMedian)
		}
		if global != firstGlobal {
			t.Errorf("GlobalAverage changed between queries: %f vs %f", global, firstGlobal)
		}
	}

	if sv.Count() != 5 {
		t.Errorf("Expected count 5 after queries, got %d", sv.Count())
	}
}

// TestSmoothedValueHistory tests the lifetime series invariants
func TestSmoothedValueHistory(t *testing.T) {
	sv := NewSmoothedValue(2)
	values := []float64{0.5, 1.5, 2.5, 3.5}
	for _, v := range values {
		sv.Add(v)
	}

	history := sv.History()
	if len(history) != len(values) {
		t.Fatalf("Expected history length %d, got %d", len(values), len(history))
	}

	sum := 0.0
	for i, v := range values {
		if history[i] != v {
			t.Errorf("History[%d]: expected %f, got %f", i, v, history[i])
		}
		sum += v
	}

	if sv.Count() != len(history) {
		t.Errorf("Count %d does not match history length %d", sv.Count(), len(history))
	}
	if math.Abs(sv.Total()-sum) > epsilon {
		t.Errorf("Total %f does not match history sum %f", sv.Total(), sum)
	}

	// Window must equal the tail of the history.
	window := sv.Window()
	tail := history[len(history)-sv.WindowSize():]
	for i, v := range tail {
		if window[i] != v {
			t.Errorf("Window[%d]: expected history tail value %f, got %f", i, v, window[i])
		}
	}

	// Mutating the returned copies must not affect the tracker.
	history[0] = 99.0
	window[0] = 99.0
	if sv.History()[0] != 0.5 {
		t.Error("History returned a live reference to internal state")
	}
}

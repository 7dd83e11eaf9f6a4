package training

import (
	"errors"
	"sort"
)

// DefaultWindowSize is the window capacity used by MetricRegistry when it
// creates a tracker for a previously unseen metric name.
const DefaultWindowSize = 100

// ErrNoObservations is returned when a windowed or global statistic is
// requested before any value has been recorded. Returning an explicit error
// keeps "no data" distinguishable from "average is zero".
var ErrNoObservations = errors.New("no observations recorded")

// SmoothedValue tracks a series of scalar observations and provides access to
// smoothed statistics over a bounded window as well as the global series
// average. The window holds the most recent observations with FIFO eviction;
// the full series is retained for exact lifetime totals.
//
// SmoothedValue performs no internal locking. It is intended to be driven
// from a single training loop; concurrent writers must synchronize
// externally.
type SmoothedValue struct {
	window  []float64 // ring buffer of the most recent observations
	next    int       // ring write position
	filled  int       // valid ring slots, never exceeds cap(window)
	history []float64
	total   float64
	count   int
}

// NewSmoothedValue creates a tracker with the given window capacity.
// A capacity of zero or less falls back to DefaultWindowSize.
func NewSmoothedValue(windowSize int) *SmoothedValue {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &SmoothedValue{
		window: make([]float64, windowSize),
	}
}

// Add records a single observation. The oldest windowed observation is
// evicted once the window is at capacity. Values are accepted unconditionally;
// NaN/Inf handling is the caller's responsibility.
func (sv *SmoothedValue) Add(value float64) {
	sv.window[sv.next] = value
	sv.next = (sv.next + 1) % len(sv.window)
	if sv.filled < len(sv.window) {
		sv.filled++
	}

	sv.history = append(sv.history, value)
	sv.count++
	sv.total += value
}

// Average returns the arithmetic mean of the current window contents.
// It returns ErrNoObservations before the first Add.
func (sv *SmoothedValue) Average() (float64, error) {
	if sv.filled == 0 {
		return 0, ErrNoObservations
	}

	sum := 0.0
	for i := 0; i < sv.filled; i++ {
		sum += sv.window[i]
	}
	return sum / float64(sv.filled), nil
}

// Median returns the median of the current window contents. For an even
// number of windowed observations the mean of the two middle values is
// returned. It returns ErrNoObservations before the first Add.
func (sv *SmoothedValue) Median() (float64, error) {
	if sv.filled == 0 {
		return 0, ErrNoObservations
	}

	sorted := make([]float64, sv.filled)
	copy(sorted, sv.window[:sv.filled])
	sort.Float64s(sorted)

	mid := sv.filled / 2
	if sv.filled%2 == 1 {
		return sorted[mid], nil
	}
	return (sorted[mid-1] + sorted[mid]) / 2, nil
}

// GlobalAverage returns the mean over every observation ever recorded,
// regardless of window capacity. It returns ErrNoObservations when no value
// has been recorded, never a silent zero.
func (sv *SmoothedValue) GlobalAverage() (float64, error) {
	if sv.count == 0 {
		return 0, ErrNoObservations
	}
	return sv.total / float64(sv.count), nil
}

// Count returns the number of observations ever recorded.
func (sv *SmoothedValue) Count() int {
	return sv.count
}

// Total returns the running sum of all observations ever recorded.
func (sv *SmoothedValue) Total() float64 {
	return sv.total
}

// WindowSize returns the fixed window capacity.
func (sv *SmoothedValue) WindowSize() int {
	return len(sv.window)
}

// Window returns a copy of the current window contents in insertion order,
// oldest first.
func (sv *SmoothedValue) Window() []float64 {
	out := make([]float64, 0, sv.filled)
	if sv.filled < len(sv.window) {
		// Ring has not wrapped yet; slots 0..filled-1 are already in order.
		return append(out, sv.window[:sv.filled]...)
	}
	out = append(out, sv.window[sv.next:]...)
	return append(out, sv.window[:sv.next]...)
}

// History returns a copy of every observation ever recorded, in order.
func (sv *SmoothedValue) History() []float64 {
	out := make([]float64, len(sv.history))
	copy(out, sv.history)
	return out
}

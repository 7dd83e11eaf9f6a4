package training

import "sort"

// MetricRegistry owns one SmoothedValue per metric name. Trackers are created
// lazily on the first observation of a new name and live for the lifetime of
// the registry. The registry is a plain value meant to be passed explicitly
// to whatever component records metrics; there is no package-level instance.
//
// Like SmoothedValue, the registry does no internal locking and assumes a
// single logical training loop as its owner.
type MetricRegistry struct {
	windowSize int
	trackers   map[string]*SmoothedValue
}

// NewMetricRegistry creates an empty registry. New trackers are created with
// the given window capacity; zero or less falls back to DefaultWindowSize.
func NewMetricRegistry(windowSize int) *MetricRegistry {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &MetricRegistry{
		windowSize: windowSize,
		trackers:   make(map[string]*SmoothedValue),
	}
}

// Observe routes a single observation to the tracker for name, creating the
// tracker if the name is new, and returns that tracker.
func (mr *MetricRegistry) Observe(name string, value float64) *SmoothedValue {
	sv, ok := mr.trackers[name]
	if !ok {
		sv = NewSmoothedValue(mr.windowSize)
		mr.trackers[name] = sv
	}
	sv.Add(value)
	return sv
}

// Update routes one observation per metric name to the matching trackers and
// returns a snapshot of the windowed average for every tracked metric, not
// just the names present in this batch. Every tracker has at least one
// observation by construction, so the snapshot is always complete.
func (mr *MetricRegistry) Update(observations map[string]float64) map[string]float64 {
	for name, value := range observations {
		mr.Observe(name, value)
	}

	snapshot := make(map[string]float64, len(mr.trackers))
	for name, sv := range mr.trackers {
		avg, err := sv.Average()
		if err != nil {
			continue
		}
		snapshot[name] = avg
	}
	return snapshot
}

// Get returns the tracker for name, if one exists.
func (mr *MetricRegistry) Get(name string) (*SmoothedValue, bool) {
	sv, ok := mr.trackers[name]
	return sv, ok
}

// Names returns the tracked metric names in sorted order. Sorting keeps log
// lines and archives stable across steps.
func (mr *MetricRegistry) Names() []string {
	names := make([]string, 0, len(mr.trackers))
	for name := range mr.trackers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of tracked metrics.
func (mr *MetricRegistry) Len() int {
	return len(mr.trackers)
}

// WindowSize returns the window capacity used for new trackers.
func (mr *MetricRegistry) WindowSize() int {
	return mr.windowSize
}

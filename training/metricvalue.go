package training

import "fmt"

// MetricKind distinguishes scalar evaluation metrics from vector ones such as
// per-class scores.
type MetricKind int

const (
	ScalarMetric MetricKind = iota
	VectorMetric
)

func (mk MetricKind) String() string {
	switch mk {
	case ScalarMetric:
		return "Scalar"
	case VectorMetric:
		return "Vector"
	default:
		return fmt.Sprintf("Unknown(%d)", int(mk))
	}
}

// MetricValue is a tagged variant holding either a single scalar or a vector
// of per-component values. The variant is resolved once at the export site
// via Flatten; consumers never branch on runtime types.
type MetricValue struct {
	Kind   MetricKind
	Scalar float64
	Vector []float64
}

// ScalarValue wraps a single float as a MetricValue.
func ScalarValue(v float64) MetricValue {
	return MetricValue{Kind: ScalarMetric, Scalar: v}
}

// VectorValue wraps a sequence of floats as a MetricValue.
func VectorValue(vs ...float64) MetricValue {
	vec := make([]float64, len(vs))
	copy(vec, vs)
	return MetricValue{Kind: VectorMetric, Vector: vec}
}

// NamedScalar is one flattened display entry of a MetricValue.
type NamedScalar struct {
	Name  string
	Value float64
}

// Flatten expands a MetricValue into display entries: a scalar yields a
// single entry under name, a vector yields one entry per component named
// name_0..name_n.
func (mv MetricValue) Flatten(name string) []NamedScalar {
	if mv.Kind == ScalarMetric {
		return []NamedScalar{{Name: name, Value: mv.Scalar}}
	}

	entries := make([]NamedScalar, len(mv.Vector))
	for i, v := range mv.Vector {
		entries[i] = NamedScalar{
			Name:  fmt.Sprintf("%s_%d", name, i),
			Value: v,
		}
	}
	return entries
}

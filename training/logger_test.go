package training

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestLogger(windowSize int) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := DefaultLoggerConfig("test")
	cfg.Out = &buf
	return NewLogger(cfg, NewMetricRegistry(windowSize)), &buf
}

// TestDefaultLoggerConfig tests the default logger configuration
func TestDefaultLoggerConfig(t *testing.T) {
	cfg := DefaultLoggerConfig("run1")

	if cfg.Name != "run1" {
		t.Errorf("Expected name run1, got %s", cfg.Name)
	}
	if cfg.Level != logrus.InfoLevel {
		t.Errorf("Expected info level, got %v", cfg.Level)
	}
	if cfg.SummaryInterval != 100 {
		t.Errorf("Expected summary interval 100, got %d", cfg.SummaryInterval)
	}
}

// TestNewLoggerNilRegistry tests that a logger without a registry creates one
func TestNewLoggerNilRegistry(t *testing.T) {
	l := NewLogger(DefaultLoggerConfig("test"), nil)
	if l.Registry() == nil {
		t.Fatal("Expected logger to create a registry")
	}
	if l.Registry().WindowSize() != DefaultWindowSize {
		t.Errorf("Expected default window size, got %d", l.Registry().WindowSize())
	}
}

// TestTrainLogSmoothing tests that emitted loss values are windowed averages
func TestTrainLogSmoothing(t *testing.T) {
	l, buf := newTestLogger(3)

	for step, v := range []float64{1.0, 2.0, 3.0} {
		l.TrainLog(step+1, map[string]float64{"loss": v}, 125*time.Millisecond, 0.01, nil)
	}
	buf.Reset()

	snapshot := l.TrainLog(4, map[string]float64{"loss": 4.0}, 125*time.Millisecond, 0.01, nil)

	// Window of 3 holds 2,3,4.
	if snapshot["loss"] != 3.0 {
		t.Errorf("Expected smoothed loss 3.0, got %f", snapshot["loss"])
	}

	out := buf.String()
	if !strings.Contains(out, "loss = 3.000000") {
		t.Errorf("Expected smoothed loss in output, got: %s", out)
	}
	if !strings.Contains(out, "step: 4") {
		t.Errorf("Expected step number in output, got: %s", out)
	}
	if !strings.Contains(out, "lr = 0.010000") {
		t.Errorf("Expected learning rate in output, got: %s", out)
	}
	if !strings.Contains(out, "(0.125 sec / step)") {
		t.Errorf("Expected step time in output, got: %s", out)
	}
}

// TestTrainLogExtraMetrics tests the optional tagged metric entries
func TestTrainLogExtraMetrics(t *testing.T) {
	l, buf := newTestLogger(10)

	l.TrainLog(1, map[string]float64{"loss": 0.5}, time.Second, 0.1, map[string]MetricValue{
		"acc": ScalarValue(0.75),
		"iou": VectorValue(0.4, 0.6),
	})

	out := buf.String()
	for _, want := range []string{
		"[Train] acc = 0.750000",
		"[Train] iou_0 = 0.400000",
		"[Train] iou_1 = 0.600000",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output, got: %s", want, out)
		}
	}
}

// TestEvalLog tests evaluation line formatting
func TestEvalLog(t *testing.T) {
	l, buf := newTestLogger(10)

	l.EvalLog(map[string]MetricValue{
		"miou":      ScalarValue(0.81),
		"class_iou": VectorValue(0.7, 0.92),
	}, 100)

	out := buf.String()
	for _, want := range []string{
		"[Eval] miou = 0.810000",
		"[Eval] class_iou_0 = 0.700000",
		"[Eval] class_iou_1 = 0.920000",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output, got: %s", want, out)
		}
	}
}

// TestLoggerOnOff tests level gating and collector gating
func TestLoggerOnOff(t *testing.T) {
	l, buf := newTestLogger(10)
	vc := NewVisualizationCollector("test")
	vc.Enable()
	l.AttachCollector(vc)

	l.Off()
	l.TrainLog(1, map[string]float64{"loss": 1.0}, time.Second, 0.1, nil)

	if buf.Len() != 0 {
		t.Errorf("Expected no output while off, got: %s", buf.String())
	}
	if len(vc.learningRates) != 0 {
		t.Error("Expected no collector recording while off")
	}

	// Registry still accumulates while the logger is off, so smoothing does
	// not lose observations.
	sv, ok := l.Registry().Get("loss")
	if !ok || sv.Count() != 1 {
		t.Error("Expected registry to record observations while off")
	}

	l.On()
	l.TrainLog(2, map[string]float64{"loss": 2.0}, time.Second, 0.1, nil)
	if buf.Len() == 0 {
		t.Error("Expected output after On()")
	}
	if len(vc.learningRates) != 1 {
		t.Error("Expected collector recording after On()")
	}
}

// TestLoggerHelpers tests the checkpoint/eval helper lines
func TestLoggerHelpers(t *testing.T) {
	l, buf := newTestLogger(10)

	l.CheckpointSaved("model_step_1000.ckpt")
	l.CheckpointRestored("model_step_1000.ckpt")
	l.EvalProgress(3, 10)
	l.Speed(0.04, "im")

	out := buf.String()
	for _, want := range []string{
		"model_step_1000.ckpt has been saved.",
		"model_step_1000.ckpt has been restored.",
		"[Eval] 3/10",
		"[Speed] 0.04 s/im",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output, got: %s", want, out)
		}
	}
}

// TestEvalLogRecordsCollector tests eval metric routing into the collector
func TestEvalLogRecordsCollector(t *testing.T) {
	l, _ := newTestLogger(10)
	vc := NewVisualizationCollector("test")
	vc.Enable()
	l.AttachCollector(vc)

	l.EvalLog(map[string]MetricValue{"miou": ScalarValue(0.8)}, 500)

	series, ok := vc.evalMetrics["miou"]
	if !ok {
		t.Fatal("Expected eval series for miou")
	}
	if len(series.values) != 1 || series.values[0] != 0.8 || series.steps[0] != 500 {
		t.Errorf("Unexpected eval series: steps=%v values=%v", series.steps, series.values)
	}
}

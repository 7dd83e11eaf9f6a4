package training

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// LoggerConfig contains configuration for the training logger.
type LoggerConfig struct {
	// Name labels every line emitted by this logger, typically the model or
	// experiment name.
	Name string

	// Level is the logrus level the logger runs at while enabled.
	Level logrus.Level

	// Out overrides the log destination. Defaults to os.Stderr.
	Out io.Writer

	// SummaryInterval is the number of steps between visualization summary
	// exports through an attached plotting service.
	SummaryInterval int
}

// DefaultLoggerConfig returns the default logger configuration.
func DefaultLoggerConfig(name string) LoggerConfig {
	return LoggerConfig{
		Name:            name,
		Level:           logrus.InfoLevel,
		SummaryInterval: 100,
	}
}

// Logger emits smoothed training and evaluation log lines. Raw per-step
// losses are routed through an injected MetricRegistry so that displayed
// values are windowed averages rather than noisy instantaneous readings.
//
// The registry, visualization collector and plotting service are explicit
// collaborators owned by the caller; the logger holds no process-wide state.
type Logger struct {
	log      *logrus.Logger
	entry    *logrus.Entry
	level    logrus.Level
	registry *MetricRegistry

	collector *VisualizationCollector
	plotter   *PlottingService

	summaryInterval int
	enabled         bool
}

// NewLogger creates a training logger over the given registry.
func NewLogger(cfg LoggerConfig, registry *MetricRegistry) *Logger {
	if registry == nil {
		registry = NewMetricRegistry(DefaultWindowSize)
	}
	if cfg.SummaryInterval <= 0 {
		cfg.SummaryInterval = 100
	}

	log := logrus.New()
	log.SetLevel(cfg.Level)
	if cfg.Out != nil {
		log.SetOutput(cfg.Out)
	}

	entry := logrus.NewEntry(log)
	if cfg.Name != "" {
		entry = log.WithField("name", cfg.Name)
	}

	return &Logger{
		log:             log,
		entry:           entry,
		level:           cfg.Level,
		registry:        registry,
		summaryInterval: cfg.SummaryInterval,
		enabled:         true,
	}
}

// Registry returns the metric registry backing this logger.
func (l *Logger) Registry() *MetricRegistry {
	return l.registry
}

// AttachCollector attaches a visualization collector. Training and
// evaluation calls record into it while the logger is enabled.
func (l *Logger) AttachCollector(vc *VisualizationCollector) {
	l.collector = vc
}

// AttachPlotter attaches a sidecar plotting client. Summary plots are sent
// every SummaryInterval steps while both logger and plotter are enabled.
func (l *Logger) AttachPlotter(ps *PlottingService) {
	l.plotter = ps
}

// On restores the configured log level and re-enables collector recording.
func (l *Logger) On() {
	l.log.SetLevel(l.level)
	l.enabled = true
}

// Off mutes everything below panic level and stops collector recording.
func (l *Logger) Off() {
	l.log.SetLevel(logrus.PanicLevel)
	l.enabled = false
}

// Info logs a plain informational message.
func (l *Logger) Info(args ...interface{}) {
	l.entry.Info(args...)
}

// Infof logs a formatted informational message.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// TrainLog records one training step: the raw losses are pushed through the
// registry, and a single line with the smoothed value of every tracked loss
// is emitted together with the optional extra metrics, learning rate, step
// number and step time. The returned map is the smoothed snapshot of every
// tracked loss.
func (l *Logger) TrainLog(step int, losses map[string]float64, stepTime time.Duration, lr float64, metrics map[string]MetricValue) map[string]float64 {
	smoothed := l.registry.Update(losses)

	var b strings.Builder
	for _, name := range sortedKeys(smoothed) {
		fmt.Fprintf(&b, "%s = %.6f\t", name, smoothed[name])
	}
	for _, entry := range flattenMetrics(metrics) {
		fmt.Fprintf(&b, "[Train] %s = %.6f\t", entry.Name, entry.Value)
	}
	fmt.Fprintf(&b, "lr = %.6f\tstep: %d\t(%.3f sec / step)", lr, step, stepTime.Seconds())

	l.entry.Info(b.String())

	if !l.enabled {
		return smoothed
	}
	if l.collector != nil {
		l.collector.RecordTrainingStep(step, smoothed, lr, stepTime)
	}
	if step%l.summaryInterval == 0 {
		l.exportSummary()
	}
	return smoothed
}

// EvalLog emits one line per evaluation metric entry and records the metrics
// into the attached collector.
func (l *Logger) EvalLog(metrics map[string]MetricValue, step int) {
	for _, entry := range flattenMetrics(metrics) {
		l.entry.Infof("[Eval] %s = %.6f", entry.Name, entry.Value)
	}

	if !l.enabled {
		return
	}
	if l.collector != nil {
		l.collector.RecordEvalStep(step, metrics)
	}
}

// EvalStart marks the beginning of an evaluation pass.
func (l *Logger) EvalStart() {
	l.entry.Infof("Start evaluation at %s", time.Now().Format("2006-01-02 15:04:05"))
}

// EvalProgress reports evaluation progress as processed/total.
func (l *Logger) EvalProgress(current, total int) {
	l.entry.Infof("[Eval] %d/%d", current, total)
}

// Speed reports throughput in seconds per unit (image, batch, step).
func (l *Logger) Speed(secPerUnit float64, unit string) {
	l.entry.Infof("[Speed] %g s/%s", secPerUnit, unit)
}

// CheckpointSaved reports that a checkpoint was written.
func (l *Logger) CheckpointSaved(name string) {
	l.entry.Infof("%s has been saved.", name)
}

// CheckpointRestored reports that a checkpoint was loaded.
func (l *Logger) CheckpointRestored(name string) {
	l.entry.Infof("%s has been restored.", name)
}

// exportSummary pushes the current training curves to the sidecar plotting
// service. Failures are reported but never interrupt training.
func (l *Logger) exportSummary() {
	if l.plotter == nil || !l.plotter.IsEnabled() || l.collector == nil || !l.collector.IsEnabled() {
		return
	}

	plots := []PlotType{TrainingCurves, LearningRateSchedule}
	for _, plotType := range plots {
		if _, err := l.plotter.GenerateAndSendPlot(l.collector, plotType); err != nil {
			l.entry.Warnf("summary export failed for %s: %v", plotType, err)
		}
	}
}

// flattenMetrics expands tagged metric values into sorted display entries.
func flattenMetrics(metrics map[string]MetricValue) []NamedScalar {
	if len(metrics) == 0 {
		return nil
	}

	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	var entries []NamedScalar
	for _, name := range names {
		entries = append(entries, metrics[name].Flatten(name)...)
	}
	return entries
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

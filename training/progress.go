package training

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// ProgressBar provides PyTorch-style training progress visualization
type ProgressBar struct {
	description string
	total       int
	current     int
	startTime   time.Time
	width       int
	showRate    bool
	showETA     bool
	metrics     map[string]float64
	out         io.Writer
}

// NewProgressBar creates a new progress bar writing to stdout
func NewProgressBar(description string, total int) *ProgressBar {
	return &ProgressBar{
		description: description,
		total:       total,
		startTime:   time.Now(),
		width:       70, // Character width of progress bar
		showRate:    true,
		showETA:     true,
		metrics:     make(map[string]float64),
		out:         os.Stdout,
	}
}

// SetOutput redirects the bar, mainly for tests.
func (pb *ProgressBar) SetOutput(w io.Writer) {
	pb.out = w
}

// Update advances the progress bar and replaces the displayed metrics
func (pb *ProgressBar) Update(step int, metrics map[string]float64) {
	pb.current = step
	pb.metrics = metrics
	pb.render()
}

// UpdateMetrics updates metrics without advancing progress
func (pb *ProgressBar) UpdateMetrics(metrics map[string]float64) {
	for k, v := range metrics {
		pb.metrics[k] = v
	}
	pb.render()
}

// Finish completes the progress bar
func (pb *ProgressBar) Finish() {
	pb.current = pb.total
	pb.render()
	fmt.Fprintln(pb.out)
}

// render draws the progress bar over the previous line
func (pb *ProgressBar) render() {
	percentage := float64(pb.current) / float64(pb.total)
	if percentage > 1.0 {
		percentage = 1.0
	}

	filled := int(percentage * float64(pb.width))
	if filled > pb.width {
		filled = pb.width
	}

	bar := strings.Repeat("█", filled) + strings.Repeat(" ", pb.width-filled)

	elapsed := time.Since(pb.startTime)
	var eta time.Duration
	var rate float64

	if pb.current > 0 {
		rate = float64(pb.current) / elapsed.Seconds()
		if percentage > 0 {
			totalTime := time.Duration(float64(elapsed) / percentage)
			eta = totalTime - elapsed
		}
	}

	line := fmt.Sprintf("\r%s: %3.0f%%|%s| %d/%d",
		pb.description,
		percentage*100,
		bar,
		pb.current,
		pb.total,
	)

	if pb.showETA && eta > 0 {
		line += fmt.Sprintf(" [%s<%s", formatDuration(elapsed), formatDuration(eta))
	} else {
		line += fmt.Sprintf(" [%s<00:00", formatDuration(elapsed))
	}

	if pb.showRate && rate > 0 {
		line += fmt.Sprintf(", %.2fbatch/s", rate)
	}

	for _, name := range sortedKeys(pb.metrics) {
		value := pb.metrics[name]
		if strings.Contains(name, "accuracy") || strings.Contains(name, "acc") {
			line += fmt.Sprintf(", %s=%.2f%%", name, value*100)
		} else {
			line += fmt.Sprintf(", %s=%.3f", name, value)
		}
	}

	line += "]"

	fmt.Fprint(pb.out, line)
}

// formatDuration formats duration as MM:SS
func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// TrainingSession drives the logging side of a complete training run: per
// epoch it renders train/validation progress bars fed with smoothed metrics
// and emits summary lines through the injected Logger. The session owns a
// separate registry for validation losses so train and validation windows
// never mix.
type TrainingSession struct {
	logger          *Logger
	modelName       string
	epochs          int
	stepsPerEpoch   int
	validationSteps int
	logInterval     int

	currentEpoch       int
	trainProgress      *ProgressBar
	validationProgress *ProgressBar
	valRegistry        *MetricRegistry
}

// NewTrainingSession creates a session over the given logger.
func NewTrainingSession(logger *Logger, modelName string, epochs, stepsPerEpoch, validationSteps int) *TrainingSession {
	return &TrainingSession{
		logger:          logger,
		modelName:       modelName,
		epochs:          epochs,
		stepsPerEpoch:   stepsPerEpoch,
		validationSteps: validationSteps,
		logInterval:     10,
		valRegistry:     NewMetricRegistry(logger.Registry().WindowSize()),
	}
}

// SetLogInterval sets how many training steps pass between full log lines.
// Progress bars still update every step.
func (ts *TrainingSession) SetLogInterval(n int) {
	if n > 0 {
		ts.logInterval = n
	}
}

// ValidationRegistry returns the registry tracking validation losses.
func (ts *TrainingSession) ValidationRegistry() *MetricRegistry {
	return ts.valRegistry
}

// Start announces the run.
func (ts *TrainingSession) Start() {
	ts.logger.Infof("Starting training: %s (%d epochs, %d steps/epoch)", ts.modelName, ts.epochs, ts.stepsPerEpoch)
}

// StartEpoch begins a new epoch
func (ts *TrainingSession) StartEpoch(epoch int) {
	ts.currentEpoch = epoch
	description := fmt.Sprintf("Epoch %d/%d (Training)", epoch, ts.epochs)
	ts.trainProgress = NewProgressBar(description, ts.stepsPerEpoch)
}

// TrainStep records one training step. Every step feeds the registry and the
// progress bar; every logInterval-th step also emits a full smoothed log line.
func (ts *TrainingSession) TrainStep(step int, losses map[string]float64, stepTime time.Duration, lr float64) {
	globalStep := (ts.currentEpoch-1)*ts.stepsPerEpoch + step

	var smoothed map[string]float64
	if step%ts.logInterval == 0 {
		smoothed = ts.logger.TrainLog(globalStep, losses, stepTime, lr, nil)
	} else {
		smoothed = ts.logger.Registry().Update(losses)
	}

	if ts.trainProgress != nil {
		ts.trainProgress.Update(step, smoothed)
	}
}

// FinishTrainingEpoch completes the training phase of an epoch
func (ts *TrainingSession) FinishTrainingEpoch() {
	if ts.trainProgress != nil {
		ts.trainProgress.Finish()
	}
}

// StartValidation begins the validation phase
func (ts *TrainingSession) StartValidation() {
	if ts.validationSteps <= 0 {
		return
	}
	description := fmt.Sprintf("Epoch %d/%d (Validation)", ts.currentEpoch, ts.epochs)
	ts.validationProgress = NewProgressBar(description, ts.validationSteps)
}

// ValidationStep records one validation step into the validation registry.
func (ts *TrainingSession) ValidationStep(step int, losses map[string]float64) {
	smoothed := ts.valRegistry.Update(losses)
	if ts.validationProgress != nil {
		ts.validationProgress.Update(step, smoothed)
	}
}

// FinishValidationEpoch completes the validation phase of an epoch
func (ts *TrainingSession) FinishValidationEpoch() {
	if ts.validationProgress != nil {
		ts.validationProgress.Finish()
	}
}

// EpochSummary emits one summary line per phase with windowed and lifetime
// averages for every tracked loss.
func (ts *TrainingSession) EpochSummary() {
	ts.logger.Infof("Epoch %d/%d Summary:", ts.currentEpoch, ts.epochs)
	ts.summarize("Training", ts.logger.Registry())
	if ts.validationSteps > 0 {
		ts.summarize("Validation", ts.valRegistry)
	}
}

// Finish closes out the run with lifetime averages for final reporting.
func (ts *TrainingSession) Finish() {
	ts.logger.Infof("Training complete: %s", ts.modelName)
	ts.summarize("Final (train)", ts.logger.Registry())
	if ts.valRegistry.Len() > 0 {
		ts.summarize("Final (validation)", ts.valRegistry)
	}
}

func (ts *TrainingSession) summarize(phase string, registry *MetricRegistry) {
	for _, name := range registry.Names() {
		sv, _ := registry.Get(name)
		avg, err := sv.Average()
		if err != nil {
			continue
		}
		global, _ := sv.GlobalAverage()
		ts.logger.Infof("  %s - %s: %.6f (lifetime %.6f over %d steps)", phase, name, avg, global, sv.Count())
	}
}

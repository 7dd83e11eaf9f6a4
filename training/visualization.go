package training

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// PlotType represents different types of plots that can be generated
type PlotType string

const (
	TrainingCurves       PlotType = "training_curves"
	LearningRateSchedule PlotType = "learning_rate_schedule"
	EvalMetricCurves     PlotType = "eval_metric_curves"
	StepTimePlot         PlotType = "step_time"
)

// PlotData represents the universal JSON format for the sidecar plotting service
type PlotData struct {
	PlotType  PlotType  `json:"plot_type"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
	ModelName string    `json:"model_name"`

	// Data series - flexible structure for different plot types
	Series []SeriesData `json:"series"`

	Config PlotConfig `json:"config"`
}

// SeriesData represents a single data series in a plot
type SeriesData struct {
	Name  string                 `json:"name"`
	Type  string                 `json:"type"` // "line", "scatter", "bar"
	Data  []DataPoint            `json:"data"`
	Style map[string]interface{} `json:"style,omitempty"`
}

// DataPoint represents a single data point
type DataPoint struct {
	X interface{} `json:"x"`
	Y interface{} `json:"y"`
}

// PlotConfig contains plot-specific configuration
type PlotConfig struct {
	XAxisLabel  string `json:"x_axis_label"`
	YAxisLabel  string `json:"y_axis_label"`
	XAxisScale  string `json:"x_axis_scale"` // "linear", "log"
	YAxisScale  string `json:"y_axis_scale"` // "linear", "log"
	ShowLegend  bool   `json:"show_legend"`
	ShowGrid    bool   `json:"show_grid"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Interactive bool   `json:"interactive"`
}

// metricSeries pairs recorded values with the step each was recorded at, so
// metrics that first appear mid-run still plot against the right x values.
type metricSeries struct {
	steps  []int
	values []float64
}

// VisualizationCollector accumulates per-step training history for plotting.
// It records smoothed losses, learning rates, step times and evaluation
// metrics, and turns them into PlotData payloads for the sidecar service.
type VisualizationCollector struct {
	modelName string
	enabled   bool

	// Training data, keyed by metric name.
	losses    map[string]*metricSeries
	lossNames []string

	lrSteps       []int
	learningRates []float64
	stepTimes     []float64

	// Evaluation data, flattened from tagged metric values.
	evalMetrics map[string]*metricSeries
	evalNames   []string
}

// NewVisualizationCollector creates a new collector. Collection starts
// disabled; call Enable to begin recording.
func NewVisualizationCollector(modelName string) *VisualizationCollector {
	return &VisualizationCollector{
		modelName:   modelName,
		losses:      make(map[string]*metricSeries),
		evalMetrics: make(map[string]*metricSeries),
	}
}

// Enable enables data collection.
func (vc *VisualizationCollector) Enable() {
	vc.enabled = true
}

// Disable disables data collection.
func (vc *VisualizationCollector) Disable() {
	vc.enabled = false
}

// IsEnabled returns whether collection is enabled.
func (vc *VisualizationCollector) IsEnabled() bool {
	return vc.enabled
}

// RecordTrainingStep records the smoothed losses, learning rate and step
// time for a single training step.
func (vc *VisualizationCollector) RecordTrainingStep(step int, losses map[string]float64, lr float64, stepTime time.Duration) {
	if !vc.enabled {
		return
	}

	for _, name := range sortedKeys(losses) {
		vc.appendLoss(name, step, losses[name])
	}

	vc.lrSteps = append(vc.lrSteps, step)
	vc.learningRates = append(vc.learningRates, lr)
	vc.stepTimes = append(vc.stepTimes, stepTime.Seconds())
}

// RecordEvalStep records evaluation metrics for a step, flattening vector
// metrics into one series per component.
func (vc *VisualizationCollector) RecordEvalStep(step int, metrics map[string]MetricValue) {
	if !vc.enabled {
		return
	}

	for _, entry := range flattenMetrics(metrics) {
		series, ok := vc.evalMetrics[entry.Name]
		if !ok {
			series = &metricSeries{}
			vc.evalMetrics[entry.Name] = series
			vc.evalNames = append(vc.evalNames, entry.Name)
		}
		series.steps = append(series.steps, step)
		series.values = append(series.values, entry.Value)
	}
}

func (vc *VisualizationCollector) appendLoss(name string, step int, value float64) {
	series, ok := vc.losses[name]
	if !ok {
		series = &metricSeries{}
		vc.losses[name] = series
		vc.lossNames = append(vc.lossNames, name)
	}
	series.steps = append(series.steps, step)
	series.values = append(series.values, value)
}

// seriesPalette cycles across plotted series.
var seriesPalette = []string{"#FF6B6B", "#4ECDC4", "#FF9F43", "#5F27CD", "#6C5CE7", "#10AC84"}

// GenerateTrainingCurvesPlot generates the smoothed loss curves plot.
func (vc *VisualizationCollector) GenerateTrainingCurvesPlot() PlotData {
	series := make([]SeriesData, 0, len(vc.lossNames))
	names := append([]string(nil), vc.lossNames...)
	sort.Strings(names)

	for i, name := range names {
		ms := vc.losses[name]
		data := make([]DataPoint, len(ms.values))
		for j, v := range ms.values {
			data[j] = DataPoint{X: ms.steps[j], Y: v}
		}
		series = append(series, SeriesData{
			Name: name,
			Type: "line",
			Data: data,
			Style: map[string]interface{}{
				"color":      seriesPalette[i%len(seriesPalette)],
				"line_width": 2,
			},
		})
	}

	return PlotData{
		PlotType:  TrainingCurves,
		Title:     fmt.Sprintf("Training Curves - %s", vc.modelName),
		Timestamp: time.Now(),
		ModelName: vc.modelName,
		Series:    series,
		Config: PlotConfig{
			XAxisLabel:  "Step",
			YAxisLabel:  "Smoothed Loss",
			XAxisScale:  "linear",
			YAxisScale:  "linear",
			ShowLegend:  true,
			ShowGrid:    true,
			Width:       800,
			Height:      600,
			Interactive: true,
		},
	}
}

// GenerateLearningRateSchedulePlot generates the learning rate plot.
func (vc *VisualizationCollector) GenerateLearningRateSchedulePlot() PlotData {
	data := make([]DataPoint, len(vc.learningRates))
	for i, lr := range vc.learningRates {
		data[i] = DataPoint{X: vc.lrSteps[i], Y: lr}
	}

	var series []SeriesData
	if len(data) > 0 {
		series = []SeriesData{{
			Name: "Learning Rate",
			Type: "line",
			Data: data,
			Style: map[string]interface{}{
				"color":      "#6C5CE7",
				"line_width": 2,
			},
		}}
	}

	return PlotData{
		PlotType:  LearningRateSchedule,
		Title:     fmt.Sprintf("Learning Rate Schedule - %s", vc.modelName),
		Timestamp: time.Now(),
		ModelName: vc.modelName,
		Series:    series,
		Config: PlotConfig{
			XAxisLabel:  "Step",
			YAxisLabel:  "Learning Rate",
			XAxisScale:  "linear",
			YAxisScale:  "log",
			ShowLegend:  true,
			ShowGrid:    true,
			Width:       800,
			Height:      400,
			Interactive: true,
		},
	}
}

// GenerateEvalMetricCurvesPlot generates one series per evaluation metric.
func (vc *VisualizationCollector) GenerateEvalMetricCurvesPlot() PlotData {
	series := make([]SeriesData, 0, len(vc.evalNames))
	names := append([]string(nil), vc.evalNames...)
	sort.Strings(names)

	for i, name := range names {
		ms := vc.evalMetrics[name]
		data := make([]DataPoint, len(ms.values))
		for j, v := range ms.values {
			data[j] = DataPoint{X: ms.steps[j], Y: v}
		}
		series = append(series, SeriesData{
			Name: name,
			Type: "line",
			Data: data,
			Style: map[string]interface{}{
				"color":      seriesPalette[i%len(seriesPalette)],
				"line_width": 2,
				"line_style": "dashed",
			},
		})
	}

	return PlotData{
		PlotType:  EvalMetricCurves,
		Title:     fmt.Sprintf("Evaluation Metrics - %s", vc.modelName),
		Timestamp: time.Now(),
		ModelName: vc.modelName,
		Series:    series,
		Config: PlotConfig{
			XAxisLabel:  "Step",
			YAxisLabel:  "Metric Value",
			XAxisScale:  "linear",
			YAxisScale:  "linear",
			ShowLegend:  true,
			ShowGrid:    true,
			Width:       800,
			Height:      600,
			Interactive: true,
		},
	}
}

// GenerateStepTimePlot generates the seconds-per-step plot.
func (vc *VisualizationCollector) GenerateStepTimePlot() PlotData {
	data := make([]DataPoint, len(vc.stepTimes))
	for i, st := range vc.stepTimes {
		data[i] = DataPoint{X: vc.lrSteps[i], Y: st}
	}

	var series []SeriesData
	if len(data) > 0 {
		series = []SeriesData{{
			Name: "sec/step",
			Type: "line",
			Data: data,
			Style: map[string]interface{}{
				"color":      "#10AC84",
				"line_width": 1,
			},
		}}
	}

	return PlotData{
		PlotType:  StepTimePlot,
		Title:     fmt.Sprintf("Step Time - %s", vc.modelName),
		Timestamp: time.Now(),
		ModelName: vc.modelName,
		Series:    series,
		Config: PlotConfig{
			XAxisLabel:  "Step",
			YAxisLabel:  "Seconds",
			XAxisScale:  "linear",
			YAxisScale:  "linear",
			ShowLegend:  false,
			ShowGrid:    true,
			Width:       800,
			Height:      400,
			Interactive: true,
		},
	}
}

// ToJSON converts plot data to JSON string
func (pd PlotData) ToJSON() (string, error) {
	jsonData, err := json.MarshalIndent(pd, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal plot data to JSON: %w", err)
	}
	return string(jsonData), nil
}

// Clear resets all collected data
func (vc *VisualizationCollector) Clear() {
	vc.losses = make(map[string]*metricSeries)
	vc.lossNames = nil
	vc.lrSteps = nil
	vc.learningRates = nil
	vc.stepTimes = nil
	vc.evalMetrics = make(map[string]*metricSeries)
	vc.evalNames = nil
}

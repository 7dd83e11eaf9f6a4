package training

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// PlottingService handles communication with the sidecar plotting application.
// The sidecar renders the PlotData payloads; this client only ships them.
type PlottingService struct {
	baseURL    string
	httpClient *http.Client
	retryDelay time.Duration
	maxRetries int
	enabled    bool
}

// PlottingServiceConfig contains configuration for the plotting service
type PlottingServiceConfig struct {
	BaseURL       string        `json:"base_url"`
	Timeout       time.Duration `json:"timeout"`
	RetryAttempts int           `json:"retry_attempts"`
	RetryDelay    time.Duration `json:"retry_delay"`
}

// PlottingResponse represents the response from the plotting service
type PlottingResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	PlotURL      string `json:"plot_url,omitempty"`
	ViewURL      string `json:"view_url,omitempty"`
	PlotID       string `json:"plot_id,omitempty"`
	BatchID      string `json:"batch_id,omitempty"`
	DashboardURL string `json:"dashboard_url,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
}

// BatchPlottingResponse represents the response from the batch plotting endpoint
type BatchPlottingResponse struct {
	Success      bool              `json:"success"`
	Message      string            `json:"message"`
	BatchID      string            `json:"batch_id,omitempty"`
	Results      []BatchPlotResult `json:"results,omitempty"`
	DashboardURL string            `json:"dashboard_url,omitempty"`
	Summary      BatchSummary      `json:"summary,omitempty"`
}

// BatchPlotResult represents a single plot result within a batch response
type BatchPlotResult struct {
	Success   bool   `json:"success"`
	PlotID    string `json:"plot_id,omitempty"`
	PlotURL   string `json:"plot_url,omitempty"`
	ViewURL   string `json:"view_url,omitempty"`
	PlotType  string `json:"plot_type,omitempty"`
	Message   string `json:"message,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

// BatchSummary represents the summary of a batch operation
type BatchSummary struct {
	TotalPlots int `json:"total_plots"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// DefaultPlottingServiceConfig returns default configuration for the plotting service
func DefaultPlottingServiceConfig() PlottingServiceConfig {
	return PlottingServiceConfig{
		BaseURL:       "http://localhost:8080",
		Timeout:       30 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    1 * time.Second,
	}
}

// NewPlottingService creates a new plotting service client
func NewPlottingService(config PlottingServiceConfig) *PlottingService {
	return &PlottingService{
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		retryDelay: config.RetryDelay,
		maxRetries: config.RetryAttempts,
		enabled:    false,
	}
}

// Enable enables the plotting service
func (ps *PlottingService) Enable() {
	ps.enabled = true
}

// Disable disables the plotting service
func (ps *PlottingService) Disable() {
	ps.enabled = false
}

// IsEnabled returns whether the plotting service is enabled
func (ps *PlottingService) IsEnabled() bool {
	return ps.enabled
}

// SendPlotData sends plot data to the sidecar plotting service
func (ps *PlottingService) SendPlotData(plotData PlotData) (*PlottingResponse, error) {
	if !ps.enabled {
		return &PlottingResponse{
			Success: false,
			Message: "Plotting service is disabled",
		}, nil
	}

	jsonData, err := json.Marshal(plotData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plot data: %w", err)
	}

	url := fmt.Sprintf("%s/api/plot", ps.baseURL)
	plotResponse, err := ps.post(url, jsonData)
	if err != nil {
		return plotResponse, err
	}

	return plotResponse, nil
}

// SendPlotDataWithRetry sends plot data, retrying transient failures with
// exponential backoff.
func (ps *PlottingService) SendPlotDataWithRetry(plotData PlotData) (*PlottingResponse, error) {
	if !ps.enabled {
		return &PlottingResponse{
			Success: false,
			Message: "Plotting service is disabled",
		}, nil
	}

	var resp *PlottingResponse
	operation := func() error {
		var err error
		resp, err = ps.SendPlotData(plotData)
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = ps.retryDelay

	if err := backoff.Retry(operation, backoff.WithMaxRetries(bo, uint64(ps.maxRetries))); err != nil {
		return nil, fmt.Errorf("failed to send plot data after %d attempts: %w", ps.maxRetries+1, err)
	}
	return resp, nil
}

// CheckHealth checks if the plotting service is available
func (ps *PlottingService) CheckHealth() error {
	if !ps.enabled {
		return fmt.Errorf("plotting service is disabled")
	}

	url := fmt.Sprintf("%s/health", ps.baseURL)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := ps.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send health check request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status %d", resp.StatusCode)
	}

	return nil
}

// GenerateAndSendPlot generates a plot from the collector and sends it to
// the sidecar service.
func (ps *PlottingService) GenerateAndSendPlot(collector *VisualizationCollector, plotType PlotType) (*PlottingResponse, error) {
	if !ps.enabled {
		return &PlottingResponse{
			Success: false,
			Message: "Plotting service is disabled",
		}, nil
	}

	var plotData PlotData

	switch plotType {
	case TrainingCurves:
		plotData = collector.GenerateTrainingCurvesPlot()
	case LearningRateSchedule:
		plotData = collector.GenerateLearningRateSchedulePlot()
	case EvalMetricCurves:
		plotData = collector.GenerateEvalMetricCurvesPlot()
	case StepTimePlot:
		plotData = collector.GenerateStepTimePlot()
	default:
		return nil, fmt.Errorf("unsupported plot type: %s", plotType)
	}

	if len(plotData.Series) == 0 {
		return &PlottingResponse{
			Success: false,
			Message: fmt.Sprintf("No data available for plot type: %s", plotType),
		}, nil
	}

	return ps.SendPlotData(plotData)
}

// GenerateAndSendAllPlots generates every available plot and sends them to
// the sidecar service, one response per plot type.
func (ps *PlottingService) GenerateAndSendAllPlots(collector *VisualizationCollector) map[PlotType]*PlottingResponse {
	results := make(map[PlotType]*PlottingResponse)

	if !ps.enabled {
		return results
	}

	plotTypes := []PlotType{
		TrainingCurves,
		LearningRateSchedule,
		EvalMetricCurves,
		StepTimePlot,
	}

	for _, plotType := range plotTypes {
		resp, err := ps.GenerateAndSendPlot(collector, plotType)
		if err != nil {
			results[plotType] = &PlottingResponse{
				Success: false,
				Message: err.Error(),
			}
		} else {
			results[plotType] = resp
		}
	}

	return results
}

// BatchSendPlots sends multiple plots in a single request
func (ps *PlottingService) BatchSendPlots(plotDataList []PlotData) (*BatchPlottingResponse, error) {
	if !ps.enabled {
		return &BatchPlottingResponse{
			Success: false,
			Message: "Plotting service is disabled",
		}, nil
	}

	batchPayload := map[string]interface{}{
		"plots": plotDataList,
		"batch": true,
	}

	jsonData, err := json.Marshal(batchPayload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch plot data: %w", err)
	}

	url := fmt.Sprintf("%s/api/batch-plot", ps.baseURL)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create batch HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "trainkit-training")

	resp, err := ps.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send batch HTTP request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch response body: %w", err)
	}

	var batchResponse BatchPlottingResponse
	if err := json.Unmarshal(respBody, &batchResponse); err != nil {
		return nil, fmt.Errorf("failed to parse batch response JSON: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &batchResponse, fmt.Errorf("batch HTTP request failed with status %d: %s", resp.StatusCode, batchResponse.Message)
	}

	return &batchResponse, nil
}

// post sends a JSON payload and decodes the standard plotting response.
func (ps *PlottingService) post(url string, jsonData []byte) (*PlottingResponse, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "trainkit-training")

	resp, err := ps.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var plotResponse PlottingResponse
	if err := json.Unmarshal(respBody, &plotResponse); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &plotResponse, fmt.Errorf("HTTP request failed with status %d: %s", resp.StatusCode, plotResponse.Message)
	}

	return &plotResponse, nil
}

package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"demand-dashboard/internal/features"
	"demand-dashboard/internal/metrics"
	"demand-dashboard/internal/ml"
	"demand-dashboard/internal/predict"
)

// PredictionRequest is the body of POST /api/predict. A null feature is a
// field the user left empty.
type PredictionRequest struct {
	Model    string     `json:"model"`
	Features []*float64 `json:"features"`
}

// PredictionResponse is the answer to POST /api/predict.
type PredictionResponse struct {
	OK           bool      `json:"ok"`
	Message      string    `json:"message"`
	Quantity     float64   `json:"quantity"`
	Model        string    `json:"model"`
	ModelVersion string    `json:"model_version,omitempty"`
	Stage        string    `json:"stage,omitempty"`
	Latency      float64   `json:"latency_ms"`
	Timestamp    time.Time `json:"timestamp"`
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Healthy     bool      `json:"healthy"`
	Models      int       `json:"models"`
	DatasetRows int       `json:"dataset_rows"`
	ErrorRate   float64   `json:"error_rate"`
	Timestamp   time.Time `json:"timestamp"`
}

// outcome classifies a result for the predictions_total counter.
func outcome(res predict.Result) string {
	switch {
	case res.OK():
		return metrics.OutcomeSuccess
	case errors.Is(res.Err, predict.ErrIncompleteInput):
		return metrics.OutcomeIncomplete
	default:
		return metrics.OutcomeError
	}
}

// observe records and logs a finished prediction and hands the result back.
func (s *Server) observe(model string, res predict.Result, latency time.Duration) predict.Result {
	label := model
	if _, err := ml.ParseModel(model); err != nil {
		label = "unknown"
	}
	out := outcome(res)
	s.opts.Recorder.PredictionObserved(label, out, latency)

	switch out {
	case metrics.OutcomeError:
		log.Warn().
			Err(res.Err).
			Str("model", model).
			Dur("latency", latency).
			Msg("Prediction failed")
	default:
		log.Info().
			Str("model", model).
			Str("outcome", out).
			Float64("quantity", res.Quantity).
			Dur("latency", latency).
			Msg("Prediction served")
	}
	return res
}

func (s *Server) modelVersion(model string) string {
	for _, m := range s.opts.Models.Models() {
		if m.Name == model {
			return m.Version
		}
	}
	return ""
}

func (s *Server) handleAPIPredict(w http.ResponseWriter, r *http.Request) {
	var req PredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if len(req.Features) != features.SlotCount {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("expected %d features, got %d", features.SlotCount, len(req.Features)))
		return
	}

	var values features.Values
	copy(values[:], req.Features)

	start := time.Now()
	res := s.observe(req.Model, s.predictor.Predict(req.Model, values), time.Since(start))
	latency := time.Since(start)

	resp := PredictionResponse{
		OK:           res.OK(),
		Message:      res.Message(),
		Model:        req.Model,
		ModelVersion: s.modelVersion(req.Model),
		Latency:      float64(latency.Microseconds()) / 1000,
		Timestamp:    time.Now().UTC(),
	}
	if res.OK() {
		resp.Quantity = res.Quantity
	}
	var cerr *predict.ComputationError
	if errors.As(res.Err, &cerr) {
		resp.Stage = cerr.Stage
	}

	status := http.StatusOK
	if !res.OK() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleAPIModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Models.Models())
}

func (s *Server) handleAPIDataset(w http.ResponseWriter, r *http.Request) {
	p, err := s.opts.Dataset.Page(pageParam(r), s.opts.PageSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read dataset page")
		s.opts.Recorder.ErrorObserved()
		writeJSONError(w, http.StatusInternalServerError, "dataset unavailable")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{
		Healthy:     true,
		Models:      len(s.opts.Models.Models()),
		DatasetRows: s.opts.Dataset.Len(),
		ErrorRate:   metrics.ErrorRate(s.opts.Gatherer),
		Timestamp:   time.Now().UTC(),
	}
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleReportDownload(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.reporter.WriteSummary(&buf); err != nil {
		log.Error().Err(err).Msg("Failed to build report")
		s.opts.Recorder.ErrorObserved()
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.opts.ReportName))
	buf.WriteTo(w)
}

func (s *Server) handleReportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.reporter.WriteMetricsCSV(&buf); err != nil {
		log.Error().Err(err).Msg("Failed to build metrics CSV")
		s.opts.Recorder.ErrorObserved()
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="model_metrics.csv"`)
	buf.WriteTo(w)
}

func (s *Server) handleReportJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reporter.JSON())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write JSON response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

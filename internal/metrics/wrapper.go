package metrics

import "time"

// Recorder is what the presentation layer reports to. It keeps handlers
// testable without a Prometheus registry.
type Recorder interface {
	PredictionObserved(model, outcome string, latency time.Duration)
	PageViewed(page string)
	ErrorObserved()
	DatasetRows(n int)
	WSClientsAdd(delta int)
	ArtifactAge(artifact string, age time.Duration)
}

// MetricsWrapper adapts Metrics to Recorder
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) PredictionObserved(model, outcome string, latency time.Duration) {
	w.m.PredictionsTotal.WithLabelValues(model, outcome).Inc()
	w.m.PredictionLatency.Observe(latency.Seconds())
	if outcome == OutcomeError {
		w.m.ErrorsTotal.Inc()
	}
}

func (w *MetricsWrapper) PageViewed(page string) {
	w.m.PageViews.WithLabelValues(page).Inc()
}

func (w *MetricsWrapper) ErrorObserved() {
	w.m.ErrorsTotal.Inc()
}

func (w *MetricsWrapper) DatasetRows(n int) {
	w.m.DatasetRows.Set(float64(n))
}

func (w *MetricsWrapper) WSClientsAdd(delta int) {
	w.m.WSClients.Add(float64(delta))
}

func (w *MetricsWrapper) ArtifactAge(artifact string, age time.Duration) {
	w.m.ArtifactAge.WithLabelValues(artifact).Set(age.Seconds())
}

// Nop discards everything
type Nop struct{}

func (Nop) PredictionObserved(string, string, time.Duration) {}
func (Nop) PageViewed(string)                                {}
func (Nop) ErrorObserved()                                   {}
func (Nop) DatasetRows(int)                                  {}
func (Nop) WSClientsAdd(int)                                 {}
func (Nop) ArtifactAge(string, time.Duration)                {}

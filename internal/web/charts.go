package web

import (
	"io"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"demand-dashboard/internal/dataset"
	"demand-dashboard/internal/ml"
)

// Chart names served under /charts/{name}.
const (
	chartHourly     = "hourly"
	chartCategories = "categories"
	chartComparison = "comparison"
)

type chartRenderer interface {
	Render(w io.Writer) error
}

func initOpts(title string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		PageTitle:       title,
		Theme:           types.ThemeChalk,
		Width:           "100%",
		Height:          "380px",
		BackgroundColor: "#1e1e1e",
	})
}

// hourlyChart plots quantity per hour of day, or the placeholder series.
func hourlyChart(sum dataset.Summary) *charts.Line {
	labels, values := sum.HourLabels, sum.HourValues
	title := "Quantity by Hour"
	if len(values) == 0 || sum.HourlySample {
		labels, values = dataset.SampleHourly()
		title = "Quantity by Hour (sample)"
	}

	items := make([]opts.LineData, len(values))
	for i, v := range values {
		items[i] = opts.LineData{Value: v}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		initOpts(title),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Hour"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Quantity"}),
	)
	line.SetXAxis(labels).AddSeries("Quantity", items)
	return line
}

// categoryChart shows the split per country by summed quantity, or by order count
// when the dataset has no Quantity column. Without countries it shows the placeholder split.
func categoryChart(sum dataset.Summary) *charts.Pie {
	labels, values := sum.CategoryLabels, sum.CategoryValues
	measure := sum.CategoryMeasure
	if measure == "" {
		measure = dataset.MeasureQuantity
	}
	title := measure + " by Country"
	if len(values) == 0 || sum.CategorySample {
		labels, values = dataset.SampleCategories()
		title = "Quantity by Segment (sample)"
	}

	items := make([]opts.PieData, len(values))
	for i, v := range values {
		items[i] = opts.PieData{Name: labels[i], Value: v}
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		initOpts(title),
		charts.WithTitleOpts(opts.Title{Title: title}),
	)
	pie.AddSeries("Share", items)
	return pie
}

// comparisonChart groups accuracy and F1 score per model.
func comparisonChart(m ml.Manifest) *charts.Bar {
	names := make([]string, len(m.Models))
	accuracy := make([]opts.BarData, len(m.Models))
	f1 := make([]opts.BarData, len(m.Models))
	for i, v := range m.Models {
		names[i] = v.Name
		accuracy[i] = opts.BarData{Value: v.Metrics.Accuracy}
		f1[i] = opts.BarData{Value: v.Metrics.F1Score}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Model Performance Comparison"),
		charts.WithTitleOpts(opts.Title{Title: "Model Performance Comparison"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Score"}),
	)
	bar.SetXAxis(names).
		AddSeries("Accuracy", accuracy).
		AddSeries("F1 Score", f1)
	return bar
}

func (s *Server) chart(name string) (chartRenderer, bool) {
	switch name {
	case chartHourly:
		return hourlyChart(s.opts.Summary), true
	case chartCategories:
		return categoryChart(s.opts.Summary), true
	case chartComparison:
		return comparisonChart(s.opts.Models.Manifest()), true
	default:
		return nil, false
	}
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	c, ok := s.chart(name)
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(w); err != nil {
		log.Error().Err(err).Str("chart", name).Msg("Failed to render chart")
		s.opts.Recorder.ErrorObserved()
	}
}

package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"demand-dashboard/internal/dataset"
	"demand-dashboard/internal/features"
	"demand-dashboard/internal/ml"
	"demand-dashboard/internal/predict"
	"demand-dashboard/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page names double as the page_views_total label and the template file name.
const (
	pageOverview = "overview"
	pagePredict  = "predict"
	pageDataset  = "dataset"
	pageAnalysis = "analysis"
	pageNotFound = "notfound"
)

var templateFuncs = template.FuncMap{
	"add":    func(a, b int) int { return a + b },
	"metric": func(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) },
}

func parseTemplates() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{pageOverview, pagePredict, pageDataset, pageAnalysis, pageNotFound} {
		t, err := template.New("layout.html").
			Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// page carries the layout fields shared by every view.
type page struct {
	Title  string
	Active string
}

// render executes a page into a buffer first so a template error never sends half a page.
func (s *Server) render(w http.ResponseWriter, name string, status int, data any) {
	t, ok := s.pages[name]
	if !ok {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		log.Error().Err(err).Str("page", name).Msg("Failed to render page")
		s.opts.Recorder.ErrorObserved()
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Debug().Err(err).Str("page", name).Msg("Client went away")
	}
	s.opts.Recorder.PageViewed(name)
}

type card struct {
	Icon  string
	Title string
	Value string
}

type overviewView struct {
	page
	Cards          []card
	ReportName     string
	HourlySample   bool
	CategorySample bool
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	sum := s.opts.Summary
	view := overviewView{
		page:           page{Title: "Dashboard Overview", Active: pageOverview},
		ReportName:     s.opts.ReportName,
		HourlySample:   sum.HourlySample || len(sum.HourValues) == 0,
		CategorySample: sum.CategorySample || len(sum.CategoryValues) == 0,
	}

	view.Cards = []card{
		{Icon: "⚡", Title: "Total Quantity", Value: orNA(sum.TotalQuantity > 0, strconv.FormatFloat(sum.TotalQuantity, 'f', 0, 64))},
		{Icon: "🌍", Title: "Countries", Value: orNA(sum.Countries > 0, strconv.Itoa(sum.Countries))},
		{Icon: "🏆", Title: "Best Model", Value: "n/a"},
	}
	if ranked := s.opts.Models.Manifest().Ranked(); len(ranked) > 0 {
		view.Cards[2].Value = fmt.Sprintf("%s (F1 %.3f)", ranked[0].Name, ranked[0].Metrics.F1Score)
	}

	s.render(w, pageOverview, http.StatusOK, view)
}

func orNA(ok bool, v string) string {
	if !ok {
		return "n/a"
	}
	return v
}

type predictView struct {
	page
	Models    []string
	Model     string
	Selected  bool
	Ready     bool
	CanSubmit bool
	Fields    []fieldView
	Result    *resultView
}

func (s *Server) predictView(sess *session, res *resultView) predictView {
	return predictView{
		page:      page{Title: "Quantity Prediction", Active: pagePredict},
		Models:    ml.ModelNames(),
		Model:     sess.form.Model,
		Selected:  sess.form.Selected,
		Ready:     sess.form.IsReady(),
		CanSubmit: sess.form.CanSubmit(),
		Fields:    sess.fields(),
		Result:    res,
	}
}

func (s *Server) handlePredictPage(w http.ResponseWriter, r *http.Request) {
	sess := newSession(r.URL.Query().Get("model"))
	s.render(w, pagePredict, http.StatusOK, s.predictView(sess, nil))
}

// handlePredictSubmit serves the form without JavaScript. action=select only
// switches the model; anything else runs a prediction on the submitted values.
func (s *Server) handlePredictSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	model := r.PostForm.Get("model")
	sess := newSession(model)
	if r.PostForm.Get("action") == "select" {
		s.render(w, pagePredict, http.StatusOK, s.predictView(sess, nil))
		return
	}

	var raw [features.SlotCount]string
	for i, f := range sess.form.Fields {
		raw[i] = r.PostForm.Get(f.ID)
	}
	sess.fill(raw)

	res := s.runPrediction(model, raw)
	s.render(w, pagePredict, http.StatusOK, s.predictView(sess, newResultView(res)))
}

type datasetView struct {
	page
	Data     dataset.Page
	Empty    bool
	PrevPage int
	NextPage int
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	number := pageParam(r)
	p, err := s.opts.Dataset.Page(number, s.opts.PageSize)
	if err != nil {
		log.Error().Err(err).Int("page", number).Msg("Failed to read dataset page")
		s.opts.Recorder.ErrorObserved()
		p = dataset.Page{Number: 1, Pages: 1, Size: s.opts.PageSize}
	}

	view := datasetView{
		page:     page{Title: "Dataset Viewer", Active: pageDataset},
		Data:     p,
		Empty:    p.TotalRows == 0 || len(p.Columns) == 0,
		PrevPage: p.Number - 1,
		NextPage: p.Number + 1,
	}
	s.render(w, pageDataset, http.StatusOK, view)
}

// pageParam reads ?page=; anything unparsable is the first page.
func pageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 1
	}
	return n
}

type matrixCell struct {
	Value int
	Style template.CSS
}

type matrixRow struct {
	Label string
	Cells []matrixCell
}

type matrixView struct {
	Model   string
	Columns []string
	Rows    []matrixRow
}

type analysisView struct {
	page
	Models []report.ModelRow
	Best   string
	Matrix matrixView
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	rep := s.reporter.JSON()
	view := analysisView{
		page:   page{Title: "Model Analysis", Active: pageAnalysis},
		Models: rep.Models,
		Best:   rep.Best,
		Matrix: buildMatrix(rep.ConfusionMatrix),
	}
	s.render(w, pageAnalysis, http.StatusOK, view)
}

// buildMatrix shades every cell by its share of the largest count.
func buildMatrix(cm ml.ConfusionMatrix) matrixView {
	view := matrixView{Model: cm.Model, Columns: cm.Columns}
	peak := cm.Max()
	for i, values := range cm.Values {
		row := matrixRow{Cells: make([]matrixCell, len(values))}
		if i < len(cm.Rows) {
			row.Label = cm.Rows[i]
		}
		for j, v := range values {
			alpha := 0.0
			if peak > 0 {
				alpha = 0.15 + 0.85*float64(v)/float64(peak)
			}
			row.Cells[j] = matrixCell{
				Value: v,
				Style: template.CSS(fmt.Sprintf("background-color: rgba(41, 128, 185, %.2f)", alpha)),
			}
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, pageNotFound, http.StatusNotFound, page{Title: "Not Found"})
}

// runPrediction wraps the handler with the logging and metrics the handler itself leaves out.
func (s *Server) runPrediction(model string, raw [features.SlotCount]string) predict.Result {
	start := time.Now()
	res := s.predictor.PredictRaw(model, raw)
	return s.observe(model, res, time.Since(start))
}

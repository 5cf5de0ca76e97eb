package web

import (
	"fmt"

	"demand-dashboard/internal/features"
	"demand-dashboard/internal/metrics"
	"demand-dashboard/internal/predict"
)

// session is the predict form of one browser tab: the form state plus the
// raw text of every input so the page can be re-rendered as typed.
type session struct {
	form predict.Form
	raw  [features.SlotCount]string
}

func newSession(model string) *session {
	return &session{form: predict.SelectModel(model)}
}

// selectModel switches the model and clears every input.
func (s *session) selectModel(name string) {
	s.form = predict.SelectModel(name)
	s.raw = [features.SlotCount]string{}
}

// setInput stores the text of one field. Text that is not a number leaves the slot empty.
func (s *session) setInput(slot int, text string) error {
	if slot < 0 || slot >= features.SlotCount {
		return fmt.Errorf("unknown field %d", slot)
	}
	s.raw[slot] = text
	vs, _ := features.ParseValues(s.raw)
	s.form.Set(features.Slot(slot), vs[slot])
	return nil
}

// fill sets all inputs at once, as a submitted HTML form does.
func (s *session) fill(raw [features.SlotCount]string) {
	for i, text := range raw {
		_ = s.setInput(i, text)
	}
}

type fieldView struct {
	Slot  int    `json:"slot"`
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

func (s *session) fields() []fieldView {
	out := make([]fieldView, len(s.form.Fields))
	for i, f := range s.form.Fields {
		out[i] = fieldView{Slot: int(f.Slot), ID: f.ID, Label: f.Label, Value: s.raw[f.Slot]}
	}
	return out
}

// resultView is a rendered prediction outcome.
type resultView struct {
	OK       bool    `json:"ok"`
	Quantity float64 `json:"quantity,omitempty"`
	Message  string  `json:"message"`
	Class    string  `json:"class"`
}

func newResultView(res predict.Result) *resultView {
	v := &resultView{OK: res.OK(), Quantity: res.Quantity, Message: res.Message(), Class: resultClass(res)}
	if !v.OK {
		v.Quantity = 0
	}
	return v
}

func resultClass(res predict.Result) string {
	switch outcome(res) {
	case metrics.OutcomeSuccess:
		return "result-success"
	case metrics.OutcomeIncomplete:
		return "result-warning"
	default:
		return "result-error"
	}
}

package predict

import (
	"strconv"

	"demand-dashboard/internal/features"
	"demand-dashboard/internal/ml"
)

// Field is one numeric input on the prediction form.
type Field struct {
	Slot  features.Slot
	Label string
	ID    string
}

// Form is the state of the prediction form for one session.
type Form struct {
	Model    string
	Selected bool
	Fields   []Field
	Values   features.Values
}

// SelectModel returns the form layout for modelName with every value cleared.
// The layout is the same for every model; an unknown name leaves the form without a model.
func SelectModel(modelName string) Form {
	f := Form{Fields: formFields()}
	if _, err := ml.ParseModel(modelName); err == nil {
		f.Model = modelName
		f.Selected = true
	}
	return f
}

func formFields() []Field {
	labels := features.Labels()
	fields := make([]Field, features.SlotCount)
	for i, l := range labels {
		fields[i] = Field{Slot: features.Slot(i), Label: l, ID: "f" + strconv.Itoa(i)}
	}
	return fields
}

// Set stores a value for a slot, nil clears it.
func (f *Form) Set(slot features.Slot, v *float64) {
	if slot < 0 || int(slot) >= features.SlotCount {
		return
	}
	f.Values[slot] = v
}

// IsReady reports whether the form can be submitted for a prediction:
// a model is selected and all five slots hold a value.
func (f Form) IsReady() bool {
	if !f.Selected {
		return false
	}
	_, ok := f.Values.Complete()
	return ok
}

// CanSubmit reports whether the submit control is enabled. It only needs a model;
// an incomplete submission is answered with a warning.
func (f Form) CanSubmit() bool {
	return f.Selected
}

package features

import (
	"fmt"
	"strconv"
	"strings"
)

// Slot is a fixed position in the feature vector.
type Slot int

const (
	ProductCode Slot = iota
	UnitPrice
	Hour
	DayOfWeek
	CountryCode

	SlotCount = 5
)

var slotLabels = [SlotCount]string{
	"ProductCode",
	"UnitPrice",
	"Hour",
	"DayOfWeek",
	"CountryCode",
}

// ScaledSlots are the slots the fitted scaler operates on, in scaler column order.
var ScaledSlots = [2]Slot{UnitPrice, CountryCode}

func (s Slot) String() string {
	if s < 0 || int(s) >= SlotCount {
		return fmt.Sprintf("Slot(%d)", int(s))
	}
	return slotLabels[s]
}

// Labels returns the input labels in slot order.
func Labels() [SlotCount]string {
	return slotLabels
}

// IsScaled reports whether the slot goes through the scaler.
func (s Slot) IsScaled() bool {
	return s == ScaledSlots[0] || s == ScaledSlots[1]
}

// Vector is a complete feature vector.
type Vector [SlotCount]float64

// Values holds optional slot values; nil means the user has not filled the slot.
type Values [SlotCount]*float64

// Some returns a pointer to v for building Values literals.
func Some(v float64) *float64 {
	return &v
}

// Complete returns the dense vector if every slot holds a value.
func (vs Values) Complete() (Vector, bool) {
	var out Vector
	for i, v := range vs {
		if v == nil {
			return Vector{}, false
		}
		out[i] = *v
	}
	return out, true
}

// Missing lists the slots without a value.
func (vs Values) Missing() []Slot {
	var missing []Slot
	for i, v := range vs {
		if v == nil {
			missing = append(missing, Slot(i))
		}
	}
	return missing
}

// ValuesFrom wraps a dense vector.
func ValuesFrom(v Vector) Values {
	var vs Values
	for i := range v {
		vs[i] = Some(v[i])
	}
	return vs
}

// ParseError reports a slot whose text is not a number.
type ParseError struct {
	Slot  Slot
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: invalid number %q", e.Slot, e.Input)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseValues converts raw form text into Values. Blank text is a missing slot.
// Every slot is inspected so callers can tell an incomplete form apart from a malformed one.
func ParseValues(raw [SlotCount]string) (Values, error) {
	var (
		vs       Values
		firstErr error
	)
	for i, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			if firstErr == nil {
				firstErr = &ParseError{Slot: Slot(i), Input: s, Err: err}
			}
			continue
		}
		vs[i] = Some(f)
	}
	return vs, firstErr
}

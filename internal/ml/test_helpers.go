package ml

import "sync"

// StubPredictor is a Predictor with a canned response that records its inputs.
type StubPredictor struct {
	mu     sync.Mutex
	Width  int
	Output []float64
	Err    error
	// Panic makes Predict panic with this value when non-nil.
	Panic  any
	calls  int
	inputs [][]float64
}

func (s *StubPredictor) NumFeatures() int {
	if s.Width == 0 {
		return 5
	}
	return s.Width
}

func (s *StubPredictor) Predict(features []float64) ([]float64, error) {
	s.mu.Lock()
	s.calls++
	s.inputs = append(s.inputs, append([]float64(nil), features...))
	s.mu.Unlock()

	if s.Panic != nil {
		panic(s.Panic)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]float64(nil), s.Output...), nil
}

func (s *StubPredictor) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// LastInput returns a copy of the most recent input row.
func (s *StubPredictor) LastInput() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.inputs) == 0 {
		return nil
	}
	return append([]float64(nil), s.inputs[len(s.inputs)-1]...)
}

// StubScaler maps its input to a fixed output and counts calls.
type StubScaler struct {
	mu     sync.Mutex
	Output []float64
	Err    error
	calls  int
	inputs [][]float64
}

func (s *StubScaler) NumFeatures() int { return 2 }

func (s *StubScaler) Transform(values []float64) ([]float64, error) {
	s.mu.Lock()
	s.calls++
	s.inputs = append(s.inputs, append([]float64(nil), values...))
	s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	if s.Output == nil {
		return append([]float64(nil), values...), nil
	}
	return append([]float64(nil), s.Output...), nil
}

func (s *StubScaler) InverseTransform(values []float64) ([]float64, error) {
	return append([]float64(nil), values...), nil
}

func (s *StubScaler) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *StubScaler) LastInput() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.inputs) == 0 {
		return nil
	}
	return append([]float64(nil), s.inputs[len(s.inputs)-1]...)
}

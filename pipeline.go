package expt

import (
	"fmt"

	"github.com/micromics/expt/internal/monitoring"
)

// Transformer is one named step in a transform chain. Steps are
// configuration structs — LogNStep, ScaleStep, NormalizeStep and friends —
// whose fields replace the stringly-keyed parameter routing a dynamic
// language would use. Steps cannot carry an in-place flag: whether the
// chain mutates its input is decided once, by Transform itself.
type Transformer interface {
	Name() string
	apply(e *Experiment) error
}

// Transform runs the steps in order over the data matrix. With
// inplace=false the chain operates on a deep copy, so a failing step leaves
// the receiver untouched.
func (e *Experiment) Transform(steps []Transformer, inplace bool) (*Experiment, error) {
	out := e.target(inplace)
	for _, s := range steps {
		monitoring.Debugf("transform step %s", s.Name())
		if err := s.apply(out); err != nil {
			return nil, fmt.Errorf("transform step %s: %w", s.Name(), err)
		}
	}
	return out, nil
}

// LogNStep applies LogN. A zero floor means the default of 1.
type LogNStep struct {
	N float64
}

func (s LogNStep) Name() string { return "log_n" }

func (s LogNStep) apply(e *Experiment) error {
	n := s.N
	if n == 0 {
		n = 1
	}
	_, err := e.LogN(n, true)
	return err
}

// ScaleStep z-scores along the configured axis.
type ScaleStep struct {
	Axis Axis
}

func (s ScaleStep) Name() string { return "scale" }

func (s ScaleStep) apply(e *Experiment) error {
	_, err := e.Scale(s.Axis, true)
	return err
}

// BinarizeStep thresholds the data to presence/absence.
type BinarizeStep struct {
	Threshold float64
}

func (s BinarizeStep) Name() string { return "binarize" }

func (s BinarizeStep) apply(e *Experiment) error {
	_, err := e.Binarize(s.Threshold, true)
	return err
}

// NormalizeStep normalizes per-sample (or per-feature) sums. A zero total
// means the default of 10000.
type NormalizeStep struct {
	Total float64
	Axis  Axis
}

func (s NormalizeStep) Name() string { return "normalize" }

func (s NormalizeStep) apply(e *Experiment) error {
	total := s.Total
	if total == 0 {
		total = 10000
	}
	_, err := e.Normalize(total, s.Axis, true)
	return err
}

// RescaleStep rescales the whole matrix by one scalar. A zero total means
// the default of 10000.
type RescaleStep struct {
	Total float64
	Axis  Axis
}

func (s RescaleStep) Name() string { return "rescale" }

func (s RescaleStep) apply(e *Experiment) error {
	total := s.Total
	if total == 0 {
		total = 10000
	}
	_, err := e.Rescale(total, s.Axis, true)
	return err
}

package expt

import (
	"fmt"

	"github.com/micromics/expt/internal/monitoring"
)

// Reorder is the single primitive underlying every sort and filter: it
// selects matrix rows (axis Samples) or columns (axis Features) at the
// given positions, in the given order, and selects the same-axis metadata
// table identically. positions need not be a permutation — omitted
// positions are dropped — but must not repeat, which would duplicate an
// identifier. The opposite-axis metadata table is untouched.
func (e *Experiment) Reorder(positions []int, axis Axis, inplace bool) (*Experiment, error) {
	if err := axis.valid(); err != nil {
		return nil, err
	}
	n := e.axisLen(axis)
	for _, p := range positions {
		if p < 0 || p >= n {
			return nil, fmt.Errorf("%w: position %d outside [0,%d)", ErrInvalidParameter, p, n)
		}
	}
	md, err := e.metadataFor(axis).Select(positions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}

	out := e.target(inplace)
	if axis == Samples {
		out.Data = out.Data.SelectRows(positions)
		out.SampleMetadata = md
	} else {
		out.Data = out.Data.SelectCols(positions)
		out.FeatureMetadata = md
	}
	return out, nil
}

// ReorderMask selects the positions where keep is true. The mask length
// must equal the axis extent.
func (e *Experiment) ReorderMask(keep []bool, axis Axis, inplace bool) (*Experiment, error) {
	if err := axis.valid(); err != nil {
		return nil, err
	}
	if len(keep) != e.axisLen(axis) {
		return nil, fmt.Errorf("%w: mask length %d for %d %s",
			ErrInvalidParameter, len(keep), e.axisLen(axis), axis)
	}
	positions := make([]int, 0, len(keep))
	for i, k := range keep {
		if k {
			positions = append(positions, i)
		}
	}
	return e.Reorder(positions, axis, inplace)
}

// ReorderIDs selects rows/columns by identifier, in the given order.
// Identifiers not present in the experiment are skipped with a warning.
func (e *Experiment) ReorderIDs(ids []string, axis Axis, inplace bool) (*Experiment, error) {
	if err := axis.valid(); err != nil {
		return nil, err
	}
	md := e.metadataFor(axis)
	positions := make([]int, 0, len(ids))
	missing := 0
	for _, id := range ids {
		p, ok := md.Pos(id)
		if !ok {
			missing++
			continue
		}
		positions = append(positions, p)
	}
	if missing > 0 {
		monitoring.Warnf("%d of %d identifiers not in experiment", missing, len(ids))
	}
	return e.Reorder(positions, axis, inplace)
}

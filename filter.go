package expt

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/micromics/expt/internal/monitoring"
)

// FilterByMetadata keeps the samples/features whose metadata field value is
// in values. negate inverts the selection. Matching zero entries is legal
// and yields an experiment with zero rows/columns on that axis.
func (e *Experiment) FilterByMetadata(field string, values []string, axis Axis, negate, inplace bool) (*Experiment, error) {
	want := make(map[string]bool, len(values))
	for _, v := range values {
		want[v] = true
	}
	return e.FilterByMetadataFunc(field, func(col []string) []bool {
		keep := make([]bool, len(col))
		for i, v := range col {
			keep[i] = want[v]
		}
		return keep
	}, axis, negate, inplace)
}

// FilterByMetadataFunc is FilterByMetadata with a predicate over the whole
// metadata column instead of a value set.
func (e *Experiment) FilterByMetadataFunc(field string, pred func(values []string) []bool, axis Axis, negate, inplace bool) (*Experiment, error) {
	if err := axis.valid(); err != nil {
		return nil, err
	}
	col, err := e.metadataFor(axis).Column(field)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	keep := pred(col)
	if len(keep) != len(col) {
		return nil, fmt.Errorf("%w: predicate returned %d values for %d rows",
			ErrInvalidParameter, len(keep), len(col))
	}
	if negate {
		for i := range keep {
			keep[i] = !keep[i]
		}
	}
	return e.ReorderMask(keep, axis, inplace)
}

// DataStat summarizes one row/column vector into a scalar.
type DataStat func(vec []float64) float64

// SumAbundance is the total of a vector, the default filtering statistic.
func SumAbundance(vec []float64) float64 {
	var s float64
	for _, v := range vec {
		s += v
	}
	return s
}

// MeanAbundance is the mean of a vector.
func MeanAbundance(vec []float64) float64 {
	if len(vec) == 0 {
		return 0
	}
	return SumAbundance(vec) / float64(len(vec))
}

// FilterByData keeps the samples/features whose summary statistic meets the
// cutoff. key is "sum_abundance" or "mean_abundance"; use
// FilterByDataFunc for a custom statistic. The comparison is inclusive:
// entries with statistic exactly equal to cutoff are kept.
func (e *Experiment) FilterByData(key string, axis Axis, cutoff float64, inplace bool) (*Experiment, error) {
	var stat DataStat
	switch key {
	case "sum_abundance":
		stat = SumAbundance
	case "mean_abundance":
		stat = MeanAbundance
	default:
		return nil, fmt.Errorf("%w: unknown data filter key %q", ErrInvalidParameter, key)
	}
	return e.FilterByDataFunc(stat, axis, cutoff, inplace)
}

// FilterByDataFunc keeps the rows/columns for which stat(vector) >= cutoff.
func (e *Experiment) FilterByDataFunc(stat DataStat, axis Axis, cutoff float64, inplace bool) (*Experiment, error) {
	if err := axis.valid(); err != nil {
		return nil, err
	}
	n := e.axisLen(axis)
	keep := make([]bool, n)
	var buf []float64
	for i := 0; i < n; i++ {
		if axis == Samples {
			buf = e.Data.Row(buf, i)
		} else {
			buf = e.Data.Col(buf, i)
		}
		keep[i] = stat(buf) >= cutoff
	}
	return e.ReorderMask(keep, axis, inplace)
}

// FilterIDs keeps the listed identifiers, in the listed order. With negate,
// the listed identifiers are removed and the rest keep their original
// order. Identifiers not present are ignored.
func (e *Experiment) FilterIDs(ids []string, axis Axis, negate, inplace bool) (*Experiment, error) {
	if err := axis.valid(); err != nil {
		return nil, err
	}
	if !negate {
		return e.ReorderIDs(ids, axis, inplace)
	}
	md := e.metadataFor(axis)
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	keep := make([]bool, md.Len())
	for i := range keep {
		keep[i] = !drop[md.ID(i)]
	}
	return e.ReorderMask(keep, axis, inplace)
}

// FilterMinAbundance keeps features whose total abundance is at least min.
func (e *Experiment) FilterMinAbundance(min float64, inplace bool) (*Experiment, error) {
	return e.FilterByData("sum_abundance", Features, min, inplace)
}

// FilterPrevalence keeps features present (value > 0) in at least the given
// fraction of samples.
func (e *Experiment) FilterPrevalence(fraction float64, inplace bool) (*Experiment, error) {
	nSamples, _ := e.Shape()
	return e.FilterByDataFunc(func(vec []float64) float64 {
		if nSamples == 0 {
			return 0
		}
		present := 0
		for _, v := range vec {
			if v > 0 {
				present++
			}
		}
		return float64(present) / float64(nSamples)
	}, Features, fraction, inplace)
}

// FilterMean keeps features whose mean fraction of the per-sample totals is
// at least cutoff.
func (e *Experiment) FilterMean(cutoff float64, inplace bool) (*Experiment, error) {
	fracs := e.meanFractions()
	_, nFeatures := e.Shape()
	keep := make([]bool, nFeatures)
	for j, f := range fracs {
		keep[j] = f >= cutoff
	}
	return e.ReorderMask(keep, Features, inplace)
}

// meanFractions returns, per feature, the mean over samples of the feature's
// fraction of its sample total. All-zero samples contribute zero.
func (e *Experiment) meanFractions() []float64 {
	nSamples, nFeatures := e.Shape()
	sums := e.Data.RowSums()
	fracs := make([]float64, nFeatures)
	var buf []float64
	for i := 0; i < nSamples; i++ {
		if sums[i] == 0 {
			continue
		}
		buf = e.Data.Row(buf, i)
		for j, v := range buf {
			fracs[j] += v / sums[i]
		}
	}
	if nSamples > 0 {
		for j := range fracs {
			fracs[j] /= float64(nSamples)
		}
	}
	return fracs
}

// Downsample equalizes group sizes along the axis: rows/columns are grouped
// by their metadata field value and each group is randomly subsampled
// without replacement to numKeep members (numKeep == 0 means the size of
// the smallest group). Output keeps the original relative order. rnd may be
// nil for an unseeded source; tests pass a fixed seed.
func (e *Experiment) Downsample(field string, axis Axis, numKeep int, rnd *rand.Rand, inplace bool) (*Experiment, error) {
	if err := axis.valid(); err != nil {
		return nil, err
	}
	col, err := e.metadataFor(axis).Column(field)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	groups := make(map[string][]int)
	var order []string
	for i, v := range col {
		if _, seen := groups[v]; !seen {
			order = append(order, v)
		}
		groups[v] = append(groups[v], i)
	}
	if len(groups) == 0 {
		return e.Reorder(nil, axis, inplace)
	}

	smallest := -1
	for _, g := range groups {
		if smallest < 0 || len(g) < smallest {
			smallest = len(g)
		}
	}
	if numKeep < 0 {
		return nil, fmt.Errorf("%w: num_keep %d is negative", ErrInvalidParameter, numKeep)
	}
	if numKeep == 0 {
		numKeep = smallest
	}
	if numKeep > smallest {
		return nil, fmt.Errorf("%w: num_keep %d exceeds smallest group size %d",
			ErrInvalidParameter, numKeep, smallest)
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}

	monitoring.Debugf("downsampling %d groups of %q to %d members", len(groups), field, numKeep)
	positions := make([]int, 0, numKeep*len(groups))
	for _, v := range order {
		g := groups[v]
		picks := rnd.Perm(len(g))[:numKeep]
		sort.Ints(picks)
		for _, p := range picks {
			positions = append(positions, g[p])
		}
	}
	return e.Reorder(positions, axis, inplace)
}

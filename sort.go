package expt

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/micromics/expt/internal/hclust"
	"github.com/micromics/expt/internal/monitoring"
	"github.com/micromics/expt/matrix"
)

// argsortStable returns positions that order values ascending, preserving
// the original relative order of ties.
func argsortStable(values []float64) []int {
	pos := make([]int, len(values))
	for i := range pos {
		pos[i] = i
	}
	sort.SliceStable(pos, func(a, b int) bool { return values[pos[a]] < values[pos[b]] })
	return pos
}

// logMean is the default sorting statistic: clamp below 1, log2, mean.
func logMean(vec []float64) float64 {
	var s float64
	for _, v := range vec {
		if v < 1 {
			v = 1
		}
		s += math.Log2(v)
	}
	if len(vec) == 0 {
		return 0
	}
	return s / float64(len(vec))
}

// prevalence is the fraction of strictly positive entries.
func prevalence(vec []float64) float64 {
	if len(vec) == 0 {
		return 0
	}
	n := 0
	for _, v := range vec {
		if v > 0 {
			n++
		}
	}
	return float64(n) / float64(len(vec))
}

// SortByData stable-sorts samples (axis Samples) or features (axis
// Features) ascending by a per-vector statistic. key is "log_mean",
// "prevalence" or "mean"; subset, when non-nil, restricts the statistic to
// those positions of the opposite axis. reverse flips to descending.
func (e *Experiment) SortByData(key string, axis Axis, subset []int, reverse, inplace bool) (*Experiment, error) {
	var stat DataStat
	switch key {
	case "log_mean", "":
		stat = logMean
	case "prevalence":
		stat = prevalence
	case "mean":
		stat = MeanAbundance
	default:
		return nil, fmt.Errorf("%w: unknown sort key %q", ErrInvalidParameter, key)
	}
	return e.SortByDataFunc(stat, axis, subset, reverse, inplace)
}

// SortByDataFunc is SortByData with a caller-supplied statistic.
func (e *Experiment) SortByDataFunc(stat DataStat, axis Axis, subset []int, reverse, inplace bool) (*Experiment, error) {
	if err := axis.valid(); err != nil {
		return nil, err
	}
	working := e.Data
	if subset != nil {
		opp := e.axisLen(1 - axis)
		for _, p := range subset {
			if p < 0 || p >= opp {
				return nil, fmt.Errorf("%w: subset position %d outside [0,%d)", ErrInvalidParameter, p, opp)
			}
		}
		if axis == Samples {
			working = e.Data.SelectCols(subset)
		} else {
			working = e.Data.SelectRows(subset)
		}
	}
	n := e.axisLen(axis)
	values := make([]float64, n)
	var buf []float64
	for i := 0; i < n; i++ {
		if axis == Samples {
			buf = working.Row(buf, i)
		} else {
			buf = working.Col(buf, i)
		}
		values[i] = stat(buf)
	}
	pos := argsortStable(values)
	if reverse {
		for i, j := 0, len(pos)-1; i < j; i, j = i+1, j-1 {
			pos[i], pos[j] = pos[j], pos[i]
		}
	}
	return e.Reorder(pos, axis, inplace)
}

// SortByMetadata stable-sorts samples/features ascending by a metadata
// field. When every value parses as a number the sort is numeric, otherwise
// lexicographic.
func (e *Experiment) SortByMetadata(field string, axis Axis, inplace bool) (*Experiment, error) {
	if err := axis.valid(); err != nil {
		return nil, err
	}
	monitoring.Debugf("sorting %s by field %s", axis, field)
	col, err := e.metadataFor(axis).Column(field)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	if nums, err := parseAll(col); err == nil {
		return e.Reorder(argsortStable(nums), axis, inplace)
	}
	pos := make([]int, len(col))
	for i := range pos {
		pos[i] = i
	}
	sort.SliceStable(pos, func(a, b int) bool { return col[pos[a]] < col[pos[b]] })
	return e.Reorder(pos, axis, inplace)
}

func parseAll(col []string) ([]float64, error) {
	nums := make([]float64, len(col))
	for i, s := range col {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		nums[i] = v
	}
	return nums, nil
}

// SortSamples sorts samples by a metadata field.
func (e *Experiment) SortSamples(field string, inplace bool) (*Experiment, error) {
	return e.SortByMetadata(field, Samples, inplace)
}

// SortAbundance sorts features by abundance within the samples matching the
// given metadata constraints (field to accepted values). A nil subset
// sorts over all samples.
func (e *Experiment) SortAbundance(subset map[string][]string, key string, reverse, inplace bool) (*Experiment, error) {
	var positions []int
	if subset != nil {
		nSamples, _ := e.Shape()
		keep := make([]bool, nSamples)
		for i := range keep {
			keep[i] = true
		}
		for field, values := range subset {
			col, err := e.SampleMetadata.Column(field)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
			}
			want := make(map[string]bool, len(values))
			for _, v := range values {
				want[v] = true
			}
			for i, v := range col {
				keep[i] = keep[i] && want[v]
			}
		}
		positions = make([]int, 0, nSamples)
		for i, k := range keep {
			if k {
				positions = append(positions, i)
			}
		}
	}
	return e.SortByData(key, Features, positions, reverse, inplace)
}

// SortCentroid sorts features by their center of mass along the sample
// axis, which is assumed to be pre-ordered along a continuous covariate.
// The centroid of feature j is sum(v_ij * i)/sum(v_ij) minus the axis
// midpoint, computed on log-transformed data.
func (e *Experiment) SortCentroid(inplace bool) (*Experiment, error) {
	monitoring.Debugf("sorting features by center of mass")
	scratch, err := e.LogN(1, false)
	if err != nil {
		return nil, err
	}
	nSamples, nFeatures := scratch.Shape()
	mid := float64(nSamples-1) / 2
	centroids := make([]float64, nFeatures)
	var buf []float64
	for j := 0; j < nFeatures; j++ {
		buf = scratch.Data.Col(buf, j)
		var num, den float64
		for i, v := range buf {
			num += v * float64(i)
			den += v
		}
		if den == 0 {
			centroids[j] = 0
			continue
		}
		centroids[j] = num/den - mid
	}
	return e.Reorder(argsortStable(centroids), Features, inplace)
}

// ClusterData reorders samples (axis Samples) or features (axis Features)
// so that ones with similar profiles sit next to each other: pairwise
// distances, single-linkage clustering, dendrogram leaf order. steps, when
// non-nil, transform a scratch copy of the data before distance computation
// (the reordered output keeps the untransformed values). Distances need the
// dense representation; metric is "euclidean", "manhattan" or
// "correlation".
func (e *Experiment) ClusterData(metric string, axis Axis, steps []Transformer, inplace bool) (*Experiment, error) {
	if err := axis.valid(); err != nil {
		return nil, err
	}
	monitoring.Debugf("clustering data on axis %s", axis)
	if n := e.axisLen(axis); n <= 1 || e.axisLen(1-axis) == 0 {
		identity := make([]int, e.axisLen(axis))
		for i := range identity {
			identity[i] = i
		}
		return e.Reorder(identity, axis, inplace)
	}
	scratch := e
	if len(steps) > 0 {
		var err error
		scratch, err = e.Transform(steps, false)
		if err != nil {
			return nil, err
		}
	}
	dense := scratch.Data.Dense()
	obs := dense.RawDense()
	if axis == Features && obs != nil {
		nSamples, nFeatures := scratch.Shape()
		tr := matrix.NewDense(nFeatures, nSamples, nil)
		var buf []float64
		for j := 0; j < nFeatures; j++ {
			buf = dense.Col(buf, j)
			for i, v := range buf {
				tr.Set(j, i, v)
			}
		}
		obs = tr.RawDense()
	}
	order, err := hclust.LeafOrder(obs, hclust.Metric(metric))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	return e.Reorder(order, axis, inplace)
}

// ClusterFeatures filters low-abundance features, then clusters features on
// log-transformed, feature-standardized data.
func (e *Experiment) ClusterFeatures(minAbundance float64, inplace bool) (*Experiment, error) {
	out, err := e.FilterMinAbundance(minAbundance, inplace)
	if err != nil {
		return nil, err
	}
	return out.ClusterData("euclidean", Features,
		[]Transformer{LogNStep{}, ScaleStep{Axis: Features}}, true)
}

// SortIDs moves the listed identifiers (those that exist) to the front, in
// the given order; all others follow in their original relative order.
func (e *Experiment) SortIDs(ids []string, axis Axis, inplace bool) (*Experiment, error) {
	if err := axis.valid(); err != nil {
		return nil, err
	}
	md := e.metadataFor(axis)
	seen := make(map[int]bool, len(ids))
	positions := make([]int, 0, md.Len())
	for _, id := range ids {
		p, ok := md.Pos(id)
		if !ok || seen[p] {
			continue
		}
		seen[p] = true
		positions = append(positions, p)
	}
	monitoring.Debugf("sort_ids: found %d of %d identifiers", len(positions), len(ids))
	for i := 0; i < md.Len(); i++ {
		if !seen[i] {
			positions = append(positions, i)
		}
	}
	return e.Reorder(positions, axis, inplace)
}

package expt

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/micromics/expt/internal/monitoring"
	"github.com/micromics/expt/matrix"
)

// checkTotal validates a normalization target.
func checkTotal(total float64) error {
	if math.IsNaN(total) || math.IsInf(total, 0) || total <= 0 {
		return fmt.Errorf("%w: normalization total %v must be a positive number", ErrInvalidParameter, total)
	}
	return nil
}

// Normalize rescales each sample (axis Samples) or feature (axis Features)
// vector to sum to total, and records the depth in Metadata["normalized"].
// All-zero vectors are left all-zero rather than becoming NaN.
func (e *Experiment) Normalize(total float64, axis Axis, inplace bool) (*Experiment, error) {
	if err := axis.valid(); err != nil {
		return nil, err
	}
	if err := checkTotal(total); err != nil {
		return nil, err
	}
	out := e.target(inplace)
	var sums []float64
	if axis == Samples {
		sums = out.Data.RowSums()
	} else {
		sums = out.Data.ColSums()
	}
	factors := make([]float64, len(sums))
	for i, s := range sums {
		if s == 0 {
			factors[i] = 1
			continue
		}
		factors[i] = total / s
	}
	if axis == Samples {
		out.Data.ScaleRows(factors)
	} else {
		out.Data.ScaleCols(factors)
	}
	out.Metadata["normalized"] = total
	return out, nil
}

// Rescale multiplies the whole matrix by one scalar so that the mean of the
// per-sample (or per-feature) sums equals total. Unlike Normalize, relative
// differences between samples are preserved.
func (e *Experiment) Rescale(total float64, axis Axis, inplace bool) (*Experiment, error) {
	if err := axis.valid(); err != nil {
		return nil, err
	}
	if err := checkTotal(total); err != nil {
		return nil, err
	}
	var sums []float64
	if axis == Samples {
		sums = e.Data.RowSums()
	} else {
		sums = e.Data.ColSums()
	}
	if len(sums) == 0 {
		return nil, fmt.Errorf("%w: cannot rescale an empty experiment", ErrInvalidParameter)
	}
	mean := stat.Mean(sums, nil)
	if mean == 0 {
		return nil, fmt.Errorf("%w: mean %s sum is zero", ErrInvalidParameter, axis)
	}
	out := e.target(inplace)
	out.Data.Scale(total / mean)
	return out, nil
}

// Scale z-score standardizes each sample vector (axis Samples) or feature
// vector (axis Features): subtract the mean, divide by the population
// standard deviation. Centered values cannot be held sparsely, so the
// matrix is converted to dense.
func (e *Experiment) Scale(axis Axis, inplace bool) (*Experiment, error) {
	if err := axis.valid(); err != nil {
		return nil, err
	}
	monitoring.Debugf("scaling data on axis %s", axis)
	out := e.target(inplace)
	out.Dense()
	d := out.Data.(*matrix.Dense)
	n := out.axisLen(axis)
	var buf []float64
	for i := 0; i < n; i++ {
		if axis == Samples {
			buf = d.Row(buf, i)
		} else {
			buf = d.Col(buf, i)
		}
		mean, std := stat.PopMeanStdDev(buf, nil)
		if std == 0 {
			std = 1
		}
		for k, v := range buf {
			buf[k] = (v - mean) / std
		}
		for k, v := range buf {
			if axis == Samples {
				d.Set(i, k, v)
			} else {
				d.Set(k, i, v)
			}
		}
	}
	return out, nil
}

// Binarize replaces entries above threshold with 1 and the rest with 0.
// A negative threshold maps zeros to one, so the sparse representation is
// densified first in that case.
func (e *Experiment) Binarize(threshold float64, inplace bool) (*Experiment, error) {
	monitoring.Debugf("binarizing data, threshold=%g", threshold)
	out := e.target(inplace)
	if threshold < 0 {
		out.Dense()
	}
	out.Data.Apply(func(v float64) float64 {
		if v > threshold {
			return 1
		}
		return 0
	})
	return out, nil
}

// LogN clamps values below n up to n and then takes log2. n must be
// positive. The result is dense: zeros become log2(n), which a sparse
// matrix cannot hold compactly.
func (e *Experiment) LogN(n float64, inplace bool) (*Experiment, error) {
	if math.IsNaN(n) || n <= 0 {
		return nil, fmt.Errorf("%w: log floor %v must be positive", ErrInvalidParameter, n)
	}
	monitoring.Debugf("log transforming data, floor=%g", n)
	out := e.target(inplace)
	out.Dense()
	out.Data.Apply(func(v float64) float64 {
		if v < n {
			v = n
		}
		return math.Log2(v)
	})
	return out, nil
}

// NormalizeBySubsetFeatures normalizes each sample by a partial total: the
// sum over all features except the listed ones (negate true, the default
// use), or over only the listed ones (negate false). The whole sample row —
// including the excluded features — is divided by that partial total and
// multiplied by total, so row sums are generally not equal to total.
func (e *Experiment) NormalizeBySubsetFeatures(features []string, total float64, negate, inplace bool) (*Experiment, error) {
	if err := checkTotal(total); err != nil {
		return nil, err
	}
	in := make(map[string]bool, len(features))
	for _, id := range features {
		in[id] = true
	}
	nSamples, nFeatures := e.Shape()
	use := make([]bool, nFeatures)
	for j := 0; j < nFeatures; j++ {
		use[j] = in[e.FeatureMetadata.ID(j)] != negate
	}

	factors := make([]float64, nSamples)
	var buf []float64
	for i := 0; i < nSamples; i++ {
		buf = e.Data.Row(buf, i)
		var s float64
		for j, v := range buf {
			if use[j] {
				s += v
			}
		}
		if s == 0 {
			factors[i] = 1
			continue
		}
		factors[i] = total / s
	}

	out := e.target(inplace)
	out.Data.ScaleRows(factors)
	out.Metadata["normalized"] = total
	return out, nil
}

// NormalizeCompositional treats high-abundance features (mean fraction of
// the per-sample total >= minFrac) as the compositional offenders and
// normalizes every sample by the total of the remaining features.
func (e *Experiment) NormalizeCompositional(minFrac, total float64, inplace bool) (*Experiment, error) {
	if err := checkTotal(total); err != nil {
		return nil, err
	}
	fracs := e.meanFractions()
	var exclude []string
	for j, f := range fracs {
		if f >= minFrac {
			exclude = append(exclude, e.FeatureMetadata.ID(j))
		}
	}
	monitoring.Debugf("normalizing compositionally, ignoring %d features", len(exclude))
	return e.NormalizeBySubsetFeatures(exclude, total, true, inplace)
}

// RandomPermuteData shuffles the values of each feature column
// independently across samples, removing any dependence between features.
// The result is always a dense copy. With renormalize, each sample is then
// normalized to the original mean sample total. rnd may be nil for an
// unseeded source.
func (e *Experiment) RandomPermuteData(rnd *rand.Rand, renormalize bool) (*Experiment, error) {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	meanSum := 0.0
	if renormalize {
		sums := e.Data.RowSums()
		if len(sums) > 0 {
			meanSum = stat.Mean(sums, nil)
		}
	}

	out := e.Copy()
	out.Dense()
	d := out.Data.(*matrix.Dense)
	nSamples, nFeatures := out.Shape()
	col := make([]float64, nSamples)
	for j := 0; j < nFeatures; j++ {
		d.Col(col, j)
		rnd.Shuffle(len(col), func(a, b int) { col[a], col[b] = col[b], col[a] })
		for i, v := range col {
			d.Set(i, j, v)
		}
	}
	if renormalize && meanSum > 0 {
		if _, err := out.Normalize(meanSum, Samples, true); err != nil {
			return nil, err
		}
	}
	return out, nil
}

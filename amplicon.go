package expt

import (
	"strings"

	"github.com/micromics/expt/internal/monitoring"
)

// AmpliconOptions configures ReadAmplicon on top of the generic reader.
type AmpliconOptions struct {
	FeatureMetadata string
	Description     string
	Drop            bool

	// FilterReads, when positive, drops samples whose total read count is
	// below it.
	FilterReads float64

	// Normalize, when positive, rescales each sample to this total after
	// filtering.
	Normalize float64
}

// ReadAmplicon loads an amplicon sequencing experiment: a biom table with
// sequence feature identifiers. Feature identifiers are upper-cased so
// sequences compare consistently, a taxonomy column is guaranteed to exist,
// and low-coverage samples are optionally dropped before normalization.
func ReadAmplicon(dataFile, sampleMetadataFile string, opts AmpliconOptions) (*Experiment, error) {
	exp, err := Read(dataFile, ReadOptions{
		SampleMetadata:  sampleMetadataFile,
		FeatureMetadata: opts.FeatureMetadata,
		Description:     opts.Description,
		Drop:            opts.Drop,
	})
	if err != nil {
		return nil, err
	}

	upper, err := exp.FeatureMetadata.RenameIDs(strings.ToUpper)
	if err != nil {
		return nil, err
	}
	exp.FeatureMetadata = upper

	if !exp.FeatureMetadata.HasColumn("taxonomy") {
		monitoring.Debugf("no taxonomy in the table or feature metadata; filling with NA")
		na := make([]string, exp.FeatureMetadata.Len())
		for i := range na {
			na[i] = "NA"
		}
		if err := exp.FeatureMetadata.SetColumn("taxonomy", na); err != nil {
			return nil, err
		}
	}

	if opts.FilterReads > 0 {
		if _, err := exp.FilterByData("sum_abundance", Samples, opts.FilterReads, true); err != nil {
			return nil, err
		}
	}
	if opts.Normalize > 0 {
		if _, err := exp.Normalize(opts.Normalize, Samples, true); err != nil {
			return nil, err
		}
	}
	return exp, nil
}

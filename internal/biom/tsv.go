package biom

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// WriteTSV writes the classic tab-separated dump: a comment line, a header
// of sample ids, then one row per feature. Feature metadata is not carried
// by this encoding.
func WriteTSV(t *Table, w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("# Constructed from biom file\n#OTU ID"); err != nil {
		return err
	}
	for _, id := range t.SampleIDs {
		bw.WriteByte('\t')
		bw.WriteString(id)
	}
	bw.WriteByte('\n')

	col := make([]float64, len(t.SampleIDs))
	for j, fid := range t.FeatureIDs {
		bw.WriteString(fid)
		t.Data.Col(col, j)
		for _, v := range col {
			bw.WriteByte('\t')
			bw.WriteString(strconv.FormatFloat(v, 'f', 1, 64))
		}
		if _, err := bw.WriteString("\n"); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("biom: writing tsv table: %w", err)
	}
	return nil
}

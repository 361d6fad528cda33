package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mj1618/desktop-extract/internal/model"
	"github.com/mj1618/desktop-extract/internal/validate"
)

var csvHeader = []string{"Order", "Type", "Content", "Source", "Role"}

// EncodeCSV writes one row per block of res, after a header row.
func EncodeCSV(w io.Writer, res *model.ExtractionResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("csv encode: %w", err)
	}
	for _, b := range res.Blocks {
		row := []string{strconv.Itoa(b.Order), b.Type, b.Content, string(b.Source), b.Provenance.Role}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv encode: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csv encode: %w", err)
	}
	return nil
}

// WriteCSV writes res as CSV to path.
func WriteCSV(path string, res *model.ExtractionResult) error {
	return createWith(path, func(w io.Writer) error { return EncodeCSV(w, res) })
}

func createWith(path string, encode func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := encode(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// EncodeComparisonCSV writes the metrics of c as Metric,Value rows, then one
// section each for missing blocks, extra blocks and text mismatches.
// Sections are separated by a blank row and omitted when empty.
func EncodeComparisonCSV(w io.Writer, c *validate.Comparison) error {
	pct := func(f float64) string { return strconv.FormatFloat(f*100, 'f', 2, 64) }
	rows := [][]string{
		{"Metric", "Value"},
		{"Baseline Title", c.BaselineTitle},
		{"Extracted Title", c.ExtractedTitle},
		{"Accuracy (%)", pct(c.Accuracy)},
		{"Recall (%)", pct(c.Recall)},
		{"Precision (%)", pct(c.Precision)},
		{"Text Similarity (%)", pct(c.TextSimilarity)},
		{"Baseline Blocks", strconv.Itoa(c.BaselineBlocks)},
		{"Extracted Blocks", strconv.Itoa(c.ExtractedBlocks)},
		{"Missing Blocks", strconv.Itoa(len(c.Missing))},
		{"Extra Blocks", strconv.Itoa(len(c.Extra))},
		{"Text Mismatches", strconv.Itoa(len(c.Mismatches))},
	}
	if len(c.Missing) > 0 {
		rows = append(rows, nil, []string{"Missing Blocks"}, []string{"Type", "Content"})
		for _, b := range c.Missing {
			rows = append(rows, []string{b.Type, b.Content})
		}
	}
	if len(c.Extra) > 0 {
		rows = append(rows, nil, []string{"Extra Blocks"}, []string{"Type", "Source", "Content"})
		for _, b := range c.Extra {
			rows = append(rows, []string{b.Type, string(b.Source), b.Content})
		}
	}
	if len(c.Mismatches) > 0 {
		rows = append(rows, nil, []string{"Text Mismatches"}, []string{"Baseline", "Extracted", "Similarity (%)", "Source"})
		for _, m := range c.Mismatches {
			rows = append(rows, []string{m.Baseline, m.Extracted, pct(m.Similarity), string(m.Source)})
		}
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("csv encode: %w", err)
	}
	return nil
}

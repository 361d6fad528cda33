package output

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mj1618/desktop-extract/internal/acquire"
	"github.com/mj1618/desktop-extract/internal/model"
	"github.com/mj1618/desktop-extract/internal/validate"
)

// slugRe matches characters that are not lowercase alphanumeric or hyphens.
var slugRe = regexp.MustCompile(`[^a-z0-9-]+`)

// Slugify converts a title to a file-safe slug: lowercase, hyphens for spaces/special chars.
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = slugRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	// Collapse multiple hyphens
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	if len(s) > 80 {
		s = strings.TrimRight(s[:80], "-")
	}
	if s == "" {
		return "untitled"
	}
	return s
}

func writeFile(path string, v interface{}) error {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v, true); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Files selects which files are written per result.
type Files struct {
	JSON bool
	CSV  bool
}

// ParseFiles validates an --output value: json, csv or both.
func ParseFiles(s string) (Files, error) {
	switch s {
	case "", "json":
		return Files{JSON: true}, nil
	case "csv":
		return Files{CSV: true}, nil
	case "both":
		return Files{JSON: true, CSV: true}, nil
	default:
		return Files{}, fmt.Errorf("unsupported output: %s (use json, csv, or both)", s)
	}
}

func resultName(res *model.ExtractionResult) string {
	name := res.Title
	if name == "" {
		name = res.TargetID()
	}
	return Slugify(name)
}

// uniqueNames hands out file stems, adding -2, -3 to repeats so results
// with the same title do not overwrite each other.
type uniqueNames map[string]bool

func (u uniqueNames) next(base string) string {
	name := base
	for n := 2; u[name]; n++ {
		name = fmt.Sprintf("%s-%d", base, n)
	}
	u[name] = true
	return name
}

// BatchSummary is the report file of a batch run.
type BatchSummary struct {
	RunID    string                 `yaml:"run_id"   json:"run_id"`
	Started  time.Time              `yaml:"started"  json:"started"`
	Finished time.Time              `yaml:"finished" json:"finished"`
	Targets  []acquire.TargetStatus `yaml:"targets"  json:"targets"`
	Files    []string               `yaml:"files"    json:"files"`
	Failures []acquire.TargetStatus `yaml:"failures" json:"failures"`
}

// WriteReport writes every result of rep in the selected formats plus a
// batch_report.json listing the files and failures. It returns the summary
// it wrote.
func WriteReport(dir string, rep *acquire.Report, files Files) (*BatchSummary, error) {
	sum := &BatchSummary{
		RunID:    rep.RunID,
		Started:  rep.Started,
		Finished: rep.Finished,
		Targets:  rep.Targets,
		Files:    []string{},
		Failures: rep.Failures(),
	}
	if sum.Failures == nil {
		sum.Failures = []acquire.TargetStatus{}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	names := uniqueNames{}
	for _, res := range rep.Results {
		stem := filepath.Join(dir, names.next(resultName(res))+"_extraction")
		if files.JSON {
			if err := writeFile(stem+".json", res); err != nil {
				return nil, err
			}
			sum.Files = append(sum.Files, stem+".json")
		}
		if files.CSV {
			if err := WriteCSV(stem+".csv", res); err != nil {
				return nil, err
			}
			sum.Files = append(sum.Files, stem+".csv")
		}
	}
	if err := writeFile(filepath.Join(dir, "batch_report.json"), sum); err != nil {
		return nil, err
	}
	return sum, nil
}

// WriteComparison writes c to <dir>/<slug>_comparison.json and .csv as
// selected, named after the baseline title, and returns the paths.
func WriteComparison(dir string, c *validate.Comparison, files Files) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	stem := filepath.Join(dir, Slugify(c.BaselineTitle)+"_comparison")
	var paths []string
	if files.JSON {
		if err := writeFile(stem+".json", c); err != nil {
			return nil, err
		}
		paths = append(paths, stem+".json")
	}
	if files.CSV {
		err := createWith(stem+".csv", func(w io.Writer) error { return EncodeComparisonCSV(w, c) })
		if err != nil {
			return nil, err
		}
		paths = append(paths, stem+".csv")
	}
	return paths, nil
}

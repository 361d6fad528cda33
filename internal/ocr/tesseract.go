package ocr

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mj1618/desktop-extract/internal/model"
)

// Tesseract runs the tesseract CLI and reads its TSV output.
type Tesseract struct {
	Path      string // binary, default "tesseract"
	Lang      string // default "eng"
	MinHeight int    // crops shorter than this are upscaled first

	// run executes the binary; replaced in tests.
	run func(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error)
}

// NewTesseract returns a recognizer using the tesseract binary on PATH.
func NewTesseract(path, lang string) *Tesseract {
	if path == "" {
		path = "tesseract"
	}
	if lang == "" {
		lang = "eng"
	}
	return &Tesseract{Path: path, Lang: lang, MinHeight: 64, run: runCommand}
}

func runCommand(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// Recognize OCRs a PNG crop.
func (t *Tesseract) Recognize(ctx context.Context, img []byte) (Recognition, error) {
	prepared, err := Upscale(img, t.MinHeight)
	if err != nil {
		return Recognition{}, fmt.Errorf("%w: %w", model.ErrOCRFailure, err)
	}
	out, err := t.run(ctx, t.Path, []string{"stdin", "stdout", "-l", t.Lang, "--psm", "6", "tsv"}, prepared)
	if err != nil {
		return Recognition{}, fmt.Errorf("%w: %w", model.ErrOCRFailure, err)
	}
	return ParseTSV(out)
}

type lineKey struct{ block, par, line int }

// ParseTSV turns tesseract TSV output into text and a mean word confidence
// in 0..1. Words are joined with spaces and lines with newlines.
func ParseTSV(data []byte) (Recognition, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	var (
		lines   []string
		current lineKey
		words   []string
		confSum float64
		count   int
		first   = true
	)
	flush := func() {
		if len(words) > 0 {
			lines = append(lines, strings.Join(words, " "))
		}
		words = words[:0]
	}
	for sc.Scan() {
		cols := strings.Split(sc.Text(), "\t")
		if len(cols) < 12 || cols[0] == "level" {
			continue
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil || conf < 0 {
			continue
		}
		text := strings.TrimSpace(cols[11])
		if text == "" {
			continue
		}
		key := lineKey{atoi(cols[2]), atoi(cols[3]), atoi(cols[4])}
		if first || key != current {
			flush()
			current, first = key, false
		}
		words = append(words, text)
		confSum += conf
		count++
	}
	if err := sc.Err(); err != nil {
		return Recognition{}, fmt.Errorf("reading tesseract output: %w", err)
	}
	flush()
	if count == 0 {
		return Recognition{}, nil
	}
	return Recognition{Text: strings.Join(lines, "\n"), Confidence: confSum / float64(count) / 100}, nil
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

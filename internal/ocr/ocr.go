// Package ocr recognizes text in screen crops. Backends shell out to
// tesseract or ask a vision chat model; Chain tries them in order.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mj1618/desktop-extract/internal/model"
)

// Recognition is the text read from one image.
type Recognition struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0..1
}

// Recognizer turns PNG bytes into text.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (Recognition, error)
}

// RecognizerFunc adapts a function to Recognizer.
type RecognizerFunc func(ctx context.Context, image []byte) (Recognition, error)

func (f RecognizerFunc) Recognize(ctx context.Context, image []byte) (Recognition, error) {
	return f(ctx, image)
}

// Chain tries each recognizer in order and returns the first result with
// non-empty text. When all fail, the errors are joined.
type Chain []Recognizer

func (c Chain) Recognize(ctx context.Context, image []byte) (Recognition, error) {
	var errs []error
	var best Recognition
	for _, r := range c {
		rec, err := r.Recognize(ctx, image)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if strings.TrimSpace(rec.Text) != "" {
			return rec, nil
		}
		if rec.Confidence > best.Confidence {
			best = rec
		}
	}
	if len(errs) == len(c) && len(c) > 0 {
		return Recognition{}, fmt.Errorf("%w: %w", model.ErrOCRFailure, errors.Join(errs...))
	}
	return best, nil
}

// New builds a recognizer by backend name: "tesseract", "openai", or
// "auto" (openai when a client is given, then tesseract).
func New(backend string, tesseract *Tesseract, vision *Vision) (Recognizer, error) {
	switch backend {
	case "tesseract":
		return tesseract, nil
	case "openai":
		if vision == nil {
			return nil, fmt.Errorf("openai OCR backend requires an API key")
		}
		return vision, nil
	case "", "auto":
		if vision == nil {
			return tesseract, nil
		}
		return Chain{vision, tesseract}, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown OCR backend %q (expected tesseract, openai, auto, or none)", backend)
	}
}

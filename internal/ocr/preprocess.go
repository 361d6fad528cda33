package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// Upscale enlarges an image so its height is at least minHeight, keeping the
// aspect ratio. Small UI text recognizes much better once enlarged. Images
// already tall enough are returned unchanged.
func Upscale(data []byte, minHeight int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding crop: %w", err)
	}
	b := src.Bounds()
	if b.Dy() == 0 || b.Dy() >= minHeight {
		return data, nil
	}
	scale := (minHeight + b.Dy() - 1) / b.Dy()
	if scale > 8 {
		scale = 8
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encoding crop: %w", err)
	}
	return buf.Bytes(), nil
}

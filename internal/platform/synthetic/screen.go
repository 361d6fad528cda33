package synthetic

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"

	"github.com/mj1618/desktop-extract/internal/model"
)

// CaptureRegion returns a PNG the size of region whose pixels encode text. A region matching an
// element with painted text yields that text; any other region yields the
// window title and every visible string inside it.
func (a *App) CaptureRegion(region model.Bounds) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.trusted {
		return nil, model.PermissionError("capturing screen")
	}

	var painted string
	var parts []string
	if a.root != nil {
		parts = append(parts, a.root.Title)
	}
	var visit func(e *Element)
	visit = func(e *Element) {
		if !visible(e) {
			return
		}
		f := screenFrame(e)
		if f == region && e.OCRText != "" && painted == "" {
			painted = e.OCRText
		}
		if f.Intersects(region) {
			for _, s := range []string{e.Value, e.OCRText} {
				if s != "" {
					parts = append(parts, s)
				}
			}
			if e != a.root && e.Title != "" {
				parts = append(parts, e.Title)
			}
		}
		for _, c := range e.Children {
			visit(c)
		}
	}
	if a.root != nil {
		visit(a.root)
	}
	text := strings.Join(parts, "\n")
	if painted != "" {
		text = painted
	}
	return EncodeSize(text, region.Width, region.Height), nil
}

// Encode renders s as a one-pixel-high grayscale PNG, one byte per pixel.
func Encode(s string) []byte {
	return EncodeSize(s, len(s), 1)
}

// EncodeSize renders s into a w x h grayscale PNG, one byte per pixel in
// row-major order. The image grows taller when s does not fit.
func EncodeSize(s string, w, h int) []byte {
	if w < 1 {
		w = 1
	}
	if rows := (len(s) + w - 1) / w; rows > h {
		h = rows
	}
	if h < 1 {
		h = 1
	}
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := 0; i < len(s); i++ {
		img.SetGray(i%w, i/w, color.Gray{Y: s[i]})
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// Decode recovers the text from a PNG produced by Encode or EncodeSize.
func Decode(data []byte) string {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	b := img.Bounds()
	var out []byte
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			if g.Y != 0 {
				out = append(out, g.Y)
			}
		}
	}
	return string(out)
}

package model

// Bounds represents a screen rectangle in points.
type Bounds struct {
	X      int `yaml:"x"      json:"x"`
	Y      int `yaml:"y"      json:"y"`
	Width  int `yaml:"width"  json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Area returns the rectangle's area. Degenerate rectangles have zero area.
func (b Bounds) Area() int {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// Array returns the rectangle as [x, y, width, height].
func (b Bounds) Array() [4]int {
	return [4]int{b.X, b.Y, b.Width, b.Height}
}

// Center returns the midpoint of the rectangle.
func (b Bounds) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Intersects checks if two rectangles overlap.
func (b Bounds) Intersects(o Bounds) bool {
	return b.X < o.X+o.Width && b.X+b.Width > o.X &&
		b.Y < o.Y+o.Height && b.Y+b.Height > o.Y
}

// Intersection returns the overlapping rectangle, or a zero Bounds.
func (b Bounds) Intersection(o Bounds) Bounds {
	if !b.Intersects(o) {
		return Bounds{}
	}
	x1, y1 := max(b.X, o.X), max(b.Y, o.Y)
	x2, y2 := min(b.X+b.Width, o.X+o.Width), min(b.Y+b.Height, o.Y+o.Height)
	return Bounds{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// IoU returns the intersection-over-union ratio of two rectangles.
func (b Bounds) IoU(o Bounds) float64 {
	inter := b.Intersection(o).Area()
	if inter == 0 {
		return 0
	}
	union := b.Area() + o.Area() - inter
	return float64(inter) / float64(union)
}

// Translate returns the rectangle shifted by dx, dy.
func (b Bounds) Translate(dx, dy int) Bounds {
	b.X += dx
	b.Y += dy
	return b
}

// Round snaps every coordinate to the nearest multiple of tol.
func (b Bounds) Round(tol int) Bounds {
	if tol <= 1 {
		return b
	}
	return Bounds{
		X:      roundTo(b.X, tol),
		Y:      roundTo(b.Y, tol),
		Width:  roundTo(b.Width, tol),
		Height: roundTo(b.Height, tol),
	}
}

func roundTo(v, tol int) int {
	if v < 0 {
		return -roundTo(-v, tol)
	}
	return ((v + tol/2) / tol) * tol
}

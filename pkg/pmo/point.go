package pmo

import "math"

// Point is an integer image coordinate, top-left origin, x to the right,
// y downward.
type Point struct {
	X, Y int
}

// Add returns the offset of p by q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// ClipMin clamps p's coordinates to be >= min, component-wise.
func (p Point) ClipMin(min Point) Point {
	return Point{maxInt(p.X, min.X), maxInt(p.Y, min.Y)}
}

// ClipMax clamps p's coordinates to be <= max, component-wise.
func (p Point) ClipMax(max Point) Point {
	return Point{minInt(p.X, max.X), minInt(p.Y, max.Y)}
}

// IsIn reports whether p lies in the half-open rectangle [tl, br).
func (p Point) IsIn(tl, br Point) bool {
	return p.X >= tl.X && p.Y >= tl.Y && p.X < br.X && p.Y < br.Y
}

// PointF is a real-valued point, used for rotated template offsets.
type PointF struct {
	X, Y float64
}

// Rotated returns p rotated by radian around the origin.
func (p Point) Rotated(radian float64) PointF {
	c, s := math.Cos(radian), math.Sin(radian)
	return PointF{
		X: float64(p.X)*c - float64(p.Y)*s,
		Y: float64(p.X)*s + float64(p.Y)*c,
	}
}

// Rect is a half-open [Begin, End) rectangle, top-left/bottom-right.
type Rect struct {
	Begin, End Point
}

// Size returns the rectangle's pixel count; zero or negative if empty.
func (r Rect) Size() int {
	return (r.End.X - r.Begin.X) * (r.End.Y - r.Begin.Y)
}

// CausalArea enumerates the causal (already-coded) pixels within a window
// around a target point: the row-band strictly above it, plus the
// same-row run strictly to its left.
type CausalArea struct {
	imageHeight, imageWidth int
	above, left             Rect
}

// NewCausalArea creates a CausalArea bound to an image of the given size.
func NewCausalArea(imageHeight, imageWidth int) *CausalArea {
	return &CausalArea{imageHeight: imageHeight, imageWidth: imageWidth}
}

// Locate repositions the area's two windows around p for the given radius
// and returns the receiver for chaining into ForEach.
func (c *CausalArea) Locate(p Point, windowSize int) *CausalArea {
	bound := Point{c.imageWidth, c.imageHeight}

	c.above = Rect{
		Begin: Point{p.X - windowSize, p.Y - windowSize}.ClipMin(Point{}),
		End:   Point{p.X + windowSize + 1, p.Y}.ClipMax(bound),
	}
	c.left = Rect{
		Begin: Point{p.X - windowSize, p.Y}.ClipMin(Point{}),
		End:   Point{p.X, p.Y + 1}.ClipMax(bound),
	}

	return c
}

// ForEach visits every causal point in raster order, row band above first,
// then the left run on the target's own row.
func (c *CausalArea) ForEach(fn func(Point)) {
	for _, w := range [2]Rect{c.above, c.left} {
		for y := w.Begin.Y; y < w.End.Y; y++ {
			for x := w.Begin.X; x < w.End.X; x++ {
				fn(Point{x, y})
			}
		}
	}
}

// Size returns the total number of causal points the current window covers.
func (c *CausalArea) Size() int {
	return c.above.Size() + c.left.Size()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

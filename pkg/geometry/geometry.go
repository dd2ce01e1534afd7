// Package geometry computes rotated asset footprints and tests them for
// illegal overlap.
//
// A footprint is the oriented bounding rectangle of an asset after scaling
// and rotation, described by its four corners. Overlap testing uses the
// separating-axis theorem on those corner polygons. Footprints flagged
// Exempt never participate in an illegal overlap, in either direction.
package geometry

import "math"

// Point is a 2D coordinate on the canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Footprint describes the placed, rotated extent of one asset.
type Footprint struct {
	Left     float64
	Top      float64
	Width    float64
	Height   float64
	Rotation float64 // radians, around the rectangle center
	Exempt   bool    // asset may overlap freely
}

// Corners returns the four footprint corners in order: top-left, top-right,
// bottom-right, bottom-left, rotated around the rectangle center.
func Corners(f Footprint) []Point {
	cx := f.Left + f.Width/2
	cy := f.Top + f.Height/2
	sin, cos := math.Sincos(f.Rotation)

	unrotated := []Point{
		{f.Left, f.Top},
		{f.Left + f.Width, f.Top},
		{f.Left + f.Width, f.Top + f.Height},
		{f.Left, f.Top + f.Height},
	}

	corners := make([]Point, len(unrotated))
	for i, p := range unrotated {
		dx := p.X - cx
		dy := p.Y - cy
		corners[i] = Point{
			X: cx + dx*cos - dy*sin,
			Y: cy + dx*sin + dy*cos,
		}
	}
	return corners
}

// Overlaps reports whether the footprint at index i illegally overlaps any
// other footprint in all. An overlap is illegal only when neither party is
// exempt and the corner polygons strictly intersect; shared edges do not
// count.
func Overlaps(i int, all []Footprint) bool {
	target := all[i]
	if target.Exempt {
		return false
	}
	tc := Corners(target)
	for j, other := range all {
		if j == i || other.Exempt {
			continue
		}
		if polygonsIntersect(tc, Corners(other)) {
			return true
		}
	}
	return false
}

// polygonsIntersect applies the separating-axis theorem to two convex
// polygons. Degenerate (zero-area) polygons never intersect anything.
func polygonsIntersect(p, q []Point) bool {
	for _, poly := range [2][]Point{p, q} {
		for i := range poly {
			j := (i + 1) % len(poly)
			// Edge normal; length is irrelevant for projection ordering.
			axis := Point{
				X: poly[j].Y - poly[i].Y,
				Y: poly[i].X - poly[j].X,
			}
			minP, maxP := project(p, axis)
			minQ, maxQ := project(q, axis)
			if maxP <= minQ || maxQ <= minP {
				return false
			}
		}
	}
	return true
}

func project(poly []Point, axis Point) (min, max float64) {
	min = math.Inf(1)
	max = math.Inf(-1)
	for _, p := range poly {
		d := p.X*axis.X + p.Y*axis.Y
		min = math.Min(min, d)
		max = math.Max(max, d)
	}
	return min, max
}

package saccade

import "math"

// IsWithinCircle reports whether (px, py) lies strictly inside the circle of
// the given radius centred on (cx, cy). Points on the boundary are outside.
func IsWithinCircle(px, py, cx, cy, radius float64) bool {
	dx, dy := px-cx, py-cy
	return math.Sqrt(dx*dx+dy*dy) < radius
}

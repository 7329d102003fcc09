//go:build !ios && !android && (amd64 || arm64)

package projgo

import "math"

// Coord is one coordinate tuple, matching the engine's x/y/z/t quadruplet.
// For a geographic CRS in authority order the first two components are
// latitude and longitude in degrees; for a projected CRS they are easting
// and northing. Unused trailing components stay zero.
type Coord [4]float64

// XY builds a two-dimensional coordinate.
func XY(x, y float64) Coord {
	return Coord{x, y, 0, 0}
}

// XYZ builds a three-dimensional coordinate.
func XYZ(x, y, z float64) Coord {
	return Coord{x, y, z, 0}
}

// X returns the first component.
func (c Coord) X() float64 { return c[0] }

// Y returns the second component.
func (c Coord) Y() float64 { return c[1] }

// Z returns the third component.
func (c Coord) Z() float64 { return c[2] }

// T returns the coordinate epoch.
func (c Coord) T() float64 { return c[3] }

// DistanceTo returns the Euclidean distance between the first two components
// of c and other. Meaningful for projected coordinates; used by tests to
// express tolerances.
func (c Coord) DistanceTo(other Coord) float64 {
	dx := c[0] - other[0]
	dy := c[1] - other[1]
	return math.Hypot(dx, dy)
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg / 180 * math.Pi
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad / math.Pi * 180
}

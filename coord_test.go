//go:build !ios && !android && (amd64 || arm64)

package projgo

import (
	"math"
	"testing"
)

func TestCoordConstructors(t *testing.T) {
	c := XY(1.5, -2.5)
	if c.X() != 1.5 || c.Y() != -2.5 || c.Z() != 0 || c.T() != 0 {
		t.Errorf("XY: got %v", c)
	}

	c = XYZ(1, 2, 3)
	if c.X() != 1 || c.Y() != 2 || c.Z() != 3 || c.T() != 0 {
		t.Errorf("XYZ: got %v", c)
	}
}

func TestCoordDistanceTo(t *testing.T) {
	a := XY(0, 0)
	b := XY(3, 4)
	if got := a.DistanceTo(b); got != 5 {
		t.Errorf("DistanceTo = %v, want 5", got)
	}
	if got := b.DistanceTo(a); got != 5 {
		t.Errorf("distance is not symmetric: %v", got)
	}
	// Z and T do not contribute.
	c := XYZ(3, 4, 100)
	if got := a.DistanceTo(c); got != 5 {
		t.Errorf("DistanceTo with z set = %v, want 5", got)
	}
}

func TestAngleConversions(t *testing.T) {
	if got := DegToRad(180); math.Abs(got-math.Pi) > 1e-15 {
		t.Errorf("DegToRad(180) = %v, want pi", got)
	}
	if got := RadToDeg(math.Pi / 2); math.Abs(got-90) > 1e-12 {
		t.Errorf("RadToDeg(pi/2) = %v, want 90", got)
	}
	for _, deg := range []float64{-180, -45, 0, 30, 90, 359.5} {
		if got := RadToDeg(DegToRad(deg)); math.Abs(got-deg) > 1e-12 {
			t.Errorf("round trip of %v degrees = %v", deg, got)
		}
	}
}

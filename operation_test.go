//go:build !ios && !android && (amd64 || arm64)

package projgo

import (
	"math"
	"sync"
	"testing"
)

// mercatorOp builds the EPSG:4326 to EPSG:3395 operation. Input is in the
// authority's axis order: latitude, longitude.
func mercatorOp(t *testing.T, pool *ContextPool, opts ...OperationOption) *Operation {
	t.Helper()
	src, err := NewCRS(pool, "EPSG:4326")
	if err != nil {
		t.Fatalf("NewCRS(EPSG:4326) failed: %v", err)
	}
	defer src.Close()
	dst, err := NewCRS(pool, "EPSG:3395")
	if err != nil {
		t.Fatalf("NewCRS(EPSG:3395) failed: %v", err)
	}
	defer dst.Close()

	op, err := NewOperation(pool, src, dst, opts...)
	if err != nil {
		t.Fatalf("NewOperation failed: %v", err)
	}
	t.Cleanup(func() { op.Close() })
	return op
}

func assertNear(t *testing.T, what string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %.4f, want %.4f (tolerance %g)", what, got, want, tol)
	}
}

func TestOperationMercator(t *testing.T) {
	requirePROJ(t)
	pool := newTestPool(t)
	op := mercatorOp(t, pool)

	if op.Name() == "" {
		t.Error("Name is empty")
	}

	out, err := op.Forward(XY(40, 60)) // 40°N 60°E
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	assertNear(t, "easting", out.X(), 6679169.45, 0.01)
	assertNear(t, "northing", out.Y(), 4838471.40, 0.01)

	back, err := op.Inverse(out)
	if err != nil {
		t.Fatalf("Inverse failed: %v", err)
	}
	assertNear(t, "latitude", back.X(), 40, 1e-7)
	assertNear(t, "longitude", back.Y(), 60, 1e-7)
}

func TestOperationNormalizedAxisOrder(t *testing.T) {
	requirePROJ(t)
	pool := newTestPool(t)
	op := mercatorOp(t, pool, WithNormalizedAxisOrder())

	// Normalized operations take longitude, latitude.
	out, err := op.Forward(XY(60, 40))
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	assertNear(t, "easting", out.X(), 6679169.45, 0.01)
	assertNear(t, "northing", out.Y(), 4838471.40, 0.01)
}

func TestTransformCitiesRoundTrip(t *testing.T) {
	requirePROJ(t)
	pool := newTestPool(t)
	op := mercatorOp(t, pool)

	cities := []struct {
		name     string
		lat, lon float64
	}{
		{"Montreal", 45.5, -73.567},
		{"Vancouver", 49.25, -123.1},
		{"Tokyo", 35.653, 139.839},
		{"Paris", 48.865, 2.349},
		{"Hanoi", 21.029, 105.805},
		{"Copenhagen", 55.676, 12.568},
		{"Lima", -12.046, -77.043},
	}

	coords := make([]Coord, len(cities))
	for i, c := range cities {
		coords[i] = XY(c.lat, c.lon)
	}

	if err := op.Transform(Forward, coords); err != nil {
		t.Fatalf("forward Transform failed: %v", err)
	}
	for i, c := range cities {
		if coords[i].X() == c.lat && coords[i].Y() == c.lon {
			t.Errorf("%s: coordinate unchanged by the forward transform", c.name)
		}
	}

	if err := op.Transform(Inverse, coords); err != nil {
		t.Fatalf("inverse Transform failed: %v", err)
	}
	for i, c := range cities {
		assertNear(t, c.name+" latitude", coords[i].X(), c.lat, 1e-7)
		assertNear(t, c.name+" longitude", coords[i].Y(), c.lon, 1e-7)
	}
}

func TestTransformRecoversAfterFailure(t *testing.T) {
	requirePROJ(t)
	pool := newTestPool(t)
	op := mercatorOp(t, pool)

	first, err := op.Forward(XY(40, 60))
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}

	// Latitude beyond the pole cannot be projected.
	_, err = op.Forward(XY(100, 60))
	if err == nil {
		t.Fatal("expected a failure for latitude > 90")
	}
	if !IsTransform(err) {
		t.Fatalf("error not classified as transform: %v", err)
	}
	if got := FailIndex(err); got != 0 {
		t.Errorf("FailIndex = %d, want 0", got)
	}
	if Code(err) == 0 {
		t.Error("transform error carries no native code")
	}

	// The operation stays usable and produces identical results.
	again, err := op.Forward(XY(40, 60))
	if err != nil {
		t.Fatalf("Forward after failure: %v", err)
	}
	assertNear(t, "easting after recovery", again.X(), first.X(), 1e-9)
	assertNear(t, "northing after recovery", again.Y(), first.Y(), 1e-9)
}

func TestTransformPartialBuffer(t *testing.T) {
	requirePROJ(t)
	pool := newTestPool(t)
	op := mercatorOp(t, pool)

	montreal := XY(45.5, -73.567)
	vancouver := XY(49.25, -123.1)
	tokyo := XY(35.653, 139.839)

	wantMontreal, err := op.Forward(montreal)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	wantVancouver, err := op.Forward(vancouver)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}

	coords := []Coord{montreal, vancouver, XY(100, 0), tokyo}
	err = op.Transform(Forward, coords)
	if err == nil {
		t.Fatal("expected a failure at the invalid tuple")
	}
	if !IsTransform(err) {
		t.Fatalf("error not classified as transform: %v", err)
	}
	if got := FailIndex(err); got != 2 {
		t.Fatalf("FailIndex = %d, want 2", got)
	}

	// Tuples before the failure hold their transformed values.
	assertNear(t, "coords[0] easting", coords[0].X(), wantMontreal.X(), 1e-9)
	assertNear(t, "coords[0] northing", coords[0].Y(), wantMontreal.Y(), 1e-9)
	assertNear(t, "coords[1] easting", coords[1].X(), wantVancouver.X(), 1e-9)
	assertNear(t, "coords[1] northing", coords[1].Y(), wantVancouver.Y(), 1e-9)

	// Tuples after the failure are untouched.
	if coords[3] != tokyo {
		t.Errorf("coords[3] = %v, want untouched %v", coords[3], tokyo)
	}
}

func TestTransformEmptySlice(t *testing.T) {
	requirePROJ(t)
	pool := newTestPool(t)
	op := mercatorOp(t, pool)

	if err := op.Transform(Forward, nil); err != nil {
		t.Errorf("Transform of an empty slice = %v, want nil", err)
	}
}

func TestOperationFromDefinition(t *testing.T) {
	requirePROJ(t)
	pool := newTestPool(t)

	op, err := NewOperationFromDefinition(pool, "+proj=utm +zone=32 +ellps=GRS80")
	if err != nil {
		t.Fatalf("NewOperationFromDefinition failed: %v", err)
	}
	defer op.Close()

	// Raw projection definitions take radians: 12°E 55°N.
	out, err := op.Forward(XY(DegToRad(12), DegToRad(55)))
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	assertNear(t, "easting", out.X(), 691875.63, 0.01)
	assertNear(t, "northing", out.Y(), 6098907.83, 0.01)
}

func TestOperationUseAfterClose(t *testing.T) {
	requirePROJ(t)
	pool := newTestPool(t)
	op := mercatorOp(t, pool)

	if err := op.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := op.Transform(Forward, []Coord{XY(40, 60)}); err != ErrClosed {
		t.Errorf("Transform after Close = %v, want ErrClosed", err)
	}
}

func TestRoundTripDeviation(t *testing.T) {
	requirePROJ(t)
	pool := newTestPool(t)
	op := mercatorOp(t, pool)

	dev, err := op.RoundTripDeviation(1, XY(40, 60))
	if err != nil {
		t.Fatalf("RoundTripDeviation failed: %v", err)
	}
	if dev > 1e-6 {
		t.Errorf("round-trip deviation %g exceeds 1e-6", dev)
	}
}

func TestConcurrentTransformsSharedOperation(t *testing.T) {
	requirePROJ(t)
	pool := newTestPool(t, WithCapacity(4))
	op := mercatorOp(t, pool)

	const goroutines = 8
	const rounds = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				// Failing tuples must neither corrupt other dispatches'
				// results nor be misattributed to them.
				if j%5 == 4 {
					_, err := op.Forward(XY(100, 60))
					if err == nil {
						t.Error("expected a failure for latitude > 90")
						return
					}
					if !IsTransform(err) {
						t.Errorf("error not classified as transform: %v", err)
						return
					}
					continue
				}
				out, err := op.Forward(XY(40, 60))
				if err != nil {
					t.Errorf("Forward failed: %v", err)
					return
				}
				if math.Abs(out.X()-6679169.45) > 0.01 || math.Abs(out.Y()-4838471.40) > 0.01 {
					t.Errorf("wrong result under concurrency: %v", out)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestConcurrentTransforms(t *testing.T) {
	requirePROJ(t)
	pool := newTestPool(t, WithCapacity(4))

	const goroutines = 8
	const rounds = 50

	ops := make([]*Operation, goroutines)
	for i := range ops {
		ops[i] = mercatorOp(t, pool)
	}

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(op *Operation) {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				out, err := op.Forward(XY(40, 60))
				if err != nil {
					t.Errorf("Forward failed: %v", err)
					return
				}
				if math.Abs(out.X()-6679169.45) > 0.01 || math.Abs(out.Y()-4838471.40) > 0.01 {
					t.Errorf("wrong result under concurrency: %v", out)
					return
				}
			}
		}(ops[i])
	}
	wg.Wait()

	if got := pool.Size(); got > 4 {
		t.Errorf("pool grew to %d contexts, capacity 4", got)
	}
}

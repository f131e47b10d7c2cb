package filter

import (
	"errors"
	"math"
	"testing"
)

func TestNewRejectsNonPositiveProcessVariance(t *testing.T) {
	for _, q := range []float64{0, -0.01} {
		if _, err := New(q); err == nil {
			t.Errorf("New(%g) expected error, got nil", q)
		}
	}
}

func TestResetState(t *testing.T) {
	f, err := New(0.0075)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	f.Reset(1013.25)

	if got := f.Position(); got != 1013.25 {
		t.Errorf("Position after Reset = %v, want 1013.25 exactly", got)
	}
	if got := f.Velocity(); got != 0 {
		t.Errorf("Velocity after Reset = %v, want 0 exactly", got)
	}

	pxx, pxv, pvv := f.Covariance()
	if pxx <= 0 || pvv <= 0 {
		t.Errorf("Reset covariance diagonal = (%v, %v), want nonzero prior uncertainty", pxx, pvv)
	}
	if pxv != 0 {
		t.Errorf("Reset covariance off-diagonal = %v, want 0", pxv)
	}
}

func TestUpdateContractViolations(t *testing.T) {
	f, _ := New(0.0075)
	f.Reset(1000)

	if err := f.Update(1000, 0.05, -0.1); !errors.Is(err, ErrNegativeInterval) {
		t.Errorf("Update with negative dt: err = %v, want ErrNegativeInterval", err)
	}
	if err := f.Update(1000, -0.05, 1.0); !errors.Is(err, ErrNegativeVariance) {
		t.Errorf("Update with negative variance: err = %v, want ErrNegativeVariance", err)
	}

	// A rejected update must leave the filter untouched.
	if f.Position() != 1000 || f.Velocity() != 0 {
		t.Errorf("state changed after rejected update: x=%v v=%v", f.Position(), f.Velocity())
	}
}

// With an effectively uninformative measurement the correction gain vanishes
// and each update is dominated by the predict step, which must strictly grow
// the diagonal covariance while keeping the matrix positive semi-definite.
func TestPredictGrowsCovariance(t *testing.T) {
	const uninformative = 1e18

	f, _ := New(0.0075)
	f.Reset(1000)

	prevXX, _, prevVV := f.Covariance()
	for i := 0; i < 50; i++ {
		if err := f.Update(1000, uninformative, 0.7); err != nil {
			t.Fatalf("Update %d: %v", i, err)
		}

		pxx, pxv, pvv := f.Covariance()
		if pxx <= prevXX || pvv <= prevVV {
			t.Fatalf("step %d: covariance not growing: pxx %v -> %v, pvv %v -> %v", i, prevXX, pxx, prevVV, pvv)
		}
		if det := pxx*pvv - pxv*pxv; det < 0 {
			t.Fatalf("step %d: covariance not PSD, det = %v", i, det)
		}
		prevXX, prevVV = pxx, pvv
	}
}

func TestCovariancePSDUnderIrregularIntervals(t *testing.T) {
	f, _ := New(0.0075)
	f.Reset(1013.25)

	dts := []float64{0, 0.2, 1.0, 0.01, 3.5, 0, 0.333, 2.0, 0.05, 10}
	for i, dt := range dts {
		if err := f.Update(1013.25+0.1*float64(i), 0.05, dt); err != nil {
			t.Fatalf("Update %d: %v", i, err)
		}

		pxx, pxv, pvv := f.Covariance()
		if pxx < 0 || pvv < 0 {
			t.Fatalf("step %d: negative diagonal: pxx=%v pvv=%v", i, pxx, pvv)
		}
		if det := pxx*pvv - pxv*pxv; det < -1e-12 {
			t.Fatalf("step %d: covariance not PSD, det = %v", i, det)
		}
	}
}

// Feeding the current position back with zero measurement variance and zero
// dt must not move the position, while the position variance collapses
// monotonically toward zero. Once the innovation variance reaches zero the
// snap-to-measurement rule applies and the update stays well defined.
func TestZeroVarianceZeroDtConvergesCovariance(t *testing.T) {
	f, _ := New(0.0075)
	f.Reset(900)

	prev, _, _ := f.Covariance()
	for i := 0; i < 5; i++ {
		if err := f.Update(900, 0, 0); err != nil {
			t.Fatalf("Update %d: %v", i, err)
		}
		if got := f.Position(); got != 900 {
			t.Fatalf("step %d: position moved to %v", i, got)
		}

		pxx, _, _ := f.Covariance()
		if pxx > prev {
			t.Fatalf("step %d: position variance grew: %v -> %v", i, prev, pxx)
		}
		prev = pxx
	}
	if prev != 0 {
		t.Errorf("position variance after exact measurements = %v, want 0", prev)
	}
}

func TestConvergenceToConstantMeasurement(t *testing.T) {
	f, _ := New(0.0075)
	f.Reset(1000)

	for i := 0; i < 200; i++ {
		if err := f.Update(1013.25, 0.05, 1.0); err != nil {
			t.Fatalf("Update %d: %v", i, err)
		}
	}

	if diff := math.Abs(f.Position() - 1013.25); diff > 0.01 {
		t.Errorf("position after 200 updates = %v, want within 0.01 of 1013.25", f.Position())
	}
	if v := math.Abs(f.Velocity()); v > 0.01 {
		t.Errorf("velocity after constant stream = %v, want near 0", f.Velocity())
	}

	// The gain reaches a fixed point: one more update barely changes the
	// position variance.
	before, _, _ := f.Covariance()
	if err := f.Update(1013.25, 0.05, 1.0); err != nil {
		t.Fatalf("Update: %v", err)
	}
	after, _, _ := f.Covariance()
	if math.Abs(after-before) > 1e-9 {
		t.Errorf("position variance not at steady state: %v -> %v", before, after)
	}
}

func TestTracksLinearTrend(t *testing.T) {
	f, _ := New(0.0075)
	f.Reset(1000)

	// 1 hPa per minute descent, noiseless measurements.
	const rate = -1.0 / 60
	for i := 1; i <= 300; i++ {
		if err := f.Update(1000+rate*float64(i), 0.05, 1.0); err != nil {
			t.Fatalf("Update %d: %v", i, err)
		}
	}

	if diff := math.Abs(f.Velocity() - rate); diff > 0.005 {
		t.Errorf("velocity = %v, want within 0.005 of %v", f.Velocity(), rate)
	}
}

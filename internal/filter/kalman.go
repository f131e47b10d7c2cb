// Package filter implements a two-state Kalman filter for smoothing a noisy
// scalar measurement stream while estimating its rate of change. The state
// transition assumes constant velocity between samples, with process noise
// entering as a random acceleration of variance q per unit time.
package filter

import (
	"errors"
	"fmt"
)

// Initial covariance installed by Reset. Large relative to typical
// measurement variance so the first few updates converge quickly.
const (
	initialPositionVariance = 1.0
	initialVelocityVariance = 1.0
)

var (
	// ErrNegativeInterval is returned when Update is called with dt < 0
	ErrNegativeInterval = errors.New("negative time step")

	// ErrNegativeVariance is returned when Update is called with a negative
	// measurement variance
	ErrNegativeVariance = errors.New("negative measurement variance")
)

// Filter tracks a scalar quantity (position) and its first derivative
// (velocity). The 2x2 error covariance is symmetric and stored as three
// scalars. A Filter must not be shared between goroutines without external
// synchronization; there is exactly one mutator path (Reset, Update).
type Filter struct {
	x float64 // position estimate
	v float64 // velocity estimate, per second

	pxx float64 // position variance
	pxv float64 // position-velocity covariance
	pvv float64 // velocity variance

	q float64 // process noise variance injected per unit time
}

// New creates a Filter with the given process noise variance. The filter
// starts with zero state and covariance; call Reset before the first Update.
func New(processVariance float64) (*Filter, error) {
	if processVariance <= 0 {
		return nil, fmt.Errorf("process variance must be positive, got %g", processVariance)
	}
	return &Filter{q: processVariance}, nil
}

// Reset starts a new tracking session at the given value. Velocity is zeroed
// and the covariance returns to its initial diagonal uncertainty.
func (f *Filter) Reset(initialValue float64) {
	f.x = initialValue
	f.v = 0
	f.pxx = initialPositionVariance
	f.pxv = 0
	f.pvv = initialVelocityVariance
}

// Update runs one predict/correct cycle against a scalar measurement of the
// tracked position. dt is the time in seconds since the previous update and
// must be non-negative; a dt of zero degenerates the predict step to identity
// but the correction still runs. measurementVariance must be non-negative.
// Out-of-contract inputs are caller errors and leave the filter unchanged.
func (f *Filter) Update(measurement, measurementVariance, dt float64) error {
	if dt < 0 {
		return fmt.Errorf("%w: %g", ErrNegativeInterval, dt)
	}
	if measurementVariance < 0 {
		return fmt.Errorf("%w: %g", ErrNegativeVariance, measurementVariance)
	}

	// Predict: constant velocity over dt. Process noise is a random
	// acceleration integrated twice into position and once into velocity,
	// which produces the dt^4/4 and dt^2/2 coupling terms.
	x := f.x + f.v*dt
	pxx := f.pxx + 2*dt*f.pxv + dt*dt*f.pvv + dt*dt*dt*dt/4*f.q
	pxv := f.pxv + dt*f.pvv + dt*dt/2*f.q
	pvv := f.pvv + dt*f.q

	// Correct: scalar measurement of position only.
	residual := measurement - x
	s := pxx + measurementVariance // innovation variance

	// s == 0 means both the prediction and the measurement are exact;
	// the gain is undefined, so snap to the noiseless measurement.
	kx, kv := 1.0, 0.0
	if s > 0 {
		kx = pxx / s
		kv = pxv / s
	}

	f.x = x + kx*residual
	f.v += kv * residual
	f.pxx = pxx - kx*pxx
	f.pxv = pxv - kx*pxv
	f.pvv = pvv - kv*pxv

	return nil
}

// Position returns the current smoothed estimate of the tracked value.
func (f *Filter) Position() float64 {
	return f.x
}

// Velocity returns the current estimate of the tracked value's rate of
// change per second.
func (f *Filter) Velocity() float64 {
	return f.v
}

// Covariance returns the three independent entries of the symmetric 2x2
// error covariance: position variance, position-velocity covariance and
// velocity variance.
func (f *Filter) Covariance() (pxx, pxv, pvv float64) {
	return f.pxx, f.pxv, f.pvv
}

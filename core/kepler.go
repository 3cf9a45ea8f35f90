package core

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	keplerTolerance  = 1e-10
	keplerMaxIter    = 30
	highEccentricity = 0.8
)

// SolveKepler solves Kepler's equation M = E - e*sin(E) for the
// eccentric anomaly E using Newton-Raphson iteration. The mean anomaly
// is normalized into [0, 2π) first. The iteration cap is a safety
// valve: when it binds, the best current estimate is returned rather
// than an error.
func SolveKepler(meanAnomaly, eccentricity float64) float64 {
	e, _, _ := solveKepler(meanAnomaly, eccentricity)
	return e
}

// solveKepler additionally reports the iteration count and whether the
// tolerance was reached, for observability hooks.
func solveKepler(meanAnomaly, eccentricity float64) (ecc float64, iterations int, converged bool) {
	m := normalizeAngle(meanAnomaly)

	// A guess of π converges better for highly eccentric orbits.
	est := m
	if eccentricity > highEccentricity {
		est = math.Pi
	}

	for i := 0; i < keplerMaxIter; i++ {
		f := est - eccentricity*math.Sin(est) - m
		fPrime := 1 - eccentricity*math.Cos(est)

		delta := f / fPrime
		est -= delta

		if math.Abs(delta) < keplerTolerance {
			return est, i + 1, true
		}
	}
	return est, keplerMaxIter, false
}

// TrueAnomaly converts an eccentric anomaly to the true anomaly using
// the quadrant-correct half-angle form, valid over the full [0, 2π)
// range. For a circular orbit (e = 0) it reduces to the identity.
func TrueAnomaly(eccentricAnomaly, eccentricity float64) float64 {
	nu := 2 * math.Atan2(
		math.Sqrt(1+eccentricity)*math.Sin(eccentricAnomaly/2),
		math.Sqrt(1-eccentricity)*math.Cos(eccentricAnomaly/2),
	)
	return normalizeAngle(nu)
}

// OrbitalPlanePosition returns the in-plane position for the given true
// anomaly on an ellipse with semi-major axis a and eccentricity e. The
// x axis points at periapsis.
func OrbitalPlanePosition(a, e, trueAnomaly float64) (x, y float64) {
	r := a * (1 - e*e) / (1 + e*math.Cos(trueAnomaly))
	return r * math.Cos(trueAnomaly), r * math.Sin(trueAnomaly)
}

// RotateToReference rotates an orbital-plane position into the
// reference frame, composing the argument-of-periapsis, inclination,
// and ascending-node rotations as one fused matrix so each trig term
// is computed once. Angles are in radians.
func RotateToReference(x, y, inclination, ascendingNode, argPeriapsis float64) r3.Vec {
	cosO := math.Cos(ascendingNode)
	sinO := math.Sin(ascendingNode)
	cosI := math.Cos(inclination)
	sinI := math.Sin(inclination)
	cosW := math.Cos(argPeriapsis)
	sinW := math.Sin(argPeriapsis)

	r11 := cosO*cosW - sinO*sinW*cosI
	r12 := -cosO*sinW - sinO*cosW*cosI
	r21 := sinO*cosW + cosO*sinW*cosI
	r22 := -sinO*sinW + cosO*cosW*cosI
	r31 := sinW * sinI
	r32 := cosW * sinI

	return r3.Vec{
		X: r11*x + r12*y,
		Y: r21*x + r22*y,
		Z: r31*x + r32*y,
	}
}

// OrbitalPeriod returns the two-body orbital period in seconds for a
// semi-major axis in metres around a central mass in kilograms
// (Kepler's third law).
func OrbitalPeriod(semiMajorAxisM, centralMassKg float64) float64 {
	mu := GravitationalConstant * centralMassKg
	return 2 * math.Pi * math.Sqrt(math.Pow(semiMajorAxisM, 3)/mu)
}

// SemiMajorAxisFromPeriod is the exact inverse of OrbitalPeriod.
func SemiMajorAxisFromPeriod(periodSec, centralMassKg float64) float64 {
	mu := GravitationalConstant * centralMassKg
	return math.Cbrt(mu * math.Pow(periodSec/(2*math.Pi), 2))
}

// normalizeAngle wraps an angle in radians into [0, 2π).
func normalizeAngle(rad float64) float64 {
	wrapped := math.Mod(rad, 2*math.Pi)
	if wrapped < 0 {
		wrapped += 2 * math.Pi
	}
	return wrapped
}

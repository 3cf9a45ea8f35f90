package core

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/starsystem-viewer/model"
)

// The source snapshot is a single-instant position sample per body, so
// only the parent-child distance is directly observable. Eccentricity
// and the argument of periapsis cannot be recovered from one sample and
// use fixed placeholders; inclination, ascending node, and the initial
// mean anomaly are read geometrically off the relative vector. The
// placeholders are deterministic so a reprocess always yields identical
// elements.
const (
	placeholderEccentricity = 0.02

	// Density heuristic for estimating a parent's mass from its
	// diameter (kg/m^3).
	starDensity  = 1400.0
	rockyDensity = 5500.0

	// Bodies the snapshot gives no diameter (stations, jump points)
	// get a nominal one; anything orbiting them is effectively static.
	nominalDiameterM = 1000.0
)

// DeriveAll computes orbital elements for every non-root body in the
// graph from its epoch position relative to its parent. It replaces any
// previously derived elements wholesale and is idempotent.
func DeriveAll(g *SystemGraph) {
	root := g.Root()
	if root == nil {
		return
	}
	root.Elements = nil

	var walk func(parent, body *model.CelestialBody)
	walk = func(parent, body *model.CelestialBody) {
		if parent != nil {
			elems := deriveElements(body, parent)
			body.Elements = &elems
		}
		for _, child := range body.Children {
			walk(body, child)
		}
	}
	walk(nil, root)
}

func deriveElements(body, parent *model.CelestialBody) model.OrbitalElements {
	rel := r3.Sub(body.Position, parent.Position)
	distance := r3.Norm(rel)

	inclination := math.Atan2(rel.Z, math.Hypot(rel.X, rel.Y)) * 180 / math.Pi
	azimuth := math.Atan2(rel.Y, rel.X) * 180 / math.Pi

	meanAnomaly := azimuth
	if meanAnomaly < 0 {
		meanAnomaly += 360
	}

	// Anchor periapsis so that propagating at elapsed time zero lands
	// back on the epoch azimuth: the argument of periapsis cancels the
	// epoch true anomaly. Without this the azimuth would be counted
	// twice (once in the node angle, once in the anomaly).
	nu0 := TrueAnomaly(SolveKepler(meanAnomaly*math.Pi/180, placeholderEccentricity), placeholderEccentricity)
	argPeriapsis := math.Mod(360-nu0*180/math.Pi, 360)

	periodSec := OrbitalPeriod(distance, estimateMassKg(parent))

	return model.OrbitalElements{
		SemiMajorAxisM:   distance,
		Eccentricity:     placeholderEccentricity,
		InclinationDeg:   inclination,
		AscendingNodeDeg: azimuth,
		ArgPeriapsisDeg:  argPeriapsis,
		MeanAnomalyDeg:   meanAnomaly,
		PeriodHours:      periodSec / 3600,
	}
}

// estimateMassKg derives a body's mass from its diameter and a
// kind-dependent bulk density.
func estimateMassKg(b *model.CelestialBody) float64 {
	diameter := b.DiameterM
	if diameter <= 0 {
		diameter = nominalDiameterM
	}
	density := rockyDensity
	if b.Kind == model.KindStar {
		density = starDensity
	}
	radius := diameter / 2
	volume := 4.0 / 3.0 * math.Pi * radius * radius * radius
	return volume * density
}

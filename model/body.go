package model

import "gonum.org/v1/gonum/spatial/r3"

// BodyKind classifies a node in the system map.
type BodyKind string

const (
	KindStar      BodyKind = "STAR"
	KindPlanet    BodyKind = "PLANET"
	KindMoon      BodyKind = "MOON"
	KindStation   BodyKind = "STATION"
	KindOutpost   BodyKind = "OUTPOST"
	KindJumpPoint BodyKind = "JUMP_POINT"
	KindLagrange  BodyKind = "LAGRANGE"
)

// Kinds lists every valid body kind in a fixed order, useful for
// deterministic iteration over kind-keyed indexes.
var Kinds = []BodyKind{
	KindStar, KindPlanet, KindMoon, KindStation,
	KindOutpost, KindJumpPoint, KindLagrange,
}

// ValidKind reports whether k is one of the known body kinds.
func ValidKind(k BodyKind) bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// CelestialBody is one node of the hierarchical system snapshot.
// Position is the absolute epoch-time position in metres; it is never
// mutated after load — current positions come from the propagator.
type CelestialBody struct {
	Name        string
	Label       string
	Kind        BodyKind
	Position    r3.Vec  // absolute, metres, at epoch
	DiameterM   float64 // 0 when the snapshot carries no diameter
	Color       string  // optional hex
	Destination string  // jump points only: name of the linked system
	ParentName  string  // empty only for the root star
	Children    []*CelestialBody

	// Elements is nil for the root and populated by derivation for
	// every other body.
	Elements *OrbitalElements
}

// OrbitalElements is the orbital-element approximation derived from a
// body's epoch position relative to its parent. Immutable after
// derivation; a full reprocess replaces the struct wholesale.
type OrbitalElements struct {
	SemiMajorAxisM   float64
	Eccentricity     float64
	InclinationDeg   float64
	AscendingNodeDeg float64
	ArgPeriapsisDeg  float64
	MeanAnomalyDeg   float64 // at epoch, normalized to [0,360)
	PeriodHours      float64
}

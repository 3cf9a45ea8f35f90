package core

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/starsystem-viewer/model"
)

// nominalPointRadiusM is the rendered radius for bodies whose snapshot
// carries no diameter (stations, outposts, jump points, lagrange
// markers).
const nominalPointRadiusM = 10_000.0

// OrbitPath parametrizes the elliptical guide path drawn for an
// orbiting body. All lengths are scene units; Center is the parent's
// current position.
type OrbitPath struct {
	Center         r3.Vec
	SemiMajorAxis  float64
	Eccentricity   float64
	InclinationDeg float64
	RotationDeg    float64 // ascending-node angle of the orbital plane
}

// BodyRenderState is everything the rendering collaborator needs for
// one body on one frame.
type BodyRenderState struct {
	Name     string
	Label    string
	Kind     model.BodyKind
	Position r3.Vec  // scene units
	Radius   float64 // scene units, scale-adjusted
	Color    string
	Orbit    *OrbitPath // nil for the root
}

// RenderRadius returns a body's radius in scene units, substituting the
// nominal size for diameterless kinds.
func RenderRadius(b *model.CelestialBody) float64 {
	if b.DiameterM > 0 {
		return MetersToScene(b.DiameterM / 2)
	}
	return MetersToScene(nominalPointRadiusM)
}

// BuildFrame resolves every body for the given elapsed time into render
// state, in document order. Positions come from the propagator; orbit
// paths are centred on each parent's current position.
func BuildFrame(g *SystemGraph, prop *Propagator, elapsedHours float64) ([]BodyRenderState, error) {
	if g.Root() == nil {
		return nil, fmt.Errorf("build frame: empty system")
	}

	positions := prop.Positions(elapsedHours)

	out := make([]BodyRenderState, 0, g.Len())
	for _, name := range g.Names() {
		body := g.Body(name)
		pos := positions[name]

		state := BodyRenderState{
			Name:     body.Name,
			Label:    body.Label,
			Kind:     body.Kind,
			Position: r3.Scale(1.0/metersPerSceneUnit, pos),
			Radius:   RenderRadius(body),
			Color:    body.Color,
		}

		if body.Elements != nil {
			parentPos := positions[body.ParentName]
			state.Orbit = &OrbitPath{
				Center:         r3.Scale(1.0/metersPerSceneUnit, parentPos),
				SemiMajorAxis:  MetersToScene(body.Elements.SemiMajorAxisM),
				Eccentricity:   body.Elements.Eccentricity,
				InclinationDeg: body.Elements.InclinationDeg,
				RotationDeg:    body.Elements.AscendingNodeDeg,
			}
		}
		out = append(out, state)
	}
	return out, nil
}

// FocusTargetFor builds the camera focus target for a body at its
// current position.
func FocusTargetFor(b *model.CelestialBody, currentPosM r3.Vec) model.FocusTarget {
	return model.FocusTarget{
		Name:     b.Name,
		Kind:     b.Kind,
		Position: r3.Scale(1.0/metersPerSceneUnit, currentPosM),
		Radius:   RenderRadius(b),
	}
}

// SystemSpan returns the outermost body's distance from the root in
// scene units, the scale reference for overview framing.
func SystemSpan(g *SystemGraph) float64 {
	root := g.Root()
	if root == nil {
		return 0
	}
	max := 0.0
	for _, name := range g.Names() {
		b := g.Body(name)
		if d := r3.Norm(r3.Sub(b.Position, root.Position)); d > max {
			max = d
		}
	}
	return MetersToScene(max)
}

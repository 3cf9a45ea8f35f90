package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/starsystem-viewer/model"
)

// SolverMetrics receives per-solve diagnostics from the propagator.
// Hitting the iteration cap is a warning condition, never an error.
type SolverMetrics interface {
	ObserveKeplerIterations(n int)
	IncSolverCap()
}

// Propagator computes current body positions for an elapsed simulation
// time by solving Kepler's equation against each body's derived
// elements and composing the parent chain. It only reads the graph.
type Propagator struct {
	graph *SystemGraph

	// Metrics is optional; when nil no diagnostics are recorded.
	Metrics SolverMetrics
}

// NewPropagator binds a propagator to an indexed graph.
func NewPropagator(g *SystemGraph) *Propagator {
	return &Propagator{graph: g}
}

// PositionOf returns the absolute position of the named body in metres
// at the given elapsed simulation time. Bodies without derived elements
// (the root star) keep their static snapshot position. Calling with
// elapsedHours = 0 reproduces the epoch position to solver tolerance.
func (p *Propagator) PositionOf(name string, elapsedHours float64) (r3.Vec, error) {
	body := p.graph.Body(name)
	if body == nil {
		return r3.Vec{}, fmt.Errorf("propagate: unknown body %q", name)
	}
	return p.position(body, elapsedHours), nil
}

// Positions returns the absolute position of every body at the given
// elapsed time, keyed by name. One full depth-first pass; each parent
// is solved exactly once.
func (p *Propagator) Positions(elapsedHours float64) map[string]r3.Vec {
	out := make(map[string]r3.Vec, p.graph.Len())
	root := p.graph.Root()
	if root == nil {
		return out
	}

	var walk func(body *model.CelestialBody, parentPos r3.Vec, hasParent bool)
	walk = func(body *model.CelestialBody, parentPos r3.Vec, hasParent bool) {
		var pos r3.Vec
		if !hasParent || body.Elements == nil {
			pos = body.Position
		} else {
			pos = r3.Add(parentPos, p.relativeOffset(body.Elements, elapsedHours))
		}
		out[body.Name] = pos
		for _, child := range body.Children {
			walk(child, pos, true)
		}
	}
	walk(root, r3.Vec{}, false)
	return out
}

func (p *Propagator) position(body *model.CelestialBody, elapsedHours float64) r3.Vec {
	if body.ParentName == "" || body.Elements == nil {
		return body.Position
	}
	parent := p.graph.Body(body.ParentName)
	parentPos := p.position(parent, elapsedHours)
	return r3.Add(parentPos, p.relativeOffset(body.Elements, elapsedHours))
}

// relativeOffset solves the two-body problem for one body at the given
// elapsed time and returns its offset from the parent in metres.
func (p *Propagator) relativeOffset(el *model.OrbitalElements, elapsedHours float64) r3.Vec {
	meanMotion := 2 * math.Pi / el.PeriodHours
	meanAnomaly := el.MeanAnomalyDeg*math.Pi/180 + meanMotion*elapsedHours

	ecc, iterations, converged := solveKepler(meanAnomaly, el.Eccentricity)
	if p.Metrics != nil {
		p.Metrics.ObserveKeplerIterations(iterations)
		if !converged {
			p.Metrics.IncSolverCap()
		}
	}

	nu := TrueAnomaly(ecc, el.Eccentricity)

	// The derived semi-major axis is the epoch parent-child distance,
	// not the geometric semi-major axis of the placeholder ellipse.
	// Scale so the ellipse passes through that distance at the epoch
	// anomaly; otherwise t=0 would not reproduce the snapshot.
	e := el.Eccentricity
	nu0 := TrueAnomaly(SolveKepler(el.MeanAnomalyDeg*math.Pi/180, e), e)
	a := el.SemiMajorAxisM * (1 + e*math.Cos(nu0)) / (1 - e*e)

	x, y := OrbitalPlanePosition(a, el.Eccentricity, nu)

	return RotateToReference(
		x, y,
		el.InclinationDeg*math.Pi/180,
		el.AscendingNodeDeg*math.Pi/180,
		el.ArgPeriapsisDeg*math.Pi/180,
	)
}

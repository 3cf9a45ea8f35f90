package core

import (
	"encoding/json"
	"fmt"
	"io"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/starsystem-viewer/model"
)

// MalformedGraphError reports a structural problem in a system-map
// document. Construction is atomic: when this error is returned no
// partially indexed graph exists.
type MalformedGraphError struct {
	Body   string // name of the offending body, when known
	Reason string
}

func (e *MalformedGraphError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("malformed system map: %s", e.Reason)
	}
	return fmt.Sprintf("malformed system map: body %q: %s", e.Body, e.Reason)
}

// SystemGraph is the indexed, read-only body hierarchy. All lookup
// tables preserve document (depth-first) order so iteration is
// deterministic.
type SystemGraph struct {
	root   *model.CelestialBody
	byName map[string]*model.CelestialBody
	byKind map[model.BodyKind][]*model.CelestialBody
	names  []string
}

// EmptySystem returns the typed empty sentinel: a graph with no bodies.
// Loaders hand it back alongside an explicit error instead of silently
// substituting fictional data.
func EmptySystem() *SystemGraph {
	return &SystemGraph{
		byName: map[string]*model.CelestialBody{},
		byKind: map[model.BodyKind][]*model.CelestialBody{},
	}
}

// Root returns the root star, or nil for the empty system.
func (g *SystemGraph) Root() *model.CelestialBody { return g.root }

// Body returns the body with the given name, or nil.
func (g *SystemGraph) Body(name string) *model.CelestialBody { return g.byName[name] }

// OfKind returns the bodies of the given kind in document order. The
// returned slice is shared and must not be mutated.
func (g *SystemGraph) OfKind(kind model.BodyKind) []*model.CelestialBody { return g.byKind[kind] }

// Names returns every body name in document order.
func (g *SystemGraph) Names() []string { return g.names }

// Len returns the number of bodies in the graph.
func (g *SystemGraph) Len() int { return len(g.names) }

// Parent returns the parent of the named body, or nil for the root and
// for unknown names.
func (g *SystemGraph) Parent(name string) *model.CelestialBody {
	b := g.byName[name]
	if b == nil || b.ParentName == "" {
		return nil
	}
	return g.byName[b.ParentName]
}

// JSON document shapes. Unexported so the wire format can evolve
// independently of the model types.
type bodyJSON struct {
	Name        string       `json:"name"`
	Label       string       `json:"label"`
	Kind        string       `json:"kind"`
	Position    positionJSON `json:"position"`
	DiameterM   *float64     `json:"diameter_m"`
	Color       string       `json:"color"`
	Destination string       `json:"destination"`
	Parent      string       `json:"parent"` // optional back-reference
	Children    []bodyJSON   `json:"children"`
}

type positionJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type systemMapJSON struct {
	System string   `json:"system"`
	Root   bodyJSON `json:"root"`
}

// LoadSystemMap reads a hierarchical system-map document from r and
// returns the fully indexed graph. On any structural problem it
// returns the empty system and a *MalformedGraphError; the graph is
// never partially populated. Loading the same document twice yields
// identical graphs.
func LoadSystemMap(r io.Reader) (*SystemGraph, error) {
	var doc systemMapJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return EmptySystem(), fmt.Errorf("decode system map: %w", err)
	}
	return buildGraph(&doc.Root)
}

// buildGraph converts the raw document tree into model bodies and
// builds the name and kind indexes in one depth-first pass.
func buildGraph(rootDoc *bodyJSON) (*SystemGraph, error) {
	g := EmptySystem()

	var walk func(doc *bodyJSON, parent *model.CelestialBody) (*model.CelestialBody, error)
	walk = func(doc *bodyJSON, parent *model.CelestialBody) (*model.CelestialBody, error) {
		if doc.Name == "" {
			return nil, &MalformedGraphError{Reason: "body without a name"}
		}
		if _, dup := g.byName[doc.Name]; dup {
			return nil, &MalformedGraphError{Body: doc.Name, Reason: "duplicate name"}
		}

		kind := model.BodyKind(doc.Kind)
		if !model.ValidKind(kind) {
			return nil, &MalformedGraphError{Body: doc.Name, Reason: fmt.Sprintf("unknown kind %q", doc.Kind)}
		}

		parentName := ""
		if parent != nil {
			parentName = parent.Name
		}
		// A declared back-reference must agree with the actual ancestor
		// link; a dangling one never resolves.
		if doc.Parent != "" && doc.Parent != parentName {
			return nil, &MalformedGraphError{
				Body:   doc.Name,
				Reason: fmt.Sprintf("parent %q does not resolve (actual parent %q)", doc.Parent, parentName),
			}
		}
		if parent == nil && doc.Parent != "" {
			return nil, &MalformedGraphError{Body: doc.Name, Reason: "root body declares a parent"}
		}

		body := &model.CelestialBody{
			Name:        doc.Name,
			Label:       doc.Label,
			Kind:        kind,
			Position:    r3.Vec{X: doc.Position.X, Y: doc.Position.Y, Z: doc.Position.Z},
			Color:       doc.Color,
			Destination: doc.Destination,
			ParentName:  parentName,
		}
		if doc.DiameterM != nil {
			body.DiameterM = *doc.DiameterM
		}
		if body.Label == "" {
			body.Label = body.Name
		}

		g.byName[body.Name] = body
		g.byKind[kind] = append(g.byKind[kind], body)
		g.names = append(g.names, body.Name)

		for i := range doc.Children {
			child, err := walk(&doc.Children[i], body)
			if err != nil {
				return nil, err
			}
			body.Children = append(body.Children, child)
		}
		return body, nil
	}

	root, err := walk(rootDoc, nil)
	if err != nil {
		return EmptySystem(), err
	}
	if root.Kind != model.KindStar {
		return EmptySystem(), &MalformedGraphError{Body: root.Name, Reason: "root must be a star"}
	}
	g.root = root
	return g, nil
}

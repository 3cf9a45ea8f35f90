package model

import "gonum.org/v1/gonum/spatial/r3"

// CameraMode is the framing mode of the viewer camera.
type CameraMode int

const (
	ModeOverview CameraMode = iota
	ModeOrbit
	ModeFirstPerson
)

func (m CameraMode) String() string {
	switch m {
	case ModeOverview:
		return "overview"
	case ModeOrbit:
		return "orbit"
	case ModeFirstPerson:
		return "first_person"
	default:
		return "unknown"
	}
}

// ZoomIntent is the user's current zoom request.
type ZoomIntent int

const (
	ZoomNone ZoomIntent = iota
	ZoomIn
	ZoomOut
)

// FocusTarget describes what the camera should frame. Created on
// selection and replaced wholesale on reselection; positions and radii
// are in scene units.
type FocusTarget struct {
	Name     string
	Kind     BodyKind
	Position r3.Vec
	Radius   float64
}

// CameraState is the controller's per-frame output. It is owned and
// mutated exclusively by the camera controller; everyone else reads a
// copy.
type CameraState struct {
	Mode               CameraMode
	Position           r3.Vec
	LookAt             r3.Vec
	Near               float64
	Far                float64
	Transitioning      bool
	TransitionProgress float64 // [0,1]
	Zoom               ZoomIntent
}

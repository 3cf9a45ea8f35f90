package core

import (
	"context"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/starsystem-viewer/internal/logging"
	"github.com/signalsfoundry/starsystem-viewer/model"
)

// Camera tuning. All distances are in scene units (gigametres).
const (
	transitionSeconds = 1.5

	// Zoom step grows continuously with distance-to-focus, so there are
	// no speed pops at band edges; the clamp keeps steps sane at the
	// extremes of the scale range.
	zoomRatePerSecond = 0.8
	minZoomStep       = 1e-8 // ~10 m
	maxZoomStep       = 25.0

	// minDistanceFactor floors the camera at a multiple of the focused
	// object's radius so it cannot clip into the surface.
	minDistanceFactor = 1.2

	// overviewMinHeight keeps the overview camera above the reference
	// plane.
	overviewMinHeight = 0.05

	// Near plane: distance times a fraction that itself shrinks at
	// close range, preserving depth precision at every scale.
	nearFracSlope = 1e-5 // per scene unit of distance
	nearFracMin   = 1e-4
	nearFracMax   = 2e-3
	nearFloor     = 1e-8 // ~10 m

	// Far plane: a multiple of the current distance with an absolute
	// floor; at overview range the multiple comfortably contains the
	// whole system.
	farMultiple = 25.0
	farFloor    = 1e-4

	orbitStandoffFactor       = 8.0
	firstPersonStandoffFactor = 4.0
	overviewPitch             = 0.9 // height/offset ratio of the wide shot
)

// CameraMetrics receives controller diagnostics.
type CameraMetrics interface {
	IncDegenerateFocus()
	SetCameraMode(mode model.CameraMode)
}

// CameraController owns the viewer camera. External collaborators never
// mutate camera state directly; they issue intents (ChangeFocus,
// SetMode, ResetView, ZoomIn/ZoomOut/StopZoom) and read the state
// returned by Update. The controller adapts zoom speed and clip planes
// continuously across the full metre-to-system scale range.
type CameraController struct {
	log logging.Logger

	// Metrics is optional; when nil no diagnostics are recorded.
	Metrics CameraMetrics

	// systemSpan is the radius of the whole system in scene units,
	// used for the overview framing and far-plane containment.
	systemSpan float64

	state model.CameraState
	focus *model.FocusTarget

	// Transition bookkeeping: interpolation runs from the pose at the
	// moment the transition started to the target pose.
	transElapsed float64
	fromPos      r3.Vec
	fromLook     r3.Vec
	targetPos    r3.Vec
	targetLook   r3.Vec
}

// NewCameraController builds a controller framing the system overview.
// systemSpan is the outermost orbit radius in scene units.
func NewCameraController(systemSpan float64, log logging.Logger) *CameraController {
	if log == nil {
		log = logging.Noop()
	}
	if !isFinite(systemSpan) || systemSpan <= 0 {
		systemSpan = 200
	}
	c := &CameraController{log: log, systemSpan: systemSpan}

	pos, look := c.overviewPose()
	c.state = model.CameraState{
		Mode:     model.ModeOverview,
		Position: pos,
		LookAt:   look,
	}
	c.applyClipPlanes()
	return c
}

// ChangeFocus selects a new focus target and switches mode according to
// the target's kind, starting an eased transition from the current
// pose. Degenerate input (non-finite position, zero/NaN radius) is
// ignored: the controller keeps its last valid state.
func (c *CameraController) ChangeFocus(t model.FocusTarget) {
	if !isFiniteVec(t.Position) || !isFinite(t.Radius) || t.Radius <= 0 {
		c.log.Warn(context.Background(), "ignoring degenerate focus target",
			logging.String("body", t.Name),
			logging.Float64("radius", t.Radius),
		)
		if c.Metrics != nil {
			c.Metrics.IncDegenerateFocus()
		}
		return
	}

	focus := t
	c.focus = &focus
	c.setMode(modeForKind(t.Kind))
}

// SetMode forces a framing mode for the current focus, with the same
// eased transition as a focus change.
func (c *CameraController) SetMode(m model.CameraMode) { c.setMode(m) }

// ResetView clears the focus and returns to the system overview.
func (c *CameraController) ResetView() {
	c.focus = nil
	c.setMode(model.ModeOverview)
}

// ZoomIn requests zooming toward the focus until StopZoom.
func (c *CameraController) ZoomIn() { c.state.Zoom = model.ZoomIn }

// ZoomOut requests zooming away from the focus until StopZoom.
func (c *CameraController) ZoomOut() { c.state.Zoom = model.ZoomOut }

// StopZoom clears any zoom intent.
func (c *CameraController) StopZoom() { c.state.Zoom = model.ZoomNone }

// Focus returns the current focus target, or nil in overview.
func (c *CameraController) Focus() *model.FocusTarget {
	if c.focus == nil {
		return nil
	}
	f := *c.focus
	return &f
}

// State returns a copy of the current camera state.
func (c *CameraController) State() model.CameraState { return c.state }

// TrackFocus follows a moving focus target: the camera translates
// rigidly with the body so framing is preserved. Non-finite positions
// are ignored and the last valid state holds.
func (c *CameraController) TrackFocus(pos r3.Vec) {
	if c.focus == nil {
		return
	}
	if !isFiniteVec(pos) {
		c.log.Warn(context.Background(), "ignoring non-finite focus position",
			logging.String("body", c.focus.Name))
		if c.Metrics != nil {
			c.Metrics.IncDegenerateFocus()
		}
		return
	}

	delta := r3.Sub(pos, c.focus.Position)
	c.focus.Position = pos

	c.state.Position = r3.Add(c.state.Position, delta)
	c.state.LookAt = r3.Add(c.state.LookAt, delta)
	c.fromPos = r3.Add(c.fromPos, delta)
	c.fromLook = r3.Add(c.fromLook, delta)
	c.targetPos = r3.Add(c.targetPos, delta)
	c.targetLook = r3.Add(c.targetLook, delta)
}

// Update advances the controller by dt seconds and returns the new
// state. During a transition the pose interpolates and user zoom is
// ignored; outside one, zoom intent is applied with scale-adaptive
// steps and distance floors. Clip planes recompute every frame.
func (c *CameraController) Update(dt float64) model.CameraState {
	if !isFinite(dt) || dt < 0 {
		return c.state
	}

	if c.state.Transitioning {
		c.advanceTransition(dt)
	} else if c.state.Zoom != model.ZoomNone {
		c.applyZoom(dt)
	}

	c.enforceFloors()
	c.applyClipPlanes()
	return c.state
}

func (c *CameraController) setMode(m model.CameraMode) {
	c.state.Mode = m
	if c.Metrics != nil {
		c.Metrics.SetCameraMode(m)
	}

	c.targetPos, c.targetLook = c.poseFor(m)

	// A new transition always restarts from the current, possibly
	// mid-transition, pose.
	c.fromPos = c.state.Position
	c.fromLook = c.state.LookAt
	c.transElapsed = 0
	c.state.Transitioning = true
	c.state.TransitionProgress = 0
	c.state.Zoom = model.ZoomNone
}

func (c *CameraController) poseFor(m model.CameraMode) (pos, look r3.Vec) {
	switch {
	case m == model.ModeOverview || c.focus == nil:
		return c.overviewPose()
	case m == model.ModeOrbit:
		return c.standoffPose(orbitStandoffFactor)
	default:
		return c.standoffPose(firstPersonStandoffFactor)
	}
}

// overviewPose is the wide shot: behind and above the system origin.
func (c *CameraController) overviewPose() (pos, look r3.Vec) {
	d := c.systemSpan * 1.2
	return r3.Vec{X: 0, Y: -d, Z: d * overviewPitch}, r3.Vec{}
}

// standoffPose frames the focus at a multiple of its radius, keeping
// the current viewing direction when one exists.
func (c *CameraController) standoffPose(factor float64) (pos, look r3.Vec) {
	f := c.focus
	standoff := f.Radius * factor

	dir := r3.Sub(c.state.Position, f.Position)
	if r3.Norm(dir) == 0 {
		dir = r3.Vec{X: 0, Y: -1, Z: 0.35}
	}
	dir = r3.Unit(dir)
	return r3.Add(f.Position, r3.Scale(standoff, dir)), f.Position
}

func (c *CameraController) advanceTransition(dt float64) {
	c.transElapsed += dt
	progress := c.transElapsed / transitionSeconds
	if progress >= 1 {
		c.state.Position = c.targetPos
		c.state.LookAt = c.targetLook
		c.state.Transitioning = false
		c.state.TransitionProgress = 1
		return
	}

	eased := easeInOutCubic(progress)
	c.state.Position = lerpVec(c.fromPos, c.targetPos, eased)
	c.state.LookAt = lerpVec(c.fromLook, c.targetLook, eased)
	c.state.TransitionProgress = progress
}

func (c *CameraController) applyZoom(dt float64) {
	look := c.lookTarget()
	toFocus := r3.Sub(look, c.state.Position)
	dist := r3.Norm(toFocus)
	if dist == 0 {
		return
	}

	step := dist * zoomRatePerSecond * dt
	step = clamp(step, minZoomStep, maxZoomStep)
	if c.state.Zoom == model.ZoomOut {
		step = -step
	}

	dir := r3.Unit(toFocus)
	c.state.Position = r3.Add(c.state.Position, r3.Scale(step, dir))
}

// enforceFloors keeps the camera outside the focused object and, in
// overview, above the reference plane.
func (c *CameraController) enforceFloors() {
	if c.focus != nil {
		minDist := c.focus.Radius * minDistanceFactor
		toCam := r3.Sub(c.state.Position, c.focus.Position)
		if d := r3.Norm(toCam); d < minDist {
			if d == 0 {
				toCam = r3.Vec{X: 0, Y: -1, Z: 0.35}
			}
			c.state.Position = r3.Add(c.focus.Position, r3.Scale(minDist, r3.Unit(toCam)))
		}
	}
	if c.state.Mode == model.ModeOverview && c.state.Position.Z < overviewMinHeight {
		c.state.Position.Z = overviewMinHeight
	}
}

// applyClipPlanes recomputes near/far from the current distance to the
// look target. Both are continuous in distance; this is what keeps a
// single perspective camera usable from metres to the full system span.
func (c *CameraController) applyClipPlanes() {
	dist := r3.Norm(r3.Sub(c.lookTarget(), c.state.Position))

	frac := clamp(dist*nearFracSlope, nearFracMin, nearFracMax)
	near := math.Max(nearFloor, dist*frac)

	far := math.Max(farFloor, dist*farMultiple)
	if c.state.Mode == model.ModeOverview {
		far = math.Max(far, c.systemSpan*4)
	}

	c.state.Near = near
	c.state.Far = far
}

func (c *CameraController) lookTarget() r3.Vec {
	if c.focus != nil {
		return c.focus.Position
	}
	return c.state.LookAt
}

func modeForKind(k model.BodyKind) model.CameraMode {
	switch k {
	case model.KindStar:
		return model.ModeOverview
	case model.KindPlanet, model.KindMoon:
		return model.ModeOrbit
	default:
		return model.ModeFirstPerson
	}
}

func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}

func lerpVec(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func isFiniteVec(v r3.Vec) bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

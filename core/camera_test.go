package core

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/starsystem-viewer/model"
)

type recordingCameraMetrics struct {
	degenerate int
	lastMode   model.CameraMode
	modeSets   int
}

func (m *recordingCameraMetrics) IncDegenerateFocus() { m.degenerate++ }
func (m *recordingCameraMetrics) SetCameraMode(mode model.CameraMode) {
	m.lastMode = mode
	m.modeSets++
}

func planetFocus() model.FocusTarget {
	return model.FocusTarget{
		Name:     "terra",
		Kind:     model.KindPlanet,
		Position: r3.Vec{X: 22.5, Y: 0, Z: 0},
		Radius:   0.006375,
	}
}

func settle(c *CameraController) {
	// Run well past the transition length.
	for i := 0; i < 40; i++ {
		c.Update(0.1)
	}
}

func TestNewCameraControllerStartsInOverview(t *testing.T) {
	c := NewCameraController(150, nil)
	state := c.State()

	if state.Mode != model.ModeOverview {
		t.Errorf("initial mode = %v, want overview", state.Mode)
	}
	if c.Focus() != nil {
		t.Error("initial focus is not nil")
	}
	if state.Near <= 0 || state.Far <= state.Near {
		t.Errorf("initial clip planes near=%v far=%v", state.Near, state.Far)
	}
	// The wide shot must contain the whole system.
	if state.Far < 4*150 {
		t.Errorf("overview far plane %v does not contain span 150", state.Far)
	}
}

func TestNewCameraControllerRejectsBadSpan(t *testing.T) {
	for _, span := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		c := NewCameraController(span, nil)
		state := c.State()
		if !isFiniteVec(state.Position) || state.Near <= 0 || state.Far <= state.Near {
			t.Errorf("span %v: unusable initial state %+v", span, state)
		}
	}
}

func TestChangeFocusModeByKind(t *testing.T) {
	cases := []struct {
		kind model.BodyKind
		want model.CameraMode
	}{
		{model.KindStar, model.ModeOverview},
		{model.KindPlanet, model.ModeOrbit},
		{model.KindMoon, model.ModeOrbit},
		{model.KindStation, model.ModeFirstPerson},
		{model.KindOutpost, model.ModeFirstPerson},
		{model.KindJumpPoint, model.ModeFirstPerson},
		{model.KindLagrange, model.ModeFirstPerson},
	}

	for _, tc := range cases {
		c := NewCameraController(150, nil)
		c.ChangeFocus(model.FocusTarget{
			Name: "x", Kind: tc.kind,
			Position: r3.Vec{X: 10}, Radius: 0.01,
		})
		if got := c.State().Mode; got != tc.want {
			t.Errorf("kind %s: mode = %v, want %v", tc.kind, got, tc.want)
		}
	}
}

func TestChangeFocusIgnoresDegenerateTarget(t *testing.T) {
	c := NewCameraController(150, nil)
	metrics := &recordingCameraMetrics{}
	c.Metrics = metrics

	c.ChangeFocus(planetFocus())
	before := c.State()
	focusBefore := c.Focus()

	bad := []model.FocusTarget{
		{Name: "nan-pos", Kind: model.KindPlanet, Position: r3.Vec{X: math.NaN()}, Radius: 0.01},
		{Name: "inf-pos", Kind: model.KindPlanet, Position: r3.Vec{Y: math.Inf(1)}, Radius: 0.01},
		{Name: "zero-radius", Kind: model.KindPlanet, Position: r3.Vec{X: 1}, Radius: 0},
		{Name: "nan-radius", Kind: model.KindPlanet, Position: r3.Vec{X: 1}, Radius: math.NaN()},
	}
	for _, target := range bad {
		c.ChangeFocus(target)
	}

	if metrics.degenerate != len(bad) {
		t.Errorf("degenerate counter = %d, want %d", metrics.degenerate, len(bad))
	}
	if got := c.State(); got.Mode != before.Mode || got.Position != before.Position {
		t.Errorf("state changed on degenerate input: %+v vs %+v", got, before)
	}
	if got := c.Focus(); got == nil || got.Name != focusBefore.Name {
		t.Errorf("focus changed on degenerate input: %+v", got)
	}
}

func TestTransitionLifecycle(t *testing.T) {
	c := NewCameraController(150, nil)
	start := c.State().Position

	c.ChangeFocus(planetFocus())
	if !c.State().Transitioning {
		t.Fatal("transition did not start")
	}

	mid := c.Update(0.75)
	if !mid.Transitioning {
		t.Fatal("transition ended early")
	}
	if mid.TransitionProgress <= 0 || mid.TransitionProgress >= 1 {
		t.Errorf("mid progress = %v, want in (0,1)", mid.TransitionProgress)
	}
	if mid.Position == start {
		t.Error("camera has not moved mid-transition")
	}

	end := c.Update(0.80)
	if end.Transitioning {
		t.Error("transition still active after full duration")
	}
	if end.TransitionProgress != 1 {
		t.Errorf("final progress = %v, want 1", end.TransitionProgress)
	}

	// Settled orbit pose stands off at a multiple of the focus radius.
	f := planetFocus()
	dist := r3.Norm(r3.Sub(end.Position, f.Position))
	if relErr(dist, f.Radius*orbitStandoffFactor) > 1e-9 {
		t.Errorf("standoff distance = %v, want %v", dist, f.Radius*orbitStandoffFactor)
	}
	if end.LookAt != f.Position {
		t.Errorf("look target = %+v, want focus position", end.LookAt)
	}
}

func TestTransitionRestartsFromCurrentPose(t *testing.T) {
	c := NewCameraController(150, nil)
	c.ChangeFocus(planetFocus())
	mid := c.Update(0.5)

	// Redirecting mid-flight must not snap: the new transition starts
	// exactly where the old one was.
	c.ChangeFocus(model.FocusTarget{
		Name: "luna", Kind: model.KindMoon,
		Position: r3.Vec{X: 23, Y: 0, Z: 0}, Radius: 0.001735,
	})
	if got := c.State(); got.Position != mid.Position {
		t.Errorf("pose snapped on redirect: %+v vs %+v", got.Position, mid.Position)
	}
	if got := c.State(); !got.Transitioning || got.TransitionProgress != 0 {
		t.Errorf("redirect did not restart the transition: %+v", got)
	}
}

func TestResetViewReturnsToOverview(t *testing.T) {
	c := NewCameraController(150, nil)
	c.ChangeFocus(planetFocus())
	settle(c)

	c.ResetView()
	if c.Focus() != nil {
		t.Error("focus not cleared")
	}
	if c.State().Mode != model.ModeOverview {
		t.Errorf("mode = %v, want overview", c.State().Mode)
	}
	settle(c)
	if z := c.State().Position.Z; z < overviewMinHeight {
		t.Errorf("overview camera below plane floor: z = %v", z)
	}
}

func TestZoomRespectsMinimumDistance(t *testing.T) {
	c := NewCameraController(150, nil)
	f := planetFocus()
	c.ChangeFocus(f)
	settle(c)

	c.ZoomIn()
	for i := 0; i < 10_000; i++ {
		c.Update(0.1)
	}

	dist := r3.Norm(r3.Sub(c.State().Position, f.Position))
	if dist < f.Radius*1.1 {
		t.Errorf("camera clipped into the body: dist %v, radius %v", dist, f.Radius)
	}
	if dist > f.Radius*minDistanceFactor*1.001 {
		t.Errorf("sustained zoom stalled at %v, floor is %v", dist, f.Radius*minDistanceFactor)
	}
}

func TestZoomOutAndStop(t *testing.T) {
	c := NewCameraController(150, nil)
	c.ChangeFocus(planetFocus())
	settle(c)
	before := r3.Norm(r3.Sub(c.State().Position, planetFocus().Position))

	c.ZoomOut()
	c.Update(0.1)
	after := r3.Norm(r3.Sub(c.State().Position, planetFocus().Position))
	if after <= before {
		t.Errorf("zoom out did not increase distance: %v -> %v", before, after)
	}

	c.StopZoom()
	c.Update(0.1)
	still := r3.Norm(r3.Sub(c.State().Position, planetFocus().Position))
	if still != after {
		t.Errorf("camera moved after StopZoom: %v -> %v", after, still)
	}
}

func TestZoomIgnoredDuringTransition(t *testing.T) {
	c := NewCameraController(150, nil)
	c.ChangeFocus(planetFocus())
	if c.State().Zoom != model.ZoomNone {
		t.Error("starting a transition did not clear zoom intent")
	}

	c.ZoomIn()
	mid := c.Update(0.5)
	if !mid.Transitioning {
		t.Fatal("expected an active transition")
	}
	// Mid-transition pose must match a zoom-free run of the same length.
	ref := NewCameraController(150, nil)
	ref.ChangeFocus(planetFocus())
	want := ref.Update(0.5)
	if mid.Position != want.Position {
		t.Errorf("zoom leaked into transition: %+v vs %+v", mid.Position, want.Position)
	}
}

func TestClipPlanesScaleWithDistance(t *testing.T) {
	c := NewCameraController(150, nil)
	f := planetFocus()
	c.ChangeFocus(f)
	settle(c)
	near1, far1 := c.State().Near, c.State().Far

	c.ZoomOut()
	for i := 0; i < 50; i++ {
		c.Update(0.1)
	}
	near2, far2 := c.State().Near, c.State().Far

	if near1 <= 0 || far1 <= near1 || near2 <= 0 || far2 <= near2 {
		t.Fatalf("invalid clip planes: (%v,%v) then (%v,%v)", near1, far1, near2, far2)
	}
	if near2 <= near1 || far2 <= far1 {
		t.Errorf("planes did not grow with distance: near %v->%v far %v->%v",
			near1, near2, far1, far2)
	}
}

func TestTrackFocusPreservesFraming(t *testing.T) {
	c := NewCameraController(150, nil)
	f := planetFocus()
	c.ChangeFocus(f)
	settle(c)

	before := c.State()
	offset := r3.Sub(before.Position, f.Position)

	moved := r3.Add(f.Position, r3.Vec{X: 0.5, Y: 1.25, Z: 0})
	c.TrackFocus(moved)
	after := c.State()

	if got := r3.Sub(after.Position, moved); r3.Norm(r3.Sub(got, offset)) > 1e-12 {
		t.Errorf("framing offset changed while tracking: %+v vs %+v", got, offset)
	}
	if after.LookAt != moved {
		t.Errorf("look target = %+v, want %+v", after.LookAt, moved)
	}
	if got := c.Focus(); got.Position != moved {
		t.Errorf("focus position = %+v, want %+v", got.Position, moved)
	}
}

func TestTrackFocusRejectsNonFinite(t *testing.T) {
	c := NewCameraController(150, nil)
	metrics := &recordingCameraMetrics{}
	c.Metrics = metrics
	c.ChangeFocus(planetFocus())
	settle(c)
	before := c.State()

	c.TrackFocus(r3.Vec{X: math.NaN()})
	if got := c.State(); got.Position != before.Position {
		t.Errorf("state changed on non-finite track: %+v", got)
	}
	if metrics.degenerate != 1 {
		t.Errorf("degenerate counter = %d, want 1", metrics.degenerate)
	}
}

func TestSetModeReportsMetrics(t *testing.T) {
	c := NewCameraController(150, nil)
	metrics := &recordingCameraMetrics{}
	c.Metrics = metrics

	c.ChangeFocus(planetFocus())
	if metrics.lastMode != model.ModeOrbit {
		t.Errorf("reported mode = %v, want orbit", metrics.lastMode)
	}
	c.SetMode(model.ModeFirstPerson)
	if metrics.lastMode != model.ModeFirstPerson || metrics.modeSets != 2 {
		t.Errorf("mode metric = %v after %d sets", metrics.lastMode, metrics.modeSets)
	}
}

func TestUpdateRejectsBadDt(t *testing.T) {
	c := NewCameraController(150, nil)
	c.ChangeFocus(planetFocus())
	before := c.State()

	for _, dt := range []float64{-1, math.NaN(), math.Inf(1)} {
		got := c.Update(dt)
		if got.Position != before.Position || got.TransitionProgress != before.TransitionProgress {
			t.Errorf("dt=%v advanced the controller: %+v", dt, got)
		}
	}
}

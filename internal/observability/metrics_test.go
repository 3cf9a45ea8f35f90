package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/signalsfoundry/starsystem-viewer/model"
)

func TestObserveFrameRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewViewerCollector(reg)
	if err != nil {
		t.Fatalf("NewViewerCollector: %v", err)
	}

	collector.ObserveFrame(2 * time.Millisecond)
	collector.ObserveFrame(5 * time.Millisecond)

	if got := testutil.ToFloat64(collector.FramesTotal); got != 2 {
		t.Fatalf("viewer_frames_total = %v, want 2", got)
	}
	if count := histogramSampleCount(t, reg, "viewer_frame_duration_seconds", nil); count != 2 {
		t.Fatalf("viewer_frame_duration_seconds sample_count = %d, want 2", count)
	}
}

func TestSolverMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewViewerCollector(reg)
	if err != nil {
		t.Fatalf("NewViewerCollector: %v", err)
	}

	for _, n := range []int{3, 4, 5} {
		collector.ObserveKeplerIterations(n)
	}
	collector.IncSolverCap()

	if count := histogramSampleCount(t, reg, "viewer_kepler_iterations", nil); count != 3 {
		t.Fatalf("viewer_kepler_iterations sample_count = %d, want 3", count)
	}
	if got := testutil.ToFloat64(collector.SolverCapTotal); got != 1 {
		t.Fatalf("viewer_kepler_iteration_cap_total = %v, want 1", got)
	}
}

func TestCameraMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewViewerCollector(reg)
	if err != nil {
		t.Fatalf("NewViewerCollector: %v", err)
	}

	collector.IncDegenerateFocus()
	collector.IncDegenerateFocus()
	collector.SetCameraMode(model.ModeOrbit)

	if got := testutil.ToFloat64(collector.DegenerateFocus); got != 2 {
		t.Fatalf("viewer_camera_degenerate_focus_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.CameraMode); got != float64(model.ModeOrbit) {
		t.Fatalf("viewer_camera_mode = %v, want %v", got, float64(model.ModeOrbit))
	}
}

func TestSetBodyCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewViewerCollector(reg)
	if err != nil {
		t.Fatalf("NewViewerCollector: %v", err)
	}

	collector.SetBodyCounts(map[model.BodyKind]int{
		model.KindStar:   1,
		model.KindPlanet: 2,
		model.KindMoon:   3,
	})

	if got := testutil.ToFloat64(collector.BodiesByKind.WithLabelValues(string(model.KindPlanet))); got != 2 {
		t.Fatalf("viewer_bodies{kind=PLANET} = %v, want 2", got)
	}
	// Absent kinds read as explicit zeros, not missing series.
	if got := testutil.ToFloat64(collector.BodiesByKind.WithLabelValues(string(model.KindStation))); got != 0 {
		t.Fatalf("viewer_bodies{kind=STATION} = %v, want 0", got)
	}
	if got := testutil.ToFloat64(collector.GraphSwapsTotal); got != 1 {
		t.Fatalf("viewer_graph_swaps_total = %v, want 1", got)
	}
}

func TestNewViewerCollectorToleratesDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewViewerCollector(reg)
	if err != nil {
		t.Fatalf("first NewViewerCollector: %v", err)
	}
	second, err := NewViewerCollector(reg)
	if err != nil {
		t.Fatalf("second NewViewerCollector: %v", err)
	}

	// Both handles drive the same underlying series.
	first.ObserveFrame(time.Millisecond)
	second.ObserveFrame(time.Millisecond)
	if got := testutil.ToFloat64(second.FramesTotal); got != 2 {
		t.Fatalf("viewer_frames_total = %v, want 2", got)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewViewerCollector(reg)
	if err != nil {
		t.Fatalf("NewViewerCollector: %v", err)
	}
	collector.ObserveFrame(time.Millisecond)

	srv := httptest.NewServer(collector.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "viewer_frames_total") {
		t.Fatal("exposition is missing viewer_frames_total")
	}
}

func histogramSampleCount(t *testing.T, g prometheus.Gatherer, name string, matchLabels map[string]string) uint64 {
	t.Helper()

	families, err := g.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if !labelsMatch(m, matchLabels) {
				continue
			}
			if h := m.GetHistogram(); h != nil {
				return h.GetSampleCount()
			}
		}
	}
	return 0
}

func labelsMatch(m *dto.Metric, want map[string]string) bool {
	if len(want) == 0 {
		return true
	}
	got := map[string]string{}
	for _, lp := range m.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

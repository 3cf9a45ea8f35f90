package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/starsystem-viewer/model"
)

// ViewerCollector bundles Prometheus metrics for the viewer core: the
// frame loop, the Kepler solver, and the camera controller. It
// implements the core's SolverMetrics and CameraMetrics hooks.
type ViewerCollector struct {
	gatherer prometheus.Gatherer

	FrameDuration    prometheus.Histogram
	FramesTotal      prometheus.Counter
	BodiesByKind     *prometheus.GaugeVec
	KeplerIterations prometheus.Histogram
	SolverCapTotal   prometheus.Counter
	DegenerateFocus  prometheus.Counter
	CameraMode       prometheus.Gauge
	GraphSwapsTotal  prometheus.Counter
}

// NewViewerCollector registers viewer metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewViewerCollector(reg prometheus.Registerer) (*ViewerCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	frameDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "viewer_frame_duration_seconds",
		Help:    "Wall time spent in one frame-loop tick (propagation + camera update).",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	})
	frameDuration, err := registerHistogram(reg, frameDuration, "viewer_frame_duration_seconds")
	if err != nil {
		return nil, err
	}

	frames := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "viewer_frames_total",
		Help: "Total frame-loop ticks processed; its rate is the effective FPS.",
	})
	frames, err = registerCounter(reg, frames, "viewer_frames_total")
	if err != nil {
		return nil, err
	}

	bodies := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "viewer_bodies",
		Help: "Number of bodies in the current system graph, labeled by kind.",
	}, []string{"kind"})
	bodies, err = registerGaugeVec(reg, bodies, "viewer_bodies")
	if err != nil {
		return nil, err
	}

	keplerIterations := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "viewer_kepler_iterations",
		Help:    "Newton-Raphson iterations per Kepler solve.",
		Buckets: []float64{1, 2, 3, 4, 5, 7, 10, 15, 20, 30},
	})
	keplerIterations, err = registerHistogram(reg, keplerIterations, "viewer_kepler_iterations")
	if err != nil {
		return nil, err
	}

	solverCap := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "viewer_kepler_iteration_cap_total",
		Help: "Kepler solves that hit the iteration cap and returned a best estimate.",
	})
	solverCap, err = registerCounter(reg, solverCap, "viewer_kepler_iteration_cap_total")
	if err != nil {
		return nil, err
	}

	degenerate := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "viewer_camera_degenerate_focus_total",
		Help: "Focus updates ignored because the target position or radius was degenerate.",
	})
	degenerate, err = registerCounter(reg, degenerate, "viewer_camera_degenerate_focus_total")
	if err != nil {
		return nil, err
	}

	cameraMode := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "viewer_camera_mode",
		Help: "Current camera mode (0=overview, 1=orbit, 2=first_person).",
	})
	cameraMode, err = registerGauge(reg, cameraMode, "viewer_camera_mode")
	if err != nil {
		return nil, err
	}

	swaps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "viewer_graph_swaps_total",
		Help: "Cumulative number of system-graph replacements.",
	})
	swaps, err = registerCounter(reg, swaps, "viewer_graph_swaps_total")
	if err != nil {
		return nil, err
	}

	return &ViewerCollector{
		gatherer:         gatherer,
		FrameDuration:    frameDuration,
		FramesTotal:      frames,
		BodiesByKind:     bodies,
		KeplerIterations: keplerIterations,
		SolverCapTotal:   solverCap,
		DegenerateFocus:  degenerate,
		CameraMode:       cameraMode,
		GraphSwapsTotal:  swaps,
	}, nil
}

// ObserveFrame records one frame-loop tick.
func (c *ViewerCollector) ObserveFrame(d time.Duration) {
	if c == nil {
		return
	}
	c.FrameDuration.Observe(d.Seconds())
	c.FramesTotal.Inc()
}

// ObserveKeplerIterations satisfies core.SolverMetrics.
func (c *ViewerCollector) ObserveKeplerIterations(n int) {
	if c == nil {
		return
	}
	c.KeplerIterations.Observe(float64(n))
}

// IncSolverCap satisfies core.SolverMetrics.
func (c *ViewerCollector) IncSolverCap() {
	if c == nil {
		return
	}
	c.SolverCapTotal.Inc()
}

// IncDegenerateFocus satisfies core.CameraMetrics.
func (c *ViewerCollector) IncDegenerateFocus() {
	if c == nil {
		return
	}
	c.DegenerateFocus.Inc()
}

// SetCameraMode satisfies core.CameraMetrics.
func (c *ViewerCollector) SetCameraMode(mode model.CameraMode) {
	if c == nil {
		return
	}
	c.CameraMode.Set(float64(mode))
}

// SetBodyCounts drives the per-kind body gauges after a graph swap.
func (c *ViewerCollector) SetBodyCounts(counts map[model.BodyKind]int) {
	if c == nil {
		return
	}
	for _, kind := range model.Kinds {
		c.BodiesByKind.WithLabelValues(string(kind)).Set(float64(counts[kind]))
	}
	c.GraphSwapsTotal.Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *ViewerCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/signalsfoundry/starsystem-viewer/core"
	"github.com/signalsfoundry/starsystem-viewer/internal/logging"
	"github.com/signalsfoundry/starsystem-viewer/internal/observability"
	"github.com/signalsfoundry/starsystem-viewer/kb"
	"github.com/signalsfoundry/starsystem-viewer/model"
	"github.com/signalsfoundry/starsystem-viewer/timectrl"
)

const appName = "starviewer"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Star system viewer computation core",
	Long: `starviewer loads a hierarchical star-system snapshot, derives
orbital elements for every body, and drives time-based position
propagation and an adaptive camera across the full system scale range.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the frame loop against a system map",
	RunE:  runViewer,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a system map and print a summary",
	RunE:  validateMap,
}

var elementsCmd = &cobra.Command{
	Use:   "elements [body]",
	Short: "Print derived orbital elements",
	Args:  cobra.MaximumNArgs(1),
	RunE:  printElements,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default none)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().String("map", "configs/system_map.json", "path to the system map JSON")

	runCmd.Flags().Duration("duration", 0, "how long to run (0 = until interrupted)")
	runCmd.Flags().Duration("tick", 100*time.Millisecond, "frame tick interval")
	runCmd.Flags().Float64("rate", 3600, "simulated seconds per wall second")
	runCmd.Flags().String("metrics-addr", ":9090", "HTTP address for Prometheus /metrics (empty disables)")
	runCmd.Flags().String("focus", "", "name of a body to focus at startup")

	cobra.OnInitialize(initConfig)

	mustBind := func(key string, cmd *cobra.Command, flag string) {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			f = cmd.PersistentFlags().Lookup(flag)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			panic(err)
		}
	}
	mustBind("log.level", rootCmd, "log-level")
	mustBind("log.format", rootCmd, "log-format")
	mustBind("map", rootCmd, "map")
	mustBind("run.duration", runCmd, "duration")
	mustBind("run.tick", runCmd, "tick")
	mustBind("run.rate", runCmd, "rate")
	mustBind("run.metrics_addr", runCmd, "metrics-addr")
	mustBind("run.focus", runCmd, "focus")

	rootCmd.AddCommand(runCmd, validateCmd, elementsCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	viper.SetEnvPrefix("VIEWER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to read config %q: %v\n", cfgFile, err)
			os.Exit(1)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() logging.Logger {
	return logging.New(logging.Config{
		Level:  viper.GetString("log.level"),
		Format: viper.GetString("log.format"),
	})
}

// loadSystem loads, validates, and derives orbital elements for the
// system map at path. Construction-time failures abort: a malformed
// dataset must prevent the scene from loading, never produce a
// silently broken one.
func loadSystem(ctx context.Context, path string) (*core.SystemGraph, error) {
	tracer := otel.Tracer(appName)

	ctx, loadSpan := tracer.Start(ctx, "load_system_map")
	f, err := os.Open(path)
	if err != nil {
		loadSpan.End()
		return nil, fmt.Errorf("open system map %q: %w", path, err)
	}
	defer f.Close()

	graph, err := core.LoadSystemMap(f)
	loadSpan.End()
	if err != nil {
		return nil, err
	}

	_, deriveSpan := tracer.Start(ctx, "derive_orbital_elements")
	core.DeriveAll(graph)
	deriveSpan.End()

	return graph, nil
}

func runViewer(cmd *cobra.Command, args []string) error {
	log := newLogger()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	collector, err := observability.NewViewerCollector(nil)
	if err != nil {
		return fmt.Errorf("init metrics collector: %w", err)
	}

	var metricsSrv *http.Server
	if addr := viper.GetString("run.metrics_addr"); addr != "" {
		metricsSrv = serveMetrics(addr, collector, log)
	}

	graph, err := loadSystem(ctx, viper.GetString("map"))
	if err != nil {
		log.Error(ctx, "failed to load system map", logging.String("error", err.Error()))
		return err
	}

	store := kb.NewSystemStore()
	unsubscribe := store.Subscribe(func(ev kb.Event) {
		switch ev.Type {
		case kb.EventGraphSwapped:
			log.Info(ctx, "system graph swapped", logging.String("event_id", ev.ID))
		case kb.EventSelectionChanged:
			log.Info(ctx, "selection changed",
				logging.String("event_id", ev.ID),
				logging.String("body", ev.Body))
		}
	})
	defer unsubscribe()

	store.Swap(graph)
	collector.SetBodyCounts(kindCounts(graph))
	log.Info(ctx, "system map loaded",
		logging.String("root", graph.Root().Name),
		logging.Int("bodies", graph.Len()),
	)

	prop := core.NewPropagator(graph)
	prop.Metrics = collector

	camera := core.NewCameraController(core.SystemSpan(graph), log)
	camera.Metrics = collector

	if focus := viper.GetString("run.focus"); focus != "" {
		if err := store.Select(focus); err != nil {
			log.Warn(ctx, "startup focus not found", logging.String("body", focus))
		} else {
			body := graph.Body(focus)
			pos, _ := prop.PositionOf(focus, 0)
			camera.ChangeFocus(core.FocusTargetFor(body, pos))
		}
	}

	tick := viper.GetDuration("run.tick")
	tc := timectrl.NewTimeController(time.Now().UTC(), tick, viper.GetFloat64("run.rate"))

	tc.AddListener(func(simTime time.Time, elapsedHours float64) {
		start := time.Now()

		if selected := store.Selection(); selected != "" {
			if pos, err := prop.PositionOf(selected, elapsedHours); err == nil {
				camera.TrackFocus(core.FocusTargetFor(store.Graph().Body(selected), pos).Position)
			}
		}
		state := camera.Update(tick.Seconds())

		frame, err := core.BuildFrame(store.Graph(), prop, elapsedHours)
		if err != nil {
			log.Warn(ctx, "frame build failed", logging.String("error", err.Error()))
			return
		}

		collector.ObserveFrame(time.Since(start))
		log.Debug(ctx, "frame",
			logging.String("sim_time", simTime.Format(time.RFC3339)),
			logging.Float64("elapsed_hours", elapsedHours),
			logging.Int("bodies", len(frame)),
			logging.String("camera_mode", state.Mode.String()),
			logging.Float64("near", state.Near),
			logging.Float64("far", state.Far),
		)
	})

	duration := viper.GetDuration("run.duration")
	log.Info(ctx, "starting frame loop",
		logging.String("tick", tick.String()),
		logging.Float64("rate", viper.GetFloat64("run.rate")),
	)
	done := tc.Start(duration)

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	select {
	case <-done:
	case <-stopCtx.Done():
	}

	log.Info(ctx, "shutting down")
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return nil
}

func validateMap(cmd *cobra.Command, args []string) error {
	log := newLogger()
	ctx := context.Background()

	graph, err := loadSystem(ctx, viper.GetString("map"))
	if err != nil {
		log.Error(ctx, "system map invalid", logging.String("error", err.Error()))
		return err
	}

	fmt.Printf("system map OK: root %q, %d bodies\n", graph.Root().Name, graph.Len())
	for _, kind := range model.Kinds {
		if n := len(graph.OfKind(kind)); n > 0 {
			fmt.Printf("  %-11s %d\n", strings.ToLower(string(kind)), n)
		}
	}
	return nil
}

func printElements(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	graph, err := loadSystem(ctx, viper.GetString("map"))
	if err != nil {
		return err
	}

	names := graph.Names()
	if len(args) == 1 {
		if graph.Body(args[0]) == nil {
			return fmt.Errorf("unknown body %q", args[0])
		}
		names = []string{args[0]}
	}

	fmt.Printf("%-24s %14s %8s %8s %8s %12s\n",
		"BODY", "SEMI-MAJOR(Gm)", "ECC", "INCL°", "NODE°", "PERIOD(h)")
	for _, name := range names {
		body := graph.Body(name)
		if body.Elements == nil {
			fmt.Printf("%-24s %14s\n", name, "-")
			continue
		}
		el := body.Elements
		fmt.Printf("%-24s %14.3f %8.3f %8.2f %8.2f %12.1f\n",
			name,
			core.MetersToScene(el.SemiMajorAxisM),
			el.Eccentricity,
			el.InclinationDeg,
			el.AscendingNodeDeg,
			el.PeriodHours,
		)
	}
	return nil
}

func kindCounts(g *core.SystemGraph) map[model.BodyKind]int {
	counts := make(map[model.BodyKind]int, len(model.Kinds))
	for _, kind := range model.Kinds {
		counts[kind] = len(g.OfKind(kind))
	}
	return counts
}

func serveMetrics(addr string, collector *observability.ViewerCollector, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(context.Background(), "metrics server exited",
				logging.String("addr", addr),
				logging.String("error", err.Error()))
		}
	}()
	return srv
}

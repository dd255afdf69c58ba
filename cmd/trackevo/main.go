package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/trackevo/internal/analysis"
	"github.com/san-kum/trackevo/internal/automation"
	"github.com/san-kum/trackevo/internal/config"
	"github.com/san-kum/trackevo/internal/export"
	"github.com/san-kum/trackevo/internal/sim"
	"github.com/san-kum/trackevo/internal/storage"
	"github.com/san-kum/trackevo/internal/surface"
	"github.com/san-kum/trackevo/internal/telemetry"
	"github.com/san-kum/trackevo/internal/tui"
	"github.com/san-kum/trackevo/internal/viz"
)

var (
	dataDir     string
	verbose     bool
	configFile  string
	preset      string
	patchFile   string
	profileName string
	seed        int64
	cars        int
	duration    float64
	frameDt     float64
	trackID     string
	noSave      bool
	watch       bool
	// query and profile
	sampleS float64
	sampleD float64
	channel string
	// serve
	addr         string
	publishEvery int
	speedup      float64
	// sweep and ensemble
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	metricName string
	maximize   bool
	runs       int
	// export
	svgFile  string
	jsonFile string
)

var logger *slog.Logger

func main() {
	rootCmd := &cobra.Command{
		Use:   "trackevo",
		Short: "dynamic track surface evolution",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPicker()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	sessionFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
		cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
		cmd.Flags().StringVar(&patchFile, "patch", "", "evolution merge-patch file (yaml)")
		cmd.Flags().StringVar(&profileName, "profile", "", "rule profile (standard, extended)")
		cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 keeps the config seed)")
		cmd.Flags().IntVar(&cars, "cars", -1, "number of cars (-1 keeps the config value)")
		cmd.Flags().Float64Var(&duration, "time", 0, "session length in seconds (0 keeps the config value)")
		cmd.Flags().Float64Var(&frameDt, "dt", 0.05, "physics frame length in seconds")
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a session and save its summary",
		RunE:  runSession,
	}
	sessionFlags(runCmd)
	runCmd.Flags().StringVar(&trackID, "track", "default", "track identifier for the summary")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not write a summary")
	runCmd.Flags().BoolVar(&watch, "watch", false, "redraw the surface while running")

	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "run a session and sample one position",
		RunE:  querySession,
	}
	sessionFlags(queryCmd)
	queryCmd.Flags().Float64Var(&sampleS, "s", 0, "arc length in metres")
	queryCmd.Flags().Float64Var(&sampleD, "d", 0, "lateral offset in metres")

	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "plot a channel along the lap after a session",
		RunE:  plotProfile,
	}
	sessionFlags(profileCmd)
	profileCmd.Flags().Float64Var(&sampleD, "d", 0, "lateral offset in metres")
	profileCmd.Flags().StringVar(&channel, "channel", "grip", "grip, rubber, marbles, dust or temperature")

	summaryCmd := &cobra.Command{
		Use:   "summary [track]",
		Short: "show the saved summary of a track",
		Args:  cobra.ExactArgs(1),
		RunE:  showSummary,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list tracks with saved summaries",
		RunE:  listTracks,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a session with live visualization",
		RunE:  runLive,
	}
	sessionFlags(liveCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run a session and stream telemetry over websocket",
		RunE:  serveTelemetry,
	}
	sessionFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().IntVar(&publishEvery, "every", 10, "frames between telemetry frames")
	serveCmd.Flags().Float64Var(&speedup, "speed", 1, "simulated seconds per wall-clock second")
	serveCmd.Flags().StringVar(&trackID, "track", "default", "track identifier for the summary")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the resolved session config as yaml",
		RunE:  dumpConfig,
	}
	sessionFlags(configCmd)

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().Float64Var(&frameDt, "dt", 0.05, "physics frame length in seconds")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "compare sessions across one evolution parameter",
		RunE:  runSweep,
	}
	sessionFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "rubber_transfer_coefficient", "evolution field to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.0005, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0.004, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	sweepCmd.Flags().StringVar(&metricName, "metric", "racing_line_grip", "metric to rank by")
	sweepCmd.Flags().BoolVar(&maximize, "maximize", true, "rank the highest metric first")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "repeat a session under consecutive seeds",
		RunE:  runEnsemble,
	}
	sessionFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&runs, "runs", 8, "number of seeds")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "run a session and export the final surface",
		RunE:  exportSurface,
	}
	sessionFlags(exportCmd)
	exportCmd.Flags().StringVar(&trackID, "track", "default", "track identifier")
	exportCmd.Flags().StringVar(&svgFile, "svg", "", "write the visualized channel as svg")
	exportCmd.Flags().StringVar(&jsonFile, "json", "", "write every channel as json (- for stdout)")

	rootCmd.AddCommand(runCmd, queryCmd, profileCmd, summaryCmd, listCmd, liveCmd, serveCmd, presetsCmd, configCmd,
		scenarioCmd, sweepCmd, ensembleCmd, exportCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func startSession() (*sim.Session, error) {
	cfg, err := loadConfig(logger)
	if err != nil {
		return nil, err
	}
	return sim.New(cfg, logger)
}

// runFull starts a session and runs it for the configured duration.
func runFull(ctx context.Context) (*sim.Session, *sim.Result, error) {
	s, err := startSession()
	if err != nil {
		return nil, nil, err
	}
	if watch {
		r := tui.NewLiveRenderer(sessionName(), 10, os.Stdout)
		r.Start()
		defer r.Stop()
		s.AddObserver(r)
	}
	res, err := s.Run(ctx, sim.Config{Dt: frameDt, Duration: s.Config().Duration, SampleEvery: 100})
	if errors.Is(err, context.Canceled) {
		logger.Warn("session interrupted", "elapsed", s.Elapsed())
		return s, res, nil
	}
	return s, res, err
}

func runSession(cmd *cobra.Command, args []string) error {
	start := time.Now()
	s, res, err := runFull(cmd.Context())
	if err != nil {
		return err
	}
	mgr := s.Manager()
	logger.Info("session finished",
		"simulated", res.Elapsed,
		"frames", mgr.Frame(),
		"wall", time.Since(start).Round(time.Millisecond),
	)

	fmt.Printf("session: %s profile, %d cars, %.0fs, ends at %05.2fh\n\n",
		mgr.Profile(), s.Config().Cars, res.Elapsed, mgr.TimeOfDay())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tVALUE")
	for _, m := range s.Metrics() {
		fmt.Fprintf(w, "%s\t%.5f\n", m.Name(), m.Value())
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(res.MeanGrip) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(res.MeanGrip,
			asciigraph.Height(8),
			asciigraph.Width(80),
			asciigraph.Caption("mean grip over the session"),
		))
	}

	mode := mgr.Config().VisualizationMode
	if values, ok := mgr.VisualField(); ok {
		rng, fixed := viz.ModeRange(mode)
		if !fixed {
			rng = viz.AutoRange(values)
		}
		h := viz.Heatmap{Cols: 100, Rows: 12}
		fmt.Printf("\n%s (%.3g to %.3g)\n%s\n", mode, rng.Lo, rng.Hi, h.Glyphs(values, mgr.Grid().Dims(), rng))
	}

	if !noSave {
		mgr.SaveSummary(storage.New(dataDir), trackID)
	}
	return nil
}

func querySession(cmd *cobra.Command, args []string) error {
	s, res, err := runFull(cmd.Context())
	if err != nil {
		return err
	}

	samples := telemetry.Sample(s.Manager(), sampleS, sampleD)
	si, li := s.Manager().Grid().IndicesOf(sampleS, sampleD)
	fmt.Printf("cell (%d, %d) at s=%.1f d=%.2f after %.0fs\n\n", si, li, sampleS, sampleD, res.Elapsed)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SAMPLE\tVALUE")
	for _, k := range samples.Keys() {
		fmt.Fprintf(w, "%s\t%.6g\n", k, samples[k])
	}
	return w.Flush()
}

func plotProfile(cmd *cobra.Command, args []string) error {
	var field surface.Field
	switch channel {
	case "grip":
	case "temperature":
		field = surface.FieldSurfaceTemp
	default:
		f, ok := surface.ParseField(channel)
		if !ok {
			return fmt.Errorf("unknown channel: %s", channel)
		}
		field = f
	}

	s, res, err := runFull(cmd.Context())
	if err != nil {
		return err
	}

	mgr := s.Manager()
	g := mgr.Grid()
	dims := g.Dims()
	_, li := g.IndicesOf(0, sampleD)
	values := make([]float64, dims.SSegments)
	for si := range values {
		if channel == "grip" {
			ps, pd := g.Position(si, li)
			values[si] = mgr.QueryGrip(ps, pd).Multiplier
		} else {
			values[si] = g.Value(si, li, field)
		}
	}

	graph := asciigraph.Plot(values,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s along the lap at d=%.1fm after %.0fs", channel, sampleD, res.Elapsed)),
	)
	fmt.Println(graph)

	c := analysis.Dominant(values, dims.TrackLength)
	if c.Cycles > 0 {
		fmt.Printf("\ndominant pattern: %d per lap, every %.0fm\n", c.Cycles, c.Wavelength)
	}
	return nil
}

func showSummary(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	sum, err := st.Load(args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "track\t%s\n", sum.TrackID)
	fmt.Fprintf(w, "saved\t%s\n", sum.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "avg rubber\t%.5f\n", sum.AvgRubber)
	fmt.Fprintf(w, "avg marbles\t%.5f\n", sum.AvgMarbles)
	fmt.Fprintf(w, "avg temp\t%.2f°C\n", sum.AvgTemp)
	if err := w.Flush(); err != nil {
		return err
	}

	hist, err := st.History(args[0])
	if err != nil {
		return err
	}
	if len(hist) < 2 {
		return nil
	}
	rubber := make([]float64, len(hist))
	for i, h := range hist {
		rubber[i] = h.AvgRubber
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(rubber,
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Caption(fmt.Sprintf("avg rubber over %d sessions", len(hist))),
	))
	return nil
}

func listTracks(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	tracks, err := st.List()
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		fmt.Println("no tracks found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRACK\tSAVED\tRUBBER\tMARBLES\tTEMP")
	for _, t := range tracks {
		fmt.Fprintf(w, "%s\t%s\t%.4f\t%.4f\t%.1f°C\n",
			t.TrackID,
			t.Timestamp.Format("2006-01-02 15:04:05"),
			t.AvgRubber,
			t.AvgMarbles,
			t.AvgTemp,
		)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	if configFile == "" && preset == "" {
		return runPicker()
	}
	s, err := startSession()
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(liveModel(s, sessionName())).Run()
	return err
}

func runPicker() error {
	build := func(name string) (viz.Model, error) {
		cfg := config.GetPreset(name)
		if cfg == nil {
			return viz.Model{}, fmt.Errorf("unknown preset: %s", name)
		}
		s, err := sim.New(cfg, logger)
		if err != nil {
			return viz.Model{}, err
		}
		return liveModel(s, name), nil
	}
	_, err := tea.NewProgram(viz.NewPicker(config.ListPresets(), build)).Run()
	return err
}

func serveTelemetry(cmd *cobra.Command, args []string) error {
	if !(frameDt > 0) || !(speedup > 0) {
		return fmt.Errorf("dt and speed must be positive")
	}
	s, err := startSession()
	if err != nil {
		return err
	}
	publishEvery = max(publishEvery, 1)
	mgr := s.Manager()

	hub := telemetry.NewHub(logger)
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "trackevo telemetry: connect a websocket to /ws (%d viewers)\n", hub.Clients())
	})
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("telemetry server failed", "error", err)
		}
	}()
	logger.Info("serving telemetry", "addr", addr, "duration", s.Config().Duration)

	length := s.Config().Track.TrackLength
	probes := []telemetry.Probe{
		{Name: "start", S: 0},
		{Name: "quarter", S: length / 4},
		{Name: "half", S: length / 2},
		{Name: "three_quarter", S: 3 * length / 4},
	}

	frames := 0
	s.AddObserver(sim.ObserverFunc(func(_ *sim.Session, t float64) {
		frames++
		if frames%publishEvery != 0 {
			return
		}
		f := telemetry.Capture(mgr, mgr.Frame(), t, mgr.TimeOfDay(), probes)
		f.Metrics = mgr.MetricValues()
		hub.Publish(f)
	}))

	wall := time.Duration(frameDt / speedup * float64(time.Second))
	ticker := time.NewTicker(max(wall, time.Millisecond))
	defer ticker.Stop()

	ctx := cmd.Context()
loop:
	for s.Elapsed() < s.Config().Duration {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
		}
		s.Step(frameDt)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("telemetry shutdown", "error", err)
	}

	mgr.SaveSummary(storage.New(dataDir), trackID)
	return nil
}

func dumpConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(logger)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func sessionName() string {
	switch {
	case preset != "":
		return preset
	case configFile != "":
		return configFile
	}
	return "default"
}

func liveModel(s *sim.Session, name string) viz.Model {
	return viz.NewModel(name, s.Manager(), s.Traffic())
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	opts := automation.RunOptions{Dt: frameDt, Logger: logger, Store: storage.New(dataDir)}
	results, err := automation.RunScenario(cmd.Context(), sc, sc.BaseConfig(), opts)
	if err != nil && len(results) == 0 {
		return err
	}

	fmt.Printf("scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Printf("  %s\n", sc.Description)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSTART\tEND\tHOUR\tGRIP\tRUBBER\tMARBLES\tDUST")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%.0f\t%.0f\t%05.2f\t%.4f\t%.4f\t%.4f\t%.4f\n",
			r.Name, r.Start, r.End, r.Hour, r.MeanGrip,
			r.Metrics["mean_rubber"], r.Metrics["mean_marbles"], r.Metrics["mean_dust"])
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(logger)
	if err != nil {
		return err
	}

	sw := &automation.ParameterSweep{
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
		Duration:  cfg.Duration,
	}
	start := time.Now()
	results, err := automation.RunSweep(cmd.Context(), sw, cfg, automation.RunOptions{Dt: frameDt, Logger: logger})
	if err != nil {
		return err
	}
	logger.Info("sweep finished", "points", len(results), "wall", time.Since(start).Round(time.Millisecond))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\tMEAN GRIP\n", strings.ToUpper(sweepParam), strings.ToUpper(metricName))
	curve := make([]float64, len(results))
	for i, r := range results {
		curve[i] = r.Metrics[metricName]
		fmt.Fprintf(w, "%.6g\t%.5f\t%.5f\n", r.ParamValue, r.Metrics[metricName], r.MeanGrip)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if best, ok := automation.Best(results, metricName, maximize); ok {
		fmt.Printf("\nbest %s = %.6g (%s %.5f)\n", sweepParam, best.ParamValue, metricName, best.Metrics[metricName])
	}
	if len(curve) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(curve,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption(fmt.Sprintf("%s vs %s", metricName, sweepParam)),
		))
	}
	return nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(logger)
	if err != nil {
		return err
	}
	if runs < 1 {
		return fmt.Errorf("runs must be positive, got %d", runs)
	}

	ens := sim.NewEnsemble(cfg, runs, cfg.Seed, logger)
	results, err := ens.Run(cmd.Context(), sim.Config{Dt: frameDt, Duration: cfg.Duration})
	if err != nil {
		return err
	}

	fmt.Printf("ensemble: %d seeds from %d, %.0fs each\n\n", runs, cfg.Seed, cfg.Duration)
	names := make([]string, 0, len(results[0].Metrics))
	for k := range results[0].Metrics {
		names = append(names, k)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tMIN\tMAX")
	for _, name := range names {
		mean, lo, hi := sim.Spread(results, name)
		fmt.Fprintf(w, "%s\t%.5f\t%.5f\t%.5f\n", name, mean, lo, hi)
	}
	return w.Flush()
}

func exportSurface(cmd *cobra.Command, args []string) error {
	if svgFile == "" && jsonFile == "" {
		return fmt.Errorf("nothing to export: set --svg or --json")
	}
	s, res, err := runFull(cmd.Context())
	if err != nil {
		return err
	}
	mgr := s.Manager()

	if jsonFile != "" {
		snap := export.Capture(trackID, mgr, res.Elapsed)
		if jsonFile == "-" {
			err = export.WriteJSON(os.Stdout, snap)
		} else {
			err = export.ExportJSON(jsonFile, snap)
		}
		if err != nil {
			return fmt.Errorf("export json: %w", err)
		}
	}

	if svgFile != "" {
		mode := mgr.Config().VisualizationMode
		values, ok := mgr.VisualField()
		if !ok {
			mode = "grip"
			values = mgr.GripField()
		}
		rng, fixed := viz.ModeRange(mode)
		if !fixed {
			rng = viz.AutoRange(values)
		}
		svg := export.HeatmapSVG(values, mgr.Grid().Dims(), rng, viz.PaletteFor(mode), 4, 8)
		if err := export.ExportSVG(svgFile, svg); err != nil {
			return fmt.Errorf("export svg: %w", err)
		}
		logger.Info("surface exported", "file", svgFile, "mode", mode)
	}
	return nil
}

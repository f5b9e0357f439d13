package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/motosim/internal/analysis"
	"github.com/san-kum/motosim/internal/automation"
	"github.com/san-kum/motosim/internal/config"
	"github.com/san-kum/motosim/internal/export"
	"github.com/san-kum/motosim/internal/integrators"
	"github.com/san-kum/motosim/internal/metrics"
	"github.com/san-kum/motosim/internal/optim"
	"github.com/san-kum/motosim/internal/pilot"
	"github.com/san-kum/motosim/internal/sim"
	"github.com/san-kum/motosim/internal/storage"
	"github.com/san-kum/motosim/internal/tui"
)

var (
	dataDir    string
	configFile string

	dt         float64
	duration   float64
	seed       int64
	integrator string
	pilotName  string
	strength   float64
	startRoll  float64
	startSpeed float64
	fallAngle  float64

	episodes  int
	strengths string
	watch     bool
	frameRate int
	noSave    bool
	jsonOut   bool

	settleBand float64
	tuneParams []string
	objective  string
	maximize   bool
	outFile    string
)

func main() {
	log.SetPrefix("motosim: ")

	rootCmd := &cobra.Command{
		Use:   "motosim",
		Short: "two-wheeler balance and drive simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunInteractive()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".motosim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a preset headless and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().BoolVar(&watch, "watch", false, "draw the vehicle while running")
	runCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate for --watch")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVar(&jsonOut, "json", false, "write the result as JSON to stdout")

	episodesCmd := &cobra.Command{
		Use:   "episodes [preset]",
		Short: "run repeated episodes on one vehicle with managed resets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEpisodes,
	}
	addRunFlags(episodesCmd)
	episodesCmd.Flags().IntVarP(&episodes, "count", "n", 0, "number of episodes (default from config)")
	episodesCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "compare stabilization strengths side by side",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&strengths, "strengths", "0,0.25,0.5,0.75,1", "comma separated strengths")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "drive a preset interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return tui.RunInteractive()
			}
			return tui.RunLive(args[0])
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id] [column...]",
		Short: "plot columns of a stored run",
		Args:  cobra.MinimumNArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets, pilots and integrators",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			fmt.Printf("pilots: %s\n", strings.Join(pilot.Names(), ", "))
			fmt.Printf("integrators: %s\n", strings.Join(integrators.Names(), ", "))
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [preset] [path]",
		Short: "write a preset as a YAML config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetPreset(args[0])
			if cfg == nil {
				return unknownPreset(args[0])
			}
			return config.Save(args[1], cfg)
		},
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "roll oscillation spectrum and settling of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().Float64Var(&settleBand, "band", 0.02, "roll band (rad) counted as settled")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "roll vs roll rate phase portrait",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune [preset]",
		Short: "grid search controller or cruise parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTune,
	}
	addRunFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&tuneParams, "param", []string{"strength=0,0.25,0.5,0.75,1"},
		fmt.Sprintf("name=v1,v2,... (names: %s)", strings.Join(optim.Tunable(), ", ")))
	tuneCmd.Flags().StringVar(&objective, "metric", "roll_rate_rms", "metric to rank by")
	tuneCmd.Flags().BoolVar(&maximize, "max", false, "rank highest first")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id] [column...]",
		Short: "export columns of a stored run as an SVG chart",
		Args:  cobra.MinimumNArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default <run_id>.svg)")

	batchCmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "run a YAML batch of presets and overrides",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	rootCmd.AddCommand(runCmd, episodesCmd, sweepCmd, tuneCmd, batchCmd, liveCmd, listCmd, plotCmd,
		analyzeCmd, phaseCmd, exportJSONCmd, exportSVGCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml), replaces the preset")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator")
	cmd.Flags().StringVar(&pilotName, "pilot", "none", "pilot")
	cmd.Flags().Float64Var(&strength, "strength", 0.5, "stabilization strength")
	cmd.Flags().Float64Var(&startRoll, "roll", 0, "initial roll (rad)")
	cmd.Flags().Float64Var(&startSpeed, "speed", 0, "initial forward speed")
	cmd.Flags().Float64Var(&fallAngle, "fall-angle", config.DefaultFallAngle, "roll that ends an episode, 0 disables")
}

// loadConfig resolves preset, then config file, then environment, then
// explicitly set flags, in increasing priority.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	name := "idle"
	if len(args) > 0 {
		name = args[0]
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, "", unknownPreset(name)
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, "", err
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Run.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Run.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Run.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Run.Integrator = integrator
	}
	if flags.Changed("pilot") {
		cfg.Run.Pilot = pilotName
	}
	if flags.Changed("strength") {
		cfg.Controller.Strength = strength
	}
	if flags.Changed("roll") {
		cfg.Run.Start.Roll = startRoll
	}
	if flags.Changed("speed") {
		cfg.Run.Start.Speed = startSpeed
	}
	if flags.Changed("fall-angle") {
		cfg.Run.FallAngle = fallAngle
	}
	if flags.Changed("count") {
		cfg.Run.Episodes = episodes
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, name, nil
}

func unknownPreset(name string) error {
	return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
}

func metadata(name string, cfg *config.Config) storage.RunMetadata {
	return storage.RunMetadata{
		Name:       name,
		Seed:       cfg.Run.Seed,
		Dt:         cfg.Run.Dt,
		Duration:   cfg.Run.Duration,
		Integrator: cfg.Run.Integrator,
		Pilot:      cfg.Run.Pilot,
		Strength:   cfg.Controller.Strength,
	}
}

func build(cfg *config.Config) (*sim.Simulator, sim.Pilot, error) {
	s, err := sim.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	p, err := pilot.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	for _, m := range metrics.Standard() {
		s.AddMetric(m)
	}
	return s, p, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	s, p, err := build(cfg)
	if err != nil {
		return err
	}

	if watch {
		renderer := tui.NewLiveRenderer(name, frameRate)
		s.AddObserver(renderer)
		renderer.Start()
		defer renderer.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Printf("run %s: pilot=%s integrator=%s strength=%.2f", name, cfg.Run.Pilot, cfg.Run.Integrator, cfg.Controller.Strength)
	start := time.Now()
	result, err := s.Run(ctx, p, sim.RunConfig(cfg))
	if err != nil {
		return err
	}
	log.Printf("run %s: %d steps in %v", name, result.Steps, time.Since(start))

	meta := metadata(name, cfg)
	if jsonOut {
		return storage.ExportResult(os.Stdout, meta, result)
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(meta, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	printResult(result)
	return nil
}

func runEpisodes(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	s, p, err := build(cfg)
	if err != nil {
		return err
	}
	n := cfg.Run.Episodes
	if n < 1 {
		n = 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Printf("episodes %s: n=%d jitter=%.2f seed=%d", name, n, cfg.Run.Start.Jitter, cfg.Run.Seed)
	results, runErr := s.Episodes(ctx, p, sim.RunConfig(cfg), n)
	if runErr != nil {
		log.Printf("episodes %s: stopped after %d", name, len(results))
	}

	var st *storage.Store
	if !noSave {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EP\tSTEPS\tFALLEN\tUPRIGHT\tMAX ROLL\tRUN ID")
	for _, res := range results {
		runID := "-"
		if st != nil {
			meta := metadata(name, cfg)
			meta.Episode = res.Episode
			if runID, err = st.Save(meta, res); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%d\t%d\t%v\t%.3f\t%.3f\t%s\n",
			res.Episode, res.Steps, res.Fallen,
			res.Metrics["upright"], res.Metrics["max_roll"], runID)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	values, err := parseFloats(strengths)
	if err != nil {
		return err
	}

	cfgs := make([]*config.Config, len(values))
	for i, v := range values {
		c := *cfg
		c.Controller.Strength = v
		if err := c.Validate(); err != nil {
			return err
		}
		cfgs[i] = &c
	}

	log.Printf("sweep %s: %d strengths", name, len(values))
	results, err := sim.Sweep(context.Background(), cfgs, func(cfg *config.Config, s *sim.Simulator) (sim.Pilot, error) {
		for _, m := range metrics.Standard() {
			s.AddMetric(m)
		}
		return pilot.New(cfg)
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STRENGTH\tFALLEN\tUPRIGHT\tMAX ROLL\tROLL RATE\tAIRTIME")
	for i, res := range results {
		fmt.Fprintf(w, "%.2f\t%v\t%.3f\t%.3f\t%.3f\t%.3f\n", values[i], res.Fallen,
			res.Metrics["upright"], res.Metrics["max_roll"], res.Metrics["roll_rate_rms"], res.Metrics["airtime"])
	}
	return w.Flush()
}

func printResult(result *sim.Result) {
	fmt.Printf("steps: %d\n", result.Steps)
	if result.Fallen {
		fmt.Printf("fell at %.2fs\n", result.FallTime)
	}
	final := result.Final()
	fmt.Printf("final: z=%.2f speed=%.2f roll=%+.3f pitch=%+.3f\n",
		final.Position.Z(), final.Speed, final.Roll, final.Pitch)
	fmt.Println("\nmetrics:")
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tDURATION\tDT\tINTEG\tPILOT\tSTRENGTH\tFALLEN")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%.2fs\t%.4fs\t%s\t%s\t%.2f\t%v\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Pilot,
			run.Strength,
			run.Fallen,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	columns := args[1:]
	if len(columns) == 0 {
		columns = []string{"roll", "speed", "y"}
	}

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if series.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", series.Len())

	for _, col := range columns {
		data, err := series.Column(col)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(col+" vs time"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func parseFloats(list string) ([]float64, error) {
	var values []float64
	for _, field := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("bad value %q: %w", field, err)
		}
		values = append(values, v)
	}
	return values, nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	var names []string
	var ranges [][]float64
	for _, p := range tuneParams {
		key, list, ok := strings.Cut(p, "=")
		if !ok {
			return fmt.Errorf("bad --param %q, want name=v1,v2", p)
		}
		values, err := parseFloats(list)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		names = append(names, key)
		ranges = append(ranges, values)
	}

	grid := optim.NewGridSearch(names, ranges)
	log.Printf("tune %s: %d trials ranked by %s", name, len(grid.Combinations()), objective)
	trials, err := grid.Search(context.Background(), cfg, func(cfg *config.Config, s *sim.Simulator) (sim.Pilot, error) {
		for _, m := range metrics.Standard() {
			s.AddMetric(m)
		}
		return pilot.New(cfg)
	}, objective, maximize)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RANK\t%s\t%s\tFALLEN\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(objective))
	for i, tr := range trials {
		row := make([]string, len(names))
		for j, n := range names {
			row[j] = strconv.FormatFloat(tr.Params[n], 'g', 4, 64)
		}
		fmt.Fprintf(w, "%d\t%s\t%.4f\t%v\n", i+1, strings.Join(row, "\t"), tr.Value, tr.Fallen)
	}
	return w.Flush()
}

func loadRoll(runID string) (*storage.RunMetadata, []float64, []float64, []float64, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	times, err := series.Column("time")
	if err != nil {
		return nil, nil, nil, nil, err
	}
	roll, err := series.Column("roll")
	if err != nil {
		return nil, nil, nil, nil, err
	}
	rate, err := series.Column("roll_rate")
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return meta, times, roll, rate, nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, times, roll, _, err := loadRoll(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	at, peak := analysis.Peak(times, roll)
	fmt.Printf("peak roll: %.4f rad at %.2fs\n", peak, at)
	fmt.Printf("zero crossings: %d\n", analysis.ZeroCrossings(roll))
	if settle, ok := analysis.SettleTime(times, roll, settleBand); ok {
		fmt.Printf("settled within %.3f rad at %.2fs\n", settleBand, settle)
	} else {
		fmt.Printf("not settled within %.3f rad\n", settleBand)
	}

	bins := analysis.Spectrum(roll, meta.Dt)
	if len(bins) < 3 {
		return fmt.Errorf("not enough samples for a spectrum")
	}
	if dom, ok := analysis.Dominant(roll, meta.Dt); ok {
		fmt.Printf("dominant roll frequency: %.3f Hz (amplitude %.4f)\n\n", dom.Freq, dom.Power)
	}

	// Wobble lives well below 10 Hz.
	upto := len(bins)
	for i, b := range bins {
		if b.Freq > 10 && i > 2 {
			upto = i
			break
		}
	}
	graph := asciigraph.Plot(analysis.Powers(bins[1:upto]),
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("roll amplitude spectrum, %.2f-%.2f Hz", bins[1].Freq, bins[upto-1].Freq)),
	)
	fmt.Println(graph)
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	meta, _, roll, rate, err := loadRoll(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("run: %s\n", meta.ID)
	fmt.Println("roll (x) vs roll rate (y)")
	fmt.Print(analysis.NewPortrait(roll, rate).ASCII(70, 24))
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	columns := args[1:]
	if len(columns) == 0 {
		columns = []string{"roll", "pitch", "speed"}
	}

	series, err := storage.New(dataDir).LoadSeries(runID)
	if err != nil {
		return err
	}
	times, err := series.Column("time")
	if err != nil {
		return err
	}
	traces := make([]export.Trace, len(columns))
	for i, col := range columns {
		values, err := series.Column(col)
		if err != nil {
			return err
		}
		traces[i] = export.Trace{Name: col, Values: values}
	}

	path := outFile
	if path == "" {
		path = runID + ".svg"
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := export.ChartSVG(f, runID, times, traces, 900, 420); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	batch, err := automation.LoadBatch(args[0])
	if err != nil {
		return err
	}

	var st *storage.Store
	if !noSave {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Printf("batch %s: %d steps", batch.Name, len(batch.Steps))
	results, runErr := automation.RunBatch(ctx, batch, st, func(i int, name string) {
		log.Printf("batch %s: step %d/%d %s", batch.Name, i+1, len(batch.Steps), name)
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tEP\tSTEPS\tFALLEN\tUPRIGHT\tRUN ID")
	for _, sr := range results {
		for j, res := range sr.Results {
			runID := "-"
			if j < len(sr.RunIDs) {
				runID = sr.RunIDs[j]
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%v\t%.3f\t%s\n", sr.Name, res.Episode, res.Steps, res.Fallen, res.Metrics["upright"], runID)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	upright, fallen := automation.Stats(results)
	fmt.Printf("\n%d upright, %d fell\n", upright, fallen)
	return runErr
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/bondmd/internal/analysis"
	"github.com/san-kum/bondmd/internal/config"
	"github.com/san-kum/bondmd/internal/md"
	"github.com/san-kum/bondmd/internal/neighbor"
	"github.com/san-kum/bondmd/internal/potential"
	"github.com/san-kum/bondmd/internal/run"
	"github.com/san-kum/bondmd/internal/storage"
	"github.com/san-kum/bondmd/internal/viz"
)

var (
	dataDir    string
	configFile string
	dt         float64
	steps      int
	temp       float64
	seed       int64
	mode       string
	feX        float64
	nx, ny, nz int
	series     string
	maxLag     int
	svgFile    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bondmd",
		Short: "bond-order molecular dynamics lab",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".bondmd", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().Float64Var(&dt, "dt", 0, "timestep override (natural units)")
	runCmd.Flags().IntVar(&steps, "steps", 0, "step count override")
	runCmd.Flags().Float64Var(&temp, "temp", 0, "initial temperature override (K)")
	runCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	runCmd.Flags().StringVar(&mode, "mode", "", "measurement mode override")
	runCmd.Flags().Float64Var(&feX, "fe", 0, "driving field x component (hnemd)")
	runCmd.Flags().IntVar(&nx, "nx", 0, "supercell x override")
	runCmd.Flags().IntVar(&ny, "ny", 0, "supercell y override")
	runCmd.Flags().IntVar(&nz, "nz", 0, "supercell z override")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run with a live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  liveSimulation,
	}
	liveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	liveCmd.Flags().Float64Var(&temp, "temp", 0, "initial temperature override (K)")
	liveCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored thermo series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&series, "series", "temperature", "column to plot")

	gkCmd := &cobra.Command{
		Use:   "gk [run_id]",
		Short: "Green-Kubo conductivity from a stored heat run",
		Args:  cobra.ExactArgs(1),
		RunE:  greenKubo,
	}
	gkCmd.Flags().IntVar(&maxLag, "maxlag", 200, "correlation length in samples")

	shcCmd := &cobra.Command{
		Use:   "shc [run_id]",
		Short: "cross-section flux spectrum from a stored shc run",
		Args:  cobra.ExactArgs(1),
		RunE:  fluxSpectrum,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&svgFile, "svg", "", "also write the thermo series as an SVG file")
	exportCmd.Flags().StringVar(&series, "series", "temperature", "column for the SVG plot")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in presets",
		Run: func(cmd *cobra.Command, args []string) {
			for name := range config.Presets {
				fmt.Println(name)
			}
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, gkCmd, shcCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig(args []string) (*config.Config, string, error) {
	name := "si-small"
	if len(args) == 1 {
		name = args[0]
	}

	var cfg *config.Config
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
		name = "custom"
	default:
		cfg = config.Preset(name)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset %q", name)
		}
	}

	if dt > 0 {
		cfg.Run.Dt = dt
	}
	if steps > 0 {
		cfg.Run.Steps = steps
	}
	if temp > 0 {
		cfg.Lattice.Temperature = temp
	}
	if mode != "" {
		cfg.Measure.Mode = mode
	}
	if feX != 0 {
		cfg.Measure.DrivingField = [3]float64{feX, 0, 0}
	}
	if nx > 0 {
		cfg.Lattice.NX = nx
	}
	if ny > 0 {
		cfg.Lattice.NY = ny
	}
	if nz > 0 {
		cfg.Lattice.NZ = nz
	}
	cfg.Lattice.Seed = seed
	return cfg, name, nil
}

// setup builds the full simulation stack from a config.
func setup(cfg *config.Config) (*run.Driver, *potential.FluxSampler, error) {
	cell, err := cfg.Lattice.Cell()
	if err != nil {
		return nil, nil, err
	}
	atoms, b, err := md.BuildLattice(cell, cfg.Lattice.NX, cfg.Lattice.NY, cfg.Lattice.NZ, cfg.Lattice.Mass)
	if err != nil {
		return nil, nil, err
	}
	atoms.InitVelocities(cfg.Lattice.Temperature, rand.New(rand.NewSource(cfg.Lattice.Seed)))

	opts, err := cfg.Measure.Options(atoms.N)
	if err != nil {
		return nil, nil, err
	}
	pot, err := potential.NewTersoff(cfg.Potential, opts)
	if err != nil {
		return nil, nil, err
	}
	finder, err := neighbor.NewFinder(pot.Cutoff()+cfg.Run.Skin, cfg.Run.MaxNeighbors)
	if err != nil {
		return nil, nil, err
	}
	driver, err := run.New(b, atoms, pot, finder)
	if err != nil {
		return nil, nil, err
	}
	return driver, opts.Sampler, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(args)
	if err != nil {
		return err
	}
	driver, sampler, err := setup(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runCfg := run.Config{
		Dt:           cfg.Run.Dt,
		Steps:        cfg.Run.Steps,
		RebuildEvery: cfg.Run.RebuildEvery,
		SampleEvery:  cfg.Run.SampleEvery,
	}

	start := time.Now()
	result, err := driver.Run(ctx, runCfg)
	if err != nil && ctx.Err() == nil {
		return err
	}
	elapsed := time.Since(start)

	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}
	meta := storage.RunMetadata{
		Preset:      name,
		Atoms:       driver.Atoms.N,
		Mode:        cfg.Measure.Mode,
		Dt:          cfg.Run.Dt,
		Steps:       result.StepsTaken,
		Seed:        cfg.Lattice.Seed,
		Volume:      driver.Box.Volume(),
		Temperature: cfg.Lattice.Temperature,
	}
	runID, err := store.Save(meta, result, sampler)
	if err != nil {
		return err
	}

	last := result.Records[len(result.Records)-1]
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "run\t%s\n", runID)
	fmt.Fprintf(w, "atoms\t%d\n", driver.Atoms.N)
	fmt.Fprintf(w, "steps\t%d\n", result.StepsTaken)
	fmt.Fprintf(w, "wall\t%s\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "temperature\t%.1f K\n", last.Temperature)
	fmt.Fprintf(w, "potential\t%.4f eV\n", last.Potential)
	fmt.Fprintf(w, "total energy\t%.4f eV\n", last.Total)
	fmt.Fprintf(w, "energy drift\t%.2e\n", result.EnergyDrift)
	return w.Flush()
}

func liveSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(args)
	if err != nil {
		return err
	}
	driver, _, err := setup(cfg)
	if err != nil {
		return err
	}
	if err := driver.ComputeForces(); err != nil {
		return err
	}

	runCfg := run.Config{
		Dt:           cfg.Run.Dt,
		Steps:        cfg.Run.Steps,
		RebuildEvery: cfg.Run.RebuildEvery,
		SampleEvery:  cfg.Run.SampleEvery,
	}
	p := tea.NewProgram(viz.NewModel(driver, runCfg, name))
	_, err = p.Run()
	return err
}

func listRuns(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	runs, err := store.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs stored")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tATOMS\tMODE\tSTEPS\tTEMP\tDRIFT\tWHEN")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%.0fK\t%.1e\t%s\n",
			r.ID, r.Atoms, r.Mode, r.Steps, r.Temperature, r.EnergyDrift,
			r.Timestamp.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	cols, err := store.LoadThermo(args[0])
	if err != nil {
		return err
	}
	data, ok := cols[series]
	if !ok {
		return fmt.Errorf("unknown series %q", series)
	}
	fmt.Println(viz.Plot(series, viz.Downsample(data, 120), 100, 14))
	return nil
}

func greenKubo(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	meta, err := store.Load(args[0])
	if err != nil {
		return err
	}
	cols, err := store.LoadThermo(args[0])
	if err != nil {
		return err
	}

	// total x heat current = in-plane + out-of-plane parts
	jxIn, jxOut := cols["jx_in"], cols["jx_out"]
	if len(jxIn) == 0 {
		return fmt.Errorf("run %s carries no heat-current data", args[0])
	}
	jx := make([]float64, len(jxIn))
	for i := range jx {
		jx[i] = jxIn[i] + jxOut[i]
	}

	acf, err := analysis.Autocorrelation(jx, maxLag)
	if err != nil {
		return err
	}
	kappa, err := analysis.Conductivity(acf, meta.Dt, meta.Volume, meta.Temperature)
	if err != nil {
		return err
	}

	fmt.Println(viz.Plot("heat current ACF (x)", viz.Downsample(acf, 120), 100, 12))
	fmt.Println(viz.Plot("running GK integral (x)", viz.Downsample(kappa, 120), 100, 12))
	fmt.Printf("kappa (natural units, lag %d): %.4e\n", maxLag, kappa[len(kappa)-1])
	return nil
}

func fluxSpectrum(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	slots, err := store.LoadFlux(args[0])
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		return fmt.Errorf("run %s carries no cross-section samples", args[0])
	}

	// combined flux through the plane: sum of every marked pair's series
	var flux []float64
	for _, samples := range slots {
		series := analysis.PairFlux(samples)
		if flux == nil {
			flux = series
			continue
		}
		if len(series) < len(flux) {
			flux = flux[:len(series)]
		}
		for i := range flux {
			flux[i] += series[i]
		}
	}
	if len(flux) < 4 {
		return fmt.Errorf("run %s has only %d samples, need at least 4", args[0], len(flux))
	}

	spectrum := analysis.Spectrum(flux)
	fmt.Println(viz.Plot("cross-section flux", viz.Downsample(flux, 120), 100, 12))
	fmt.Println(viz.Plot("flux spectrum (magnitude)", viz.Downsample(spectrum, 120), 100, 12))
	fmt.Printf("pairs %d, samples %d, bins %d\n", len(slots), len(flux), len(spectrum))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	meta, err := store.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}

	if svgFile == "" {
		return nil
	}
	cols, err := store.LoadThermo(args[0])
	if err != nil {
		return err
	}
	data, ok := cols[series]
	if !ok {
		return fmt.Errorf("unknown thermo column %q", series)
	}
	svg := viz.SeriesSVG(data, 800, 300, "#00ff00")
	return os.WriteFile(svgFile, []byte(svg), 0644)
}

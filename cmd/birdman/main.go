package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Prosper1030/birdman-project/internal/config"
	"github.com/Prosper1030/birdman-project/internal/cpm"
	"github.com/Prosper1030/birdman-project/internal/dsm"
	"github.com/Prosper1030/birdman-project/internal/merge"
	"github.com/Prosper1030/birdman-project/internal/rcpsp"
	"github.com/Prosper1030/birdman-project/internal/report"
	"github.com/Prosper1030/birdman-project/internal/simulate"
	"github.com/Prosper1030/birdman-project/internal/store"
	"github.com/Prosper1030/birdman-project/internal/ui"
	"github.com/Prosper1030/birdman-project/internal/wbs"
	"github.com/spf13/cobra"
)

var (
	flagWBS    string
	flagDSM    string
	flagConfig string
	flagField  string
	flagJSON   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "birdman",
		Short: "DSM-driven project analysis and scheduling",
		Long: `Birdman reads a WBS task catalog and a dependency structure matrix,
condenses cyclic task groups into synthetic merged tasks, then computes
critical paths, Monte Carlo completion estimates, and resource-constrained
schedules.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&flagWBS, "wbs", "wbs.csv", "WBS task catalog (CSV or JSON)")
	rootCmd.PersistentFlags().StringVar(&flagDSM, "dsm", "dsm.csv", "Dependency structure matrix CSV")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", config.DefaultFileName, "Config file path")
	rootCmd.PersistentFlags().StringVar(&flagField, "field", "", "Duration field, e.g. Te_newbie (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(cpmCmd())
	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(racpCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(cleanCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.BoldRed("Error:"), err)
		os.Exit(1)
	}
}

// analysis is the condensed model shared by every command: the merged
// acyclic graph plus the cycle bookkeeping that produced it.
type analysis struct {
	cfg    *config.Config
	field  dsm.Field
	graph  *dsm.Graph // acyclic, cycles condensed
	cycles [][]string
	merged map[string]*merge.Info
}

// buildAnalysis is shared logic for all analysis commands.
func buildAnalysis() (*analysis, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	fieldName := cfg.Field
	if flagField != "" {
		fieldName = flagField
	}
	field, err := dsm.ParseField(fieldName)
	if err != nil {
		return nil, err
	}

	tasks, err := readCatalog(flagWBS)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(flagDSM)
	if err != nil {
		return nil, fmt.Errorf("open DSM: %w", err)
	}
	matrix, err := wbs.ReadDSM(f)
	f.Close()
	if err != nil {
		return nil, err
	}

	if err := wbs.ValidateIDs(tasks, matrix.TaskIDs); err != nil {
		return nil, err
	}

	g, err := dsm.FromMatrix(tasks, matrix.Cells)
	if err != nil {
		return nil, err
	}

	sccs := g.FindCycles()
	var cycles [][]string
	for _, scc := range sccs {
		if len(scc) > 1 {
			cycles = append(cycles, scc)
		}
	}

	params := merge.Params{
		Base:       cfg.Merge.Base,
		TRFScale:   cfg.Merge.TRFScale,
		TRFDivisor: cfg.Merge.TRFDivisor,
		NCoef:      cfg.Merge.NCoef,
	}
	condensed, infos, err := merge.Merge(g, sccs, params)
	if err != nil {
		return nil, err
	}

	return &analysis{
		cfg:    cfg,
		field:  field,
		graph:  condensed,
		cycles: cycles,
		merged: infos,
	}, nil
}

// readCatalog dispatches on the file extension: .json loads the JSON
// catalog, everything else parses as CSV.
func readCatalog(path string) ([]*dsm.Task, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read WBS: %w", err)
		}
		return wbs.ReadCatalogJSON(data)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open WBS: %w", err)
	}
	defer f.Close()
	return wbs.ReadCatalog(f)
}

// mergedMembers flattens the merge index for persistence.
func mergedMembers(infos map[string]*merge.Info) map[string][]string {
	if len(infos) == 0 {
		return nil
	}
	m := make(map[string][]string, len(infos))
	for id, info := range infos {
		m[id] = info.Members
	}
	return m
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintf(os.Stderr, "\n%s\n", ui.Yellow("Received interrupt, cancelling..."))
		cancel()
	}()

	return ctx, cancel
}

func analyzeCmd() *cobra.Command {
	var flagOutput string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Validate inputs, detect cycles, and condense the task graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildAnalysis()
			if err != nil {
				return err
			}

			layers, err := a.graph.TopologicalLayers()
			if err != nil {
				return err
			}

			rec, err := store.New(store.NewRunID(), a.field.String(), flagWBS, flagDSM)
			if err != nil {
				return err
			}
			if err := rec.SetCycles(a.cycles, mergedMembers(a.merged)); err != nil {
				return err
			}

			if flagOutput != "" {
				f, err := os.Create(flagOutput)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()

				layerByTask := make(map[string]int)
				for i, layer := range layers {
					for _, id := range layer {
						layerByTask[id] = i
					}
				}
				tasks := make([]*dsm.Task, 0, len(a.graph.Order))
				for _, id := range a.graph.Order {
					tasks = append(tasks, a.graph.Tasks[id])
				}
				if err := wbs.WriteCatalog(f, tasks, layerByTask); err != nil {
					return err
				}
			}

			if flagJSON {
				data, err := report.JSON(a.cycles, a.merged, nil, nil, nil)
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("%s %d tasks, %d edges\n\n",
				ui.BoldCyan("Analyzed:"), a.graph.TaskCount(), len(a.graph.Edges()))
			report.PrintCycles(os.Stdout, a.cycles, a.merged)
			report.PrintLayers(os.Stdout, layers)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagOutput, "output", "", "Write condensed catalog with layer column to file")

	return cmd
}

func cpmCmd() *cobra.Command {
	var (
		flagDays      bool
		flagStartDate string
	)

	cmd := &cobra.Command{
		Use:   "cpm",
		Short: "Compute the critical path and execution waves",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildAnalysis()
			if err != nil {
				return err
			}

			s, err := cpm.Analyze(a.graph, a.field, cpm.Options{})
			if err != nil {
				return err
			}

			if store.Exists() {
				if rec, err := store.Load(); err == nil {
					waves := make([][]string, 0, len(s.Waves))
					for _, w := range s.Waves {
						waves = append(waves, w.TaskIDs)
					}
					rec.SetPlan(&store.PlanSummary{
						Horizon:      s.Horizon,
						CriticalPath: s.CriticalPath,
						Waves:        waves,
					})
				}
			}

			if flagJSON {
				data, err := report.JSON(a.cycles, a.merged, s, nil, nil)
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			report.PrintSchedule(os.Stdout, s)
			fmt.Println()
			report.PrintWaves(os.Stdout, s)

			if flagDays || flagStartDate != "" {
				days := cpm.HoursToDays(s.Horizon, a.cfg.Calendar.HoursPerDay)
				fmt.Printf("Horizon:   %s working days (%.1fh/day)\n",
					ui.Bold(fmt.Sprintf("%.1f", days)), a.cfg.Calendar.HoursPerDay)
				if flagStartDate != "" {
					start, err := time.Parse("2006-01-02", flagStartDate)
					if err != nil {
						return fmt.Errorf("parse start date: %w", err)
					}
					finish := cpm.AddWorkingDays(start, days)
					fmt.Printf("Start:     %s\n", start.Format("2006-01-02 (Mon)"))
					fmt.Printf("Finish:    %s\n", ui.Bold(finish.Format("2006-01-02 (Mon)")))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagDays, "days", false, "Also express the horizon in working days")
	cmd.Flags().StringVar(&flagStartDate, "start-date", "", "Project start date (YYYY-MM-DD); prints the weekend-skipping finish date")

	return cmd
}

func simulateCmd() *cobra.Command {
	var (
		flagTrials     int
		flagConfidence float64
		flagWorkers    int
		flagSeed       int64
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Estimate the completion distribution by Monte Carlo sampling",
		Long: `Samples each task duration from a Beta-PERT distribution over its
three-point estimate and propagates samples through the dependency
graph. Reports the mean, spread, and a confidence interval for project
completion.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildAnalysis()
			if err != nil {
				return err
			}

			opts := simulate.Options{
				Trials:     a.cfg.Simulate.Trials,
				Confidence: a.cfg.Simulate.Confidence,
				Workers:    a.cfg.Simulate.Workers,
				Seed:       a.cfg.Simulate.Seed,
			}
			if flagTrials > 0 {
				opts.Trials = flagTrials
			}
			if flagConfidence > 0 {
				opts.Confidence = flagConfidence
			}
			if flagWorkers > 0 {
				opts.Workers = flagWorkers
			}
			if flagSeed != 0 {
				opts.Seed = flagSeed
			}

			ctx, cancel := signalContext()
			defer cancel()

			start := time.Now()
			res, err := simulate.Run(ctx, a.graph, a.field.Role, opts)
			if err != nil {
				return err
			}
			elapsed := time.Since(start).Truncate(time.Millisecond)

			if store.Exists() {
				if rec, err := store.Load(); err == nil {
					rec.SetSimulation(res)
				}
			}

			if flagJSON {
				data, err := report.JSON(nil, nil, nil, res, nil)
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			report.PrintSimulation(os.Stdout, res)
			fmt.Printf("%s\n", ui.Dim(fmt.Sprintf("[%d trials in %s]", res.Completed, elapsed)))
			return nil
		},
	}

	cmd.Flags().IntVar(&flagTrials, "trials", 0, "Number of trials (overrides config)")
	cmd.Flags().Float64Var(&flagConfidence, "confidence", 0, "Confidence level, e.g. 0.95 (overrides config)")
	cmd.Flags().IntVar(&flagWorkers, "workers", 0, "Worker goroutines (default: CPU count)")
	cmd.Flags().Int64Var(&flagSeed, "seed", 0, "Random seed for reproducible runs")

	return cmd
}

func scheduleCmd() *cobra.Command {
	var (
		flagResources  string
		flagTimeBudget time.Duration
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Compute a resource-constrained schedule",
		Long: `Assigns every task a start time and a resource group so that
precedence holds and no group exceeds its capacity. Searches for the
minimal makespan within the time budget, falling back to a heuristic
schedule when the budget runs out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildAnalysis()
			if err != nil {
				return err
			}

			var groups []rcpsp.Group
			if flagResources != "" {
				f, err := os.Open(flagResources)
				if err != nil {
					return fmt.Errorf("open resources: %w", err)
				}
				groups, err = wbs.ReadResources(f)
				f.Close()
				if err != nil {
					return err
				}
			}

			opts := rcpsp.Options{TimeBudget: a.cfg.Schedule.TimeBudget.Std(), Horizon: a.cfg.Schedule.Horizon}
			if flagTimeBudget > 0 {
				opts.TimeBudget = flagTimeBudget
			}

			ctx, cancel := signalContext()
			defer cancel()

			s, err := rcpsp.Solve(ctx, a.graph, a.field, groups, opts)
			if err != nil {
				return err
			}

			if store.Exists() {
				if rec, err := store.Load(); err == nil {
					starts := make(map[string]int, len(s.Tasks))
					assigned := make(map[string]string, len(s.Tasks))
					for id, asg := range s.Tasks {
						starts[id] = asg.Start
						assigned[id] = asg.Group
					}
					rec.SetSchedule(&store.ScheduleSummary{
						Makespan: s.Makespan,
						Optimal:  s.Optimal,
						Starts:   starts,
						Groups:   assigned,
					})
				}
			}

			if flagJSON {
				data, err := report.JSON(nil, nil, nil, nil, s)
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			report.PrintResourceSchedule(os.Stdout, s)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagResources, "resources", "", "Resource groups CSV (empty: unconstrained)")
	cmd.Flags().DurationVar(&flagTimeBudget, "time-budget", 0, "Exact search budget (overrides config)")

	return cmd
}

func racpCmd() *cobra.Command {
	var (
		flagResources   string
		flagDeadline    int
		flagSolveBudget time.Duration
	)

	cmd := &cobra.Command{
		Use:   "racp",
		Short: "Find the minimal group capacities that meet a deadline",
		Long: `Inverts scheduling: instead of fitting tasks into fixed resource
groups, searches for the smallest per-group headcounts under which a
schedule still finishes by the deadline. Capacities are seeded from
structural lower bounds and shrunk by per-group binary search, each
candidate checked by a resource-constrained scheduling solve.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildAnalysis()
			if err != nil {
				return err
			}

			var groups []rcpsp.Group
			if flagResources != "" {
				f, err := os.Open(flagResources)
				if err != nil {
					return fmt.Errorf("open resources: %w", err)
				}
				groups, err = wbs.ReadResources(f)
				f.Close()
				if err != nil {
					return err
				}
			}

			ctx, cancel := signalContext()
			defer cancel()

			plan, err := rcpsp.SolveRACP(ctx, a.graph, a.field, groups, rcpsp.RACPOptions{
				Deadline:    flagDeadline,
				SolveBudget: flagSolveBudget,
				Horizon:     a.cfg.Schedule.Horizon,
			})
			if err != nil {
				return err
			}

			if flagJSON {
				data, err := report.CapacityJSON(plan)
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			report.PrintCapacityPlan(os.Stdout, plan)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagResources, "resources", "", "Resource groups CSV naming the pools to size (empty: from task eligibility)")
	cmd.Flags().IntVar(&flagDeadline, "deadline", 0, "Completion deadline in whole time units (required)")
	cmd.Flags().DurationVar(&flagSolveBudget, "solve-budget", 0, "Search budget per inner scheduling solve")
	_ = cmd.MarkFlagRequired("deadline")

	return cmd
}

func reportCmd() *cobra.Command {
	var (
		flagPrevious bool
		flagRunID    string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the stored results of an analysis run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagPrevious && flagRunID != "" {
				return fmt.Errorf("--previous and --run are mutually exclusive")
			}

			var rec *store.Record
			var err error
			switch {
			case flagPrevious:
				rec, err = store.LoadPrevious()
			case flagRunID != "":
				rec, err = store.LoadArchived(flagRunID)
			default:
				if !store.Exists() {
					return fmt.Errorf("no stored analysis (run 'birdman analyze' first)")
				}
				rec, err = store.Load()
			}
			if err != nil {
				return err
			}

			if flagJSON {
				data, err := rec.JSON()
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			ui.PrintLogo()
			fmt.Printf("%s %s\n", ui.BoldCyan("Run:"), ui.Dim(rec.RunID))
			fmt.Printf("Field:     %s\n", ui.Bold(rec.Field))
			fmt.Printf("Inputs:    %s, %s\n", rec.WBSPath, rec.DSMPath)
			fmt.Printf("Cycles:    %d\n", len(rec.Cycles))
			if rec.Plan != nil {
				fmt.Printf("Horizon:   %s\n", ui.Bold(fmt.Sprintf("%.2f", rec.Plan.Horizon)))
				fmt.Printf("Critical:  %s\n", ui.BoldRed(strings.Join(rec.Plan.CriticalPath, " -> ")))
				fmt.Printf("Waves:     %d\n", len(rec.Plan.Waves))
			}
			if rec.Simulation != nil {
				fmt.Println()
				report.PrintSimulation(os.Stdout, rec.Simulation)
			}
			if rec.Schedule != nil {
				fmt.Printf("Makespan:  %s  %s\n",
					ui.Bold(fmt.Sprintf("%d", rec.Schedule.Makespan)),
					ui.OptimalityTag(rec.Schedule.Optimal))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagPrevious, "previous", false, "Show the most recently archived run")
	cmd.Flags().StringVar(&flagRunID, "run", "", "Show a specific archived run by ID")

	return cmd
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List archived analysis runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := store.ListHistory()
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Println(ui.Dim("No archived runs."))
				return nil
			}
			for _, id := range ids {
				fmt.Printf("  %s\n", ui.BoldMagenta(id))
			}
			return nil
		},
	}
}

func cleanCmd() *cobra.Command {
	var flagAll bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Archive the current run, or remove all stored results",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagAll {
				if err := store.Clean(); err != nil {
					return err
				}
				fmt.Printf("%s removed all stored results\n", ui.Green("✓"))
				return nil
			}

			if !store.Exists() {
				fmt.Println(ui.Dim("No current run to archive."))
				return nil
			}
			if err := store.Archive(); err != nil {
				return err
			}
			fmt.Printf("%s archived current run\n", ui.Green("✓"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagAll, "all", false, "Remove history as well")

	return cmd
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/triagekit/triage/internal/calendar"
	"github.com/triagekit/triage/internal/config"
	"github.com/triagekit/triage/internal/depgraph"
	"github.com/triagekit/triage/internal/scoring"
	"github.com/triagekit/triage/internal/task"
	"github.com/triagekit/triage/internal/ui"
	"github.com/triagekit/triage/internal/watch"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <tasks.json>",
	Short: "Score and rank tasks from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringP("strategy", "s", "", "scoring strategy (fastest_wins, high_impact, deadline_driven, smart_balance)")
	analyzeCmd.Flags().IntP("top", "n", 0, "limit output to the top N tasks")
	analyzeCmd.Flags().Bool("weekends", false, "count urgency in working days, skipping weekends and holidays")
	analyzeCmd.Flags().Bool("json", false, "print results as JSON on stdout")
	analyzeCmd.Flags().BoolP("watch", "w", false, "re-run the analysis whenever the file changes")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	printer := ui.New()
	path := args[0]

	strategy, _ := cmd.Flags().GetString("strategy")
	if strategy == "" {
		strategy = cfg.DefaultStrategy
	}
	topN, _ := cmd.Flags().GetInt("top")
	asJSON, _ := cmd.Flags().GetBool("json")
	watchMode, _ := cmd.Flags().GetBool("watch")

	opts, err := buildOptions(cmd, cfg)
	if err != nil {
		return err
	}

	run := func() error {
		return analyzeFile(path, strategy, topN, asJSON, opts, printer)
	}
	if err := run(); err != nil {
		return err
	}
	if !watchMode {
		return nil
	}
	return watchAndRerun(path, printer, run)
}

// buildOptions resolves the calendar and weekend mode from flags and config.
func buildOptions(cmd *cobra.Command, cfg config.Config) (scoring.Options, error) {
	weekends, _ := cmd.Flags().GetBool("weekends")

	cal := calendar.Default()
	if cfg.HolidaysFile != "" {
		loaded, err := calendar.LoadTOML(cfg.HolidaysFile)
		if err != nil {
			return scoring.Options{}, fmt.Errorf("load holidays: %w", err)
		}
		cal = loaded
	}

	return scoring.Options{
		ConsiderWeekends: weekends || cfg.ConsiderWeekends,
		Calendar:         cal,
	}, nil
}

// loadTasks reads a task list from a JSON file. Both a bare array and an
// object with a "tasks" key are accepted.
func loadTasks(path string) ([]task.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var tasks []task.Task
	if err := json.Unmarshal(data, &tasks); err == nil {
		return tasks, nil
	}

	var wrapped struct {
		Tasks []task.Task `json:"tasks"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return wrapped.Tasks, nil
}

func analyzeFile(path, strategy string, topN int, asJSON bool, opts scoring.Options, printer *ui.Printer) error {
	tasks, err := loadTasks(path)
	if err != nil {
		return err
	}

	scored := scoring.Analyze(tasks, strategy, opts)
	if topN > 0 && topN < len(scored) {
		scored = scored[:topN]
	}

	if asJSON {
		out := map[string]any{
			"tasks":    scored,
			"strategy": strategy,
			"count":    len(scored),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
	} else {
		printer.Ranked(strategy, scored)
	}

	if hasCycle, cycle := depgraph.DetectCycle(tasks); hasCycle {
		printer.CycleWarning(cycle)
	}
	return nil
}

// watchAndRerun blocks, re-running the analysis on every file change until
// SIGINT or SIGTERM.
func watchAndRerun(path string, printer *ui.Printer, run func() error) error {
	w, err := watch.New(path)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	printer.Info("watching " + path + " (ctrl-c to stop)")
	for {
		select {
		case <-ctx.Done():
			printer.Info("stopped")
			return nil
		case <-w.Changes:
			printer.Info("change detected, re-analyzing " + path)
			if err := run(); err != nil {
				// Keep watching through transient parse errors.
				printer.Error(err.Error())
			}
		}
	}
}

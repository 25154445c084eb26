package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/triagekit/triage/internal/depgraph"
	"github.com/triagekit/triage/internal/ui"
)

var graphCmd = &cobra.Command{
	Use:   "graph <tasks.json>",
	Short: "Print the dependency graph for a task file",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	printer := ui.New()

	tasks, err := loadTasks(args[0])
	if err != nil {
		return err
	}

	graph := depgraph.Build(tasks)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(graph); err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}

	if hasCycle, cycle := depgraph.DetectCycle(tasks); hasCycle {
		printer.CycleWarning(cycle)
	}
	return nil
}

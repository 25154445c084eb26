package depgraph

import (
	"fmt"

	"github.com/triagekit/triage/internal/task"
)

// labelTitleLimit caps the title portion of a node label.
const labelTitleLimit = 20

// Node is a task vertex in the visualization graph.
type Node struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Label string `json:"label"`
}

// Edge points from a task to one of its dependencies.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the projection served for dependency visualization.
// CircularNodes holds the ids of one detected cycle, empty when acyclic.
type Graph struct {
	Nodes         []Node   `json:"nodes"`
	Edges         []Edge   `json:"edges"`
	CircularNodes []string `json:"circular_nodes"`
}

// Build constructs the visualization graph for the task list. Edges are
// emitted only for dependencies that resolve to a known effective id.
func Build(tasks []task.Task) Graph {
	known := make(map[string]bool, len(tasks))
	for i, t := range tasks {
		known[EffectiveID(t, i)] = true
	}

	g := Graph{
		Nodes:         make([]Node, 0, len(tasks)),
		Edges:         make([]Edge, 0),
		CircularNodes: make([]string, 0),
	}

	for i, t := range tasks {
		id := EffectiveID(t, i)
		g.Nodes = append(g.Nodes, Node{
			ID:    id,
			Title: t.TitleOr(fmt.Sprintf("Task %s", id)),
			Label: fmt.Sprintf("%s: %s", id, truncate(t.TitleOr("Untitled"), labelTitleLimit)),
		})
		for _, dep := range t.Dependencies {
			if known[dep] {
				g.Edges = append(g.Edges, Edge{From: id, To: dep})
			}
		}
	}

	if has, cycle := DetectCycle(tasks); has {
		seen := make(map[string]bool, len(cycle))
		for _, id := range cycle {
			if !seen[id] {
				seen[id] = true
				g.CircularNodes = append(g.CircularNodes, id)
			}
		}
	}
	return g
}

// truncate limits s to n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

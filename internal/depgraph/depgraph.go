// Package depgraph analyzes the dependency relation between tasks: cycle
// detection, blocked-task counts, and a node/edge projection for
// visualization. The relation is a directed graph over task identifiers and
// is not required to be acyclic; cycles are detected and reported, never
// rejected.
package depgraph

import (
	"slices"
	"strconv"

	"github.com/triagekit/triage/internal/task"
)

// EffectiveID resolves a task's identifier for graph purposes: its id field
// when present, otherwise its 0-based position in the input list.
func EffectiveID(t task.Task, index int) string {
	if t.ID != "" {
		return t.ID
	}
	return strconv.Itoa(index)
}

// CountBlocked returns how many tasks list id among their dependencies.
// Each task counts at most once, regardless of duplicate references.
func CountBlocked(id string, tasks []task.Task) int {
	count := 0
	for _, t := range tasks {
		if slices.Contains(t.Dependencies, id) {
			count++
		}
	}
	return count
}

// DetectCycle searches the dependency graph for a cycle. It returns the
// first cycle found as an id sequence starting and ending at the repeated
// node, or (false, nil) when the graph is acyclic. Dependencies referencing
// ids not present in the list contribute no edges. Runs in O(V+E) and
// terminates on self-loops and disconnected subgraphs.
func DetectCycle(tasks []task.Task) (bool, []string) {
	order, adjacency := buildAdjacency(tasks)

	visited := make(map[string]bool, len(order))
	for _, root := range order {
		if visited[root] {
			continue
		}
		if cycle := findCycleFrom(root, adjacency, visited); cycle != nil {
			return true, cycle
		}
	}
	return false, nil
}

// buildAdjacency maps each effective id to its known dependency ids,
// preserving input order for deterministic traversal.
func buildAdjacency(tasks []task.Task) ([]string, map[string][]string) {
	known := make(map[string]bool, len(tasks))
	order := make([]string, 0, len(tasks))
	for i, t := range tasks {
		id := EffectiveID(t, i)
		if !known[id] {
			order = append(order, id)
		}
		known[id] = true
	}

	adjacency := make(map[string][]string, len(tasks))
	for i, t := range tasks {
		id := EffectiveID(t, i)
		deps := make([]string, 0, len(t.Dependencies))
		for _, dep := range t.Dependencies {
			if known[dep] {
				deps = append(deps, dep)
			}
		}
		adjacency[id] = deps
	}
	return order, adjacency
}

// findCycleFrom runs an iterative depth-first search from root. An explicit
// frame stack replaces recursion so that pathological dependency chains
// cannot exhaust the goroutine stack. When a neighbor already on the
// traversal stack is met, the current path is trimmed to that neighbor's
// first occurrence and the neighbor is appended to close the loop.
func findCycleFrom(root string, adjacency map[string][]string, visited map[string]bool) []string {
	type frame struct {
		id   string
		next int // index of next neighbor to explore
	}

	stack := []frame{{id: root}}
	path := []string{root}
	onStack := map[string]bool{root: true}
	visited[root] = true

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		neighbors := adjacency[top.id]

		if top.next >= len(neighbors) {
			onStack[top.id] = false
			stack = stack[:len(stack)-1]
			path = path[:len(path)-1]
			continue
		}

		n := neighbors[top.next]
		top.next++

		switch {
		case onStack[n]:
			start := slices.Index(path, n)
			cycle := slices.Clone(path[start:])
			return append(cycle, n)
		case !visited[n]:
			visited[n] = true
			onStack[n] = true
			path = append(path, n)
			stack = append(stack, frame{id: n})
		}
	}
	return nil
}

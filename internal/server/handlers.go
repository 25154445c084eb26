package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/triagekit/triage/internal/depgraph"
	"github.com/triagekit/triage/internal/learning"
	"github.com/triagekit/triage/internal/scoring"
	"github.com/triagekit/triage/internal/store"
	"github.com/triagekit/triage/internal/task"
	"github.com/triagekit/triage/internal/telemetry"
)

// analyzeRequest is the body shared by the analyze, suggest, and graph
// endpoints. Tasks stays raw until we know it is a JSON array.
type analyzeRequest struct {
	Tasks            json.RawMessage `json:"tasks"`
	Strategy         string          `json:"strategy"`
	ConsiderWeekends *bool           `json:"consider_weekends"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // headers already sent
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeTasks parses the request body into a task list plus options. The two
// error messages are part of the API contract.
func (s *Server) decodeTasks(r *http.Request) ([]task.Task, string, *bool, string) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, "", nil, "Invalid JSON in request body"
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = s.cfg.DefaultStrategy
	}

	if len(req.Tasks) == 0 {
		return []task.Task{}, strategy, req.ConsiderWeekends, ""
	}
	var tasks []task.Task
	if err := json.Unmarshal(req.Tasks, &tasks); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "" {
			return nil, "", nil, "Tasks must be a list"
		}
		return nil, "", nil, "Invalid JSON in request body"
	}
	return tasks, strategy, req.ConsiderWeekends, ""
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	tasks, strategy, weekends, errMsg := s.decodeTasks(r)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	hasCycle, cycle := depgraph.DetectCycle(tasks)
	scored := scoring.Analyze(tasks, strategy, s.options(weekends))

	resp := map[string]any{
		"tasks":    scored,
		"strategy": strategy,
		"count":    len(scored),
	}
	if hasCycle {
		resp["warning"] = fmt.Sprintf("Warning: Circular dependency detected involving tasks: %v", cycle)
		s.emitter.Emit(telemetry.Event{ //nolint:errcheck // telemetry is best effort
			Kind:     telemetry.KindCycleDetected,
			Strategy: strategy,
			Data:     map[string]any{"cycle": cycle},
		})
	}

	s.emitter.Emit(telemetry.Event{ //nolint:errcheck // telemetry is best effort
		Kind:     telemetry.KindAnalyzeRequest,
		Strategy: strategy,
		Data:     map[string]int{"count": len(scored)},
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var (
		tasks    []task.Task
		strategy string
		weekends *bool
	)

	if r.Method == http.MethodPost {
		var errMsg string
		tasks, strategy, weekends, errMsg = s.decodeTasks(r)
		if errMsg != "" {
			writeError(w, http.StatusBadRequest, errMsg)
			return
		}
	} else {
		strategy = r.URL.Query().Get("strategy")
		if strategy == "" {
			strategy = s.cfg.DefaultStrategy
		}
		if raw := r.URL.Query().Get("tasks"); raw != "" {
			// Unparseable query tasks degrade to an empty list,
			// reported below as "no tasks provided".
			if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
				tasks = nil
			}
		}
	}

	if len(tasks) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":       "No tasks provided. Please provide tasks in the request.",
			"suggestions": []any{},
		})
		return
	}

	top := scoring.Top(tasks, strategy, s.cfg.TopN, s.options(weekends))

	s.emitter.Emit(telemetry.Event{ //nolint:errcheck // telemetry is best effort
		Kind:     telemetry.KindSuggestRequest,
		Strategy: strategy,
		Data:     map[string]int{"count": len(top)},
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"suggestions": top,
		"strategy":    strategy,
		"count":       len(top),
	})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	tasks, _, _, errMsg := s.decodeTasks(r)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	graph := depgraph.Build(tasks)
	s.emitter.Emit(telemetry.Event{ //nolint:errcheck // telemetry is best effort
		Kind: telemetry.KindGraphRequest,
		Data: map[string]int{"nodes": len(graph.Nodes), "edges": len(graph.Edges)},
	})
	writeJSON(w, http.StatusOK, graph)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireStore guards the persistence-backed endpoints.
func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "Task storage is not configured")
		return false
	}
	return true
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	tasks, err := s.store.ListTasks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks, "count": len(tasks)})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var t task.Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if err := t.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, task.ValidationMessage(err))
		return
	}

	created, err := s.store.CreateTask(r.Context(), t)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.emitter.Emit(telemetry.Event{Kind: telemetry.KindTaskCreated, TaskID: created.ID}) //nolint:errcheck // telemetry is best effort
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	t, err := s.store.GetTask(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var t task.Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	t.ID = r.PathValue("id")
	if err := t.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, task.ValidationMessage(err))
		return
	}

	updated, err := s.store.UpdateTask(r.Context(), t)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.emitter.Emit(telemetry.Event{Kind: telemetry.KindTaskUpdated, TaskID: updated.ID}) //nolint:errcheck // telemetry is best effort
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	id := r.PathValue("id")
	err := s.store.DeleteTask(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.emitter.Emit(telemetry.Event{Kind: telemetry.KindTaskDeleted, TaskID: id}) //nolint:errcheck // telemetry is best effort
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRanked(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	tasks, err := s.store.ListTasks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	strategy := r.URL.Query().Get("strategy")
	if strategy == "" {
		strategy = s.cfg.DefaultStrategy
	}

	opts := s.options(nil)
	learned := r.URL.Query().Get("learned") == "true"
	if learned {
		stats, err := s.store.FeedbackStats(r.Context(), strategy)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		weights := learning.Adjust(learning.DefaultWeights(), stats)
		opts.Weights = &weights
	}

	scored := scoring.Analyze(tasks, strategy, opts)
	if scored == nil {
		scored = []scoring.Scored{}
	}

	s.emitter.Emit(telemetry.Event{ //nolint:errcheck // telemetry is best effort
		Kind:     telemetry.KindAnalyzeRequest,
		Strategy: strategy,
		Data:     map[string]any{"count": len(scored), "stored": true, "learned": learned},
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"tasks":    scored,
		"strategy": strategy,
		"count":    len(scored),
		"learned":  learned,
	})
}

func (s *Server) handleAddFeedback(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var fb store.Feedback
	if err := json.NewDecoder(r.Body).Decode(&fb); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if err := s.store.AddFeedback(r.Context(), fb); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.emitter.Emit(telemetry.Event{ //nolint:errcheck // telemetry is best effort
		Kind:     telemetry.KindFeedbackRecorded,
		Strategy: fb.Strategy,
		TaskID:   fb.TaskID,
	})
	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

func (s *Server) handleFeedbackStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	strategy := r.URL.Query().Get("strategy")
	stats, err := s.store.FeedbackStats(r.Context(), strategy)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":            stats,
		"adjusted_weights": learning.Adjust(learning.DefaultWeights(), stats),
	})
}

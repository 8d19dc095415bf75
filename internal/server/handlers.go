package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/marketing-agent/internal/db"
	"github.com/jonathan/marketing-agent/internal/schemas"
	"github.com/jonathan/marketing-agent/internal/types"
	schemafiles "github.com/jonathan/marketing-agent/schemas"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status           string `json:"status"`
	Service          string `json:"service"`
	LLMProvider      string `json:"llmProvider"`
	Model            string `json:"model,omitempty"`
	AgentInitialized bool   `json:"agentInitialized"`
	Version          string `json:"version"`
}

// TaskListResponse is returned by GET /tasks.
type TaskListResponse struct {
	Tasks  []db.Task `json:"tasks"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      "healthy",
		Service:     s.service,
		LLMProvider: s.provider,
		Version:     Version,
	}
	if s.agent != nil {
		resp.AgentInitialized = true
		resp.Model = s.agent.Model()
	} else {
		resp.Status = "degraded"
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req types.GenerationRequest
	if err := decodeBody(r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	// Field checks come first so a bad request is a 400 even without a model.
	if err := types.ValidateRequest(&req); err != nil {
		s.errorResponse(w, err)
		return
	}
	if s.agent == nil {
		s.errorResponse(w, &ErrAgentUnavailable{})
		return
	}

	result, err := s.agent.Generate(r.Context(), req)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	if s.tasks != nil {
		if err := s.tasks.SaveTask(r.Context(), req.Topic, result); err != nil {
			s.logger.Error("failed to save task", "task_id", result.TaskID, "error", err)
		}
	}

	s.jsonResponse(w, http.StatusOK, result)
}

// handleStream reports task status. Generation is synchronous, so every
// task is already complete by the time a client can ask.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	status := types.StreamStatus{
		TaskID:   r.PathValue("task_id"),
		Status:   "completed",
		Progress: 100,
		Message:  "Content generation completed",
	}

	if !strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		s.jsonResponse(w, http.StatusOK, status)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.jsonResponse(w, http.StatusOK, status)
		return
	}
	if err := sse.WriteProgress(status); err != nil {
		s.logger.Warn("stream write failed", "task_id", status.TaskID, "error", err)
		return
	}
	if err := sse.WriteComplete(status); err != nil {
		s.logger.Warn("stream write failed", "task_id", status.TaskID, "error", err)
	}
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req types.EvaluateRequest
	if err := decodeBody(r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, err)
		return
	}
	if s.agent == nil {
		s.errorResponse(w, &ErrAgentUnavailable{})
		return
	}

	ev, err := s.agent.Evaluate(r.Context(), req)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, ev)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.thresholds.Get())
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if !json.Valid(body) {
		s.errorResponse(w, &ErrBadRequest{Message: "invalid JSON"})
		return
	}
	if err := schemas.Validate(schemafiles.ThresholdsUpdate, body); err != nil {
		s.errorResponse(w, err)
		return
	}

	var update types.ThresholdsUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		s.errorResponse(w, &ErrBadRequest{Message: "invalid request body", Cause: err})
		return
	}

	updated, err := s.thresholds.Update(update)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.logger.Info("optimization thresholds updated",
		"full", updated.Full,
		"targeted", updated.Targeted)
	s.jsonResponse(w, http.StatusOK, updated)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	if s.tasks == nil {
		s.errorResponse(w, &ErrNotFound{Resource: "task history"})
		return
	}

	limit := db.ClampLimit(queryInt(r, "limit", db.DefaultListLimit))
	offset := max(queryInt(r, "offset", 0), 0)

	tasks, err := s.tasks.ListTasks(r.Context(), limit, offset)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if tasks == nil {
		tasks = []db.Task{}
	}
	s.jsonResponse(w, http.StatusOK, TaskListResponse{Tasks: tasks, Limit: limit, Offset: offset})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	if s.tasks == nil {
		s.errorResponse(w, &ErrNotFound{Resource: "task history"})
		return
	}

	idStr := r.PathValue("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		s.errorResponse(w, &ErrBadRequest{Message: "invalid task ID", Cause: err})
		return
	}

	task, err := s.tasks.GetTask(r.Context(), id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if task == nil {
		s.errorResponse(w, &ErrNotFound{Resource: "task", ID: idStr})
		return
	}
	s.jsonResponse(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if s.tasks == nil {
		s.errorResponse(w, &ErrNotFound{Resource: "task history"})
		return
	}

	idStr := r.PathValue("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		s.errorResponse(w, &ErrBadRequest{Message: "invalid task ID", Cause: err})
		return
	}

	deleted, err := s.tasks.DeleteTask(r.Context(), id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if !deleted {
		s.logger.Warn("delete of unknown task", "task_id", idStr)
		s.errorResponse(w, &ErrNotFound{Resource: "task", ID: idStr})
		return
	}
	s.logger.Info("task deleted", "task_id", idStr)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusNotFound, errorBody{
		Status:  "error",
		Error:   "not_found",
		Message: "The requested endpoint does not exist",
	})
}

// readBody reads a bounded request body.
func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, &ErrBadRequest{Message: "failed to read request body", Cause: err}
	}
	if len(body) == 0 {
		return nil, &ErrBadRequest{Message: "request body is required"}
	}
	return body, nil
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return &ErrBadRequest{Message: "invalid JSON", Cause: err}
		}
		return &ErrBadRequest{Message: "invalid request body", Cause: err}
	}
	return nil
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

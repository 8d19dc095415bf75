package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/marketing-agent/internal/schemas"
	"github.com/jonathan/marketing-agent/internal/types"
	schemafiles "github.com/jonathan/marketing-agent/schemas"
)

func (s *Server) handleLoopHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:           "healthy",
		Service:          s.service,
		LLMProvider:      s.provider,
		AgentInitialized: s.loop != nil,
		Version:          Version,
	}
	if s.loop == nil {
		resp.Status = "degraded"
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleLoop(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if !json.Valid(body) {
		s.errorResponse(w, &ErrBadRequest{Message: "invalid JSON"})
		return
	}
	if err := schemas.Validate(schemafiles.LoopRequest, body); err != nil {
		s.errorResponse(w, err)
		return
	}

	var req types.LoopRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.errorResponse(w, &ErrBadRequest{Message: "invalid request body", Cause: err})
		return
	}
	if s.loop == nil {
		s.errorResponse(w, &ErrAgentUnavailable{})
		return
	}

	result, err := s.loop.Run(r.Context(), req)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

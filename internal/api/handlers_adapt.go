package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/browseable/pageadapt/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

type adaptRequest struct {
	UserID  string `json:"user_id"`
	PageURL string `json:"page_url"`
	HTML    string `json:"html"`

	// Optional overrides.
	Neurotype   string `json:"neurotype,omitempty"`
	TokenBudget int    `json:"token_budget,omitempty"`
}

func (s *Server) handleAdapt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+64*1024)

	var req adaptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		jsonError(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if req.PageURL == "" {
		jsonError(w, "page_url is required", http.StatusBadRequest)
		return
	}
	if u, err := url.Parse(req.PageURL); err != nil || u.Scheme == "" {
		jsonError(w, "page_url must be an absolute URL", http.StatusBadRequest)
		return
	}
	if req.HTML == "" {
		jsonError(w, "html is required", http.StatusBadRequest)
		return
	}
	if int64(len(req.HTML)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("html exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}
	if req.Neurotype != "" && !s.orchestrator.Policies().Known(req.Neurotype) {
		jsonError(w, fmt.Sprintf("unknown neurotype %q", req.Neurotype), http.StatusBadRequest)
		return
	}

	cycle := pipeline.NewCycle(req.UserID, req.PageURL, []byte(req.HTML))
	cycle.NeurotypeOverride = req.Neurotype
	if req.TokenBudget > 0 {
		cycle.TokenBudget = req.TokenBudget
	}

	if err := s.orchestrator.Submit(cycle); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"cycle_id": cycle.ID,
		"status":   cycle.CurrentStatus(),
		"poll_url": fmt.Sprintf("/api/adapt/%s/status", cycle.ID),
	})
}

func (s *Server) handleAdaptStatus(w http.ResponseWriter, r *http.Request) {
	cycleID := chi.URLParam(r, "cycleID")
	cycle := s.orchestrator.GetCycle(cycleID)
	if cycle == nil {
		jsonError(w, "cycle not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cycle.Snapshot())
}

func (s *Server) handleAdaptCancel(w http.ResponseWriter, r *http.Request) {
	cycleID := chi.URLParam(r, "cycleID")
	cycle := s.orchestrator.GetCycle(cycleID)
	if cycle == nil {
		jsonError(w, "cycle not found", http.StatusNotFound)
		return
	}
	cycle.Cancel()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"cycle_id": cycleID,
		"status":   string(cycle.CurrentStatus()),
	})
}

func (s *Server) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	type policyInfo struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	}
	list := s.orchestrator.Policies().List()
	out := make([]policyInfo, 0, len(list))
	for _, p := range list {
		out = append(out, policyInfo{ID: p.ID, Label: p.Label})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"policies": out})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

package api

import (
	"net/http"

	"github.com/tborer/resume-helper/pkg/types"
)

func (s *Server) handleAnalyzeKeywords(w http.ResponseWriter, r *http.Request) {
	var req types.AnalysisRequest
	if err := decode(r, &req); err != nil {
		fail(w, r.Context(), err)
		return
	}

	result, err := s.pipe.ExtractKeywords(r.Context(), req)
	if err != nil {
		fail(w, r.Context(), err)
		return
	}
	RespondWithJSON(w, http.StatusOK, result)
}

func (s *Server) handleCalculateMatch(w http.ResponseWriter, r *http.Request) {
	var req types.AnalysisRequest
	if err := decode(r, &req); err != nil {
		fail(w, r.Context(), err)
		return
	}

	result, err := s.pipe.ScoreMatch(r.Context(), req)
	if err != nil {
		fail(w, r.Context(), err)
		return
	}
	RespondWithJSON(w, http.StatusOK, result)
}

func (s *Server) handleOptimizeResume(w http.ResponseWriter, r *http.Request) {
	var req types.AnalysisRequest
	if err := decode(r, &req); err != nil {
		fail(w, r.Context(), err)
		return
	}

	result, err := s.pipe.Optimize(r.Context(), req)
	if err != nil {
		fail(w, r.Context(), err)
		return
	}
	RespondWithJSON(w, http.StatusOK, result)
}

// handleAnalyze runs keyword extraction and match scoring together.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req types.AnalysisRequest
	if err := decode(r, &req); err != nil {
		fail(w, r.Context(), err)
		return
	}

	result, err := s.pipe.Analyze(r.Context(), req)
	if err != nil {
		fail(w, r.Context(), err)
		return
	}
	RespondWithJSON(w, http.StatusOK, result)
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserEmail string `json:"userEmail"`
	}
	if err := decode(r, &req); err != nil {
		fail(w, r.Context(), err)
		return
	}
	if req.UserEmail == "" {
		fail(w, r.Context(), errEmailRequired)
		return
	}

	status, err := s.pipe.Remaining(r.Context(), req.UserEmail)
	if err != nil {
		fail(w, r.Context(), err)
		return
	}
	RespondWithJSON(w, http.StatusOK, status)
}

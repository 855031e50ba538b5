package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/bunko/internal/models"
	"github.com/hyperjump/bunko/internal/retrieve"
	"github.com/hyperjump/bunko/internal/scoring"
)

type searchRequest struct {
	Query    string `json:"query"`
	TopK     int    `json:"top_k,omitempty"`
	Fallback *bool  `json:"fallback,omitempty"`
}

type searchHit struct {
	models.Hit
	// Relevance is the display score for vector hits; it never affects order.
	Relevance float64 `json:"relevance,omitempty"`
}

type searchResponse struct {
	Query string      `json:"query"`
	Hits  []searchHit `json:"hits"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	topK := s.cfg.Search.ClampTopK(req.TopK)
	fallback := s.cfg.Search.FallbackOrDefault()
	if req.Fallback != nil {
		fallback = *req.Fallback
	}
	hits, err := s.retriever.Retrieve(r.Context(), req.Query, topK, fallback)
	if err != nil {
		if errors.Is(err, retrieve.ErrUnsupportedQuery) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := searchResponse{Query: req.Query, Hits: make([]searchHit, len(hits))}
	for i, h := range hits {
		resp.Hits[i] = searchHit{Hit: h}
		if h.Origin == models.OriginVector {
			resp.Hits[i].Relevance = scoring.DistanceToScore(h.Distance,
				s.cfg.Search.MaxDistance, scoring.DefaultMinScore, scoring.DefaultMaxScore)
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

type qaRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

type qaResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

func (s *Server) handleQA(w http.ResponseWriter, r *http.Request) {
	if s.answerer == nil {
		s.respondError(w, http.StatusServiceUnavailable, "answer generation not configured")
		return
	}
	var req qaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	hits, err := s.retriever.Retrieve(r.Context(), req.Question, s.cfg.Search.ClampTopK(req.TopK), s.cfg.Search.FallbackOrDefault())
	if err != nil {
		if errors.Is(err, retrieve.ErrUnsupportedQuery) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("retrieval failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	answer, used, err := s.answerer.Answer(r.Context(), req.Question, hits)
	if err != nil {
		s.logger.Error("answer generation failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	resp := qaResponse{Answer: answer, Sources: make([]string, len(used))}
	for i, ch := range used {
		resp.Sources[i] = ch.ID()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

type ingestRequest struct {
	Folder string `json:"folder"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Folder == "" {
		s.respondError(w, http.StatusBadRequest, "folder is required")
		return
	}
	res, err := s.ingestor.IngestFolder(r.Context(), req.Folder)
	if err != nil {
		s.logger.Error("ingest failed", zap.String("folder", req.Folder), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Reset(); err != nil {
		s.logger.Error("vector store reset failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if s.keyword != nil {
		if err := s.keyword.Reset(); err != nil {
			s.logger.Error("keyword index reset failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	if s.catalog != nil {
		if err := s.catalog.Reset(r.Context()); err != nil {
			s.logger.Error("catalog reset failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

type statusResponse struct {
	IndexedChunks   int    `json:"indexed_chunks"`
	Dimensions      int    `json:"dimensions"`
	Sources         int64  `json:"sources"`
	LastIngestRunID string `json:"last_ingest_run_id,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		IndexedChunks: s.store.Len(),
		Dimensions:    s.store.Dims(),
	}
	if s.catalog != nil {
		sources, _, err := s.catalog.Counts(r.Context())
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.Sources = sources
		if run, err := s.catalog.LastRun(r.Context()); err == nil && run != nil {
			resp.LastIngestRunID = run.ID
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}

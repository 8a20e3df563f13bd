package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/clearhealth/regindex/internal/index"
	"github.com/clearhealth/regindex/internal/models"
	"github.com/clearhealth/regindex/internal/storage"
	"go.uber.org/zap"
)

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("ask request", zap.String("question", req.Question), zap.Int("max_sources", req.MaxSources))
	resp, err := s.query.Ask(r.Context(), &req)
	if err != nil {
		if errors.Is(err, index.ErrUnavailable) {
			s.respondError(w, http.StatusServiceUnavailable, "index not built, POST /api/v1/index/rebuild first")
			return
		}
		s.logger.Error("ask failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	idx, err := s.holder.Get()
	if err != nil {
		s.respondError(w, http.StatusServiceUnavailable, "index not built, POST /api/v1/index/rebuild first")
		return
	}
	s.logger.Debug("search request", zap.String("query", req.Query), zap.Int("top_k", req.TopK))
	start := time.Now()
	results, err := idx.Search(r.Context(), req.Query, req.TopK, req.MinScore)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, &models.SearchResponse{
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
		Query:     req.Query,
	})
}

func (s *Server) handleIngestDocument(w http.ResponseWriter, r *http.Request) {
	var input models.DocumentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("ingest document request", zap.String("title", input.Title), zap.String("url", input.URL))
	doc, ingested, err := s.pipeline.IngestDocument(r.Context(), input)
	if err != nil {
		s.logger.Error("ingestion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := "ingested"
	code := http.StatusCreated
	if !ingested {
		status = "unchanged"
		code = http.StatusOK
	}
	s.respondJSON(w, code, map[string]string{
		"id":        doc.ID,
		"source_id": doc.SourceID,
		"status":    status,
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.store.GetDocument(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "document not found")
			return
		}
		s.logger.Error("get document failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	weights := index.Weights{
		Lexical:   s.cfg.Index.LexicalWeight,
		Semantic:  s.cfg.Index.SemanticWeight,
		Authority: s.cfg.Index.AuthorityWeight,
	}
	count, err := s.pipeline.Rebuild(r.Context(), s.scorer, weights, s.cfg.Storage.IndexDir, s.holder,
		index.WithAuthorityFallback(s.cfg.Index.AuthorityFallbackOrDefault()))
	if err != nil {
		s.logger.Error("rebuild failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "rebuilt",
		"chunks_indexed": count,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.store.CountDocuments(ctx)
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	chunkCount, err := s.store.CountChunks(ctx)
	if err != nil {
		s.logger.Error("status: count chunks failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	indexSize := 0
	indexAvailable := false
	if idx, err := s.holder.Get(); err == nil {
		indexSize = idx.Size()
		indexAvailable = true
	}

	resp := map[string]interface{}{
		"documents":       docCount,
		"chunks":          chunkCount,
		"index_size":      indexSize,
		"index_available": indexAvailable,
	}
	configInfo := map[string]interface{}{
		"scorer":           s.scorer.Name(),
		"lexical_weight":   s.cfg.Index.LexicalWeight,
		"semantic_weight":  s.cfg.Index.SemanticWeight,
		"authority_weight": s.cfg.Index.AuthorityWeight,
		"database_path":    s.cfg.Storage.DatabasePath,
		"index_dir":        s.cfg.Storage.IndexDir,
	}
	if diskBytes, err := storage.DiskUsageBytes(s.cfg.Storage.DatabasePath, s.cfg.Storage.IndexDir); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/insurdesk/concierge/pkg/domain/types"
	"github.com/insurdesk/concierge/pkg/usecase"
	"github.com/insurdesk/concierge/pkg/utils/errutil"
)

// knowledgeResponse omits the embedding; callers only see whether it exists
type knowledgeResponse struct {
	ID         string         `json:"id"`
	SourceType string         `json:"source_type"`
	TextChunk  string         `json:"text_chunk"`
	Metadata   model.Metadata `json:"metadata"`
	Vectorized bool           `json:"vectorized"`
	CreatedAt  time.Time      `json:"created_at"`
}

func toKnowledgeResponse(e *model.KnowledgeEntry) knowledgeResponse {
	return knowledgeResponse{
		ID:         e.ID.String(),
		SourceType: e.SourceType.String(),
		TextChunk:  e.TextChunk,
		Metadata:   e.Metadata,
		Vectorized: e.IsVectorized(),
		CreatedAt:  e.CreatedAt,
	}
}

func (s *Server) sourceTypeParam(r *http.Request) types.SourceType {
	if st := r.URL.Query().Get("source_type"); st != "" {
		return types.SourceType(st)
	}
	return s.defaultSourceType
}

func (s *Server) createKnowledgeHandler(w http.ResponseWriter, r *http.Request) {
	var req createKnowledgeRequest
	if err := s.validate.decode(w, r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}

	created, err := s.uc.Knowledge.Create(r.Context(), usecase.CreateKnowledgeInput{
		SourceType: types.SourceType(req.SourceType),
		TextChunk:  req.TextChunk,
		Metadata:   req.Metadata,
	})
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toKnowledgeResponse(created))
}

func (s *Server) listKnowledgeHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := s.uc.Knowledge.List(r.Context(), s.sourceTypeParam(r))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}

	resp := make([]knowledgeResponse, len(entries))
	for i, e := range entries {
		resp[i] = toKnowledgeResponse(e)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"entries": resp})
}

func (s *Server) getKnowledgeHandler(w http.ResponseWriter, r *http.Request) {
	entry, err := s.uc.Knowledge.Get(r.Context(), model.KnowledgeID(chi.URLParam(r, "id")))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toKnowledgeResponse(entry))
}

func (s *Server) deleteKnowledgeHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.Knowledge.Delete(r.Context(), model.KnowledgeID(chi.URLParam(r, "id"))); err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) indexStatusHandler(w http.ResponseWriter, r *http.Request) {
	status, err := s.uc.Indexing.Status(r.Context(), s.sourceTypeParam(r))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

func (s *Server) indexRunHandler(w http.ResponseWriter, r *http.Request) {
	var req indexRunRequest
	if r.ContentLength != 0 {
		if err := s.validate.decode(w, r, &req); err != nil {
			errutil.HandleHTTP(r.Context(), w, err)
			return
		}
	}

	sourceType := s.defaultSourceType
	if req.SourceType != "" {
		sourceType = types.SourceType(req.SourceType)
	}

	result := s.uc.Indexing.Run(r.Context(), sourceType)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, r, status, result)
}

package http

import (
	"net/http"

	"github.com/insurdesk/concierge/pkg/utils/errutil"
)

func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := s.validate.decode(w, r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}

	resp, err := s.uc.Search.Search(r.Context(), req.Query, limitOf(req.Limit))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) searchVectorHandler(w http.ResponseWriter, r *http.Request) {
	var req vectorSearchRequest
	if err := s.validate.decode(w, r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}

	resp, err := s.uc.Search.SearchByVector(r.Context(), req.Query, req.Vector, limitOf(req.Limit))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

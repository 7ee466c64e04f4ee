package http

import (
	"net/http"

	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/insurdesk/concierge/pkg/utils/errutil"
)

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := s.validate.decode(w, r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}

	reply, err := s.uc.Chat.Send(r.Context(), &model.ChatTurn{
		Message:       req.Message,
		SessionID:     req.SessionID,
		UserRole:      req.UserRole,
		Authorization: r.Header.Get("Authorization"),
	})
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}

	body, err := reply.Body()
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err)
		return
	}
	writeRaw(w, r, http.StatusOK, body)
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.uc.Gateway.Status())
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.uc.Gateway.Health())
}

package server

import (
	"net/http"

	"github.com/Leopold1975/microblog/internal/microblog/domain/models"
	"github.com/Leopold1975/microblog/internal/microblog/services/tagservice"
	"github.com/Leopold1975/microblog/internal/microblog/services/userservice"
)

// (GET /api/tags).
func (s *Server) GetTags(w http.ResponseWriter, r *http.Request) {
	req := tagservice.SearchRequest{Search: r.URL.Query().Get("search")} //nolint:exhaustruct

	if err := bindInt(r, "limit", &req.Limit); err != nil {
		s.handleError(w, r, err)

		return
	}

	tags, err := s.services.Tags.SearchTags(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, ListResponse[models.TagRef]{Items: tags})
}

// (GET /api/users).
func (s *Server) GetUsers(w http.ResponseWriter, r *http.Request) {
	req := userservice.SearchRequest{Search: r.URL.Query().Get("search")} //nolint:exhaustruct

	if err := bindInt(r, "limit", &req.Limit); err != nil {
		s.handleError(w, r, err)

		return
	}

	users, err := s.services.Users.SearchUsers(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, ListResponse[models.UserWithColor]{Items: users})
}

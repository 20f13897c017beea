package server

import (
	"net/http"

	"github.com/Leopold1975/microblog/internal/microblog/services/postservice"
	"github.com/go-chi/chi/v5"
)

// (GET /api/posts).
func (s *Server) GetPosts(w http.ResponseWriter, r *http.Request) {
	var (
		req postservice.ListPostsRequest
		err error
	)

	if req.AuthorIDs, err = bindList(r, "authorIds"); err != nil {
		s.handleError(w, r, err)

		return
	}

	if req.TagIDs, err = bindList(r, "tagIds"); err != nil {
		s.handleError(w, r, err)

		return
	}

	if err = bindInt(r, "limit", &req.Limit); err != nil {
		s.handleError(w, r, err)

		return
	}

	q := r.URL.Query()
	req.Cursor = q.Get("cursor")
	req.Sort = q.Get("sort")

	page, err := s.services.Posts.ListPosts(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, page)
}

// (POST /api/posts).
func (s *Server) CreatePost(w http.ResponseWriter, r *http.Request) {
	u, _ := currentUser(r)

	var req postservice.CreatePostRequest

	if err := decodeBody(r, &req); err != nil {
		s.handleError(w, r, err)

		return
	}

	p, err := s.services.Posts.CreatePost(r.Context(), u.ID, req)
	if err != nil {
		s.handleError(w, r, err)

		return
	}

	writeJSON(w, http.StatusCreated, p.Response())
}

// (PATCH /api/posts/{id}).
func (s *Server) UpdatePost(w http.ResponseWriter, r *http.Request) {
	u, _ := currentUser(r)

	var req postservice.UpdatePostRequest

	if err := decodeBody(r, &req); err != nil {
		s.handleError(w, r, err)

		return
	}

	p, err := s.services.Posts.UpdatePost(r.Context(), u.ID, chi.URLParam(r, "id"), req)
	if err != nil {
		s.handleError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, p.Response())
}

// (DELETE /api/posts/{id}).
func (s *Server) DeletePost(w http.ResponseWriter, r *http.Request) {
	u, _ := currentUser(r)

	if err := s.services.Posts.DeletePost(r.Context(), u.ID, chi.URLParam(r, "id")); err != nil {
		s.handleError(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

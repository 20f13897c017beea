package server

import (
	"net/http"
	"net/url"

	"github.com/Leopold1975/microblog/internal/microblog/domain/errs"
	"github.com/Leopold1975/microblog/internal/microblog/services/authservice"
	"github.com/Leopold1975/microblog/internal/pkg/googleauth"
)

// (POST /api/auth/sign-up).
func (s *Server) SignUp(w http.ResponseWriter, r *http.Request) {
	var req authservice.SignUpRequest

	if err := decodeBody(r, &req); err != nil {
		s.handleError(w, r, err)

		return
	}

	session, err := s.services.Auth.SignUp(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)

		return
	}

	s.setAuthCookies(w, session.Tokens)
	writeJSON(w, http.StatusCreated, AuthResponse{User: session.User})
}

// (POST /api/auth/sign-in).
func (s *Server) SignIn(w http.ResponseWriter, r *http.Request) {
	var req authservice.SignInRequest

	if err := decodeBody(r, &req); err != nil {
		s.handleError(w, r, err)

		return
	}

	session, err := s.services.Auth.SignIn(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)

		return
	}

	s.setAuthCookies(w, session.Tokens)
	writeJSON(w, http.StatusOK, AuthResponse{User: session.User})
}

// (POST /api/auth/refresh).
func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	session, err := s.services.Auth.Refresh(r.Context(), cookieValue(r, refreshCookie))
	if err != nil {
		s.handleError(w, r, err)

		return
	}

	s.setAuthCookies(w, session.Tokens)
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// (POST /api/auth/sign-out).
func (s *Server) SignOut(w http.ResponseWriter, _ *http.Request) {
	s.clearAuthCookies(w)
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// (GET /api/auth/me).
func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	u, _ := currentUser(r)

	me, err := s.services.Auth.Me(r.Context(), u.ID)
	if err != nil {
		s.handleError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{User: me})
}

// (GET /api/auth/google/start).
func (s *Server) GoogleStart(w http.ResponseWriter, r *http.Request) {
	if s.services.Google == nil {
		s.handleError(w, r, errs.New(errs.ErrNotFound, "Google login is not configured"))

		return
	}

	state, err := googleauth.NewState()
	if err != nil {
		s.handleError(w, r, err)

		return
	}

	s.setStateCookie(w, state)
	http.Redirect(w, r, s.services.Google.AuthCodeURL(state), http.StatusFound)
}

// (GET /api/auth/google/redirect).
func (s *Server) GoogleRedirect(w http.ResponseWriter, r *http.Request) {
	if s.services.Google == nil {
		s.handleError(w, r, errs.New(errs.ErrNotFound, "Google login is not configured"))

		return
	}

	state := cookieValue(r, stateCookie)
	s.clearStateCookie(w)

	q := r.URL.Query()
	if state == "" || q.Get("state") != state || q.Get("code") == "" {
		s.lg.Warnf("google redirect rejected: state mismatch or missing code")
		http.Redirect(w, r, s.signInURL("google"), http.StatusFound)

		return
	}

	profile, err := s.services.Google.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		s.lg.Errorf("google exchange error: %s", err.Error())
		http.Redirect(w, r, s.signInURL("google"), http.StatusFound)

		return
	}

	session, err := s.services.Auth.GoogleLogin(r.Context(), authservice.GoogleProfile{
		GoogleID:    profile.GoogleID,
		DisplayName: profile.DisplayName,
	})
	if err != nil {
		s.handleError(w, r, err)

		return
	}

	s.setAuthCookies(w, session.Tokens)
	http.Redirect(w, r, s.web.BaseURL, http.StatusFound)
}

func (s *Server) signInURL(reason string) string {
	return s.web.BaseURL + "/sign-in?" + url.Values{"error": {reason}}.Encode()
}

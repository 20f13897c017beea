package server

import (
	"net/http"
	"time"

	"github.com/Leopold1975/microblog/internal/microblog/services/authservice"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
	stateCookie   = "oauthState"

	statePath = "/api/auth/google"
	stateTTL  = 10 * time.Minute
)

func (s *Server) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{ //nolint:exhaustruct
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   s.auth.CookieDomain,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.auth.Production(),
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) setAuthCookies(w http.ResponseWriter, tokens authservice.Tokens) {
	http.SetCookie(w, s.cookie(accessCookie, tokens.Access, s.auth.AccessTTL))
	http.SetCookie(w, s.cookie(refreshCookie, tokens.Refresh, s.auth.RefreshTTL))
}

// clearAuthCookies expires both cookies; MaxAge -1 is sent as Max-Age=0.
func (s *Server) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{accessCookie, refreshCookie} {
		c := s.cookie(name, "", 0)
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		http.SetCookie(w, c)
	}
}

func (s *Server) setStateCookie(w http.ResponseWriter, state string) {
	c := s.cookie(stateCookie, state, stateTTL)
	c.Path = statePath
	http.SetCookie(w, c)
}

func (s *Server) clearStateCookie(w http.ResponseWriter) {
	c := s.cookie(stateCookie, "", 0)
	c.Path = statePath
	c.MaxAge = -1
	http.SetCookie(w, c)
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}

	return c.Value
}

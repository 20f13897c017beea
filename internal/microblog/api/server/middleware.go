package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/Leopold1975/microblog/internal/microblog/domain/models"
	"github.com/Leopold1975/microblog/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey struct{}

func loggingMiddleware(logg logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rr := httptest.NewRecorder()

			defer func() {
				logg.Infof("METHOD %s %s URI %s STATUS %d Latency %s Client IP %s User Agent %s Request ID %s",
					r.Method,
					r.Proto,
					r.URL.RequestURI(),
					rr.Code,
					time.Since(start).String(),
					r.RemoteAddr,
					r.UserAgent(),
					requestID(r),
				)
			}()

			next.ServeHTTP(rr, r)

			for k, v := range rr.Header() {
				w.Header()[k] = v
			}

			w.WriteHeader(rr.Code)

			if rr.Code >= 400 && rr.Code < 500 && rr.Body.Len() != 0 {
				logg.Debugf("client error: %s", rr.Body.String())
			}

			if _, err := rr.Body.WriteTo(w); err != nil {
				logg.Errorf("middleware write error: %v", err)
			}
		})
	}
}

// authenticate attaches the identity from a valid access cookie. Requests
// without one continue anonymously.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := cookieValue(r, accessCookie)
		if token == "" {
			next.ServeHTTP(w, r)

			return
		}

		u, err := s.services.Auth.VerifyAccess(token)
		if err != nil {
			next.ServeHTTP(w, r)

			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, u)))
	})
}

func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentUser(r); !ok {
			writeError(w, http.StatusUnauthorized, Error{Err: "Unauthorized"}) //nolint:exhaustruct

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.services.Limiter != nil && !s.services.Limiter.Allow(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, Error{Err: "Too many requests"}) //nolint:exhaustruct

			return
		}

		next.ServeHTTP(w, r)
	})
}

func currentUser(r *http.Request) (models.AuthUser, bool) {
	u, ok := r.Context().Value(ctxKey{}).(models.AuthUser)

	return u, ok
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}

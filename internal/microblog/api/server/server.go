package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Leopold1975/microblog/internal/microblog/domain/models"
	"github.com/Leopold1975/microblog/internal/microblog/services/authservice"
	"github.com/Leopold1975/microblog/internal/microblog/services/postservice"
	"github.com/Leopold1975/microblog/internal/microblog/services/tagservice"
	"github.com/Leopold1975/microblog/internal/microblog/services/userservice"
	"github.com/Leopold1975/microblog/internal/pkg/config"
	"github.com/Leopold1975/microblog/internal/pkg/googleauth"
	"github.com/Leopold1975/microblog/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type AuthService interface {
	SignUp(ctx context.Context, req authservice.SignUpRequest) (authservice.Session, error)
	SignIn(ctx context.Context, req authservice.SignInRequest) (authservice.Session, error)
	Refresh(ctx context.Context, refreshToken string) (authservice.Session, error)
	VerifyAccess(accessToken string) (models.AuthUser, error)
	Me(ctx context.Context, userID string) (models.AuthUser, error)
	GoogleLogin(ctx context.Context, profile authservice.GoogleProfile) (authservice.Session, error)
}

type PostService interface {
	ListPosts(ctx context.Context, req postservice.ListPostsRequest) (models.PostsPage, error)
	CreatePost(ctx context.Context, authorID string, req postservice.CreatePostRequest) (models.Post, error)
	UpdatePost(ctx context.Context, userID, postID string, req postservice.UpdatePostRequest) (models.Post, error)
	DeletePost(ctx context.Context, userID, postID string) error
}

type TagService interface {
	SearchTags(ctx context.Context, req tagservice.SearchRequest) ([]models.TagRef, error)
}

type UserService interface {
	SearchUsers(ctx context.Context, req userservice.SearchRequest) ([]models.UserWithColor, error)
}

type GoogleProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (googleauth.Profile, error)
}

type RateLimiter interface {
	Allow(key string) bool
}

// Services groups the server dependencies. Google may be nil when federated
// login is not configured; Limiter may be nil to disable rate limiting.
type Services struct {
	Auth    AuthService
	Posts   PostService
	Tags    TagService
	Users   UserService
	Google  GoogleProvider
	Limiter RateLimiter
}

type Server struct {
	serv     *http.Server
	services Services
	auth     config.Auth
	web      config.Web
	lg       logger.Logger
}

func New(cfg config.Config, services Services, lg logger.Logger) *Server {
	s := &Server{
		services: services,
		auth:     cfg.Auth,
		web:      cfg.Web,
		lg:       lg,
	}

	s.serv = &http.Server{ //nolint:exhaustruct
		Addr:         cfg.Server.Addr,
		Handler:      s.routes(cfg.CORS),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

func (s *Server) routes(corsCfg config.CORS) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware(s.lg))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{ //nolint:exhaustruct
		AllowedOrigins:   corsCfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300, //nolint:gomnd
	}))
	r.Use(s.authenticate)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(s.rateLimit).Post("/sign-up", s.SignUp)
			r.With(s.rateLimit).Post("/sign-in", s.SignIn)
			r.Post("/refresh", s.Refresh)
			r.Post("/sign-out", s.SignOut)
			r.With(requireAuth).Get("/me", s.Me)
			r.Get("/google/start", s.GoogleStart)
			r.Get("/google/redirect", s.GoogleRedirect)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", s.GetPosts)
			r.With(requireAuth).Post("/", s.CreatePost)
			r.With(requireAuth).Patch("/{id}", s.UpdatePost)
			r.With(requireAuth).Delete("/{id}", s.DeletePost)
		})

		r.Get("/tags", s.GetTags)
		r.Get("/users", s.GetUsers)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, Error{Err: "Not Found"}) //nolint:exhaustruct
	})

	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.serv.Handler
}

func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	s.lg.Infof("api server listening on %s", s.serv.Addr)

	select {
	case <-ctx.Done():
		ctxS, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
		defer cancel()

		if err := s.Shutdown(ctxS); err != nil { //nolint:contextcheck
			return fmt.Errorf("context error: %w server error %w", ctxS.Err(), err)
		}

		if !errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("context cancelled error: %w", ctx.Err())
		}

		return nil
	case err := <-errCh:
		if err == nil {
			return nil
		}

		return fmt.Errorf("listen and serve error: %w", err)
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.serv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown server error: %w", err)
	}

	return nil
}

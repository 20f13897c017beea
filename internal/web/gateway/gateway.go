// Package gateway serves the web frontend. It gates pages on the presence of
// a session, proxies /api/* to the API server and refreshes sessions on the
// server side when only a refresh cookie is left.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/Leopold1975/microblog/internal/pkg/config"
	"github.com/Leopold1975/microblog/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/singleflight"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"

	signInPath = "/sign-in"
	signUpPath = "/sign-up"

	refreshTimeout = 10 * time.Second
)

type Refresher interface {
	RefreshWith(ctx context.Context, refreshToken string) ([]*http.Cookie, error)
}

type Gateway struct {
	serv      *http.Server
	apiURL    *url.URL
	proxy     *httputil.ReverseProxy
	refresher Refresher
	group     singleflight.Group
	shell     *template.Template
	staticDir string
	lg        logger.Logger
}

func New(cfg config.Web, refresher Refresher, lg logger.Logger) (*Gateway, error) {
	apiURL, err := url.Parse(cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url error: %w", err)
	}

	g := &Gateway{
		apiURL:    apiURL,
		refresher: refresher,
		shell:     template.Must(template.New("shell").Parse(shellHTML)),
		staticDir: cfg.StaticDir,
		lg:        lg,
	}

	g.proxy = &httputil.ReverseProxy{ //nolint:exhaustruct
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(apiURL)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			lg.Errorf("proxy %s %s error: %s", r.Method, r.URL.Path, err.Error())
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"statusCode":502,"error":"Bad gateway"}`)) //nolint:errcheck
		},
	}

	g.serv = &http.Server{ //nolint:exhaustruct
		Addr:              cfg.Addr,
		Handler:           g.routes(),
		ReadHeaderTimeout: 10 * time.Second, //nolint:gomnd
	}

	return g, nil
}

func (g *Gateway) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Handle("/assets/*", http.FileServer(http.Dir(g.staticDir)))
	r.Get("/api/auth/google", g.googleLogin)
	r.Handle("/api/*", g.proxy)

	r.Get(signInPath, g.guestOnly)
	r.Get(signUpPath, g.guestOnly)
	r.Get("/*", g.page)

	return r
}

func (g *Gateway) Handler() http.Handler {
	return g.serv.Handler
}

func (g *Gateway) googleLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, g.apiURL.JoinPath("/api/auth/google/start").String(), http.StatusFound)
}

// guestOnly renders the auth pages, sending signed-in users home.
func (g *Gateway) guestOnly(w http.ResponseWriter, r *http.Request) {
	if hasCookie(r, accessCookie) || hasCookie(r, refreshCookie) {
		http.Redirect(w, r, "/", http.StatusFound)

		return
	}

	g.render(w, r)
}

func (g *Gateway) page(w http.ResponseWriter, r *http.Request) {
	switch {
	case hasCookie(r, accessCookie):
		g.render(w, r)
	case hasCookie(r, refreshCookie):
		cookies, err := g.refresh(r.Context(), cookieValue(r, refreshCookie))
		if err != nil {
			g.lg.Debugf("server side refresh failed: %v", err)
			clearSession(w)
			http.Redirect(w, r, signInPath, http.StatusFound)

			return
		}

		for _, c := range cookies {
			http.SetCookie(w, c)
		}

		g.render(w, r)
	default:
		http.Redirect(w, r, signInPath, http.StatusFound)
	}
}

// refresh coalesces concurrent refreshes of the same token into one API call.
func (g *Gateway) refresh(ctx context.Context, token string) ([]*http.Cookie, error) {
	v, err, shared := g.group.Do(token, func() (interface{}, error) {
		// detached: requests joining the flight must not fail when the first caller goes away
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		return g.refresher.RefreshWith(rctx, token)
	})
	if err != nil {
		return nil, fmt.Errorf("refresh error: %w", err)
	}

	if shared {
		g.lg.Debugf("refresh shared between concurrent requests")
	}

	cookies, _ := v.([]*http.Cookie)

	return cookies, nil
}

type shellData struct {
	Page      string
	RequestID string
}

func (g *Gateway) render(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	data := shellData{Page: r.URL.Path, RequestID: middleware.GetReqID(r.Context())}
	if err := g.shell.Execute(w, data); err != nil {
		g.lg.Errorf("render shell error: %s", err.Error())
	}
}

func (g *Gateway) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := g.serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	g.lg.Infof("web gateway listening on %s, api %s", g.serv.Addr, g.apiURL)

	select {
	case <-ctx.Done():
		ctxS, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
		defer cancel()

		if err := g.serv.Shutdown(ctxS); err != nil { //nolint:contextcheck
			return fmt.Errorf("shutdown gateway error: %w", err)
		}

		return nil
	case err := <-errCh:
		if err == nil {
			return nil
		}

		return fmt.Errorf("listen and serve error: %w", err)
	}
}

func hasCookie(r *http.Request, name string) bool {
	return cookieValue(r, name) != ""
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}

	return c.Value
}

func clearSession(w http.ResponseWriter) {
	for _, name := range []string{accessCookie, refreshCookie} {
		http.SetCookie(w, &http.Cookie{ //nolint:exhaustruct
			Name:     name,
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

package apiclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Leopold1975/microblog/pkg/apiclient"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	refreshes   atomic.Int32
	arrivals    sync.WaitGroup
	failRefresh bool
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("accessToken")
		if err != nil || c.Value != "fresh" {
			f.arrivals.Done()
			f.arrivals.Wait()

			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"statusCode":401,"error":"Unauthorized"}`))

			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{"user": map[string]string{"id": "u1", "name": "alice"}})
	})

	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, _ *http.Request) {
		f.refreshes.Add(1)
		time.Sleep(100 * time.Millisecond)

		if f.failRefresh {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		http.SetCookie(w, &http.Cookie{Name: "accessToken", Value: "fresh", Path: "/"}) //nolint:exhaustruct
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	return mux
}

func TestConcurrentRefreshIsCoalesced(t *testing.T) {
	const callers = 8

	api := &fakeAPI{} //nolint:exhaustruct
	api.arrivals.Add(callers)

	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	c, err := apiclient.New(srv.URL)
	require.NoError(t, err)

	var wg sync.WaitGroup

	errs := make([]error, callers)

	for i := range callers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			u, err := c.Me(context.Background())
			errs[i] = err

			if err == nil && u.Name != "alice" {
				errs[i] = assertErr("unexpected user " + u.Name)
			}
		}()
	}

	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, int32(1), api.refreshes.Load())
}

func TestFailedRefreshIsSessionExpired(t *testing.T) {
	api := &fakeAPI{failRefresh: true} //nolint:exhaustruct
	api.arrivals.Add(1)

	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	c, err := apiclient.New(srv.URL)
	require.NoError(t, err)

	_, err = c.Me(context.Background())
	require.ErrorIs(t, err, apiclient.ErrSessionExpired)
}

func TestAPIErrorDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"statusCode":400,"error":"Validation failed","fields":{"limit":"must be an integer"}}`))
	}))
	defer srv.Close()

	c, err := apiclient.New(srv.URL)
	require.NoError(t, err)

	_, err = c.ListPosts(context.Background(), apiclient.ListPostsParams{Limit: 5}) //nolint:exhaustruct
	require.Equal(t, http.StatusBadRequest, apiclient.StatusCode(err))

	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "must be an integer", apiErr.Fields["limit"])
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

// Package apiclient is a Go client for the microblog REST API. It keeps the
// auth cookies in a jar and, when a call fails with 401, refreshes the session
// once and retries. Concurrent callers share a single refresh request.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"

	"github.com/Leopold1975/microblog/internal/microblog/domain/models"
	"golang.org/x/sync/singleflight"
)

const refreshPath = "/api/auth/refresh"

var ErrSessionExpired = errors.New("session expired")

type APIError struct {
	StatusCode int               `json:"statusCode"`
	Message    string            `json:"error"`
	Fields     map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}

	return 0
}

type Client struct {
	baseURL string
	hc      *http.Client
	bare    *http.Client
	group   singleflight.Group
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar error: %w", err)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Jar: jar}, //nolint:exhaustruct
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.hc.Jar == nil {
		c.hc.Jar = jar
	}

	c.bare = &http.Client{Transport: c.hc.Transport, Timeout: c.hc.Timeout} //nolint:exhaustruct

	return c, nil
}

// Cookies returns the cookies the client would send to the API.
func (c *Client) Cookies() []*http.Cookie {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil
	}

	return c.hc.Jar.Cookies(u)
}

type AuthInput struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type authResponse struct {
	User models.AuthUser `json:"user"`
}

func (c *Client) SignUp(ctx context.Context, in AuthInput) (models.AuthUser, error) {
	var resp authResponse

	err := c.do(ctx, http.MethodPost, "/api/auth/sign-up", in, &resp, false)

	return resp.User, err
}

func (c *Client) SignIn(ctx context.Context, in AuthInput) (models.AuthUser, error) {
	var resp authResponse

	err := c.do(ctx, http.MethodPost, "/api/auth/sign-in", in, &resp, false)

	return resp.User, err
}

func (c *Client) SignOut(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/sign-out", nil, nil, false)
}

func (c *Client) Me(ctx context.Context) (models.AuthUser, error) {
	var resp authResponse

	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &resp, true)

	return resp.User, err
}

// Refresh rotates the session cookies. Concurrent calls share one request.
func (c *Client) Refresh(ctx context.Context) error {
	_, err, _ := c.group.Do(refreshPath, func() (interface{}, error) {
		return nil, c.do(ctx, http.MethodPost, refreshPath, nil, nil, false)
	})

	return err //nolint:wrapcheck
}

// RefreshWith exchanges the given refresh token for a new session on behalf
// of another client. The jar is not touched; the new cookies are returned.
func (c *Client) RefreshWith(ctx context.Context, refreshToken string) ([]*http.Cookie, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+refreshPath, nil)
	if err != nil {
		return nil, fmt.Errorf("new request error: %w", err)
	}

	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refreshToken}) //nolint:exhaustruct

	resp, err := c.bare.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)} //nolint:exhaustruct
	}

	return resp.Cookies(), nil
}

type ListPostsParams struct {
	AuthorIDs []string
	TagIDs    []string
	Limit     int
	Cursor    string
	Sort      models.SortOrder
}

func (p ListPostsParams) query() string {
	v := url.Values{}

	if len(p.AuthorIDs) != 0 {
		v.Set("authorIds", strings.Join(p.AuthorIDs, ","))
	}

	if len(p.TagIDs) != 0 {
		v.Set("tagIds", strings.Join(p.TagIDs, ","))
	}

	if p.Limit != 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}

	if p.Cursor != "" {
		v.Set("cursor", p.Cursor)
	}

	if p.Sort != "" {
		v.Set("sort", string(p.Sort))
	}

	if len(v) == 0 {
		return ""
	}

	return "?" + v.Encode()
}

func (c *Client) ListPosts(ctx context.Context, p ListPostsParams) (models.PostsPage, error) {
	var page models.PostsPage

	err := c.do(ctx, http.MethodGet, "/api/posts"+p.query(), nil, &page, true)

	return page, err
}

type PostInput struct {
	Content  *string  `json:"content,omitempty"`
	TagIDs   []string `json:"tagIds,omitempty"`
	TagNames []string `json:"tagNames,omitempty"`
}

func (c *Client) CreatePost(ctx context.Context, in PostInput) (models.PostResponse, error) {
	var p models.PostResponse

	err := c.do(ctx, http.MethodPost, "/api/posts", in, &p, true)

	return p, err
}

func (c *Client) UpdatePost(ctx context.Context, id string, in PostInput) (models.PostResponse, error) {
	var p models.PostResponse

	err := c.do(ctx, http.MethodPatch, "/api/posts/"+url.PathEscape(id), in, &p, true)

	return p, err
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/posts/"+url.PathEscape(id), nil, nil, true)
}

type SearchParams struct {
	Search string
	Limit  int
}

func (p SearchParams) query() string {
	v := url.Values{}

	if p.Search != "" {
		v.Set("search", p.Search)
	}

	if p.Limit != 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}

	if len(v) == 0 {
		return ""
	}

	return "?" + v.Encode()
}

func (c *Client) SearchTags(ctx context.Context, p SearchParams) ([]models.TagRef, error) {
	var resp struct {
		Items []models.TagRef `json:"items"`
	}

	err := c.do(ctx, http.MethodGet, "/api/tags"+p.query(), nil, &resp, true)

	return resp.Items, err
}

func (c *Client) SearchUsers(ctx context.Context, p SearchParams) ([]models.UserWithColor, error) {
	var resp struct {
		Items []models.UserWithColor `json:"items"`
	}

	err := c.do(ctx, http.MethodGet, "/api/users"+p.query(), nil, &resp, true)

	return resp.Items, err
}

// do sends the request. With retry set, a 401 triggers a shared refresh and
// one more attempt; a failed refresh is reported as ErrSessionExpired.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}, retry bool) error {
	var body []byte

	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal error: %w", err)
		}

		body = b
	}

	err := c.send(ctx, method, path, body, out)
	if !retry || StatusCode(err) != http.StatusUnauthorized {
		return err
	}

	if err := c.Refresh(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}

	return c.send(ctx, method, path, body, out)
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("new request error: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("do request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode} //nolint:exhaustruct
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		apiErr.StatusCode = resp.StatusCode

		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response error: %w", err)
	}

	return nil
}

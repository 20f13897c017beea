// Package googleauth runs the OAuth2 authorization code flow against Google
// and reads the signed-in account's profile.
package googleauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Leopold1975/microblog/internal/pkg/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const userInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

var ErrNoSubject = errors.New("userinfo has no subject")

type Profile struct {
	GoogleID    string
	Email       string
	DisplayName string
}

type Provider struct {
	oauth       *oauth2.Config
	userInfoURL string
}

type Option func(*Provider)

// WithEndpoints points the provider at non-Google servers.
func WithEndpoints(authURL, tokenURL, userInfo string) Option {
	return func(p *Provider) {
		p.oauth.Endpoint = oauth2.Endpoint{ //nolint:exhaustruct
			AuthURL:  authURL,
			TokenURL: tokenURL,
		}
		p.userInfoURL = userInfo
	}
}

func New(cfg config.Google, opts ...Option) *Provider {
	p := &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: userInfoURL,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Provider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token and fetches the profile.
func (p *Provider) Exchange(ctx context.Context, code string) (Profile, error) {
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("exchange code error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("new request error: %w", err)
	}

	resp, err := p.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("userinfo request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("userinfo status %d", resp.StatusCode) //nolint:goerr113
	}

	var info struct {
		Sub   string `json:"sub"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Profile{}, fmt.Errorf("decode userinfo error: %w", err)
	}

	if info.Sub == "" {
		return Profile{}, ErrNoSubject
	}

	return Profile{
		GoogleID:    info.Sub,
		Email:       info.Email,
		DisplayName: info.Name,
	}, nil
}

// NewState returns a random value for the OAuth2 state parameter.
func NewState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random error: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

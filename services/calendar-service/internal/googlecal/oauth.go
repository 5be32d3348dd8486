package googlecal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenPair is the result of the authorization-code exchange. RefreshToken is
// empty when the user had already granted access (Google only returns it on
// first consent).
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RefreshTokenStore is the credential lookup the token source reads from.
type RefreshTokenStore interface {
	Get(ctx context.Context, userID string) (string, bool, error)
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// OAuth performs the two Google OAuth grants the service needs: the one-time
// authorization-code exchange and the per-request refresh grant.
type OAuth struct {
	httpClient *http.Client
	cfg        OAuthConfig
	tokenURL   string
}

func NewOAuth(httpClient *http.Client, cfg OAuthConfig) *OAuth {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &OAuth{
		httpClient: httpClient,
		cfg:        cfg,
		tokenURL:   "https://oauth2.googleapis.com/token",
	}
}

func (o *OAuth) Exchange(ctx context.Context, code string) (TokenPair, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", o.cfg.ClientID)
	form.Set("client_secret", o.cfg.ClientSecret)
	form.Set("redirect_uri", o.cfg.RedirectURI)
	return o.postToken(ctx, form)
}

type refreshTokenSource struct {
	oauth *OAuth
	store RefreshTokenStore
}

// NewRefreshTokenSource adapts stored refresh tokens into per-request access
// tokens for the calendar client.
func NewRefreshTokenSource(oauth *OAuth, store RefreshTokenStore) TokenSource {
	return &refreshTokenSource{oauth: oauth, store: store}
}

func (s *refreshTokenSource) AccessToken(ctx context.Context, userID string) (string, error) {
	refreshToken, ok, err := s.store.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrUnauthorized
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", s.oauth.cfg.ClientID)
	form.Set("client_secret", s.oauth.cfg.ClientSecret)

	pair, err := s.oauth.postToken(ctx, form)
	if err != nil {
		return "", err
	}
	return pair.AccessToken, nil
}

func (o *OAuth) postToken(ctx context.Context, form url.Values) (TokenPair, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return TokenPair{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return TokenPair{}, err
	}
	defer resp.Body.Close()

	// Google answers a revoked refresh token with 400 invalid_grant, not 401.
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		return TokenPair{}, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return TokenPair{}, fmt.Errorf("google oauth: token endpoint returned %d", resp.StatusCode)
	}

	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return TokenPair{}, fmt.Errorf("google oauth: decode response: %w", err)
	}
	return TokenPair{AccessToken: body.AccessToken, RefreshToken: body.RefreshToken}, nil
}

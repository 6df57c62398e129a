// Package oauth implements the external provider clients behind social
// login. Only Google is wired today.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/careercompass/auth-service/internal/application/auth"
)

const (
	googleAuthEndpoint     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenEndpoint    = "https://oauth2.googleapis.com/token"
	googleUserInfoEndpoint = "https://www.googleapis.com/oauth2/v3/userinfo"
)

// GoogleClient handles the Google OAuth 2.0 authorization-code flow with
// PKCE.
type GoogleClient struct {
	clientID     string
	clientSecret string
	redirectURI  string
	httpClient   *http.Client

	authEndpoint     string
	tokenEndpoint    string
	userInfoEndpoint string
}

func NewGoogleClient(clientID, clientSecret, redirectURI string) *GoogleClient {
	return &GoogleClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		authEndpoint:     googleAuthEndpoint,
		tokenEndpoint:    googleTokenEndpoint,
		userInfoEndpoint: googleUserInfoEndpoint,
	}
}

func (c *GoogleClient) IsConfigured() bool {
	return c.clientID != "" && c.clientSecret != ""
}

// AuthURL returns the consent-screen URL for the given one-time state and
// PKCE challenge.
func (c *GoogleClient) AuthURL(state, codeChallenge string) string {
	params := url.Values{
		"client_id":             {c.clientID},
		"redirect_uri":          {c.redirectURI},
		"response_type":         {"code"},
		"scope":                 {"openid email profile"},
		"state":                 {state},
		"code_challenge":        {codeChallenge},
		"code_challenge_method": {"S256"},
	}
	return c.authEndpoint + "?" + params.Encode()
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	IDToken     string `json:"id_token,omitempty"`
}

type userInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Exchange trades the authorization code for tokens and fetches the user's
// profile in one step.
func (c *GoogleClient) Exchange(ctx context.Context, code, codeVerifier string) (auth.OAuthUserInfo, error) {
	tok, err := c.exchangeCode(ctx, code, codeVerifier)
	if err != nil {
		return auth.OAuthUserInfo{}, err
	}

	info, err := c.fetchUserInfo(ctx, tok.AccessToken)
	if err != nil {
		return auth.OAuthUserInfo{}, err
	}

	return auth.OAuthUserInfo{
		Subject:       info.Sub,
		Email:         strings.ToLower(info.Email),
		EmailVerified: info.EmailVerified,
		Name:          info.Name,
	}, nil
}

func (c *GoogleClient) exchangeCode(ctx context.Context, code, codeVerifier string) (*tokenResponse, error) {
	data := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"code":          {code},
		"code_verifier": {codeVerifier},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {c.redirectURI},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenEndpoint,
		strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange failed: status=%d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, errors.New("token response missing access_token")
	}
	return &tok, nil
}

func (c *GoogleClient) fetchUserInfo(ctx context.Context, accessToken string) (*userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoEndpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read userinfo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request failed: status=%d", resp.StatusCode)
	}

	var info userInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse userinfo: %w", err)
	}
	if info.Sub == "" {
		return nil, errors.New("invalid userinfo: missing sub")
	}
	return &info, nil
}

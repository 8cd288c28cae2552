package restapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"spacequest/internal/service"
)

// loginResponse mirrors POST /auth/login.
type loginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Login exchanges credentials for a bearer token. httpClient may be nil.
func Login(ctx context.Context, baseURL string, httpClient *http.Client, username, password string, opts ...Option) (*oauth2.Token, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("%w: username required", service.ErrValidation)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password required", service.ErrValidation)
	}

	c, err := NewWithHTTPClient(baseURL, httpClient, opts...)
	if err != nil {
		return nil, err
	}

	body := map[string]string{"username": strings.TrimSpace(username), "password": password}
	var res loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &res); err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, fmt.Errorf("login response carried no token")
	}

	tok := &oauth2.Token{AccessToken: res.Token, TokenType: "Bearer"}
	if res.ExpiresAt != nil {
		tok.Expiry = *res.ExpiresAt
	}
	return tok, nil
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	googleRevokeURL   = "https://oauth2.googleapis.com/revoke"
)

// DeviceCode is what the user needs to finish a device sign-in on another screen
type DeviceCode struct {
	VerificationURL string    `json:"verificationUrl"`
	UserCode        string    `json:"userCode"`
	Expires         time.Time `json:"expires"`
}

// PromptFunc shows the device code to the user. Returning an error aborts
// the sign-in as cancelled.
type PromptFunc func(ctx context.Context, code DeviceCode) error

// GoogleProvider signs in with the OAuth2 device authorization grant
type GoogleProvider struct {
	config      *oauth2.Config
	httpClient  *http.Client
	userInfoURL string
	revokeURL   string
	prompt      PromptFunc
	logger      *zap.Logger
}

// GoogleOption overrides provider defaults
type GoogleOption func(*GoogleProvider)

// WithEndpoints points the provider at alternative OAuth2 and userinfo URLs
func WithEndpoints(endpoint oauth2.Endpoint, userInfoURL, revokeURL string) GoogleOption {
	return func(p *GoogleProvider) {
		p.config.Endpoint = endpoint
		p.userInfoURL = userInfoURL
		p.revokeURL = revokeURL
	}
}

// WithHTTPClient sets the client used for every provider request
func WithHTTPClient(client *http.Client) GoogleOption {
	return func(p *GoogleProvider) {
		p.httpClient = client
	}
}

// NewGoogleProvider creates a Google provider from configuration
func NewGoogleProvider(cfg config.GoogleConfig, prompt PromptFunc, logger *zap.Logger, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoints.Google,
		},
		httpClient:  http.DefaultClient,
		userInfoURL: googleUserInfoURL,
		revokeURL:   googleRevokeURL,
		prompt:      prompt,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *GoogleProvider) SignIn(ctx context.Context) (*domain.UserInfo, string, error) {
	if p.config.ClientID == "" {
		return nil, "", fmt.Errorf("%w: client id not configured", ErrProviderUnavailable)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	da, err := p.config.DeviceAuth(ctx)
	if err != nil {
		return nil, "", classify(ctx, err)
	}

	code := DeviceCode{
		VerificationURL: da.VerificationURI,
		UserCode:        da.UserCode,
		Expires:         da.Expiry,
	}
	for _, prompt := range []PromptFunc{p.prompt, promptFromContext(ctx)} {
		if prompt == nil {
			continue
		}
		if err := prompt(ctx, code); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrSignInCancelled, err)
		}
	}

	tok, err := p.config.DeviceAccessToken(ctx, da)
	if err != nil {
		return nil, "", classify(ctx, err)
	}

	if raw, ok := tok.Extra("id_token").(string); ok && raw != "" {
		user, err := userFromIDToken(raw)
		if err == nil {
			return user, tok.AccessToken, nil
		}
		p.logger.Debug("Falling back to userinfo endpoint", zap.Error(err))
	}

	user, err := p.CurrentUser(ctx, tok.AccessToken)
	if err != nil {
		return nil, "", err
	}
	return user, tok.AccessToken, nil
}

type googleUserInfo struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

func (g googleUserInfo) toDomain() *domain.UserInfo {
	return &domain.UserInfo{
		ID:         g.Sub,
		Email:      g.Email,
		Name:       g.Name,
		GivenName:  g.GivenName,
		FamilyName: g.FamilyName,
		Photo:      g.Picture,
	}
}

func (p *GoogleProvider) CurrentUser(ctx context.Context, token string) (*domain.UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, ErrNotAuthenticated
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: userinfo status %d", ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	if info.Sub == "" {
		return nil, ErrNotAuthenticated
	}
	return info.toDomain(), nil
}

func (p *GoogleProvider) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return classify(ctx, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	// an already revoked token comes back as 400
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: revoke status %d", ErrProviderUnavailable, resp.StatusCode)
	}
	return nil
}

// userFromIDToken reads identity claims without verifying the signature. The
// token was received directly from the token endpoint over TLS.
func userFromIDToken(raw string) (*domain.UserInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("failed to parse id token: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.New("id token has no subject")
	}

	str := func(key string) string {
		s, _ := claims[key].(string)
		return s
	}

	return googleUserInfo{
		Sub:        sub,
		Email:      str("email"),
		Name:       str("name"),
		GivenName:  str("given_name"),
		FamilyName: str("family_name"),
		Picture:    str("picture"),
	}.toDomain(), nil
}

// classify maps OAuth2 and transport errors onto the sign-in sentinels
func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrSignInCancelled, err)
	}

	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		switch re.ErrorCode {
		case "access_denied", "expired_token":
			return fmt.Errorf("%w: %s", ErrSignInCancelled, re.ErrorCode)
		}
		if re.Response != nil && re.Response.StatusCode >= 500 {
			return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		return fmt.Errorf("google sign-in failed: %w", err)
	}

	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	return fmt.Errorf("google sign-in failed: %w", err)
}

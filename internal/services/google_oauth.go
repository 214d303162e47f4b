package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	"github.com/MForte-AI/character-dev-1225/internal/config"
	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

var ErrUnverifiedEmail = errors.New("google account email is not verified")

// GoogleIdentity is the verified subset of a Google id token.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

type GoogleOAuth interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (GoogleIdentity, *types.Account, error)
}

type googleOAuth struct {
	log      *logger.Logger
	cfg      *oauth2.Config
	clientID string
}

func NewGoogleOAuth(cfg *config.Config, log *logger.Logger) GoogleOAuth {
	return &googleOAuth{
		log: log.With("service", "GoogleOAuth"),
		cfg: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.OAuthRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		clientID: cfg.GoogleClientID,
	}
}

func (g *googleOAuth) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades the callback code for tokens and verifies the id token.
// The returned account is not persisted.
func (g *googleOAuth) Exchange(ctx context.Context, code string) (GoogleIdentity, *types.Account, error) {
	if strings.TrimSpace(code) == "" {
		return GoogleIdentity{}, nil, fmt.Errorf("missing authorization code")
	}
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		g.log.Warn("OAuth code exchange failed", "error", err)
		return GoogleIdentity{}, nil, fmt.Errorf("exchange code: %w", err)
	}
	rawID, _ := tok.Extra("id_token").(string)
	if rawID == "" {
		return GoogleIdentity{}, nil, fmt.Errorf("token response has no id_token")
	}
	payload, err := idtoken.Validate(ctx, rawID, g.clientID)
	if err != nil {
		return GoogleIdentity{}, nil, fmt.Errorf("validate id token: %w", err)
	}

	email, _ := payload.Claims["email"].(string)
	if strings.TrimSpace(email) == "" {
		return GoogleIdentity{}, nil, fmt.Errorf("google token missing email claim")
	}
	if verified, _ := payload.Claims["email_verified"].(bool); !verified {
		return GoogleIdentity{}, nil, ErrUnverifiedEmail
	}
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)

	identity := GoogleIdentity{
		Subject: payload.Subject,
		Email:   strings.ToLower(strings.TrimSpace(email)),
		Name:    strings.TrimSpace(name),
		Picture: strings.TrimSpace(picture),
	}
	scope, _ := tok.Extra("scope").(string)
	account := &types.Account{
		Type:              "oauth",
		Provider:          "google",
		ProviderAccountID: payload.Subject,
		AccessToken:       tok.AccessToken,
		RefreshToken:      tok.RefreshToken,
		IDToken:           rawID,
		ExpiresAt:         tok.Expiry.Unix(),
		TokenType:         tok.TokenType,
		Scope:             scope,
	}
	return identity, account, nil
}

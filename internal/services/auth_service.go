package services

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/memorylane/recall-service/internal/config"
	"github.com/memorylane/recall-service/internal/models"
)

// Authenticator verifies session tokens issued by the identity provider.
type Authenticator interface {
	Verify(ctx context.Context, token string) (*models.Identity, error)
	// SignInURL returns the provider page the browser is sent to; callback receives the code.
	SignInURL(callback string, signup bool) string
	ExchangeCode(ctx context.Context, code, state string) (string, error)
}

type casdoorAuthenticator struct {
	client *casdoorsdk.Client
	logger *slog.Logger
}

func NewCasdoorAuthenticator(cfg config.CasdoorConfig, logger *slog.Logger) Authenticator {
	if cfg.ClientID == "" || cfg.Certificate == "" {
		logger.Warn("Casdoor is not configured, every request will be unauthenticated")
		return &casdoorAuthenticator{logger: logger}
	}

	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.Organization,
		cfg.Application,
	)
	return &casdoorAuthenticator{client: client, logger: logger}
}

func (a *casdoorAuthenticator) Verify(ctx context.Context, token string) (*models.Identity, error) {
	if a.client == nil {
		return nil, ErrUnauthenticated
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := a.client.ParseJwtToken(token)
	if err != nil {
		a.logger.Debug("Rejected session token", "error", err)
		return nil, ErrUnauthenticated
	}

	identity := identityFromClaims(claims)
	if identity.Sub == "" {
		return nil, ErrUnauthenticated
	}
	return identity, nil
}

// identityFromClaims prefers the casdoor user id over the registered subject.
func identityFromClaims(claims *casdoorsdk.Claims) *models.Identity {
	identity := &models.Identity{
		Sub:   claims.User.Id,
		Name:  claims.User.DisplayName,
		Email: claims.User.Email,
	}
	if identity.Sub == "" {
		identity.Sub = claims.RegisteredClaims.Subject
	}
	if identity.Name == "" {
		identity.Name = claims.User.Name
	}
	return identity
}

func (a *casdoorAuthenticator) SignInURL(callback string, signup bool) string {
	if a.client == nil {
		return ""
	}
	if signup {
		return a.client.GetSignupUrl(true, callback)
	}
	return a.client.GetSigninUrl(callback)
}

func (a *casdoorAuthenticator) ExchangeCode(ctx context.Context, code, state string) (string, error) {
	if a.client == nil {
		return "", ErrIdentityNotConfigured
	}
	if code == "" {
		return "", ErrBadRequest
	}
	token, err := a.client.GetOAuthToken(code, state)
	if err != nil {
		return "", newUpstreamError("Casdoor", 0, err)
	}
	return token.AccessToken, nil
}

// SafeReturnPath keeps redirects on this origin; anything else falls back to "/".
func SafeReturnPath(returnTo string) string {
	if returnTo == "" || !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") {
		return "/"
	}
	u, err := url.Parse(returnTo)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	return returnTo
}

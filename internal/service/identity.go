// Package service contains the business logic layer.
//
// This file implements identity resolution: turning an optional bearer
// token and an optional client session id into the stable key that
// credits are tracked against.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/skrivly/creditgate/internal/authclient"
	"github.com/skrivly/creditgate/internal/domain"
)

// =============================================================================
// Interface Definition
// =============================================================================

// IdentityResolver derives a per-request identity.
type IdentityResolver interface {
	// Resolve produces an identity from the request's credentials.
	//
	// A bearer token that validates wins; otherwise a non-empty session
	// id produces an anonymous identity. With neither, the request is
	// rejected (EINVALID) rather than silently defaulted, since a shared
	// default key would pool every visitor into one ledger row.
	Resolve(ctx context.Context, bearerToken, sessionID string) (domain.Identity, error)
}

// =============================================================================
// Implementation
// =============================================================================

type identityResolver struct {
	verifier authclient.Verifier
	logger   *slog.Logger
}

// NewIdentityResolver creates an IdentityResolver backed by the auth backend.
func NewIdentityResolver(verifier authclient.Verifier, logger *slog.Logger) IdentityResolver {
	return &identityResolver{
		verifier: verifier,
		logger:   logger,
	}
}

func (r *identityResolver) Resolve(ctx context.Context, bearerToken, sessionID string) (domain.Identity, error) {
	const op = "identity.resolve"

	if token := strings.TrimSpace(bearerToken); token != "" {
		account, err := r.verifier.VerifyToken(ctx, token)
		if err == nil {
			return domain.Authenticated(account.ID, account.Email), nil
		}
		// An unusable token falls back to the anonymous path; only the
		// absence of any identity is a client error.
		r.logger.Debug("bearer token rejected, falling back to session id",
			"error", err,
		)
	}

	if sessionID = strings.TrimSpace(sessionID); sessionID != "" {
		return domain.Anonymous(sessionID), nil
	}

	return domain.Identity{}, domain.IdentityRequired(op)
}

// Package handler contains HTTP handlers for the credit gate service.
//
// This file implements the single feature-gating endpoint consumed by
// the UI before it invokes the AI-backed generation endpoints.
//
// Routes handled:
//   - POST /api/credits -> Credits (check or consume, depending on body)
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/skrivly/creditgate/internal/domain"
	"github.com/skrivly/creditgate/internal/service"
)

// maxBodySize caps the request body; the real payload is two fields.
const maxBodySize = 4 * 1024

// CreditsHandler handles credit status and consumption requests.
type CreditsHandler struct {
	identities service.IdentityResolver
	tiers      service.TierResolver
	credits    service.CreditService
	logger     *slog.Logger
}

// NewCreditsHandler creates a new CreditsHandler.
func NewCreditsHandler(
	identities service.IdentityResolver,
	tiers service.TierResolver,
	credits service.CreditService,
	logger *slog.Logger,
) *CreditsHandler {
	return &CreditsHandler{
		identities: identities,
		tiers:      tiers,
		credits:    credits,
		logger:     logger,
	}
}

// RegisterRoutes registers the credits route on the provided mux.
func (h *CreditsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("POST /api/credits", http.HandlerFunc(h.Credits))
}

type creditsRequest struct {
	Consume   bool   `json:"consume"`
	SessionID string `json:"sessionId"`
}

type creditsResponse struct {
	Allowed   bool   `json:"allowed"`
	Remaining int    `json:"remaining"`
	Limit     int    `json:"limit"`
	Tier      string `json:"tier,omitempty"`
	ResetAt   string `json:"resetAt,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Credits resolves the caller's identity and tier, then either reports
// the day's remaining allowance (consume=false) or atomically spends one
// credit (consume=true).
//
// Status codes:
//   - 200: status returned (check result or successful consume)
//   - 400: neither a valid bearer token nor a session id supplied
//   - 403: consume requested but the daily limit is spent
//   - 500: ledger storage failure
func (h *CreditsHandler) Credits(w http.ResponseWriter, r *http.Request) {
	const op = "credits.request"

	var req creditsRequest
	body := io.LimitReader(r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Request body must be valid JSON"))
		return
	}

	identity, err := h.identities.Resolve(r.Context(), bearerToken(r), req.SessionID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	tier := h.tiers.ResolveTier(r.Context(), identity)

	var status *domain.CreditStatus
	if req.Consume {
		status, err = h.credits.Consume(r.Context(), identity, tier)
	} else {
		status, err = h.credits.Check(r.Context(), identity, tier)
	}
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := creditsResponse{
		Allowed:   status.Allowed,
		Remaining: status.Remaining,
		Limit:     status.Limit,
		Tier:      string(status.Tier),
		ResetAt:   status.ResetAt.Format(time.RFC3339),
	}

	httpStatus := http.StatusOK
	if req.Consume && !status.Allowed {
		// Rejected consume carries the user-facing message; a plain
		// check against an exhausted allowance is still a 200.
		httpStatus = http.StatusForbidden
		resp.Error = exhaustedMessage(r.Header.Get("Accept-Language"))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode credits response", "error", err)
	}
}

// bearerToken extracts the token from an "Authorization: Bearer" header,
// or "" when absent.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

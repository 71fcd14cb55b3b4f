package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/skrivly/creditgate/internal/authclient"
	"github.com/skrivly/creditgate/internal/domain"
	"github.com/skrivly/creditgate/internal/repository"
	"github.com/skrivly/creditgate/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

type fakeVerifier struct{}

func (fakeVerifier) VerifyToken(_ context.Context, token string) (*authclient.Account, error) {
	if token == "tok-valid" {
		return &authclient.Account{ID: "acct-42", Email: "kund@example.se"}, nil
	}
	return nil, errors.New("invalid token")
}

// brokenCredits simulates a ledger storage failure behind the gate.
type brokenCredits struct{}

func (brokenCredits) Check(context.Context, domain.Identity, domain.Tier) (*domain.CreditStatus, error) {
	return nil, domain.Internal(errors.New("connection refused"), "credits.check", "failed to read credit usage")
}

func (brokenCredits) Consume(context.Context, domain.Identity, domain.Tier) (*domain.CreditStatus, error) {
	return nil, domain.Internal(errors.New("connection refused"), "credits.consume", "failed to consume credit")
}

// newTestHandler wires the real resolvers and gate over an in-memory ledger.
func newTestHandler() *CreditsHandler {
	logger := testLogger()
	return NewCreditsHandler(
		service.NewIdentityResolver(fakeVerifier{}, logger),
		service.NewTierResolver(nil, 0, logger),
		service.NewCreditService(repository.NewMemoryLedger(), domain.DefaultTierLimits(), logger),
		logger,
	)
}

func postCredits(t *testing.T, h *CreditsHandler, body string, header map[string]string) (*httptest.ResponseRecorder, creditsResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/credits", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var resp creditsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return rec, resp
}

func TestCredits_NoIdentity(t *testing.T) {
	h := newTestHandler()

	rec, resp := postCredits(t, h, `{"consume": false}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if resp.Error == "" {
		t.Error("expected an error message in the body")
	}
}

func TestCredits_MalformedBody(t *testing.T) {
	h := newTestHandler()

	rec, _ := postCredits(t, h, `{"consume": `, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestCredits_AnonymousCheck(t *testing.T) {
	h := newTestHandler()

	rec, resp := postCredits(t, h, `{"consume": false, "sessionId": "sess-1"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !resp.Allowed || resp.Remaining != 5 || resp.Limit != 5 {
		t.Errorf("expected (allowed, 5/5), got (%v, %d/%d)", resp.Allowed, resp.Remaining, resp.Limit)
	}
	if resp.Tier != "anonymous" {
		t.Errorf("expected tier anonymous, got %q", resp.Tier)
	}
	if resp.ResetAt == "" {
		t.Error("expected resetAt to be set")
	}
	if resp.Error != "" {
		t.Errorf("check should carry no error message, got %q", resp.Error)
	}
}

func TestCredits_AuthenticatedDefaultsToFree(t *testing.T) {
	h := newTestHandler()

	rec, resp := postCredits(t, h, `{"consume": false}`, map[string]string{
		"Authorization": "Bearer tok-valid",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if resp.Tier != "free" {
		t.Errorf("expected tier free, got %q", resp.Tier)
	}
	if resp.Limit != 20 || resp.Remaining != 20 {
		t.Errorf("expected 20/20, got %d/%d", resp.Remaining, resp.Limit)
	}
}

func TestCredits_InvalidBearerFallsBackToSession(t *testing.T) {
	h := newTestHandler()

	rec, resp := postCredits(t, h, `{"consume": false, "sessionId": "sess-1"}`, map[string]string{
		"Authorization": "Bearer tok-garbage",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if resp.Tier != "anonymous" {
		t.Errorf("expected anonymous tier via session fallback, got %q", resp.Tier)
	}
}

func TestCredits_ConsumeUntilExhausted(t *testing.T) {
	h := newTestHandler()
	body := `{"consume": true, "sessionId": "sess-1"}`

	// Five consumes succeed with remaining 4,3,2,1,0
	for i, wantRemaining := range []int{4, 3, 2, 1, 0} {
		rec, resp := postCredits(t, h, body, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("consume %d: expected 200, got %d", i+1, rec.Code)
		}
		if !resp.Allowed || resp.Remaining != wantRemaining {
			t.Errorf("consume %d: expected (allowed, remaining=%d), got (%v, %d)",
				i+1, wantRemaining, resp.Allowed, resp.Remaining)
		}
	}

	// The sixth consume is a 403 with a Swedish message by default
	rec, resp := postCredits(t, h, body, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if resp.Allowed || resp.Remaining != 0 {
		t.Errorf("expected (rejected, remaining=0), got (%v, %d)", resp.Allowed, resp.Remaining)
	}
	if !strings.Contains(resp.Error, "krediter") {
		t.Errorf("expected Swedish exhausted message, got %q", resp.Error)
	}

	// A plain check against the exhausted allowance is still a 200
	rec, resp = postCredits(t, h, `{"consume": false, "sessionId": "sess-1"}`, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("check should be 200 even when exhausted, got %d", rec.Code)
	}
	if resp.Allowed {
		t.Error("check should report allowed=false when exhausted")
	}
}

func TestCredits_ExhaustedMessageLocale(t *testing.T) {
	h := newTestHandler()
	body := `{"consume": true, "sessionId": "sess-en"}`

	for i := 0; i < 5; i++ {
		postCredits(t, h, body, nil)
	}

	rec, resp := postCredits(t, h, body, map[string]string{"Accept-Language": "en-US,en;q=0.9"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if !strings.Contains(resp.Error, "credits for today") {
		t.Errorf("expected English message for en Accept-Language, got %q", resp.Error)
	}
}

func TestCredits_IdentityIndependence(t *testing.T) {
	h := newTestHandler()

	for i := 0; i < 5; i++ {
		postCredits(t, h, `{"consume": true, "sessionId": "sess-a"}`, nil)
	}

	rec, resp := postCredits(t, h, `{"consume": true, "sessionId": "sess-b"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for untouched identity, got %d", rec.Code)
	}
	if resp.Remaining != 4 {
		t.Errorf("expected remaining 4, got %d", resp.Remaining)
	}
}

func TestCredits_LedgerFailure(t *testing.T) {
	logger := testLogger()
	h := NewCreditsHandler(
		service.NewIdentityResolver(fakeVerifier{}, logger),
		service.NewTierResolver(nil, 0, logger),
		brokenCredits{},
		logger,
	)

	rec, resp := postCredits(t, h, `{"consume": true, "sessionId": "sess-1"}`, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(resp.Error, "connection refused") {
		t.Errorf("internal details must not leak to the client: %q", resp.Error)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no header", "", ""},
		{"bearer token", "Bearer tok-abc", "tok-abc"},
		{"bearer with extra space", "Bearer  tok-abc", "tok-abc"},
		{"basic auth ignored", "Basic dXNlcjpwYXNz", ""},
		{"bare token ignored", "tok-abc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/credits", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := bearerToken(req); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"memberdesk/internal/jwttoken"
	"memberdesk/internal/m2m/idp"
	"memberdesk/internal/m2m/service"
	"memberdesk/internal/m2m/store"
	"memberdesk/internal/platform/metrics"
)

const signingKey = "test-signing-key"

var testMetrics = metrics.New()

func newRouter(t *testing.T) (*chi.Mux, string) {
	t.Helper()

	svc := service.New(store.NewInMemory(), idp.NewLocal())
	validator := jwttoken.NewValidator(signingKey)

	token, err := validator.Sign("staff@example.test", []string{"admin"}, time.Hour)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := chi.NewRouter()
	New(svc, logger, testMetrics, validator).Register(router)
	return router, token
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createClient(t *testing.T, router http.Handler, token, entityID string) (clientID, secret string) {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/entities/"+entityID+"/clients", token,
		map[string]any{"name": "eta-sync", "scopes": []string{"ETA.Read"}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating client, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Client struct {
			ID uuid.UUID `json:"client_id"`
		} `json:"client"`
		Credential struct {
			Secret string `json:"secret"`
		} `json:"credential"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp.Client.ID.String(), resp.Credential.Secret
}

func TestAuthRequired(t *testing.T) {
	router, _ := newRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/m2m/scopes", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer token, got %d", rec.Code)
	}
}

func TestScopeCatalog(t *testing.T) {
	router, token := newRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/m2m/scopes", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from catalog, got %d", rec.Code)
	}
	var resp struct {
		Scopes []string `json:"scopes"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode catalog: %v", err)
	}
	if len(resp.Scopes) == 0 {
		t.Fatal("expected a non-empty scope catalog")
	}
}

func TestCreateRevealsSecretExactlyOnce(t *testing.T) {
	router, token := newRouter(t)
	clientID, secret := createClient(t, router, token, uuid.NewString())
	if secret == "" {
		t.Fatal("expected a plaintext secret in the create response")
	}

	rec := doJSON(t, router, http.MethodGet, "/clients/"+clientID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching client, got %d", rec.Code)
	}
	if body := rec.Body.String(); strings.Contains(body, secret) {
		t.Fatal("secret must not appear in client reads")
	}
}

func TestCreateWithoutScopesReturns400(t *testing.T) {
	router, token := newRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/entities/"+uuid.NewString()+"/clients", token,
		map[string]any{"name": "eta-sync", "scopes": []string{}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty scopes, got %d: %s", rec.Code, rec.Body.String())
	}
	var errResp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if errResp.Error != "no_scopes" {
		t.Fatalf("expected no_scopes code, got %q", errResp.Error)
	}
}

func TestRotateIssuesDifferentSecret(t *testing.T) {
	router, token := newRouter(t)
	clientID, original := createClient(t, router, token, uuid.NewString())

	rec := doJSON(t, router, http.MethodPost, "/clients/"+clientID+"/rotate", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from rotate, got %d: %s", rec.Code, rec.Body.String())
	}
	var grant struct {
		Secret string `json:"secret"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&grant); err != nil {
		t.Fatalf("failed to decode grant: %v", err)
	}
	if grant.Secret == "" || grant.Secret == original {
		t.Fatal("rotation must issue a fresh secret")
	}
}

func TestDeactivateThenRotateReturns404(t *testing.T) {
	router, token := newRouter(t)
	clientID, _ := createClient(t, router, token, uuid.NewString())

	rec := doJSON(t, router, http.MethodPost, "/clients/"+clientID+"/deactivate", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from deactivate, got %d: %s", rec.Code, rec.Body.String())
	}

	// Repeat deactivation is a no-op, not an error.
	rec = doJSON(t, router, http.MethodPost, "/clients/"+clientID+"/deactivate", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from repeated deactivate, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/clients/"+clientID+"/rotate", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 rotating a deactivated client, got %d", rec.Code)
	}
}

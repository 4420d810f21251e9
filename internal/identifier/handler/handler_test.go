package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	docstore "memberdesk/internal/document/store"
	"memberdesk/internal/identifier/service"
	"memberdesk/internal/identifier/store"
	"memberdesk/internal/jwttoken"
	"memberdesk/internal/platform/metrics"
	"memberdesk/internal/registry"
)

const signingKey = "test-signing-key"

var testMetrics = metrics.New()

func newRouter(t *testing.T) (*chi.Mux, string) {
	t.Helper()

	kvk := registry.NewStubClient(registry.SourceKVK, 0)
	kvk.Seed("12345678", "Acme B.V.", "Actief", "NL")
	kvk.Seed("87654321", "Oud Holding B.V.", "Ontbonden", "NL")

	svc := service.New(store.NewInMemory(), docstore.NewInMemory(), registry.NewSet(kvk))
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

func TestAuthRequired(t *testing.T) {
	router, _ := newRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/identifiers/"+uuid.NewString(), "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer token, got %d", rec.Code)
	}
}

func TestSubmitAndLookupViaHandlers(t *testing.T) {
	router, token := newRouter(t)
	entityID := uuid.NewString()

	rec := doJSON(t, router, http.MethodPost, "/entities/"+entityID+"/identifiers", token,
		map[string]string{"type": "KVK", "value": "12345678", "country_code": "NL"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating identifier, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		ID               uuid.UUID `json:"id"`
		ValidationStatus string    `json:"validation_status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.ValidationStatus != "UNVALIDATED" {
		t.Fatalf("expected UNVALIDATED after submit, got %s", created.ValidationStatus)
	}

	rec = doJSON(t, router, http.MethodPost, "/identifiers/"+created.ID.String()+"/lookup", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from lookup, got %d: %s", rec.Code, rec.Body.String())
	}
	var validated struct {
		ValidationStatus string `json:"validation_status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&validated); err != nil {
		t.Fatalf("failed to decode lookup response: %v", err)
	}
	if validated.ValidationStatus != "VALIDATED" {
		t.Fatalf("expected VALIDATED after active lookup, got %s", validated.ValidationStatus)
	}
}

func TestSubmitMalformedValueReturns422(t *testing.T) {
	router, token := newRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/entities/"+uuid.NewString()+"/identifiers", token,
		map[string]string{"type": "KVK", "value": "12-34", "country_code": "NL"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for malformed value, got %d", rec.Code)
	}
	var errResp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if errResp.Error != "malformed_value" {
		t.Fatalf("expected malformed_value code, got %q", errResp.Error)
	}
}

func TestGetUnknownIdentifierReturns404(t *testing.T) {
	router, token := newRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/identifiers/"+uuid.NewString(), token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown identifier, got %d", rec.Code)
	}
}

func TestReconcileViaHandlers(t *testing.T) {
	router, token := newRouter(t)
	entityID := uuid.NewString()

	rec := doJSON(t, router, http.MethodPost, "/entities/"+entityID+"/identifiers", token,
		map[string]string{"type": "KVK", "value": "12345678", "country_code": "NL"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating identifier, got %d", rec.Code)
	}
	var created struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	rec = doJSON(t, router, http.MethodPost, "/identifiers/"+created.ID.String()+"/document", token,
		map[string]string{
			"file_name":                   "extract.pdf",
			"entered_company_name":        "Acme BV",
			"entered_registration_number": "1234.5678",
		})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 uploading document, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/identifiers/"+created.ID.String()+"/reconciliation", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from reconciliation, got %d: %s", rec.Code, rec.Body.String())
	}
	var result struct {
		Classification string `json:"classification"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode reconciliation: %v", err)
	}
	if result.Classification != "MATCH" {
		t.Fatalf("expected MATCH, got %s", result.Classification)
	}
}

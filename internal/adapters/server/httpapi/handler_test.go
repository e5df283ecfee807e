package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/hylla/sudsboard/internal/adapters/identity"
	"github.com/hylla/sudsboard/internal/adapters/server/common"
	"github.com/hylla/sudsboard/internal/adapters/storage/sqlite"
	"github.com/hylla/sudsboard/internal/app"
)

// newTestHandler builds the REST handler over an in-memory store.
func newTestHandler(t *testing.T, verifier *identity.JWT) http.Handler {
	t.Helper()
	repo, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	svc := app.NewService(repo.Store("madrid"), nil, func() time.Time { return now }, app.ServiceConfig{})
	handler, err := NewHandler(Config{Service: common.NewAppServiceAdapter(svc), JWT: verifier})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	return handler
}

// do sends one JSON request and records the response.
func do(t *testing.T, h http.Handler, method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// decode decodes one JSON response body into the requested type.
func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("Decode() error = %v; body=%s", err, rec.Body.String())
	}
	return out
}

// expectStatus fails the test when the response status differs.
func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body=%s", rec.Code, want, rec.Body.String())
	}
}

func TestHandlerRecordLifecycle(t *testing.T) {
	h := newTestHandler(t, nil)
	actor := map[string]string{identity.ActorHeader: "inspector-7"}

	expectStatus(t, do(t, h, http.MethodPost, "/taxonomy/categories", map[string]any{"name": "Limpieza"}, nil), http.StatusCreated)
	rec := do(t, h, http.MethodPost, "/taxonomy/activities", map[string]any{"category": "Limpieza", "name": "retirada de sedimentos"}, nil)
	expectStatus(t, rec, http.StatusCreated)
	if got := decode[nameBody](t, rec); got.Name != "Retirada de sedimentos" {
		t.Fatalf("expected capitalised name, got %q", got.Name)
	}

	rec = do(t, h, http.MethodPost, "/assets", map[string]any{"name": "Cuneta vegetada", "location_types": []string{"viario"}}, nil)
	expectStatus(t, rec, http.StatusCreated)
	asset := decode[common.Asset](t, rec)

	rec = do(t, h, http.MethodPut, "/records/applies", map[string]any{
		"asset_type_id": asset.ID,
		"category":      "Limpieza",
		"activity_name": "Retirada de sedimentos",
		"applies":       true,
	}, actor)
	expectStatus(t, rec, http.StatusOK)
	applied := decode[common.AppliesResult](t, rec)
	if !applied.Created || applied.Record == nil {
		t.Fatalf("expected created record, got %#v", applied)
	}
	if applied.Record.LastUpdatedBy != "inspector-7" {
		t.Fatalf("expected header actor attribution, got %q", applied.Record.LastUpdatedBy)
	}

	rec = do(t, h, http.MethodPatch, "/records/"+applied.Record.ID+"/fields", map[string]any{"field": "status", "value": "amarillo"}, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[common.Record](t, rec); got.Status != "amarillo" || got.ValidationStatus != "pending" {
		t.Fatalf("unexpected record after field update %#v", got)
	}

	rec = do(t, h, http.MethodPut, "/records/"+applied.Record.ID+"/validation", map[string]any{"status": "validated", "comment": "ok"}, actor)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[common.Record](t, rec); got.ValidationStatus != "validated" || got.ValidatedBy != "inspector-7" {
		t.Fatalf("unexpected record after validation %#v", got)
	}

	rec = do(t, h, http.MethodGet, "/assets/"+asset.ID+"/activities", nil, nil)
	expectStatus(t, rec, http.StatusOK)
	if items := decode[[]common.ResolvedActivity](t, rec); len(items) != 1 || items[0].IsDependent {
		t.Fatalf("unexpected resolved activities %#v", items)
	}

	rec = do(t, h, http.MethodGet, "/pivot?category=Limpieza", nil, nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"total":1`) {
		t.Fatalf("expected one counted record, got %s", rec.Body.String())
	}

	rec = do(t, h, http.MethodDelete, "/taxonomy/categories?name="+url.QueryEscape("Limpieza"), nil, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[common.CascadeResult](t, rec); got.RemovedRecords != 1 {
		t.Fatalf("expected cascade to remove one record, got %#v", got)
	}
}

func TestHandlerAssetsAndContracts(t *testing.T) {
	h := newTestHandler(t, nil)

	first := decode[common.Asset](t, do(t, h, http.MethodPost, "/assets", map[string]any{"name": "Aljibe"}, nil))
	second := decode[common.Asset](t, do(t, h, http.MethodPost, "/assets", map[string]any{"name": "Jardín de lluvia", "location_types": []string{"zona_verde"}}, nil))

	rec := do(t, h, http.MethodPost, "/assets/"+second.ID+"/move", map[string]any{"direction": "up"}, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[common.MoveResult](t, rec); !got.Moved {
		t.Fatal("expected move to report a swap")
	}
	listed := decode[[]common.Asset](t, do(t, h, http.MethodGet, "/assets", nil, nil))
	if len(listed) != 2 || listed[0].ID != second.ID || listed[1].ID != first.ID {
		t.Fatalf("unexpected order after move %#v", listed)
	}
	green := decode[[]common.Asset](t, do(t, h, http.MethodGet, "/assets?location=zona_verde,acera", nil, nil))
	if len(green) != 1 || green[0].ID != second.ID {
		t.Fatalf("unexpected filter result %#v", green)
	}

	rec = do(t, h, http.MethodPatch, "/assets/"+first.ID, map[string]any{"description": "Depósito enterrado"}, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[common.Asset](t, rec); got.Description != "Depósito enterrado" || got.Name != "Aljibe" {
		t.Fatalf("unexpected patched asset %#v", got)
	}
	expectStatus(t, do(t, h, http.MethodDelete, "/assets/"+first.ID, nil, nil), http.StatusNoContent)
	expectStatus(t, do(t, h, http.MethodGet, "/assets/"+first.ID, nil, nil), http.StatusNotFound)

	rec = do(t, h, http.MethodPost, "/contracts", map[string]any{"name": "Zonas verdes 2025", "responsible": "Dirección de Parques"}, nil)
	expectStatus(t, rec, http.StatusCreated)
	contract := decode[common.Contract](t, rec)
	rec = do(t, h, http.MethodPost, "/contracts", map[string]any{"name": "Zonas verdes 2025"}, nil)
	expectStatus(t, rec, http.StatusConflict)
	if env := decode[ErrorEnvelope](t, rec); env.Error.Code != common.CodeConflict {
		t.Fatalf("expected conflict code, got %#v", env)
	}

	rec = do(t, h, http.MethodGet, "/contracts/"+contract.ID+"/view?markdown=true", nil, nil)
	expectStatus(t, rec, http.StatusOK)
	view := decode[common.ContractView](t, rec)
	if view.Contract.Name != "Zonas verdes 2025" || len(view.Sections) != 0 || view.Markdown == "" {
		t.Fatalf("unexpected contract view %#v", view)
	}
	expectStatus(t, do(t, h, http.MethodDelete, "/contracts/"+contract.ID, nil, nil), http.StatusNoContent)
}

func TestHandlerErrorEnvelope(t *testing.T) {
	h := newTestHandler(t, nil)

	tests := []struct {
		name   string
		method string
		target string
		body   any
		status int
		code   string
	}{
		{"unknown asset", http.MethodGet, "/assets/missing", nil, http.StatusNotFound, common.CodeNotFound},
		{"unknown record", http.MethodPatch, "/records/missing/fields", map[string]any{"field": "comment", "value": "x"}, http.StatusNotFound, common.CodeNotFound},
		{"bad location", http.MethodPost, "/assets", map[string]any{"name": "Zanja", "location_types": []string{"tejado"}}, http.StatusBadRequest, common.CodeInvalidRequest},
		{"bad field", http.MethodPatch, "/records/r1/fields", map[string]any{"field": "color"}, http.StatusBadRequest, common.CodeInvalidRequest},
		{"bad direction", http.MethodPost, "/taxonomy/categories/move", map[string]any{"name": "Limpieza", "direction": "sideways"}, http.StatusBadRequest, common.CodeInvalidRequest},
		{"missing body field", http.MethodPost, "/contracts", map[string]any{"responsible": "nadie"}, http.StatusBadRequest, common.CodeInvalidRequest},
		{"completion off", http.MethodPost, "/drafts/asset-description", map[string]any{"name": "Zanja"}, http.StatusServiceUnavailable, common.CodeUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, tc.method, tc.target, tc.body, nil)
			expectStatus(t, rec, tc.status)
			env := decode[ErrorEnvelope](t, rec)
			if env.Error.Code != tc.code {
				t.Fatalf("code = %q, want %q", env.Error.Code, tc.code)
			}
			if env.Error.Message == "" {
				t.Fatal("expected error message")
			}
		})
	}
}

func TestHandlerBearerAuthentication(t *testing.T) {
	verifier, err := identity.NewJWT("municipal-secret")
	if err != nil {
		t.Fatalf("NewJWT() error = %v", err)
	}
	h := newTestHandler(t, verifier)
	token, err := verifier.Issue("tecnica-3", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	expectStatus(t, do(t, h, http.MethodPost, "/taxonomy/categories", map[string]any{"name": "Inspección"}, nil), http.StatusCreated)
	expectStatus(t, do(t, h, http.MethodPost, "/taxonomy/activities", map[string]any{"category": "Inspección", "name": "Visual"}, nil), http.StatusCreated)
	asset := decode[common.Asset](t, do(t, h, http.MethodPost, "/assets", map[string]any{"name": "Estanque"}, nil))

	rec := do(t, h, http.MethodPut, "/records/applies", map[string]any{
		"asset_type_id": asset.ID,
		"category":      "Inspección",
		"activity_name": "Visual",
		"applies":       true,
	}, map[string]string{"Authorization": "Bearer " + token, identity.ActorHeader: "ignored"})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[common.AppliesResult](t, rec); got.Record == nil || got.Record.LastUpdatedBy != "tecnica-3" {
		t.Fatalf("expected token subject attribution, got %#v", got)
	}

	for _, header := range []string{"Bearer nope", "Basic abc"} {
		rec = do(t, h, http.MethodGet, "/taxonomy", nil, map[string]string{"Authorization": header})
		expectStatus(t, rec, http.StatusUnauthorized)
		if env := decode[ErrorEnvelope](t, rec); env.Error.Code != "unauthorized" {
			t.Fatalf("unexpected envelope %#v", env)
		}
	}
}

func TestHandlerBearerWithoutVerifierIsRejected(t *testing.T) {
	h := newTestHandler(t, nil)
	expectStatus(t, do(t, h, http.MethodGet, "/taxonomy", nil, map[string]string{"Authorization": "Bearer abc"}), http.StatusUnauthorized)
}

func TestHandlerServesOpenAPI(t *testing.T) {
	h := newTestHandler(t, nil)
	rec := do(t, h, http.MethodGet, "/openapi.json", nil, nil)
	expectStatus(t, rec, http.StatusOK)
	for _, want := range []string{"list-assets", "set-applies", "contract-view"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("expected openapi document to mention %q", want)
		}
	}
}

func TestNewHandlerRequiresService(t *testing.T) {
	if _, err := NewHandler(Config{}); err == nil {
		t.Fatal("expected error for missing service")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" acera, ,viario ")
	if len(got) != 2 || got[0] != "acera" || got[1] != "viario" {
		t.Fatalf("splitList() = %#v", got)
	}
	if splitList("  ") != nil {
		t.Fatal("expected nil for blank input")
	}
}

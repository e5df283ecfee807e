// Package httpapi provides the REST HTTP adapter for the server surfaces.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/hylla/sudsboard/internal/adapters/identity"
	"github.com/hylla/sudsboard/internal/adapters/server/common"
	"github.com/hylla/sudsboard/internal/app"
)

// Config configures the REST adapter.
type Config struct {
	Service common.Service
	// JWT verifies bearer tokens. Nil disables bearer authentication.
	JWT     *identity.JWT
	Title   string
	Version string
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// statusError adapts ErrorEnvelope to huma.StatusError.
type statusError struct {
	status int
	ErrorEnvelope
}

func (e *statusError) GetStatus() int { return e.status }
func (e *statusError) Error() string  { return e.ErrorEnvelope.Error.Message }

// NewHandler constructs the versioned API router. Paths are relative to the mount point.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Service == nil {
		return nil, errors.New("httpapi: service is required")
	}
	title := strings.TrimSpace(cfg.Title)
	if title == "" {
		title = "sudsboard API"
	}
	version := strings.TrimSpace(cfg.Version)
	if version == "" {
		version = "dev"
	}

	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, validationContext(errs))
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}
		return newAPIError(status, "", msg, validationContext(errs))
	}

	router := chi.NewRouter()
	router.Use(actorMiddleware(cfg.JWT))

	hcfg := huma.DefaultConfig(title, version)
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)

	registerTaxonomy(api, cfg.Service)
	registerAssets(api, cfg.Service)
	registerContracts(api, cfg.Service)
	registerRecords(api, cfg.Service)
	registerViews(api, cfg.Service)
	registerDrafts(api, cfg.Service)
	return router, nil
}

// actorMiddleware attaches the caller identity from a bearer token or the actor header.
// Requests without either fall through to the configured actor provider.
func actorMiddleware(verifier *identity.JWT) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok, err := identity.FromRequest(r, verifier, app.ActorTypeUser)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, APIError{Code: "unauthorized", Message: "invalid credentials"})
				return
			}
			if ok {
				r = r.WithContext(app.WithActor(r.Context(), actor))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// newAPIError builds one huma status error in the shared envelope.
func newAPIError(status int, code, message string, context map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &statusError{
		status:        status,
		ErrorEnvelope: ErrorEnvelope{Error: APIError{Code: code, Message: message, Context: context}},
	}
}

// handleError maps one service error into the envelope.
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	status, code := common.Classify(err)
	if status == http.StatusInternalServerError {
		return newAPIError(status, code, "internal error", map[string]any{"error": err.Error()})
	}
	return newAPIError(status, code, err.Error(), nil)
}

// validationContext lists huma validation details when present.
func validationContext(errs []error) map[string]any {
	if len(errs) == 0 {
		return nil
	}
	details := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			details = append(details, err.Error())
		}
	}
	return map[string]any{"errors": details}
}

// defaultCodeForStatus picks the stable code for a bare status.
func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return common.CodeInvalidRequest
	case http.StatusNotFound:
		return common.CodeNotFound
	case http.StatusConflict:
		return common.CodeConflict
	case http.StatusInternalServerError:
		return common.CodeInternal
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

// writeJSONError writes an envelope outside huma, for middleware failures.
func writeJSONError(w http.ResponseWriter, status int, apiErr APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{Error: apiErr})
}

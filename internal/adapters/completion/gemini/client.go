package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/hylla/sudsboard/internal/app"
	"github.com/hylla/sudsboard/internal/domain"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// defaultTimeout bounds one completion call.
const defaultTimeout = 30 * time.Second

// Config configures the Gemini text completer.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// generator issues one generate-content call and returns the response text.
type generator interface {
	generate(ctx context.Context, model, prompt string) (string, error)
}

// Completer generates text through the Gemini API.
type Completer struct {
	gen     generator
	model   string
	timeout time.Duration
}

var _ app.TextCompleter = (*Completer)(nil)

// New constructs a completer backed by the Gemini API.
func New(ctx context.Context, cfg Config) (*Completer, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, domain.ValidationInputError{Field: "completion.api_key"}
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newCompleter(genaiGenerator{client: client}, cfg), nil
}

// newCompleter applies defaults around one generator.
func newCompleter(gen generator, cfg Config) *Completer {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Completer{gen: gen, model: model, timeout: timeout}
}

// Model returns the configured model name.
func (c *Completer) Model() string {
	return c.model
}

// Complete sends prompt and returns the trimmed generated text.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", domain.ValidationInputError{Field: "prompt"}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.gen.generate(ctx, c.model, prompt)
	if err != nil {
		return "", mapError(err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.ServiceError{HTTPStatus: http.StatusBadGateway, Message: "empty completion from " + c.model}
	}
	return text, nil
}

// mapError turns an upstream failure into a service error carrying its status.
func mapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return domain.ServiceError{HTTPStatus: apiErr.Code, Message: apiErr.Message, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ServiceError{HTTPStatus: http.StatusGatewayTimeout, Message: "completion timed out", Err: err}
	}
	return domain.ServiceError{Message: "completion failed", Err: err}
}

// genaiGenerator adapts the SDK client.
type genaiGenerator struct {
	client *genai.Client
}

// generate calls the models endpoint with one user turn.
func (g genaiGenerator) generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

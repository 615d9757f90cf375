package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/metalagman/committo/internal/config"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const (
	defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/"
	defaultGeminiModel    = "gemini-2.0-flash"
)

// Gemini talks to the Gemini API through the genai SDK.
type Gemini struct {
	settings   Settings
	apiKey     string
	keySource  config.Source
	timeout    time.Duration
	httpClient *http.Client
}

// NewGemini builds the Gemini backend.
func NewGemini(cfg config.Config, httpClient *http.Client) *Gemini {
	return &Gemini{
		settings: Settings{
			Provider: config.ProviderGemini,
			Model:    orDefault(cfg.Model, defaultGeminiModel),
			Endpoint: orDefault(cfg.Endpoint, defaultGeminiEndpoint),
		},
		apiKey:     cfg.APIKey,
		keySource:  cfg.APIKeySource,
		timeout:    cfg.RequestTimeout,
		httpClient: httpClient,
	}
}

func (g *Gemini) Name() string { return config.ProviderGemini }

func (g *Gemini) Config() Settings { return g.settings }

func (g *Gemini) Credential() (Credential, error) {
	key := strings.TrimSpace(g.apiKey)
	if key == "" {
		return Credential{}, &config.Error{
			Msg: "API key not found. Set it with 'committo env set api-key <key>' or the GEMINI_API_KEY environment variable",
		}
	}
	return Credential{Value: key, Source: g.keySource}, nil
}

func (g *Gemini) Submit(ctx context.Context, systemPrompt, diff string) (string, error) {
	cred, err := g.Credential()
	if err != nil {
		return "", err
	}

	cc := &genai.ClientConfig{
		APIKey:      cred.Value,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  g.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: g.settings.Endpoint},
	}
	if g.timeout > 0 {
		timeout := g.timeout
		cc.HTTPOptions.Timeout = &timeout
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return "", &APIError{Message: "create gemini client: " + err.Error()}
	}

	log.Debug().
		Str("provider", config.ProviderGemini).
		Str("model", g.settings.Model).
		Int("prompt_bytes", len(systemPrompt)).
		Int("diff_bytes", len(diff)).
		Msg("submitting generate content")

	resp, err := client.Models.GenerateContent(ctx, g.settings.Model, genai.Text(diff), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	})
	if err != nil {
		return "", classifyGemini(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &APIError{Message: "response contained no candidates"}
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", &APIError{Message: "response candidate contained no text"}
	}
	return text, nil
}

func classifyGemini(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return geminiAPIError(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return geminiAPIError(*apiErrPtr)
	}
	return classifyTransport(config.ProviderGemini, err)
}

func geminiAPIError(e genai.APIError) error {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = strings.TrimSpace(e.Status)
	}
	if msg == "" {
		msg = http.StatusText(e.Code)
	}
	return &APIError{Status: e.Code, Message: msg}
}

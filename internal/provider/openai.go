package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/metalagman/committo/internal/config"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
)

const (
	defaultOpenAIEndpoint = "https://api.openai.com/v1"
	defaultOpenAIModel    = "gpt-3.5-turbo"
	defaultOllamaEndpoint = "http://localhost:11434/v1"
	defaultOllamaModel    = "llama3.2"

	// ollama ignores the bearer token but the client always sends one.
	ollamaPlaceholderKey = "ollama"
)

// sourceNotRequired marks backends that run without a key.
const sourceNotRequired config.Source = "not required"

// OpenAI talks to the chat completions API of OpenAI or any compatible
// server, such as a local ollama.
type OpenAI struct {
	name        string
	settings    Settings
	apiKey      string
	keySource   config.Source
	keyOptional bool
	timeout     time.Duration
	httpClient  *http.Client
}

// NewOpenAI builds the default OpenAI backend.
func NewOpenAI(cfg config.Config, httpClient *http.Client) *OpenAI {
	return &OpenAI{
		name: config.ProviderOpenAI,
		settings: Settings{
			Provider: config.ProviderOpenAI,
			Model:    orDefault(cfg.Model, defaultOpenAIModel),
			Endpoint: chatBaseURL(orDefault(cfg.Endpoint, defaultOpenAIEndpoint)),
		},
		apiKey:     cfg.APIKey,
		keySource:  cfg.APIKeySource,
		timeout:    cfg.RequestTimeout,
		httpClient: httpClient,
	}
}

// NewOllama builds a backend for a local ollama server through its OpenAI
// compatible API.
func NewOllama(cfg config.Config, httpClient *http.Client) *OpenAI {
	p := NewOpenAI(cfg, httpClient)
	p.name = config.ProviderOllama
	p.keyOptional = true
	p.settings = Settings{
		Provider: config.ProviderOllama,
		Model:    orDefault(cfg.Model, defaultOllamaModel),
		Endpoint: chatBaseURL(orDefault(cfg.Endpoint, defaultOllamaEndpoint)),
	}
	return p
}

func (p *OpenAI) Name() string { return p.name }

func (p *OpenAI) Config() Settings { return p.settings }

func (p *OpenAI) Credential() (Credential, error) {
	key := strings.TrimSpace(p.apiKey)
	if key != "" {
		return Credential{Value: key, Source: p.keySource}, nil
	}
	if p.keyOptional {
		return Credential{Source: sourceNotRequired}, nil
	}
	return Credential{}, &config.Error{
		Msg: "API key not found. Set it with 'committo env set api-key <key>' or the OPENAI_API_KEY environment variable",
	}
}

func (p *OpenAI) Submit(ctx context.Context, systemPrompt, diff string) (string, error) {
	cred, err := p.Credential()
	if err != nil {
		return "", err
	}
	key := cred.Value
	if key == "" {
		key = ollamaPlaceholderKey
	}

	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithBaseURL(p.settings.Endpoint),
		option.WithMaxRetries(0),
	}
	if p.timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(p.timeout))
	}
	if p.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(p.httpClient))
	}
	client := openai.NewClient(opts...)

	log.Debug().
		Str("provider", p.name).
		Str("model", p.settings.Model).
		Str("endpoint", p.settings.Endpoint).
		Int("prompt_bytes", len(systemPrompt)).
		Int("diff_bytes", len(diff)).
		Msg("submitting chat completion")

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.settings.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(diff),
		},
	})
	if err != nil {
		return "", classifyOpenAI(p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", &APIError{Message: "response contained no choices"}
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", &APIError{Message: "response choice contained no message content"}
	}
	return content, nil
}

func classifyOpenAI(backend string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := strings.TrimSpace(apiErr.Message)
		if msg == "" {
			msg = strings.TrimSpace(apiErr.RawJSON())
		}
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return &APIError{Status: apiErr.StatusCode, Message: msg}
	}
	return classifyTransport(backend, err)
}

// chatBaseURL accepts both a base URL and the full chat completions URL
// older configurations stored.
func chatBaseURL(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	endpoint = strings.TrimSuffix(endpoint, "/")
	endpoint = strings.TrimSuffix(endpoint, "/chat/completions")
	return endpoint
}

func orDefault(value, def string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return def
}

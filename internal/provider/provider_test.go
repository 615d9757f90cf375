package provider

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/metalagman/committo/internal/config"
	"github.com/metalagman/committo/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingProvider records calls and fails Credential on demand.
type countingProvider struct {
	Mock
	credErr     error
	credentials int
}

func (c *countingProvider) Credential() (Credential, error) {
	c.credentials++
	if c.credErr != nil {
		return Credential{}, c.credErr
	}
	return Credential{Value: "sk-abcdefgh", Source: config.SourceFile}, nil
}

func (c *countingProvider) Config() Settings {
	return Settings{Provider: "openai", Model: "gpt-3.5-turbo", Endpoint: "https://api.openai.com/v1"}
}

func TestGenerate_DryRunWritesPreviewWithoutSubmitting(t *testing.T) {
	t.Parallel()

	p := &countingProvider{}
	var out bytes.Buffer
	req := Request{
		Prompt: prompt.Build("1. Use Korean", 1),
		Diff:   "diff --git a/main.go b/main.go\n+fmt.Println()\n",
		DryRun: true,
	}

	res, err := Generate(context.Background(), p, req, Preview{Out: &out, Config: config.Config{CandidateCount: 1}})
	require.NoError(t, err)
	assert.Equal(t, DryRunComplete, res)
	assert.Equal(t, 1, p.credentials)
	assert.Zero(t, p.Calls())

	want := "--- Dry Run ---\n" +
		"--- Configuration ---\n" +
		"LLM Provider : \"openai\"\n" +
		"LLM Model : \"gpt-3.5-turbo\"\n" +
		"Endpoint : \"https://api.openai.com/v1\"\n" +
		"Api Key : \"sk-ab******\" (masked)\n" +
		"Api Key Source : config file\n" +
		"Candidate Count : 1\n" +
		"\n--- Prompt ---\n" +
		req.Prompt.Render() +
		"\n\n--- Git Diff ---\n" +
		req.Diff +
		"--- End Dry Run ---\n"
	assert.Equal(t, want, out.String())
}

func TestGenerate_CredentialCheckedBeforeDryRun(t *testing.T) {
	t.Parallel()

	p := &countingProvider{credErr: &config.Error{Msg: "API key not found"}}
	var out bytes.Buffer

	_, err := Generate(context.Background(), p, Request{Prompt: prompt.Build("", 1), DryRun: true}, Preview{Out: &out})
	var cfgErr *config.Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Empty(t, out.String())
	assert.Zero(t, p.Calls())
}

func TestGenerate_LiveSubmitsOnce(t *testing.T) {
	t.Parallel()

	p := &countingProvider{Mock: Mock{Response: "fix: bug"}}
	res, err := Generate(context.Background(), p, Request{Prompt: prompt.Build("", 1), Diff: "d"}, Preview{})
	require.NoError(t, err)
	assert.Equal(t, "fix: bug", res)
	assert.Equal(t, 1, p.Calls())
	assert.Equal(t, []string{prompt.BaseInstruction}, p.Prompts())
	assert.Equal(t, []string{"d"}, p.Diffs())
}

func TestGenerate_PropagatesSubmitError(t *testing.T) {
	t.Parallel()

	p := &countingProvider{Mock: Mock{Err: &APIError{Status: 500, Message: "boom"}}}
	_, err := Generate(context.Background(), p, Request{Prompt: prompt.Build("", 1), Diff: "d"}, Preview{})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "API Error: status 500: boom", err.Error())
}

func TestMock_ExpandsRequestedCandidates(t *testing.T) {
	t.Parallel()

	m := NewMock("feat: thing")
	out, err := m.Submit(context.Background(), prompt.Build("", 3).Render(), "diff")
	require.NoError(t, err)
	assert.Equal(t, "feat: thing #1\nfeat: thing #2\nfeat: thing #3", out)

	m = &Mock{Responses: []string{"first", "second"}}
	for _, want := range []string{"first", "second", "second"} {
		got, err := m.Submit(context.Background(), prompt.BaseInstruction, "diff")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 3, m.Calls())
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		provider string
		wantName string
	}{
		{provider: "", wantName: config.ProviderOpenAI},
		{provider: "openai", wantName: config.ProviderOpenAI},
		{provider: "OLLAMA", wantName: config.ProviderOllama},
		{provider: "gemini", wantName: config.ProviderGemini},
		{provider: "mock", wantName: config.ProviderMock},
		{provider: "claude-next", wantName: config.ProviderOpenAI},
	}
	for _, tt := range tests {
		p := New(config.Config{Provider: tt.provider})
		assert.Equal(t, tt.wantName, p.Name(), "provider %q", tt.provider)
	}

	p := New(config.Config{Provider: "openai"})
	assert.Equal(t, Settings{
		Provider: config.ProviderOpenAI,
		Model:    defaultOpenAIModel,
		Endpoint: defaultOpenAIEndpoint,
	}, p.Config())
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "API Error: unexpected body", (&APIError{Message: "unexpected body"}).Error())

	inner := errors.New("connection refused")
	netErr := &NetworkError{Err: inner}
	assert.Equal(t, "Network Error: connection refused", netErr.Error())
	assert.ErrorIs(t, netErr, inner)
}

package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/metalagman/committo/internal/config"
	"github.com/metalagman/committo/internal/prompt"
)

// DefaultMockResponse is what the mock backend answers when nothing else is
// configured.
const DefaultMockResponse = "feat: mock commit message"

// Mock is a deterministic backend for tests and offline runs.
//
// Responses are returned in order and the last one repeats; an empty list
// means Response. When the prompt asks for N options each answer is expanded
// to N numbered lines "<answer> #i". Err, when set, fails every submission.
type Mock struct {
	Response  string
	Responses []string
	Err       error

	mu      sync.Mutex
	calls   int
	prompts []string
	diffs   []string
}

// NewMock returns a mock that always answers response.
func NewMock(response string) *Mock {
	return &Mock{Response: response}
}

func (m *Mock) Name() string { return config.ProviderMock }

func (m *Mock) Config() Settings {
	return Settings{Provider: config.ProviderMock, Model: config.ProviderMock}
}

func (m *Mock) Credential() (Credential, error) {
	return Credential{Value: "mock-key", Source: sourceNotRequired}, nil
}

func (m *Mock) Submit(_ context.Context, systemPrompt, diff string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.calls
	m.calls++
	m.prompts = append(m.prompts, systemPrompt)
	m.diffs = append(m.diffs, diff)

	if m.Err != nil {
		return "", m.Err
	}

	answer := m.Response
	if len(m.Responses) > 0 {
		answer = m.Responses[min(idx, len(m.Responses)-1)]
	}
	if answer == "" {
		answer = DefaultMockResponse
	}

	n, ok := prompt.CandidateCount(systemPrompt)
	if !ok {
		return answer, nil
	}
	lines := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		lines = append(lines, fmt.Sprintf("%s #%d", answer, i))
	}
	return strings.Join(lines, "\n"), nil
}

// Calls returns how many times Submit ran.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Prompts returns the system prompts received, in order.
func (m *Mock) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Diffs returns the diffs received, in order.
func (m *Mock) Diffs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.diffs...)
}

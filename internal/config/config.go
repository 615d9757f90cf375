// Package config provides configuration loading and management for committo.
package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	// FileName is the configuration file stored in the user's home directory.
	FileName = ".committo.toml"
	// LegacyFileName is the dotenv style file older releases wrote.
	LegacyFileName = ".committorc"
)

// Config keys as they appear in the TOML file.
const (
	KeyAPIKey         = "api-key"
	KeyCandidateCount = "candidate-count"
	KeyProvider       = "llm-provider"
	KeyModel          = "llm-model"
	KeyEndpoint       = "endpoint"
	KeyRequestTimeout = "request-timeout"
)

// Provider identifiers accepted by llm-provider.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)

const (
	DefaultProvider       = ProviderOpenAI
	DefaultCandidateCount = 1
)

// Keys lists every settable key in display order.
var Keys = []string{KeyAPIKey, KeyCandidateCount, KeyProvider, KeyModel, KeyEndpoint, KeyRequestTimeout}

// Source describes where a value was resolved from.
type Source string

const (
	SourceNone   Source = ""
	SourceFile   Source = "config file"
	SourceLegacy Source = "legacy .committorc file"
	SourceFlag   Source = "command-line flag"
)

// SourceEnv returns the source for a value read from the named variable.
func SourceEnv(name string) Source {
	return Source("environment variable " + name)
}

// String renders the source for display; an empty source means none found.
func (s Source) String() string {
	if s == SourceNone {
		return "none found"
	}
	return string(s)
}

// Config is the root configuration threaded through the pipeline.
type Config struct {
	APIKey         string        `mapstructure:"api-key"`
	CandidateCount int           `mapstructure:"candidate-count"`
	Provider       string        `mapstructure:"llm-provider"`
	Model          string        `mapstructure:"llm-model"`
	Endpoint       string        `mapstructure:"endpoint"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`

	// APIKeySource records where APIKey came from.
	APIKeySource Source `mapstructure:"-"`
}

// Default returns the configuration used when nothing is stored.
func Default() Config {
	return Config{
		CandidateCount: DefaultCandidateCount,
		Provider:       DefaultProvider,
	}
}

// Candidates returns the effective candidate count; values below one mean one.
func (c Config) Candidates() int {
	if c.CandidateCount < 1 {
		return 1
	}
	return c.CandidateCount
}

// Error is a configuration failure: a missing or invalid credential or a
// malformed stored configuration.
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Configuration Error: %s: %v", e.Msg, e.Err)
	}
	return "Configuration Error: " + e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MaskAPIKey shows the first five characters and replaces the rest with '*'.
// Keys shorter than five characters are fully masked.
func MaskAPIKey(key string) string {
	runes := []rune(key)
	if len(runes) < 5 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:5]) + strings.Repeat("*", len(runes)-5)
}

// Masked renders the configuration block shown by dry runs and env show.
// The API key is always masked.
func (c Config) Masked() string {
	var b strings.Builder
	b.WriteString("--- Configuration ---\n")
	if c.Provider != "" {
		fmt.Fprintf(&b, "LLM Provider : %q\n", c.Provider)
	}
	if c.Model != "" {
		fmt.Fprintf(&b, "LLM Model : %q\n", c.Model)
	}
	if c.Endpoint != "" {
		fmt.Fprintf(&b, "Endpoint : %q\n", c.Endpoint)
	}
	if c.APIKey != "" {
		fmt.Fprintf(&b, "Api Key : %q (masked)\n", MaskAPIKey(c.APIKey))
	}
	fmt.Fprintf(&b, "Api Key Source : %s\n", c.APIKeySource)
	if c.CandidateCount > 0 {
		fmt.Fprintf(&b, "Candidate Count : %d\n", c.CandidateCount)
	}
	if c.RequestTimeout > 0 {
		fmt.Fprintf(&b, "Request Timeout : %s\n", c.RequestTimeout)
	}
	return b.String()
}

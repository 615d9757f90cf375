package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// fileConfig is the on-disk TOML layout. Only set values are written.
type fileConfig struct {
	APIKey         string `toml:"api-key,omitempty"`
	CandidateCount *int   `toml:"candidate-count,omitempty"`
	Provider       string `toml:"llm-provider,omitempty"`
	Model          string `toml:"llm-model,omitempty"`
	Endpoint       string `toml:"endpoint,omitempty"`
	RequestTimeout string `toml:"request-timeout,omitempty"`
}

// keyAliases accepts the spellings older releases and the README used.
var keyAliases = map[string]string{
	"openai-api":     KeyAPIKey,
	"openai-api-key": KeyAPIKey,
	"apikey":         KeyAPIKey,
	"provider":       KeyProvider,
	"model":          KeyModel,
	"timeout":        KeyRequestTimeout,
}

// NormalizeKey maps user input such as CANDIDATE_COUNT or OPENAI_API to a
// config key. It returns an error naming the valid keys for unknown input.
func NormalizeKey(key string) (string, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.ReplaceAll(k, "_", "-")
	if alias, ok := keyAliases[k]; ok {
		return alias, nil
	}
	for _, known := range Keys {
		if k == known {
			return k, nil
		}
	}
	return "", &Error{Msg: fmt.Sprintf("invalid config key '%s'. Valid keys are: %s", key, strings.Join(Keys, ", "))}
}

// ParsePair splits KEY=VALUE, trimming surrounding quotes from the value.
func ParsePair(pair string) (string, string, error) {
	key, value, ok := strings.Cut(pair, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return "", "", &Error{Msg: fmt.Sprintf("invalid format %q, expected KEY=VALUE", pair)}
	}
	value = strings.TrimSpace(value)
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
	}
	return strings.TrimSpace(key), value, nil
}

// Set updates a single key in the TOML file at path, creating it if needed.
// It returns the normalized key that was written.
func Set(path, key, value string) (string, error) {
	k, err := NormalizeKey(key)
	if err != nil {
		return "", err
	}
	fc, err := readFile(path)
	if err != nil {
		return "", err
	}
	if err := fc.set(k, strings.TrimSpace(value)); err != nil {
		return "", err
	}
	if err := writeFile(path, fc); err != nil {
		return "", err
	}
	return k, nil
}

// Show writes the stored configuration with the API key masked.
func Show(w io.Writer, path string) error {
	ok, err := fileExists(path)
	if err != nil {
		return err
	}
	if !ok {
		_, err := fmt.Fprintf(w, "No configuration file found at %s.\n", path)
		return err
	}
	fc, err := readFile(path)
	if err != nil {
		return err
	}
	cfg := Config{
		APIKey:   fc.APIKey,
		Provider: fc.Provider,
		Model:    fc.Model,
		Endpoint: fc.Endpoint,
	}
	if fc.APIKey != "" {
		cfg.APIKeySource = SourceFile
	}
	if fc.CandidateCount != nil {
		cfg.CandidateCount = *fc.CandidateCount
	}
	if fc.RequestTimeout != "" {
		if d, err := time.ParseDuration(fc.RequestTimeout); err == nil {
			cfg.RequestTimeout = d
		}
	}
	if _, err := fmt.Fprintf(w, "Configuration file: %s\n", path); err != nil {
		return err
	}
	_, err = io.WriteString(w, cfg.Masked())
	return err
}

func (fc *fileConfig) set(key, value string) error {
	switch key {
	case KeyAPIKey:
		fc.APIKey = value
	case KeyCandidateCount:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return &Error{Msg: "candidate-count must be a number", Err: err}
		}
		fc.CandidateCount = &n
	case KeyProvider:
		fc.Provider = strings.ToLower(value)
	case KeyModel:
		fc.Model = value
	case KeyEndpoint:
		fc.Endpoint = value
	case KeyRequestTimeout:
		if _, err := time.ParseDuration(value); err != nil {
			return &Error{Msg: "request-timeout must be a duration such as 30s", Err: err}
		}
		fc.RequestTimeout = value
	}
	return nil
}

func readFile(path string) (fileConfig, error) {
	var fc fileConfig
	ok, err := fileExists(path)
	if err != nil || !ok {
		return fc, err
	}
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fileConfig{}, &Error{Msg: fmt.Sprintf("parse %s", path), Err: err}
	}
	return fc, nil
}

func writeFile(path string, fc fileConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if err := toml.NewEncoder(f).Encode(fc); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

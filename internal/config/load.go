package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// LoadOptions configures Load. All fields are optional.
type LoadOptions struct {
	// Path is the TOML config file; a missing file is not an error.
	Path string
	// LegacyPath is the dotenv file older releases wrote; a missing file is not an error.
	LegacyPath string
	// Env is the environment as KEY=VALUE pairs. Nothing is read from the
	// process environment directly.
	Env []string
}

// envKeys maps COMMITTO_* variables to config keys.
var envKeys = map[string]string{
	"COMMITTO_API_KEY":         KeyAPIKey,
	"COMMITTO_CANDIDATE_COUNT": KeyCandidateCount,
	"COMMITTO_LLM_PROVIDER":    KeyProvider,
	"COMMITTO_LLM_MODEL":       KeyModel,
	"COMMITTO_ENDPOINT":        KeyEndpoint,
	"COMMITTO_REQUEST_TIMEOUT": KeyRequestTimeout,
}

// legacyKeys maps variables found in the legacy rc file to config keys.
// When several names map to the same key the first one present wins.
var legacyKeys = []struct {
	name string
	key  string
}{
	{name: "OPENAI_API", key: KeyAPIKey},
	{name: "OPENAI_API_KEY", key: KeyAPIKey},
	{name: "API_KEY", key: KeyAPIKey},
	{name: "LLM_PROVIDER", key: KeyProvider},
	{name: "LLM_MODEL", key: KeyModel},
	{name: "CANDIDATE_COUNT", key: KeyCandidateCount},
}

// providerKeyEnv lists the provider specific variables consulted when no
// api-key is configured, in lookup order.
var providerKeyEnv = map[string][]string{
	ProviderOpenAI: {"OPENAI_API_KEY", "OPENAI_API"},
	ProviderGemini: {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

// Load resolves configuration with precedence
// defaults < config file < legacy rc file < COMMITTO_* env < provider key env.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetDefault(KeyCandidateCount, DefaultCandidateCount)
	v.SetDefault(KeyProvider, DefaultProvider)

	keySource := SourceNone

	if opts.Path != "" {
		ok, err := fileExists(opts.Path)
		if err != nil {
			return Config{}, err
		}
		if ok {
			v.SetConfigFile(opts.Path)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, &Error{Msg: fmt.Sprintf("read %s", opts.Path), Err: err}
			}
			if v.GetString(KeyAPIKey) != "" {
				keySource = SourceFile
			}
			log.Debug().Str("path", opts.Path).Msg("loaded config file")
		}
	}

	if opts.LegacyPath != "" {
		ok, err := fileExists(opts.LegacyPath)
		if err != nil {
			return Config{}, err
		}
		if ok {
			legacy, err := godotenv.Read(opts.LegacyPath)
			if err != nil {
				return Config{}, &Error{Msg: fmt.Sprintf("read %s", opts.LegacyPath), Err: err}
			}
			seen := make(map[string]bool, len(legacyKeys))
			for _, lk := range legacyKeys {
				value, ok := legacy[lk.name]
				if !ok || seen[lk.key] {
					continue
				}
				seen[lk.key] = true
				if err := setValue(v, lk.key, value); err != nil {
					return Config{}, err
				}
				if lk.key == KeyAPIKey && value != "" {
					keySource = SourceLegacy
				}
			}
			log.Debug().Str("path", opts.LegacyPath).Msg("loaded legacy rc file")
		}
	}

	env := envMap(opts.Env)
	for name, key := range envKeys {
		value, ok := env[name]
		if !ok {
			continue
		}
		if err := setValue(v, key, value); err != nil {
			return Config{}, err
		}
		if key == KeyAPIKey && value != "" {
			keySource = SourceEnv(name)
		}
	}

	if err := ValidateSettings(v.AllSettings()); err != nil {
		return Config{}, &Error{Msg: "invalid configuration", Err: err}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return Config{}, &Error{Msg: "parse configuration", Err: err}
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)

	if cfg.APIKey == "" {
		keySource = SourceNone
		for _, name := range providerKeyEnv[cfg.Provider] {
			if value := strings.TrimSpace(env[name]); value != "" {
				cfg.APIKey = value
				keySource = SourceEnv(name)
				break
			}
		}
	}
	cfg.APIKeySource = keySource
	return cfg, nil
}

// setValue stores a string value under key, converting it to the type the
// schema expects.
func setValue(v *viper.Viper, key, value string) error {
	value = strings.TrimSpace(value)
	if key == KeyCandidateCount {
		n, err := strconv.Atoi(value)
		if err != nil {
			return &Error{Msg: "candidate-count must be a number", Err: err}
		}
		v.Set(key, n)
		return nil
	}
	v.Set(key, value)
	return nil
}

func envMap(env []string) map[string]string {
	out := make(map[string]string, len(env))
	for _, kv := range env {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		out[name] = value
	}
	return out
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return !info.IsDir(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, &Error{Msg: fmt.Sprintf("stat %s", path), Err: err}
}

// Package provider dispatches a rendered prompt and a diff to a text
// generation backend and normalizes the outcome.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"

	"github.com/metalagman/committo/internal/config"
	"github.com/metalagman/committo/internal/prompt"
	"github.com/rs/zerolog/log"
)

// DryRunComplete is returned by Generate instead of a model response when
// the request is a dry run.
const DryRunComplete = "Dry run complete."

// Settings selects the backend and model variant a provider targets.
type Settings struct {
	Provider string
	Model    string
	Endpoint string
}

// Credential is the resolved secret and where it came from.
type Credential struct {
	Value  string
	Source config.Source
}

// Provider is a text generation backend.
//
// Credential fails with *config.Error when the backend cannot be called.
// Submit issues exactly one request and never retries; failures are
// *APIError or *NetworkError.
type Provider interface {
	Name() string
	Config() Settings
	Credential() (Credential, error)
	Submit(ctx context.Context, systemPrompt, diff string) (string, error)
}

// APIError means the backend answered but rejected the request or returned
// a body of unexpected shape. Status is zero for shape mismatches.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("API Error: status %d: %s", e.Status, e.Message)
	}
	return "API Error: " + e.Message
}

// NetworkError wraps a transport failure.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "Network Error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Request is one generation request.
type Request struct {
	Prompt prompt.SystemPrompt
	Diff   string
	DryRun bool
}

// Preview is where a dry run writes its report. Config supplies the fields
// of the masked configuration block that the provider does not own, such as
// the candidate count.
type Preview struct {
	Out    io.Writer
	Config config.Config
}

// Generate checks the credential, then either writes the dry-run preview and
// returns DryRunComplete or submits the request once.
func Generate(ctx context.Context, p Provider, req Request, preview Preview) (string, error) {
	cred, err := p.Credential()
	if err != nil {
		return "", err
	}
	log.Debug().Str("provider", p.Name()).Str("key_source", cred.Source.String()).Bool("dry_run", req.DryRun).Msg("credential resolved")

	rendered := req.Prompt.Render()
	if req.DryRun {
		if err := writePreview(preview, p.Config(), cred, rendered, req.Diff); err != nil {
			return "", fmt.Errorf("write dry run: %w", err)
		}
		return DryRunComplete, nil
	}
	return p.Submit(ctx, rendered, req.Diff)
}

func writePreview(preview Preview, s Settings, cred Credential, rendered, diff string) error {
	out := preview.Out
	if out == nil {
		out = io.Discard
	}
	cfg := preview.Config
	cfg.Provider = s.Provider
	cfg.Model = s.Model
	cfg.Endpoint = s.Endpoint
	cfg.APIKey = cred.Value
	cfg.APIKeySource = cred.Source

	var b strings.Builder
	b.WriteString("--- Dry Run ---\n")
	b.WriteString(cfg.Masked())
	b.WriteString("\n--- Prompt ---\n")
	b.WriteString(rendered)
	b.WriteString("\n\n--- Git Diff ---\n")
	b.WriteString(diff)
	if !strings.HasSuffix(diff, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("--- End Dry Run ---\n")
	_, err := io.WriteString(out, b.String())
	return err
}

// classifyTransport maps errors that carry no HTTP status. Anything that is
// not a transport failure is reported as a response shape problem.
func classifyTransport(backend string, err error) error {
	var urlErr *url.Error
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &NetworkError{Err: err}
	case errors.As(err, &urlErr), errors.As(err, &netErr):
		return &NetworkError{Err: err}
	}
	return &APIError{Message: fmt.Sprintf("unexpected %s response: %v", backend, err)}
}

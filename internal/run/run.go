// Package run executes one committo invocation: read the staged diff, build
// the prompt, query the provider, let the user choose and commit.
package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/metalagman/committo/internal/candidate"
	"github.com/metalagman/committo/internal/config"
	"github.com/metalagman/committo/internal/convention"
	"github.com/metalagman/committo/internal/git"
	"github.com/metalagman/committo/internal/prompt"
	"github.com/metalagman/committo/internal/provider"
	"github.com/metalagman/committo/internal/selection"
	"github.com/rs/zerolog/log"
)

// NoChangesMessage is printed when there is nothing staged.
const NoChangesMessage = "No staged changes to commit."

// Status is how an invocation ended.
type Status string

const (
	StatusCommitted Status = "committed"
	StatusCopied    Status = "copied"
	StatusDryRun    Status = "dry-run"
	StatusNoChanges Status = "no-changes"
	StatusAborted   Status = "aborted"
)

// Repo is the version control working copy the runner commits to.
type Repo interface {
	StagedDiff(ctx context.Context) (string, error)
	Commit(ctx context.Context, message string, edit bool) error
}

// GitRepo is a Repo backed by the git CLI.
type GitRepo struct {
	Dir      string
	Terminal git.Terminal
}

func (r GitRepo) StagedDiff(ctx context.Context) (string, error) {
	if !git.Available(ctx, r.Dir) {
		return "", fmt.Errorf("not a git repository: %s", r.Dir)
	}
	return git.StagedDiff(ctx, r.Dir)
}

func (r GitRepo) Commit(ctx context.Context, message string, edit bool) error {
	return git.Commit(ctx, r.Dir, message, edit, r.Terminal)
}

// Options are the per invocation switches.
type Options struct {
	DryRun bool
	Edit   bool
	Copy   bool
}

// Result summarizes an invocation.
type Result struct {
	Status  Status
	Message string
}

// Runner wires the pipeline together. Dir is where convention discovery
// starts. Clipboard is required only when Options.Copy is set.
type Runner struct {
	Config    config.Config
	Dir       string
	Repo      Repo
	Provider  provider.Provider
	Chooser   selection.Chooser
	Clipboard func(string) error
	Out       io.Writer
}

// Run executes the pipeline once.
func (r *Runner) Run(ctx context.Context, opts Options) (Result, error) {
	diff, err := r.Repo.StagedDiff(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read staged changes: %w", err)
	}
	if !opts.DryRun && strings.TrimSpace(diff) == "" {
		r.println(NoChangesMessage)
		return Result{Status: StatusNoChanges}, nil
	}

	conventions, err := convention.Resolve(r.Dir)
	if err != nil {
		return Result{}, fmt.Errorf("resolve conventions: %w", err)
	}

	count := r.Config.Candidates()
	sp := prompt.Build(conventions, count)
	log.Debug().
		Bool("conventions", conventions != "").
		Int("candidates", count).
		Int("diff_bytes", len(diff)).
		Bool("dry_run", opts.DryRun).
		Msg("prompt built")

	resp, err := provider.Generate(ctx, r.Provider, provider.Request{
		Prompt: sp,
		Diff:   diff,
		DryRun: opts.DryRun,
	}, provider.Preview{Out: r.Out, Config: r.Config})
	if err != nil {
		return Result{}, err
	}
	if opts.DryRun {
		r.println(resp)
		return Result{Status: StatusDryRun}, nil
	}

	loop := &selection.Loop{
		Provider: r.Provider,
		Prompt:   sp,
		Diff:     diff,
		Count:    count,
		Chooser:  r.Chooser,
	}
	message, err := loop.Run(ctx, candidate.Parse(resp, count))
	if errors.Is(err, selection.ErrCancelled) {
		log.Info().Msg("Commit aborted.")
		return Result{Status: StatusAborted}, nil
	}
	if err != nil {
		return Result{}, err
	}

	if opts.Copy {
		if r.Clipboard == nil {
			return Result{}, errors.New("clipboard is not available")
		}
		if err := r.Clipboard(message); err != nil {
			return Result{}, err
		}
		log.Info().Msg("Commit message copied to clipboard.")
		return Result{Status: StatusCopied, Message: message}, nil
	}

	if err := r.Repo.Commit(ctx, message, opts.Edit); err != nil {
		return Result{}, err
	}
	log.Info().Msg("Commit successfully created!")
	return Result{Status: StatusCommitted, Message: message}, nil
}

func (r *Runner) println(s string) {
	if r.Out == nil {
		return
	}
	_, _ = fmt.Fprintln(r.Out, s)
}

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/metalagman/committo/internal/config"
	"github.com/metalagman/committo/internal/run"
	"github.com/metalagman/committo/internal/selection"
	"github.com/metalagman/committo/internal/tui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const spinnerMessage = "Generating commit message..."

type generateOptions struct {
	dryRun         bool
	edit           bool
	copy           bool
	candidateCount int
	countSet       bool
	provider       string
	model          string
}

func generateCmd(a *app) *cobra.Command {
	var opts generateOptions
	cmd := &cobra.Command{
		Use:          "generate",
		Short:        "Generate a commit message for the staged changes and commit",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.countSet = cmd.Flags().Changed("candidate-count")
			return a.generate(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "show the prompt and configuration without calling the model")
	cmd.Flags().BoolVar(&opts.edit, "edit", false, "open the editor on the chosen message before committing")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "copy the chosen message to the clipboard instead of committing")
	cmd.Flags().IntVarP(&opts.candidateCount, "candidate-count", "n", 0, "number of messages to generate (overrides config)")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "LLM provider: openai, ollama, gemini or mock (overrides config)")
	cmd.Flags().StringVar(&opts.model, "model", "", "model name (overrides config)")
	return cmd
}

func devCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:          "dev",
		Short:        "Dry run: show the prompt and configuration without calling the model",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.generate(cmd.Context(), generateOptions{dryRun: true})
		},
	}
}

func (a *app) generate(ctx context.Context, opts generateOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if err := applyOverrides(&cfg, opts); err != nil {
		return err
	}

	dryRun := opts.dryRun || envPresent(a.env, devEnv)
	if dryRun && !opts.dryRun {
		log.Debug().Msg("COMMITTO_DEV set, forcing dry run")
	}

	dir, err := a.workDir()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}
	interactive := a.interactive()
	p := a.newProvider(cfg)
	if !dryRun {
		p = tui.WithSpinner(p, a.stderr, interactive, spinnerMessage)
	}

	var chooser selection.Chooser = &tui.PlainChooser{In: a.stdin, Out: a.stdout}
	if interactive {
		chooser = &tui.Chooser{}
	}

	runner := &run.Runner{
		Config:    cfg,
		Dir:       dir,
		Repo:      a.newRepo(dir),
		Provider:  p,
		Chooser:   chooser,
		Clipboard: a.clipboard,
		Out:       a.stdout,
	}
	res, err := runner.Run(ctx, run.Options{DryRun: dryRun, Edit: opts.edit, Copy: opts.copy})
	if err != nil {
		return err
	}
	log.Debug().Str("status", string(res.Status)).Msg("generate finished")
	return nil
}

func applyOverrides(cfg *config.Config, opts generateOptions) error {
	if opts.countSet {
		if opts.candidateCount < 0 {
			return &config.Error{Msg: "candidate-count must not be negative"}
		}
		cfg.CandidateCount = opts.candidateCount
	}
	if p := strings.TrimSpace(opts.provider); p != "" {
		cfg.Provider = strings.ToLower(p)
	}
	if m := strings.TrimSpace(opts.model); m != "" {
		cfg.Model = m
	}
	return nil
}

// devEnv forces a dry run whenever it is present, whatever its value.
const devEnv = "COMMITTO_DEV"

// envPresent reports whether key is present in env (KEY=VALUE pairs).
func envPresent(env []string, key string) bool {
	prefix := key + "="
	for _, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			return true
		}
	}
	return false
}

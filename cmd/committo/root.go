package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/metalagman/committo/internal/config"
	"github.com/metalagman/committo/internal/git"
	"github.com/metalagman/committo/internal/logging"
	"github.com/metalagman/committo/internal/provider"
	"github.com/metalagman/committo/internal/run"
	"github.com/metalagman/committo/internal/tui"
	"github.com/spf13/cobra"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// app carries the process boundary so commands can run against fakes.
type app struct {
	cfgFile string
	debug   bool

	env    []string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	homeDir     func() (string, error)
	workDir     func() (string, error)
	interactive func() bool
	newRepo     func(dir string) run.Repo
	newProvider func(cfg config.Config) provider.Provider
	clipboard   func(string) error
}

func newApp() *app {
	return &app{
		env:         os.Environ(),
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		homeDir:     os.UserHomeDir,
		workDir:     os.Getwd,
		interactive: tui.IsTTY,
		newProvider: func(cfg config.Config) provider.Provider { return provider.New(cfg) },
		newRepo: func(dir string) run.Repo {
			return run.GitRepo{Dir: dir, Terminal: git.ProcessTerminal()}
		},
		clipboard: tui.CopyToClipboard,
	}
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	return execute(newApp(), os.Args[1:])
}

func execute(a *app, args []string) int {
	cmd := rootCmd(a)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fatal(a.stderr, err)
		return 1
	}
	return 0
}

func rootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "committo",
		Short:         "committo writes commit messages for your staged changes",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetIn(a.stdin)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file path (default ~/"+config.FileName+")")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	cmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		logging.InitWriter(a.debug || logging.EnvEnabled(a.env, "COMMITTO_DEBUG"), a.stderr)
	}

	cmd.AddCommand(generateCmd(a))
	cmd.AddCommand(devCmd(a))
	cmd.AddCommand(envCmd(a))
	return cmd
}

// configPaths returns the config file and the legacy rc file locations.
func (a *app) configPaths() (string, string, error) {
	home, err := a.homeDir()
	if err != nil {
		if a.cfgFile != "" {
			return a.cfgFile, "", nil
		}
		return "", "", &config.Error{Msg: "could not determine home directory", Err: err}
	}
	legacy := filepath.Join(home, config.LegacyFileName)
	if a.cfgFile != "" {
		return a.cfgFile, legacy, nil
	}
	return filepath.Join(home, config.FileName), legacy, nil
}

func (a *app) loadConfig() (config.Config, error) {
	path, legacy, err := a.configPaths()
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(config.LoadOptions{Path: path, LegacyPath: legacy, Env: a.env})
}

func fatal(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
}

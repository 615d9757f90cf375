// Package git reads the staged diff and records commits with the git CLI.
package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// CommitError reports a git commit that exited non-zero.
type CommitError struct {
	Code int
	Err  error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("Git commit failed with exit code %d", e.Code)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// Terminal is the stdio handed to git when it may open an editor.
type Terminal struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// ProcessTerminal returns the stdio of the current process.
func ProcessTerminal() Terminal {
	return Terminal{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Available checks if the given directory is inside a git work tree.
func Available(ctx context.Context, dir string) bool {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = dir
	return cmd.Run() == nil
}

// RunCmdOutput runs git in dir and returns its combined output.
func RunCmdOutput(ctx context.Context, dir string, args ...string) (string, error) {
	log.Debug().Str("dir", dir).Strs("args", args).Msg("running git command")
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// StagedDiff returns the staged changes with one line of context.
func StagedDiff(ctx context.Context, dir string) (string, error) {
	log.Debug().Str("dir", dir).Msg("reading staged diff")
	cmd := exec.CommandContext(ctx, "git", "diff", "--staged", "--unified=1")
	cmd.Dir = dir
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git diff --staged: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}

// Commit records the staged changes with message. The message never appears
// on the command line.
//
// Without edit it runs `git commit -F -` and pipes message plus a newline on
// stdin. With edit it runs `git commit --edit -F <file>`: the message is
// written to a temporary file instead of stdin, because the editor git opens
// reads from term.Stdin. The file is removed once git exits.
func Commit(ctx context.Context, dir, message string, edit bool, term Terminal) error {
	args := []string{"commit"}
	var stdin io.Reader = strings.NewReader(message + "\n")
	if edit {
		path, cleanup, err := messageFile(message)
		if err != nil {
			return err
		}
		defer cleanup()
		args = append(args, "--edit", "-F", path)
		stdin = term.Stdin
	} else {
		args = append(args, "-F", "-")
	}
	log.Debug().Str("dir", dir).Strs("args", args).Bool("edit", edit).Msg("running git commit")

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Stdin = stdin
	cmd.Stdout = term.Stdout
	cmd.Stderr = term.Stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &CommitError{Code: exitErr.ExitCode(), Err: err}
	}
	return fmt.Errorf("run git commit: %w", err)
}

func messageFile(message string) (string, func(), error) {
	f, err := os.CreateTemp("", "committo-msg-*.txt")
	if err != nil {
		return "", nil, fmt.Errorf("create message file: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }
	if _, err := io.WriteString(f, message+"\n"); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write message file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("write message file: %w", err)
	}
	return f.Name(), cleanup, nil
}

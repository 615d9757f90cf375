package run

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/metalagman/committo/internal/config"
	"github.com/metalagman/committo/internal/convention"
	"github.com/metalagman/committo/internal/git"
	"github.com/metalagman/committo/internal/provider"
	"github.com/metalagman/committo/internal/selection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	diff      string
	diffErr   error
	commitErr error
	commits   []string
	edits     []bool
}

func (f *fakeRepo) StagedDiff(context.Context) (string, error) {
	return f.diff, f.diffErr
}

func (f *fakeRepo) Commit(_ context.Context, message string, edit bool) error {
	f.commits = append(f.commits, message)
	f.edits = append(f.edits, edit)
	return f.commitErr
}

type fixedChooser struct {
	picks []int
	err   error
	menus []selection.Menu
}

func (c *fixedChooser) Choose(_ context.Context, menu selection.Menu) (int, error) {
	c.menus = append(c.menus, menu)
	if c.err != nil {
		return 0, c.err
	}
	if len(c.picks) == 0 {
		return menu.Default, nil
	}
	p := c.picks[0]
	c.picks = c.picks[1:]
	return p, nil
}

func newRunner(t *testing.T, repo Repo, p provider.Provider, chooser selection.Chooser, cfg config.Config) (*Runner, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return &Runner{
		Config:   cfg,
		Dir:      t.TempDir(),
		Repo:     repo,
		Provider: p,
		Chooser:  chooser,
		Out:      &out,
	}, &out
}

func TestRun_NoStagedChanges(t *testing.T) {
	t.Parallel()

	mock := provider.NewMock("unused")
	r, out := newRunner(t, &fakeRepo{diff: "  \n"}, mock, &fixedChooser{}, config.Default())

	res, err := r.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusNoChanges, res.Status)
	assert.Equal(t, NoChangesMessage+"\n", out.String())
	assert.Zero(t, mock.Calls())
}

func TestRun_CommitsChosenMessage(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{diff: "diff --git a/x b/x\n+x\n"}
	mock := provider.NewMock("feat: add x")
	r, _ := newRunner(t, repo, mock, &fixedChooser{}, config.Default())

	res, err := r.Run(context.Background(), Options{Edit: true})
	require.NoError(t, err)
	assert.Equal(t, Result{Status: StatusCommitted, Message: "feat: add x"}, res)
	assert.Equal(t, []string{"feat: add x"}, repo.commits)
	assert.Equal(t, []bool{true}, repo.edits)
	assert.Equal(t, 1, mock.Calls())
	assert.Equal(t, []string{repo.diff}, mock.Diffs())
}

func TestRun_MultipleCandidatesWithConventions(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{diff: "diff"}
	mock := provider.NewMock("fix: thing")
	chooser := &fixedChooser{picks: []int{2}}
	cfg := config.Default()
	cfg.CandidateCount = 3
	r, _ := newRunner(t, repo, mock, chooser, cfg)
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, convention.FileName), []byte("Use imperative mood\n"), 0o644))

	res, err := r.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "fix: thing #2", res.Message)

	require.Len(t, chooser.menus, 1)
	assert.Len(t, chooser.menus[0].Options, 4)
	require.Len(t, mock.Prompts(), 1)
	sent := mock.Prompts()[0]
	assert.Contains(t, sent, "PRIORITY RULES")
	assert.Contains(t, sent, ". Use imperative mood")
	assert.Contains(t, sent, "Generate 3 different commit message options")
}

func TestRun_DryRunNeverSubmitsOrCommits(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{diff: ""}
	mock := provider.NewMock("unused")
	chooser := &fixedChooser{}
	r, out := newRunner(t, repo, mock, chooser, config.Default())

	res, err := r.Run(context.Background(), Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, StatusDryRun, res.Status)
	assert.Zero(t, mock.Calls())
	assert.Empty(t, repo.commits)
	assert.Empty(t, chooser.menus)

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "--- Dry Run ---\n"))
	assert.Contains(t, text, "--- Prompt ---")
	assert.Contains(t, text, "--- Git Diff ---")
	assert.True(t, strings.HasSuffix(text, "--- End Dry Run ---\n"+provider.DryRunComplete+"\n"))
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{diff: "diff"}
	r, _ := newRunner(t, repo, provider.NewMock("feat: x"), &fixedChooser{err: selection.ErrCancelled}, config.Default())

	res, err := r.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusAborted, res.Status)
	assert.Empty(t, repo.commits)
}

func TestRun_CopySkipsCommit(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{diff: "diff"}
	var copied string
	r, _ := newRunner(t, repo, provider.NewMock("docs: readme"), &fixedChooser{}, config.Default())
	r.Clipboard = func(s string) error {
		copied = s
		return nil
	}

	res, err := r.Run(context.Background(), Options{Copy: true})
	require.NoError(t, err)
	assert.Equal(t, StatusCopied, res.Status)
	assert.Equal(t, "docs: readme", copied)
	assert.Empty(t, repo.commits)
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	t.Run("diff", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("not a repository")
		r, _ := newRunner(t, &fakeRepo{diffErr: boom}, provider.NewMock(""), &fixedChooser{}, config.Default())
		_, err := r.Run(context.Background(), Options{})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("provider", func(t *testing.T) {
		t.Parallel()
		apiErr := &provider.APIError{Status: 500, Message: "boom"}
		repo := &fakeRepo{diff: "diff"}
		r, _ := newRunner(t, repo, &provider.Mock{Err: apiErr}, &fixedChooser{}, config.Default())
		_, err := r.Run(context.Background(), Options{})
		assert.ErrorIs(t, err, apiErr)
		assert.Empty(t, repo.commits)
	})

	t.Run("credential", func(t *testing.T) {
		t.Parallel()
		p := provider.NewOpenAI(config.Config{}, nil)
		r, out := newRunner(t, &fakeRepo{diff: "diff"}, p, &fixedChooser{}, config.Default())
		_, err := r.Run(context.Background(), Options{DryRun: true})
		var cfgErr *config.Error
		assert.True(t, errors.As(err, &cfgErr))
		assert.Empty(t, out.String())
	})

	t.Run("commit", func(t *testing.T) {
		t.Parallel()
		repo := &fakeRepo{diff: "diff", commitErr: &git.CommitError{Code: 1}}
		r, _ := newRunner(t, repo, provider.NewMock("x"), &fixedChooser{}, config.Default())
		_, err := r.Run(context.Background(), Options{})
		var commitErr *git.CommitError
		require.True(t, errors.As(err, &commitErr))
		assert.Equal(t, 1, commitErr.Code)
	})

	t.Run("unreadable convention", func(t *testing.T) {
		t.Parallel()
		r, _ := newRunner(t, &fakeRepo{diff: "diff"}, provider.NewMock(""), &fixedChooser{}, config.Default())
		require.NoError(t, os.Symlink(convention.FileName, filepath.Join(r.Dir, convention.FileName)))
		_, err := r.Run(context.Background(), Options{})
		assert.ErrorContains(t, err, "resolve conventions")
	})
}

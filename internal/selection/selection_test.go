package selection

import (
	"context"
	"testing"

	"github.com/metalagman/committo/internal/prompt"
	"github.com/metalagman/committo/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedChooser answers with a fixed sequence of picks and records menus.
type scriptedChooser struct {
	picks []int
	err   error
	menus []Menu
}

func (s *scriptedChooser) Choose(_ context.Context, menu Menu) (int, error) {
	s.menus = append(s.menus, menu)
	if len(s.picks) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		return menu.Default, nil
	}
	pick := s.picks[0]
	s.picks = s.picks[1:]
	return pick, nil
}

func TestLoop_SingleCandidateAccepted(t *testing.T) {
	t.Parallel()

	mock := provider.NewMock("unused")
	chooser := &scriptedChooser{}
	l := &Loop{Provider: mock, Prompt: prompt.Build("", 1), Diff: "d", Count: 1, Chooser: chooser}

	msg, err := l.Run(context.Background(), []string{"feat: add login\n\nbody"})
	require.NoError(t, err)
	assert.Equal(t, "feat: add login\n\nbody", msg)
	assert.Zero(t, mock.Calls())

	require.Len(t, chooser.menus, 1)
	assert.Equal(t, []string{OptionUse, OptionRegenerate}, chooser.menus[0].Options)
	assert.Equal(t, 0, chooser.menus[0].Default)
}

func TestLoop_MultipleCandidatesDefaultToFirst(t *testing.T) {
	t.Parallel()

	chooser := &scriptedChooser{}
	l := &Loop{Provider: provider.NewMock(""), Prompt: prompt.Build("", 3), Count: 3, Chooser: chooser}

	msg, err := l.Run(context.Background(), []string{"fix: a", "feat: b", "chore: c"})
	require.NoError(t, err)
	assert.Equal(t, "fix: a", msg)

	require.Len(t, chooser.menus, 1)
	assert.Equal(t, []string{OptionRegenerate, "1. fix: a", "2. feat: b", "3. chore: c"}, chooser.menus[0].Options)
	assert.Equal(t, 1, chooser.menus[0].Default)
}

func TestLoop_PicksLaterCandidate(t *testing.T) {
	t.Parallel()

	chooser := &scriptedChooser{picks: []int{3}}
	l := &Loop{Provider: provider.NewMock(""), Prompt: prompt.Build("", 3), Count: 3, Chooser: chooser}

	msg, err := l.Run(context.Background(), []string{"fix: a", "feat: b", "chore: c"})
	require.NoError(t, err)
	assert.Equal(t, "chore: c", msg)
}

func TestLoop_RegenerateReusesPromptAndDiff(t *testing.T) {
	t.Parallel()

	mock := &provider.Mock{Responses: []string{"feat: second", "feat: third"}}
	p := prompt.Build("1. Use Korean", 2)
	chooser := &scriptedChooser{picks: []int{0, 0, 2}}
	l := &Loop{Provider: mock, Prompt: p, Diff: "the diff", Count: 2, Chooser: chooser}

	msg, err := l.Run(context.Background(), []string{"feat: first #1", "feat: first #2"})
	require.NoError(t, err)
	assert.Equal(t, "feat: third #2", msg)

	assert.Equal(t, 2, mock.Calls())
	assert.Equal(t, []string{p.Render(), p.Render()}, mock.Prompts())
	assert.Equal(t, []string{"the diff", "the diff"}, mock.Diffs())

	require.Len(t, chooser.menus, 3)
	assert.Equal(t, []string{OptionRegenerate, "1. feat: second #1", "2. feat: second #2"}, chooser.menus[1].Options)
}

func TestLoop_RegenerateFromSingleCandidate(t *testing.T) {
	t.Parallel()

	mock := provider.NewMock("fix: better")
	chooser := &scriptedChooser{picks: []int{1}}
	l := &Loop{Provider: mock, Prompt: prompt.Build("", 1), Count: 1, Chooser: chooser}

	msg, err := l.Run(context.Background(), []string{"fix: meh"})
	require.NoError(t, err)
	assert.Equal(t, "fix: better", msg)
	assert.Equal(t, 1, mock.Calls())
}

func TestLoop_RegenerateFailureAborts(t *testing.T) {
	t.Parallel()

	apiErr := &provider.APIError{Status: 500, Message: "boom"}
	mock := &provider.Mock{Err: apiErr}
	chooser := &scriptedChooser{picks: []int{1}}
	l := &Loop{Provider: mock, Prompt: prompt.Build("", 1), Count: 1, Chooser: chooser}

	_, err := l.Run(context.Background(), []string{"fix: meh"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apiErr)
	assert.Equal(t, 1, mock.Calls())
	assert.Len(t, chooser.menus, 1)
}

func TestLoop_NoCandidates(t *testing.T) {
	t.Parallel()

	chooser := &scriptedChooser{}
	l := &Loop{Provider: provider.NewMock(""), Prompt: prompt.Build("", 1), Count: 1, Chooser: chooser}

	_, err := l.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoCandidates)
	assert.Empty(t, chooser.menus)
}

func TestLoop_EmptyRegenerationAborts(t *testing.T) {
	t.Parallel()

	mock := provider.NewMock("")
	l := &Loop{Provider: blankProvider{mock}, Prompt: prompt.Build("", 2), Count: 2, Chooser: &scriptedChooser{picks: []int{1}}}

	_, err := l.Run(context.Background(), []string{"fix: meh"})
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestLoop_Cancelled(t *testing.T) {
	t.Parallel()

	chooser := &scriptedChooser{err: ErrCancelled}
	l := &Loop{Provider: provider.NewMock(""), Prompt: prompt.Build("", 1), Count: 1, Chooser: chooser}

	_, err := l.Run(context.Background(), []string{"fix: meh"})
	assert.ErrorIs(t, err, ErrCancelled)
}

// blankProvider answers whitespace, which parses to no candidates when
// several are expected.
type blankProvider struct {
	*provider.Mock
}

func (b blankProvider) Submit(ctx context.Context, systemPrompt, diff string) (string, error) {
	if _, err := b.Mock.Submit(ctx, systemPrompt, diff); err != nil {
		return "", err
	}
	return "  \n ", nil
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "presenting", Presenting.String())
	assert.Equal(t, "regenerating", Regenerating.String())
	assert.Equal(t, "done", Done.String())
}

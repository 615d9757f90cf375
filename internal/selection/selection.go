// Package selection presents commit message candidates and regenerates them
// on request until one is chosen.
package selection

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/metalagman/committo/internal/candidate"
	"github.com/metalagman/committo/internal/prompt"
	"github.com/metalagman/committo/internal/provider"
	"github.com/rs/zerolog/log"
)

const (
	OptionUse        = "Use this message"
	OptionRegenerate = "Regenerate"
)

var (
	// ErrCancelled is returned by a Chooser when the user backs out.
	ErrCancelled = errors.New("selection cancelled")
	// ErrNoCandidates means a model response contained nothing usable.
	ErrNoCandidates = errors.New("model response contained no commit message candidates")
)

// Menu is one choice presented to the user.
type Menu struct {
	Title   string
	Options []string
	Default int
}

// Chooser asks the user to pick one of menu.Options and returns its index.
type Chooser interface {
	Choose(ctx context.Context, menu Menu) (int, error)
}

// State is a step of the loop.
type State int

const (
	Presenting State = iota
	Regenerating
	Done
)

func (s State) String() string {
	switch s {
	case Presenting:
		return "presenting"
	case Regenerating:
		return "regenerating"
	case Done:
		return "done"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Loop resolves candidates to a single message.
//
// Regenerating always submits live with the same prompt and diff. A
// failed regeneration ends the loop with the provider error.
type Loop struct {
	Provider provider.Provider
	Prompt   prompt.SystemPrompt
	Diff     string
	Count    int
	Chooser  Chooser
}

// Run presents initial and returns the chosen message.
func (l *Loop) Run(ctx context.Context, initial []string) (string, error) {
	candidates := initial
	state := Presenting
	round := 0
	var chosen string

	for {
		log.Debug().Stringer("state", state).Int("round", round).Int("candidates", len(candidates)).Msg("selection loop")

		switch state {
		case Presenting:
			if len(candidates) == 0 {
				return "", ErrNoCandidates
			}
			menu := buildMenu(candidates)
			idx, err := l.Chooser.Choose(ctx, menu)
			if err != nil {
				return "", err
			}
			if idx < 0 || idx >= len(menu.Options) {
				return "", fmt.Errorf("choice %d out of range", idx)
			}
			if menu.Options[idx] == OptionRegenerate {
				state = Regenerating
				continue
			}
			if len(candidates) == 1 {
				chosen = candidates[0]
			} else {
				chosen = candidates[idx-1]
			}
			state = Done

		case Regenerating:
			round++
			resp, err := l.Provider.Submit(ctx, l.Prompt.Render(), l.Diff)
			if err != nil {
				return "", fmt.Errorf("regenerate: %w", err)
			}
			candidates = candidate.Parse(resp, l.Count)
			state = Presenting

		case Done:
			return chosen, nil

		default:
			return "", fmt.Errorf("unexpected selection state %s", state)
		}
	}
}

// buildMenu offers accept/regenerate for one candidate and regenerate plus
// one numbered entry per candidate otherwise.
func buildMenu(candidates []string) Menu {
	if len(candidates) == 1 {
		return Menu{
			Title:   candidates[0],
			Options: []string{OptionUse, OptionRegenerate},
			Default: 0,
		}
	}
	options := make([]string, 0, len(candidates)+1)
	options = append(options, OptionRegenerate)
	for i, c := range candidates {
		options = append(options, fmt.Sprintf("%d. %s", i+1, c))
	}
	return Menu{
		Title:   "Choose a commit message",
		Options: options,
		Default: 1,
	}
}

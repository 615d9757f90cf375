package tui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/metalagman/committo/internal/provider"
	"github.com/rs/zerolog/log"
)

// Spinner shows progress while a request is in flight. Without a terminal it
// prints the message once.
type Spinner struct {
	out     io.Writer
	tty     bool
	program *tea.Program
	done    chan struct{}
	started time.Time
}

type spinnerModel struct {
	spinner spinner.Model
	text    string
	stopped bool
}

type stopMsg struct{}

// NewSpinner returns a spinner writing to out. tty selects the animated form.
func NewSpinner(out io.Writer, tty bool) *Spinner {
	return &Spinner{out: out, tty: tty}
}

func (s *Spinner) Start(message string) {
	s.started = time.Now()
	if !s.tty {
		_, _ = fmt.Fprintf(s.out, "%s\n", message)
		return
	}

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("205"))),
	)
	s.program = tea.NewProgram(
		spinnerModel{spinner: sp, text: message},
		tea.WithOutput(s.out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		if _, err := s.program.Run(); err != nil {
			log.Debug().Err(err).Msg("spinner stopped with error")
		}
	}()
}

func (s *Spinner) Stop() {
	if s.program != nil {
		s.program.Send(stopMsg{})
		<-s.done
		s.program = nil
	}
	log.Debug().Dur("elapsed", time.Since(s.started)).Msg("request finished")
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case stopMsg:
		m.stopped = true
		return m, tea.Quit
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m spinnerModel) View() string {
	if m.stopped {
		return ""
	}
	return fmt.Sprintf("%s %s\n", m.spinner.View(), m.text)
}

// spinningProvider shows a spinner around every Submit of the wrapped
// provider.
type spinningProvider struct {
	provider.Provider
	spinner *Spinner
	message string
}

// WithSpinner decorates p so each submission shows message on out.
func WithSpinner(p provider.Provider, out io.Writer, tty bool, message string) provider.Provider {
	return &spinningProvider{Provider: p, spinner: NewSpinner(out, tty), message: message}
}

func (s *spinningProvider) Submit(ctx context.Context, systemPrompt, diff string) (string, error) {
	s.spinner.Start(s.message)
	defer s.spinner.Stop()
	return s.Provider.Submit(ctx, systemPrompt, diff)
}

package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/metalagman/committo/internal/selection"
)

// PlainChooser asks for a choice by number on line based input. It is used
// when no terminal is attached. Empty input picks the default; q or end of
// input cancels.
type PlainChooser struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

var _ selection.Chooser = (*PlainChooser)(nil)

func (c *PlainChooser) Choose(ctx context.Context, menu selection.Menu) (int, error) {
	if c.reader == nil {
		c.reader = bufio.NewReader(c.In)
	}

	if menu.Title != "" {
		_, _ = fmt.Fprintf(c.Out, "%s\n\n", menu.Title)
	}
	for i, opt := range menu.Options {
		marker := " "
		if i == menu.Default {
			marker = "*"
		}
		_, _ = fmt.Fprintf(c.Out, "%s [%d] %s\n", marker, i, opt)
	}

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		_, _ = fmt.Fprintf(c.Out, "Choice [%d]: ", menu.Default)
		line, err := c.reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("read choice: %w", err)
		}
		answer := strings.TrimSpace(line)
		if errors.Is(err, io.EOF) && answer == "" {
			return 0, selection.ErrCancelled
		}

		switch strings.ToLower(answer) {
		case "":
			return menu.Default, nil
		case "q", "quit":
			return 0, selection.ErrCancelled
		}
		n, convErr := strconv.Atoi(answer)
		if convErr == nil && n >= 0 && n < len(menu.Options) {
			return n, nil
		}
		_, _ = fmt.Fprintf(c.Out, "Please enter a number between 0 and %d.\n", len(menu.Options)-1)
		if errors.Is(err, io.EOF) {
			return 0, selection.ErrCancelled
		}
	}
}

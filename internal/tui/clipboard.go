package tui

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog/log"
)

var writeClipboard = clipboard.WriteAll

// CopyToClipboard places text on the system clipboard.
func CopyToClipboard(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard is not supported on this system")
	}
	if err := writeClipboard(text); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	log.Debug().Int("bytes", len(text)).Msg("copied to clipboard")
	return nil
}

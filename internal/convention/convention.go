// Package convention discovers .committoconvention files on the path from a
// working directory to the filesystem root and orders them by priority.
package convention

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// FileName is the per-directory convention file.
const FileName = ".committoconvention"

// Snippet is the trimmed content of one convention file.
type Snippet struct {
	Dir  string
	Text string
}

// Discover returns the convention snippets found in startDir and each of its
// ancestors, ordered root-most first. A file that exists but cannot be read
// aborts discovery.
func Discover(startDir string) ([]Snippet, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", startDir, err)
	}

	var found []Snippet
	for {
		s, ok, err := readSnippet(dir)
		if err != nil {
			return nil, err
		}
		if ok {
			found = append(found, s)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	// discovery walked leaf to root
	for i, j := 0, len(found)-1; i < j; i, j = i+1, j-1 {
		found[i], found[j] = found[j], found[i]
	}
	return found, nil
}

// Resolve renders the snippets above startDir as a numbered list where 1 is
// the root-most convention. It returns "" when none exist.
func Resolve(startDir string) (string, error) {
	snippets, err := Discover(startDir)
	if err != nil {
		return "", err
	}
	return Format(snippets), nil
}

// Format numbers snippets from 1 and separates them with a blank line.
func Format(snippets []Snippet) string {
	entries := make([]string, 0, len(snippets))
	for i, s := range snippets {
		entries = append(entries, strconv.Itoa(i+1)+". "+s.Text)
	}
	return strings.Join(entries, "\n\n")
}

func readSnippet(dir string) (Snippet, bool, error) {
	path := filepath.Join(dir, FileName)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snippet{}, false, nil
		}
		return Snippet{}, false, fmt.Errorf("stat convention file %s: %w", path, err)
	}
	if info.IsDir() {
		return Snippet{}, false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Snippet{}, false, fmt.Errorf("read convention file %s: %w", path, err)
	}
	log.Debug().Str("path", path).Msg("found convention file")
	return Snippet{Dir: dir, Text: strings.TrimSpace(string(data))}, true, nil
}

// Package candidate splits a raw model response into commit message candidates.
package candidate

import "strings"

const markerChars = "0123456789.)-* \t"

// Parse turns a model response into candidates.
//
// With expected == 1 (or less) the trimmed response is the only candidate,
// multi-line bodies included. Otherwise every non-empty line becomes a
// candidate once its list marker is stripped. When fewer than two lines
// survive, the whole trimmed response is returned as one candidate.
// A single expected candidate always yields exactly one element, even for a
// blank response. A blank response with several expected yields none.
func Parse(response string, expected int) []string {
	trimmed := strings.TrimSpace(response)
	if expected <= 1 {
		return []string{trimmed}
	}
	if trimmed == "" {
		return nil
	}

	var out []string
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimSpace(strings.TrimLeft(line, markerChars))
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if len(out) < 2 {
		return []string{trimmed}
	}
	return out
}

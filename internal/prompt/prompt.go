// Package prompt assembles the system prompt sent to the model.
package prompt

import (
	"fmt"
	"regexp"
	"strconv"
)

// BaseInstruction is always the first part of the prompt.
const BaseInstruction = "You are an AI assistant that helps programmers who struggle with writing commit messages. " +
	"Based on the following diff, generate a concise and informative commit message."

// Guideline explains convention priorities. It precedes the numbered conventions.
const Guideline = "**IMPORTANT PRIORITY RULES:**\n" +
	"- Numbers indicate priority: 1 = HIGHEST priority, 2, 3, 4, 5... = lower priority\n" +
	"- When instructions conflict, ALWAYS follow the higher priority (lower number)\n" +
	"- Apply these rules when analyzing git diff and generating commit messages\n"

const candidateDirectiveFormat = "Generate %d different commit message options. " +
	"Each message must be on a separate line, self-contained and concise."

var candidateDirectiveRe = regexp.MustCompile(`Generate (\d+) different commit message options`)

// SystemPrompt is an assembled prompt. Empty parts are omitted by Render.
type SystemPrompt struct {
	BaseInstruction    string
	Guideline          string
	Conventions        string
	CandidateDirective string
}

// Build assembles the prompt for the resolved conventions and requested
// candidate count. It performs no I/O.
func Build(conventions string, candidateCount int) SystemPrompt {
	p := SystemPrompt{BaseInstruction: BaseInstruction}
	if conventions != "" {
		p.Guideline = Guideline
		p.Conventions = conventions
	}
	if candidateCount > 1 {
		p.CandidateDirective = fmt.Sprintf(candidateDirectiveFormat, candidateCount)
	}
	return p
}

// Render returns the single string sent as the system message.
func (p SystemPrompt) Render() string {
	out := p.BaseInstruction
	if p.Conventions != "" {
		out += "\n\n" + p.Guideline + "\n" + p.Conventions
	}
	if p.CandidateDirective != "" {
		out += "\n\n" + p.CandidateDirective
	}
	return out
}

func (p SystemPrompt) String() string {
	return p.Render()
}

// CandidateCount recovers the number of options a rendered prompt asks for.
// It reports false when the prompt asks for a single message.
func CandidateCount(rendered string) (int, bool) {
	m := candidateDirectiveRe.FindStringSubmatch(rendered)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 2 {
		return 0, false
	}
	return n, true
}

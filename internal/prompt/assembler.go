// Package prompt renders persona descriptions, conversation history, and
// instruction templates into the literal text sent to a provider. Everything
// here is pure string assembly; no network calls.
package prompt

import (
	"strings"

	"github.com/companionos/companiond/internal/persona"
)

// Turn is one prior conversation entry to be rendered into the prompt.
type Turn struct {
	Speaker string
	Text    string
}

// PersonaPreamble renders the character description block. Empty fields are
// omitted entirely; interests and relationships render as bulleted lists and
// need at least two entries to be worth a section. The {{char}} token is
// replaced with the persona's name.
func PersonaPreamble(p *persona.Persona) string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	if p.Background != "" {
		b.WriteString(p.Background)
		b.WriteString("\n")
	}
	if len(p.Interests) > 1 {
		b.WriteString("Interests:\n")
		for _, it := range p.Interests {
			b.WriteString("- ")
			b.WriteString(it)
			b.WriteString("\n")
		}
	}
	if len(p.Relationships) > 1 {
		b.WriteString("Relationships:\n")
		for _, r := range p.Relationships {
			b.WriteString("- ")
			b.WriteString(r)
			b.WriteString("\n")
		}
	}
	if p.Personality != "" {
		b.WriteString(p.Personality)
		b.WriteString("\n")
	}
	return strings.ReplaceAll(b.String(), "{{char}}", p.Name)
}

// Assemble renders the full chat prompt: persona preamble, a fixed
// conversation header, the most recent turns up to turnLimit, and a trailing
// speaker cue inviting the persona's next line. The {{user}} token is
// replaced with the participant's display name.
//
// A turnLimit <= 0 includes the whole log.
func Assemble(p *persona.Persona, log []Turn, participant string, turnLimit int) string {
	if participant == "" {
		participant = "you"
	}
	var b strings.Builder
	b.WriteString(PersonaPreamble(p))
	b.WriteString("Current Conversation:\n")
	b.WriteString(renderLog(log, turnLimit))
	if p != nil {
		b.WriteString(p.Name)
		b.WriteString(":")
	}
	return strings.ReplaceAll(b.String(), "{{user}}", participant)
}

// renderLog renders the newest turns, capped at limit, oldest first.
func renderLog(log []Turn, limit int) string {
	if limit > 0 && len(log) > limit {
		log = log[len(log)-limit:]
	}
	var b strings.Builder
	for _, t := range log {
		b.WriteString(t.Speaker)
		b.WriteString(": ")
		b.WriteString(t.Text)
		b.WriteString("\n")
	}
	return b.String()
}

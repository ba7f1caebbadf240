// Package persona defines the user-authored character descriptor consumed by
// the prompt assembler and stop-list composer. Personas are persisted by the
// application's document store; the generation core only reads them.
package persona

// Dialect names an instruct-style prompt-formatting convention. Each dialect
// brings its own stop markers.
type Dialect string

const (
	DialectNone     Dialect = ""
	DialectMetharme Dialect = "Metharme"
	DialectAlpaca   Dialect = "Alpaca"
	DialectVicuna   Dialect = "Vicuna"
)

// Persona is a character definition. Only fields longer than one character
// contribute prompt sections.
type Persona struct {
	ID            string   `json:"_id"`
	Name          string   `json:"name"`
	Background    string   `json:"background"`
	Personality   string   `json:"personality"`
	Interests     []string `json:"interests"`
	Relationships []string `json:"relationships"`

	// Instruct-mode configuration.
	DoInstruct bool    `json:"doInstruct"`
	Dialect    Dialect `json:"instructType"`
}

// StopMarkers returns the dialect-specific stop markers for an
// instruct-enabled persona.
func (p *Persona) StopMarkers() []string {
	if p == nil || !p.DoInstruct {
		return nil
	}
	switch p.Dialect {
	case DialectMetharme:
		return []string{"<|user|>", "<|model|>"}
	case DialectAlpaca:
		return []string{"### Instruction:"}
	case DialectVicuna:
		return []string{"USER:"}
	default:
		return nil
	}
}

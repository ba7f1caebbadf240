package prompt

import "strings"

// The instruction templates. One template per combination of optional
// sections that is actually selectable; absent placeholders substitute to
// the empty string so no literal {{...}} token survives assembly.
const (
	instructTemplate = `
### Instruction:
{{instruction}}
### Response:
`

	instructTemplateGuidance = `
{{guidance}}
### Instruction:
{{instruction}}
### Response:
`

	instructTemplateContext = `
### Instruction:
{{instruction}}
### Input:
{{context}}
### Response:
`

	instructTemplateExamples = `
{{examples}}
### Instruction:
{{instruction}}
### Input:
{{context}}
### Response:
`

	instructTemplateGuidanceContext = `
{{guidance}}
### Instruction:
{{instruction}}
### Input:
{{context}}
### Response:
`

	instructTemplateGuidanceExamples = `
{{guidance}}
{{examples}}
### Instruction:
{{instruction}}
### Response:
`

	instructTemplateGuidanceContextExamples = `
{{guidance}}
{{examples}}
### Instruction:
{{instruction}}
### Input:
{{context}}
### Response:
`
)

// AssembleInstruct selects an instruction template by which optional
// sections are present, substitutes the placeholders, and trims leading
// whitespace. Examples are joined with newlines.
//
// Selection precedence, most specific first: guidance+context+examples,
// guidance+context, guidance+examples, context+examples, context, guidance,
// plain.
func AssembleInstruct(instruction, guidance, contextText string, examples []string) string {
	examplesText := strings.Join(examples, "\n")

	hasGuidance := len(guidance) > 0
	hasContext := len(contextText) > 0
	hasExamples := len(examplesText) > 0

	var tmpl string
	switch {
	case hasGuidance && hasContext && hasExamples:
		tmpl = instructTemplateGuidanceContextExamples
	case hasGuidance && hasContext:
		tmpl = instructTemplateGuidanceContext
	case hasGuidance && hasExamples:
		tmpl = instructTemplateGuidanceExamples
	case hasContext && hasExamples:
		tmpl = instructTemplateExamples
	case hasContext:
		tmpl = instructTemplateContext
	case hasGuidance:
		tmpl = instructTemplateGuidance
	default:
		tmpl = instructTemplate
	}

	r := strings.NewReplacer(
		"{{guidance}}", guidance,
		"{{instruction}}", instruction,
		"{{context}}", contextText,
		"{{examples}}", examplesText,
	)
	return strings.TrimLeft(r.Replace(tmpl), " \t\n")
}

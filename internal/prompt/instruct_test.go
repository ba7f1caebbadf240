package prompt

import (
	"strings"
	"testing"
)

func TestAssembleInstruct_PlainTemplate(t *testing.T) {
	got := AssembleInstruct("Summarize the scene.", "", "", nil)

	if !strings.Contains(got, "### Instruction:\nSummarize the scene.") {
		t.Errorf("missing instruction section in %q", got)
	}
	if strings.Contains(got, "{{") {
		t.Errorf("unsubstituted placeholder in %q", got)
	}
	if strings.HasPrefix(got, "\n") || strings.HasPrefix(got, " ") {
		t.Errorf("leading whitespace not trimmed in %q", got)
	}
}

func TestAssembleInstruct_FullTemplateSelection(t *testing.T) {
	got := AssembleInstruct("instr", "guide", "ctx", []string{"ex1", "ex2"})

	for _, part := range []string{"guide", "instr", "ctx", "ex1\nex2"} {
		if !strings.Contains(got, part) {
			t.Errorf("expected %q in assembled prompt %q", part, got)
		}
	}
	if strings.Contains(got, "{{") {
		t.Errorf("unsubstituted placeholder in %q", got)
	}
}

func TestAssembleInstruct_Selection(t *testing.T) {
	tests := []struct {
		name     string
		guidance string
		context  string
		examples []string
		contains []string
		excludes []string
	}{
		{
			name:     "guidance_only",
			guidance: "guide",
			contains: []string{"guide", "### Instruction:"},
			excludes: []string{"### Input:"},
		},
		{
			name:     "context_only",
			context:  "ctx",
			contains: []string{"### Input:\nctx"},
		},
		{
			name:     "guidance_and_context",
			guidance: "guide",
			context:  "ctx",
			contains: []string{"guide", "### Input:\nctx"},
		},
		{
			name:     "guidance_and_examples",
			guidance: "guide",
			examples: []string{"ex"},
			contains: []string{"guide", "ex"},
			excludes: []string{"### Input:"},
		},
		{
			name:     "context_and_examples",
			context:  "ctx",
			examples: []string{"ex"},
			contains: []string{"ex", "### Input:\nctx"},
		},
	}

	for _, tt := range tests {
		got := AssembleInstruct("instr", tt.guidance, tt.context, tt.examples)
		for _, want := range tt.contains {
			if !strings.Contains(got, want) {
				t.Errorf("%s: expected %q in %q", tt.name, want, got)
			}
		}
		for _, not := range tt.excludes {
			if strings.Contains(got, not) {
				t.Errorf("%s: unexpected %q in %q", tt.name, not, got)
			}
		}
		if strings.Contains(got, "{{") {
			t.Errorf("%s: unsubstituted placeholder in %q", tt.name, got)
		}
	}
}

func TestAssembleInstruct_ExamplesJoinedWithNewlines(t *testing.T) {
	got := AssembleInstruct("instr", "", "ctx", []string{"a", "b", "c"})

	if !strings.Contains(got, "a\nb\nc") {
		t.Errorf("examples not newline-joined in %q", got)
	}
}

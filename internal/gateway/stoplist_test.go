package gateway

import (
	"reflect"
	"testing"

	"github.com/companionos/companiond/internal/persona"
)

func TestComposeStops_Default(t *testing.T) {
	stops := ComposeStops("Alice", nil, nil, false)

	want := []string{"Alice:", "You:"}
	if !reflect.DeepEqual(stops, want) {
		t.Errorf("expected %v, got %v", want, stops)
	}
}

func TestComposeStops_CallerListTakesPrecedence(t *testing.T) {
	stops := ComposeStops("Alice", []string{"END", "STOP"}, nil, false)

	want := []string{"You:", "END", "STOP"}
	if !reflect.DeepEqual(stops, want) {
		t.Errorf("expected %v, got %v", want, stops)
	}
}

func TestComposeStops_Brackets(t *testing.T) {
	stops := ComposeStops("Alice", nil, nil, true)

	want := []string{"Alice:", "You:", "[", "]"}
	if !reflect.DeepEqual(stops, want) {
		t.Errorf("expected %v, got %v", want, stops)
	}
}

func TestComposeStops_CappedAtFive(t *testing.T) {
	p := &persona.Persona{
		Name:       "Luna",
		DoInstruct: true,
		Dialect:    persona.DialectMetharme,
	}
	stops := ComposeStops("Alice", nil, p, true)

	if len(stops) != 5 {
		t.Fatalf("expected 5 stops, got %d: %v", len(stops), stops)
	}
	// Earliest-added entries win.
	want := []string{"Alice:", "You:", "[", "]", "<|user|>"}
	if !reflect.DeepEqual(stops, want) {
		t.Errorf("expected %v, got %v", want, stops)
	}
}

func TestComposeStops_DialectMarkers(t *testing.T) {
	tests := []struct {
		dialect persona.Dialect
		marker  string
	}{
		{persona.DialectMetharme, "<|user|>"},
		{persona.DialectAlpaca, "### Instruction:"},
		{persona.DialectVicuna, "USER:"},
	}

	for _, tt := range tests {
		p := &persona.Persona{Name: "Luna", DoInstruct: true, Dialect: tt.dialect}
		stops := ComposeStops("Alice", nil, p, false)

		found := false
		for _, s := range stops {
			if s == tt.marker {
				found = true
			}
		}
		if !found {
			t.Errorf("dialect %s: expected marker %q in %v", tt.dialect, tt.marker, stops)
		}
	}
}

func TestComposeStops_InstructDisabledSkipsMarkers(t *testing.T) {
	p := &persona.Persona{Name: "Luna", DoInstruct: false, Dialect: persona.DialectVicuna}
	stops := ComposeStops("Alice", nil, p, false)

	want := []string{"Alice:", "You:", "Luna:", "Luna's Thoughts:"}
	if !reflect.DeepEqual(stops, want) {
		t.Errorf("expected %v, got %v", want, stops)
	}
}

func TestComposeStops_NeverExceedsCap(t *testing.T) {
	p := &persona.Persona{Name: "Luna", DoInstruct: true, Dialect: persona.DialectAlpaca}
	lists := [][]string{nil, {}, {"a"}, {"a", "b", "c", "d", "e", "f"}}

	for _, callers := range lists {
		stops := ComposeStops("Alice", callers, p, true)
		if len(stops) > 5 {
			t.Errorf("caller list %v: got %d stops, cap is 5", callers, len(stops))
		}
	}
}

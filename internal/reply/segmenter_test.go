package reply

import "testing"

func TestSegment_MultiLineDisabledReturnsFirstLine(t *testing.T) {
	raw := "Bob: first line\nsecond line\nYou: third"
	got := Segment("Bob", raw, "You", nil, false)

	if got != "Bob: first line" {
		t.Errorf("expected first line verbatim, got %q", got)
	}
}

func TestSegment_SplitsOnSpeakerAndStopsAtParticipant(t *testing.T) {
	raw := "Hello there\nAlice: Hi!\nBob: What's up\nYou: stop here"
	got := Segment("Bob", raw, "You", nil, true)

	want := "Hello there\nAlice: Hi!\nWhat's up"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSegment_Terminators(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"you", "reply\nyou: mine now"},
		{"start", "reply\n<START> new scene"},
		{"end", "reply\n<end>"},
		{"user_tag", "reply\n<user> hm"},
		{"user_colon", "reply\nUser: hm"},
	}

	for _, tt := range tests {
		got := Segment("Bob", tt.raw, "You", nil, true)
		if got != "reply" {
			t.Errorf("%s: expected scan to stop, got %q", tt.name, got)
		}
	}
}

func TestSegment_StopListEntriesDoNotTerminate(t *testing.T) {
	raw := "reply\nNarrator: and then\nmore"
	got := Segment("Bob", raw, "You", []string{"Narrator:"}, true)

	want := "reply\nNarrator: and then\nmore"
	if got != want {
		t.Errorf("expected stop-list line kept, got %q", got)
	}
}

func TestSegment_StripsSpeakerLabelFromTurns(t *testing.T) {
	raw := "Bob: one\nBob: two"
	got := Segment("Bob", raw, "You", nil, true)

	want := "one\ntwo"
	if got != want {
		t.Errorf("expected labels stripped, got %q", got)
	}
}

func TestSegment_CaseInsensitiveParticipant(t *testing.T) {
	raw := "line one\nYOU: no"
	got := Segment("Bob", raw, "You", nil, true)

	if got != "line one" {
		t.Errorf("expected case-insensitive cut, got %q", got)
	}
}

func TestSegment_EmptyInput(t *testing.T) {
	if got := Segment("Bob", "", "You", nil, true); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}

// Package reply post-processes raw provider output into clean conversational
// turns attributed to the speaking character.
package reply

import "strings"

// terminators end the scan outright when a line starts with one of them
// (case-insensitive). They mark the model speaking for someone it should not.
var terminators = []string{"you:", "<start>", "<end>", "<user>", "user:"}

// Segment splits raw model output into the speaker's completed turns.
//
// When multiLine is false the first line is returned verbatim and everything
// else is discarded. Otherwise lines are scanned in order: a line opening
// with the participant's name, or any of the fixed terminator markers, stops
// the scan; a line opening with "{speaker}:" closes the accumulating turn
// and starts a new one; any other line joins the current turn. The very
// first line is always accepted. Completed turns have every occurrence of
// the "{speaker}:" label stripped and are trimmed, then joined by newlines.
//
// Entries of stopList are matched against each line but do not terminate the
// scan; only the fixed terminator set does.
func Segment(speaker, raw, participant string, stopList []string, multiLine bool) string {
	lines := strings.Split(raw, "\n")
	if !multiLine {
		return lines[0]
	}

	if participant == "" {
		participant = "You"
	}
	participantPrefix := strings.ToLower(participant) + ":"
	speakerPrefix := strings.ToLower(speaker) + ":"

	var turns []string
	var current string
	firstLine := true

scan:
	for _, line := range lines {
		probe := strings.ToLower(line)

		if strings.HasPrefix(probe, participantPrefix) {
			break
		}
		for _, t := range terminators {
			if strings.HasPrefix(probe, t) {
				break scan
			}
		}

		// Stop-list entries are recognized but deliberately do not end the
		// scan; the fixed terminators above are the only hard cut-offs.
		matchesStop(probe, stopList)

		if strings.HasPrefix(probe, speakerPrefix) {
			if current != "" {
				turns = append(turns, finishTurn(current, speaker))
			}
			current = line
			firstLine = false
			continue
		}

		if current != "" || firstLine {
			if firstLine {
				current = line
			} else {
				current += "\n" + line
			}
		}
		firstLine = false
	}

	if current != "" {
		turns = append(turns, finishTurn(current, speaker))
	}
	return strings.Join(turns, "\n")
}

// finishTurn strips every occurrence of the speaker label and trims the turn.
func finishTurn(turn, speaker string) string {
	return strings.TrimSpace(strings.ReplaceAll(turn, speaker+":", ""))
}

// matchesStop reports whether the lowercased line starts with a stop-list
// entry.
func matchesStop(probe string, stopList []string) bool {
	for _, s := range stopList {
		if strings.HasPrefix(probe, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

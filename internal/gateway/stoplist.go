package gateway

import "github.com/companionos/companiond/internal/persona"

// maxStops caps the stop list; providers reject longer lists. Entries beyond
// the cap are dropped, earliest-added entries win.
const maxStops = 5

// ComposeStops builds the ordered stop-sequence list for one generation call.
// Precedence: caller list (prefixed with "You:"), bracket literals, instruct
// dialect markers, persona name cues. Always succeeds; the result may be
// shorter than the cap.
func ComposeStops(participant string, callerStops []string, p *persona.Persona, stopBrackets bool) []string {
	var stops []string
	if callerStops != nil {
		stops = append([]string{"You:"}, callerStops...)
	} else {
		stops = []string{participant + ":", "You:"}
	}

	if stopBrackets {
		stops = append(stops, "[", "]")
	}

	if p != nil {
		stops = append(stops, p.StopMarkers()...)
		if p.Name != "" {
			stops = append(stops, p.Name+":", p.Name+"'s Thoughts:")
		}
	}

	if len(stops) > maxStops {
		stops = stops[:maxStops]
	}
	return stops
}

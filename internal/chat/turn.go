// Package chat keeps per-session conversation logs and drives the
// assemble-generate-segment cycle that produces new character turns.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// Turn is one entry in a session's conversation log.
type Turn struct {
	ID           string   `json:"_id"`
	Speaker      string   `json:"user"`
	Text         string   `json:"text"`
	PersonaID    string   `json:"userID"`
	Timestamp    int64    `json:"timestamp"`
	Origin       string   `json:"origin"`
	IsHuman      bool     `json:"isHuman"`
	IsCommand    bool     `json:"isCommand"`
	IsPrivate    bool     `json:"isPrivate"`
	Participants []string `json:"participants"`
}

// NewTurn creates a log entry stamped with a fresh id and the current time.
func NewTurn(speaker, text, personaID, origin string, isHuman bool, participants []string) Turn {
	return Turn{
		ID:           uuid.NewString(),
		Speaker:      speaker,
		Text:         text,
		PersonaID:    personaID,
		Timestamp:    time.Now().UnixMilli(),
		Origin:       origin,
		IsHuman:      isHuman,
		Participants: participants,
	}
}

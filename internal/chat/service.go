package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/companionos/companiond/internal/gateway"
	"github.com/companionos/companiond/internal/persona"
	"github.com/companionos/companiond/internal/prompt"
	"github.com/companionos/companiond/internal/reply"
	"github.com/companionos/companiond/internal/settings"
)

// ErrNoReply reports that the provider answered with a soft-failure envelope
// instead of generated text.
var ErrNoReply = errors.New("no valid reply from provider")

// ErrTurnNotFound reports a regenerate or remove target that is not in the
// session log.
var ErrTurnNotFound = errors.New("turn not found")

// turnOrigin tags turns produced by this service.
const turnOrigin = "chat"

// Service drives conversations: it assembles the prompt from a session's
// history, generates through the gateway, segments the raw output, and
// appends the finished turn.
type Service struct {
	log       *Log
	gw        *gateway.Gateway
	settings  *settings.Service
	turnLimit int
}

// NewService creates a chat service. turnLimit bounds how many recent turns
// the assembler includes; <= 0 means no bound.
func NewService(log *Log, gw *gateway.Gateway, svc *settings.Service, turnLimit int) *Service {
	return &Service{log: log, gw: gw, settings: svc, turnLimit: turnLimit}
}

// AddUserTurn records the human participant's message in the session log and
// returns the stored turn.
func (s *Service) AddUserTurn(sessionID, speaker, text string) Turn {
	t := NewTurn(speaker, text, "", turnOrigin, true, []string{speaker})
	s.log.Append(sessionID, t)
	return t
}

// Continue generates the persona's next turn from the session history and
// appends it to the log. A provider soft failure returns ErrNoReply wrapped
// around the envelope's error text.
func (s *Service) Continue(ctx context.Context, sessionID string, p *persona.Persona, participant string, stopList []string) (*Turn, error) {
	turn, err := s.generateTurn(ctx, s.log.History(sessionID), p, participant, stopList)
	if err != nil {
		return nil, err
	}
	s.log.Append(sessionID, *turn)
	return turn, nil
}

// Regenerate replaces an existing persona turn: the target is removed, a new
// turn is generated against the remaining history, and the replacement is
// inserted at the target's former position. The target is matched by id, or
// by exact text when id is empty.
func (s *Service) Regenerate(ctx context.Context, sessionID, id, text string, p *persona.Persona, stopList []string) (*Turn, error) {
	old, pos, ok := s.log.take(sessionID, id, text)
	if !ok {
		return nil, ErrTurnNotFound
	}

	participant := ""
	if len(old.Participants) > 0 {
		participant = old.Participants[0]
	}

	turn, err := s.generateTurn(ctx, s.log.History(sessionID), p, participant, stopList)
	if err != nil {
		// Put the original back so a failed regenerate loses nothing.
		s.log.insert(sessionID, pos, old)
		return nil, err
	}
	s.log.insert(sessionID, pos, *turn)
	return turn, nil
}

// Remove deletes the first turn with exactly matching text.
func (s *Service) Remove(sessionID, text string) error {
	if !s.log.Remove(sessionID, text) {
		return ErrTurnNotFound
	}
	return nil
}

// History returns the session's turns.
func (s *Service) History(sessionID string) []Turn {
	return s.log.History(sessionID)
}

func (s *Service) generateTurn(ctx context.Context, history []Turn, p *persona.Persona, participant string, stopList []string) (*Turn, error) {
	promptText := prompt.Assemble(p, promptTurns(history), participant, s.turnLimit)

	resp, err := s.gw.Generate(ctx, gateway.Request{
		Prompt:      promptText,
		Participant: participant,
		Stops:       stopList,
		Persona:     p,
	})
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Results) == 0 {
		msg := "no results"
		if resp != nil && resp.Error != "" {
			msg = resp.Error
		}
		return nil, fmt.Errorf("%w: %s", ErrNoReply, msg)
	}

	text := reply.Segment(p.Name, resp.Results[0], participant, stopList, s.settings.MultiLine())
	t := NewTurn(p.Name, text, p.ID, turnOrigin, false, []string{participant, p.Name})
	return &t, nil
}

// promptTurns projects log entries onto the assembler's view, skipping
// private and command entries.
func promptTurns(history []Turn) []prompt.Turn {
	out := make([]prompt.Turn, 0, len(history))
	for _, t := range history {
		if t.IsPrivate || t.IsCommand {
			continue
		}
		out = append(out, prompt.Turn{Speaker: t.Speaker, Text: t.Text})
	}
	return out
}

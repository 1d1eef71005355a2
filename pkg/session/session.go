// Package session owns the lifecycle of a grid-drop game: it creates and
// rehydrates sessions, sequences human and AI turns, persists every accepted
// move and interprets the engine's terminal results. A single Controller
// serves every game kind through the game.Rules plug-in.
package session

import (
	"github.com/germanamz/gridrop/pkg/engine"
	"github.com/germanamz/gridrop/pkg/game"
)

// Session is one in-progress or finished game. Its fields are only changed
// by the Controller that created or restored it; presentation code reads it
// through the accessor methods.
type Session struct {
	id     string
	kind   game.Kind
	size   game.BoardSize
	mode   game.Difficulty
	turn   game.Token
	result game.Result
	player game.Token

	aiToken game.Token
	board   engine.Board
	ai      engine.AI

	// failed is set once the engine contradicts itself; the session is dead.
	failed error
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Kind returns the game kind.
func (s *Session) Kind() game.Kind { return s.kind }

// Size returns the board size chosen at creation.
func (s *Session) Size() game.BoardSize { return s.size }

// Mode returns the AI difficulty, None for human vs human.
func (s *Session) Mode() game.Difficulty { return s.mode }

// Turn returns the side due to move next.
func (s *Session) Turn() game.Token { return s.turn }

// Result returns the cached result. It stays Ongoing until the controller
// observes a terminal board.
func (s *Session) Result() game.Result { return s.result }

// PlayerToken returns the side played by the human who started the session.
func (s *Session) PlayerToken() game.Token { return s.player }

// AIToken returns the side played by the AI, or NoToken without an AI.
func (s *Session) AIToken() game.Token { return s.aiToken }

// HasAI reports whether an AI participates.
func (s *Session) HasAI() bool { return s.ai != nil }

// Board returns the engine board handle. Callers must treat it as read-only.
func (s *Session) Board() engine.Board { return s.board }

// Err returns the engine inconsistency that ended the session, if any.
func (s *Session) Err() error { return s.failed }

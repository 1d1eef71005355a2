// Package engine declares the contract of the external game engine. Board
// representation, win detection and AI search live behind these interfaces;
// callers treat a Board as an opaque handle and only move it across the
// persistence boundary through Serialize and Deserialize.
package engine

import (
	"context"
	"errors"

	"github.com/germanamz/gridrop/pkg/game"
)

// ErrColumnFull is returned by PerformMove when the target column has no
// empty cell or lies outside the board.
var ErrColumnFull = errors.New("engine: column full")

// Board is an opaque engine-owned board handle.
type Board any

// Move is a single placement. Letter is only meaningful for Toot & Otto.
type Move struct {
	Column int
	Letter game.Letter
}

// Engine is the capability set the session controller needs from a game
// engine. One Engine serves one game kind.
type Engine interface {
	// Kind returns the game kind this engine plays.
	Kind() game.Kind
	// NewBoard creates an empty board of the given size.
	NewBoard(size game.BoardSize) Board
	// AllowsMove reports whether column exists and has an empty cell.
	AllowsMove(b Board, column int) bool
	// PerformMove drops a piece for actor. It fails with ErrColumnFull when
	// the move is not allowed; callers check AllowsMove first.
	PerformMove(b Board, m Move, actor game.Token) error
	// IsTerminal reports whether the game on b is over.
	IsTerminal(b Board) bool
	// Result returns the kind-specific terminal discriminant. Only meaningful
	// when IsTerminal is true.
	Result(b Board) int
	// Serialize encodes b for persistence.
	Serialize(b Board) (string, error)
	// Deserialize decodes a board previously produced by Serialize. It fails
	// when data is malformed or does not describe a board of the given size.
	Deserialize(size game.BoardSize, data string) (Board, error)
	// NewAI builds an opponent of the given difficulty playing aiToken. The
	// same inputs must always produce an equivalent AI.
	NewAI(d game.Difficulty, aiToken game.Token) AI
}

// AI selects moves for its side.
type AI interface {
	BestMove(ctx context.Context, b Board, actor game.Token) (Move, error)
}

// AIFunc adapts a plain function to the AI interface.
type AIFunc func(ctx context.Context, b Board, actor game.Token) (Move, error)

// BestMove calls the underlying function.
func (f AIFunc) BestMove(ctx context.Context, b Board, actor game.Token) (Move, error) {
	return f(ctx, b, actor)
}

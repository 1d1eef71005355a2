package game

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument reports an out-of-range enum code, a token outside the
// game's alphabet, or a malformed move shape supplied by a caller.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrEngineInconsistency reports that the engine contradicted itself: the AI
// named an illegal column, a move was refused after being allowed, or a result
// discriminant is unknown. The affected session cannot continue.
var ErrEngineInconsistency = errors.New("engine inconsistency")

// Status is the coarse state of a game.
type Status int

const (
	InProgress Status = iota
	Win
	Draw
	Tie
)

func (s Status) String() string {
	switch s {
	case InProgress:
		return "in_progress"
	case Win:
		return "win"
	case Draw:
		return "draw"
	case Tie:
		return "tie"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	switch s {
	case InProgress, Win, Draw, Tie:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("game: marshal %v: %w", s, ErrInvalidArgument)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "in_progress":
		*s = InProgress
	case "win":
		*s = Win
	case "draw":
		*s = Draw
	case "tie":
		*s = Tie
	default:
		return fmt.Errorf("game: result %q: %w", b, ErrInvalidArgument)
	}

	return nil
}

// Result is a game outcome. Winner is set only when Status is Win.
type Result struct {
	Status Status
	Winner Token
}

// Ongoing is the result of a game that has not finished.
var Ongoing = Result{Status: InProgress}

// WinFor returns a winning result for side.
func WinFor(side Token) Result { return Result{Status: Win, Winner: side} }

// Terminal reports whether the game is over.
func (r Result) Terminal() bool { return r.Status != InProgress }

func (r Result) String() string {
	if r.Status == Win {
		return fmt.Sprintf("win(%s)", r.Winner)
	}

	return r.Status.String()
}

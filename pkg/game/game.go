// Package game defines the vocabulary shared by every grid-drop game: the game
// kinds, board sizes, AI difficulties, side tokens, placed letters and terminal
// results. It also provides the per-kind Rules plug-in that lets a single
// session controller serve both Connect Four and Toot & Otto.
package game

import (
	"fmt"
)

// Kind identifies a game variant. Its string form doubles as the persistence
// key for sessions of that kind.
type Kind string

const (
	Connect4 Kind = "connect4"
	TootOtto Kind = "toot"
)

// ParseKind converts a kind code into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Connect4, TootOtto:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("game: unknown kind %q: %w", s, ErrInvalidArgument)
	}
}

// BoardSize selects the grid dimensions. The dimensions themselves belong to
// the engine and the rendering layer.
type BoardSize int

const (
	Standard BoardSize = iota
	Large
)

// ParseBoardSize decodes the raw size code used by the host UI (0 standard,
// 1 large).
func ParseBoardSize(code int) (BoardSize, error) {
	switch BoardSize(code) {
	case Standard, Large:
		return BoardSize(code), nil
	default:
		return 0, fmt.Errorf("game: board size code %d: %w", code, ErrInvalidArgument)
	}
}

// Valid reports whether s is a known size.
func (s BoardSize) Valid() bool { return s == Standard || s == Large }

func (s BoardSize) String() string {
	switch s {
	case Standard:
		return "standard"
	case Large:
		return "large"
	default:
		return fmt.Sprintf("BoardSize(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s BoardSize) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("game: marshal %v: %w", s, ErrInvalidArgument)
	}

	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *BoardSize) UnmarshalText(b []byte) error {
	switch string(b) {
	case "standard":
		*s = Standard
	case "large":
		*s = Large
	default:
		return fmt.Errorf("game: board size %q: %w", b, ErrInvalidArgument)
	}

	return nil
}

// Difficulty is the AI opponent strength. None means both sides are human.
type Difficulty int

const (
	None Difficulty = iota
	Easy
	Hard
)

// ParseDifficulty decodes the raw mode code used by the host UI (0 human vs
// human, 1 easy AI, 2 hard AI). It is the only place a raw mode code becomes a
// Difficulty.
func ParseDifficulty(code int) (Difficulty, error) {
	switch Difficulty(code) {
	case None, Easy, Hard:
		return Difficulty(code), nil
	default:
		return 0, fmt.Errorf("game: mode code %d: %w", code, ErrInvalidArgument)
	}
}

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool { return d == None || d == Easy || d == Hard }

// HasAI reports whether a session with this difficulty has an AI participant.
func (d Difficulty) HasAI() bool { return d == Easy || d == Hard }

func (d Difficulty) String() string {
	switch d {
	case None:
		return "none"
	case Easy:
		return "easy"
	case Hard:
		return "hard"
	default:
		return fmt.Sprintf("Difficulty(%d)", int(d))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Difficulty) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("game: marshal %v: %w", d, ErrInvalidArgument)
	}

	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Difficulty) UnmarshalText(b []byte) error {
	switch string(b) {
	case "none":
		*d = None
	case "easy":
		*d = Easy
	case "hard":
		*d = Hard
	default:
		return fmt.Errorf("game: mode %q: %w", b, ErrInvalidArgument)
	}

	return nil
}

// Token identifies the side a move is attributed to. Connect Four uses X and
// O; Toot & Otto uses T (Toot) and O (Otto). The zero value means "no token".
type Token byte

const (
	NoToken Token = 0
	TokenX  Token = 'X'
	TokenO  Token = 'O'
	TokenT  Token = 'T'
)

func (t Token) String() string {
	if t == NoToken {
		return ""
	}

	return string(rune(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t Token) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Token) UnmarshalText(b []byte) error {
	switch string(b) {
	case "":
		*t = NoToken
	case "X":
		*t = TokenX
	case "O":
		*t = TokenO
	case "T":
		*t = TokenT
	default:
		return fmt.Errorf("game: token %q: %w", b, ErrInvalidArgument)
	}

	return nil
}

// Letter is the symbol physically dropped into a Toot & Otto column. It is
// chosen per move and is independent of the acting side.
type Letter byte

const (
	NoLetter Letter = 0
	LetterT  Letter = 'T'
	LetterO  Letter = 'O'
)

// ParseLetter accepts "T", "O" (case-insensitive) or "" for no letter.
func ParseLetter(s string) (Letter, error) {
	switch s {
	case "":
		return NoLetter, nil
	case "T", "t":
		return LetterT, nil
	case "O", "o":
		return LetterO, nil
	default:
		return NoLetter, fmt.Errorf("game: letter %q: %w", s, ErrInvalidArgument)
	}
}

func (l Letter) String() string {
	if l == NoLetter {
		return ""
	}

	return string(rune(l))
}

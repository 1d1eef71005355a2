package game

import "fmt"

// Rules is the per-kind plug-in consumed by the session controller. It owns
// the token alphabet, the shape of a move and the mapping from the engine's
// result discriminant to a Result. Everything else about turn sequencing is
// shared between kinds.
type Rules interface {
	// Kind returns the game kind these rules describe.
	Kind() Kind
	// Tokens returns the two sides in play order of a fresh human-vs-human game.
	Tokens() [2]Token
	// Opponent returns the other side, or NoToken if t is not in the alphabet.
	Opponent(t Token) Token
	// PlayerToken resolves the side played by the human who starts a session.
	// That side always moves first. NoToken selects the default.
	PlayerToken(chosen Token) (Token, error)
	// CheckLetter validates the letter carried by a move.
	CheckLetter(l Letter) error
	// MapResult converts the engine's terminal discriminant into a Result.
	MapResult(code int) (Result, error)
}

// RulesFor returns the rules for kind.
func RulesFor(kind Kind) (Rules, error) {
	switch kind {
	case Connect4:
		return Connect4Rules{}, nil
	case TootOtto:
		return TootOttoRules{}, nil
	default:
		return nil, fmt.Errorf("game: rules for %q: %w", kind, ErrInvalidArgument)
	}
}

// Connect4Rules describes Connect Four: X always moves first and moves carry
// no letter.
type Connect4Rules struct{}

// Engine discriminants for a terminal Connect Four board.
const (
	Connect4XWins = 0
	Connect4OWins = 1
	Connect4Draw  = 2
)

func (Connect4Rules) Kind() Kind { return Connect4 }

func (Connect4Rules) Tokens() [2]Token { return [2]Token{TokenX, TokenO} }

func (Connect4Rules) Opponent(t Token) Token {
	switch t {
	case TokenX:
		return TokenO
	case TokenO:
		return TokenX
	default:
		return NoToken
	}
}

func (Connect4Rules) PlayerToken(chosen Token) (Token, error) {
	if chosen != NoToken && chosen != TokenX {
		return NoToken, fmt.Errorf("game: connect4 player must be X, got %q: %w", chosen, ErrInvalidArgument)
	}

	return TokenX, nil
}

func (Connect4Rules) CheckLetter(l Letter) error {
	if l != NoLetter {
		return fmt.Errorf("game: connect4 moves carry no letter, got %q: %w", l, ErrInvalidArgument)
	}

	return nil
}

func (Connect4Rules) MapResult(code int) (Result, error) {
	switch code {
	case Connect4XWins:
		return WinFor(TokenX), nil
	case Connect4OWins:
		return WinFor(TokenO), nil
	case Connect4Draw:
		return Result{Status: Draw}, nil
	default:
		return Result{}, fmt.Errorf("game: connect4 result code %d: %w", code, ErrEngineInconsistency)
	}
}

// TootOttoRules describes Toot & Otto. The sides are Toot (T) and Otto (O);
// every move drops a letter that either side may choose freely.
type TootOttoRules struct{}

// Engine discriminants for a terminal Toot & Otto board.
const (
	TootOttoOttoWins = 0
	TootOttoTootWins = 1
	TootOttoDraw     = 2
	TootOttoTie      = 3
)

func (TootOttoRules) Kind() Kind { return TootOtto }

func (TootOttoRules) Tokens() [2]Token { return [2]Token{TokenT, TokenO} }

func (TootOttoRules) Opponent(t Token) Token {
	switch t {
	case TokenT:
		return TokenO
	case TokenO:
		return TokenT
	default:
		return NoToken
	}
}

func (TootOttoRules) PlayerToken(chosen Token) (Token, error) {
	switch chosen {
	case NoToken:
		return TokenT, nil
	case TokenT, TokenO:
		return chosen, nil
	default:
		return NoToken, fmt.Errorf("game: toot player must be T or O, got %q: %w", chosen, ErrInvalidArgument)
	}
}

func (TootOttoRules) CheckLetter(l Letter) error {
	if l != LetterT && l != LetterO {
		return fmt.Errorf("game: toot moves need a T or O letter, got %q: %w", l, ErrInvalidArgument)
	}

	return nil
}

func (TootOttoRules) MapResult(code int) (Result, error) {
	switch code {
	case TootOttoOttoWins:
		return WinFor(TokenO), nil
	case TootOttoTootWins:
		return WinFor(TokenT), nil
	case TootOttoDraw:
		return Result{Status: Draw}, nil
	case TootOttoTie:
		return Result{Status: Tie}, nil
	default:
		return Result{}, fmt.Errorf("game: toot result code %d: %w", code, ErrEngineInconsistency)
	}
}

// Package enginetest provides a deterministic in-memory engine for tests. It
// stacks pieces the way a real grid-drop engine does but delegates terminal
// judgement to a configurable Judge, so tests can script wins, draws and ties
// without depending on a real win-detection algorithm.
package enginetest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/germanamz/gridrop/pkg/engine"
	"github.com/germanamz/gridrop/pkg/game"
)

// Placement records one applied move.
type Placement struct {
	Column int
	Row    int
	Letter game.Letter
	Actor  game.Token
}

// Board is the fake board handle. Row 0 is the top row.
type Board struct {
	Size   game.BoardSize
	Width  int
	Height int
	Cells  [][]byte
	Moves  []Placement
}

// Full reports whether every column is filled.
func (b *Board) Full() bool {
	for c := 0; c < b.Width; c++ {
		if b.Cells[0][c] == ' ' {
			return false
		}
	}

	return true
}

// ColumnHeight returns how many pieces column c holds.
func (b *Board) ColumnHeight(c int) int {
	n := 0
	for r := 0; r < b.Height; r++ {
		if b.Cells[r][c] != ' ' {
			n++
		}
	}

	return n
}

// Judge decides whether b is terminal and, if so, which discriminant the
// engine reports.
type Judge func(b *Board) (terminal bool, code int)

// DrawWhenFull is the default Judge: the game ends only when the board fills
// up, reported as a draw.
func DrawWhenFull(b *Board) (bool, int) {
	if b.Full() {
		return true, game.Connect4Draw
	}

	return false, 0
}

// JudgeAfter ends the game with code once the board holds n pieces.
func JudgeAfter(n, code int) Judge {
	return func(b *Board) (bool, int) {
		if len(b.Moves) >= n {
			return true, code
		}

		return DrawWhenFull(b)
	}
}

// Picker chooses a move for the fake AI.
type Picker func(b *Board, actor game.Token) (engine.Move, error)

// Engine is a fake engine.Engine. Fields may be changed between calls; the
// zero value is not usable, construct with New.
type Engine struct {
	kind game.Kind

	mu sync.Mutex
	// Judge decides terminal state. Defaults to DrawWhenFull.
	Judge Judge
	// Pick chooses AI moves. Defaults to the leftmost open column.
	Pick Picker
	// AIs records every AI built through NewAI.
	AIs []*AI
	// PerformErr, when set, is returned by the next PerformMove.
	PerformErr error
	// TerminalQueries and ResultQueries count engine queries.
	TerminalQueries int
	ResultQueries   int
}

var _ engine.Engine = (*Engine)(nil)

// New creates a fake engine for kind.
func New(kind game.Kind) *Engine {
	return &Engine{kind: kind, Judge: DrawWhenFull}
}

// Dimensions returns width and height for kind and size.
func Dimensions(kind game.Kind, size game.BoardSize) (int, int) {
	if kind == game.TootOtto {
		if size == game.Large {
			return 9, 6
		}
		return 6, 4
	}

	if size == game.Large {
		return 10, 7
	}
	return 7, 6
}

func (e *Engine) Kind() game.Kind { return e.kind }

func (e *Engine) NewBoard(size game.BoardSize) engine.Board {
	w, h := Dimensions(e.kind, size)
	cells := make([][]byte, h)
	for r := range cells {
		cells[r] = []byte(strings.Repeat(" ", w))
	}

	return &Board{Size: size, Width: w, Height: h, Cells: cells}
}

func (e *Engine) AllowsMove(b engine.Board, column int) bool {
	fb := b.(*Board)

	return column >= 0 && column < fb.Width && fb.Cells[0][column] == ' '
}

func (e *Engine) PerformMove(b engine.Board, m engine.Move, actor game.Token) error {
	e.mu.Lock()
	injected := e.PerformErr
	e.PerformErr = nil
	e.mu.Unlock()

	if injected != nil {
		return injected
	}

	if !e.AllowsMove(b, m.Column) {
		return engine.ErrColumnFull
	}

	fb := b.(*Board)
	piece := byte(actor)
	if m.Letter != game.NoLetter {
		piece = byte(m.Letter)
	}

	for r := fb.Height - 1; r >= 0; r-- {
		if fb.Cells[r][m.Column] == ' ' {
			fb.Cells[r][m.Column] = piece
			fb.Moves = append(fb.Moves, Placement{Column: m.Column, Row: r, Letter: m.Letter, Actor: actor})
			return nil
		}
	}

	return engine.ErrColumnFull
}

func (e *Engine) IsTerminal(b engine.Board) bool {
	e.mu.Lock()
	e.TerminalQueries++
	judge := e.Judge
	e.mu.Unlock()

	terminal, _ := judge(b.(*Board))

	return terminal
}

func (e *Engine) Result(b engine.Board) int {
	e.mu.Lock()
	e.ResultQueries++
	judge := e.Judge
	e.mu.Unlock()

	_, code := judge(b.(*Board))

	return code
}

type wireBoard struct {
	Size  game.BoardSize `json:"size"`
	Rows  []string       `json:"rows"`
	Moves []Placement    `json:"moves"`
}

func (e *Engine) Serialize(b engine.Board) (string, error) {
	fb := b.(*Board)

	rows := make([]string, len(fb.Cells))
	for i, r := range fb.Cells {
		rows[i] = string(r)
	}

	data, err := json.Marshal(wireBoard{Size: fb.Size, Rows: rows, Moves: fb.Moves})
	if err != nil {
		return "", fmt.Errorf("enginetest: serialize: %w", err)
	}

	return string(data), nil
}

func (e *Engine) Deserialize(size game.BoardSize, data string) (engine.Board, error) {
	var wb wireBoard
	if err := json.Unmarshal([]byte(data), &wb); err != nil {
		return nil, fmt.Errorf("enginetest: deserialize: %w", err)
	}

	if wb.Size != size {
		return nil, fmt.Errorf("enginetest: deserialize: board is %v, want %v", wb.Size, size)
	}

	w, h := Dimensions(e.kind, size)
	if len(wb.Rows) != h {
		return nil, errors.New("enginetest: deserialize: wrong row count")
	}

	cells := make([][]byte, h)
	for i, r := range wb.Rows {
		if len(r) != w {
			return nil, errors.New("enginetest: deserialize: wrong row width")
		}
		cells[i] = []byte(r)
	}

	return &Board{Size: size, Width: w, Height: h, Cells: cells, Moves: wb.Moves}, nil
}

func (e *Engine) NewAI(d game.Difficulty, aiToken game.Token) engine.AI {
	ai := &AI{engine: e, Difficulty: d, Token: aiToken}

	e.mu.Lock()
	e.AIs = append(e.AIs, ai)
	e.mu.Unlock()

	return ai
}

// AI is the fake opponent returned by Engine.NewAI.
type AI struct {
	engine *Engine

	Difficulty game.Difficulty
	Token      game.Token
	Calls      int
}

func (a *AI) BestMove(ctx context.Context, b engine.Board, actor game.Token) (engine.Move, error) {
	if err := ctx.Err(); err != nil {
		return engine.Move{}, err
	}

	a.Calls++

	a.engine.mu.Lock()
	pick := a.engine.Pick
	a.engine.mu.Unlock()

	fb := b.(*Board)
	if pick != nil {
		return pick(fb, actor)
	}

	letter := game.NoLetter
	if a.engine.kind == game.TootOtto {
		letter = game.LetterO
	}

	for c := 0; c < fb.Width; c++ {
		if fb.Cells[0][c] == ' ' {
			return engine.Move{Column: c, Letter: letter}, nil
		}
	}

	return engine.Move{}, errors.New("enginetest: no open column")
}

// Always returns a Picker that names column with letter every time.
func Always(column int, letter game.Letter) Picker {
	return func(*Board, game.Token) (engine.Move, error) {
		return engine.Move{Column: column, Letter: letter}, nil
	}
}

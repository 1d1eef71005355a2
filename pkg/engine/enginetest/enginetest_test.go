package enginetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/germanamz/gridrop/pkg/engine"
	"github.com/germanamz/gridrop/pkg/game"
)

func TestDimensions(t *testing.T) {
	tests := []struct {
		kind game.Kind
		size game.BoardSize
		w, h int
	}{
		{game.Connect4, game.Standard, 7, 6},
		{game.Connect4, game.Large, 10, 7},
		{game.TootOtto, game.Standard, 6, 4},
		{game.TootOtto, game.Large, 9, 6},
	}

	for _, tt := range tests {
		w, h := Dimensions(tt.kind, tt.size)
		assert.Equal(t, tt.w, w, "%s/%s width", tt.kind, tt.size)
		assert.Equal(t, tt.h, h, "%s/%s height", tt.kind, tt.size)
	}
}

func TestPerformMoveStacksFromBottom(t *testing.T) {
	e := New(game.Connect4)
	b := e.NewBoard(game.Standard).(*Board)

	require.NoError(t, e.PerformMove(b, engine.Move{Column: 2}, game.TokenX))
	require.NoError(t, e.PerformMove(b, engine.Move{Column: 2}, game.TokenO))

	assert.Equal(t, byte('X'), b.Cells[5][2])
	assert.Equal(t, byte('O'), b.Cells[4][2])
	assert.Equal(t, 2, b.ColumnHeight(2))
}

func TestPerformMoveLetter(t *testing.T) {
	e := New(game.TootOtto)
	b := e.NewBoard(game.Standard).(*Board)

	require.NoError(t, e.PerformMove(b, engine.Move{Column: 0, Letter: game.LetterO}, game.TokenT))

	assert.Equal(t, byte('O'), b.Cells[3][0])
	assert.Equal(t, game.TokenT, b.Moves[0].Actor)
}

func TestPerformMoveFullColumn(t *testing.T) {
	e := New(game.TootOtto)
	b := e.NewBoard(game.Standard).(*Board)

	for range b.Height {
		require.NoError(t, e.PerformMove(b, engine.Move{Column: 5, Letter: game.LetterT}, game.TokenT))
	}

	assert.False(t, e.AllowsMove(b, 5))
	require.ErrorIs(t, e.PerformMove(b, engine.Move{Column: 5, Letter: game.LetterT}, game.TokenO), engine.ErrColumnFull)
	require.ErrorIs(t, e.PerformMove(b, engine.Move{Column: 6, Letter: game.LetterT}, game.TokenO), engine.ErrColumnFull)
}

func TestPerformErrIsOneShot(t *testing.T) {
	e := New(game.Connect4)
	b := e.NewBoard(game.Standard)
	e.PerformErr = assert.AnError

	require.ErrorIs(t, e.PerformMove(b, engine.Move{Column: 0}, game.TokenX), assert.AnError)
	require.NoError(t, e.PerformMove(b, engine.Move{Column: 0}, game.TokenX))
}

func TestJudges(t *testing.T) {
	e := New(game.Connect4)
	b := e.NewBoard(game.Standard)

	assert.False(t, e.IsTerminal(b))

	e.Judge = JudgeAfter(1, game.Connect4OWins)
	require.NoError(t, e.PerformMove(b, engine.Move{Column: 0}, game.TokenX))

	assert.True(t, e.IsTerminal(b))
	assert.Equal(t, game.Connect4OWins, e.Result(b))
	assert.Equal(t, 2, e.TerminalQueries)
	assert.Equal(t, 1, e.ResultQueries)
}

func TestSerializeRoundTrip(t *testing.T) {
	e := New(game.Connect4)
	b := e.NewBoard(game.Large)
	require.NoError(t, e.PerformMove(b, engine.Move{Column: 9}, game.TokenX))

	data, err := e.Serialize(b)
	require.NoError(t, err)

	got, err := e.Deserialize(game.Large, data)
	require.NoError(t, err)
	assert.Equal(t, b, got)

	again, err := e.Serialize(got)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestDeserializeRejects(t *testing.T) {
	e := New(game.Connect4)
	data, err := e.Serialize(e.NewBoard(game.Standard))
	require.NoError(t, err)

	_, err = e.Deserialize(game.Large, data)
	require.Error(t, err)

	_, err = e.Deserialize(game.Standard, "not json")
	require.Error(t, err)

	_, err = e.Deserialize(game.Standard, `{"size":"standard","rows":["XX"]}`)
	require.Error(t, err)

	// A board from the other game has the wrong dimensions.
	toot := New(game.TootOtto)
	tdata, err := toot.Serialize(toot.NewBoard(game.Standard))
	require.NoError(t, err)
	_, err = e.Deserialize(game.Standard, tdata)
	require.Error(t, err)
}

func TestAIDefaultPick(t *testing.T) {
	ctx := context.Background()
	e := New(game.TootOtto)
	b := e.NewBoard(game.Standard)

	ai := e.NewAI(game.Hard, game.TokenO)
	require.Len(t, e.AIs, 1)
	assert.Equal(t, game.TokenO, e.AIs[0].Token)

	for range 4 {
		m, err := ai.BestMove(ctx, b, game.TokenO)
		require.NoError(t, err)
		require.NoError(t, e.PerformMove(b, m, game.TokenO))
	}

	m, err := ai.BestMove(ctx, b, game.TokenO)
	require.NoError(t, err)
	assert.Equal(t, engine.Move{Column: 1, Letter: game.LetterO}, m)
	assert.Equal(t, 5, e.AIs[0].Calls)
}

func TestAICancelled(t *testing.T) {
	e := New(game.Connect4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.NewAI(game.Easy, game.TokenO).BestMove(ctx, e.NewBoard(game.Standard), game.TokenO)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, e.AIs[0].Calls)
}

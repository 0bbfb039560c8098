package board

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluateTerminal(t *testing.T) {
	xWins, err := ParseCompact("7,0 7,0 7,0 0,0 0,0 0,0 0,0 0,0 0,0 9,1")
	require.NoError(t, err)
	require.Equal(t, 1.0, xWins.Evaluate())

	oWins, err := ParseCompact("0,7 0,0 0,0 0,7 0,0 0,0 0,7 0,0 0,0 9,0")
	require.NoError(t, err)
	require.Equal(t, -1.0, oWins.Evaluate())

	drawn := NewSubBoard(0b110001101, 0b001110010)
	var subs [9]SubBoard
	for i := range subs {
		subs[i] = drawn
	}
	require.Equal(t, 0.0, FromSubBoards(subs, AnyBoard, X).Evaluate())
}

func TestEvaluateEmptyIsNeutral(t *testing.T) {
	require.InDelta(t, 0.0, New().Evaluate(), 1e-12)
}

func TestEvaluateFavoursSideWithSubBoards(t *testing.T) {
	// X owns two corners of the meta-board, O nothing
	b, err := ParseCompact("7,0 0,0 7,0 0,0 0,0 0,0 0,0 0,0 0,0 4,1")
	require.NoError(t, err)
	require.Greater(t, b.Evaluate(), 0.0)

	mirrored, err := ParseCompact("0,7 0,0 0,7 0,0 0,0 0,0 0,0 0,0 0,0 4,0")
	require.NoError(t, err)
	require.InDelta(t, -b.Evaluate(), mirrored.Evaluate(), 1e-12)
}

func TestSubBoardEvaluate(t *testing.T) {
	tests := []struct {
		name string
		sub  SubBoard
		want float64
	}{
		{"empty", NewSubBoard(0, 0), 0},
		{"x two in a row", NewSubBoard(0b000000011, 0), 0.1},
		{"o two in a row", NewSubBoard(0, 0b000000011), -0.1},
		{"both near a win", NewSubBoard(0b000000011, 0b000011000), 0},
		{"blocked pair", NewSubBoard(0b000000011, 0b000000100), 1.0 / 8 * 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, tt.sub.evaluate(), 1e-12)
		})
	}

	// X in the centre keeps every line open for itself and closes four for O
	require.InDelta(t, 4.0/8*0.01, NewSubBoard(0b000010000, 0).evaluate(), 1e-12)
}

func TestEvaluateBounds(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for range 500 {
		b := New()
		for !b.IsTerminal() {
			v := b.Evaluate()
			require.GreaterOrEqual(t, v, -1.0)
			require.LessOrEqual(t, v, 1.0)

			actions := b.Actions()
			b = b.Move(actions[r.Intn(len(actions))])
		}
	}
}

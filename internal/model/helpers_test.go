package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var letterTypes = map[byte]PieceType{
	'k': King, 'q': Queen, 'r': Rook, 'b': Bishop, 'n': Knight, 'p': Pawn,
}

// sq converts algebraic coordinates to board coordinates, rank 8 on row 0.
func sq(t *testing.T, name string) Position {
	t.Helper()
	require.Len(t, name, 2, "square %q", name)
	pos := Position{Row: 8 - int(name[1]-'0'), Col: int(name[0] - 'a')}
	require.True(t, pos.InBounds(), "square %q", name)
	return pos
}

// boardFromFEN loads the placement and side to move of a FEN string. Pawns
// off their starting rank are marked as moved.
func boardFromFEN(t *testing.T, fen string) (*Board, PlayerColor) {
	t.Helper()
	fields := strings.Fields(fen)
	require.GreaterOrEqual(t, len(fields), 2, "fen %q", fen)

	b := NewEmptyBoard()
	ranks := strings.Split(fields[0], "/")
	require.Len(t, ranks, 8, "fen %q", fen)
	for row, rank := range ranks {
		col := 0
		for i := 0; i < len(rank); i++ {
			ch := rank[i]
			if ch >= '1' && ch <= '8' {
				col += int(ch - '0')
				continue
			}
			color := PlayerColorBlack
			lower := ch
			if ch >= 'A' && ch <= 'Z' {
				color = PlayerColorWhite
				lower = ch + ('a' - 'A')
			}
			pieceType, ok := letterTypes[lower]
			require.True(t, ok, "piece %q in fen %q", ch, fen)
			p := Piece{Type: pieceType, Color: color}
			if pieceType == Pawn {
				start := 6
				if color == PlayerColorBlack {
					start = 1
				}
				p.HasMoved = row != start
			}
			require.True(t, b.SetPiece(row, col, p))
			col++
		}
		require.Equal(t, 8, col, "rank %d of fen %q", row, fen)
	}

	toMove := PlayerColorWhite
	if fields[1] == "b" {
		toMove = PlayerColorBlack
	}
	return b, toMove
}

// play makes moves given as "e2e4" and fails the test on a rejected one.
func play(t *testing.T, b *Board, moves ...string) {
	t.Helper()
	for _, m := range moves {
		from, to := sq(t, m[:2]), sq(t, m[2:])
		require.True(t, b.MakeMove(from.Row, from.Col, to.Row, to.Col), "move %s rejected on\n%s", m, b)
	}
}

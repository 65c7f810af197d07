package model

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var boardDiffOpts = cmp.AllowUnexported(Board{})

func TestNewBoardSetup(t *testing.T) {
	b := NewBoard()

	assert.Equal(t, 16, b.PieceCount(PlayerColorWhite))
	assert.Equal(t, 16, b.PieceCount(PlayerColorBlack))
	assert.False(t, b.IsInCheck(PlayerColorWhite))
	assert.False(t, b.IsInCheck(PlayerColorBlack))

	king, ok := b.GetPiece(7, 4)
	require.True(t, ok)
	assert.Equal(t, Piece{Type: King, Color: PlayerColorWhite, Position: Position{Row: 7, Col: 4}}, king)
	king, ok = b.GetPiece(0, 4)
	require.True(t, ok)
	assert.Equal(t, Piece{Type: King, Color: PlayerColorBlack, Position: Position{Row: 0, Col: 4}}, king)

	queen, _ := b.GetPiece(7, 3)
	assert.Equal(t, Queen, queen.Type)

	state := b.GetBoardState()
	require.NotNil(t, state.WhiteKing)
	require.NotNil(t, state.BlackKing)
	assert.Equal(t, Position{Row: 7, Col: 4}, *state.WhiteKing)
	assert.Equal(t, Position{Row: 0, Col: 4}, *state.BlackKing)

	for row := 2; row < 6; row++ {
		for col := 0; col < 8; col++ {
			_, ok := b.GetPiece(row, col)
			assert.False(t, ok, "square %d,%d should be empty", row, col)
		}
	}
}

func TestGetPieceOutOfRange(t *testing.T) {
	b := NewBoard()
	for _, pos := range []Position{{-1, 0}, {0, -1}, {8, 0}, {0, 8}, {100, 100}} {
		_, ok := b.GetPiece(pos.Row, pos.Col)
		assert.False(t, ok, "%v", pos)
	}
	assert.Empty(t, b.GetValidMoves(-1, 3))
	assert.Empty(t, b.GetValidMoves(4, 4))
}

func TestGetValidMovesIsStable(t *testing.T) {
	b := NewBoard()

	knight := b.GetValidMoves(7, 1)
	assert.Equal(t, []Position{{Row: 5, Col: 0}, {Row: 5, Col: 2}}, knight)

	pawn := b.GetValidMoves(6, 4)
	assert.Equal(t, []Position{{Row: 4, Col: 4}, {Row: 5, Col: 4}}, pawn)

	assert.Empty(t, b.GetValidMoves(7, 0), "rook is boxed in")

	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			assert.Equal(t, b.GetValidMoves(row, col), b.GetValidMoves(row, col))
		}
	}
	assert.Len(t, b.GetAllValidMoves(PlayerColorWhite), 20)
	assert.Len(t, b.GetAllValidMoves(PlayerColorBlack), 20)
}

func TestGetAllValidMovesOrder(t *testing.T) {
	b := NewBoard()
	moves := b.GetAllValidMoves(PlayerColorBlack)
	require.NotEmpty(t, moves)

	// black knight on b8 comes first in row-major order
	assert.Equal(t, SimpleMove{From: Position{Row: 0, Col: 1}, To: Position{Row: 2, Col: 0}}, moves[0])
	for i := 1; i < len(moves); i++ {
		prev, cur := moves[i-1].From, moves[i].From
		assert.True(t, prev.Row < cur.Row || (prev.Row == cur.Row && prev.Col <= cur.Col), "moves out of order at %d", i)
	}
}

func TestFoolsMate(t *testing.T) {
	b := NewBoard()
	plies := []string{"f2f3", "e7e5", "g2g4", "d8h4"}

	for i, ply := range plies {
		assert.False(t, b.IsCheckmate(PlayerColorWhite), "before ply %d", i)
		assert.False(t, b.IsCheckmate(PlayerColorBlack), "before ply %d", i)
		play(t, b, ply)
	}

	assert.True(t, b.IsInCheck(PlayerColorWhite))
	assert.True(t, b.IsCheckmate(PlayerColorWhite), "expected mate on\n%s", b)
	assert.False(t, b.IsStalemate(PlayerColorWhite))
	assert.False(t, b.IsCheckmate(PlayerColorBlack))
	assert.Empty(t, b.GetAllValidMoves(PlayerColorWhite))

	state := b.GetBoardState()
	assert.True(t, state.WhiteInCheck)
	assert.False(t, state.BlackInCheck)
}

func TestStalemate(t *testing.T) {
	b := NewEmptyBoard()
	b.SetPiece(7, 0, Piece{Type: King, Color: PlayerColorWhite})  // a1
	b.SetPiece(6, 2, Piece{Type: King, Color: PlayerColorBlack})  // c2
	b.SetPiece(5, 1, Piece{Type: Queen, Color: PlayerColorBlack}) // b3

	assert.False(t, b.IsInCheck(PlayerColorWhite))
	assert.True(t, b.IsStalemate(PlayerColorWhite))
	assert.False(t, b.IsCheckmate(PlayerColorWhite))
	assert.Empty(t, b.GetValidMoves(7, 0))
	assert.False(t, b.IsStalemate(PlayerColorBlack))
}

func TestCheckmatePositions(t *testing.T) {
	tests := []struct {
		name      string
		fen       string
		checkmate bool
		stalemate bool
	}{
		{"back rank mate", "R6k/6pp/8/8/8/8/8/K7 b - - 0 1", true, false},
		{"king takes the rook", "6Rk/8/8/8/8/8/8/K7 b - - 0 1", false, false},
		{"queen stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", false, true},
		{"smothered mate", "6rk/5Npp/8/8/8/8/8/6K1 b - - 0 1", true, false},
		{"two rooks", "k7/8/8/8/8/8/1r6/r3K3 w - - 0 1", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, toMove := boardFromFEN(t, tt.fen)
			assert.Equal(t, tt.checkmate, b.IsCheckmate(toMove), "\n%s", b)
			assert.Equal(t, tt.stalemate, b.IsStalemate(toMove), "\n%s", b)
		})
	}
}

func TestPromotion(t *testing.T) {
	t.Run("white", func(t *testing.T) {
		b, _ := boardFromFEN(t, "4k3/P7/8/8/8/8/8/4K3 w - - 0 1")
		require.True(t, b.MakeMove(1, 0, 0, 0))

		queen, ok := b.GetPiece(0, 0)
		require.True(t, ok)
		assert.Equal(t, Piece{Type: Queen, Color: PlayerColorWhite, Position: Position{Row: 0, Col: 0}, HasMoved: true}, queen)
		_, ok = b.GetPiece(1, 0)
		assert.False(t, ok)
		assert.Equal(t, 2, b.PieceCount(PlayerColorWhite))
		assert.True(t, b.IsInCheck(PlayerColorBlack), "new queen checks along the back rank")
	})

	t.Run("black with capture", func(t *testing.T) {
		b, _ := boardFromFEN(t, "4k3/8/8/8/8/8/6p1/4K2R b - - 0 1")
		require.True(t, b.MakeMove(6, 6, 7, 7))

		queen, ok := b.GetPiece(7, 7)
		require.True(t, ok)
		assert.Equal(t, Queen, queen.Type)
		assert.Equal(t, PlayerColorBlack, queen.Color)
		assert.True(t, queen.HasMoved)
		assert.Equal(t, 1, b.PieceCount(PlayerColorWhite))
	})

	t.Run("only pawns promote", func(t *testing.T) {
		b, _ := boardFromFEN(t, "4k3/R7/8/8/8/8/8/4K3 w - - 0 1")
		require.True(t, b.MakeMove(1, 0, 0, 0))
		rook, _ := b.GetPiece(0, 0)
		assert.Equal(t, Rook, rook.Type)
	})
}

func TestMakeMoveRejectsWithoutMutation(t *testing.T) {
	b := NewBoard()
	before := b.Copy()

	tests := []struct {
		name             string
		fromRow, fromCol int
		toRow, toCol     int
	}{
		{"empty source", 4, 4, 3, 4},
		{"source off board", -1, 0, 0, 0},
		{"destination off board", 6, 0, 8, 0},
		{"pawn three steps", 6, 4, 3, 4},
		{"own piece on target", 7, 0, 6, 0},
		{"rook blocked", 7, 0, 5, 0},
		{"same square", 7, 1, 7, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, b.MakeMove(tt.fromRow, tt.fromCol, tt.toRow, tt.toCol))
			assert.True(t, before.Equal(b))
		})
	}
}

func TestSelfCheckPrevention(t *testing.T) {
	// white bishop on e2 pinned to the king on e1 by the rook on e8
	b, _ := boardFromFEN(t, "k3r3/8/8/8/8/8/4B3/4K3 w - - 0 1")
	before := b.Copy()

	bishop := sq(t, "e2")
	assert.Empty(t, b.GetValidMoves(bishop.Row, bishop.Col))
	d3 := sq(t, "d3")
	assert.False(t, b.MakeMove(bishop.Row, bishop.Col, d3.Row, d3.Col))
	assert.True(t, before.Equal(b))
	assert.Empty(t, cmp.Diff(before, b, boardDiffOpts))

	// the king may not step onto the open file either
	king := sq(t, "e1")
	for _, to := range b.GetValidMoves(king.Row, king.Col) {
		assert.NotEqual(t, 4, to.Col, "king walked into the rook: %v", to)
	}
}

func TestMustAnswerCheck(t *testing.T) {
	b := NewBoard()
	play(t, b, "e2e4", "f7f6", "d1h5")
	require.True(t, b.IsInCheck(PlayerColorBlack))

	moves := b.GetAllValidMoves(PlayerColorBlack)
	assert.Equal(t, []SimpleMove{
		{From: sq(t, "g7"), To: sq(t, "g6")},
	}, moves)
}

func TestWouldMoveCauseCheckRestoresBoard(t *testing.T) {
	// knight on d2 shields the king from the queen on a5, rook on h2 holds the second rank
	b, _ := boardFromFEN(t, "4k3/8/8/q7/8/8/3N3r/4K3 w - - 0 1")

	tests := []struct {
		name  string
		from  string
		to    string
		color PlayerColor
		check bool
	}{
		{"pinned knight leaves", "d2", "f3", PlayerColorWhite, true},
		{"king steps off the rank", "e1", "f1", PlayerColorWhite, false},
		{"king steps to d1", "e1", "d1", PlayerColorWhite, false},
		{"king steps onto the rook rank", "e1", "f2", PlayerColorWhite, true},
		{"queen captures the pinned knight", "a5", "d2", PlayerColorBlack, false},
		{"rook takes knight", "h2", "d2", PlayerColorBlack, false},
		{"empty source", "c4", "c5", PlayerColorWhite, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := b.Copy()
			stateBefore := b.GetBoardState()
			from, to := sq(t, tt.from), sq(t, tt.to)

			got := b.WouldMoveCauseCheck(from.Row, from.Col, to.Row, to.Col, tt.color)
			assert.Equal(t, tt.check, got)

			assert.Empty(t, cmp.Diff(before, b, boardDiffOpts))
			assert.Empty(t, cmp.Diff(stateBefore, b.GetBoardState()))
		})
	}
}

func TestWouldMoveCauseCheckKeepsHasMoved(t *testing.T) {
	b := NewBoard()
	e2, e4 := sq(t, "e2"), sq(t, "e4")
	assert.False(t, b.WouldMoveCauseCheck(e2.Row, e2.Col, e4.Row, e4.Col, PlayerColorWhite))

	pawn, _ := b.GetPiece(e2.Row, e2.Col)
	assert.False(t, pawn.HasMoved)
	assert.Equal(t, e2, pawn.Position)
}

func TestIsSquareAttackedIgnoresPins(t *testing.T) {
	// knight on e2 is pinned but still attacks d4
	b, _ := boardFromFEN(t, "k3r3/8/8/8/8/8/4N3/4K3 w - - 0 1")
	knight, d4 := sq(t, "e2"), sq(t, "d4")

	assert.True(t, b.IsSquareAttacked(d4.Row, d4.Col, PlayerColorWhite))
	assert.Empty(t, b.GetValidMoves(knight.Row, knight.Col))
	assert.False(t, b.IsSquareAttacked(d4.Row, d4.Col, PlayerColorBlack))
}

func TestKingCoordinatesFollowMoves(t *testing.T) {
	b := NewBoard()
	play(t, b, "e2e4", "e7e5", "e1e2", "e8e7")

	state := b.GetBoardState()
	require.NotNil(t, state.WhiteKing)
	require.NotNil(t, state.BlackKing)
	assert.Equal(t, sq(t, "e2"), *state.WhiteKing)
	assert.Equal(t, sq(t, "e7"), *state.BlackKing)
}

func TestBoardWithoutKings(t *testing.T) {
	b := NewEmptyBoard()
	b.SetPiece(3, 3, Piece{Type: Rook, Color: PlayerColorWhite})

	assert.False(t, b.IsInCheck(PlayerColorWhite))
	assert.False(t, b.IsInCheck(PlayerColorBlack))
	assert.True(t, b.IsStalemate(PlayerColorBlack))
	assert.Len(t, b.GetValidMoves(3, 3), 14)

	state := b.GetBoardState()
	assert.Nil(t, state.WhiteKing)
	assert.Nil(t, state.BlackKing)

	b.SetPiece(0, 0, Piece{Type: King, Color: PlayerColorBlack})
	b.RemovePiece(0, 0)
	assert.Nil(t, b.GetBoardState().BlackKing)
}

func TestCaptureRemovesPiece(t *testing.T) {
	b := NewBoard()
	play(t, b, "e2e4", "d7d5", "e4d5")

	assert.Equal(t, 16, b.PieceCount(PlayerColorWhite))
	assert.Equal(t, 15, b.PieceCount(PlayerColorBlack))
	pawn, ok := b.GetPiece(3, 3)
	require.True(t, ok)
	assert.Equal(t, PlayerColorWhite, pawn.Color)
	assert.True(t, pawn.HasMoved)
}

func TestCopyIsIsolated(t *testing.T) {
	b := NewBoard()
	play(t, b, "e2e4")
	clone := b.Copy()

	require.True(t, clone.Equal(b))
	assert.Empty(t, cmp.Diff(b, clone, boardDiffOpts))

	stateBefore := b.GetBoardState()
	play(t, clone, "e7e5", "g1f3", "b8c6", "f1c4", "g8f6")
	assert.Empty(t, cmp.Diff(stateBefore, b.GetBoardState()))
	assert.False(t, clone.Equal(b))

	// pieces are fresh values, not shared pointers
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if b.squares[row][col] != nil && clone.squares[row][col] != nil {
				assert.NotSame(t, b.squares[row][col], clone.squares[row][col])
			}
		}
	}
}

func TestBoardStateJSON(t *testing.T) {
	raw, err := json.Marshal(NewBoard().GetBoardState())
	require.NoError(t, err)

	var decoded struct {
		Board [][]struct {
			PieceType *string `json:"piece_type"`
			Color     *string `json:"color"`
		} `json:"board"`
		WhiteKing    map[string]int `json:"white_king"`
		BlackKing    map[string]int `json:"black_king"`
		WhiteInCheck bool           `json:"white_in_check"`
		BlackInCheck bool           `json:"black_in_check"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	require.Len(t, decoded.Board, 8)
	require.NotNil(t, decoded.Board[0][0].PieceType)
	assert.Equal(t, "rook", *decoded.Board[0][0].PieceType)
	assert.Equal(t, "black", *decoded.Board[0][0].Color)
	assert.Nil(t, decoded.Board[4][4].PieceType)
	assert.Nil(t, decoded.Board[4][4].Color)
	assert.Equal(t, map[string]int{"row": 7, "col": 4}, decoded.WhiteKing)
	assert.Equal(t, map[string]int{"row": 0, "col": 4}, decoded.BlackKing)
	assert.Contains(t, string(raw), `"white_in_check":false`)
}

func TestBoardString(t *testing.T) {
	want := "rnbqkbnr\npppppppp\n........\n........\n........\n........\nPPPPPPPP\nRNBQKBNR\n"
	assert.Equal(t, want, NewBoard().String())
}

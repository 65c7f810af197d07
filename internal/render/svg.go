// Package render draws a board snapshot as SVG.
package render

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/benbeisheim/onlinechess-backend/internal/model"
)

const DefaultSquareSize = 64

const (
	lightSquare   = "fill:rgb(240,217,181)"
	darkSquare    = "fill:rgb(181,136,99)"
	selectedStyle = "fill:rgb(0,0,255);fill-opacity:0.5"
	moveStyle     = "fill:rgb(0,255,0);fill-opacity:0.5"
	checkStyle    = "fill:rgb(255,0,0);fill-opacity:0.5"
)

var symbols = map[model.PlayerColor]map[model.PieceType]string{
	model.PlayerColorWhite: {
		model.King: "♔", model.Queen: "♕", model.Rook: "♖",
		model.Bishop: "♗", model.Knight: "♘", model.Pawn: "♙",
	},
	model.PlayerColorBlack: {
		model.King: "♚", model.Queen: "♛", model.Rook: "♜",
		model.Bishop: "♝", model.Knight: "♞", model.Pawn: "♟",
	},
}

type Options struct {
	SquareSize int
	Selected   *model.Position
	Moves      []model.Position
}

// Board writes an SVG of the snapshot with row 0 at the top. The selected
// square and its moves are highlighted, as is a king in check.
func Board(w io.Writer, state model.BoardState, opts Options) {
	size := opts.SquareSize
	if size <= 0 {
		size = DefaultSquareSize
	}

	canvas := svg.New(w)
	canvas.Start(8*size, 8*size)
	canvas.Title("chess board")

	canvas.Gid("squares")
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			style := lightSquare
			if (row+col)%2 == 1 {
				style = darkSquare
			}
			canvas.Rect(col*size, row*size, size, size, style)
		}
	}
	canvas.Gend()

	canvas.Gid("highlights")
	if state.WhiteInCheck && state.WhiteKing != nil {
		highlight(canvas, *state.WhiteKing, size, checkStyle)
	}
	if state.BlackInCheck && state.BlackKing != nil {
		highlight(canvas, *state.BlackKing, size, checkStyle)
	}
	if opts.Selected != nil {
		highlight(canvas, *opts.Selected, size, selectedStyle)
	}
	for _, m := range opts.Moves {
		highlight(canvas, m, size, moveStyle)
	}
	canvas.Gend()

	canvas.Gid("pieces")
	textStyle := fmt.Sprintf("font-size:%dpx;text-anchor:middle;dominant-baseline:central", size*3/4)
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			sq := state.Board[row][col]
			if sq.PieceType == nil || sq.Color == nil {
				continue
			}
			canvas.Text(col*size+size/2, row*size+size/2, symbols[*sq.Color][*sq.PieceType], textStyle)
		}
	}
	canvas.Gend()

	canvas.End()
}

func highlight(canvas *svg.SVG, pos model.Position, size int, style string) {
	if !pos.InBounds() {
		return
	}
	canvas.Rect(pos.Col*size, pos.Row*size, size, size, style)
}

package model

import (
	"maps"
	"strings"
)

type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) InBounds() bool {
	return p.Row >= 0 && p.Row < 8 && p.Col >= 0 && p.Col < 8
}

// SquareState is one cell of a BoardState. Both fields are nil for an empty square.
type SquareState struct {
	PieceType *PieceType   `json:"piece_type"`
	Color     *PlayerColor `json:"color"`
}

// BoardState is the snapshot handed to clients after every change.
type BoardState struct {
	Board        [8][8]SquareState `json:"board"`
	WhiteKing    *Position         `json:"white_king"`
	BlackKing    *Position         `json:"black_king"`
	WhiteInCheck bool              `json:"white_in_check"`
	BlackInCheck bool              `json:"black_in_check"`
}

// Board owns every piece placed on it. King locations are tracked as
// coordinates and checked against the grid before use.
//
// A Board is not safe for concurrent use while a move is made or simulated;
// Game serializes access to the board it owns.
type Board struct {
	squares [8][8]*Piece
	kings   map[PlayerColor]Position
}

var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// NewBoard returns a board in the standard starting position, black on rows 0-1
// and white on rows 6-7.
func NewBoard() *Board {
	b := NewEmptyBoard()
	for col, pieceType := range backRank {
		b.place(Position{Row: 0, Col: col}, NewPiece(pieceType, PlayerColorBlack, 0, col))
		b.place(Position{Row: 1, Col: col}, NewPiece(Pawn, PlayerColorBlack, 1, col))
		b.place(Position{Row: 6, Col: col}, NewPiece(Pawn, PlayerColorWhite, 6, col))
		b.place(Position{Row: 7, Col: col}, NewPiece(pieceType, PlayerColorWhite, 7, col))
	}
	return b
}

func NewEmptyBoard() *Board {
	return &Board{kings: make(map[PlayerColor]Position, 2)}
}

// GetPiece returns a copy of the piece on the square. Out of range squares are empty.
func (b *Board) GetPiece(row, col int) (Piece, bool) {
	p := b.at(Position{Row: row, Col: col})
	if p == nil {
		return Piece{}, false
	}
	return *p, true
}

// SetPiece places a copy of piece on the square, replacing any occupant.
// It reports false for an out of range square.
func (b *Board) SetPiece(row, col int, piece Piece) bool {
	pos := Position{Row: row, Col: col}
	if !pos.InBounds() {
		return false
	}
	b.RemovePiece(row, col)
	placed := piece
	b.place(pos, &placed)
	return true
}

func (b *Board) RemovePiece(row, col int) {
	pos := Position{Row: row, Col: col}
	p := b.at(pos)
	if p == nil {
		return
	}
	b.squares[row][col] = nil
	if p.Type == King && b.kings[p.Color] == pos {
		delete(b.kings, p.Color)
	}
}

func (b *Board) at(pos Position) *Piece {
	if !pos.InBounds() {
		return nil
	}
	return b.squares[pos.Row][pos.Col]
}

func (b *Board) place(pos Position, p *Piece) {
	if b.kings == nil {
		b.kings = make(map[PlayerColor]Position, 2)
	}
	b.squares[pos.Row][pos.Col] = p
	p.Position = pos
	if p.Type == King {
		b.kings[p.Color] = pos
	}
}

// kingPosition trusts the cached coordinate only while it still holds that
// color's king and otherwise scans the grid. It never writes, so concurrent
// readers stay safe.
func (b *Board) kingPosition(color PlayerColor) (Position, bool) {
	if pos, ok := b.kings[color]; ok {
		if p := b.at(pos); p != nil && p.Type == King && p.Color == color {
			return pos, true
		}
	}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if p := b.squares[row][col]; p != nil && p.Type == King && p.Color == color {
				return Position{Row: row, Col: col}, true
			}
		}
	}
	return Position{}, false
}

// GetValidMoves lists the legal destinations of the piece on the square in
// row-major order.
func (b *Board) GetValidMoves(row, col int) []Position {
	moves := []Position{}
	piece := b.at(Position{Row: row, Col: col})
	if piece == nil {
		return moves
	}
	for toRow := 0; toRow < 8; toRow++ {
		for toCol := 0; toCol < 8; toCol++ {
			if !piece.IsValidMove(toRow, toCol, b) {
				continue
			}
			if b.WouldMoveCauseCheck(row, col, toRow, toCol, piece.Color) {
				continue
			}
			moves = append(moves, Position{Row: toRow, Col: toCol})
		}
	}
	return moves
}

// MakeMove plays a legal move and reports whether it was played. A rejected
// move leaves the board untouched.
func (b *Board) MakeMove(fromRow, fromCol, toRow, toCol int) bool {
	from := Position{Row: fromRow, Col: fromCol}
	to := Position{Row: toRow, Col: toCol}

	piece := b.at(from)
	if piece == nil {
		return false
	}
	if !piece.IsValidMove(toRow, toCol, b) {
		return false
	}
	if b.WouldMoveCauseCheck(fromRow, fromCol, toRow, toCol, piece.Color) {
		return false
	}

	b.squares[from.Row][from.Col] = nil
	b.squares[to.Row][to.Col] = piece
	piece.MoveTo(to.Row, to.Col)
	if piece.Type == King {
		b.kings[piece.Color] = to
	}

	// always promote to a queen
	if piece.Type == Pawn && to.Row == piece.promotionRow() {
		queen := NewPiece(Queen, piece.Color, to.Row, to.Col)
		queen.HasMoved = true
		b.place(to, queen)
	}
	return true
}

// WouldMoveCauseCheck plays the move on the board, asks whether color is in
// check and takes the move back. The board is identical afterwards whatever
// the answer. With no piece on from, or from == to, nothing is simulated and
// the current position is evaluated.
func (b *Board) WouldMoveCauseCheck(fromRow, fromCol, toRow, toCol int, color PlayerColor) bool {
	from := Position{Row: fromRow, Col: fromCol}
	to := Position{Row: toRow, Col: toCol}
	if b.at(from) == nil || !to.InBounds() || from == to {
		return b.IsInCheck(color)
	}

	undo := b.simulate(from, to)
	defer undo()
	return b.IsInCheck(color)
}

// simulate moves the piece on from to to without marking it moved and returns
// the function that restores the grid, the piece position and both king
// coordinates.
func (b *Board) simulate(from, to Position) func() {
	piece := b.squares[from.Row][from.Col]
	captured := b.squares[to.Row][to.Col]

	whiteKing, hadWhite := b.kings[PlayerColorWhite]
	blackKing, hadBlack := b.kings[PlayerColorBlack]

	b.squares[to.Row][to.Col] = piece
	b.squares[from.Row][from.Col] = nil
	piece.Position = to
	if piece.Type == King {
		b.kings[piece.Color] = to
	}

	return func() {
		piece.Position = from
		b.squares[from.Row][from.Col] = piece
		b.squares[to.Row][to.Col] = captured
		restoreKing(b.kings, PlayerColorWhite, whiteKing, hadWhite)
		restoreKing(b.kings, PlayerColorBlack, blackKing, hadBlack)
	}
}

func restoreKing(kings map[PlayerColor]Position, color PlayerColor, pos Position, ok bool) {
	if ok {
		kings[color] = pos
		return
	}
	delete(kings, color)
}

// IsSquareAttacked reports whether any piece of byColor could move to the
// square by its own rules. Pins on the attacker are ignored.
func (b *Board) IsSquareAttacked(row, col int, byColor PlayerColor) bool {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			p := b.squares[r][c]
			if p != nil && p.Color == byColor && p.IsValidMove(row, col, b) {
				return true
			}
		}
	}
	return false
}

// IsInCheck is false for a color with no king on the board.
func (b *Board) IsInCheck(color PlayerColor) bool {
	king, ok := b.kingPosition(color)
	if !ok {
		return false
	}
	return b.IsSquareAttacked(king.Row, king.Col, color.Opponent())
}

func (b *Board) GetAllValidMoves(color PlayerColor) []SimpleMove {
	moves := []SimpleMove{}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b.squares[row][col]
			if p == nil || p.Color != color {
				continue
			}
			from := Position{Row: row, Col: col}
			for _, to := range b.GetValidMoves(row, col) {
				moves = append(moves, SimpleMove{From: from, To: to})
			}
		}
	}
	return moves
}

func (b *Board) IsCheckmate(color PlayerColor) bool {
	return b.IsInCheck(color) && len(b.GetAllValidMoves(color)) == 0
}

func (b *Board) IsStalemate(color PlayerColor) bool {
	return !b.IsInCheck(color) && len(b.GetAllValidMoves(color)) == 0
}

func (b *Board) GetBoardState() BoardState {
	var state BoardState
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b.squares[row][col]
			if p == nil {
				continue
			}
			pieceType, color := p.Type, p.Color
			state.Board[row][col] = SquareState{PieceType: &pieceType, Color: &color}
		}
	}
	if pos, ok := b.kingPosition(PlayerColorWhite); ok {
		state.WhiteKing = &pos
	}
	if pos, ok := b.kingPosition(PlayerColorBlack); ok {
		state.BlackKing = &pos
	}
	state.WhiteInCheck = b.IsInCheck(PlayerColorWhite)
	state.BlackInCheck = b.IsInCheck(PlayerColorBlack)
	return state
}

// Copy returns a deep clone. No piece is shared with the original.
func (b *Board) Copy() *Board {
	clone := &Board{kings: maps.Clone(b.kings)}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if p := b.squares[row][col]; p != nil {
				cp := *p
				clone.squares[row][col] = &cp
			}
		}
	}
	return clone
}

// Equal compares piece values square by square along with the king coordinates.
func (b *Board) Equal(other *Board) bool {
	if other == nil {
		return false
	}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p, q := b.squares[row][col], other.squares[row][col]
			if (p == nil) != (q == nil) {
				return false
			}
			if p != nil && *p != *q {
				return false
			}
		}
	}
	return maps.Equal(b.kings, other.kings)
}

func (b *Board) PieceCount(color PlayerColor) int {
	count := 0
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if p := b.squares[row][col]; p != nil && p.Color == color {
				count++
			}
		}
	}
	return count
}

var pieceLetters = map[PieceType]byte{
	King: 'k', Queen: 'q', Rook: 'r', Bishop: 'b', Knight: 'n', Pawn: 'p',
}

// String draws the board with row 0 on top, white pieces upper case.
func (b *Board) String() string {
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b.squares[row][col]
			if p == nil {
				sb.WriteByte('.')
				continue
			}
			letter := pieceLetters[p.Type]
			if p.Color == PlayerColorWhite {
				letter -= 'a' - 'A'
			}
			sb.WriteByte(letter)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

package model

type PieceType string

const (
	King   PieceType = "king"
	Queen  PieceType = "queen"
	Rook   PieceType = "rook"
	Bishop PieceType = "bishop"
	Knight PieceType = "knight"
	Pawn   PieceType = "pawn"
)

// Occupancy is the read-only view of a board that pieces need to judge a move.
type Occupancy interface {
	GetPiece(row, col int) (Piece, bool)
}

type Piece struct {
	Type     PieceType   `json:"type"`
	Color    PlayerColor `json:"color"`
	Position Position    `json:"position"`
	HasMoved bool        `json:"hasMoved"`
}

func NewPiece(pieceType PieceType, color PlayerColor, row, col int) *Piece {
	return &Piece{
		Type:     pieceType,
		Color:    color,
		Position: Position{Row: row, Col: col},
	}
}

// MoveTo records a committed move. Simulations move pieces without calling it
// so HasMoved is left alone.
func (p *Piece) MoveTo(row, col int) {
	p.Position = Position{Row: row, Col: col}
	p.HasMoved = true
}

// IsValidMove reports whether the piece may move to the square by its own
// movement rules. The safety of the mover's king is not considered.
func (p Piece) IsValidMove(toRow, toCol int, board Occupancy) bool {
	to := Position{Row: toRow, Col: toCol}
	if to == p.Position || !to.InBounds() {
		return false
	}

	switch p.Type {
	case Pawn:
		return p.validPawnMove(to, board)
	case Rook:
		return p.validStraightMove(to, board) && p.canLandOn(to, board)
	case Bishop:
		return p.validDiagonalMove(to, board) && p.canLandOn(to, board)
	case Knight:
		return p.validKnightMove(to) && p.canLandOn(to, board)
	case Queen:
		return (p.validStraightMove(to, board) || p.validDiagonalMove(to, board)) && p.canLandOn(to, board)
	case King:
		return abs(to.Row-p.Position.Row) <= 1 && abs(to.Col-p.Position.Col) <= 1 && p.canLandOn(to, board)
	}
	return false
}

// GetPossibleMoves scans every square in row-major order.
func (p Piece) GetPossibleMoves(board Occupancy) []Position {
	moves := []Position{}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if p.IsValidMove(row, col, board) {
				moves = append(moves, Position{Row: row, Col: col})
			}
		}
	}
	return moves
}

// forward is the row delta of a pawn step: white heads for row 0, black for row 7.
func (p Piece) forward() int {
	if p.Color == PlayerColorWhite {
		return -1
	}
	return 1
}

func (p Piece) promotionRow() int {
	if p.Color == PlayerColorWhite {
		return 0
	}
	return 7
}

func (p Piece) validPawnMove(to Position, board Occupancy) bool {
	from := p.Position
	dir := p.forward()

	if from.Col == to.Col {
		switch to.Row {
		case from.Row + dir:
			return isEmpty(board, to.Row, to.Col)
		case from.Row + 2*dir:
			return !p.HasMoved && isEmpty(board, from.Row+dir, from.Col) && isEmpty(board, to.Row, to.Col)
		}
		return false
	}

	if abs(from.Col-to.Col) == 1 && to.Row == from.Row+dir {
		target, ok := board.GetPiece(to.Row, to.Col)
		return ok && target.Color != p.Color
	}
	return false
}

func (p Piece) validStraightMove(to Position, board Occupancy) bool {
	from := p.Position
	if from.Row != to.Row && from.Col != to.Col {
		return false
	}
	return pathClear(from, to, board)
}

func (p Piece) validDiagonalMove(to Position, board Occupancy) bool {
	from := p.Position
	if abs(from.Row-to.Row) != abs(from.Col-to.Col) {
		return false
	}
	return pathClear(from, to, board)
}

func (p Piece) validKnightMove(to Position) bool {
	dr := abs(to.Row - p.Position.Row)
	dc := abs(to.Col - p.Position.Col)
	return (dr == 1 && dc == 2) || (dr == 2 && dc == 1)
}

// canLandOn is true for an empty square or one held by the other side.
func (p Piece) canLandOn(to Position, board Occupancy) bool {
	target, ok := board.GetPiece(to.Row, to.Col)
	return !ok || target.Color != p.Color
}

// pathClear checks the squares strictly between from and to, which must share
// a row, column or diagonal.
func pathClear(from, to Position, board Occupancy) bool {
	stepRow := sign(to.Row - from.Row)
	stepCol := sign(to.Col - from.Col)
	row, col := from.Row+stepRow, from.Col+stepCol
	for row != to.Row || col != to.Col {
		if !isEmpty(board, row, col) {
			return false
		}
		row += stepRow
		col += stepCol
	}
	return true
}

func isEmpty(board Occupancy, row, col int) bool {
	_, ok := board.GetPiece(row, col)
	return !ok
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

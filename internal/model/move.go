package model

// WSMove is a move as clients send it: [row, col] pairs.
type WSMove struct {
	From [2]int `json:"from"`
	To   [2]int `json:"to"`
}

func (m WSMove) Simple() SimpleMove {
	return SimpleMove{
		From: Position{Row: m.From[0], Col: m.From[1]},
		To:   Position{Row: m.To[0], Col: m.To[1]},
	}
}

type Ply struct {
	Piece         PieceType  `json:"piece"`
	From          Position   `json:"from"`
	To            Position   `json:"to"`
	CapturedPiece *PieceType `json:"capturedPiece"`
	Promotion     bool       `json:"promotion"`
}

type Move struct {
	WhitePly *Ply `json:"whitePly"`
	BlackPly *Ply `json:"blackPly"`
}

type SimpleMove struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

package model

type Player struct {
	ID    string
	Color PlayerColor
	Ready bool
}

type ClientPlayer struct {
	ID        string      `json:"name"`
	Color     PlayerColor `json:"color"`
	Ready     bool        `json:"ready"`
	Connected bool        `json:"connected"`
	TimeLeft  int         `json:"timeLeft"`
}

type PlayerColor string

const (
	PlayerColorWhite PlayerColor = "white"
	PlayerColorBlack PlayerColor = "black"
)

// Opponent returns the other side. Anything that is not white is treated as black.
func (c PlayerColor) Opponent() PlayerColor {
	if c == PlayerColorWhite {
		return PlayerColorBlack
	}
	return PlayerColorWhite
}

package ws

import (
	"encoding/json"
)

// MessageType represents the different kinds of messages our system can handle
type MessageType string

const (
	MessageTypeMove       MessageType = "move"
	MessageTypeValidMoves MessageType = "validMoves"
	MessageTypeReady      MessageType = "ready"
	MessageTypeReset      MessageType = "reset"
	MessageTypeGameState  MessageType = "gameState"
	MessageTypeMatchFound MessageType = "matchFound"
	MessageTypeError      MessageType = "error"
)

// Message represents a WebSocket message in our system
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ValidMovesRequest asks for the destinations of the piece on Position.
type ValidMovesRequest struct {
	Position [2]int `json:"position"`
}

type ValidMovesResponse struct {
	Position [2]int   `json:"position"`
	Moves    [][2]int `json:"moves"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// NewMessage marshals payload into a message of the given type.
func NewMessage(t MessageType, payload interface{}) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: t, Payload: raw}, nil
}

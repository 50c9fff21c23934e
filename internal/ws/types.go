package ws

import (
	"encoding/json"
)

// MessageType represents the different kinds of messages our system can handle
type MessageType string

const (
	MessageTypeMove      MessageType = "move"
	MessageTypeUndo      MessageType = "undo"
	MessageTypeResign    MessageType = "resign"
	MessageTypeGameState MessageType = "gameState"
	MessageTypeError     MessageType = "error"
)

// Message represents a WebSocket message in our system
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// MovePayload carries a move in algebraic squares, e.g. {"from":"e7","to":"e8","promotion":"N"}.
type MovePayload struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func NewErrorMessage(errorMsg string) Message {
	payload, _ := json.Marshal(ErrorPayload{Error: errorMsg})
	return Message{Type: MessageTypeError, Payload: payload}
}

package feed

import (
	"encoding/json"
	"time"

	"github.com/lox/blackjack/internal/engine"
)

// MessageType identifies a feed message
type MessageType string

const (
	MessageTypeSnapshot    MessageType = "snapshot"
	MessageTypeRoundResult MessageType = "round_result"
)

// Message is the envelope written to every spectator
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage encodes data into a message stamped with ts
func NewMessage(messageType MessageType, data any, ts time.Time) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: ts,
	}, nil
}

// SnapshotData carries the table after an action
type SnapshotData struct {
	Action string            `json:"action"`
	State  engine.RoundState `json:"state"`
}

// RoundResultData carries the settlement of a round
type RoundResultData struct {
	RoundID string              `json:"roundId"`
	Results []engine.HandResult `json:"results"`
	Net     int                 `json:"net"`
	Balance int                 `json:"balance"`
}

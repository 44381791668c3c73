package events

import (
	"encoding/json"
	"time"

	"finledger/ledger"
)

// LedgerEventMessage is the wire shape of a ledger change published to AMQP.
// It carries only identifiers; consumers fetch the full transaction from the
// API if they need it.
type LedgerEventMessage struct {
	Kind          string    `json:"kind"`
	TransactionID string    `json:"transaction_id"`
	OccurredAt    time.Time `json:"occurred_at"`
	PublishedAt   time.Time `json:"published_at"`
}

// NewLedgerEventMessage builds a message from a store change event.
func NewLedgerEventMessage(ev ledger.ChangeEvent) *LedgerEventMessage {
	return &LedgerEventMessage{
		Kind:          ev.Kind.String(),
		TransactionID: ev.TransactionID,
		OccurredAt:    ev.OccurredAt,
		PublishedAt:   time.Now().UTC(),
	}
}

// ToJSON serializes the message.
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON deserializes a message.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

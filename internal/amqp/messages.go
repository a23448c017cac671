package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fundledger/internal/core"
)

// TransactionRecordedMessage announces a transaction that has been durably
// appended to its collection. It carries the full record so consumers never
// need access to the primary store.
type TransactionRecordedMessage struct {
	EventID     string             `json:"event_id"`
	Collection  string             `json:"collection"`
	Transaction TransactionPayload `json:"transaction"`
	Timestamp   time.Time          `json:"timestamp"`
}

// TransactionPayload is the wire form of core.Transaction.
type TransactionPayload struct {
	ID                string `json:"id"`
	Kind              string `json:"kind"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	Project           string `json:"project"`
	AmountCents       int64  `json:"amount_cents"`
	Timestamp         string `json:"timestamp"`
	Status            string `json:"status,omitempty"`
	TransactionNumber string `json:"transaction_number,omitempty"`
	Mode              string `json:"mode,omitempty"`
}

// NewTransactionRecordedMessage wraps t with a fresh event id.
func NewTransactionRecordedMessage(collection string, t core.Transaction) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		EventID:    uuid.NewString(),
		Collection: collection,
		Transaction: TransactionPayload{
			ID:                t.ID,
			Kind:              string(t.Kind),
			Name:              t.Name,
			Email:             t.Email,
			Phone:             t.Phone,
			Project:           t.Project,
			AmountCents:       t.Amount.Cents,
			Timestamp:         t.Timestamp,
			Status:            t.Status,
			TransactionNumber: t.TransactionNumber,
			Mode:              string(t.Mode),
		},
		Timestamp: time.Now(),
	}
}

// Record converts the payload back into a domain transaction.
func (m *TransactionRecordedMessage) Record() core.Transaction {
	p := m.Transaction
	return core.Transaction{
		ID:                p.ID,
		Kind:              core.Kind(p.Kind),
		Name:              p.Name,
		Email:             p.Email,
		Phone:             p.Phone,
		Project:           p.Project,
		Amount:            core.Money{Cents: p.AmountCents},
		Timestamp:         p.Timestamp,
		Status:            p.Status,
		TransactionNumber: p.TransactionNumber,
		Mode:              core.PaymentMode(p.Mode),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionRecordedMessageFromJSON decodes and sanity-checks a message.
func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !core.Kind(msg.Transaction.Kind).IsValid() {
		return nil, fmt.Errorf("message %s: %w", msg.EventID, core.ErrInvalidKind)
	}
	return &msg, nil
}

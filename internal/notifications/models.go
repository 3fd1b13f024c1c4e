package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Template names understood by the downstream message workers.
type Template string

const (
	TemplateBookingConfirmed       Template = "BOOKING_CONFIRMED"
	TemplateBookingCancelled       Template = "BOOKING_CANCELLED"
	TemplateSupplierActionRequired Template = "SUPPLIER_ACTION_REQUIRED"
	TemplateRefundIssued           Template = "REFUND_ISSUED"
)

// Message is one queued notification. Delivery (email/SMS rendering) is a
// downstream consumer's job; this side only enqueues.
type Message struct {
	ID        uuid.UUID              `json:"id"`
	Template  Template               `json:"template"`
	BookingID *uuid.UUID             `json:"booking_id,omitempty"`
	UserID    *uuid.UUID             `json:"user_id,omitempty"`
	Payload   map[string]interface{} `json:"payload"`
	CreatedAt time.Time              `json:"created_at"`
}

func NewMessage(template Template, payload map[string]interface{}) *Message {
	return &Message{
		ID:        uuid.New(),
		Template:  template,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}

func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PartitionKey routes all messages for one booking to the same partition so
// lifecycle notifications stay ordered.
func (m *Message) PartitionKey() string {
	if m.BookingID != nil {
		return m.BookingID.String()
	}
	if m.UserID != nil {
		return m.UserID.String()
	}
	return m.ID.String()
}

// Package notify decouples order placement from message delivery: intents are
// pushed to a Redis-backed delayed queue and a worker drains due envelopes to
// a Mailer. Enqueue failures are the caller's to log; a committed order is
// never affected by them.
package notify

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindOrderConfirmation Kind = "order_confirmation"
	KindPasswordReset     Kind = "password_reset"
)

type OrderConfirmation struct {
	OrderCode  string          `json:"order_code"`
	BookName   string          `json:"book_name"`
	BookAuthor string          `json:"book_author"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type PasswordReset struct {
	Token string `json:"token"`
}

// Envelope is the unit stored in the queue. Exactly one payload field is set,
// matching Kind.
type Envelope struct {
	ID        string             `json:"id"`
	Kind      Kind               `json:"kind"`
	Recipient string             `json:"recipient"`
	DueAt     time.Time          `json:"due_at"`
	Order     *OrderConfirmation `json:"order,omitempty"`
	Reset     *PasswordReset     `json:"reset,omitempty"`
}

type Notifier interface {
	ScheduleOrderConfirmation(ctx context.Context, recipient string, msg OrderConfirmation, delay time.Duration) error
	SchedulePasswordReset(ctx context.Context, email, token string, delay time.Duration) error
}

// Mailer delivers one envelope. Real SMTP lives behind this boundary.
type Mailer interface {
	Send(ctx context.Context, env Envelope) error
}

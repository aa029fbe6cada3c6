package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// LogMailer writes the rendered message to the log instead of sending real
// mail. It is the default Mailer; an SMTP implementation slots in behind the
// same interface.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (m *LogMailer) Send(_ context.Context, env Envelope) error {
	switch env.Kind {
	case KindOrderConfirmation:
		if env.Order == nil {
			return fmt.Errorf("mailer: order confirmation envelope %s has no payload", env.ID)
		}
		log.Info().
			Str("recipient", env.Recipient).
			Str("order_code", env.Order.OrderCode).
			Str("book_name", env.Order.BookName).
			Str("book_author", env.Order.BookAuthor).
			Int("quantity", env.Order.Quantity).
			Str("total_price", env.Order.TotalPrice.StringFixed(2)).
			Msg("mail: your order is confirmed")
	case KindPasswordReset:
		if env.Reset == nil {
			return fmt.Errorf("mailer: password reset envelope %s has no payload", env.ID)
		}
		log.Info().
			Str("recipient", env.Recipient).
			Str("token", env.Reset.Token).
			Msg("mail: password reset link")
	default:
		return fmt.Errorf("mailer: unknown envelope kind %q", env.Kind)
	}

	return nil
}

package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// Order is an immutable receipt. Book fields are a snapshot taken at
// placement time; later changes to the book never alter them.
type Order struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	Code       string          `json:"code" db:"code"`
	UserID     uuid.UUID       `json:"user_id" db:"user_id"`
	CartID     uuid.UUID       `json:"cart_id" db:"cart_id"`
	AddressID  uuid.UUID       `json:"address_id" db:"address_id"`
	BookID     uuid.UUID       `json:"book_id" db:"book_id"`
	BookName   string          `json:"book_name" db:"book_name"`
	BookAuthor string          `json:"book_author" db:"book_author"`
	BookPrice  decimal.Decimal `json:"book_price" db:"book_price"`
	Quantity   int             `json:"quantity" db:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

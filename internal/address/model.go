package address

import (
	"time"

	"github.com/gofrs/uuid"
)

type Address struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Address     string    `json:"address" db:"address"`
	City        string    `json:"city" db:"city"`
	State       string    `json:"state" db:"state"`
	Landmark    string    `json:"landmark" db:"landmark"`
	Pincode     string    `json:"pincode" db:"pincode"`
	AddressType string    `json:"address_type" db:"address_type"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// User rows are created by the external auth provider's sync; this service
// only reads and debits the credit balance.
type User struct {
	ID            uuid.UUID `db:"id"`
	Email         string    `db:"email"`
	CreditBalance int       `db:"credit_balance"`
	CreatedAt     time.Time `db:"created_at"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Order links a user to a product they bought. Both references are set by
// server context, never taken from the request body.
type Order struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	ProductID *uuid.UUID `json:"product_id" db:"product_id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

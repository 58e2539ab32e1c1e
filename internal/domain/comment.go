package domain

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a user's remark on a product. Author is a derived read-only
// field (the owning user's display name) filled in by the repository join.
type Comment struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Content   string    `json:"content" db:"content"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Author    string    `json:"author,omitempty" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

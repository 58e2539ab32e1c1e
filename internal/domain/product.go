package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a product in the catalog. Slug is derived from the
// title when the product is created and serves as the public identifier.
type Product struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Slug        string     `json:"slug" db:"slug"`
	Description string     `json:"description" db:"description"`
	ImageURL    string     `json:"image_url" db:"image_url"`
	Price       float64    `json:"price" db:"price"`
	CategoryID  *uuid.UUID `json:"category_id" db:"category_id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Category groups products. Name is unique and used for lookups.
type Category struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

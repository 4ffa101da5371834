package entity

import (
	"time"

	"github.com/google/uuid"
)

// Receipt represents a tracked purchase for data transfer between layers.
type Receipt struct {
	ID                 uuid.UUID `json:"id"`
	UserID             uuid.UUID `json:"user_id"`
	ProductName        string    `json:"product_name"`
	Category           string    `json:"category"`
	WarrantyExpiration time.Time `json:"warranty_expiration_date" db:"warranty_expiration_date"`
	ImagePath          *string   `json:"image_path,omitempty"`
	CreatedAt          time.Time `json:"created_at"`

	// Derived at read time, never persisted. Warranty status depends on
	// the wall clock at the moment of the read, so a stored value would
	// be stale by construction.
	Status      string `json:"status,omitempty" db:"-"`
	StatusLabel string `json:"status_label,omitempty" db:"-"`
	ImageURL    string `json:"image_url,omitempty" db:"-"`
}

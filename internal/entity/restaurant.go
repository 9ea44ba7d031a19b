package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Restaurant represents one venue stored in the catalogue.
type Restaurant struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	City        string          `json:"city"`
	Locality    string          `json:"locality"`
	PriceBucket *string         `json:"price_bucket,omitempty"`
	Rating      *float64        `json:"rating,omitempty"`
	Votes       *int            `json:"votes,omitempty"`
	Cuisines    []string        `json:"cuisines"`
	Phone       *string         `json:"phone,omitempty"`
	Website     *string         `json:"website,omitempty"`
	Address     *string         `json:"address,omitempty"`
	Raw         json.RawMessage `json:"raw"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

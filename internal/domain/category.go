package domain

import "time"

type CategoryStatus string

const (
	CategoryActive   CategoryStatus = "active"
	CategoryInactive CategoryStatus = "inactive"
)

// Category groups products. A nil ParentID marks a top-level category.
type Category struct {
	ID          int64          `json:"id"`
	Slug        string         `json:"slug"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	ParentID    *int64         `json:"parentId,omitempty"`
	Status      CategoryStatus `json:"status"`
	ImageURL    string         `json:"imageUrl,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

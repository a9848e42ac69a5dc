package domain

import "time"

// Customer is a registered storefront user. The contact fields prefill checkout.
type Customer struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone,omitempty"`
	AddressLine  string    `json:"addressLine,omitempty"`
	Ward         string    `json:"ward,omitempty"`
	City         string    `json:"city,omitempty"`
	Country      string    `json:"country,omitempty"`
	PostalCode   string    `json:"postalCode,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

package domain

import "time"

// ProductStatus is the catalog lifecycle state of a product.
type ProductStatus string

const (
	ProductActive       ProductStatus = "active"
	ProductDiscontinued ProductStatus = "discontinued"
)

// Product is a catalog item. Price and Discount are absolute amounts in minor units;
// Stock is the live available quantity.
type Product struct {
	ID          int64         `json:"id"`
	SKU         string        `json:"sku"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Price       int64         `json:"price"`
	Discount    int64         `json:"discount,omitempty"`
	Stock       int           `json:"stock"`
	Status      ProductStatus `json:"status"`
	Images      []string      `json:"images,omitempty"`
	CategoryID  *int64        `json:"categoryId,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

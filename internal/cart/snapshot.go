package cart

// Status is the catalog lifecycle state captured with a product.
type Status string

const (
	StatusActive       Status = "active"
	StatusDiscontinued Status = "discontinued"
)

// ProductSnapshot is the view of a catalog item at the moment it entered the cart.
// Quantity is the stock captured at that moment; it is never refreshed.
// Price is what a line charges per unit. Discount is an absolute amount kept for
// display; no cart arithmetic reads it.
type ProductSnapshot struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Price    int64    `json:"price"`
	Discount int64    `json:"discount,omitempty"`
	Quantity int      `json:"quantity"`
	Status   Status   `json:"status"`
	Images   []string `json:"images,omitempty"`
}

func (p ProductSnapshot) clone() ProductSnapshot {
	out := p
	if p.Images != nil {
		out.Images = append([]string(nil), p.Images...)
	}
	return out
}

// Line is one product, its quantity and the unit price captured when it was added.
type Line struct {
	ID        int64           `json:"id"`
	Product   ProductSnapshot `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice int64           `json:"unitPrice"`
}

// Subtotal is UnitPrice times Quantity.
func (l Line) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

func (l Line) clone() Line {
	l.Product = l.Product.clone()
	return l
}

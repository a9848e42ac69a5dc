package checkout

import cartstore "storefront/internal/cart"

const (
	// ShippingFee is charged on orders whose subtotal does not exceed FreeShippingOver.
	ShippingFee      int64 = 30000
	FreeShippingOver int64 = 500000
)

// Summary is the price breakdown shown before an order is placed.
type Summary struct {
	Lines           []cartstore.Line `json:"lines"`
	TotalItems      int              `json:"totalItems"`
	Subtotal        int64            `json:"subtotal"`
	ShippingFee     int64            `json:"shippingFee"`
	Total           int64            `json:"total"`
	FreeShippingGap int64            `json:"freeShippingGap"`
}

func Summarize(lines []cartstore.Line) Summary {
	s := Summary{Lines: lines}
	if s.Lines == nil {
		s.Lines = []cartstore.Line{}
	}
	for _, l := range lines {
		s.TotalItems += l.Quantity
		s.Subtotal += l.Subtotal()
	}
	s.ShippingFee = shippingFor(s.Subtotal)
	s.Total = s.Subtotal + s.ShippingFee
	s.FreeShippingGap = FreeShippingGap(s.Subtotal)
	return s
}

// FreeShippingGap is how much more must be spent before shipping is free. It is
// zero once shipping is already free.
func FreeShippingGap(subtotal int64) int64 {
	if subtotal > FreeShippingOver {
		return 0
	}
	return FreeShippingOver - subtotal + 1
}

func shippingFor(subtotal int64) int64 {
	if subtotal > FreeShippingOver {
		return 0
	}
	return ShippingFee
}

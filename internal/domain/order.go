package domain

import "time"

// OrderStatus tracks an order from submission to delivery or cancellation.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderProcessed OrderStatus = "processed"
	OrderDelivered OrderStatus = "delivered"
	OrderCanceled  OrderStatus = "canceled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessed, OrderDelivered, OrderCanceled:
		return true
	}
	return false
}

// PaymentMethod is recorded on the order; no gateway is contacted.
type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "cod"
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentPayPal       PaymentMethod = "paypal"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentMoMo         PaymentMethod = "momo"
	PaymentVNPay        PaymentMethod = "vnpay"
)

// Valid reports whether m is one of the accepted payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentCreditCard, PaymentPayPal, PaymentBankTransfer, PaymentMoMo, PaymentVNPay:
		return true
	}
	return false
}

// ShippingDetails is the delivery contact captured at checkout.
type ShippingDetails struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone"`
	AddressLine string `json:"addressLine"`
	Ward        string `json:"ward,omitempty"`
	City        string `json:"city"`
	Note        string `json:"note,omitempty"`
}

type Order struct {
	ID            string          `json:"id"`
	CustomerID    string          `json:"customerId"`
	Status        OrderStatus     `json:"status"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Shipping      ShippingDetails `json:"shipping"`
	Subtotal      int64           `json:"subtotal"`
	ShippingFee   int64           `json:"shippingFee"`
	Total         int64           `json:"total"`
	Items         []OrderItem     `json:"items,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	CanceledAt    *time.Time      `json:"canceledAt,omitempty"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty"`
	DeliveredAt   *time.Time      `json:"deliveredAt,omitempty"`
}

// OrderItem is one order line at the unit price captured in the cart.
type OrderItem struct {
	ID        string `json:"id"`
	OrderID   string `json:"orderId"`
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

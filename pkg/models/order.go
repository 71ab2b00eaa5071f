package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderShipped   OrderStatus = "Shipped"
	OrderDelivered OrderStatus = "Delivered"
	OrderCancelled OrderStatus = "Cancelled"
)

var orderStatuses = []OrderStatus{OrderPending, OrderShipped, OrderDelivered, OrderCancelled}

// ParseOrderStatus accepts any casing of the four status tags.
func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, st := range orderStatuses {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// NormalizeStoredStatus maps legacy or mis-cased stored values onto the
// canonical tags. Documents written before statuses were introduced carry
// "placed" or nothing at all.
func NormalizeStoredStatus(s OrderStatus) OrderStatus {
	if s == "" || strings.EqualFold(string(s), "placed") {
		return OrderPending
	}
	if st, err := ParseOrderStatus(string(s)); err == nil {
		return st
	}
	return s
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending: {OrderShipped, OrderCancelled},
	OrderShipped: {OrderDelivered, OrderCancelled},
}

// CanTransitionTo reports whether next is reachable from s in one step.
// Nothing leads back to Pending and terminal states have no exits.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type StockEffect int

const (
	StockNone StockEffect = iota
	StockDeduct
	StockRestore
)

func (e StockEffect) String() string {
	switch e {
	case StockDeduct:
		return "deduct"
	case StockRestore:
		return "restore"
	default:
		return "none"
	}
}

// StockEffectFor returns the inventory side effect of moving from -> to.
// Stock leaves the shelf only when an order ships, so only a shipped order
// gives it back on cancellation.
func StockEffectFor(from, to OrderStatus) StockEffect {
	switch {
	case from == OrderPending && to == OrderShipped:
		return StockDeduct
	case from == OrderShipped && to == OrderCancelled:
		return StockRestore
	default:
		return StockNone
	}
}

// MaxLineQuantity caps the units of one cart or order line.
const MaxLineQuantity = 10000

type OrderItem struct {
	ProductID string  `json:"id" bson:"id"`
	Name      string  `json:"name" bson:"name"`
	Price     float64 `json:"price" bson:"price"`
	Image     string  `json:"image" bson:"image"`
	Quantity  int     `json:"quantity" bson:"quantity" binding:"min=1,max=10000"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return decimal.NewFromFloat(i.Price).Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type BillingInfo struct {
	Name       string `json:"name" bson:"name" binding:"required"`
	Email      string `json:"email" bson:"email" binding:"required,email"`
	Address    string `json:"address" bson:"address" binding:"required"`
	City       string `json:"city" bson:"city" binding:"required"`
	PostalCode string `json:"postalCode" bson:"postal_code"`
	Country    string `json:"country" bson:"country"`
}

// Order is a snapshot taken at checkout. Only Status changes afterwards.
type Order struct {
	ID            int64       `json:"id" bson:"id"`
	Items         []OrderItem `json:"items" bson:"items"`
	Total         float64     `json:"total" bson:"total"`
	PaymentMethod string      `json:"paymentMethod" bson:"payment_method"`
	BillingInfo   BillingInfo `json:"billingInfo" bson:"billing_info"`
	Date          time.Time   `json:"date" bson:"date"`
	Status        OrderStatus `json:"status" bson:"status"`
}

// ItemsTotal sums price*quantity over the line items.
func (o *Order) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range o.Items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// PlaceOrderInput is the checkout payload.
type PlaceOrderInput struct {
	Items         []OrderItem `json:"items" binding:"required,min=1,dive"`
	Total         float64     `json:"total" binding:"gte=0"`
	PaymentMethod string      `json:"paymentMethod" binding:"required"`
	BillingInfo   BillingInfo `json:"billingInfo" binding:"required"`
}

// Validate checks the parts of the payload that struct tags cannot express.
func (in *PlaceOrderInput) Validate() error {
	if len(in.Items) == 0 {
		return fmt.Errorf("order must contain at least one item")
	}
	var problems []string
	for i, item := range in.Items {
		if item.ProductID == "" {
			problems = append(problems, fmt.Sprintf("item %d: id is required", i))
		}
		if item.Name == "" {
			problems = append(problems, fmt.Sprintf("item %d: name is required", i))
		}
		if item.Price < 0 {
			problems = append(problems, fmt.Sprintf("item %d: price cannot be negative", i))
		}
		if item.Quantity < 1 {
			problems = append(problems, fmt.Sprintf("item %d: quantity must be at least 1", i))
		}
		if item.Quantity > MaxLineQuantity {
			problems = append(problems, fmt.Sprintf("item %d: quantity must be at most %d", i, MaxLineQuantity))
		}
	}
	if in.PaymentMethod == "" {
		problems = append(problems, "paymentMethod is required")
	}
	b := in.BillingInfo
	if b.Name == "" || b.Email == "" || b.Address == "" || b.City == "" {
		problems = append(problems, "billingInfo name, email, address and city are required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, ", "))
	}

	order := Order{Items: in.Items}
	expected := order.ItemsTotal().Round(2)
	if !decimal.NewFromFloat(in.Total).Round(2).Equal(expected) {
		return fmt.Errorf("total %.2f does not match items total %s", in.Total, expected.StringFixed(2))
	}
	return nil
}

package events

import (
	"strconv"

	"github.com/example/storefront/pkg/models"
)

// Event is a domain fact worth keeping in the audit log.
type Event interface {
	Action() string
	EntityID() string
	Fields() map[string]interface{}
}

type OrderPlaced struct {
	UserID  string
	OrderID int64
	Total   float64
	Items   int
}

func (e OrderPlaced) Action() string   { return "order.placed" }
func (e OrderPlaced) EntityID() string { return strconv.FormatInt(e.OrderID, 10) }
func (e OrderPlaced) Fields() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"total":   e.Total,
		"items":   e.Items,
	}
}

type OrderStatusChanged struct {
	UserID  string
	OrderID int64
	From    models.OrderStatus
	To      models.OrderStatus
	Stock   models.StockEffect
}

func (e OrderStatusChanged) Action() string   { return "order.status_changed" }
func (e OrderStatusChanged) EntityID() string { return strconv.FormatInt(e.OrderID, 10) }
func (e OrderStatusChanged) Fields() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"from":    string(e.From),
		"to":      string(e.To),
		"stock":   e.Stock.String(),
	}
}

type UserBlockChanged struct {
	UserID  string
	Blocked bool
	ActorID string
}

func (e UserBlockChanged) Action() string   { return "user.block_changed" }
func (e UserBlockChanged) EntityID() string { return e.UserID }
func (e UserBlockChanged) Fields() map[string]interface{} {
	return map[string]interface{}{
		"blocked": e.Blocked,
		"by":      e.ActorID,
	}
}

const (
	ProductCreated = "created"
	ProductUpdated = "updated"
	ProductDeleted = "deleted"
)

type ProductChanged struct {
	ProductID string
	Change    string
}

func (e ProductChanged) Action() string   { return "product." + e.Change }
func (e ProductChanged) EntityID() string { return e.ProductID }
func (e ProductChanged) Fields() map[string]interface{} {
	return map[string]interface{}{}
}

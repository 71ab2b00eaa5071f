package models

import "time"

// StockMovement is one ledger row describing a stock change caused by an
// order transition.
type StockMovement struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID string    `gorm:"type:varchar(24);not null;index" json:"productId"`
	UserID    string    `gorm:"type:varchar(24);not null" json:"userId"`
	OrderID   int64     `gorm:"not null;index" json:"orderId"`
	Delta     int       `gorm:"not null" json:"delta"`
	Reason    string    `gorm:"type:varchar(32);not null" json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

func (StockMovement) TableName() string {
	return "stock_movements"
}

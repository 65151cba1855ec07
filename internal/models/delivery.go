package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Delivery is a dated quantity/price record attached to a Location.
type Delivery struct {
	ID          int64           `gorm:"primaryKey" json:"id"`
	LocationID  int64           `gorm:"index;not null" json:"location_id"`
	KgDelivered decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"kg_delivered"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	DeliveredAt time.Time       `gorm:"index;not null" json:"delivered_at"`
}

// TableName pins the table name used by the table store.
func (Delivery) TableName() string { return "deliveries" }

// SumKg adds up kg_delivered over ds.
func SumKg(ds []Delivery) decimal.Decimal {
	total := decimal.Zero
	for _, d := range ds {
		total = total.Add(d.KgDelivered)
	}
	return total
}

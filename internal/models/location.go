package models

// Location is a physical delivery destination.
type Location struct {
	ID      int64  `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:255;not null" json:"name"`
	Address string `gorm:"size:255" json:"address"`
	City    string `gorm:"size:255;not null" json:"city"`

	Deliveries []Delivery `gorm:"foreignKey:LocationID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName pins the table name used by the table store.
func (Location) TableName() string { return "locations" }

// Description joins address and city the way the location list shows them.
func (l *Location) Description() string {
	switch {
	case l.Address != "" && l.City != "":
		return l.Address + " — " + l.City
	case l.Address != "":
		return l.Address
	default:
		return l.City
	}
}

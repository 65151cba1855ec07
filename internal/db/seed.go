package db

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/diewo77/go-deliveries/internal/models"
)

type seedLocation struct {
	location models.Location
	kg       []int64
}

var demoLocations = []seedLocation{
	{models.Location{Name: "Pekara Centar", Address: "Zmaj Jovina 12", City: "Novi Sad"}, []int64{10, 15, 5}},
	{models.Location{Name: "Market Liman", Address: "Bulevar cara Lazara 40", City: "Novi Sad"}, []int64{20, 25}},
	{models.Location{Name: "Kafana Dorćol", City: "Beograd"}, []int64{5}},
}

// Seed inserts demo locations with a few deliveries each. Locations are
// matched by name, so running it twice changes nothing.
func Seed(db *gorm.DB, now time.Time, kgPerSack, perSack decimal.Decimal) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, s := range demoLocations {
			var count int64
			if err := tx.Model(&models.Location{}).Where("name = ?", s.location.Name).Count(&count).Error; err != nil {
				return fmt.Errorf("seed lookup %q: %w", s.location.Name, err)
			}
			if count > 0 {
				continue
			}
			loc := s.location
			if err := tx.Create(&loc).Error; err != nil {
				return fmt.Errorf("seed location %q: %w", loc.Name, err)
			}
			y, m, d := now.Date()
			for i, kg := range s.kg {
				qty := decimal.NewFromInt(kg)
				day := time.Date(y, m, d-7*i, 0, 0, 0, 0, now.Location())
				delivery := models.Delivery{
					LocationID:  loc.ID,
					KgDelivered: qty,
					Price:       qty.Div(kgPerSack).Mul(perSack).Round(2),
					DeliveredAt: day.UTC(),
				}
				if err := tx.Create(&delivery).Error; err != nil {
					return fmt.Errorf("seed delivery for %q: %w", loc.Name, err)
				}
			}
		}
		return nil
	})
}

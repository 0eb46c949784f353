package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CanonicalProduct is the canonical-catalog entry that may hold the
// authoritative SKU before it is copied onto the internal Product.
type CanonicalProduct struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CustomSKU *string   `gorm:"column:custom_sku;index"`
	AltSKU    *string   `gorm:"column:alt_sku;index"`
	Title     string    `gorm:"column:title;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *CanonicalProduct) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is the internal catalog listing photos are routed to.
type Product struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CanonicalSKU  *string   `gorm:"column:canonical_sku;uniqueIndex"`
	LegacyRootSKU string    `gorm:"column:legacy_root_sku;not null;index"`
	Title         string    `gorm:"column:title;not null"`
	Slug          string    `gorm:"column:slug;not null"`
	Images        []Image   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

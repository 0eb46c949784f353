package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SupplierOffer links a canonical catalog entry to the internal product it is
// fulfilled by. Resolution traverses canonical product -> offer -> product.
type SupplierOffer struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CanonicalProductID uuid.UUID `gorm:"column:canonical_product_id;type:uuid;not null;index"`
	ProductID          uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	SupplierName       string    `gorm:"column:supplier_name;not null"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *SupplierOffer) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

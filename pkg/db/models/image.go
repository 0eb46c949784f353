package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Image is a product photo ingested from the remote drop folder. The physical
// file is the source of truth; a row whose file is gone is an orphan.
type Image struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	ProductID   uuid.UUID      `gorm:"column:product_id;type:uuid;not null;index:idx_images_product_hash,priority:1"`
	Path        string         `gorm:"column:path;not null"`
	PublicURL   string         `gorm:"column:public_url;not null"`
	MimeType    string         `gorm:"column:mime_type;not null"`
	SizeBytes   int64          `gorm:"column:size_bytes;not null"`
	ContentHash string         `gorm:"column:content_hash;not null;index:idx_images_product_hash,priority:2"`
	Active      bool           `gorm:"column:active;not null;default:true"`
	IsPrimary   bool           `gorm:"column:is_primary;not null;default:false"`
	Versions    []ImageVersion `gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE"`
	Review      *ImageReview   `gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

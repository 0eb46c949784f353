package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/victorsanmartin/ferromart-backend/pkg/enums"
)

// ImageReview is the per-image review gate. The pipeline only ever creates it
// as pending; operators transition it elsewhere.
type ImageReview struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ImageID   uuid.UUID          `gorm:"column:image_id;type:uuid;not null;uniqueIndex"`
	Status    enums.ReviewStatus `gorm:"column:status;not null;default:pending"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *ImageReview) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

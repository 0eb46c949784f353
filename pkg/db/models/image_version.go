package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/victorsanmartin/ferromart-backend/pkg/enums"
)

// ImageVersion is a derivative of an Image. One row per (image, kind).
type ImageVersion struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	ImageID   uuid.UUID              `gorm:"column:image_id;type:uuid;not null;uniqueIndex:idx_image_versions_image_kind,priority:1"`
	Kind      enums.ImageVersionKind `gorm:"column:kind;not null;uniqueIndex:idx_image_versions_image_kind,priority:2"`
	Path      string                 `gorm:"column:path;not null"`
	MimeType  string                 `gorm:"column:mime_type;not null"`
	SizeBytes int64                  `gorm:"column:size_bytes;not null"`
	Width     int                    `gorm:"column:width;not null;default:0"`
	Height    int                    `gorm:"column:height;not null;default:0"`
	SourceURL *string                `gorm:"column:source_url"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (v *ImageVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

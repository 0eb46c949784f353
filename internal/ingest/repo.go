package ingest

import (
	"context"
	stdErrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/victorsanmartin/ferromart-backend/internal/repo"
	"github.com/victorsanmartin/ferromart-backend/pkg/db/models"
	"github.com/victorsanmartin/ferromart-backend/pkg/errors"
)

// Repo exposes the persistence operations the pipeline consumes.
type Repo struct {
	repo.Base
}

func NewRepo(db *gorm.DB) Repo {
	return Repo{Base: repo.NewBase(db)}
}

// WithTx rebinds the repo to a transaction.
func (r Repo) WithTx(tx *gorm.DB) Repo {
	return Repo{Base: r.Base.WithTx(tx)}
}

func (r Repo) ProductByCanonicalSKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	err := r.DB(ctx).Where("canonical_sku = ?", sku).First(&product).Error
	if err != nil {
		return nil, wrapLookup(err, "product by canonical sku")
	}
	return &product, nil
}

func (r Repo) ProductByCanonicalSKUFold(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	err := r.DB(ctx).Where("UPPER(canonical_sku) = UPPER(?)", sku).First(&product).Error
	if err != nil {
		return nil, wrapLookup(err, "product by canonical sku (case-insensitive)")
	}
	return &product, nil
}

func (r Repo) ProductByLegacySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	err := r.DB(ctx).Where("legacy_root_sku = ?", sku).First(&product).Error
	if err != nil {
		return nil, wrapLookup(err, "product by legacy root sku")
	}
	return &product, nil
}

func (r Repo) ProductByLegacySKUFold(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	err := r.DB(ctx).Where("UPPER(legacy_root_sku) = UPPER(?)", sku).First(&product).Error
	if err != nil {
		return nil, wrapLookup(err, "product by legacy root sku (case-insensitive)")
	}
	return &product, nil
}

func (r Repo) ProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.DB(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		return nil, wrapLookup(err, "product by id")
	}
	return &product, nil
}

// CanonicalProductBySKU matches the canonical catalog on either the custom or
// the alternate SKU field.
func (r Repo) CanonicalProductBySKU(ctx context.Context, sku string) (*models.CanonicalProduct, error) {
	var canonical models.CanonicalProduct
	err := r.DB(ctx).Where("custom_sku = ? OR alt_sku = ?", sku, sku).First(&canonical).Error
	if err != nil {
		return nil, wrapLookup(err, "canonical product by sku")
	}
	return &canonical, nil
}

// OfferByCanonicalProduct traverses the equivalence link from a canonical
// catalog entry to a supplier offer.
func (r Repo) OfferByCanonicalProduct(ctx context.Context, canonicalID uuid.UUID) (*models.SupplierOffer, error) {
	var offer models.SupplierOffer
	err := r.DB(ctx).Where("canonical_product_id = ?", canonicalID).First(&offer).Error
	if err != nil {
		return nil, wrapLookup(err, "supplier offer by canonical product")
	}
	return &offer, nil
}

// BackfillCanonicalSKU copies a catalog-resolved SKU onto the product so the
// next lookup hits the direct index.
func (r Repo) BackfillCanonicalSKU(ctx context.Context, productID uuid.UUID, sku string) error {
	err := r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ? AND canonical_sku IS NULL", productID).
		Update("canonical_sku", sku).Error
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "backfilling canonical sku")
	}
	return nil
}

func (r Repo) ImageByProductAndHash(ctx context.Context, productID uuid.UUID, hash string) (*models.Image, error) {
	var image models.Image
	err := r.DB(ctx).
		Where("product_id = ? AND content_hash = ? AND active = ?", productID, hash, true).
		First(&image).Error
	if err != nil {
		return nil, wrapLookup(err, "image by product and hash")
	}
	return &image, nil
}

func (r Repo) HasImages(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Image{}).
		Where("product_id = ? AND active = ?", productID, true).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(errors.CodeInternal, err, "counting product images")
	}
	return count > 0, nil
}

func (r Repo) CreateImage(ctx context.Context, image *models.Image) error {
	if err := r.DB(ctx).Create(image).Error; err != nil {
		return errors.Wrap(errors.CodeInternal, err, "creating image")
	}
	return nil
}

// DeleteImage removes an image row and its dependents. Used by orphan repair.
func (r Repo) DeleteImage(ctx context.Context, imageID uuid.UUID) error {
	conn := r.DB(ctx)
	if err := conn.Where("image_id = ?", imageID).Delete(&models.ImageVersion{}).Error; err != nil {
		return errors.Wrap(errors.CodeInternal, err, "deleting image versions")
	}
	if err := conn.Where("image_id = ?", imageID).Delete(&models.ImageReview{}).Error; err != nil {
		return errors.Wrap(errors.CodeInternal, err, "deleting image review")
	}
	if err := conn.Where("id = ?", imageID).Delete(&models.Image{}).Error; err != nil {
		return errors.Wrap(errors.CodeInternal, err, "deleting image")
	}
	return nil
}

func (r Repo) CreateImageVersion(ctx context.Context, version *models.ImageVersion) error {
	if err := r.DB(ctx).Create(version).Error; err != nil {
		return errors.Wrap(errors.CodeInternal, err, "creating image version")
	}
	return nil
}

func (r Repo) CreateImageReview(ctx context.Context, review *models.ImageReview) error {
	if err := r.DB(ctx).Create(review).Error; err != nil {
		return errors.Wrap(errors.CodeInternal, err, "creating image review")
	}
	return nil
}

func wrapLookup(err error, what string) error {
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(errors.CodeNotFound, err, what+": not found")
	}
	return errors.Wrap(errors.CodeInternal, err, what)
}

package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorsanmartin/ferromart-backend/pkg/db/models"
	"github.com/victorsanmartin/ferromart-backend/pkg/errors"
)

func TestImageByProductAndHashIgnoresInactive(t *testing.T) {
	conn := openTestDB(t)
	product := seedProduct(t, conn, "ABC_1234_XYZ", "l1")

	image := seedImage(t, conn, product, "hash-1", "p.jpg")
	require.NoError(t, conn.Model(&models.Image{}).
		Where("id = ?", image.ID).
		Update("active", false).Error)

	r := NewRepo(conn)
	_, err := r.ImageByProductAndHash(context.Background(), product.ID, "hash-1")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound),
		"soft-deleted images do not participate in dedup")
}

func TestBackfillCanonicalSKUOnlyWhenNull(t *testing.T) {
	conn := openTestDB(t)
	product := seedProduct(t, conn, "KEEP_ME", "l1")
	other := seedProduct(t, conn, "", "l2")

	r := NewRepo(conn)
	require.NoError(t, r.BackfillCanonicalSKU(context.Background(), product.ID, "NEW_0000_SKU"))
	require.NoError(t, r.BackfillCanonicalSKU(context.Background(), other.ID, "NEW_0000_SKU"))

	var kept, filled models.Product
	require.NoError(t, conn.First(&kept, "id = ?", product.ID).Error)
	require.NoError(t, conn.First(&filled, "id = ?", other.ID).Error)

	require.NotNil(t, kept.CanonicalSKU)
	assert.Equal(t, "KEEP_ME", *kept.CanonicalSKU, "an assigned canonical sku is never overwritten")
	require.NotNil(t, filled.CanonicalSKU)
	assert.Equal(t, "NEW_0000_SKU", *filled.CanonicalSKU)
}

func TestHasImages(t *testing.T) {
	conn := openTestDB(t)
	product := seedProduct(t, conn, "ABC_1234_XYZ", "l1")

	r := NewRepo(conn)
	has, err := r.HasImages(context.Background(), product.ID)
	require.NoError(t, err)
	assert.False(t, has)

	seedImage(t, conn, product, "hash-1", "p.jpg")
	has, err = r.HasImages(context.Background(), product.ID)
	require.NoError(t, err)
	assert.True(t, has)
}

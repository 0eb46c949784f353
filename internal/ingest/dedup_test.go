package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/victorsanmartin/ferromart-backend/pkg/db/models"
	"github.com/victorsanmartin/ferromart-backend/pkg/enums"
)

func seedImage(t *testing.T, conn *gorm.DB, product *models.Product, hash, path string) *models.Image {
	t.Helper()
	image := &models.Image{
		ProductID:   product.ID,
		Path:        path,
		PublicURL:   "/static/" + path,
		MimeType:    "image/jpeg",
		SizeBytes:   100,
		ContentHash: hash,
		Active:      true,
	}
	require.NoError(t, conn.Create(image).Error)
	require.NoError(t, conn.Create(&models.ImageVersion{
		ImageID:  image.ID,
		Kind:     enums.ImageVersionOriginal,
		Path:     path,
		MimeType: "image/jpeg",
	}).Error)
	require.NoError(t, conn.Create(&models.ImageReview{
		ImageID: image.ID,
		Status:  enums.ReviewStatusPending,
	}).Error)
	return image
}

func TestDedupNewContent(t *testing.T) {
	conn := openTestDB(t)
	product := seedProduct(t, conn, "ABC_1234_XYZ", "l1")

	d := deduper{blobs: newFakeBlobs(), logg: testLogger(t)}
	verdict, err := d.check(context.Background(), NewRepo(conn), product.ID, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, dedupNew, verdict)
}

func TestDedupDuplicateWithLiveFile(t *testing.T) {
	conn := openTestDB(t)
	product := seedProduct(t, conn, "ABC_1234_XYZ", "l1")
	seedImage(t, conn, product, "hash-1", "Products/p/raw/a.jpg")

	blobs := newFakeBlobs()
	require.NoError(t, blobs.Save("Products/p/raw/a.jpg", []byte("live content")))

	d := deduper{blobs: blobs, logg: testLogger(t)}
	verdict, err := d.check(context.Background(), NewRepo(conn), product.ID, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, dedupDuplicate, verdict)

	var count int64
	require.NoError(t, conn.Model(&models.Image{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "duplicate must not touch the existing row")
}

func TestDedupOrphanRepair(t *testing.T) {
	conn := openTestDB(t)
	product := seedProduct(t, conn, "ABC_1234_XYZ", "l1")
	image := seedImage(t, conn, product, "hash-1", "Products/p/raw/gone.jpg")

	// No blob saved: the row references a file that no longer exists.
	d := deduper{blobs: newFakeBlobs(), logg: testLogger(t)}
	verdict, err := d.check(context.Background(), NewRepo(conn), product.ID, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, dedupRepaired, verdict)

	var images, versions, reviews int64
	require.NoError(t, conn.Model(&models.Image{}).Where("id = ?", image.ID).Count(&images).Error)
	require.NoError(t, conn.Model(&models.ImageVersion{}).Where("image_id = ?", image.ID).Count(&versions).Error)
	require.NoError(t, conn.Model(&models.ImageReview{}).Where("image_id = ?", image.ID).Count(&reviews).Error)
	assert.Zero(t, images, "orphan image row must be purged")
	assert.Zero(t, versions, "orphan versions must be purged")
	assert.Zero(t, reviews, "orphan review must be purged")
}

func TestDedupZeroByteFileIsOrphan(t *testing.T) {
	conn := openTestDB(t)
	product := seedProduct(t, conn, "ABC_1234_XYZ", "l1")
	seedImage(t, conn, product, "hash-1", "Products/p/raw/empty.jpg")

	blobs := newFakeBlobs()
	require.NoError(t, blobs.Save("Products/p/raw/empty.jpg", []byte{}))

	d := deduper{blobs: blobs, logg: testLogger(t)}
	verdict, err := d.check(context.Background(), NewRepo(conn), product.ID, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, dedupRepaired, verdict)
}

package ingest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/victorsanmartin/ferromart-backend/pkg/db/models"
	"github.com/victorsanmartin/ferromart-backend/pkg/logger"
)

var testDBCounter int

// openTestDB migrates the full schema into a fresh in-memory sqlite database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDBCounter++
	dsn := fmt.Sprintf("file:ingest_test_%d?mode=memory&cache=shared", testDBCounter)

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&models.Product{},
		&models.CanonicalProduct{},
		&models.SupplierOffer{},
		&models.Image{},
		&models.ImageVersion{},
		&models.ImageReview{},
	))
	return conn
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(logger.Options{ServiceName: "test", Output: testWriter{t}})
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

// fakeBlobs is an in-memory BlobStore.
type fakeBlobs struct {
	files   map[string][]byte
	saveErr error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{files: map[string][]byte{}}
}

func (f *fakeBlobs) Save(key string, data []byte) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.files[key] = data
	return nil
}

func (f *fakeBlobs) Exists(key string) (bool, error) {
	_, ok := f.files[key]
	return ok, nil
}

func (f *fakeBlobs) Size(key string) (int64, error) {
	return int64(len(f.files[key])), nil
}

func (f *fakeBlobs) Delete(key string) error {
	delete(f.files, key)
	return nil
}

func (f *fakeBlobs) URL(key string) string {
	return "/static/" + key
}

func seedProduct(t *testing.T, conn *gorm.DB, canonicalSKU, legacySKU string) *models.Product {
	t.Helper()
	product := &models.Product{
		LegacyRootSKU: legacySKU,
		Title:         "Test Product",
		Slug:          "test-product",
	}
	if canonicalSKU != "" {
		product.CanonicalSKU = &canonicalSKU
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func seedCatalogLink(t *testing.T, conn *gorm.DB, customSKU, altSKU string, productID uuid.UUID) *models.CanonicalProduct {
	t.Helper()
	canonical := &models.CanonicalProduct{Title: "Catalog Entry"}
	if customSKU != "" {
		canonical.CustomSKU = &customSKU
	}
	if altSKU != "" {
		canonical.AltSKU = &altSKU
	}
	require.NoError(t, conn.Create(canonical).Error)

	offer := &models.SupplierOffer{
		CanonicalProductID: canonical.ID,
		ProductID:          productID,
		SupplierName:       "test supplier",
	}
	require.NoError(t, conn.Create(offer).Error)
	return canonical
}

package ingest

import (
	"context"

	"github.com/google/uuid"

	"github.com/victorsanmartin/ferromart-backend/pkg/errors"
	"github.com/victorsanmartin/ferromart-backend/pkg/logger"
)

type dedupVerdict int

const (
	// dedupNew means no prior record exists and ingestion proceeds normally.
	dedupNew dedupVerdict = iota

	// dedupDuplicate means the same content is already ingested with a live
	// file. All writes are skipped; the remote file still advances to the
	// processed folder.
	dedupDuplicate

	// dedupRepaired means a stale row pointed at a missing file. The row and
	// its dependents were purged and ingestion continues as if it never
	// existed.
	dedupRepaired
)

// deduper applies the (product, content-hash) duplicate check and the orphan
// repair that keeps the physical file authoritative over the database row.
type deduper struct {
	blobs BlobStore
	logg  *logger.Logger
}

// check must run inside the per-file transaction so an orphan purge rolls
// back together with the rest of the file's writes.
func (d deduper) check(ctx context.Context, txRepo Repo, productID uuid.UUID, hash string) (dedupVerdict, error) {
	existing, err := txRepo.ImageByProductAndHash(ctx, productID, hash)
	if err != nil {
		if errors.HasCode(err, errors.CodeNotFound) {
			return dedupNew, nil
		}
		return dedupNew, err
	}

	if existing.Path != "" {
		exists, err := d.blobs.Exists(existing.Path)
		if err != nil {
			return dedupNew, errors.Wrap(errors.CodeDependency, err, "checking stored image file")
		}
		if exists {
			size, err := d.blobs.Size(existing.Path)
			if err != nil {
				return dedupNew, errors.Wrap(errors.CodeDependency, err, "sizing stored image file")
			}
			if size > 0 {
				return dedupDuplicate, nil
			}
		}
	}

	// Row without a live file: orphan from a corrupted prior run. Purge it so
	// the legitimate content can be re-ingested.
	if err := txRepo.DeleteImage(ctx, existing.ID); err != nil {
		return dedupNew, err
	}
	repairCtx := d.logg.WithFields(ctx, map[string]any{
		"image_id": existing.ID.String(),
		"path":     existing.Path,
	})
	d.logg.Warn(repairCtx, "purged orphan image record before re-ingestion")
	return dedupRepaired, nil
}

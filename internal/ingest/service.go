package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/victorsanmartin/ferromart-backend/pkg/db"
	"github.com/victorsanmartin/ferromart-backend/pkg/db/models"
	"github.com/victorsanmartin/ferromart-backend/pkg/enums"
	"github.com/victorsanmartin/ferromart-backend/pkg/errors"
	"github.com/victorsanmartin/ferromart-backend/pkg/logger"
	"github.com/victorsanmartin/ferromart-backend/pkg/metrics"
	"github.com/victorsanmartin/ferromart-backend/pkg/storage/drive"
)

// Classification folder names, created as siblings under the root folder.
const (
	FolderProcessed = "procesadas"
	FolderErrors    = "errores"
	FolderNoSKU     = "sin-sku"
)

// RemoteStore is the remote folder-store surface the synchronizer drives.
type RemoteStore interface {
	ListFolder(ctx context.Context, folderID string, mimeTypes []string) ([]drive.File, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
	EnsureFolder(ctx context.Context, parentID, name string) (string, error)
	Move(ctx context.Context, file drive.File, destFolderID string) error
	Upload(ctx context.Context, parentID, name, mimeType string, content []byte) (string, error)
}

// BlobStore is the local media store originals and derivatives land in.
type BlobStore interface {
	Save(key string, data []byte) error
	Exists(key string) (bool, error)
	Size(key string) (int64, error)
	Delete(key string) error
	URL(key string) string
}

// ServiceParams wires the synchronizer's collaborators.
type ServiceParams struct {
	Logger         *logger.Logger
	DB             *db.Client
	Remote         RemoteStore
	Blobs          BlobStore
	Metrics        *metrics.SyncMetrics
	RootFolderID   string
	MinImageBytes  int64
	JPEGQuality    int
	DebugArtifacts bool
}

// Service is the remote synchronizer: it lists candidate files, runs each one
// through the extract/resolve/dedup/derive/persist pipeline and routes it to
// a classification folder, reporting progress as it goes.
type Service struct {
	logg           *logger.Logger
	dbc            *db.Client
	repo           Repo
	resolver       *Resolver
	generator      Generator
	dedup          deduper
	remote         RemoteStore
	blobs          BlobStore
	metrics        *metrics.SyncMetrics
	rootFolderID   string
	debugArtifacts bool
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.Remote == nil {
		return nil, fmt.Errorf("remote store is required")
	}
	if params.Blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if params.RootFolderID == "" {
		return nil, fmt.Errorf("root folder id is required")
	}

	repo := NewRepo(params.DB.DB())
	return &Service{
		logg:           params.Logger,
		dbc:            params.DB,
		repo:           repo,
		resolver:       NewResolver(repo, params.Logger),
		generator:      NewGenerator(params.MinImageBytes, params.JPEGQuality),
		dedup:          deduper{blobs: params.Blobs, logg: params.Logger},
		remote:         params.Remote,
		blobs:          params.Blobs,
		metrics:        params.Metrics,
		rootFolderID:   params.RootFolderID,
		debugArtifacts: params.DebugArtifacts,
	}, nil
}

type classificationFolders struct {
	processed string
	errors    string
	noSKU     string
}

// Sync processes every candidate file in the source folder once. Per-file
// failures are quarantined and counted; only listing or folder setup aborts
// the run.
func (s *Service) Sync(ctx context.Context, sourceFolderID string, report ProgressFunc) (Stats, error) {
	stats := Stats{}
	if sourceFolderID == "" {
		return stats, errors.New(errors.CodeValidation, "source folder id is required")
	}

	ctx = s.logg.WithRunID(ctx, uuid.NewString())
	s.emit(ctx, report, Progress{Status: enums.SyncStatusInitializing})

	folders, err := s.ensureFolders(ctx)
	if err != nil {
		return stats, err
	}

	s.emit(ctx, report, Progress{Status: enums.SyncStatusListing})

	files, err := s.remote.ListFolder(ctx, sourceFolderID, AllowedMimeTypes)
	if err != nil {
		return stats, errors.Wrap(errors.CodeDependency, err, "listing source folder")
	}

	// Files already moved into a classification folder keep it as an extra
	// parent on some providers; only single-parent files still sitting in the
	// source count as candidates.
	candidates := make([]drive.File, 0, len(files))
	for _, file := range files {
		if len(file.Parents) == 1 && file.Parents[0] == sourceFolderID {
			candidates = append(candidates, file)
		}
	}

	total := len(candidates)
	s.logg.Info(s.logg.WithField(ctx, "candidates", total), "photo sync run started")

	for i, file := range candidates {
		fileCtx := s.logg.WithFileName(ctx, file.Name)
		result := s.processFile(fileCtx, file)

		if result.moveable() {
			dest := folders.errors
			switch {
			case result.success():
				dest = folders.processed
			case result.kind == ErrorKindNoSKUMatch:
				dest = folders.noSKU
			}
			if err := s.remote.Move(fileCtx, file, dest); err != nil {
				s.logg.Error(fileCtx, "failed to move file to classification folder", err)
				// The file stays in the source folder, so it counts as a
				// retryable error regardless of how processing went.
				if result.success() || result.kind == ErrorKindNoSKUMatch {
					result = fileResult{
						sku:     result.sku,
						kind:    ErrorKindTransport,
						message: "classification move failed",
						err:     err,
					}
				}
			} else if s.debugArtifacts && dest == folders.errors {
				s.writeDebugArtifact(fileCtx, folders.errors, file, result)
			}
		}

		switch {
		case result.success():
			stats.Processed++
		case result.kind == ErrorKindNoSKUMatch:
			stats.NoSKU++
		default:
			stats.Errors++
		}

		event := Progress{
			Status:    enums.SyncStatusProcessing,
			Current:   i + 1,
			Total:     total,
			Remaining: total - i - 1,
			SKU:       result.sku,
			Filename:  file.Name,
			Message:   result.message,
			Stats:     stats,
		}
		if result.err != nil {
			event.Error = result.err.Error()
		}
		s.emit(fileCtx, report, event)
	}

	s.metrics.AddFiles("processed", stats.Processed)
	s.metrics.AddFiles("errors", stats.Errors)
	s.metrics.AddFiles("no_sku", stats.NoSKU)

	s.emit(ctx, report, Progress{
		Status:    enums.SyncStatusCompleted,
		Current:   total,
		Total:     total,
		Remaining: 0,
		Stats:     stats,
	})
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"processed": stats.Processed,
		"errors":    stats.Errors,
		"no_sku":    stats.NoSKU,
	}), "photo sync run completed")

	return stats, nil
}

// ensureFolders resolves the classification folders under the fixed root, not
// under the scanned folder, so re-processing the errors folder as a source
// does not nest folders inside itself.
func (s *Service) ensureFolders(ctx context.Context) (classificationFolders, error) {
	folders := classificationFolders{}

	var err error
	if folders.processed, err = s.remote.EnsureFolder(ctx, s.rootFolderID, FolderProcessed); err != nil {
		return folders, errors.Wrap(errors.CodeDependency, err, "resolving processed folder")
	}
	if folders.errors, err = s.remote.EnsureFolder(ctx, s.rootFolderID, FolderErrors); err != nil {
		return folders, errors.Wrap(errors.CodeDependency, err, "resolving errors folder")
	}
	if folders.noSKU, err = s.remote.EnsureFolder(ctx, s.rootFolderID, FolderNoSKU); err != nil {
		return folders, errors.Wrap(errors.CodeDependency, err, "resolving no-sku folder")
	}
	return folders, nil
}

func (s *Service) processFile(ctx context.Context, file drive.File) fileResult {
	sku := ExtractSKU(file.Name)
	if sku == "" || !IsCanonicalSKU(sku) {
		return fileResult{
			sku:     sku,
			kind:    ErrorKindNoSKUMatch,
			message: "no canonical sku in filename",
		}
	}
	ctx = s.logg.WithSKU(ctx, sku)

	resolution, err := s.resolver.Resolve(ctx, sku)
	if err != nil {
		if errors.HasCode(err, errors.CodeNotFound) {
			return fileResult{sku: sku, kind: ErrorKindProductNotFound, err: err}
		}
		return fileResult{sku: sku, kind: ErrorKindPersistence, err: err}
	}
	product := resolution.Product
	ctx = s.logg.WithProductID(ctx, product.ID.String())

	data, err := s.remote.Download(ctx, file.ID)
	if err != nil {
		s.logg.Error(ctx, "download failed, leaving file for retry", err)
		return fileResult{sku: sku, kind: ErrorKindTransport, err: err}
	}

	mime := SniffMime(data)
	if !IsAllowedMime(mime) {
		return fileResult{
			sku:  sku,
			kind: ErrorKindCorruptImage,
			err:  errors.New(errors.CodeValidation, fmt.Sprintf("unsupported content type %s", mime)),
		}
	}

	hash := Fingerprint(data)

	var (
		duplicate bool
		savedKeys []string
	)
	txErr := s.dbc.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		verdict, err := s.dedup.check(ctx, txRepo, product.ID, hash)
		if err != nil {
			return err
		}
		if verdict == dedupDuplicate {
			duplicate = true
			return nil
		}

		src, err := s.generator.Decode(data)
		if err != nil {
			return err
		}

		hasImages, err := txRepo.HasImages(ctx, product.ID)
		if err != nil {
			return err
		}

		// A short hash fragment keeps keys unique across multiple photos of
		// the same product.
		base := fmt.Sprintf("%s-%s", namingBase(product), hash[:8])
		raw := rawKey(product.ID, base, file.Name)
		if err := s.blobs.Save(raw, data); err != nil {
			return errors.Wrap(errors.CodeDependency, err, "storing original")
		}
		savedKeys = append(savedKeys, raw)

		image := &models.Image{
			ProductID:   product.ID,
			Path:        raw,
			PublicURL:   s.blobs.URL(raw),
			MimeType:    mime,
			SizeBytes:   int64(len(data)),
			ContentHash: hash,
			Active:      true,
			IsPrimary:   !hasImages,
		}
		if err := txRepo.CreateImage(ctx, image); err != nil {
			return err
		}

		bounds := src.Bounds()
		sourceID := file.ID
		original := &models.ImageVersion{
			ImageID:   image.ID,
			Kind:      enums.ImageVersionOriginal,
			Path:      raw,
			MimeType:  mime,
			SizeBytes: int64(len(data)),
			Width:     bounds.Dx(),
			Height:    bounds.Dy(),
			SourceURL: &sourceID,
		}
		if err := txRepo.CreateImageVersion(ctx, original); err != nil {
			return err
		}

		derivatives, err := s.generator.Generate(src)
		if err != nil {
			return err
		}
		for _, derivative := range derivatives {
			key := derivedKey(product.ID, base, derivative.Kind)
			if err := s.blobs.Save(key, derivative.Data); err != nil {
				return errors.Wrap(errors.CodeDependency, err,
					fmt.Sprintf("storing %s derivative", derivative.Kind))
			}
			savedKeys = append(savedKeys, key)

			version := &models.ImageVersion{
				ImageID:   image.ID,
				Kind:      derivative.Kind,
				Path:      key,
				MimeType:  "image/jpeg",
				SizeBytes: int64(len(derivative.Data)),
				Width:     derivative.Width,
				Height:    derivative.Height,
			}
			if err := txRepo.CreateImageVersion(ctx, version); err != nil {
				return err
			}
		}

		review := &models.ImageReview{
			ImageID: image.ID,
			Status:  enums.ReviewStatusPending,
		}
		return txRepo.CreateImageReview(ctx, review)
	})
	if txErr != nil {
		s.cleanupBlobs(ctx, savedKeys)
		if errors.HasCode(txErr, errors.CodeValidation) {
			return fileResult{sku: sku, kind: ErrorKindCorruptImage, err: txErr}
		}
		return fileResult{sku: sku, kind: ErrorKindPersistence, err: txErr}
	}

	if duplicate {
		return fileResult{sku: sku, duplicate: true, message: "duplicate content, already ingested"}
	}
	return fileResult{sku: sku, message: fmt.Sprintf("ingested via %s", resolution.Strategy)}
}

// cleanupBlobs removes files written before a rolled-back transaction.
func (s *Service) cleanupBlobs(ctx context.Context, keys []string) {
	var cleanupErr error
	for _, key := range keys {
		cleanupErr = multierr.Append(cleanupErr, s.blobs.Delete(key))
	}
	if cleanupErr != nil {
		s.logg.Error(ctx, "failed to clean up blobs after rollback", cleanupErr)
	}
}

func (s *Service) writeDebugArtifact(ctx context.Context, errorsFolderID string, file drive.File, result fileResult) {
	body := fmt.Sprintf("file: %s\nsku: %s\nkind: %s\n", file.Name, result.sku, result.kind)
	if result.err != nil {
		body += fmt.Sprintf("error: %s\n", result.err.Error())
	}
	name := file.Name + ".error.txt"
	if _, err := s.remote.Upload(ctx, errorsFolderID, name, "text/plain", []byte(body)); err != nil {
		s.logg.Error(ctx, "failed to write debug artifact", err)
	}
}

func (s *Service) emit(ctx context.Context, report ProgressFunc, event Progress) {
	if report == nil {
		return
	}
	report(ctx, event)
}

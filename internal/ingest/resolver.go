package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/victorsanmartin/ferromart-backend/pkg/db/models"
	"github.com/victorsanmartin/ferromart-backend/pkg/errors"
	"github.com/victorsanmartin/ferromart-backend/pkg/logger"
)

// Attempt records one resolver strategy's miss for diagnostics.
type Attempt struct {
	Strategy string `json:"strategy"`
	Note     string `json:"note"`
}

// Resolution is a successful product lookup plus the trail that led to it.
type Resolution struct {
	Product  *models.Product
	Strategy string
	Attempts []Attempt
}

// resolverStrategy is one step of the ordered fallback chain. Lookup returns
// the product or a CodeNotFound error with a diagnostic note.
type resolverStrategy interface {
	Name() string
	Lookup(ctx context.Context, sku string) (*models.Product, error)
}

// Resolver finds the product a canonical SKU candidate refers to by trying an
// ordered chain of strategies, short-circuiting on the first hit.
type Resolver struct {
	strategies []resolverStrategy
	logg       *logger.Logger
}

func NewResolver(r Repo, logg *logger.Logger) *Resolver {
	return &Resolver{
		strategies: []resolverStrategy{
			canonicalStrategy{repo: r},
			catalogStrategy{repo: r, logg: logg},
			legacyStrategy{repo: r},
			canonicalFoldStrategy{repo: r},
			legacyFoldStrategy{repo: r},
		},
		logg: logg,
	}
}

// Resolve runs the chain. A miss returns a CodeNotFound error carrying every
// attempt made; any other error aborts resolution as a persistence failure.
func (r *Resolver) Resolve(ctx context.Context, sku string) (*Resolution, error) {
	attempts := make([]Attempt, 0, len(r.strategies))

	for _, strategy := range r.strategies {
		product, err := strategy.Lookup(ctx, sku)
		if err == nil {
			if strategy.Name() == "legacy_root_sku" {
				warnCtx := r.logg.WithSKU(ctx, sku)
				r.logg.Warn(warnCtx, "product resolved via legacy root sku, data not yet migrated")
			}
			return &Resolution{Product: product, Strategy: strategy.Name(), Attempts: attempts}, nil
		}
		if !errors.HasCode(err, errors.CodeNotFound) {
			return nil, err
		}
		attempts = append(attempts, Attempt{Strategy: strategy.Name(), Note: errors.As(err).Message()})
	}

	notes := make([]string, 0, len(attempts))
	for _, a := range attempts {
		notes = append(notes, fmt.Sprintf("%s: %s", a.Strategy, a.Note))
	}
	return nil, errors.
		New(errors.CodeNotFound, fmt.Sprintf("no product for sku %s (%s)", sku, strings.Join(notes, "; "))).
		WithDetails(attempts)
}

type canonicalStrategy struct{ repo Repo }

func (canonicalStrategy) Name() string { return "canonical_sku" }

func (s canonicalStrategy) Lookup(ctx context.Context, sku string) (*models.Product, error) {
	return s.repo.ProductByCanonicalSKU(ctx, sku)
}

// catalogStrategy traverses the canonical catalog: custom or alternate SKU →
// supplier offer → internal product. On a hit it backfills the product's
// canonical SKU so the direct strategy hits next time.
type catalogStrategy struct {
	repo Repo
	logg *logger.Logger
}

func (catalogStrategy) Name() string { return "canonical_catalog" }

func (s catalogStrategy) Lookup(ctx context.Context, sku string) (*models.Product, error) {
	canonical, err := s.repo.CanonicalProductBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}

	offer, err := s.repo.OfferByCanonicalProduct(ctx, canonical.ID)
	if err != nil {
		if errors.HasCode(err, errors.CodeNotFound) {
			return nil, errors.New(errors.CodeNotFound, "catalog entry has no supplier offer")
		}
		return nil, err
	}

	product, err := s.repo.ProductByID(ctx, offer.ProductID)
	if err != nil {
		if errors.HasCode(err, errors.CodeNotFound) {
			return nil, errors.New(errors.CodeNotFound, "supplier offer points at a missing product")
		}
		return nil, err
	}

	if product.CanonicalSKU == nil {
		if err := s.repo.BackfillCanonicalSKU(ctx, product.ID, sku); err != nil {
			s.logg.Error(ctx, "failed to backfill canonical sku", err)
		} else {
			product.CanonicalSKU = &sku
		}
	}
	return product, nil
}

type legacyStrategy struct{ repo Repo }

func (legacyStrategy) Name() string { return "legacy_root_sku" }

func (s legacyStrategy) Lookup(ctx context.Context, sku string) (*models.Product, error) {
	return s.repo.ProductByLegacySKU(ctx, sku)
}

type canonicalFoldStrategy struct{ repo Repo }

func (canonicalFoldStrategy) Name() string { return "canonical_sku_fold" }

func (s canonicalFoldStrategy) Lookup(ctx context.Context, sku string) (*models.Product, error) {
	return s.repo.ProductByCanonicalSKUFold(ctx, sku)
}

type legacyFoldStrategy struct{ repo Repo }

func (legacyFoldStrategy) Name() string { return "legacy_root_sku_fold" }

func (s legacyFoldStrategy) Lookup(ctx context.Context, sku string) (*models.Product, error) {
	return s.repo.ProductByLegacySKUFold(ctx, sku)
}

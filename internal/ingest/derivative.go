package ingest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	// Register the webp decoder for imaging.Decode.
	_ "golang.org/x/image/webp"

	"github.com/victorsanmartin/ferromart-backend/pkg/db/models"
	"github.com/victorsanmartin/ferromart-backend/pkg/enums"
	"github.com/victorsanmartin/ferromart-backend/pkg/errors"
)

// derivativeSpecs are the fixed square derivative sizes, smallest first.
var derivativeSpecs = []struct {
	Kind enums.ImageVersionKind
	Size int
}{
	{Kind: enums.ImageVersionThumb, Size: 256},
	{Kind: enums.ImageVersionCard, Size: 800},
	{Kind: enums.ImageVersionFull, Size: 1600},
}

// Derivative is one re-encoded square copy of a source image.
type Derivative struct {
	Kind   enums.ImageVersionKind
	Data   []byte
	Width  int
	Height int
}

// Generator validates raw images and produces the normalized derivatives.
type Generator struct {
	minBytes    int64
	jpegQuality int
}

func NewGenerator(minBytes int64, jpegQuality int) Generator {
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = 85
	}
	return Generator{minBytes: minBytes, jpegQuality: jpegQuality}
}

// Decode checks structural integrity: minimum byte size, decodable by the
// image codecs, non-zero dimensions. Failures are CodeValidation errors and
// the file must not be persisted.
func (g Generator) Decode(data []byte) (image.Image, error) {
	if int64(len(data)) < g.minBytes {
		return nil, errors.New(errors.CodeValidation,
			fmt.Sprintf("image is %d bytes, below the %d byte minimum", len(data), g.minBytes))
	}
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "image is not decodable")
	}
	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, errors.New(errors.CodeValidation, "image has zero dimensions")
	}
	return src, nil
}

// Generate produces the three square derivatives: the source is fitted inside
// the target box preserving aspect ratio, centered on a white square canvas
// and re-encoded as JPEG.
func (g Generator) Generate(src image.Image) ([]Derivative, error) {
	derivatives := make([]Derivative, 0, len(derivativeSpecs))
	for _, target := range derivativeSpecs {
		fitted := imaging.Fit(src, target.Size, target.Size, imaging.Lanczos)
		canvas := imaging.New(target.Size, target.Size, color.White)
		canvas = imaging.PasteCenter(canvas, fitted)

		buf := &bytes.Buffer{}
		if err := imaging.Encode(buf, canvas, imaging.JPEG, imaging.JPEGQuality(g.jpegQuality)); err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err,
				fmt.Sprintf("encoding %s derivative", target.Kind))
		}
		derivatives = append(derivatives, Derivative{
			Kind:   target.Kind,
			Data:   buf.Bytes(),
			Width:  target.Size,
			Height: target.Size,
		})
	}
	return derivatives, nil
}

// namingBase builds the derivative filename base from the product's slug and
// legacy SKU, falling back to a generated prod-<id> stem.
func namingBase(product *models.Product) string {
	parts := make([]string, 0, 2)
	if slug := slugify(product.Slug); slug != "" {
		parts = append(parts, slug)
	}
	if legacy := slugify(product.LegacyRootSKU); legacy != "" {
		parts = append(parts, legacy)
	}
	if len(parts) == 0 {
		return "prod-" + product.ID.String()
	}
	return strings.Join(parts, "-")
}

func slugify(value string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// rawKey is the storage key of the untouched original.
func rawKey(productID uuid.UUID, base, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("Products/%s/raw/%s%s", productID, base, ext)
}

// derivedKey is the storage key of one derivative.
func derivedKey(productID uuid.UUID, base string, kind enums.ImageVersionKind) string {
	return fmt.Sprintf("Products/%s/derived/%s-%s.jpg", productID, base, kind)
}

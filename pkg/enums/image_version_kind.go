package enums

import "fmt"

// ImageVersionKind tags a stored rendition of a product image.
type ImageVersionKind string

const (
	ImageVersionOriginal    ImageVersionKind = "original"
	ImageVersionThumb       ImageVersionKind = "thumb"
	ImageVersionCard        ImageVersionKind = "card"
	ImageVersionFull        ImageVersionKind = "full"
	ImageVersionBGRemoved   ImageVersionKind = "bg_removed"
	ImageVersionWatermarked ImageVersionKind = "watermarked"
)

var validImageVersionKinds = []ImageVersionKind{
	ImageVersionOriginal,
	ImageVersionThumb,
	ImageVersionCard,
	ImageVersionFull,
	ImageVersionBGRemoved,
	ImageVersionWatermarked,
}

// String returns the literal string for the kind.
func (k ImageVersionKind) String() string {
	return string(k)
}

// IsValid reports whether the kind is known.
func (k ImageVersionKind) IsValid() bool {
	for _, candidate := range validImageVersionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseImageVersionKind converts raw input into an ImageVersionKind.
func ParseImageVersionKind(value string) (ImageVersionKind, error) {
	for _, candidate := range validImageVersionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid image version kind %q", value)
}

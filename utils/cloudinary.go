package utils

import (
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
)

// AssetURLBuilder turns the image references stored by the remote API into
// absolute URLs. Cloudinary public IDs are resolved through the Cloudinary SDK
// when it is configured; everything else is joined onto the asset base URL.
type AssetURLBuilder struct {
	cld     *cloudinary.Cloudinary
	baseURL string
}

// NewAssetURLBuilder creates a builder. cloudinaryURL may be empty.
func NewAssetURLBuilder(cloudinaryURL, baseURL string) (*AssetURLBuilder, error) {
	b := &AssetURLBuilder{baseURL: strings.TrimRight(baseURL, "/")}
	if cloudinaryURL == "" {
		return b, nil
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("utils.NewAssetURLBuilder: failed to initialize Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	b.cld = cld
	return b, nil
}

// URL returns the absolute URL for ref. Absolute references pass through.
func (b *AssetURLBuilder) URL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	ref = strings.TrimLeft(ref, "/")
	if b.cld != nil {
		if img, err := b.cld.Image(ref); err == nil {
			if u, err := img.String(); err == nil {
				return u
			}
		}
	}
	return b.baseURL + "/" + ref
}

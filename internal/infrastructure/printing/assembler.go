package printing

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/offerdesk/backend/internal/domain/offer"
)

// PageBreak is the separator inserted between consecutive fragments so
// each template starts on its own printed page.
const PageBreak = `<div style="page-break-before: always;"></div>`

// Assembler resolves image references against the asset root and joins
// rendered fragments into one printable document.
type Assembler struct {
	assetRoot string
}

// NewAssembler creates an assembler. assetRoot is the directory local
// image references resolve against; http(s) references bypass it.
func NewAssembler(assetRoot string) *Assembler {
	return &Assembler{assetRoot: assetRoot}
}

// Resolve returns a copy of images with every populated local reference
// replaced by a file:// URL under the asset root. Remote http(s)
// references pass through unchanged. Resolution happens before template
// rendering so the templates emit final URLs; substituting into rendered
// HTML instead would miss references the template engine has
// percent-encoded (a path with a space renders as %20 and no longer
// matches its raw form). A reference naming a missing local file fails
// the run.
func (a *Assembler) Resolve(images offer.Images) (offer.Images, error) {
	resolved := images
	slots := []struct {
		name string
		ref  *string
	}{
		{"clientLogo", &resolved.ClientLogo},
		{"front", &resolved.Front},
		{"lid", &resolved.Lid},
		{"three_quarter", &resolved.ThreeQuarter},
		{"brand", &resolved.Brand},
		{"giftset", &resolved.GiftSet},
	}

	for _, slot := range slots {
		if *slot.ref == "" || isRemoteRef(*slot.ref) {
			continue
		}

		localPath := *slot.ref
		if !filepath.IsAbs(localPath) {
			localPath = filepath.Join(a.assetRoot, localPath)
		}

		if _, err := os.Stat(localPath); err != nil {
			return offer.Images{}, NewRenderError(ErrCodeAssetNotFound,
				fmt.Sprintf("image %s not found at %s", slot.name, localPath), err)
		}

		abs, err := filepath.Abs(localPath)
		if err != nil {
			return offer.Images{}, NewRenderError(ErrCodeAssetNotFound,
				"cannot resolve image path "+localPath, err)
		}

		*slot.ref = fileURL(abs)
	}

	return resolved, nil
}

// Assemble concatenates the fragments in order with a page break between
// each consecutive pair.
func (a *Assembler) Assemble(fragments []Fragment) (string, error) {
	if len(fragments) == 0 {
		return "", NewRenderError(ErrCodeInvalidHTML, "no fragments to assemble", nil)
	}

	var b strings.Builder
	for i, frag := range fragments {
		if i > 0 {
			b.WriteString(PageBreak)
			b.WriteString("\n")
		}
		b.WriteString(frag.HTML)
	}

	return b.String(), nil
}

// isRemoteRef reports whether the reference is an absolute http(s) URL
func isRemoteRef(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// fileURL converts an absolute path to a file:// URL
func fileURL(abs string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}

package printing

import (
	"embed"
	"path"

	"github.com/offerdesk/backend/internal/domain/offer"
)

//go:embed templates
var embeddedTemplates embed.FS

// loadEmbeddedTemplate reads a compiled-in template source
func loadEmbeddedTemplate(lang offer.Language, name string) (string, error) {
	data, err := embeddedTemplates.ReadFile(path.Join("templates", string(lang), name+".html"))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

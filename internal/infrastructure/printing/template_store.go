package printing

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/offerdesk/backend/internal/domain/offer"
)

// NamedTemplate is one template source with its canonical name
type NamedTemplate struct {
	Name    string
	Content string
}

// TemplateSet returns the canonical ordered template names for an offer
// document: cover page first, then the content pages, then the ending
// page. The order is significant and is what the assembler preserves.
func TemplateSet() []string {
	return []string{"coverpage", "page1", "page2", "page3", "endingpage"}
}

// TemplateStore manages the offer template sets, one per language.
// It supports loading from an external directory (for customization)
// with fallback to the embedded defaults.
type TemplateStore struct {
	externalDir string
	sets        map[offer.Language][]NamedTemplate
	mu          sync.RWMutex
}

// TemplateStoreConfig configures the template store
type TemplateStoreConfig struct {
	// ExternalDir is the directory to load templates from, laid out as
	// {dir}/{language}/{name}.html. If empty or a file is missing there,
	// the embedded template is used.
	ExternalDir string
}

// NewTemplateStore creates a new template store with all language sets
// loaded. A missing or unparseable template source fails construction;
// this is a configuration error, not a per-request one.
func NewTemplateStore(config *TemplateStoreConfig) (*TemplateStore, error) {
	store := &TemplateStore{
		sets: make(map[offer.Language][]NamedTemplate),
	}

	if config != nil {
		store.externalDir = config.ExternalDir
	}

	for _, lang := range []offer.Language{offer.LanguageEnglish, offer.LanguagePolish} {
		set, err := store.loadSet(lang)
		if err != nil {
			return nil, err
		}
		store.sets[lang] = set
	}

	return store, nil
}

// loadSet loads the full ordered template set for one language
func (s *TemplateStore) loadSet(lang offer.Language) ([]NamedTemplate, error) {
	names := TemplateSet()
	set := make([]NamedTemplate, 0, len(names))

	for _, name := range names {
		content, err := s.loadContent(lang, name)
		if err != nil {
			return nil, err
		}
		set = append(set, NamedTemplate{Name: name, Content: content})
	}

	return set, nil
}

// loadContent loads one template source, external dir first, embedded
// fallback
func (s *TemplateStore) loadContent(lang offer.Language, name string) (string, error) {
	if s.externalDir != "" {
		externalPath := filepath.Join(s.externalDir, string(lang), name+".html")
		if content, err := os.ReadFile(externalPath); err == nil {
			return string(content), nil
		}
		// Fall through to embedded if external not found
	}

	content, err := loadEmbeddedTemplate(lang, name)
	if err != nil {
		return "", NewRenderError(ErrCodeTemplateNotFound,
			fmt.Sprintf("template %s not found for language %s", name, lang), err)
	}
	return content, nil
}

// Set returns the ordered template set for a language
func (s *TemplateStore) Set(lang offer.Language) ([]NamedTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.sets[lang.Normalize()]
	if !ok {
		return nil, NewRenderError(ErrCodeTemplateNotFound,
			"no template set for language "+string(lang), nil)
	}
	return set, nil
}

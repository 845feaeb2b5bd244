package printing_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offerdesk/backend/internal/domain/offer"
	infra "github.com/offerdesk/backend/internal/infrastructure/printing"
)

func TestTemplateStoreEmbedded(t *testing.T) {
	store, err := infra.NewTemplateStore(nil)
	require.NoError(t, err)

	for _, lang := range []offer.Language{offer.LanguageEnglish, offer.LanguagePolish} {
		set, err := store.Set(lang)
		require.NoError(t, err, "language %s", lang)
		require.Len(t, set, 5)

		names := make([]string, 0, len(set))
		for _, tmpl := range set {
			assert.NotEmpty(t, tmpl.Content)
			names = append(names, tmpl.Name)
		}
		assert.Equal(t, []string{"coverpage", "page1", "page2", "page3", "endingpage"}, names)
	}
}

func TestTemplateStoreEmbeddedTemplatesParse(t *testing.T) {
	// Every embedded template must parse and execute against the offer
	// model; a broken template should never survive to a request.
	store, err := infra.NewTemplateStore(nil)
	require.NoError(t, err)
	engine := infra.NewTemplateEngine()

	o := &offer.Offer{OfferID: "OF-1"}
	for _, lang := range []offer.Language{offer.LanguageEnglish, offer.LanguagePolish} {
		set, err := store.Set(lang)
		require.NoError(t, err)
		fragments, err := engine.RenderAll(context.Background(), set, o)
		require.NoError(t, err, "language %s", lang)
		assert.Len(t, fragments, 5)
	}
}

func TestTemplateStoreExternalOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "english"), 0755))
	custom := "<h1>custom cover</h1>"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "english", "coverpage.html"), []byte(custom), 0644))

	store, err := infra.NewTemplateStore(&infra.TemplateStoreConfig{ExternalDir: dir})
	require.NoError(t, err)

	set, err := store.Set(offer.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, custom, set[0].Content)
	// Remaining templates fall back to the embedded set
	assert.NotEmpty(t, set[1].Content)
	assert.NotEqual(t, custom, set[1].Content)

	// Polish set is untouched by the english override
	polish, err := store.Set(offer.LanguagePolish)
	require.NoError(t, err)
	assert.NotEqual(t, custom, polish[0].Content)
}

func TestTemplateStoreUnknownLanguageNormalizes(t *testing.T) {
	store, err := infra.NewTemplateStore(nil)
	require.NoError(t, err)

	// Unknown languages fall back to english via Normalize
	set, err := store.Set(offer.Language("german"))
	require.NoError(t, err)
	assert.Len(t, set, 5)
}

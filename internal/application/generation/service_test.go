package generation_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offerdesk/backend/internal/application/generation"
	"github.com/offerdesk/backend/internal/domain/offer"
	"github.com/offerdesk/backend/internal/infrastructure/config"
	infra "github.com/offerdesk/backend/internal/infrastructure/printing"
	"github.com/offerdesk/backend/internal/infrastructure/storage"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeRenderer struct {
	mu       sync.Mutex
	calls    int
	blockCtx bool
	err      error
	pdf      []byte
}

func (f *fakeRenderer) Render(ctx context.Context, req *infra.RenderRequest) (*infra.RenderResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.blockCtx {
		<-ctx.Done()
		return nil, infra.NewRenderError(infra.ErrCodeRenderTimeout, "render timed out", ctx.Err())
	}
	if f.err != nil {
		return nil, f.err
	}

	pdf := f.pdf
	if pdf == nil {
		pdf = []byte("%PDF-1.4 fake")
	}
	return &infra.RenderResult{
		PDFData:        pdf,
		PageCount:      5,
		RenderDuration: 10 * time.Millisecond,
	}, nil
}

func (f *fakeRenderer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePublisher struct {
	err      error
	lastKey  string
	lastSize int
}

func (f *fakePublisher) Publish(ctx context.Context, key string, data []byte) (*storage.PublishResult, error) {
	f.lastKey = key
	f.lastSize = len(data)
	if f.err != nil {
		return &storage.PublishResult{Success: false, Error: f.err.Error()}, f.err
	}
	return &storage.PublishResult{Success: true, URL: "http://blob.example/offers/" + key}, nil
}

// =============================================================================
// Fixtures
// =============================================================================

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	return &config.Config{
		Templates: config.TemplatesConfig{
			DefaultLanguage: "english",
			AssetRoot:       filepath.Join(base, "assets"),
		},
		Output: config.OutputConfig{
			HTMLDir:     filepath.Join(base, "htmlGenerated"),
			PDFDir:      filepath.Join(base, "finalPdf"),
			CleanupHTML: true,
		},
		PDF: config.PDFConfig{
			PaperSize:         "A4",
			MarginTop:         20,
			MarginRight:       20,
			MarginBottom:      20,
			MarginLeft:        20,
			PrintBackground:   true,
			PreferCSSPageSize: true,
			RenderTimeout:     5 * time.Second,
		},
		Workflow: config.WorkflowConfig{Timeout: 10 * time.Second},
	}
}

func newService(t *testing.T, cfg *config.Config, renderer infra.PDFRenderer, publisher storage.Publisher) *generation.Service {
	t.Helper()
	templates, err := infra.NewTemplateStore(nil)
	require.NoError(t, err)
	return generation.NewService(
		templates,
		infra.NewTemplateEngine(),
		infra.NewAssembler(cfg.Templates.AssetRoot),
		renderer,
		infra.NewArtifactStore(cfg.Output.HTMLDir, cfg.Output.PDFDir, nil),
		publisher,
		cfg,
		nil,
	)
}

func testOffer() *offer.Offer {
	return &offer.Offer{
		OfferID: "OF-2026-001",
		Date:    offer.Date{Time: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)},
		Seller: offer.Seller{
			Company:     "Boxmakers Sp. z o.o.",
			Address:     "ul. Przemyslowa 12, Warszawa",
			TaxID:       "5252389760",
			Email:       "sales@boxmakers.example",
			Phone:       "+48 500 100 200",
			Website:     "https://boxmakers.example",
			BankAccount: "PL61109010140000071219812874",
		},
		Client: offer.Client{
			Company: "Acme Corp",
			Email:   "buyer@acme.example",
			Phone:   "+1 555 0100",
			Address: "1 Main St, Springfield",
		},
		Items: []offer.LineItem{
			{
				ID:        1,
				Name:      "Premium gift box",
				Quantity:  500,
				UnitPrice: decimal.NewFromFloat(12.50),
				VAT:       decimal.NewFromInt(23),
				Total:     decimal.NewFromFloat(6250),
			},
		},
		Summary: offer.Summary{
			VAT:   decimal.NewFromFloat(1437.50),
			Total: decimal.NewFromFloat(7687.50),
		},
	}
}

// =============================================================================
// Tests
// =============================================================================

func TestGenerateOffer(t *testing.T) {
	cfg := testConfig(t)
	renderer := &fakeRenderer{}
	service := newService(t, cfg, renderer, nil)

	result, err := service.GenerateOffer(context.Background(), testOffer())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "Acme Corp.pdf", result.FileName)
	assert.Equal(t, 5, result.PageCount)
	assert.Equal(t, 1, renderer.callCount())
	assert.Nil(t, result.Published)

	// The PDF landed on disk
	data, err := os.ReadFile(result.PDFPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(data))

	// Intermediate HTML was cleaned up
	assert.NoDirExists(t, filepath.Join(cfg.Output.HTMLDir, result.RunID))
}

func TestGenerateOfferKeepsHTMLWhenCleanupDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.CleanupHTML = false
	service := newService(t, cfg, &fakeRenderer{}, nil)

	result, err := service.GenerateOffer(context.Background(), testOffer())
	require.NoError(t, err)

	runDir := filepath.Join(cfg.Output.HTMLDir, result.RunID)
	assert.FileExists(t, filepath.Join(runDir, "document.html"))
	assert.FileExists(t, filepath.Join(runDir, "coverpage.html"))
	assert.FileExists(t, filepath.Join(runDir, "endingpage.html"))
}

func TestGenerateOfferValidationFailsBeforeRender(t *testing.T) {
	cfg := testConfig(t)
	renderer := &fakeRenderer{}
	service := newService(t, cfg, renderer, nil)

	o := testOffer()
	o.Items = nil

	_, err := service.GenerateOffer(context.Background(), o)
	require.Error(t, err)
	assert.Zero(t, renderer.callCount(), "renderer must not run for an invalid offer")
	assert.NoDirExists(t, cfg.Output.PDFDir)
}

func TestGenerateOfferMissingImageFailsBeforeRender(t *testing.T) {
	cfg := testConfig(t)
	renderer := &fakeRenderer{}
	service := newService(t, cfg, renderer, nil)

	o := testOffer()
	o.Images.Front = "images/missing.png"

	_, err := service.GenerateOffer(context.Background(), o)
	require.Error(t, err)
	assert.Equal(t, infra.ErrCodeAssetNotFound, infra.ErrorCode(err))
	assert.Zero(t, renderer.callCount())
}

func TestGenerateOfferResolvesImagePaths(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.CleanupHTML = false
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Templates.AssetRoot, "images"), 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(cfg.Templates.AssetRoot, "images", "front view.png"), []byte("png"), 0644))
	service := newService(t, cfg, &fakeRenderer{}, nil)

	o := testOffer()
	o.Images.Front = "images/front view.png"

	result, err := service.GenerateOffer(context.Background(), o)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(cfg.Output.HTMLDir, result.RunID, "document.html"))
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, `src="file://`)
	assert.Contains(t, html, "front%20view.png")
	assert.NotContains(t, html, `src="images/front view.png"`)
	assert.NotContains(t, html, "ZgotmplZ")

	// The offer itself keeps the caller's reference
	assert.Equal(t, "images/front view.png", o.Images.Front)
}

func TestGenerateOfferWorkflowTimeout(t *testing.T) {
	cfg := testConfig(t)
	cfg.Workflow.Timeout = 50 * time.Millisecond
	renderer := &fakeRenderer{blockCtx: true}
	service := newService(t, cfg, renderer, nil)

	start := time.Now()
	_, err := service.GenerateOffer(context.Background(), testOffer())
	require.Error(t, err)
	assert.Equal(t, generation.ErrCodeWorkflowTimeout, infra.ErrorCode(err))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestGenerateOfferRenderFailure(t *testing.T) {
	cfg := testConfig(t)
	renderer := &fakeRenderer{err: infra.NewRenderError(infra.ErrCodeRenderFailed, "browser crashed", nil)}
	service := newService(t, cfg, renderer, nil)

	_, err := service.GenerateOffer(context.Background(), testOffer())
	require.Error(t, err)
	assert.Equal(t, infra.ErrCodeRenderFailed, infra.ErrorCode(err))

	// No partial PDF was written
	entries, err := os.ReadDir(cfg.Output.PDFDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateOfferPolishTemplates(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.CleanupHTML = false
	service := newService(t, cfg, &fakeRenderer{}, nil)

	o := testOffer()
	o.Language = offer.LanguagePolish

	result, err := service.GenerateOffer(context.Background(), o)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(cfg.Output.HTMLDir, result.RunID, "coverpage.html"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "OFERTA HANDLOWA")
}

func TestGenerateOfferPublication(t *testing.T) {
	t.Run("publishes when enabled", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Storage = config.StorageConfig{Enabled: true, Bucket: "offers"}
		publisher := &fakePublisher{}
		service := newService(t, cfg, &fakeRenderer{}, publisher)

		result, err := service.GenerateOffer(context.Background(), testOffer())
		require.NoError(t, err)
		require.NotNil(t, result.Published)
		assert.True(t, result.Published.Success)
		assert.Equal(t, "Acme Corp.pdf", publisher.lastKey)
		assert.Positive(t, publisher.lastSize)
	})

	t.Run("publish failure does not fail the run", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Storage = config.StorageConfig{Enabled: true, Bucket: "offers"}
		publisher := &fakePublisher{err: errors.New("bucket unreachable")}
		service := newService(t, cfg, &fakeRenderer{}, publisher)

		result, err := service.GenerateOffer(context.Background(), testOffer())
		require.NoError(t, err)
		require.NotNil(t, result.Published)
		assert.False(t, result.Published.Success)
		assert.Contains(t, result.Published.Error, "bucket unreachable")
		assert.FileExists(t, result.PDFPath)
	})

	t.Run("disabled storage skips publisher", func(t *testing.T) {
		cfg := testConfig(t)
		publisher := &fakePublisher{}
		service := newService(t, cfg, &fakeRenderer{}, publisher)

		result, err := service.GenerateOffer(context.Background(), testOffer())
		require.NoError(t, err)
		assert.Nil(t, result.Published)
		assert.Empty(t, publisher.lastKey)
	})
}

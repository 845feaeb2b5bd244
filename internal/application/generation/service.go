// Package generation orchestrates the offer-to-PDF pipeline: validation,
// template rendering, assembly, browser printing, artifact persistence
// and optional blob publication.
package generation

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/offerdesk/backend/internal/domain/offer"
	domainprinting "github.com/offerdesk/backend/internal/domain/printing"
	"github.com/offerdesk/backend/internal/domain/shared"
	"github.com/offerdesk/backend/internal/infrastructure/config"
	infra "github.com/offerdesk/backend/internal/infrastructure/printing"
	"github.com/offerdesk/backend/internal/infrastructure/storage"
)

// ErrCodeWorkflowTimeout marks a run that exceeded the overall wall-clock
// budget, as opposed to the browser-level render timeout.
const ErrCodeWorkflowTimeout = "WORKFLOW_TIMEOUT"

// Service coordinates one generation run per call. The service itself is
// long-lived and safe for concurrent use; each call gets its own run with
// its own ID and its own browser resource.
type Service struct {
	templates *infra.TemplateStore
	engine    *infra.TemplateEngine
	assembler *infra.Assembler
	renderer  infra.PDFRenderer
	artifacts *infra.ArtifactStore
	publisher storage.Publisher
	cfg       *config.Config
	logger    *zap.Logger
}

// NewService creates a generation service. publisher may be nil, in which
// case finished PDFs are kept on disk only.
func NewService(
	templates *infra.TemplateStore,
	engine *infra.TemplateEngine,
	assembler *infra.Assembler,
	renderer infra.PDFRenderer,
	artifacts *infra.ArtifactStore,
	publisher storage.Publisher,
	cfg *config.Config,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		templates: templates,
		engine:    engine,
		assembler: assembler,
		renderer:  renderer,
		artifacts: artifacts,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// GenerateOffer runs the full pipeline for one offer
func (s *Service) GenerateOffer(ctx context.Context, o *offer.Offer) (*Result, error) {
	run := &Run{
		service: s,
		offer:   o,
		runID:   uuid.New().String(),
	}
	return run.Execute(ctx)
}

// Run is a single-use pipeline execution. Execute may be called exactly
// once; a second call fails without doing any work.
type Run struct {
	service *Service
	offer   *offer.Offer
	runID   string
	used    atomic.Bool
}

// Execute drives the pipeline stages in order. The whole run shares one
// deadline; a stage that outlives it is reported as a workflow timeout.
func (r *Run) Execute(ctx context.Context) (*Result, error) {
	if !r.used.CompareAndSwap(false, true) {
		return nil, shared.ErrInvalidState
	}

	s := r.service
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Workflow.Timeout)
	defer cancel()

	logger := s.logger.With(
		zap.String("runId", r.runID),
		zap.String("offerId", r.offer.OfferID))

	// Stage 1: validate
	if err := r.offer.Validate(); err != nil {
		logger.Warn("offer validation failed", zap.Error(err))
		return nil, err
	}

	// Output directories are checked before any expensive work
	if err := s.artifacts.EnsureDirs(); err != nil {
		logger.Error("output directories unavailable", zap.Error(err))
		return nil, err
	}

	lang := r.offer.Language
	if lang == "" {
		lang = offer.Language(s.cfg.Templates.DefaultLanguage)
	}
	lang = lang.Normalize()

	// Stage 2: resolve image references. Done before rendering so the
	// templates emit final URLs and a missing asset fails the run before
	// any template work.
	resolvedImages, err := s.assembler.Resolve(r.offer.Images)
	if err != nil {
		logger.Error("image resolution failed", zap.Error(err))
		return nil, err
	}

	// Stage 3: render templates to fragments, with resolved image URLs
	// in scope. The offer itself stays untouched.
	view := *r.offer
	view.Images = resolvedImages

	set, err := s.templates.Set(lang)
	if err != nil {
		return nil, err
	}
	fragments, err := s.engine.RenderAll(ctx, set, &view)
	if err != nil {
		logger.Error("template rendering failed", zap.Error(err))
		return nil, err
	}

	// Stage 4: assemble the fragments into one paginated document
	assembled, err := s.assembler.Assemble(fragments)
	if err != nil {
		logger.Error("assembly failed", zap.Error(err))
		return nil, err
	}

	// Stage 5: materialize intermediate HTML
	htmlPath, err := s.artifacts.MaterializeHTML(r.runID, fragments, assembled)
	if err != nil {
		logger.Error("HTML materialization failed", zap.Error(err))
		return nil, err
	}
	logger.Debug("HTML materialized", zap.String("path", htmlPath))

	// Stage 6: print to PDF
	renderResult, err := s.renderer.Render(ctx, r.renderRequest(assembled))
	if err != nil {
		if ctx.Err() != nil {
			// The run deadline expired; report it as a workflow timeout
			// rather than a browser failure.
			logger.Error("generation run timed out", zap.Error(err))
			return nil, infra.NewRenderError(ErrCodeWorkflowTimeout,
				fmt.Sprintf("generation run exceeded %v", s.cfg.Workflow.Timeout), err)
		}
		logger.Error("PDF rendering failed", zap.Error(err))
		return nil, err
	}

	// Stage 7: store the PDF
	fileName := r.offer.SuggestedFileName()
	pdfPath, err := s.artifacts.StorePDF(fileName, renderResult.PDFData)
	if err != nil {
		logger.Error("PDF storage failed", zap.Error(err))
		return nil, err
	}

	result := &Result{
		RunID:          r.runID,
		FileName:       fileName,
		PDFPath:        pdfPath,
		PageCount:      renderResult.PageCount,
		PDFBytes:       len(renderResult.PDFData),
		RenderDuration: renderResult.RenderDuration,
	}

	// Stage 8: publish (best-effort)
	if s.publisher != nil && s.cfg.Storage.Enabled {
		published, pubErr := s.publisher.Publish(ctx, fileName, renderResult.PDFData)
		if pubErr != nil {
			logger.Warn("PDF publication failed", zap.Error(pubErr))
			if published == nil {
				published = &storage.PublishResult{Success: false, Error: pubErr.Error()}
			}
		}
		result.Published = published
	}

	// Stage 9: cleanup intermediate HTML (best-effort)
	if s.cfg.Output.CleanupHTML {
		if cleanErr := s.artifacts.CleanupHTML(r.runID); cleanErr != nil {
			logger.Warn("HTML cleanup failed", zap.Error(cleanErr))
		}
	}

	result.TotalDuration = time.Since(start)

	logger.Info("offer PDF generated",
		zap.String("file", fileName),
		zap.Int("pages", result.PageCount),
		zap.Int("bytes", result.PDFBytes),
		zap.Duration("renderDuration", result.RenderDuration),
		zap.Duration("totalDuration", result.TotalDuration))

	return result, nil
}

// renderRequest builds the browser print request from configuration
func (r *Run) renderRequest(html string) *infra.RenderRequest {
	cfg := r.service.cfg
	return &infra.RenderRequest{
		HTML:        html,
		PaperSize:   domainprinting.PaperSize(cfg.PDF.PaperSize),
		Orientation: domainprinting.OrientationPortrait,
		Margins: domainprinting.Margins{
			Top:    cfg.PDF.MarginTop,
			Right:  cfg.PDF.MarginRight,
			Bottom: cfg.PDF.MarginBottom,
			Left:   cfg.PDF.MarginLeft,
		},
		Title:             "Offer " + r.offer.OfferID,
		PrintBackground:   cfg.PDF.PrintBackground,
		PreferCSSPageSize: cfg.PDF.PreferCSSPageSize,
		Timeout:           cfg.PDF.RenderTimeout,
	}
}

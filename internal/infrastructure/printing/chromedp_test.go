package printing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offerdesk/backend/internal/domain/printing"
)

func TestNewChromedpRendererDefaults(t *testing.T) {
	r := NewChromedpRenderer(nil)
	assert.Equal(t, 60*time.Second, r.config.DefaultTimeout)
	assert.Equal(t, 1.0, r.config.Scale)
	assert.NotNil(t, r.logger)
}

func TestRenderRequestValidation(t *testing.T) {
	r := NewChromedpRenderer(nil)
	ctx := context.Background()

	t.Run("nil request", func(t *testing.T) {
		_, err := r.Render(ctx, nil)
		assert.Error(t, err)
	})

	t.Run("empty html", func(t *testing.T) {
		_, err := r.Render(ctx, &RenderRequest{HTML: "   ", PaperSize: printing.PaperSizeA4})
		require.Error(t, err)
		assert.Equal(t, ErrCodeInvalidHTML, ErrorCode(err))
	})

	t.Run("invalid paper size", func(t *testing.T) {
		_, err := r.Render(ctx, &RenderRequest{HTML: "<p>x</p>", PaperSize: "B5"})
		require.Error(t, err)
		assert.Equal(t, ErrCodeInvalidPaperSize, ErrorCode(err))
	})
}

func TestBuildPrintParams(t *testing.T) {
	r := NewChromedpRenderer(nil)

	req := &RenderRequest{
		HTML:              "<p>x</p>",
		PaperSize:         printing.PaperSizeA4,
		Orientation:       printing.OrientationPortrait,
		Margins:           printing.DefaultMargins(),
		PrintBackground:   true,
		PreferCSSPageSize: true,
	}
	params := r.buildPrintParams(req)

	assert.InDelta(t, 8.27, params.paperWidth, 0.01)
	assert.InDelta(t, 11.69, params.paperHeight, 0.01)
	assert.InDelta(t, 0.787, params.marginTop, 0.001) // 20mm
	assert.Equal(t, params.marginTop, params.marginBottom)
	assert.Equal(t, params.marginLeft, params.marginRight)
	assert.False(t, params.landscape)
	assert.True(t, params.printBackground)
	assert.True(t, params.preferCSSPageSize)

	req.Orientation = printing.OrientationLandscape
	assert.True(t, r.buildPrintParams(req).landscape)
}

func TestBuildCompleteHTML(t *testing.T) {
	r := NewChromedpRenderer(nil)

	t.Run("wraps bare fragment", func(t *testing.T) {
		out := r.buildCompleteHTML(&RenderRequest{HTML: "<p>hello</p>", Title: "Offer OF-1"})
		assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
		assert.Contains(t, out, "<title>Offer OF-1</title>")
		assert.Contains(t, out, "<p>hello</p>")
	})

	t.Run("complete document passes through", func(t *testing.T) {
		doc := "<!DOCTYPE html><html><body>x</body></html>"
		assert.Equal(t, doc, r.buildCompleteHTML(&RenderRequest{HTML: doc}))
	})
}

func TestMmToInches(t *testing.T) {
	assert.InDelta(t, 1.0, mmToInches(25.4), 0.0001)
	assert.Zero(t, mmToInches(0))
}

func TestEstimatePageCount(t *testing.T) {
	pdf := []byte("%PDF-1.4 /Type /Pages /Type /Page /Type /Page /Type /Page")
	assert.Equal(t, 3, estimatePageCount(pdf))

	// Writers may omit the whitespace between the name tokens
	compact := []byte("%PDF-1.4 /Type/Pages /Type/Page /Type/Page")
	assert.Equal(t, 2, estimatePageCount(compact))

	// Unparseable data still reports at least one page
	assert.Equal(t, 1, estimatePageCount([]byte("garbage")))
}

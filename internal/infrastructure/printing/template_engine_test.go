package printing_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infra "github.com/offerdesk/backend/internal/infrastructure/printing"
)

func TestRenderFragment(t *testing.T) {
	engine := infra.NewTemplateEngine()
	ctx := context.Background()

	t.Run("renders data", func(t *testing.T) {
		out, err := engine.RenderFragment(ctx, "test", "<p>{{ .Name }}</p>", map[string]string{"Name": "Acme"})
		require.NoError(t, err)
		assert.Equal(t, "<p>Acme</p>", out)
	})

	t.Run("escapes HTML in data", func(t *testing.T) {
		out, err := engine.RenderFragment(ctx, "test", "<p>{{ .Name }}</p>", map[string]string{"Name": "<script>"})
		require.NoError(t, err)
		assert.NotContains(t, out, "<script>")
	})

	t.Run("parse failure is template syntax error", func(t *testing.T) {
		_, err := engine.RenderFragment(ctx, "bad", "{{ .Name ", nil)
		require.Error(t, err)
		assert.Equal(t, infra.ErrCodeTemplateSyntax, infra.ErrorCode(err))
	})

	t.Run("empty template rejected", func(t *testing.T) {
		_, err := engine.RenderFragment(ctx, "empty", "", nil)
		assert.Error(t, err)
	})

	t.Run("deterministic output", func(t *testing.T) {
		data := map[string]interface{}{"Total": decimal.NewFromFloat(1234.5)}
		first, err := engine.RenderFragment(ctx, "det", "{{ formatMoney .Total }}", data)
		require.NoError(t, err)
		second, err := engine.RenderFragment(ctx, "det", "{{ formatMoney .Total }}", data)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestRenderAll(t *testing.T) {
	engine := infra.NewTemplateEngine()
	set := []infra.NamedTemplate{
		{Name: "coverpage", Content: "<h1>{{ .Title }}</h1>"},
		{Name: "page1", Content: "<p>{{ .Title }}</p>"},
	}

	fragments, err := engine.RenderAll(context.Background(), set, map[string]string{"Title": "Offer"})
	require.NoError(t, err)
	require.Len(t, fragments, 2)
	assert.Equal(t, "coverpage", fragments[0].Name)
	assert.Equal(t, "<h1>Offer</h1>", fragments[0].HTML)
	assert.Equal(t, "page1", fragments[1].Name)

	t.Run("first failing template aborts", func(t *testing.T) {
		bad := []infra.NamedTemplate{
			{Name: "coverpage", Content: "{{ .Broken "},
			{Name: "page1", Content: "ok"},
		}
		_, err := engine.RenderAll(context.Background(), bad, nil)
		assert.Error(t, err)
	})
}

func TestTemplateFunctions(t *testing.T) {
	engine := infra.NewTemplateEngine()
	ctx := context.Background()

	render := func(tmpl string, data interface{}) string {
		t.Helper()
		out, err := engine.RenderFragment(ctx, "fn", tmpl, data)
		require.NoError(t, err)
		return out
	}

	t.Run("formatMoney", func(t *testing.T) {
		assert.Equal(t, "1,234.50", render("{{ formatMoney . }}", decimal.NewFromFloat(1234.5)))
		assert.Equal(t, "0.00", render("{{ formatMoney . }}", decimal.Zero))
		assert.Equal(t, "-1,000,000.00", render("{{ formatMoney . }}", decimal.NewFromInt(-1000000)))
	})

	t.Run("formatPercent", func(t *testing.T) {
		assert.Equal(t, "23%", render("{{ formatPercent . }}", decimal.NewFromInt(23)))
		assert.Equal(t, "7.50%", render("{{ formatPercent . }}", decimal.NewFromFloat(7.5)))
	})

	t.Run("formatDecimal", func(t *testing.T) {
		assert.Equal(t, "3.142", render(`{{ formatDecimal . 3 }}`, decimal.NewFromFloat(3.14159)))
	})

	t.Run("formatDate", func(t *testing.T) {
		d := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
		assert.Equal(t, "2026-03-14", render("{{ formatDate . }}", d))
	})

	t.Run("arithmetic", func(t *testing.T) {
		assert.Equal(t, "5", render("{{ add 2 3 }}", nil))
		assert.Equal(t, "6", render("{{ mul 2 3 }}", nil))
		assert.Equal(t, "0", render("{{ div 1 0 }}", nil))
	})

	t.Run("default", func(t *testing.T) {
		assert.Equal(t, "fallback", render(`{{ default . "fallback" }}`, ""))
		assert.Equal(t, "value", render(`{{ default . "fallback" }}`, "value"))
	})
}

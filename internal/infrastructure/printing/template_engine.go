package printing

import (
	"bytes"
	"context"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TemplateEngine renders offer templates to HTML fragments.
// It uses Go's html/template package with custom functions for formatting.
// Rendering is pure: the same data and template always produce the same
// output, and nothing is written to disk.
type TemplateEngine struct {
	funcMap template.FuncMap
}

// NewTemplateEngine creates a new template engine with the default
// formatting functions
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{}

	e.funcMap = template.FuncMap{
		// Money and number formatting
		"formatMoney":   formatMoney,
		"formatDecimal": formatDecimal,
		"formatInt":     formatInt,
		"formatPercent": formatPercent,

		// Date formatting
		"formatDate": formatDate,

		// String utilities
		"upper":   strings.ToUpper,
		"lower":   strings.ToLower,
		"title":   titleCase,
		"trim":    strings.TrimSpace,
		"replace": strings.ReplaceAll,

		// Arithmetic
		"add": add,
		"sub": sub,
		"mul": mul,
		"div": div,

		// Conditional
		"default": defaultFunc,

		// Safe HTML (trusted template content only)
		"safeHTML": safeHTML,
		"safeCSS":  safeCSS,
		"safeURL":  safeURL,
	}

	return e
}

// RenderFragment renders a single named template with the provided data.
// A parse failure is a configuration error (TEMPLATE_SYNTAX), distinct
// from execution failures.
func (e *TemplateEngine) RenderFragment(ctx context.Context, name, content string, data interface{}) (string, error) {
	if content == "" {
		return "", NewRenderError(ErrCodeInvalidHTML, "template content is empty: "+name, nil)
	}

	tmpl, err := template.New(name).Funcs(e.funcMap).Parse(content)
	if err != nil {
		return "", NewRenderError(ErrCodeTemplateSyntax, "failed to parse template "+name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute template "+name, err)
	}

	return buf.String(), nil
}

// RenderAll renders the ordered template set into ordered fragments,
// one per template, each with the full data in scope
func (e *TemplateEngine) RenderAll(ctx context.Context, set []NamedTemplate, data interface{}) ([]Fragment, error) {
	fragments := make([]Fragment, 0, len(set))
	for _, t := range set {
		html, err := e.RenderFragment(ctx, t.Name, t.Content, data)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, Fragment{Name: t.Name, HTML: html})
	}
	return fragments, nil
}

// =============================================================================
// Template Functions
// =============================================================================

// formatMoney formats a decimal value with thousand separators
// Example: 1234.5 -> "1,234.50"
func formatMoney(v interface{}) string {
	d := toDecimal(v)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	parts := strings.Split(d.StringFixed(2), ".")
	intPart := parts[0]
	decPart := "00"
	if len(parts) > 1 {
		decPart = parts[1]
	}

	var result strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(c)
	}

	return sign + result.String() + "." + decPart
}

// formatDecimal formats a decimal with the given precision
func formatDecimal(v interface{}, precision int) string {
	return toDecimal(v).StringFixed(int32(precision))
}

// formatInt formats as integer
func formatInt(v interface{}) string {
	return toDecimal(v).Round(0).String()
}

// formatPercent renders a percentage value with a % suffix
// Example: 23 -> "23%"
func formatPercent(v interface{}) string {
	d := toDecimal(v)
	if d.Equal(d.Round(0)) {
		return d.Round(0).String() + "%"
	}
	return d.StringFixed(2) + "%"
}

// formatDate formats a time value as an ISO date string
func formatDate(v interface{}) string {
	t := toTime(v)
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// titleCase converts string to title case using proper Unicode handling
func titleCase(s string) string {
	caser := cases.Title(language.English)
	return caser.String(s)
}

func add(a, b interface{}) decimal.Decimal {
	return toDecimal(a).Add(toDecimal(b))
}

func sub(a, b interface{}) decimal.Decimal {
	return toDecimal(a).Sub(toDecimal(b))
}

func mul(a, b interface{}) decimal.Decimal {
	return toDecimal(a).Mul(toDecimal(b))
}

func div(a, b interface{}) decimal.Decimal {
	bDec := toDecimal(b)
	if bDec.IsZero() {
		return decimal.Zero
	}
	return toDecimal(a).Div(bDec)
}

func defaultFunc(val, def interface{}) interface{} {
	if val == nil {
		return def
	}
	if s, ok := val.(string); ok && s == "" {
		return def
	}
	return val
}

// safeHTML marks a string as safe HTML, bypassing automatic escaping.
// Only use with trusted, non-user-generated content.
func safeHTML(s string) template.HTML {
	return template.HTML(s)
}

// safeCSS marks a string as safe CSS, bypassing automatic escaping.
func safeCSS(s string) template.CSS {
	return template.CSS(s)
}

// safeURL marks a string as safe URL, bypassing automatic escaping.
func safeURL(s string) template.URL {
	return template.URL(s)
}

// toDecimal converts various types to decimal.Decimal
func toDecimal(v interface{}) decimal.Decimal {
	switch val := v.(type) {
	case decimal.Decimal:
		return val
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero
		}
		return *val
	case int:
		return decimal.NewFromInt(int64(val))
	case int32:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case float32:
		return decimal.NewFromFloat(float64(val))
	case float64:
		return decimal.NewFromFloat(val)
	case string:
		d, err := decimal.NewFromString(val)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// toTime converts various types to time.Time
func toTime(v interface{}) time.Time {
	switch val := v.(type) {
	case time.Time:
		return val
	case *time.Time:
		if val == nil {
			return time.Time{}
		}
		return *val
	case string:
		formats := []string{
			time.RFC3339,
			"2006-01-02 15:04:05",
			"2006-01-02",
		}
		for _, f := range formats {
			if t, err := time.Parse(f, val); err == nil {
				return t
			}
		}
		return time.Time{}
	default:
		return time.Time{}
	}
}

package printing

import (
	"context"
	"errors"
	"time"

	"github.com/offerdesk/backend/internal/domain/printing"
)

// Fragment is one rendered HTML fragment, named after its template
type Fragment struct {
	// Name is the template name the fragment was rendered from
	Name string
	// HTML is the rendered content
	HTML string
}

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	// HTML content to render
	HTML string
	// PaperSize defines the output paper dimensions
	PaperSize printing.PaperSize
	// Orientation defines portrait or landscape
	Orientation printing.Orientation
	// Margins in millimeters
	Margins printing.Margins
	// Title for the PDF document metadata
	Title string
	// PrintBackground paints CSS-declared backgrounds
	PrintBackground bool
	// PreferCSSPageSize lets the document's own @page size win over PaperSize
	PreferCSSPageSize bool
	// Timeout overrides the default rendering timeout
	Timeout time.Duration
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	// PDFData is the raw PDF file content
	PDFData []byte
	// PageCount is the number of pages in the PDF
	PageCount int
	// RenderDuration is how long the rendering took
	RenderDuration time.Duration
}

// PDFRenderer defines the interface for rendering HTML to PDF.
// Implementations acquire whatever browser resource they need for the
// duration of a single call and release it on every exit path; nothing
// is cached between calls.
type PDFRenderer interface {
	// Render converts HTML content to a PDF document
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
}

// RenderError represents an error during document generation
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for generation failures
const (
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeBrowserLaunch    = "BROWSER_LAUNCH_FAILED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
	ErrCodeTemplateNotFound = "TEMPLATE_NOT_FOUND"
	ErrCodeTemplateSyntax   = "TEMPLATE_SYNTAX"
	ErrCodeAssetNotFound    = "ASSET_NOT_FOUND"
	ErrCodeStorageFailed    = "STORAGE_FAILED"
	ErrCodeOutputDirMissing = "OUTPUT_DIR_MISSING"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrorCode extracts the RenderError code from err, or "" if err is not a
// RenderError
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var re *RenderError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

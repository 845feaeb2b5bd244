package generation

import (
	"time"

	"github.com/offerdesk/backend/internal/infrastructure/storage"
)

// Result describes a completed generation run
type Result struct {
	// RunID identifies the run; HTML artifacts are stored under it
	RunID string `json:"run_id"`
	// FileName is the final PDF file name, derived from the client company
	FileName string `json:"file_name"`
	// PDFPath is the path of the stored PDF on disk
	PDFPath string `json:"pdf_path"`
	// PageCount is the number of pages in the generated PDF
	PageCount int `json:"page_count"`
	// PDFBytes is the size of the generated PDF in bytes
	PDFBytes int `json:"pdf_bytes"`
	// RenderDuration is the time spent inside the browser
	RenderDuration time.Duration `json:"render_duration"`
	// TotalDuration is the wall-clock time of the whole run
	TotalDuration time.Duration `json:"total_duration"`
	// Published reports the blob publication outcome, nil when
	// publication is disabled
	Published *storage.PublishResult `json:"published,omitempty"`
}

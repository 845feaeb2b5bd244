package printing

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ArtifactStore persists the byproducts of a generation run: the
// intermediate HTML fragments and the final PDF. Directories are created
// lazily on first write.
type ArtifactStore struct {
	htmlDir string
	pdfDir  string
	logger  *zap.Logger
}

// NewArtifactStore creates an artifact store rooted at the given
// directories
func NewArtifactStore(htmlDir, pdfDir string, logger *zap.Logger) *ArtifactStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArtifactStore{
		htmlDir: htmlDir,
		pdfDir:  pdfDir,
		logger:  logger,
	}
}

// EnsureDirs creates the artifact directories if they do not exist.
// Called before a run does any expensive work so a misconfigured output
// path fails fast instead of after rendering.
func (s *ArtifactStore) EnsureDirs() error {
	for _, dir := range []string{s.htmlDir, s.pdfDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return NewRenderError(ErrCodeOutputDirMissing, "cannot create output directory "+dir, err)
		}
	}
	return nil
}

// StorePDF writes the final PDF under the PDF directory and returns the
// full path. The filename must be a bare name; anything that could
// escape the directory is rejected.
func (s *ArtifactStore) StorePDF(filename string, data []byte) (string, error) {
	if err := validateArtifactName(filename); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", NewRenderError(ErrCodeStorageFailed, "refusing to store empty PDF", nil)
	}

	if err := os.MkdirAll(s.pdfDir, 0755); err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "cannot create PDF directory "+s.pdfDir, err)
	}

	fullPath := filepath.Join(s.pdfDir, filename)
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "cannot write PDF "+fullPath, err)
	}

	s.logger.Info("PDF stored",
		zap.String("path", fullPath),
		zap.Int("bytes", len(data)))

	return fullPath, nil
}

// MaterializeHTML writes the per-run HTML artifacts: one file per
// fragment plus the assembled document, under a run-scoped subdirectory.
// Returns the path of the assembled document.
func (s *ArtifactStore) MaterializeHTML(runID string, fragments []Fragment, assembled string) (string, error) {
	if err := validateArtifactName(runID); err != nil {
		return "", err
	}

	runDir := filepath.Join(s.htmlDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "cannot create HTML directory "+runDir, err)
	}

	for _, frag := range fragments {
		path := filepath.Join(runDir, frag.Name+".html")
		if err := os.WriteFile(path, []byte(frag.HTML), 0644); err != nil {
			return "", NewRenderError(ErrCodeStorageFailed, "cannot write fragment "+path, err)
		}
	}

	assembledPath := filepath.Join(runDir, "document.html")
	if err := os.WriteFile(assembledPath, []byte(assembled), 0644); err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "cannot write assembled document", err)
	}

	return assembledPath, nil
}

// CleanupHTML removes the run's HTML artifacts. Missing directories are
// not an error.
func (s *ArtifactStore) CleanupHTML(runID string) error {
	if err := validateArtifactName(runID); err != nil {
		return err
	}

	runDir := filepath.Join(s.htmlDir, runID)
	if err := os.RemoveAll(runDir); err != nil {
		return NewRenderError(ErrCodeStorageFailed, "cannot remove HTML directory "+runDir, err)
	}
	return nil
}

// CleanupOlderThan removes PDF artifacts older than the given age.
// Used by the retention sweep; age <= 0 disables it.
func (s *ArtifactStore) CleanupOlderThan(age time.Duration) (int, error) {
	if age <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(s.pdfDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, NewRenderError(ErrCodeStorageFailed, "cannot read PDF directory "+s.pdfDir, err)
	}

	cutoff := time.Now().Add(-age)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.pdfDir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.logger.Warn("retention sweep could not remove file",
				zap.String("path", path), zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("retention sweep removed old PDFs", zap.Int("count", removed))
	}
	return removed, nil
}

// validateArtifactName rejects names that could escape the artifact
// directories
func validateArtifactName(name string) error {
	if name == "" {
		return NewRenderError(ErrCodeStorageFailed, "artifact name is empty", nil)
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return NewRenderError(ErrCodeStorageFailed, "invalid artifact name: "+name, nil)
	}
	return nil
}

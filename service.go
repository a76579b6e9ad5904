package docbatch

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"docbatch/internal/dateutil"
	"docbatch/internal/fileutil"
)

// ArchiveName is the fixed basename of the batch archive inside the
// output directory.
const ArchiveName = "result.zip"

// defaultTimeout bounds a single page render in headless Chrome.
const defaultTimeout = 30 * time.Second

// barcodeDigits is the zero-padded width of the daily sequence number
// inside a barcode.
const barcodeDigits = 12

// ServiceConfig holds the filesystem layout and rendering conventions of
// the batch service.
type ServiceConfig struct {
	// TemplatesDir contains the selectable *.html document templates and
	// their image assets.
	TemplatesDir string

	// OutputDir receives the generated PDFs and the batch archive. It is
	// emptied at the start of every batch.
	OutputDir string

	// CounterFile is the path of the persisted daily counter record.
	CounterFile string

	// FilenameColumn names the spreadsheet column whose trimmed value
	// becomes the output filename. Rows without it fall back to a
	// positional name.
	FilenameColumn string

	// NoticeDateFormat is the dateutil format for the generated
	// NOTICE_DATE field. Empty uses dateutil.DefaultDateFormat.
	NoticeDateFormat string
}

// Service orchestrates batch PDF generation: it iterates spreadsheet rows,
// drives the template renderer and the PDF engine, collects output files,
// and publishes progress. One batch runs at a time; a second Generate
// call while one is in flight fails with ErrBatchInFlight.
type Service struct {
	cfg      ServiceConfig
	timeout  time.Duration
	renderer *Renderer
	pdf      pdfConverter
	counter  *CounterStore
	tracker  *Tracker
	logger   *zap.Logger
	now      func() time.Time

	batchMu sync.Mutex
}

// Option customizes a Service.
type Option func(*Service)

// WithTimeout sets the per-document render timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// withPDFConverter injects a PDF engine (used by tests to avoid a browser).
func withPDFConverter(c pdfConverter) Option {
	return func(s *Service) { s.pdf = c }
}

// withClock injects a fixed clock for deterministic tests.
func withClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service. A nil logger disables diagnostics.
func NewService(cfg ServiceConfig, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		cfg:      cfg,
		timeout:  defaultTimeout,
		renderer: NewRenderer(logger),
		counter:  NewCounterStore(cfg.CounterFile),
		tracker:  NewTracker(),
		logger:   logger,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Create PDF converter if not injected (e.g., by tests)
	if s.pdf == nil {
		s.pdf = newRodConverter(s.timeout)
	}

	return s
}

// Tracker returns the progress tracker observed by streaming clients.
func (s *Service) Tracker() *Tracker {
	return s.tracker
}

// OutputDir returns the directory holding generated PDFs and the archive.
func (s *Service) OutputDir() string {
	return s.cfg.OutputDir
}

// ListTemplates returns the selectable template names, sorted.
func (s *Service) ListTemplates() ([]string, error) {
	entries, err := os.ReadDir(s.cfg.TemplatesDir)
	if err != nil {
		return nil, fmt.Errorf("reading templates directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// LoadTemplate reads a template by name. The name must be a plain file
// name from the templates directory; anything else is ErrTemplateNotFound.
func (s *Service) LoadTemplate(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/\\") || !strings.HasSuffix(name, ".html") {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}

	data, err := os.ReadFile(filepath.Join(s.cfg.TemplatesDir, name)) // #nosec G304 -- name validated above
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
		}
		return "", fmt.Errorf("reading template %q: %w", name, err)
	}
	return string(data), nil
}

// Generate runs one batch: renders every row against the named template,
// converts each document to PDF, and bundles the results into
// ArchiveName inside the output directory.
//
// The counter is read once at batch start so the batch reserves a
// contiguous range of sequence numbers, and persisted once after every
// row succeeded. On failure the batch aborts, partial output files stay
// in place (the next batch or a cleanup call clears them), and progress
// stops at its last published value.
func (s *Service) Generate(ctx context.Context, rows []Row, templateName string) error {
	if !s.batchMu.TryLock() {
		return ErrBatchInFlight
	}
	defer s.batchMu.Unlock()

	if len(rows) == 0 {
		return ErrNoRows
	}

	templateText, err := s.LoadTemplate(templateName)
	if err != nil {
		return err
	}

	if err := fileutil.EmptyDir(s.cfg.OutputDir); err != nil {
		return fmt.Errorf("resetting output directory: %w", err)
	}

	now := s.now()
	last, err := s.counter.Read(now)
	if err != nil {
		return fmt.Errorf("reading counter: %w", err)
	}

	noticeDate, err := dateutil.FormatDate(s.cfg.NoticeDateFormat, now)
	if err != nil {
		return fmt.Errorf("formatting notice date: %w", err)
	}

	templateBase := strings.TrimSuffix(templateName, ".html")
	total := len(rows)
	files := make([]string, 0, total)
	usedNames := make(map[string]bool, total)

	s.logger.Info("batch started",
		zap.String("template", templateName),
		zap.Int("rows", total))

	for i, row := range rows {
		seq := last + i + 1
		generated := map[string]string{
			FieldBarcode:    formatBarcode(now.Year(), seq),
			FieldNoticeDate: noticeDate,
		}

		html := s.renderer.Render(templateText, row, generated, s.cfg.TemplatesDir)

		pdf, err := s.pdf.ToPDF(ctx, html)
		if err != nil {
			return fmt.Errorf("rendering document %d/%d: %w", i+1, total, err)
		}

		name := s.outputName(row, templateBase, i, usedNames)
		outPath := filepath.Join(s.cfg.OutputDir, name)
		if err := os.WriteFile(outPath, pdf, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		files = append(files, outPath)

		percent := int(math.Round(float64(i+1) / float64(total) * 100))
		s.tracker.Set(Snapshot{
			Percent: percent,
			Message: fmt.Sprintf("%d/%d completed", i+1, total),
			Ready:   false,
		})
		s.logger.Debug("document generated",
			zap.String("file", name),
			zap.Int("percent", percent))
	}

	if err := s.counter.Write(last+total, now); err != nil {
		return fmt.Errorf("persisting counter: %w", err)
	}

	if err := BuildArchive(filepath.Join(s.cfg.OutputDir, ArchiveName), files); err != nil {
		return err
	}

	s.tracker.Set(Snapshot{Percent: 100, Message: "documents ready", Ready: true})
	s.logger.Info("batch completed", zap.Int("documents", total))
	return nil
}

// Cleanup empties the output directory and resets progress. Idempotent.
func (s *Service) Cleanup() error {
	if err := fileutil.EmptyDir(s.cfg.OutputDir); err != nil {
		return fmt.Errorf("emptying output directory: %w", err)
	}
	s.tracker.Reset()
	return nil
}

// Close releases resources (headless Chrome browser).
func (s *Service) Close() error {
	if s.pdf != nil {
		return s.pdf.Close()
	}
	return nil
}

// outputName derives a PDF filename for one row: the trimmed value of the
// designated column when present, otherwise "<templateBase>_<n>". Names
// already taken within the batch get a numeric suffix.
func (s *Service) outputName(row Row, templateBase string, index int, used map[string]bool) string {
	base := ""
	if s.cfg.FilenameColumn != "" {
		base = fileutil.SanitizeFilename(row[s.cfg.FilenameColumn])
	}
	if base == "" {
		base = fmt.Sprintf("%s_%d", templateBase, index+1)
	}

	name := base
	for n := 2; used[name]; n++ {
		name = fmt.Sprintf("%s_%d", base, n)
	}
	used[name] = true
	return name + ".pdf"
}

// formatBarcode builds the document identifier: the year followed by the
// daily sequence number zero-padded to barcodeDigits.
func formatBarcode(year, seq int) string {
	return fmt.Sprintf("%d%0*d", year, barcodeDigits, seq)
}

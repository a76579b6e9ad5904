package docbatch

import "errors"

// Sentinel errors for batch generation.
var (
	ErrNoRows           = errors.New("spreadsheet contains no data rows")
	ErrTemplateNotFound = errors.New("template not found")
	ErrBatchInFlight    = errors.New("another batch is already running")

	// PDF engine errors.
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")

	// Archive errors.
	ErrArchiveBuild = errors.New("archive build failed")
)

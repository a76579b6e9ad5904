// Package docbatch batch-generates personalized PDF documents from an
// uploaded spreadsheet and an HTML template, using headless Chrome.
//
// # Pipeline
//
// One batch covers all rows of one spreadsheet against one template:
//
//  1. Spreadsheet rows are loaded from the first sheet (header row maps
//     column names to cell values).
//  2. For each row, {{NAME}} placeholders in the template are substituted
//     with the row's values plus two generated fields: a BARCODE built
//     from the current year and a daily sequence number, and a formatted
//     NOTICE_DATE.
//  3. Local images referenced by the template (CSS url() and <img> tags)
//     are inlined as base64 data URIs so the rendered page is
//     self-contained.
//  4. The final HTML is rendered to PDF via headless Chrome (go-rod).
//  5. All PDFs are packaged into a single result.zip with maximum
//     compression.
//
// Progress is published as a process-wide snapshot that HTTP clients
// observe over a Server-Sent Events stream.
//
// # Quick Start
//
//	svc := docbatch.NewService(cfg, logger)
//	defer svc.Close()
//
//	rows, err := docbatch.LoadRows(file)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := svc.Generate(ctx, rows, "notice.html"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Concurrency
//
// The service processes one batch at a time: the output directory, the
// daily counter file, and the progress snapshot are process-wide
// singletons. A second Generate call while a batch is in flight fails
// fast with ErrBatchInFlight.
//
// # Browser Requirements
//
// PDF generation requires Chrome/Chromium. The go-rod library
// automatically downloads a managed Chromium instance on first run.
// Use ROD_BROWSER_BIN to point at a pre-installed binary in containers.
package docbatch

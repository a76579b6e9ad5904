package docbatch

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one record from the spreadsheet's first sheet, mapping column
// name to cell value. Row order drives document numbering and output
// ordering.
type Row map[string]string

// LoadRows reads the first sheet of an xlsx document. The first row is
// the header; every following row maps column name to cell value. Cells
// missing at the end of a row read as empty strings; rows with no content
// at all are skipped. Returns ErrNoRows when no data rows remain.
func LoadRows(r io.Reader) ([]Row, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening spreadsheet: %w", err)
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrNoRows
	}

	cells, err := file.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheetName, err)
	}
	if len(cells) < 2 {
		return nil, ErrNoRows
	}

	header := cells[0]
	rows := make([]Row, 0, len(cells)-1)
	for _, record := range cells[1:] {
		if isBlankRecord(record) {
			continue
		}
		row := make(Row, len(header))
		for i, name := range header {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if i < len(record) {
				row[name] = record[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

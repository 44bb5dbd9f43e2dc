// Package ingest parses uploaded spreadsheet and CSV files into tabular
// row data shared by the preview and table-creation paths.
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Table is the parsed content of one uploaded file: an ordered header and
// one map per data row. Cells missing from a short row are rendered as
// empty strings, indistinguishable from explicitly empty cells.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// SupportedExtensions lists the accepted file suffixes, lower-case.
var SupportedExtensions = []string{".xlsx", ".xls", ".csv"}

// IsSupportedFilename reports whether the filename carries an accepted
// spreadsheet or CSV extension, case-insensitive.
func IsSupportedFilename(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Parse reads the file content and returns its header and rows.
// The format is selected by filename extension. Fully empty rows are dropped.
func Parse(filename string, r io.Reader) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return parseCSV(r)
	case ".xls":
		return parseXLS(r)
	default:
		return parseXLSX(r)
	}
}

// parseCSV is intentionally lenient for probing user files: field counts may
// vary per record and quotes are not validated strictly.
func parseCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("file is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("read record: %w", err)
		}
		records = append(records, rec)
	}

	return buildTable(header, records), nil
}

func parseXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	header := rows[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	return buildTable(header, rows[1:]), nil
}

// parseXLS reads the legacy binary workbook format, which excelize does not
// understand. The reader needs random access, so the capped file is buffered.
func parseXLS(r io.Reader) (*Table, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	wb, err := xls.OpenReader(bytes.NewReader(content), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	headerRow := sheet.Row(0)
	if headerRow == nil {
		return nil, fmt.Errorf("file is empty")
	}
	width := headerRow.LastCol()
	if width == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	header := make([]string, width)
	for j := 0; j < width; j++ {
		header[j] = strings.TrimSpace(headerRow.Col(j))
	}

	var records [][]string
	for i := 1; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		rec := make([]string, width)
		for j := 0; j < width; j++ {
			rec[j] = row.Col(j)
		}
		records = append(records, rec)
	}

	return buildTable(header, records), nil
}

// buildTable aligns records to the header. Short records yield empty cells,
// surplus cells are ignored, and rows with no values at all are dropped.
func buildTable(header []string, records [][]string) *Table {
	t := &Table{Columns: header}
	for _, rec := range records {
		row := make(map[string]string, len(header))
		empty := true
		for i, col := range header {
			var v string
			if i < len(rec) {
				v = strings.TrimSpace(rec[i])
			}
			if v != "" {
				empty = false
			}
			row[col] = v
		}
		if empty {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

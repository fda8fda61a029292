// Package sheets turns an uploaded spreadsheet into the row table the binding store consumes.
package sheets

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/zeptools/certmerge/binding"
)

var (
	ErrNoSheets        = errors.New("the Excel file is empty")
	ErrNoRows          = errors.New("no data found in the Excel file")
	ErrNoColumns       = errors.New("no columns found in the Excel file")
	ErrUnsupportedFile = errors.New("unsupported file type: use .xlsx or .csv")
)

// EmptyHeader names columns whose header cell is blank
const EmptyHeader = "__EMPTY"

// Table - column names in sheet order plus one Row per non-blank data row
type Table struct {
	Columns []string
	Rows    []binding.Row
}

type Importer interface {
	Parse(data []byte, hasHeaderRow bool) (Table, error)
}

// zip local file header, which every .xlsx starts with
var zipMagic = []byte("PK\x03\x04")

// Detect picks the importer for an upload by extension, checking xlsx content too.
func Detect(filename string, data []byte) (Importer, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		if !bytes.HasPrefix(data, zipMagic) {
			return nil, fmt.Errorf("%w: %s is not a valid workbook", ErrUnsupportedFile, filename)
		}
		return XLSX{}, nil
	case ".csv":
		return CSV{Comma: ','}, nil
	case ".tsv":
		return CSV{Comma: '\t'}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filename)
}

// Import detects and parses in one step.
func Import(filename string, data []byte, hasHeaderRow bool) (Table, error) {
	imp, err := Detect(filename, data)
	if err != nil {
		return Table{}, err
	}
	return imp.Parse(data, hasHeaderRow)
}

// XLSX reads the first worksheet of a workbook using formatted cell values.
type XLSX struct{}

func (XLSX) Parse(data []byte, hasHeaderRow bool) (Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, ErrNoSheets
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return buildTable(records, hasHeaderRow)
}

func buildTable(records [][]string, hasHeaderRow bool) (Table, error) {
	records = dropBlank(records)
	if len(records) == 0 {
		return Table{}, ErrNoRows
	}
	width := 0
	for _, r := range records {
		width = max(width, len(r))
	}

	var columns []string
	if hasHeaderRow {
		columns = headerNames(records[0], width)
		records = records[1:]
	} else {
		columns = letterNames(width)
	}
	if len(columns) == 0 {
		return Table{}, ErrNoColumns
	}
	if len(records) == 0 {
		return Table{}, ErrNoRows
	}

	rows := make([]binding.Row, 0, len(records))
	for _, rec := range records {
		row := make(binding.Row, len(columns))
		for i, col := range columns {
			v := ""
			if i < len(rec) {
				v = rec[i]
			}
			row[col] = v
		}
		rows = append(rows, row)
	}
	return Table{Columns: columns, Rows: rows}, nil
}

func dropBlank(records [][]string) [][]string {
	out := records[:0:0]
	for _, r := range records {
		for _, c := range r {
			if strings.TrimSpace(c) != "" {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// headerNames - blank headers become __EMPTY, __EMPTY_1, ...; repeats get _1, _2, ...
func headerNames(header []string, width int) []string {
	names := make([]string, width)
	seen := make(map[string]int, width)
	for i := range names {
		base := ""
		if i < len(header) {
			base = strings.TrimSpace(header[i])
		}
		if base == "" {
			base = EmptyHeader
		}
		name := base
		if n, ok := seen[base]; ok {
			name = fmt.Sprintf("%s_%d", base, n)
			seen[base] = n + 1
		} else {
			seen[base] = 1
		}
		names[i] = name
	}
	return names
}

func letterNames(width int) []string {
	names := make([]string, width)
	for i := range names {
		names[i], _ = excelize.ColumnNumberToName(i + 1)
	}
	return names
}

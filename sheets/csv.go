package sheets

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// CSV reads delimited text. Rows may have differing widths.
type CSV struct {
	Comma rune
}

func (c CSV) Parse(data []byte, hasHeaderRow bool) (Table, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	if c.Comma != 0 {
		r.Comma = c.Comma
	}
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read csv: %w", err)
	}
	return buildTable(records, hasHeaderRow)
}

package sheets

import (
	"errors"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		r := r
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestXLSXWithHeader(t *testing.T) {
	data := workbook(t,
		[]any{"Name", "Course", "Score"},
		[]any{"Ann", "Go", 95},
		[]any{nil, nil, nil},
		[]any{"Bob", "", 80.5},
	)
	tbl, err := Import("roster.xlsx", data, true)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if want := []string{"Name", "Course", "Score"}; !reflect.DeepEqual(tbl.Columns, want) {
		t.Errorf("Columns = %v, want %v", tbl.Columns, want)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("rows = %d, want 2 (blank row skipped)", len(tbl.Rows))
	}
	if tbl.Rows[0]["Name"] != "Ann" || tbl.Rows[0]["Score"] != "95" {
		t.Errorf("row 0 = %v", tbl.Rows[0])
	}
	if tbl.Rows[1]["Course"] != "" || tbl.Rows[1]["Score"] != "80.5" {
		t.Errorf("row 1 = %v", tbl.Rows[1])
	}
}

func TestXLSXWithoutHeader(t *testing.T) {
	data := workbook(t,
		[]any{"Ann", "Go"},
		[]any{"Bob", "Rust", "extra"},
	)
	tbl, err := Import("roster.xlsx", data, false)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if want := []string{"A", "B", "C"}; !reflect.DeepEqual(tbl.Columns, want) {
		t.Errorf("Columns = %v, want %v", tbl.Columns, want)
	}
	if len(tbl.Rows) != 2 || tbl.Rows[0]["A"] != "Ann" || tbl.Rows[0]["C"] != "" || tbl.Rows[1]["C"] != "extra" {
		t.Errorf("Rows = %v", tbl.Rows)
	}
}

func TestXLSXHeaderOnly(t *testing.T) {
	data := workbook(t, []any{"Name"})
	if _, err := Import("x.xlsx", data, true); !errors.Is(err, ErrNoRows) {
		t.Errorf("err = %v, want ErrNoRows", err)
	}
}

func TestCSV(t *testing.T) {
	data := []byte("\xef\xbb\xbfName,,Name,\nAnn,x,dup,\n,,,\n\"Smith, Jo\",y\n")
	tbl, err := Import("list.CSV", data, true)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	want := []string{"Name", "__EMPTY", "Name_1", "__EMPTY_1"}
	if !reflect.DeepEqual(tbl.Columns, want) {
		t.Errorf("Columns = %v, want %v", tbl.Columns, want)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(tbl.Rows))
	}
	if tbl.Rows[0]["Name_1"] != "dup" || tbl.Rows[1]["Name"] != "Smith, Jo" || tbl.Rows[1]["Name_1"] != "" {
		t.Errorf("Rows = %v", tbl.Rows)
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"a.xlsx", []byte("PK\x03\x04rest"), nil},
		{"a.xlsx", []byte("not a zip"), ErrUnsupportedFile},
		{"a.csv", []byte("a,b"), nil},
		{"a.pdf", nil, ErrUnsupportedFile},
		{"noext", nil, ErrUnsupportedFile},
	}
	for _, tt := range tests {
		_, err := Detect(tt.name, tt.data)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("Detect(%q) err = %v, want %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestEmptyInput(t *testing.T) {
	if _, err := Import("a.csv", []byte("\n\n"), true); !errors.Is(err, ErrNoRows) {
		t.Errorf("err = %v, want ErrNoRows", err)
	}
}

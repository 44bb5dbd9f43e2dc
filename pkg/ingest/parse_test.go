package ingest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestParse_CSV(t *testing.T) {
	src := "pais,feriado,fecha\nChile,Año Nuevo,2024-01-01\nPeru,Navidad,2024-12-25\nMexico,Independencia,2024-09-16\n"

	table, err := Parse("data.csv", strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	wantCols := []string{"pais", "feriado", "fecha"}
	if len(table.Columns) != len(wantCols) {
		t.Fatalf("expected %d columns, got %d", len(wantCols), len(table.Columns))
	}
	for i, c := range wantCols {
		if table.Columns[i] != c {
			t.Errorf("column %d: expected %q, got %q", i, c, table.Columns[i])
		}
	}

	if len(table.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(table.Rows))
	}
	if table.Rows[0]["pais"] != "Chile" {
		t.Errorf("expected first row pais=Chile, got %q", table.Rows[0]["pais"])
	}
	if table.Rows[2]["fecha"] != "2024-09-16" {
		t.Errorf("expected last row fecha=2024-09-16, got %q", table.Rows[2]["fecha"])
	}
}

func TestParse_CSV_ShortRowsFilledWithEmpty(t *testing.T) {
	src := "a,b,c\n1,2\n"

	table, err := Parse("short.csv", strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(table.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(table.Rows))
	}
	if table.Rows[0]["c"] != "" {
		t.Errorf("expected missing cell to be empty string, got %q", table.Rows[0]["c"])
	}
}

func TestParse_CSV_DropsFullyEmptyRows(t *testing.T) {
	src := "a,b\n1,2\n,\n3,4\n"

	table, err := Parse("gaps.csv", strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(table.Rows) != 2 {
		t.Fatalf("expected empty row to be dropped, got %d rows", len(table.Rows))
	}
}

func TestParse_CSV_TrimsHeaderAndCells(t *testing.T) {
	src := " nombre , valor \n foo , bar \n"

	table, err := Parse("padded.csv", strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if table.Columns[0] != "nombre" || table.Columns[1] != "valor" {
		t.Errorf("expected trimmed headers, got %v", table.Columns)
	}
	if table.Rows[0]["nombre"] != "foo" {
		t.Errorf("expected trimmed cell, got %q", table.Rows[0]["nombre"])
	}
}

func TestParse_CSV_Empty(t *testing.T) {
	if _, err := Parse("empty.csv", strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestParse_XLSX(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"pais", "feriado", "fecha"},
		{"Chile", "Año Nuevo", "2024-01-01"},
		{"Peru", "Navidad", "2024-12-25"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow failed: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer failed: %v", err)
	}

	table, err := Parse("feriados.xlsx", bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(table.Columns) != 3 || table.Columns[0] != "pais" {
		t.Fatalf("unexpected columns %v", table.Columns)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	if table.Rows[1]["feriado"] != "Navidad" {
		t.Errorf("expected second row feriado=Navidad, got %q", table.Rows[1]["feriado"])
	}
}

func TestParse_XLSX_RejectsGarbage(t *testing.T) {
	if _, err := Parse("broken.xlsx", strings.NewReader("not a workbook")); err == nil {
		t.Fatal("expected error for non-workbook content")
	}
}

func TestParse_XLS_RejectsGarbage(t *testing.T) {
	// Legacy workbooks go through a separate reader; non-OLE content must
	// fail with a parse error rather than being misread.
	if _, err := Parse("legacy.xls", strings.NewReader("not a workbook")); err == nil {
		t.Fatal("expected error for non-workbook content")
	}
}

func TestIsSupportedFilename(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"data.csv", true},
		{"data.CSV", true},
		{"report.xlsx", true},
		{"legacy.XLS", true},
		{"document.pdf", false},
		{"noext", false},
		{"archive.csv.zip", false},
	}
	for _, tc := range cases {
		if got := IsSupportedFilename(tc.name); got != tc.want {
			t.Errorf("IsSupportedFilename(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

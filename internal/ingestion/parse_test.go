package ingestion

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestParseCSVStripsByteOrderMark(t *testing.T) {
	payload := append([]byte{0xEF, 0xBB, 0xBF}, []byte("ticket_id,priority\nT1,High\n")...)

	table, err := parseTable("tickets.csv", payload)
	if err != nil {
		t.Fatalf("parseTable: %v", err)
	}
	if table.headers[0] != "ticket_id" {
		t.Fatalf("BOM leaked into first header: %q", table.headers[0])
	}
}

func TestParseCSVPadsRaggedRows(t *testing.T) {
	payload := []byte("a,b,c\n1,2\n1,2,3,4\n")

	table, err := parseTable("data.csv", payload)
	if err != nil {
		t.Fatalf("parseTable: %v", err)
	}
	if len(table.rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.rows))
	}
	for i, row := range table.rows {
		if len(row) != 3 {
			t.Fatalf("row %d not padded to header width: %v", i, row)
		}
	}
	if table.rows[0][2] != "" {
		t.Fatalf("short row should pad with empty cells: %v", table.rows[0])
	}
	if table.rows[1][2] != "3" {
		t.Fatalf("long row should truncate to header width: %v", table.rows[1])
	}
}

func TestParseCSVSkipsEmptyRowsAndBlankHeaderLines(t *testing.T) {
	payload := []byte("\n  ,  \nticket_id,priority\n\nT1,High\n")

	table, err := parseTable("tickets.csv", payload)
	if err != nil {
		t.Fatalf("parseTable: %v", err)
	}
	if table.headers[0] != "ticket_id" {
		t.Fatalf("first non-empty row should be the header: %v", table.headers)
	}
	if len(table.rows) != 1 {
		t.Fatalf("expected 1 data row, got %d", len(table.rows))
	}
}

func TestParseCSVHeaderOnly(t *testing.T) {
	for _, payload := range []string{"", "ticket_id,priority\n"} {
		_, err := parseTable("tickets.csv", []byte(payload))
		if !errors.Is(err, ErrNoRows) {
			t.Fatalf("payload %q: got %v, want ErrNoRows", payload, err)
		}
	}
}

func TestParseTableExtensionDefaultsToCSV(t *testing.T) {
	table, err := parseTable("upload", []byte("a,b\n1,2\n"))
	if err != nil {
		t.Fatalf("parseTable without extension: %v", err)
	}
	if len(table.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(table.rows))
	}
}

func TestParseTableUnsupportedExtension(t *testing.T) {
	_, err := parseTable("notes.pdf", []byte("x"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("got %v, want ErrUnsupportedFormat", err)
	}
}

func TestParseExcel(t *testing.T) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	cells := [][]any{
		{"ticket_id", "priority"},
		{"T1", "High"},
		{"T2", "Low"},
	}
	for i, row := range cells {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	table, err := parseTable("tickets.xlsx", buf.Bytes())
	if err != nil {
		t.Fatalf("parseTable: %v", err)
	}
	if len(table.headers) != 2 || table.headers[0] != "ticket_id" {
		t.Fatalf("unexpected headers: %v", table.headers)
	}
	if len(table.rows) != 2 || table.rows[1][0] != "T2" {
		t.Fatalf("unexpected rows: %v", table.rows)
	}
}

func TestParseExcelRejectsGarbage(t *testing.T) {
	if _, err := parseTable("tickets.xlsx", []byte("not a zip")); err == nil {
		t.Fatalf("expected error for invalid xlsx payload")
	}
}

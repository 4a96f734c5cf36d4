// internal/ingest/reader_test.go
package ingest

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"

	kolerrors "github.com/valpere/KOLMetrics/internal/errors"
)

func TestReadCSVBasic(t *testing.T) {
	input := strings.Join([]string{
		"platform,url,creator,campaign_id,posted_at,notes",
		"youtube,https://youtu.be/abc123,Rick,W37-Launch,2025-09-10,weekly",
		"tiktok,https://www.tiktok.com/@user/video/42,TT,W37-Launch,,",
	}, "\n")

	rows, err := ReadCSV(strings.NewReader(input), Options{})
	if err != nil {
		t.Fatalf("read csv failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Platform != "youtube" || rows[0].URL != "https://youtu.be/abc123" {
		t.Errorf("first row mismatch: %+v", rows[0])
	}
	if rows[0].Creator != "Rick" || rows[0].CampaignID != "W37-Launch" || rows[0].PostedAt != "2025-09-10" {
		t.Errorf("first row metadata mismatch: %+v", rows[0])
	}
	if rows[1].PostedAt != "" || rows[1].Notes != "" {
		t.Errorf("optional fields should stay empty: %+v", rows[1])
	}
}

func TestReadCSVHeaderAliases(t *testing.T) {
	input := strings.Join([]string{
		"Platform,Link,KOL,Campaign,Date",
		"youtube,https://youtu.be/abc123,Rick,W37,2025-09-10",
	}, "\n")

	rows, err := ReadCSV(strings.NewReader(input), Options{})
	if err != nil {
		t.Fatalf("read csv failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.URL != "https://youtu.be/abc123" {
		t.Errorf("link alias not mapped to url: %+v", row)
	}
	if row.Creator != "Rick" {
		t.Errorf("kol alias not mapped to creator: %+v", row)
	}
	if row.CampaignID != "W37" {
		t.Errorf("campaign alias not mapped: %+v", row)
	}
	if row.PostedAt != "2025-09-10" {
		t.Errorf("date alias not mapped: %+v", row)
	}
}

func TestReadCSVStripsByteOrderMark(t *testing.T) {
	input := "\xef\xbb\xbfplatform,url\nyoutube,https://youtu.be/abc123\n"

	rows, err := ReadCSV(strings.NewReader(input), Options{})
	if err != nil {
		t.Fatalf("read csv failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Platform != "youtube" {
		t.Errorf("BOM broke header matching: %+v", rows)
	}
}

func TestReadCSVDecodesGBK(t *testing.T) {
	utf8Input := "platform,url,notes\nyoutube,https://youtu.be/abc123,每周投放\n"
	encoded, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(utf8Input))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	rows, err := ReadCSV(bytes.NewReader(encoded), Options{Charset: "gbk"})
	if err != nil {
		t.Fatalf("read gbk csv failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Notes != "每周投放" {
		t.Errorf("gbk notes not decoded: %q", rows[0].Notes)
	}
}

func TestReadCSVRejectsUnknownCharset(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("platform,url\n"), Options{Charset: "ebcdic"})
	if err == nil {
		t.Fatal("expected an error for unknown charset")
	}
	if !kolerrors.IsConfiguration(err) {
		t.Errorf("expected a configuration error, got %v", err)
	}
}

func TestReadCSVRequiresURLColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("platform,creator\nyoutube,Rick\n"), Options{})
	if err == nil {
		t.Fatal("expected an error for a sheet without url column")
	}
	if !kolerrors.IsValidation(err) {
		t.Errorf("expected a validation error, got %v", err)
	}
}

func TestReadCSVSkipsBlankRows(t *testing.T) {
	input := "platform,url\nyoutube,https://youtu.be/abc123\n,\n\ntiktok,https://www.tiktok.com/@u/video/1\n"

	rows, err := ReadCSV(strings.NewReader(input), Options{})
	if err != nil {
		t.Fatalf("read csv failed: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected blank rows to be skipped, got %d rows", len(rows))
	}
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	data := [][]interface{}{
		{"platform", "url", "creator"},
		{"instagram", "https://www.instagram.com/reel/xyz/", "IG_CREATOR"},
		{"youtube", "https://youtu.be/abc123", "Rick"},
	}
	for i, row := range data {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set sheet row: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}

	rows, err := ReadXLSX(path)
	if err != nil {
		t.Fatalf("read xlsx failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Platform != "instagram" || rows[1].Creator != "Rick" {
		t.Errorf("xlsx rows mismatch: %+v", rows)
	}
}

func TestReadFileRejectsUnknownExtension(t *testing.T) {
	_, err := ReadFile("links.pdf", Options{})
	if err == nil {
		t.Fatal("expected an error for unsupported extension")
	}
	if !kolerrors.IsValidation(err) {
		t.Errorf("expected a validation error, got %v", err)
	}
}

func TestWriteTemplate(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTemplate(&buf); err != nil {
		t.Fatalf("write template failed: %v", err)
	}

	rows, err := ReadCSV(bytes.NewReader(buf.Bytes()), Options{})
	if err != nil {
		t.Fatalf("template should parse as a valid sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 sample rows, got %d", len(rows))
	}
	platforms := map[string]bool{}
	for _, r := range rows {
		platforms[r.Platform] = true
		if r.URL == "" {
			t.Errorf("sample row missing url: %+v", r)
		}
	}
	for _, p := range []string{"youtube", "instagram", "tiktok"} {
		if !platforms[p] {
			t.Errorf("template missing %s sample row", p)
		}
	}
}

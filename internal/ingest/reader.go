// internal/ingest/reader.go

// Package ingest reads KOL link sheets. The weekly handoff arrives as
// .xlsx or .csv exported from whatever spreadsheet tool the campaign
// team uses, so header names and character encodings both vary.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	kolerrors "github.com/valpere/KOLMetrics/internal/errors"
	"github.com/valpere/KOLMetrics/pkg/types"
)

// Options controls sheet parsing.
type Options struct {
	// Charset names the CSV character encoding. Empty means UTF-8 with
	// an optional BOM. Ignored for .xlsx, which is always UTF-8 inside.
	Charset string `yaml:"charset" json:"charset"`
}

// Column aliases accepted in header rows. Matching is case-insensitive
// and treats spaces and dashes as underscores.
var headerAliases = map[string]string{
	"platform":     "platform",
	"url":          "url",
	"link":         "url",
	"video_url":    "url",
	"creator":      "creator",
	"kol":          "creator",
	"author":       "creator",
	"campaign_id":  "campaign_id",
	"campaign":     "campaign_id",
	"posted_at":    "posted_at",
	"posted":       "posted_at",
	"published_at": "posted_at",
	"date":         "posted_at",
	"notes":        "notes",
	"note":         "notes",
	"remark":       "notes",
}

// ReadFile parses a link sheet by file extension.
func ReadFile(path string, opts Options) ([]types.InputRow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input file: %w", err)
		}
		defer f.Close()
		return ReadCSV(f, opts)
	case ".xlsx":
		return ReadXLSX(path)
	default:
		return nil, kolerrors.NewValidation("input",
			fmt.Sprintf("unsupported input format %q, expected .csv or .xlsx", filepath.Ext(path)))
	}
}

// ReadCSV parses a CSV link sheet. The first row is the header.
func ReadCSV(r io.Reader, opts Options) ([]types.InputRow, error) {
	decoded, err := charsetReader(r, opts.Charset)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rowsFromRecords(records)
}

// ReadXLSX parses the first sheet of an Excel workbook.
func ReadXLSX(path string) ([]types.InputRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, kolerrors.NewValidation("input", "workbook has no sheets")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rowsFromRecords(records)
}

// rowsFromRecords maps a header row plus data rows to input rows.
// Unrecognized columns are ignored; rows with every cell blank are
// skipped.
func rowsFromRecords(records [][]string) ([]types.InputRow, error) {
	if len(records) == 0 {
		return nil, kolerrors.NewValidation("input", "sheet is empty")
	}

	columns := make(map[int]string)
	for i, header := range records[0] {
		if canonical, ok := headerAliases[normalizeHeader(header)]; ok {
			columns[i] = canonical
		}
	}
	if !hasColumn(columns, "url") {
		return nil, kolerrors.NewValidation("input", "header row has no url column")
	}

	rows := make([]types.InputRow, 0, len(records)-1)
	for _, record := range records[1:] {
		row := types.InputRow{}
		empty := true
		for i, cell := range record {
			value := strings.TrimSpace(cell)
			if value == "" {
				continue
			}
			empty = false
			switch columns[i] {
			case "platform":
				row.Platform = value
			case "url":
				row.URL = value
			case "creator":
				row.Creator = value
			case "campaign_id":
				row.CampaignID = value
			case "posted_at":
				row.PostedAt = value
			case "notes":
				row.Notes = value
			}
		}
		if empty {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func hasColumn(columns map[int]string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}

func normalizeHeader(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "-", "_")
	return h
}

// charsetReader wraps r with a decoder for the named charset. The
// default UTF-8 path still strips a byte order mark when present.
func charsetReader(r io.Reader, charset string) (io.Reader, error) {
	name := strings.ToLower(strings.TrimSpace(charset))
	name = strings.ReplaceAll(name, "_", "-")

	var enc encoding.Encoding
	switch name {
	case "", "utf8", "utf-8":
		enc = unicode.UTF8
	case "gbk":
		enc = simplifiedchinese.GBK
	case "gb18030":
		enc = simplifiedchinese.GB18030
	case "big5":
		enc = traditionalchinese.Big5
	case "latin1", "iso-8859-1":
		enc = charmap.ISO8859_1
	case "windows-1252":
		enc = charmap.Windows1252
	default:
		return nil, kolerrors.NewConfiguration(
			fmt.Sprintf("unsupported input charset %q", charset), nil)
	}

	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}

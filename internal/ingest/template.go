// internal/ingest/template.go
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
)

// templateRows shows the expected sheet shape. Only platform and url
// are required; the other columns carry campaign bookkeeping.
var templateRows = [][]string{
	{"platform", "url", "creator", "campaign_id", "posted_at", "notes"},
	{"youtube", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "Rick", "W37-Launch", "2025-09-10", "example"},
	{"instagram", "https://www.instagram.com/reel/xxxxxx/", "IG_CREATOR", "W37-Launch", "2025-09-11", "example"},
	{"tiktok", "https://www.tiktok.com/@user/video/1234567890", "TT_CREATOR", "W37-Launch", "2025-09-12", "example"},
}

// WriteTemplate writes a starter CSV sheet for the weekly link handoff.
func WriteTemplate(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(templateRows); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	writer.Flush()
	return writer.Error()
}

// internal/output/json.go
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/valpere/KOLMetrics/pkg/types"
)

// JSONWriter exports results as an indented JSON array.
type JSONWriter struct {
	w io.Writer
}

// NewJSONWriter creates a JSON export writer.
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{w: w}
}

// Write implements Writer. An empty result set encodes as [] rather
// than null so consumers always get an array.
func (jw *JSONWriter) Write(results []types.StoredResult) error {
	if results == nil {
		results = []types.StoredResult{}
	}

	encoder := json.NewEncoder(jw.w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return nil
}

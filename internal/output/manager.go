// internal/output/manager.go
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/valpere/KOLMetrics/pkg/types"
)

// Manager picks the right writer for a requested format. The zero
// format falls back to the configured default.
type Manager struct {
	defaultFormat Format
}

// NewManager creates an output manager. An empty default means csv.
func NewManager(defaultFormat string) (*Manager, error) {
	format := FormatCSV
	if defaultFormat != "" {
		parsed, err := ParseFormat(defaultFormat)
		if err != nil {
			return nil, err
		}
		format = parsed
	}
	return &Manager{defaultFormat: format}, nil
}

// Resolve returns the effective format for a request.
func (m *Manager) Resolve(format string) (Format, error) {
	if format == "" {
		return m.defaultFormat, nil
	}
	return ParseFormat(format)
}

// NewWriter returns a writer for the format targeting w.
func NewWriter(format Format, w io.Writer) (Writer, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(w), nil
	case FormatJSON:
		return NewJSONWriter(w), nil
	case FormatXLSX:
		return NewXLSXWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// Export writes the results to w in the requested format.
func (m *Manager) Export(w io.Writer, format string, results []types.StoredResult) error {
	resolved, err := m.Resolve(format)
	if err != nil {
		return err
	}
	writer, err := NewWriter(resolved, w)
	if err != nil {
		return err
	}
	return writer.Write(results)
}

// ExportFile writes the results to a file. An empty format derives the
// format from the file extension.
func (m *Manager) ExportFile(path, format string, results []types.StoredResult) error {
	if format == "" {
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
			if parsed, err := ParseFormat(ext); err == nil {
				format = string(parsed)
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := m.Export(f, format, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

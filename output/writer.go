package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/use-agent/scrapechat/config"
	"github.com/use-agent/scrapechat/models"
)

// Writer persists extraction results as downloadable artifacts and renders
// the chat preview for them.
type Writer struct {
	dir          string
	previewItems int
}

// NewWriter creates the artifact writer, ensuring the output directory
// exists.
func NewWriter(cfg config.OutputConfig) (*Writer, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("output: create dir %s: %w", cfg.Dir, err)
	}
	return &Writer{dir: cfg.Dir, previewItems: cfg.PreviewItems}, nil
}

// Write serializes records in the requested format and writes them to a
// timestamped file named after the strategy. Converting the same records to
// the same format always yields the same content; only the filename varies.
func (w *Writer) Write(records []models.Record, format models.OutputFormat, strategyName string) (*models.OutputArtifact, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case models.FormatJSON:
		data, err = json.MarshalIndent(records, "", "  ")
	case models.FormatCSV:
		data, err = marshalCSV(records)
	case models.FormatXML:
		data, err = marshalXML(records)
	default:
		return nil, models.NewChatError(models.ErrCodeInvalidInput, fmt.Sprintf("unsupported output format %q", format), nil)
	}
	if err != nil {
		return nil, models.NewChatError(models.ErrCodeFormatConversion,
			fmt.Sprintf("the scraped data structure is not suitable for %s format", strings.ToUpper(string(format))), err)
	}

	filename := fmt.Sprintf("%s_output_%s.%s", strategyName, time.Now().Format("20060102_150405"), format.Ext())
	path := filepath.Join(w.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, models.NewChatError(models.ErrCodeInternal, "could not write output file", err)
	}

	return &models.OutputArtifact{
		Filename:    filename,
		Path:        path,
		Format:      format,
		RecordCount: len(records),
		CreatedAt:   time.Now(),
	}, nil
}

// Path resolves a previously written artifact by filename. Only bare
// filenames are accepted; anything resembling a path component is rejected.
func (w *Writer) Path(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		return "", models.NewChatError(models.ErrCodeInvalidInput, "invalid filename", nil)
	}
	path := filepath.Join(w.dir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", models.NewChatError(models.ErrCodeInvalidInput, "file not found", err)
	}
	return path, nil
}

// Preview renders the bounded chat preview: up to the configured number of
// records as indented JSON, an elision line when more exist, and the total.
func (w *Writer) Preview(records []models.Record) string {
	var b strings.Builder
	b.WriteString("Here's a preview of the scraped data:\n")

	shown := len(records)
	if shown > w.previewItems {
		shown = w.previewItems
	}
	for i := 0; i < shown; i++ {
		item, err := json.MarshalIndent(records[i], "", "  ")
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "\n%d. %s", i+1, item)
	}
	if len(records) > w.previewItems {
		fmt.Fprintf(&b, "\n\n... and %d more items.", len(records)-w.previewItems)
	}
	fmt.Fprintf(&b, "\n\nTotal items scraped: %d", len(records))
	return b.String()
}

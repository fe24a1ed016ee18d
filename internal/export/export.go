package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/BenjaminSRussell/sitecrawl/internal/storage"
	"github.com/BenjaminSRussell/sitecrawl/internal/types"
)

// Formats accepted by Exporter.Export
const (
	FormatJSONL = "jsonl"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

type Exporter struct {
	outputDir string
}

func NewExporter(outputDir string) (*Exporter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Exporter{
		outputDir: outputDir,
	}, nil
}

// Path resolves a file name relative to the output directory
func (e *Exporter) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(e.outputDir, name)
}

// Export writes pages in the named format
func (e *Exporter) Export(pages []types.PageRecord, format, outputFile string) error {
	switch format {
	case FormatJSONL, "":
		return e.ExportJSONL(pages, outputFile)
	case FormatJSON:
		return e.ExportJSON(pages, outputFile)
	case FormatCSV:
		return e.ExportCSV(pages, outputFile)
	}
	return fmt.Errorf("unknown export format %q", format)
}

func (e *Exporter) ExportJSONL(pages []types.PageRecord, outputFile string) error {
	w, err := storage.NewJSONLWriter(e.Path(outputFile))
	if err != nil {
		return err
	}

	for _, p := range pages {
		if err := w.Write(p); err != nil {
			w.Close()
			return err
		}
	}

	return w.Close()
}

func (e *Exporter) ExportJSON(pages []types.PageRecord, outputFile string) error {
	data, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(e.Path(outputFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	return nil
}

func (e *Exporter) ExportCSV(pages []types.PageRecord, outputFile string) error {
	file, err := os.Create(e.Path(outputFile))
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	headers := []string{"URL", "ContentHash", "TextLength", "CrawledAt", "Text"}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, p := range pages {
		record := []string{
			p.URL,
			p.ContentHash,
			strconv.Itoa(utf8.RuneCountInString(p.Text)),
			p.CrawledAt.Format(time.RFC3339),
			p.Text,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return file.Close()
}

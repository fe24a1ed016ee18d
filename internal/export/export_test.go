package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BenjaminSRussell/sitecrawl/internal/storage"
	"github.com/BenjaminSRussell/sitecrawl/internal/types"
)

func samplePages() []types.PageRecord {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []types.PageRecord{
		{URL: "https://example.com", Text: "Home, sweet \"home\"", ContentHash: "h1", CrawledAt: now},
		{URL: "https://example.com/b", Text: "Page B\nsecond line", ContentHash: "h2", CrawledAt: now},
	}
}

func TestExporterNew(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "out")

	exporter, err := NewExporter(tmpDir)
	require.NoError(t, err)

	info, err := os.Stat(tmpDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, filepath.Join(tmpDir, "a.json"), exporter.Path("a.json"))
	assert.Equal(t, "/abs/a.json", exporter.Path("/abs/a.json"))
}

func TestExporterExportJSON(t *testing.T) {
	exporter, err := NewExporter(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, exporter.Export(samplePages(), FormatJSON, "pages.json"))

	data, err := os.ReadFile(exporter.Path("pages.json"))
	require.NoError(t, err)

	var pages []types.PageRecord
	require.NoError(t, json.Unmarshal(data, &pages))
	assert.Equal(t, samplePages(), pages)
}

func TestExporterExportJSONL(t *testing.T) {
	exporter, err := NewExporter(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, exporter.Export(samplePages(), "", "pages.jsonl"))

	pages, err := storage.ReadJSONL(exporter.Path("pages.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, samplePages(), pages)
}

func TestExporterExportCSV(t *testing.T) {
	exporter, err := NewExporter(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, exporter.Export(samplePages(), FormatCSV, "pages.csv"))

	file, err := os.Open(exporter.Path("pages.csv"))
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "URL", records[0][0])
	assert.Equal(t, []string{"https://example.com", "h1", "18", "2025-03-01T12:00:00Z", "Home, sweet \"home\""}, records[1])
	assert.Equal(t, "Page B\nsecond line", records[2][4])
}

func TestExporterUnknownFormat(t *testing.T) {
	exporter, err := NewExporter(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, exporter.Export(samplePages(), "xlsx", "pages.xlsx"))
}

func TestExportSitemap(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "sitemap.xml")
	pages := append(samplePages(), samplePages()[0])

	count, err := ExportSitemap(pages, DefaultSitemapConfig(outputFile))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	content := string(data)
	assert.True(t, strings.HasPrefix(content, "<?xml"))
	assert.Contains(t, content, "<loc>https://example.com/b</loc>")
	assert.Contains(t, content, "<lastmod>2025-03-01T12:00:00Z</lastmod>")
	assert.Contains(t, content, "<changefreq>weekly</changefreq>")
	assert.Contains(t, content, "<priority>0.8</priority>")
	assert.Equal(t, 2, strings.Count(content, "<url>"))
}

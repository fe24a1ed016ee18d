package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BenjaminSRussell/sitecrawl/internal/types"
)

// maxLineBytes bounds one JSONL record
const maxLineBytes = 64 << 20

// JSONLWriter appends page records to a JSON Lines file
type JSONLWriter struct {
	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer
}

// NewJSONLWriter creates (or truncates) path, creating parent directories
func NewJSONLWriter(path string) (*JSONLWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSONL file: %w", err)
	}

	return &JSONLWriter{file: file, buf: bufio.NewWriter(file)}, nil
}

// Write appends one record
func (w *JSONLWriter) Write(page types.PageRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to marshal page: %w", err)
	}

	if _, err := w.buf.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write page: %w", err)
	}

	return nil
}

// Close flushes and closes the file
func (w *JSONLWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	flushErr := w.buf.Flush()
	closeErr := w.file.Close()
	return errors.Join(flushErr, closeErr)
}

// ReadJSONL loads every record of a JSON Lines file. Blank lines are
// skipped; a malformed line is an error.
func ReadJSONL(path string) ([]types.PageRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSONL file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	pages := make([]types.PageRecord, 0)
	line := 0
	for scanner.Scan() {
		line++
		data := scanner.Bytes()
		if len(data) == 0 {
			continue
		}

		var page types.PageRecord
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		pages = append(pages, page)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read JSONL file: %w", err)
	}

	return pages, nil
}

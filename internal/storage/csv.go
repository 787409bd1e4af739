package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	DefaultPrefix = "linkedin_names_"
	DefaultHeader = "Name"
)

var (
	// ASCII whitespace, vertical tab, Unicode space separators and BOM.
	whitespace = regexp.MustCompile(`[\s\x{000B}\p{Z}\x{FEFF}]+`)
	separators = strings.NewReplacer("/", "_", `\`, "_")
)

// FileName derives the output file for a filter: whitespace runs become "_".
func FileName(prefix, key string) string {
	name := whitespace.ReplaceAllString(key, "_")
	return prefix + separators.Replace(name) + ".csv"
}

// CSVWriter writes one single-column CSV file per key, replacing earlier output.
type CSVWriter struct {
	dir    string
	prefix string
	header string
	logger *slog.Logger
}

func NewCSVWriter(dir, prefix string, logger *slog.Logger) *CSVWriter {
	if dir == "" {
		dir = "."
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{
		dir:    dir,
		prefix: prefix,
		header: DefaultHeader,
		logger: logger.With("component", "csv_writer"),
	}
}

func (w *CSVWriter) Path(key string) string {
	return filepath.Join(w.dir, FileName(w.prefix, key))
}

func (w *CSVWriter) Write(ctx context.Context, key string, values []string) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := w.Path(key)

	// Write to temp file first for atomicity
	tmpFile := path + ".tmp"
	f, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmpFile, err)
	}

	if err := writeRows(f, w.header, values); err != nil {
		f.Close()
		os.Remove(tmpFile)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to close %s: %w", tmpFile, err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}

	w.logger.Info("wrote csv", "path", path, "rows", len(values))
	return nil
}

func writeRows(f *os.File, header string, values []string) error {
	cw := csv.NewWriter(f)
	if err := cw.Write([]string{header}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, v := range values {
		if err := cw.Write([]string{v}); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

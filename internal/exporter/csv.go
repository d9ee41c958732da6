// Package exporter renders decoded MetaStock records to CSV, one file per
// symbol. It is a downstream consumer of the core reader packages.
package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/pwalczyk/ms2csv/internal/metastock"
)

// Writer writes per-symbol CSV files into a target directory, creating it
// on first use.
type Writer struct {
	OutDir string
}

// WriteSymbol writes one symbol's header and records to <symbol>.csv and
// returns the file path.
func (w *Writer) WriteSymbol(symbol string, header []string, records []metastock.Record) (string, error) {
	if err := os.MkdirAll(w.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory %q: %w", w.OutDir, err)
	}

	path := filepath.Join(w.OutDir, symbol+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %q: %w", path, err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		f.Close()
		return "", fmt.Errorf("writing header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(rec.Values); err != nil {
			f.Close()
			return "", fmt.Errorf("writing record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return "", fmt.Errorf("flushing %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %q: %w", path, err)
	}

	log.Debug().Str("path", path).Int("records", len(records)).Msg("csv written")
	return path, nil
}

// Package metastock reads the MetaStock on-disk format family: the
// MASTER, EMASTER and XMASTER index files, the per-symbol F<n>.DAT and
// F<n>.MWD data files and the F<n>.DOP column sidecars.
package metastock

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pwalczyk/ms2csv/internal/mbf"
)

// SymbolMetadata describes one instrument as listed by an index file.
// A file number of 0 marks an unused slot and never reaches the catalog.
// Records are immutable after decoding except for Name, which the catalog
// may overwrite while reconciling the extended index.
type SymbolMetadata struct {
	// FileNumber correlates the entry with its F<n> data and sidecar files.
	FileNumber int

	// Symbol is the normalized short code, unique within a catalog pass.
	Symbol string

	// Name is the display name; may be empty.
	Name string

	// Fields is the declared column count of the data file.
	Fields int

	// TimeFrame is the vendor's single-character frame code, 'D' for daily.
	TimeFrame byte

	FirstDate mbf.Date
	LastDate  mbf.Date

	// Ext is the data-file extension, fixed per index variant:
	// ".DAT" for MASTER/EMASTER entries, ".MWD" for XMASTER ones.
	Ext string
}

// DataFileName returns the on-disk name of the symbol's data file.
func (s *SymbolMetadata) DataFileName() string {
	return fmt.Sprintf("F%d%s", s.FileNumber, s.Ext)
}

// SidecarName returns the on-disk name of the symbol's column sidecar.
func (s *SymbolMetadata) SidecarName() string {
	return fmt.Sprintf("F%d.DOP", s.FileNumber)
}

// symbolDelimiter ends a symbol code; anything after it is vendor noise.
const symbolDelimiter = '#'

// NormalizeSymbol applies the two documented cleanup rules for MASTER and
// EMASTER symbol codes: a two-character "@x" vendor marker is stripped and
// the code is cut at the first '#'. A code without the delimiter is kept
// whole. XMASTER codes are used as-is and never pass through here.
func NormalizeSymbol(s string) string {
	if len(s) >= 2 && s[0] == '@' {
		s = s[2:]
	}
	if i := strings.IndexByte(s, symbolDelimiter); i >= 0 {
		s = s[:i]
	}
	return s
}

// trimPadded interprets a fixed-width string field: content ends at the
// first NUL and trailing blanks are dropped.
func trimPadded(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimRight(string(b), " ")
}

package metastock

import (
	"errors"
	"io"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/charmap"
)

// Options configure a catalog load.
type Options struct {
	// Dir is the MetaStock database directory.
	Dir string

	// Precision is the number of decimal digits for price columns;
	// negative selects DefaultPrecision.
	Precision int

	// Encoding is the legacy codepage of display names; nil uses the raw
	// bytes. Symbol codes are always plain ASCII.
	Encoding *charmap.Charmap
}

// Catalog is the merged symbol table of a MetaStock directory: one entry
// per file number, built once by Load and read-only afterwards.
type Catalog struct {
	dir      string
	registry *Registry
	symbols  map[int]*SymbolMetadata
	order    []int // file numbers in first-seen order
	xref     []SymbolMetadata
}

// Load builds the catalog from the index files in the directory.
//
// MASTER is read first and is authoritative for the entries it lists.
// EMASTER is mandatory: entries already present only get their display
// name overwritten when the extended name is non-empty, new file numbers
// are inserted. XMASTER entries are kept as a separate queryable source; a
// broken or absent optional source contributes nothing and is not fatal.
func Load(opts Options) (*Catalog, error) {
	names := newNameDecoder(opts.Encoding)
	c := &Catalog{
		dir:      opts.Dir,
		registry: NewRegistry(opts.Precision),
		symbols:  make(map[int]*SymbolMetadata),
	}

	master, _, err := readIndex(opts.Dir, masterLayout, names)
	if err != nil {
		log.Error().Err(err).Str("index", masterLayout.file).Msg("index unreadable, skipping source")
		master = nil
	}
	for i := range master {
		c.insert(master[i])
	}

	extended, found, err := readIndex(opts.Dir, emasterLayout, names)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrMissingIndex
	}
	for i := range extended {
		if existing, ok := c.symbols[extended[i].FileNumber]; ok {
			if extended[i].Name != "" {
				existing.Name = extended[i].Name
			}
			continue
		}
		c.insert(extended[i])
	}

	xref, _, err := readIndex(opts.Dir, xmasterLayout, names)
	if err != nil {
		log.Error().Err(err).Str("index", xmasterLayout.file).Msg("index unreadable, skipping source")
		xref = nil
	}
	c.xref = xref

	log.Debug().Int("symbols", len(c.order)).Int("xref", len(c.xref)).Msg("catalog built")
	return c, nil
}

func (c *Catalog) insert(sym SymbolMetadata) {
	if _, ok := c.symbols[sym.FileNumber]; ok {
		return
	}
	s := sym
	c.symbols[s.FileNumber] = &s
	c.order = append(c.order, s.FileNumber)
}

// Len returns the number of entries in the merged table.
func (c *Catalog) Len() int { return len(c.order) }

// Select returns catalog entries in index order: every entry when all is
// set, otherwise those whose symbol code exactly matches one of codes.
func (c *Catalog) Select(all bool, codes []string) []*SymbolMetadata {
	want := make(map[string]bool, len(codes))
	for _, code := range codes {
		want[code] = true
	}
	var out []*SymbolMetadata
	for _, n := range c.order {
		sym := c.symbols[n]
		if all || want[sym.Symbol] {
			out = append(out, sym)
		}
	}
	return out
}

// CrossRef returns the XMASTER entries. They are deliberately not merged
// into the main table: the correct merge policy for that source is still
// unsettled, so it stays independently queryable instead.
func (c *Catalog) CrossRef() []SymbolMetadata {
	return c.xref
}

// ReadSymbol resolves the symbol's column layout and opens its data file.
// The caller owns the returned reader.
func (c *Catalog) ReadSymbol(sym *SymbolMetadata) (*DataReader, error) {
	tokens, err := ResolveLayout(c.dir, sym)
	if err != nil {
		return nil, err
	}
	return OpenDataFile(c.dir, sym, c.registry.Resolve(tokens))
}

// ReadAll decodes every stored tick of one symbol. Failures are contained
// to the symbol: they are logged with its identity and a nil header and no
// records are returned, so a broken symbol never aborts the whole run.
func (c *Catalog) ReadAll(sym *SymbolMetadata) (header []string, records []Record) {
	r, err := c.ReadSymbol(sym)
	if err != nil {
		log.Error().Err(err).Str("symbol", sym.Symbol).Int("file_number", sym.FileNumber).Msg("symbol skipped")
		return nil, nil
	}
	defer r.Close()

	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Error().Err(err).Str("symbol", sym.Symbol).Int("file_number", sym.FileNumber).Msg("symbol truncated, dropping its records")
			return nil, nil
		}
		records = append(records, rec)
	}
	return r.Header(), records
}

// newNameDecoder builds the display-name decoder for the configured
// codepage. Fixed-width trimming happens before charset decoding so the
// padding bytes never reach the decoder.
func newNameDecoder(cm *charmap.Charmap) nameDecoder {
	if cm == nil {
		return trimPadded
	}
	return func(b []byte) string {
		s, err := cm.NewDecoder().String(trimPadded(b))
		if err != nil {
			// Charmap decoders replace rather than fail; this guards the
			// interface contract, not an expected path.
			return trimPadded(b)
		}
		return s
	}
}

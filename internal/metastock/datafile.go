package metastock

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Record is one decoded tick. Values align with the owning reader's
// Header; the first value is always the symbol code.
type Record struct {
	Values []string
}

// Map keys the record's values by the given header. Convenience for
// consumers that want named access instead of positional.
func (r Record) Map(header []string) map[string]string {
	m := make(map[string]string, len(header))
	for i, h := range header {
		if i < len(r.Values) {
			m[h] = r.Values[i]
		}
	}
	return m
}

// DataReader streams decoded ticks from one symbol's data file. The
// stream is finite, forward-only and not restartable without reopening.
type DataReader struct {
	f         *os.File
	sym       *SymbolMetadata
	slots     []Slot
	header    []string
	remaining int
	buf       [slotWidth]byte
}

// OpenDataFile opens a symbol's data file and positions the reader on the
// first stored tick.
func OpenDataFile(dir string, sym *SymbolMetadata, slots []Slot) (*DataReader, error) {
	name := sym.DataFileName()
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return nil, &FormatError{File: name, Reason: "opening data file", Err: err}
	}

	var hdr [4]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		f.Close()
		return nil, &FormatError{File: name, Reason: "reading header", Err: err}
	}
	maxRecords := binary.LittleEndian.Uint16(hdr[0:2])
	lastRecord := binary.LittleEndian.Uint16(hdr[2:4])

	// The counts are followed by (fields-1)*4 bytes before the first tick.
	// That stride is an empirical heuristic inherited from earlier readers
	// of this format, not something the format documents; it has held up
	// on real databases but has never been verified against one that
	// states it.
	if _, err := f.Seek(int64(sym.Fields-1)*slotWidth, io.SeekCurrent); err != nil {
		f.Close()
		return nil, &FormatError{File: name, Reason: "skipping header padding", Err: err}
	}

	r := &DataReader{
		f:         f,
		sym:       sym,
		slots:     slots,
		remaining: int(lastRecord) - 1,
	}
	if r.remaining < 0 {
		r.remaining = 0
	}
	r.header = make([]string, 1, len(slots)+1)
	r.header[0] = "Symbol"
	for _, s := range slots {
		if s.Known() {
			r.header = append(r.header, s.Name)
		}
	}
	log.Debug().
		Str("symbol", sym.Symbol).
		Str("file", name).
		Uint16("max_records", maxRecords).
		Uint16("last_record", lastRecord).
		Msg("data file opened")
	return r, nil
}

// Header returns the output column names, symbol column first. Only
// recognized columns appear; skipped ones produce no output.
func (r *DataReader) Header() []string { return r.header }

// Next decodes the next stored tick, or returns io.EOF after the last
// one. Any shorter read is a DecodeError and ends the stream.
func (r *DataReader) Next() (Record, error) {
	if r.remaining == 0 {
		return Record{}, io.EOF
	}
	r.remaining--

	values := make([]string, 1, len(r.header))
	values[0] = r.sym.Symbol
	for _, s := range r.slots {
		if !s.Known() {
			if _, err := r.f.Seek(int64(s.Width()), io.SeekCurrent); err != nil {
				return Record{}, &DecodeError{Symbol: r.sym.Symbol, Err: err}
			}
			continue
		}
		if _, err := io.ReadFull(r.f, r.buf[:]); err != nil {
			return Record{}, &DecodeError{Symbol: r.sym.Symbol, Err: err}
		}
		values = append(values, s.decode(r.buf[:]))
	}
	return Record{Values: values}, nil
}

// Close releases the underlying file handle.
func (r *DataReader) Close() error { return r.f.Close() }

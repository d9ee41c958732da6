package metastock

import (
	"strconv"

	"github.com/pwalczyk/ms2csv/internal/mbf"
)

// DefaultPrecision is the number of decimal digits used for price columns
// unless configured otherwise.
const DefaultPrecision = 2

// slotWidth is the byte width of every data-file column, recognized or
// not. Skipping an unrecognized column therefore never desynchronizes the
// offsets of the columns after it.
const slotWidth = 4

// Slot is one field position of a data record: either a known column with
// a decoder and an output name, or an unrecognized token whose bytes are
// skipped.
type Slot struct {
	// Token is the sidecar spelling, e.g. "CLOSE".
	Token string

	// Name is the output column name; empty when the token is unrecognized.
	Name string

	decode func(b []byte) string
}

// Known reports whether the slot produces an output value.
func (s Slot) Known() bool { return s.decode != nil }

// Width returns the number of data-file bytes the slot occupies.
func (s Slot) Width() int { return slotWidth }

// Registry maps MetaStock column tokens to their decode and format
// behavior. Price precision is fixed at construction; there is no mutable
// process-wide setting.
type Registry struct {
	precision int
}

// NewRegistry returns a Registry formatting price columns with the given
// number of decimal digits. A negative precision selects the default.
func NewRegistry(precision int) *Registry {
	if precision < 0 {
		precision = DefaultPrecision
	}
	return &Registry{precision: precision}
}

// Resolve maps an ordered token list to the slots the data-file reader
// walks. Unrecognized tokens stay in place so byte offsets keep lining up.
func (r *Registry) Resolve(tokens []string) []Slot {
	slots := make([]Slot, len(tokens))
	for i, tok := range tokens {
		slots[i] = r.slot(tok)
	}
	return slots
}

func (r *Registry) slot(token string) Slot {
	switch token {
	case "DATE":
		return Slot{Token: token, Name: "Date", decode: decodeDate}
	case "TIME":
		return Slot{Token: token, Name: "Time", decode: decodeTime}
	case "OPEN":
		return Slot{Token: token, Name: "Open", decode: r.decodeFloat}
	case "HIGH":
		return Slot{Token: token, Name: "High", decode: r.decodeFloat}
	case "LOW":
		return Slot{Token: token, Name: "Low", decode: r.decodeFloat}
	case "CLOSE":
		return Slot{Token: token, Name: "Close", decode: r.decodeFloat}
	case "VOL":
		return Slot{Token: token, Name: "Volume", decode: decodeInt}
	case "OI":
		return Slot{Token: token, Name: "Oi", decode: decodeInt}
	}
	return Slot{Token: token}
}

func (r *Registry) decodeFloat(b []byte) string {
	return strconv.FormatFloat(mbf.Float32(b), 'f', r.precision, 64)
}

func decodeInt(b []byte) string {
	return strconv.FormatInt(int64(mbf.Float32(b)), 10)
}

func decodeDate(b []byte) string {
	return mbf.DecodeDate(b).String()
}

func decodeTime(b []byte) string {
	return mbf.DecodeTime(b).String()
}

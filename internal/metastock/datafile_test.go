package metastock

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataReaderStream(t *testing.T) {
	dir := t.TempDir()
	sym := &SymbolMetadata{FileNumber: 7, Symbol: "ABC", Fields: 7, Ext: ".DAT"}

	writeDataFile(t, dir, "F7.DAT", 7, 10,
		[][]byte{
			msbin(packedDate(2001, 7, 4)), msbin(10.5), msbin(11), msbin(10.25), msbin(10.75), msbin(1500), msbin(0),
		},
		[][]byte{
			msbin(packedDate(2001, 7, 5)), msbin(10.75), msbin(12), msbin(10.5), msbin(11.5), msbin(2250), msbin(3),
		},
	)

	reg := NewRegistry(-1)
	r, err := OpenDataFile(dir, sym, reg.Resolve([]string{"DATE", "OPEN", "HIGH", "LOW", "CLOSE", "VOL", "OI"}))
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"Symbol", "Date", "Open", "High", "Low", "Close", "Volume", "Oi"}, r.Header())

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC", "20010704", "10.50", "11.00", "10.25", "10.75", "1500", "0"}, first.Values)

	second, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC", "20010705", "10.75", "12.00", "10.50", "11.50", "2250", "3"}, second.Values)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDataReaderSkipKeepsAlignment(t *testing.T) {
	dir := t.TempDir()
	sym := &SymbolMetadata{FileNumber: 4, Symbol: "XY", Fields: 4, Ext: ".DAT"}

	// Unrecognized columns surround the known ones; if skipping consumed
	// the wrong number of bytes the decoded values would come out wrong.
	writeDataFile(t, dir, "F4.DAT", 4, 5,
		[][]byte{
			{0xDE, 0xAD, 0xBE, 0xEF}, msbin(packedDate(1999, 2, 1)), {0x01, 0x02, 0x03, 0x04}, msbin(42.5),
		},
		[][]byte{
			{0xFF, 0xFF, 0xFF, 0xFF}, msbin(packedDate(1999, 2, 2)), {0xAA, 0xBB, 0xCC, 0xDD}, msbin(43.25),
		},
	)

	reg := NewRegistry(-1)
	r, err := OpenDataFile(dir, sym, reg.Resolve([]string{"BONUS", "DATE", "SPLIT", "CLOSE"}))
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"Symbol", "Date", "Close"}, r.Header())

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"XY", "19990201", "42.50"}, first.Values)

	second, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"XY", "19990202", "43.25"}, second.Values)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDataReaderRecordMap(t *testing.T) {
	header := []string{"Symbol", "Date", "Close"}
	rec := Record{Values: []string{"XY", "19990201", "42.50"}}
	assert.Equal(t, map[string]string{
		"Symbol": "XY",
		"Date":   "19990201",
		"Close":  "42.50",
	}, rec.Map(header))
}

func TestDataReaderTruncatedRecord(t *testing.T) {
	dir := t.TempDir()
	sym := &SymbolMetadata{FileNumber: 2, Symbol: "TR", Fields: 2, Ext: ".DAT"}

	// Declares two stored ticks but holds one and a half records of bytes.
	buf := make([]byte, 0, 24)
	buf = binary.LittleEndian.AppendUint16(buf, 5) // max records
	buf = binary.LittleEndian.AppendUint16(buf, 3) // last used: 2 ticks
	buf = append(buf, make([]byte, (2-1)*4)...)    // header padding
	buf = append(buf, msbin(packedDate(2000, 1, 3))...)
	buf = append(buf, msbin(5)...)
	buf = append(buf, msbin(packedDate(2000, 1, 4))...) // second tick cut short
	require.NoError(t, os.WriteFile(filepath.Join(dir, "F2.DAT"), buf, 0o644))

	reg := NewRegistry(-1)
	r, err := OpenDataFile(dir, sym, reg.Resolve([]string{"DATE", "CLOSE"}))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	require.NoError(t, err)

	_, err = r.Next()
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, "TR", decErr.Symbol)
}

func TestDataReaderMissingFile(t *testing.T) {
	sym := &SymbolMetadata{FileNumber: 99, Symbol: "NOPE", Fields: 7, Ext: ".DAT"}
	_, err := OpenDataFile(t.TempDir(), sym, NewRegistry(-1).Resolve([]string{"DATE"}))
	var fmtErr *FormatError
	require.ErrorAs(t, err, &fmtErr)
	assert.Equal(t, "F99.DAT", fmtErr.File)
}

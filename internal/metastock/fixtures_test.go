package metastock

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// msbin builds the 4-byte MBF encoding of a float32 for test fixtures.
func msbin(v float32) []byte {
	bits := math.Float32bits(v)
	if v == 0 {
		return []byte{0, 0, 0, 0}
	}
	hi := byte(bits>>16)&0x7f | byte(bits>>24)&0x80
	return []byte{byte(bits), byte(bits >> 8), hi, byte(bits>>23) + 2}
}

// packedDate is the 1900-based integer MetaStock packs into date floats.
func packedDate(year, month, day int) float32 {
	return float32((year-1900)*10000 + month*100 + day)
}

func putPadded(dst []byte, s string) {
	copy(dst, s)
	for i := len(s); i < len(dst); i++ {
		dst[i] = ' '
	}
}

type emasterEntry struct {
	fileNumber int
	fields     int
	symbol     string
	name       string
	timeFrame  byte
	firstDate  float32
	lastDate   float32
}

func writeEMaster(t *testing.T, dir string, entries ...emasterEntry) {
	t.Helper()
	buf := make([]byte, (len(entries)+1)*192)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(entries)))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(len(entries)))
	for i, e := range entries {
		rec := buf[(i+1)*192:]
		rec[2] = byte(e.fileNumber)
		if e.fileNumber == 0 {
			continue
		}
		rec[6] = byte(e.fields)
		putPadded(rec[11:25], e.symbol)
		putPadded(rec[32:48], e.name)
		rec[60] = e.timeFrame
		copy(rec[64:68], msbin(e.firstDate))
		copy(rec[72:76], msbin(e.lastDate))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "EMASTER"), buf, 0o644))
}

type masterEntry struct {
	fileNumber int
	fields     int
	symbol     string
	name       string
	timeFrame  byte
	firstDate  float32
	lastDate   float32
}

func writeMaster(t *testing.T, dir string, entries ...masterEntry) {
	t.Helper()
	buf := make([]byte, (len(entries)+1)*53)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(entries)))
	for i, e := range entries {
		rec := buf[(i+1)*53:]
		rec[0] = byte(e.fileNumber)
		rec[3] = byte(e.fields * 4) // record length
		rec[4] = byte(e.fields)
		putPadded(rec[7:23], e.name)
		copy(rec[25:29], msbin(e.firstDate))
		copy(rec[29:33], msbin(e.lastDate))
		rec[33] = e.timeFrame
		putPadded(rec[36:50], e.symbol)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "MASTER"), buf, 0o644))
}

type xmasterEntry struct {
	fileNumber int
	symbol     string
	name       string
	timeFrame  byte
	firstDate  uint32
	lastDate   uint32
}

func writeXMaster(t *testing.T, dir string, entries ...xmasterEntry) {
	t.Helper()
	buf := make([]byte, (len(entries)+1)*150)
	binary.LittleEndian.PutUint16(buf[10:12], uint16(len(entries)))
	for i, e := range entries {
		rec := buf[(i+1)*150:]
		putPadded(rec[1:15], e.symbol)
		putPadded(rec[16:61], e.name)
		rec[62] = e.timeFrame
		binary.LittleEndian.PutUint16(rec[65:67], uint16(e.fileNumber))
		binary.LittleEndian.PutUint32(rec[108:112], e.firstDate)
		binary.LittleEndian.PutUint32(rec[116:120], e.lastDate)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "XMASTER"), buf, 0o644))
}

// writeDataFile builds an F<n> data file: counts header, the padding
// block and one fixed-width record per row. Each row holds one 4-byte
// field per column.
func writeDataFile(t *testing.T, dir, name string, fields, maxRecords int, rows ...[][]byte) {
	t.Helper()
	buf := make([]byte, 0, 4+(fields-1)*4+len(rows)*fields*4)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(maxRecords))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(rows)+1)) // last-used count
	buf = append(buf, make([]byte, (fields-1)*4)...)
	for _, row := range rows {
		require.Len(t, row, fields)
		for _, field := range row {
			require.Len(t, field, 4)
			buf = append(buf, field...)
		}
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf, 0o644))
}

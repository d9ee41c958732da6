package metastock

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/pwalczyk/ms2csv/internal/mbf"
)

// nameDecoder converts a raw fixed-width display-name field from the
// vendor codepage into a string.
type nameDecoder func([]byte) string

// indexLayout describes one index-file variant as data: where the record
// count lives, how wide each record is and how to decode one record. The
// three variants share a single read engine so their lifecycles cannot
// drift apart.
type indexLayout struct {
	file        string // on-disk name, e.g. "MASTER"
	countOffset int64  // offset of the 2-byte record count
	stride      int64  // record width; record 0 is the header
	decode      func(rec []byte, names nameDecoder) (SymbolMetadata, bool)
}

var masterLayout = indexLayout{
	file:        "MASTER",
	countOffset: 0,
	stride:      53,
	decode:      decodeMasterRecord,
}

var emasterLayout = indexLayout{
	file:        "EMASTER",
	countOffset: 0,
	stride:      192,
	decode:      decodeEMasterRecord,
}

var xmasterLayout = indexLayout{
	file:        "XMASTER",
	countOffset: 10,
	stride:      150,
	decode:      decodeXMasterRecord,
}

// readIndex loads every record of one index variant. A missing file is
// reported through found, not as an error; whether that is fatal depends
// on the source and is the catalog's call. Reads past the declared count
// are structural errors for this file only.
func readIndex(dir string, lay indexLayout, names nameDecoder) (syms []SymbolMetadata, found bool, err error) {
	f, err := os.Open(filepath.Join(dir, lay.file))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &FormatError{File: lay.file, Reason: "opening index", Err: err}
	}
	defer f.Close()

	var hdr [2]byte
	if _, err := f.ReadAt(hdr[:], lay.countOffset); err != nil {
		return nil, true, &FormatError{File: lay.file, Reason: "reading record count", Err: err}
	}
	count := int(binary.LittleEndian.Uint16(hdr[:]))

	syms = make([]SymbolMetadata, 0, count)
	rec := make([]byte, lay.stride)
	for i := 0; i < count; i++ {
		if _, err := f.ReadAt(rec, int64(i+1)*lay.stride); err != nil {
			return nil, true, &FormatError{File: lay.file,
				Reason: fmt.Sprintf("record %d out of range for declared count %d", i, count), Err: err}
		}
		sym, ok := lay.decode(rec, names)
		if !ok {
			continue
		}
		syms = append(syms, sym)
	}
	log.Debug().Str("index", lay.file).Int("declared", count).Int("symbols", len(syms)).Msg("index loaded")
	return syms, true, nil
}

// decodeMasterRecord walks the 53-byte standard index layout.
func decodeMasterRecord(rec []byte, names nameDecoder) (SymbolMetadata, bool) {
	sym := SymbolMetadata{
		FileNumber: int(rec[0]),
		Fields:     int(rec[4]),
		Name:       names(rec[7:23]),
		FirstDate:  mbf.DecodeDate(rec[25:29]),
		LastDate:   mbf.DecodeDate(rec[29:33]),
		TimeFrame:  rec[33],
		Symbol:     NormalizeSymbol(trimPadded(rec[36:50])),
		Ext:        ".DAT",
	}
	return sym, sym.FileNumber != 0
}

// decodeEMasterRecord walks the 192-byte extended index layout.
func decodeEMasterRecord(rec []byte, names nameDecoder) (SymbolMetadata, bool) {
	fileNumber := int(rec[2])
	if fileNumber == 0 {
		// Placeholder slot; the remaining fields hold garbage.
		return SymbolMetadata{}, false
	}
	return SymbolMetadata{
		FileNumber: fileNumber,
		Fields:     int(rec[6]),
		Symbol:     NormalizeSymbol(trimPadded(rec[11:25])),
		Name:       names(rec[32:48]),
		TimeFrame:  rec[60],
		FirstDate:  mbf.DecodeDate(rec[64:68]),
		LastDate:   mbf.DecodeDate(rec[72:76]),
		Ext:        ".DAT",
	}, true
}

// decodeXMasterRecord walks the 150-byte cross-reference layout. Unlike
// the other two variants it stores a 2-byte file number, plain-integer
// dates and symbol codes that are used as-is.
func decodeXMasterRecord(rec []byte, names nameDecoder) (SymbolMetadata, bool) {
	sym := SymbolMetadata{
		Symbol:     trimPadded(rec[1:15]),
		Name:       names(rec[16:61]),
		TimeFrame:  rec[62],
		FileNumber: int(binary.LittleEndian.Uint16(rec[65:67])),
		FirstDate:  mbf.DecodeIntDate(binary.LittleEndian.Uint32(rec[108:112])),
		LastDate:   mbf.DecodeIntDate(binary.LittleEndian.Uint32(rec[116:120])),
		Ext:        ".MWD",
	}
	return sym, sym.FileNumber != 0
}

// Package mbf decodes the 4-byte Microsoft Binary Format floating point
// encoding used throughout MetaStock files, together with the packed date
// and time values MetaStock stores inside it.
package mbf

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Float32 converts a 4-byte MBF value to a float64.
//
// MBF predates IEEE 754: the exponent lives in the last byte with a 0x81
// bias, the sign sits in bit 7 of the third byte and the mantissa keeps an
// implicit leading bit. Decoding rebiases the exponent on the high word,
// relocates the sign and reassembles an IEEE single from the original low
// bytes plus the recomputed high word. Any 4-byte input is structurally
// valid, so there is no error path.
func Float32(b []byte) float64 {
	word := binary.LittleEndian.Uint16(b[2:4])
	if word == 0 {
		// A zero mantissa word means exactly zero no matter what the
		// remaining bytes hold.
		return 0
	}
	exp := int32(word&0xff00) - 0x0200
	man := int32(word)&0x7f | (int32(word)<<8)&0x8000
	man |= exp >> 1
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(uint16(man))<<16
	return float64(math.Float32frombits(bits))
}

// Date is a calendar date as stored by MetaStock. It carries plain fields
// with no calendar validation: index slots routinely hold zero dates and
// rejecting them would fail otherwise readable files.
type Date struct {
	Year  int
	Month int
	Day   int
}

// IsZero reports whether no date was stored at all.
func (d Date) IsZero() bool { return d.Month == 0 && d.Day == 0 }

// String formats the date as YYYYMMDD.
func (d Date) String() string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, d.Month, d.Day)
}

// Time is an intraday timestamp as stored by MetaStock TIME columns.
type Time struct {
	Hour   int
	Minute int
}

// String formats the time as HHMM.
func (t Time) String() string {
	return fmt.Sprintf("%02d%02d", t.Hour, t.Minute)
}

// DecodeDate interprets an MBF float as a 1900-based packed date: the
// integer part reads as 1YYMMDD, e.g. 1010704 means 2001-07-04. MASTER and
// EMASTER store their date fields this way.
func DecodeDate(b []byte) Date {
	v := int(Float32(b))
	return Date{
		Year:  1900 + v/10000,
		Month: (v / 100) % 100,
		Day:   v % 100,
	}
}

// DecodeTime interprets an MBF float as a packed HHMMSS-style value,
// keeping hours and minutes.
func DecodeTime(b []byte) Time {
	v := int(Float32(b))
	return Time{
		Hour:   v / 10000,
		Minute: (v / 100) % 100,
	}
}

// DecodeIntDate converts a plain packed YYYYMMDD integer to a Date. Only
// the XMASTER cross-reference index stores dates this way; it must never
// be conflated with the MBF-float date encoding above.
func DecodeIntDate(v uint32) Date {
	return Date{
		Year:  int(v / 10000),
		Month: int(v/100) % 100,
		Day:   int(v % 100),
	}
}

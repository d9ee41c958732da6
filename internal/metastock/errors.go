package metastock

import (
	"errors"
	"fmt"
)

// ErrMissingIndex is returned by Load when the mandatory EMASTER index is
// absent. The other index sources are optional.
var ErrMissingIndex = errors.New("metastock: EMASTER index file not found")

// FormatError reports a structurally unusable file: missing where
// mandatory, a declared record count that runs past end of file, or a
// sidecar that cannot be parsed. It is fatal for the affected file only.
type FormatError struct {
	File   string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.File, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

// DecodeError reports a failed read inside one symbol's record stream.
// The stream is abandoned; other symbols are unaffected.
type DecodeError struct {
	Symbol string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Symbol, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ConfigError reports an inconsistency in the conversion setup, such as a
// declared field count that contradicts the fallback column layout.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return e.Reason }

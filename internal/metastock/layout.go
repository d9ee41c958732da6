package metastock

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// reColumnName extracts the quoted column name from one sidecar entry of
// the form `"CLOSE",...`.
var reColumnName = regexp.MustCompile(`^"(.+)",`)

// defaultLayout is the column set assumed for daily data when a symbol has
// no DOP sidecar.
var defaultLayout = []string{"DATE", "OPEN", "HIGH", "LOW", "CLOSE", "VOL", "OI"}

// ResolveLayout returns the ordered column tokens of a symbol's data file.
//
// When the F<n>.DOP sidecar exists it is parsed as whitespace-separated
// quoted entries, dropping the single trailing non-column entry every
// sidecar ends with. When it does not, the fixed 7-column daily layout is
// assumed, which requires the symbol's declared field count to agree: a
// mismatch would silently misalign every column, so it fails instead.
func ResolveLayout(dir string, sym *SymbolMetadata) ([]string, error) {
	name := sym.SidecarName()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		if sym.Fields != len(defaultLayout) {
			return nil, &ConfigError{Reason: fmt.Sprintf(
				"%s: no %s sidecar and declared field count %d does not match the default %d-column layout",
				sym.Symbol, name, sym.Fields, len(defaultLayout))}
		}
		log.Debug().Str("symbol", sym.Symbol).Msg("no sidecar, assuming default daily columns")
		return append([]string(nil), defaultLayout...), nil
	}
	if err != nil {
		return nil, &FormatError{File: name, Reason: "reading sidecar", Err: err}
	}

	entries := strings.Fields(string(data))
	if len(entries) == 0 {
		return nil, &FormatError{File: name, Reason: "empty sidecar"}
	}
	// The last entry of every sidecar is trailing metadata, not a column.
	entries = entries[:len(entries)-1]

	tokens := make([]string, 0, len(entries))
	for _, e := range entries {
		m := reColumnName.FindStringSubmatch(e)
		if m == nil {
			return nil, &FormatError{File: name, Reason: fmt.Sprintf("unparseable column entry %q", e)}
		}
		tokens = append(tokens, m[1])
	}

	if sym.Fields > 0 && len(tokens) != sym.Fields {
		// The sidecar describes the actual file layout, so it wins.
		log.Warn().
			Str("symbol", sym.Symbol).
			Int("declared", sym.Fields).
			Int("sidecar", len(tokens)).
			Msg("field count disagrees with sidecar")
	}
	return tokens, nil
}

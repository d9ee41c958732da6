package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"

	"github.com/pwalczyk/ms2csv/internal/exporter"
	"github.com/pwalczyk/ms2csv/internal/metastock"
)

// symbolsFile is the YAML shape accepted by --symbols-file.
type symbolsFile struct {
	Symbols []string `yaml:"symbols"`
}

// NewDumpCmd builds and returns the 'dump' cobra command.
func NewDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <dir> [symbol ...]",
		Short: "Extract symbols from a MetaStock directory into per-symbol CSV files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Bind the cobra flags into viper so they can be read
			// uniformly, with MS2CSV_* environment overrides.
			for _, name := range []string{"all", "precision", "out-dir", "encoding", "workers", "symbols-file"} {
				if err := viper.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
					return err
				}
			}
			viper.SetEnvPrefix("MS2CSV")
			viper.AutomaticEnv()
			return runDump(args[0], args[1:])
		},
	}

	cmd.Flags().BoolP("all", "a", false, "Extract every symbol in the catalog")
	cmd.Flags().IntP("precision", "p", metastock.DefaultPrecision, "Decimal digits for price columns")
	cmd.Flags().StringP("out-dir", "d", ".", "Directory for the generated CSV files")
	cmd.Flags().String("encoding", "ascii", "Codepage of display names (ascii, latin1, cp1250, cp1252)")
	cmd.Flags().Int("workers", 1, "Number of symbols converted in parallel")
	cmd.Flags().String("symbols-file", "", "YAML file with a 'symbols' list to extract")
	return cmd
}

// runDump is the entry point for the dump command.
func runDump(dir string, args []string) error {
	all := viper.GetBool("all")
	symbols := append([]string(nil), args...)

	if path := viper.GetString("symbols-file"); path != "" {
		extra, err := loadSymbolsFile(path)
		if err != nil {
			return fmt.Errorf("loading symbols file: %w", err)
		}
		symbols = append(symbols, extra...)
		log.Debug().Str("path", path).Int("symbols", len(extra)).Msg("symbols file loaded")
	}
	if !all && len(symbols) == 0 {
		return errors.New("nothing to extract: pass symbols, --symbols-file or --all")
	}

	enc, err := nameEncoding(viper.GetString("encoding"))
	if err != nil {
		return err
	}

	cat, err := metastock.Load(metastock.Options{
		Dir:       dir,
		Precision: viper.GetInt("precision"),
		Encoding:  enc,
	})
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	selected := cat.Select(all, symbols)
	log.Debug().Int("selected", len(selected)).Int("catalog", cat.Len()).Msg("symbols selected")

	w := &exporter.Writer{OutDir: viper.GetString("out-dir")}

	// Per-symbol conversions are independent, so they fan out over a
	// bounded pool. Failures stay contained to their symbol.
	g := new(errgroup.Group)
	g.SetLimit(max(viper.GetInt("workers"), 1))
	for _, sym := range selected {
		sym := sym
		g.Go(func() error {
			log.Info().Str("symbol", sym.Symbol).Int("file_number", sym.FileNumber).Msg("processing")
			header, records := cat.ReadAll(sym)
			if header == nil {
				return nil // already reported at the symbol boundary
			}
			if _, err := w.WriteSymbol(sym.Symbol, header, records); err != nil {
				log.Error().Err(err).Str("symbol", sym.Symbol).Msg("csv write failed")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	log.Debug().Msg("dump complete")
	return nil
}

// nameEncoding maps the --encoding flag to a charmap. ASCII means no
// translation at all.
func nameEncoding(name string) (*charmap.Charmap, error) {
	switch strings.ToLower(name) {
	case "", "ascii":
		return nil, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "cp1250", "windows-1250":
		return charmap.Windows1250, nil
	case "cp1252", "windows-1252":
		return charmap.Windows1252, nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", name)
}

// loadSymbolsFile reads and unmarshals the YAML symbol list.
func loadSymbolsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sf symbolsFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, err
	}
	return sf.Symbols, nil
}

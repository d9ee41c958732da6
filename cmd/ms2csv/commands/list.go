package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pwalczyk/ms2csv/internal/metastock"
)

// NewListCmd builds and returns the 'list' cobra command.
func NewListCmd() *cobra.Command {
	var outputFile string
	var xref bool

	cmd := &cobra.Command{
		Use:   "list <dir>",
		Short: "List the symbols of a MetaStock directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(args[0], outputFile, xref)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write output to file instead of stdout")
	cmd.Flags().BoolVar(&xref, "xref", false, "List the cross-reference (XMASTER) entries instead of the merged table")
	return cmd
}

// runList is the entry point for the list command.
func runList(dir, outputPath string, xref bool) error {
	log.Debug().Str("dir", dir).Str("output", outputPath).Bool("xref", xref).Msg("list started")

	cat, err := metastock.Load(metastock.Options{Dir: dir, Precision: -1})
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	// Resolve output writer.
	var w io.Writer = os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("creating output file %q: %w", outputPath, err)
		}
		defer f.Close()
		bw := bufio.NewWriter(f)
		defer bw.Flush()
		w = bw
		log.Debug().Str("path", outputPath).Msg("writing to file")
	}

	var entries []*metastock.SymbolMetadata
	if xref {
		crossRef := cat.CrossRef()
		for i := range crossRef {
			entries = append(entries, &crossRef[i])
		}
	} else {
		entries = cat.Select(true, nil)
	}

	fmt.Fprintf(w, "Number of available symbols: %d\n", len(entries))
	for _, s := range entries {
		fmt.Fprintf(w, "symbol: %s, name: %s, file number: %d\n", s.Symbol, s.Name, s.FileNumber)
	}

	log.Debug().Int("symbols", len(entries)).Msg("list complete")
	return nil
}

package modes

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/heartnote/heartnote/pkg/compose"
)

func NewModesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List writing modes, tones and languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := compose.DefaultRegistry()
			if err != nil {
				return err
			}
			return printModes(cmd.OutOrStdout(), reg)
		},
	}
}

func printModes(out io.Writer, reg *compose.Registry) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODE\tTITLE\tVERSION\tALIASES")
	for _, t := range reg.Templates() {
		fmt.Fprintf(w, "%s\t%s\tv%d\t%s\n", t.Mode, t.Title, t.Version, strings.Join(compose.ModeAliases(t.Mode), ", "))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	for _, t := range compose.Tones() {
		fmt.Fprintf(out, "tone %-9s (depth %s): %s\n", t.Level, t.Depth, t.Descriptor)
	}

	codes := make([]string, 0, len(compose.Languages()))
	for _, l := range compose.Languages() {
		codes = append(codes, l.Code)
	}
	_, err := fmt.Fprintf(out, "\nlanguages: %s\n", strings.Join(codes, ", "))
	return err
}

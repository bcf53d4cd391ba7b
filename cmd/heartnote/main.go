package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/heartnote/heartnote/cmd/heartnote/internal"
	"github.com/heartnote/heartnote/cmd/heartnote/internal/generate"
	"github.com/heartnote/heartnote/cmd/heartnote/internal/modes"
	"github.com/heartnote/heartnote/cmd/heartnote/internal/serve"
)

func NewHeartnoteCommand() *cobra.Command {
	var configPath string
	var debug bool

	cmd := &cobra.Command{
		Use:          "heartnote",
		Short:        "HeartNote turns a few words about a feeling into a short piece of writing",
		Version:      internal.FormatVersion(),
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (.json, .yaml or .toml)")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	opts := &internal.Options{ConfigPath: &configPath, Debug: &debug}
	cmd.AddCommand(
		serve.NewServeCommand(opts),
		generate.NewGenerateCommand(opts),
		modes.NewModesCommand(),
		newVersionCommand(),
	)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), internal.FormatVersion())
		},
	}
}

func main() {
	if err := NewHeartnoteCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

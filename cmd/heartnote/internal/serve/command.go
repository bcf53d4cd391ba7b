package serve

import (
	"github.com/spf13/cobra"

	"github.com/heartnote/heartnote/cmd/heartnote/internal"
)

func NewServeCommand(opts *internal.Options) *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Start the HTTP API and enabled chat channels",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.LoadConfig()
			if err != nil {
				return err
			}
			return serveCmd(cmd.Context(), cfg)
		},
	}
}

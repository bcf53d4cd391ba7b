package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heartnote/heartnote/cmd/heartnote/internal"
	"github.com/heartnote/heartnote/pkg/metrics"
	"github.com/heartnote/heartnote/pkg/pipeline"
)

type flags struct {
	mode     string
	name     string
	tone     string
	language string
	asJSON   bool
}

func NewGenerateCommand(opts *internal.Options) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:     "generate [description]",
		Aliases: []string{"g", "write"},
		Short:   "Generate one piece of writing and print it",
		Example: `  heartnote generate -m poem -t deep "the house is quiet since you left"
  heartnote generate -m letter -n Maya --json "thank you for staying"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.LoadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			p, err := pipeline.NewFromConfig(ctx, cfg)
			if err != nil {
				return fmt.Errorf("error creating pipeline: %w", err)
			}
			return run(ctx, p, f, strings.Join(args, " "), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&f.mode, "mode", "m", "note", "writing mode")
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "person the piece is about or addressed to")
	cmd.Flags().StringVarP(&f.tone, "tone", "t", "soft", "tone: soft, balanced or deep")
	cmd.Flags().StringVarP(&f.language, "language", "l", "en", "response language")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print the full result as JSON")

	return cmd
}

type generator interface {
	Generate(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

func run(ctx context.Context, gen generator, f flags, description string, out io.Writer) error {
	ctx = metrics.WithChannel(ctx, metrics.ChannelCLI)
	res, err := gen.Generate(ctx, pipeline.Request{
		Mode:        f.mode,
		Name:        f.name,
		Description: description,
		Tone:        f.tone,
		Language:    f.language,
	})
	if err != nil {
		return err
	}

	if f.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err = fmt.Fprintln(out, res.Response)
	return err
}

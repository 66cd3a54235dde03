package cli

import (
	"ecourts-fetcher-be/pkg/fetch"

	"github.com/spf13/cobra"
)

type cnrOptions struct {
	SkipDownload bool
	SaveDir      string
}

// NewCnrCommand creates the cnr command.
func NewCnrCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &cnrOptions{}

	cmd := &cobra.Command{
		Use:   "cnr <CNR>",
		Short: "Look up a case by its CNR",
		Example: `  ecourts cnr MHAU030151912016
  ecourts cnr MHAU030151912016 --skip-download --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := fetch.CnrWorkflow{SkipDownload: opts.SkipDownload}
			return runWorkflow(cmd, rootOpts, w, fetch.CnrQuery{CNR: args[0]}, runOptions{SaveDir: opts.SaveDir})
		},
	}

	cmd.Flags().BoolVar(&opts.SkipDownload, "skip-download", false, "return the case table and PDF links without bundling an archive")
	cmd.Flags().StringVar(&opts.SaveDir, "save", "", "download the resulting archive into this directory")

	return cmd
}

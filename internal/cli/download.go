package cli

import (
	"context"

	"github.com/spf13/cobra"
)

type downloadResult struct {
	Path string `json:"path"`
}

func (r downloadResult) String() string { return r.Path }

// NewDownloadCommand creates the download command.
func NewDownloadCommand(rootOpts *RootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "download <reference>",
		Short: "Download a cause list PDF or case archive",
		Long: `Download the artifact a previous run resolved to. The reference is the
pdf_reference or the resolved archive path printed by cnr or court.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out := rootOpts.formatter(cmd)
			path, err := saveDownload(ctx, rootOpts.client(), args[0], dir)
			if err != nil {
				return commandError(err)
			}
			return out.Success(downloadResult{Path: path})
		},
	}

	cmd.Flags().StringVarP(&dir, "output", "o", ".", "directory to write the file into")

	return cmd
}

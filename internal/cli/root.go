package cli

import (
	"fmt"
	"os"
	"time"

	"ecourts-fetcher-be/pkg/fetch"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	BaseURL     string
	Timeout     time.Duration
	Format      string // "text" | "json" | "yaml"
	CaptchaDir  string
	DownloadDir string
	Verbose     bool
	NoColor     bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for the ecourts CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ecourts",
		Short: "Fetch case status and cause lists from eCourts",
		Long: `Fetch case status and cause lists from eCourts through the scraping backend.

Each lookup is a two-phase exchange: the backend returns a CAPTCHA image,
the CLI saves it to disk and asks for the answer, then submits it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.NoColor {
				color.NoColor = true
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.BaseURL, "backend", envOr("ECOURTS_BACKEND_URL", fetch.DefaultBaseURL), "scraping backend base URL")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 90*time.Second, "timeout for each backend call")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.CaptchaDir, "captcha-dir", os.TempDir(), "directory the CAPTCHA image is written to")
	cmd.PersistentFlags().StringVar(&opts.DownloadDir, "download-dir", os.Getenv("ECOURTS_DOWNLOAD_DIR"), "backend download directory archive names resolve against")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "print protocol events")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored output")

	cmd.AddCommand(NewCnrCommand(opts))
	cmd.AddCommand(NewCourtCommand(opts))
	cmd.AddCommand(NewDownloadCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

func (o *RootOptions) client() *fetch.Client {
	return fetch.NewClient(o.BaseURL, fetch.WithTimeout(o.Timeout))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

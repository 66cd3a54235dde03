package cli

import (
	"ecourts-fetcher-be/pkg/fetch"

	"github.com/spf13/cobra"
)

type courtOptions struct {
	State    string
	District string
	Complex  string
	Court    string
	Date     string
	CaseType string
	SaveDir  string
}

// NewCourtCommand creates the court command.
func NewCourtCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &courtOptions{}

	cmd := &cobra.Command{
		Use:   "court",
		Short: "Fetch a court's cause list for a date",
		Example: `  ecourts court --state 1 --district 19 --complex 1190001 \
    --court "2-Civil Judge" --date 18-10-2026 --case-type criminal`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caseType, err := fetch.ParseCaseType(opts.CaseType)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid request", err)
			}
			q := fetch.CourtQuery{
				State:            opts.State,
				District:         opts.District,
				CourtComplexCode: opts.Complex,
				CourtName:        opts.Court,
				Date:             opts.Date,
				CaseType:         caseType,
			}
			return runWorkflow(cmd, rootOpts, fetch.CourtWorkflow{}, q, runOptions{SaveDir: opts.SaveDir})
		},
	}

	cmd.Flags().StringVar(&opts.State, "state", "", "state code")
	cmd.Flags().StringVar(&opts.District, "district", "", "district code")
	cmd.Flags().StringVar(&opts.Complex, "complex", "", "court complex code")
	cmd.Flags().StringVar(&opts.Court, "court", "", "court name as listed by eCourts")
	cmd.Flags().StringVar(&opts.Date, "date", "", "cause list date (dd-mm-yyyy)")
	cmd.Flags().StringVar(&opts.CaseType, "case-type", "civ", "civ|cri")
	cmd.Flags().StringVar(&opts.SaveDir, "save", "", "download the cause list PDF into this directory")

	return cmd
}

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"ecourts-fetcher-be/internal/mapper"
	"ecourts-fetcher-be/pkg/fetch"

	"github.com/spf13/cobra"
)

// runOptions are the per-command knobs shared by cnr and court.
type runOptions struct {
	SaveDir string
}

// runWorkflow drives one engine run end to end on the terminal: it submits
// the query, saves the CAPTCHA image, reads the answer from stdin and prints
// the outcome.
func runWorkflow(cmd *cobra.Command, opts *RootOptions, w fetch.Workflow, q fetch.Query, ro runOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := opts.formatter(cmd)
	client := opts.client()

	engine := fetch.NewEngine(w, client, fetch.WithSink(verboseSink(out)))
	out.VerboseLog("backend %s", client.BaseURL())

	result, err := engine.Initiate(ctx, q)
	if err != nil {
		return commandError(err)
	}

	var outcome fetch.Outcome
	// A broken submit round trip still resolves the run to a Failed outcome;
	// it is printed, but the exit code reports the transport failure.
	var submitErr error
	switch r := result.(type) {
	case fetch.Resolved:
		outcome = r.Outcome
	case fetch.ChallengeRequired:
		path, err := saveChallenge(opts.CaptchaDir, r.Session)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to save captcha image", err)
		}
		out.Progress("CAPTCHA saved to %s", path)
		fmt.Fprint(out.errWriter(), "Enter CAPTCHA: ")

		answer, err := readAnswer(bufio.NewReader(cmd.InOrStdin()))
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read captcha answer", err)
		}
		outcome, submitErr = engine.Submit(ctx, r.Session, answer)
		if submitErr != nil && outcome == nil {
			return commandError(submitErr)
		}
	}

	m := mapper.NewFetchOutcomeMapper(opts.DownloadDir)
	if err := out.Outcome(m.ToOutcome(outcome)); err != nil {
		return err
	}
	if submitErr != nil {
		return commandError(submitErr)
	}
	if f, ok := outcome.(fetch.Failed); ok {
		return NewExitError(ExitFailure, f.Message)
	}

	if ro.SaveDir != "" {
		if ref := m.Reference(outcome); ref != "" {
			path, err := saveDownload(ctx, client, ref, ro.SaveDir)
			if err != nil {
				return commandError(err)
			}
			out.Progress("saved %s", path)
		}
	}
	return nil
}

// saveDownload streams the artifact behind reference into dir.
func saveDownload(ctx context.Context, client *fetch.Client, reference, dir string) (string, error) {
	dl, err := client.Download(ctx, reference)
	if err != nil {
		return "", err
	}
	defer dl.Body.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, dl.Filename)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, dl.Body); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

func verboseSink(out *OutputFormatter) fetch.Sink {
	return fetch.SinkFunc(func(ev fetch.Event) {
		out.VerboseLog("%s", fetch.FormatLine(ev))
	})
}

func commandError(err error) error {
	switch {
	case fetch.IsValidationError(err):
		return WrapExitError(ExitCommandError, "invalid request", err)
	case fetch.IsTransportError(err):
		return WrapExitError(ExitCommandError, "backend unreachable", err)
	}
	return WrapExitError(ExitCommandError, "command failed", err)
}

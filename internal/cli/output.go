package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"ecourts-fetcher-be/internal/dto"
	"ecourts-fetcher-be/pkg/events"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the run resolved to a failed outcome
	ExitCommandError = 2 // bad input or an unreachable backend
)

// ExitError carries the process exit code for a command error.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter renders results as text, JSON or YAML. Progress and
// prompts go to ErrWriter so structured output on Writer stays parseable.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the envelope for json and yaml output.
type CLIResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  *CLIError   `json:"error,omitempty"`
}

type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (f *OutputFormatter) Outcome(o *dto.OutcomeResponse) error {
	if f.Format != "text" {
		status := "ok"
		if o.Kind == "failed" {
			status = "failed"
		}
		return f.encode(CLIResponse{Status: status, Data: o})
	}
	f.writeOutcomeText(o)
	return nil
}

func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format != "text" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

func (f *OutputFormatter) Error(code, message string) error {
	if f.Format != "text" {
		return f.encode(CLIResponse{Status: "error", Error: &CLIError{Code: code, Message: message}})
	}
	color.New(color.FgRed).Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	return nil
}

// Event prints one resolved-run notification.
func (f *OutputFormatter) Event(ev events.Event) error {
	data := ev.Payload()
	if f.Format != "text" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	kind, _ := data["outcome_kind"].(string)
	label := color.New(color.FgGreen).Sprint(kind)
	if kind == "failed" {
		label = color.New(color.FgRed).Sprint(kind)
	}
	fmt.Fprintf(f.Writer, "%s %s %v/%v %s %v\n",
		ev.Timestamp().Format("15:04:05"), label, data["owner"], data["run_id"], data["workflow"], data["summary"])
	return nil
}

// Progress writes an informational line for the user.
func (f *OutputFormatter) Progress(format string, args ...interface{}) {
	color.New(color.FgCyan).Fprintf(f.errWriter(), format+"\n", args...)
}

// VerboseLog outputs a message only if verbose mode is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.errWriter(), format+"\n", args...)
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	if f.Format == "yaml" {
		// Round trip through JSON so yaml keys follow the json tags.
		raw, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		var doc interface{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(f.Writer)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(doc)
	}
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func (f *OutputFormatter) writeOutcomeText(o *dto.OutcomeResponse) {
	w := f.Writer
	if o.Kind == "failed" {
		color.New(color.FgRed, color.Bold).Fprint(w, "FAILED")
		fmt.Fprintf(w, " %s\n", o.Message)
		return
	}

	color.New(color.FgGreen, color.Bold).Fprint(w, "OK")
	fmt.Fprintf(w, " %s\n", o.Summary)

	keys := make([]string, 0, len(o.CaseInfo))
	width := 0
	for k := range o.CaseInfo {
		keys = append(keys, k)
		if len(k) > width {
			width = len(k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-*s %s\n", width+1, k+":", o.CaseInfo[k])
	}
	for _, link := range o.PDFLinks {
		fmt.Fprintf(w, "  pdf: %s\n", link)
	}
	for _, name := range o.PDFs {
		fmt.Fprintf(w, "  pdf: %s\n", name)
	}
	if o.DownloadPath != "" {
		fmt.Fprintf(w, "  download: %s\n", o.DownloadPath)
	}
}

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ecourts-fetcher-be/pkg/events"
	"ecourts-fetcher-be/pkg/nats"

	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command, which tails resolved runs
// published by the gateway.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	var natsURL string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print runs as the gateway resolves them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if natsURL == "" {
				return NewExitError(ExitCommandError, "--nats-url or NATS_URL is required")
			}
			out := rootOpts.formatter(cmd)

			sub, err := nats.NewSubscriber(natsURL)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to connect to NATS", err)
			}
			defer sub.Close()

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
			defer stop()

			cancel, err := sub.Subscribe(ctx, nats.Subject(events.FetchResolvedType), "", func(_ context.Context, ev events.Event) error {
				return out.Event(ev)
			})
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to subscribe", err)
			}
			defer cancel()

			out.Progress("watching %s", nats.Subject(events.FetchResolvedType))
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&natsURL, "nats-url", os.Getenv("NATS_URL"), "NATS server URL")

	return cmd
}

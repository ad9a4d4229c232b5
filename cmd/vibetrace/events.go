package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/vibetrace/internal/hermes"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print analysis events from NATS as they arrive",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.NatsURL == "" {
			return errors.New("NATS_URL is required")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			return err
		}
		defer client.Close()

		out := cmd.OutOrStdout()
		err = client.Subscribe(hermes.SubjectAll, func(subject string, data []byte) {
			fmt.Fprintf(out, "%s %s\n", subject, data)
		})
		if err != nil {
			return err
		}

		<-ctx.Done()
		return nil
	},
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"kakebo/internal/amqp"
)

func (r *Runtime) watchCmd() *cobra.Command {
	var binding string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow notifications published by other kakebo processes",
		Long: `Print every notification published to the AMQP exchange until interrupted.
Use --binding to narrow the stream, e.g. "notification.error".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if r.app.AMQP == nil {
				return errors.New("no AMQP broker configured; set KAKEBO_AMQP_URL")
			}
			err := r.app.AMQP.ConsumeNotifications(cmd.Context(), binding, func(ev *amqp.NotificationEvent) error {
				_, err := fmt.Fprintln(r.out, formatEvent(ev))
				return err
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&binding, "binding", "notification.#", "routing key pattern to subscribe to")
	return cmd
}

func formatEvent(ev *amqp.NotificationEvent) string {
	line := ev.Timestamp.Local().Format(time.DateTime) + " " + string(ev.Severity)
	if ev.Table != "" {
		line += " [" + ev.Table + "]"
	}
	line += " " + ev.Title
	if ev.Message != "" {
		line += ": " + ev.Message
	}
	return line
}

package mail

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/felixgeelhaar/rendezvous/adapter/cli"
	"github.com/spf13/cobra"
)

// Cmd is the mail command group.
var Cmd = &cobra.Command{
	Use:   "mail",
	Short: "Queued mail delivery",
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Deliver mails queued by NOTIFIER=queue",
	Long: `Consume the mail queue and send each message through Gmail.

Runs until interrupted. Failed sends are requeued by the broker.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorker(cmd.Context(), cmd.OutOrStdout(), cli.GetApp())
	},
}

func init() {
	Cmd.AddCommand(workerCmd)
}

func runWorker(ctx context.Context, out io.Writer, app *cli.App) error {
	if app == nil || app.MailConsumer == nil {
		return errors.New("mail worker requires RABBITMQ_URL")
	}

	consumer, err := app.MailConsumer(ctx)
	if err != nil {
		return fmt.Errorf("failed to start mail worker: %w", err)
	}
	defer consumer.Close()

	fmt.Fprintln(out, "Mail worker running. Press Ctrl+C to stop.")
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Fprintln(out, "Mail worker stopped.")
	return nil
}

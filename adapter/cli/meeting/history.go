package meeting

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/felixgeelhaar/rendezvous/adapter/cli"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/dto"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history [negotiation-id]",
	Short: "Show journaled delivery attempts for a negotiation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory(cmd.Context(), cmd.OutOrStdout(), cli.GetApp(), args[0], historyJSON)
	},
}

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print records as JSON")
}

func runHistory(ctx context.Context, out io.Writer, app *cli.App, rawID string, asJSON bool) error {
	if app == nil || app.History == nil {
		return errors.New("delivery journal is disabled")
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid negotiation id: %w", err)
	}

	records, err := app.History.History(ctx, id)
	if err != nil {
		return err
	}
	views := dto.NewDeliveryDTOs(records)

	if asJSON {
		return writeJSON(out, views)
	}
	if len(views) == 0 {
		fmt.Fprintf(out, "No deliveries recorded for %s\n", id)
		return nil
	}
	renderDeliveries(out, views)
	return nil
}

package meeting

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/felixgeelhaar/rendezvous/adapter/cli"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/commands"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/dto"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/services"
	"github.com/spf13/cobra"
)

type negotiateOptions struct {
	File             string
	Rows             []string
	Confirm          bool
	ExcludeMalformed bool
	Notify           bool
	Link             string
	Message          string
	JSON             bool
}

var negotiateOpts negotiateOptions

var negotiateCmd = &cobra.Command{
	Use:   "negotiate",
	Short: "Find a slot all participants can attend",
	Long: `Intersect every participant's availability and pick a slot.

Availability comes from a JSON file, manual rows, or both. Rows with an
e-mail already present add a window to that participant.

Examples:
  rendezvous meeting negotiate --file availability.json --notify
  rendezvous meeting negotiate \
    --participant "2025-07-07 09:00,2025-07-07 11:00,ada@example.com,Europe/London" \
    --participant "2025-07-07 14:00,2025-07-07 16:00,raj@example.com,Asia/Kolkata"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNegotiate(cmd.Context(), cmd.OutOrStdout(), cli.GetApp(), negotiateOpts)
	},
}

func init() {
	negotiateCmd.Flags().StringVarP(&negotiateOpts.File, "file", "f", "", "availability JSON file (- for stdin)")
	negotiateCmd.Flags().StringArrayVarP(&negotiateOpts.Rows, "participant", "p", nil, "manual row start,end,email[,timezone] (repeatable)")
	negotiateCmd.Flags().BoolVar(&negotiateOpts.Confirm, "confirm", false, "propose the slot and wait for confirmation instead of confirming")
	negotiateCmd.Flags().BoolVar(&negotiateOpts.ExcludeMalformed, "exclude-malformed", false, "drop participants with malformed input instead of failing")
	negotiateCmd.Flags().BoolVar(&negotiateOpts.Notify, "notify", false, "send confirmation or reschedule mails")
	negotiateCmd.Flags().StringVar(&negotiateOpts.Link, "link", "", "meeting link to use instead of provisioning one")
	negotiateCmd.Flags().StringVar(&negotiateOpts.Message, "message", "", "custom confirmation message")
	negotiateCmd.Flags().BoolVar(&negotiateOpts.JSON, "json", false, "print the outcome as JSON")
}

func runNegotiate(ctx context.Context, out io.Writer, app *cli.App, opts negotiateOptions) error {
	if app == nil || app.NegotiateHandler == nil {
		return errors.New("negotiation is not configured")
	}

	inputs, err := loadParticipants(opts.File, opts.Rows)
	if err != nil {
		return err
	}

	result, err := app.NegotiateHandler.Handle(ctx, commands.NegotiateCommand{
		Participants:        inputs,
		RequireConfirmation: opts.Confirm,
		ExcludeMalformed:    opts.ExcludeMalformed,
		Notify:              opts.Notify,
		MeetingLink:         opts.Link,
		CustomMessage:       opts.Message,
	})
	if err != nil {
		return err
	}

	view := dto.NewOutcomeDTO(result.Outcome, result.Excluded, result.Delivery)
	if opts.JSON {
		if err := writeJSON(out, view); err != nil {
			return err
		}
	} else {
		renderOutcome(out, view)
	}
	return deliveryError(result.Delivery)
}

func deliveryError(report *services.DeliveryReport) error {
	if report == nil {
		return nil
	}
	if failed := report.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d deliveries failed", len(failed), len(report.Results))
	}
	return nil
}

package meeting

import (
	"context"
	"errors"
	"io"

	"github.com/felixgeelhaar/rendezvous/adapter/cli"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/commands"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/dto"
	"github.com/spf13/cobra"
)

type finalizeOptions struct {
	Start    string
	End      string
	Timezone string
	File     string
	Rows     []string
	Notify   bool
	Link     string
	Message  string
	JSON     bool
}

var finalizeOpts finalizeOptions

var finalizeCmd = &cobra.Command{
	Use:   "finalize",
	Short: "Confirm a proposed slot",
	Long: `Confirm a slot returned by "meeting negotiate --confirm".

Participants are given the same way as for negotiate; their windows are
not checked against the slot.

Examples:
  rendezvous meeting finalize --start 2025-07-07T10:00Z --end 2025-07-07T11:00Z \
    --file availability.json --notify`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFinalize(cmd.Context(), cmd.OutOrStdout(), cli.GetApp(), finalizeOpts)
	},
}

func init() {
	finalizeCmd.Flags().StringVar(&finalizeOpts.Start, "start", "", "slot start")
	finalizeCmd.Flags().StringVar(&finalizeOpts.End, "end", "", "slot end")
	finalizeCmd.Flags().StringVar(&finalizeOpts.Timezone, "timezone", "", "zone for start and end without an offset (default UTC)")
	finalizeCmd.Flags().StringVarP(&finalizeOpts.File, "file", "f", "", "availability JSON file (- for stdin)")
	finalizeCmd.Flags().StringArrayVarP(&finalizeOpts.Rows, "participant", "p", nil, "manual row start,end,email[,timezone] (repeatable)")
	finalizeCmd.Flags().BoolVar(&finalizeOpts.Notify, "notify", false, "send confirmation mails")
	finalizeCmd.Flags().StringVar(&finalizeOpts.Link, "link", "", "meeting link to use instead of provisioning one")
	finalizeCmd.Flags().StringVar(&finalizeOpts.Message, "message", "", "custom confirmation message")
	finalizeCmd.Flags().BoolVar(&finalizeOpts.JSON, "json", false, "print the outcome as JSON")
	_ = finalizeCmd.MarkFlagRequired("start")
	_ = finalizeCmd.MarkFlagRequired("end")
}

func runFinalize(ctx context.Context, out io.Writer, app *cli.App, opts finalizeOptions) error {
	if app == nil || app.FinalizeHandler == nil {
		return errors.New("negotiation is not configured")
	}

	inputs, err := loadParticipants(opts.File, opts.Rows)
	if err != nil {
		return err
	}

	result, err := app.FinalizeHandler.Handle(ctx, commands.FinalizeCommand{
		Slot:          commands.SlotInput{Start: opts.Start, End: opts.End, Timezone: opts.Timezone},
		Participants:  inputs,
		Notify:        opts.Notify,
		MeetingLink:   opts.Link,
		CustomMessage: opts.Message,
	})
	if err != nil {
		return err
	}

	view := dto.NewOutcomeDTO(result.Outcome, nil, result.Delivery)
	if opts.JSON {
		if err := writeJSON(out, view); err != nil {
			return err
		}
	} else {
		renderOutcome(out, view)
	}
	return deliveryError(result.Delivery)
}

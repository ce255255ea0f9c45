package meeting

import "github.com/spf13/cobra"

// Cmd is the meeting command group.
var Cmd = &cobra.Command{
	Use:   "meeting",
	Short: "Negotiate and confirm meeting slots",
	Long:  `Find a slot every participant can attend, confirm it, and review delivery history.`,
}

func init() {
	Cmd.AddCommand(negotiateCmd)
	Cmd.AddCommand(finalizeCmd)
	Cmd.AddCommand(historyCmd)
}

package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common negotiation workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("schedule_meeting").
		Description("Collect availability from a conversation and negotiate a meeting slot.").
		Argument("attendees", "E-mail addresses of the attendees", true).
		Argument("constraints", "Free-form scheduling constraints (optional)", false).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			attendees := args["attendees"]
			if attendees == "" {
				attendees = "[Please list the attendees]"
			}
			constraints := args["constraints"]
			if constraints == "" {
				constraints = "None"
			}

			return &mcp.PromptResult{
				Description: "Meeting Negotiation",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: fmt.Sprintf(`Help me schedule a meeting.

**Attendees:** %s
**Constraints:** %s

For each attendee, collect:
- their IANA timezone (for example Europe/Berlin) or a fixed offset such as UTC+05:30
- one or more availability windows as "YYYY-MM-DD HH:MM" wall-clock times in that timezone

The expected input shape is described by the rendezvous://input-format resource.

Then call negotiation.negotiate with require_confirmation set to true and show me
the proposed slot in every attendee's local time. When I agree, call
negotiation.finalize with that slot and notify set to true.

If the outcome is reschedule_requested, show the fallback slots and ask which
attendees can widen their availability.`, attendees, constraints),
						},
					},
				},
			}, nil
		})

	srv.Prompt("delivery_report").
		Description("Summarize which notifications of a negotiation were delivered.").
		Argument("negotiation_id", "Negotiation ID returned by negotiation.negotiate", true).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Delivery Report",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: fmt.Sprintf(`Call negotiation.history with negotiation_id %q.

List every recipient with the kind of message and whether it was sent.
For failed deliveries, quote the error and suggest whether a retry is worthwhile.`, args["negotiation_id"]),
						},
					},
				},
			}, nil
		})

	return nil
}

// Package composer provides MessageComposer implementations.
package composer

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/services"
	"github.com/felixgeelhaar/rendezvous/internal/shared/infrastructure/llm"
)

// LLMComposer writes message bodies with a language model.
type LLMComposer struct {
	generator llm.Generator
}

// NewLLMComposer creates a composer over a generator.
func NewLLMComposer(generator llm.Generator) *LLMComposer {
	return &LLMComposer{generator: generator}
}

// Compose implements services.MessageComposer.
func (c *LLMComposer) Compose(ctx context.Context, req services.MessageRequest) (string, error) {
	prompt, err := Prompt(req)
	if err != nil {
		return "", err
	}
	return c.generator.Generate(ctx, prompt)
}

// Prompt builds the generation prompt for a message request.
func Prompt(req services.MessageRequest) (string, error) {
	name := req.Recipient.DisplayName()

	switch req.Kind {
	case services.MessageConfirmation:
		if req.Slot == nil {
			return "", fmt.Errorf("confirmation for %s has no slot", req.Recipient.ID())
		}
		start, end := req.Slot.Start.UTC(), req.Slot.End.UTC()
		var b strings.Builder
		b.WriteString("Generate a short, friendly email for a meeting confirmation with the following details:\n")
		fmt.Fprintf(&b, "- Recipient name: %s\n", name)
		fmt.Fprintf(&b, "- Date: %s\n", start.Format("2006-01-02"))
		fmt.Fprintf(&b, "- Time: %s to %s UTC\n", start.Format("15:04"), end.Format("15:04"))
		fmt.Fprintf(&b, "- Meeting link: %s\n\n", req.MeetingLink)
		b.WriteString("Make it polite, professional, and natural. Avoid mentioning that it is AI-generated. End with a positive note.")
		if req.SenderName != "" {
			fmt.Fprintf(&b, " Sign it as %s.", req.SenderName)
		}
		return b.String(), nil

	case services.MessageReschedule:
		var b strings.Builder
		b.WriteString("You are a professional meeting assistant.\n\n")
		fmt.Fprintf(&b, "Write a polite reschedule email to %s, saying that no common slot was found for the meeting.\n", name)
		if len(req.FallbackSlots) > 0 {
			b.WriteString("Suggest the following time options for rescheduling:\n\n")
			for _, s := range req.FallbackSlots {
				fmt.Fprintf(&b, "- %s\n", services.FormatSlotUTC(s))
			}
			b.WriteString("\n")
		} else {
			b.WriteString("Ask them to review their availability and suggest alternate time slots.\n\n")
		}
		fmt.Fprintf(&b, "End the email kindly and professionally, signed by %s. Avoid mentioning this is AI-generated.", req.SenderName)
		return b.String(), nil
	}
	return "", fmt.Errorf("unknown message kind %q", req.Kind)
}

// TemplateComposer renders the fixed templates. It never fails.
type TemplateComposer struct{}

// Compose implements services.MessageComposer.
func (TemplateComposer) Compose(_ context.Context, req services.MessageRequest) (string, error) {
	return services.RenderTemplate(req), nil
}

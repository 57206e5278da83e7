package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// ActsMarkdown renders a turn's acts as a markdown summary for the
// simulate REPL. Production hosts render acts themselves; this is a
// developer-facing view, one bullet per act.
func ActsMarkdown(result *domain.TurnResult) string {
	if result == nil || len(result.Acts) == 0 {
		return "_no acts emitted_\n"
	}

	var b strings.Builder
	for _, act := range result.Acts {
		fmt.Fprintf(&b, "- **%s** `%s`%s\n", act.Type, act.ControlID, payloadSummary(act))
	}
	return b.String()
}

func payloadSummary(act domain.Act) string {
	switch p := act.Payload.(type) {
	case domain.ValuePayload:
		if p.Previous != nil {
			return fmt.Sprintf(": %v (was %v)", p.Value, p.Previous)
		}
		return fmt.Sprintf(": %v", p.Value)
	case domain.InvalidValuePayload:
		if p.Explanation != "" {
			return fmt.Sprintf(": %v rejected (%s: %s)", p.Value, p.Code, p.Explanation)
		}
		return fmt.Sprintf(": %v rejected (%s)", p.Value, p.Code)
	case domain.RequestValuePayload:
		return fmt.Sprintf(" (%s)", p.Action)
	case domain.ConfirmValuePayload:
		return fmt.Sprintf(": %v?", p.Value)
	case domain.SuggestValuePayload:
		return fmt.Sprintf(": did you mean %v?", p.Value)
	case domain.DisambiguatePayload:
		return fmt.Sprintf(": %s?", strings.Join(p.Targets, " or "))
	}
	return ""
}

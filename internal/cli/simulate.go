package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/domain"
)

// Simulate runs the developer REPL: one line per turn, resolved into an
// Input the way an understanding service would, with the emitted acts
// rendered back as markdown.
func Simulate(ctx context.Context, engine *arbor.Engine, conversationID string) error {
	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	render := tui.NewRenderer()

	if interactive {
		tui.PrintBanner()
		fmt.Println("Simulating conversation", conversationID)
		fmt.Println(`Grammar: launch | yes [value] | no | fallback | end | [set|change|add] [target=]value[,value...]`)
		fmt.Println()
	}

	// Open the conversation before reading any input.
	if err := runTurn(ctx, engine, conversationID, &domain.Input{Kind: domain.KindLaunch}, render, interactive); err != nil {
		return err
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Print("> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		in, err := ParseUtterance(line)
		if err != nil {
			fmt.Println("?", err)
			continue
		}
		if err := runTurn(ctx, engine, conversationID, in, render, interactive); err != nil {
			return err
		}
		if in.Kind == domain.KindSessionEnd {
			return nil
		}
	}
}

func runTurn(ctx context.Context, engine *arbor.Engine, conversationID string, in *domain.Input, render func(string) (string, error), interactive bool) error {
	result, err := engine.Turn(ctx, conversationID, in)
	if err != nil {
		return err
	}

	md := tui.ActsMarkdown(result)
	if interactive {
		if out, err := render(md); err == nil {
			fmt.Print(out)
			return nil
		}
	}
	fmt.Print(md)
	return nil
}

// ParseUtterance resolves one REPL line into an engine Input. The REPL
// stands in for the understanding service, so the grammar is positional
// and literal rather than natural language.
func ParseUtterance(line string) (*domain.Input, error) {
	fields := strings.Fields(line)
	head := strings.ToLower(fields[0])

	switch head {
	case "launch":
		return &domain.Input{Kind: domain.KindLaunch}, nil
	case "end", "bye":
		return &domain.Input{Kind: domain.KindSessionEnd}, nil
	case "fallback", "?":
		return &domain.Input{Kind: domain.KindIntent, Intent: domain.IntentFallback}, nil
	case "no", "deny":
		return &domain.Input{Kind: domain.KindIntent, Intent: domain.IntentDeny}, nil
	case "yes", "affirm":
		in := &domain.Input{Kind: domain.KindIntent, Intent: domain.IntentAffirm}
		if len(fields) > 1 {
			// "yes 6": an affirmation carrying a differing value.
			in.Slots = map[string]domain.Slot{
				domain.SlotValue: slotOf(strings.Join(fields[1:], " ")),
			}
		}
		return in, nil
	}

	// Everything else is a value utterance.
	action := ""
	rest := fields
	switch head {
	case domain.ActionSet, domain.ActionChange, domain.ActionAdd:
		action = head
		rest = fields[1:]
		if len(rest) == 0 {
			return nil, fmt.Errorf("%q needs a value", head)
		}
	}

	payload := strings.Join(rest, " ")
	slots := map[string]domain.Slot{}
	if action != "" {
		slots[domain.SlotAction] = slotOf(action)
	}

	// "target=value" addresses a specific control.
	if name, value, ok := strings.Cut(payload, "="); ok && !strings.Contains(name, " ") {
		slots[domain.SlotTarget] = slotOf(strings.TrimSpace(name))
		payload = strings.TrimSpace(value)
	}
	if payload == "" {
		return nil, fmt.Errorf("missing value in %q", line)
	}

	// Comma-separated values feed multi-value controls.
	values := []domain.ResolvedValue{}
	for _, part := range strings.Split(payload, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, domain.ResolvedValue{Raw: part, Known: true})
		}
	}
	slots[domain.SlotValue] = domain.Slot{Values: values}

	return &domain.Input{Kind: domain.KindIntent, Intent: domain.IntentValue, Slots: slots}, nil
}

func slotOf(raw string) domain.Slot {
	return domain.Slot{Values: []domain.ResolvedValue{{Raw: raw, Known: true}}}
}

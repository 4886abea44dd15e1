package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	domain "github.com/inference-gateway/toolgate/internal/domain"
	styles "github.com/inference-gateway/toolgate/internal/ui/styles"
)

// Consent modes accepted in configuration
const (
	ConsentModeTerminal   = "terminal"
	ConsentModeStandard   = "standard"
	ConsentModePermissive = "permissive"
	ConsentModeStrict     = "strict"
	ConsentModeNone       = "none"
)

// NewConsentChannel builds the channel selected by mode. Mode "none" yields
// a nil channel, so blocked plans fail with ErrConsentChannelNotWired.
func NewConsentChannel(mode string, in io.Reader, out io.Writer) (domain.ConsentChannel, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ConsentModeTerminal:
		return NewTerminalConsentChannel(in, out), nil
	case ConsentModeStandard:
		return NewStandardConsentPolicy(), nil
	case ConsentModePermissive:
		return NewPermissiveConsentPolicy(), nil
	case ConsentModeStrict:
		return NewStrictConsentPolicy(), nil
	case ConsentModeNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported consent mode: %s", mode)
	}
}

// ExplainPlan renders a plan and its risks as plain text for a consent request
func ExplainPlan(plan domain.Plan) string {
	var b strings.Builder

	fmt.Fprintf(&b, "I'm about to run %s", plan.Tool.Name)
	if plan.Tool.Server != "" {
		fmt.Fprintf(&b, " on %s", plan.Tool.Server)
	}
	b.WriteString(".\n")

	if len(plan.Parameters) > 0 {
		fmt.Fprintf(&b, "Arguments: %s\n", toJSON(plan.Parameters))
	}
	if plan.ExpectedOutcome != "" {
		fmt.Fprintf(&b, "Expected outcome: %s\n", plan.ExpectedOutcome)
	}

	b.WriteString("This action:\n")
	for _, risk := range plan.Risks {
		fmt.Fprintf(&b, "  - %s\n", risk)
	}
	return strings.TrimRight(b.String(), "\n")
}

// TerminalConsentChannel asks a human on a terminal: y approves, n rejects
// with an optional reason, m asks for changes
type TerminalConsentChannel struct {
	in    *bufio.Reader
	out   io.Writer
	theme *styles.Theme
	mu    sync.Mutex
}

// NewTerminalConsentChannel creates a channel reading answers from in
func NewTerminalConsentChannel(in io.Reader, out io.Writer) *TerminalConsentChannel {
	return &TerminalConsentChannel{
		in:    bufio.NewReader(in),
		out:   out,
		theme: styles.NewTheme(),
	}
}

// RequestConsent renders the plan and blocks until an answer is read
func (c *TerminalConsentChannel) RequestConsent(ctx context.Context, request domain.ConsentRequest) (domain.ConsentDecision, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.render(request)

	for {
		answer, err := c.ask(ctx, "Proceed? [y]es / [n]o / [m]odify: ")
		if err != nil {
			return domain.ConsentDecision{}, err
		}

		switch strings.ToLower(answer) {
		case "y", "yes":
			return domain.ConsentDecision{Approved: true}, nil
		case "n", "no":
			reason, err := c.ask(ctx, "Reason (optional): ")
			if err != nil {
				return domain.ConsentDecision{}, err
			}
			return domain.ConsentDecision{Reason: reason}, nil
		case "m", "modify":
			feedback, err := c.ask(ctx, "What should change? ")
			if err != nil {
				return domain.ConsentDecision{}, err
			}
			return domain.ConsentDecision{ModificationRequested: true, UserFeedback: feedback}, nil
		default:
			_, _ = fmt.Fprintln(c.out, c.theme.Dim.Render("Please answer y, n or m."))
		}
	}
}

func (c *TerminalConsentChannel) render(request domain.ConsentRequest) {
	var body strings.Builder
	body.WriteString(c.theme.Header.Render("Approval required"))
	body.WriteString("\n\n")
	body.WriteString(c.theme.Text.Render(request.Explanation))

	if len(request.Alternatives) > 0 {
		body.WriteString("\n\n")
		body.WriteString(c.theme.Label.Render("Alternatives"))
		for _, alternative := range request.Alternatives {
			body.WriteString("\n")
			body.WriteString(c.theme.Dim.Render("  • " + alternative))
		}
	}

	_, _ = fmt.Fprintln(c.out, c.theme.Box.Render(body.String()))
}

func (c *TerminalConsentChannel) ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrConsentChannel, err)
	}

	_, _ = fmt.Fprint(c.out, c.theme.Prompt.Render(question))

	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("%w: failed to read answer: %w", domain.ErrConsentChannel, err)
	}
	return strings.TrimSpace(line), nil
}

// StandardConsentPolicy approves blocked plans unless they may delete data
// or could not be assessed at all
type StandardConsentPolicy struct{}

// NewStandardConsentPolicy creates the standard policy
func NewStandardConsentPolicy() *StandardConsentPolicy {
	return &StandardConsentPolicy{}
}

// RequestConsent implements the policy decision
func (p *StandardConsentPolicy) RequestConsent(ctx context.Context, request domain.ConsentRequest) (domain.ConsentDecision, error) {
	if slices.Contains(request.Plan.Risks, RiskDeletesData) {
		return domain.ConsentDecision{Reason: "the standard consent policy does not allow deleting data"}, nil
	}
	if slices.Contains(request.Plan.Risks, RiskAssessmentFailed) {
		return domain.ConsentDecision{Reason: "the action could not be assessed for safety"}, nil
	}
	return domain.ConsentDecision{Approved: true}, nil
}

// PermissiveConsentPolicy approves everything. Useful for automation and
// trusted environments.
type PermissiveConsentPolicy struct{}

// NewPermissiveConsentPolicy creates the permissive policy
func NewPermissiveConsentPolicy() *PermissiveConsentPolicy {
	return &PermissiveConsentPolicy{}
}

// RequestConsent always approves
func (p *PermissiveConsentPolicy) RequestConsent(ctx context.Context, request domain.ConsentRequest) (domain.ConsentDecision, error) {
	return domain.ConsentDecision{Approved: true}, nil
}

// StrictConsentPolicy rejects every blocked plan
type StrictConsentPolicy struct{}

// NewStrictConsentPolicy creates the strict policy
func NewStrictConsentPolicy() *StrictConsentPolicy {
	return &StrictConsentPolicy{}
}

// RequestConsent always rejects
func (p *StrictConsentPolicy) RequestConsent(ctx context.Context, request domain.ConsentRequest) (domain.ConsentDecision, error) {
	return domain.ConsentDecision{Reason: "the strict consent policy does not allow risky actions"}, nil
}

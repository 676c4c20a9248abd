package orchestrator

import (
	"strings"

	"github.com/cartpilot/server/internal/agent/model"
)

// DecisionKind is the router's verdict on what the scheduler does next.
type DecisionKind int

const (
	// DecideHalt ends the scheduling loop and returns control to the caller.
	DecideHalt DecisionKind = iota
	// DecideStep executes the plan step carried in the decision.
	DecideStep
	// DecideCorrection dispatches the claimed instruction to the replanner.
	DecideCorrection
	// DecideCheckout finalises the session for the claimed instruction.
	DecideCheckout
	// DecidePersist presents the finished cart and arms the correction gate.
	DecidePersist
)

// Decision is one routing verdict.
type Decision struct {
	Kind        DecisionKind
	Step        *model.PlanStep
	Instruction string
}

var checkoutKeywords = []string{"confirm", "yes", "checkout", "proceed"}

// isCheckoutIntent matches the whole utterance against the confirmation
// keywords. A keyword buried inside a longer instruction ("yes, remove the
// groundnut") is a correction, not a checkout.
func isCheckoutIntent(instruction string) bool {
	normalized := strings.TrimSpace(strings.ToLower(instruction))
	normalized = strings.TrimSpace(strings.TrimRight(normalized, ".!?"))
	for _, kw := range checkoutKeywords {
		if normalized == kw {
			return true
		}
	}
	return false
}

// Route decides the next scheduler action from session state alone. It is
// total: every state maps to exactly one decision. The only mutation it
// performs is the correction claim protocol on the state's flags, which
// guarantees each pending instruction is dispatched at most once.
func Route(state *model.SessionState) Decision {
	if state.CheckedOut {
		return Decision{Kind: DecideHalt}
	}

	// Waiting on the user with nothing submitted yet.
	if state.AwaitingCorrection && state.PendingInstruction == "" {
		return Decision{Kind: DecideHalt}
	}

	// A fresh instruction is waiting and no dispatch holds the claim.
	if state.AwaitingCorrection && state.PendingInstruction != "" && !state.CorrectionInFlight {
		state.CorrectionInFlight = true
		instruction := state.PendingInstruction
		if isCheckoutIntent(instruction) {
			return Decision{Kind: DecideCheckout, Instruction: instruction}
		}
		return Decision{Kind: DecideCorrection, Instruction: instruction}
	}

	// A stale claim means a dispatch never ran to completion. Drop the
	// instruction rather than risk processing it twice.
	if state.CorrectionInFlight {
		state.CorrectionInFlight = false
		state.PendingInstruction = ""
		state.AwaitingCorrection = true
		return Decision{Kind: DecideHalt}
	}

	if step := state.Plan.FirstPending(); step != nil {
		return Decision{Kind: DecideStep, Step: step}
	}

	return Decision{Kind: DecidePersist}
}

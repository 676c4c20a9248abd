// Package orchestrator runs the plan/execute/replan loop for one shopping
// session: the router picks the next action, the executor runs plan steps,
// and the replanner applies post-build corrections without rebuilding the
// whole cart.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/cartpilot/server/internal/agent/model"
	"github.com/cartpilot/server/internal/agent/reason"
	"github.com/cartpilot/server/internal/agent/selector"
	"github.com/cartpilot/server/internal/agent/vendors"
	logx "github.com/cartpilot/server/pkg/logger"
)

// Orchestrator owns the scheduling loop and all step handlers. One instance
// serves many sessions; all per-session data lives in SessionState.
type Orchestrator struct {
	gateway   *vendors.Gateway
	reasoner  reason.Reasoner
	audit     model.AuditLog
	threshold float64
	extractor QuantityExtractor
}

// New builds an orchestrator. A nil extractor falls back to the default
// regex strategy; a zero threshold falls back to the selector default.
func New(gateway *vendors.Gateway, reasoner reason.Reasoner, audit model.AuditLog, threshold float64, extractor QuantityExtractor) *Orchestrator {
	if extractor == nil {
		extractor = NewQuantityExtractor()
	}
	if threshold <= 0 {
		threshold = selector.DefaultDominanceThreshold
	}
	return &Orchestrator{
		gateway:   gateway,
		reasoner:  reasoner,
		audit:     audit,
		threshold: threshold,
		extractor: extractor,
	}
}

// HandleUserMessage feeds one user utterance into the session and runs the
// loop until it halts. The first message of a session seeds the grocery list;
// once the cart has been presented, messages become correction instructions.
func (o *Orchestrator) HandleUserMessage(ctx context.Context, state *model.SessionState, input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}

	if state.AwaitingCorrection {
		state.PendingInstruction = input
	} else if state.List == nil {
		state.List = &model.GroceryList{RawInput: input}
		BuildPlan(state)
	}

	return o.Run(ctx, state)
}

// Run drives the router until it halts. Each iteration consults the router
// exactly once and dispatches exactly one action; no two actions ever run
// concurrently for the same state.
func (o *Orchestrator) Run(ctx context.Context, state *model.SessionState) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		decision := Route(state)
		switch decision.Kind {
		case DecideHalt:
			return nil
		case DecideStep:
			o.executeStep(ctx, state, decision.Step)
		case DecideCorrection:
			o.applyCorrection(ctx, state, decision.Instruction)
		case DecideCheckout:
			o.finalizeCheckout(ctx, state, decision.Instruction)
		case DecidePersist:
			o.presentCart(ctx, state)
		}
		state.LastUpdated = time.Now().UTC()
	}
}

// recordAudit appends to the audit trail best-effort. The trail is for
// replay and debugging; a write failure never fails the session action.
func (o *Orchestrator) recordAudit(ctx context.Context, state *model.SessionState, memoryType model.MemoryType, content any) {
	if o.audit == nil {
		return
	}
	if err := o.audit.Append(ctx, state.SessionID, memoryType, content); err != nil {
		logx.Warn().Err(err).
			Str("sessionID", state.SessionID).
			Str("memoryType", string(memoryType)).
			Msg("audit append failed")
	}
}

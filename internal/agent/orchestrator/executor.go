package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cartpilot/server/internal/agent/model"
	"github.com/cartpilot/server/internal/agent/selector"
	logx "github.com/cartpilot/server/pkg/logger"
)

// executeStep runs one plan step to a terminal status. The action set is
// closed; an action outside it marks the step failed instead of panicking so
// a corrupted plan degrades to a user-visible error.
func (o *Orchestrator) executeStep(ctx context.Context, state *model.SessionState, step *model.PlanStep) {
	step.Status = model.StepInProgress
	logx.Debug().Int("step", step.ID).Str("action", string(step.Action)).Msg("executing plan step")

	switch step.Action {
	case model.ActionParseList:
		o.runParseList(ctx, state, step)
	case model.ActionFetchOffers:
		o.runFetchOffers(ctx, state, step)
	case model.ActionComparePrices:
		o.runComparePrices(ctx, state, step)
	case model.ActionVendorReasoning:
		o.runVendorReasoning(ctx, state, step)
	case model.ActionValidateDecisions:
		o.runValidateDecisions(ctx, state, step)
	case model.ActionBuildCart:
		o.runBuildCart(ctx, state, step)
	case model.ActionAskConfirmation:
		step.Status = model.StepCompleted
		step.Result = "confirmation handled at presentation"
	default:
		step.Status = model.StepFailed
		step.Error = fmt.Sprintf("unknown plan action %q", step.Action)
		state.PushMessage("Something went wrong with my plan; please try again.")
		logx.Error().Int("step", step.ID).Str("action", string(step.Action)).Msg("unknown plan action")
	}
}

func (o *Orchestrator) runParseList(ctx context.Context, state *model.SessionState, step *model.PlanStep) {
	if state.List != nil && len(state.List.Items) > 0 {
		step.Status = model.StepCompleted
		step.Result = "list already parsed"
		return
	}
	if state.List == nil || strings.TrimSpace(state.List.RawInput) == "" {
		step.Status = model.StepFailed
		step.Error = "no input to parse"
		state.PushMessage("Tell me what groceries you need and I'll get started.")
		return
	}

	items, err := o.reasoner.ParseList(ctx, state.List.RawInput)
	if err != nil {
		step.Status = model.StepFailed
		step.Error = err.Error()
		state.PushMessage("I couldn't read that as a grocery list. Could you rephrase it?")
		logx.Error().Err(err).Msg("list parsing failed")
		return
	}

	state.List.Items = items
	state.List.ParsedAt = time.Now().UTC()
	step.Status = model.StepCompleted
	step.Result = fmt.Sprintf("parsed %d items", len(items))

	o.recordAudit(ctx, state, model.MemoryParsing, state.List)

	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, fmt.Sprintf("%s (%v %s)", displayName(it.Name), it.Quantity, it.Unit))
	}
	state.PushMessage("Got it, I'll price out: " + strings.Join(names, ", ") + ".")

	// The item list just changed shape, so the remaining steps are derived
	// again from it.
	BuildPlan(state)
}

func (o *Orchestrator) runFetchOffers(ctx context.Context, state *model.SessionState, step *model.PlanStep) {
	key := step.Parameters["product_name"]
	if key == "" {
		step.Status = model.StepFailed
		step.Error = "fetch step missing product_name"
		return
	}

	offers, err := o.gateway.FetchOffers(ctx, key, false)
	if err != nil {
		step.Status = model.StepFailed
		step.Error = err.Error()
		state.PushMessage(fmt.Sprintf("I couldn't find %s at any vendor right now, so it stays out of the cart.", displayName(key)))
		o.recordAudit(ctx, state, model.MemoryAPICall, map[string]any{
			"product": key, "error": err.Error(),
		})
		return
	}

	state.Offers[key] = offers
	step.Status = model.StepCompleted
	step.Result = fmt.Sprintf("%d offers", len(offers))
	o.recordAudit(ctx, state, model.MemoryAPICall, map[string]any{
		"product": key, "offers": len(offers),
	})
}

func (o *Orchestrator) runComparePrices(ctx context.Context, state *model.SessionState, step *model.PlanStep) {
	if state.List == nil {
		step.Status = model.StepFailed
		step.Error = "no parsed list to compare against"
		return
	}

	compared := 0
	for _, item := range state.List.Items {
		offers := state.Offers[item.Name]
		if len(offers) == 0 {
			continue
		}

		decision, err := selector.Select(offers, item.Quantity, item.Unit, o.threshold)
		if err != nil {
			logx.Warn().Err(err).Str("product", item.Name).Msg("no comparable offers")
			continue
		}

		explanation, confidence := o.explain(ctx, item.Name, decision, item.Quantity, item.Unit)
		state.Comparisons[item.Name] = model.Comparison{
			Decision:    decision,
			Explanation: explanation,
			Confidence:  confidence,
		}
		state.RecordDecision("price_comparison", map[string]any{
			"product":   item.Name,
			"strategy":  string(decision.Strategy),
			"rationale": string(decision.Rationale),
			"total":     decision.TotalPrice,
		})
		o.recordAudit(ctx, state, model.MemoryDecision, state.Comparisons[item.Name])
		compared++
	}

	step.Status = model.StepCompleted
	step.Result = fmt.Sprintf("compared %d products", compared)
}

// explain asks the reasoning service for user-facing text. The decision is
// already final; a failed or silly explanation degrades to template text and
// never feeds back into selection.
func (o *Orchestrator) explain(ctx context.Context, key string, decision model.SelectionDecision, qty float64, unit model.Unit) (string, float64) {
	text, confidence, err := o.reasoner.ExplainSelection(ctx, key, decision, qty, unit)
	if err != nil || text == "" {
		logx.Warn().Err(err).Str("product", key).Msg("explanation unavailable, using fallback")
		return fallbackExplanation(decision), 0
	}
	return text, confidence
}

func fallbackExplanation(d model.SelectionDecision) string {
	switch d.Rationale {
	case model.RationaleAggregationCheaper:
		return fmt.Sprintf("Buying %s at %s's per-unit rate works out cheaper than any single pack.", d.Chosen.Brand, d.Chosen.Source)
	case model.RationaleNoExactPack:
		return fmt.Sprintf("No single pack covers the full amount, so %s from %s at the best rate it is.", d.Chosen.Brand, d.Chosen.Source)
	default:
		return fmt.Sprintf("%s %v%s from %s covers the request at the best single-pack price.", d.Chosen.Brand, d.Chosen.PackSize, d.Chosen.PackUnit, d.Chosen.Source)
	}
}

func (o *Orchestrator) runVendorReasoning(ctx context.Context, state *model.SessionState, step *model.PlanStep) {
	if state.List == nil {
		step.Status = model.StepCompleted
		step.Result = "nothing to reason about"
		return
	}

	reasoned := 0
	for _, item := range state.List.Items {
		offers := state.Offers[item.Name]
		if len(offers) == 0 {
			continue
		}

		sel, err := o.reasoner.SelectVendor(ctx, item.Name, groupBySource(offers), nil)
		if err != nil {
			// Advisory only; the deterministic comparison stands on its own.
			logx.Warn().Err(err).Str("product", item.Name).Msg("vendor reasoning failed")
			continue
		}
		state.VendorChoices[item.Name] = *sel
		reasoned++
	}

	step.Status = model.StepCompleted
	step.Result = fmt.Sprintf("reasoned over %d products", reasoned)
	o.recordAudit(ctx, state, model.MemoryDecision, state.VendorChoices)
}

func (o *Orchestrator) runValidateDecisions(ctx context.Context, state *model.SessionState, step *model.PlanStep) {
	valid := map[string]bool{}
	for _, name := range o.gateway.SourceNames() {
		valid[name] = true
	}

	dropped := 0
	for key, choice := range state.VendorChoices {
		if !valid[choice.Source] {
			logx.Warn().Str("product", key).Str("vendor", choice.Source).Msg("vendor choice names unknown source, dropping")
			delete(state.VendorChoices, key)
			dropped++
		}
	}

	step.Status = model.StepCompleted
	step.Result = fmt.Sprintf("validated vendor choices, dropped %d", dropped)
	o.recordAudit(ctx, state, model.MemoryDecision, map[string]any{
		"validated": len(state.VendorChoices), "dropped": dropped,
	})
}

func (o *Orchestrator) runBuildCart(ctx context.Context, state *model.SessionState, step *model.PlanStep) {
	if len(state.Cart.Lines) > 0 {
		step.Status = model.StepCompleted
		step.Result = "cart already built"
		return
	}
	if state.List == nil {
		step.Status = model.StepFailed
		step.Error = "no parsed list to build from"
		return
	}

	for _, item := range state.List.Items {
		comp, ok := state.Comparisons[item.Name]
		if !ok {
			continue
		}
		qty, unit := model.NormalizeQuantity(item.Quantity, item.Unit)
		state.Cart.Upsert(model.CartLine{
			ProductKey: item.Name,
			Brand:      comp.Decision.Chosen.Brand,
			Vendor:     comp.Decision.Chosen.Source,
			Price:      comp.Decision.TotalPrice,
			Quantity:   qty,
			Unit:       unit,
			Rationale:  comp.Explanation,
		})
	}

	step.Status = model.StepCompleted
	step.Result = fmt.Sprintf("cart built with %d lines", len(state.Cart.Lines))
	o.recordAudit(ctx, state, model.MemoryCartState, state.Cart)
}

// presentCart shows the finished cart and arms the correction gate. From here
// on every user message routes through the correction path until checkout.
func (o *Orchestrator) presentCart(ctx context.Context, state *model.SessionState) {
	var b strings.Builder
	b.WriteString("Here's your cart:\n")
	if len(state.Cart.Lines) == 0 {
		b.WriteString("  (empty)\n")
	}
	for _, line := range state.Cart.Lines {
		fmt.Fprintf(&b, "  - %s: %s from %s, %v%s for %.2f\n",
			displayName(line.ProductKey), line.Brand, line.Vendor, line.Quantity, line.Unit, line.Price)
	}
	fmt.Fprintf(&b, "Total: %.2f\n", state.Cart.TotalPrice)
	b.WriteString("Say \"confirm\" to checkout, or tell me what to change: swap an item, remove one, add more, or ask me to re-check prices.")

	state.PushMessage(b.String())
	state.AwaitingCorrection = true
	o.recordAudit(ctx, state, model.MemoryCartState, state.Cart)
}

func groupBySource(offers []model.Offer) map[string][]model.Offer {
	bySource := make(map[string][]model.Offer)
	for _, o := range offers {
		bySource[o.Source] = append(bySource[o.Source], o)
	}
	return bySource
}

func displayName(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}

package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/cartpilot/server/internal/agent/model"
	"github.com/cartpilot/server/internal/agent/reason"
	logx "github.com/cartpilot/server/pkg/logger"
)

// applyCorrection processes one claimed instruction against the built cart.
// Whatever happens inside, the deferred resets run: the instruction is
// consumed, the correction gate re-arms, and the claim is released. A failed
// correction therefore never wedges the session and never leaves the cart
// half-changed.
func (o *Orchestrator) applyCorrection(ctx context.Context, state *model.SessionState, instruction string) {
	defer func() {
		state.PendingInstruction = ""
		state.AwaitingCorrection = true
		state.CorrectionInFlight = false
	}()

	o.recordAudit(ctx, state, model.MemoryUserFeedback, map[string]any{"input": instruction})

	refs := identifyCartRefs(instruction, state.Cart.Keys())
	logx.Info().Strs("refs", refs).Str("input", instruction).Msg("processing correction")

	cls, err := o.reasoner.ClassifyFeedback(ctx, instruction, reason.CartContext{
		Lines:        state.Cart.Lines,
		TotalPrice:   state.Cart.TotalPrice,
		UserInput:    instruction,
		ModifiedKeys: refs,
	})
	if err != nil {
		logx.Error().Err(err).Msg("feedback classification failed")
		state.PushMessage("I couldn't work out what to change. Could you rephrase that?")
		return
	}
	if cls.Response != "" {
		state.PushMessage(cls.Response)
	}

	action := cls.Action
	params := cls.Params
	params.Requirement = instruction

	if qty, unit, ok := o.extractor.Extract(instruction); ok && len(refs) > 0 {
		params.ProductKey = refs[0]
		params.NewQuantity = qty
		params.Unit = unit
	}

	if extras, raw := extractAdditions(instruction); len(extras) > 0 {
		params.AdditionalItems = extras
		if params.NewItemsInput == "" {
			params.NewItemsInput = raw
		}
	}

	// Cart references trump the classifier: a mentioned cart item always
	// means a modification, and leftover new items mean an addition. This
	// keeps routing deterministic even when classification is off.
	switch {
	case len(refs) > 0:
		action = reason.ActionModify
		if params.ProductKey == "" {
			params.ProductKey = refs[0]
		}
	case len(params.AdditionalItems) > 0:
		action = reason.ActionAdd
	}

	logx.Info().Str("action", string(action)).Str("product", params.ProductKey).Msg("routing correction")

	switch action {
	case reason.ActionModify:
		o.modifyItem(ctx, state, params)
	case reason.ActionRemove:
		o.removeItem(ctx, state, params)
	case reason.ActionAdd:
		o.addItems(ctx, state, params)
	case reason.ActionRecompare:
		o.recompareProduct(ctx, state, params)
	case reason.ActionNone:
		// Classifier response already pushed; nothing to change.
	}
}

// extractAdditions pulls comma-separated item names out of the text after an
// "add" keyword. Returns the normalised keys and the raw tail for parsing.
func extractAdditions(input string) ([]string, string) {
	lowered := strings.ToLower(input)
	idx := strings.Index(lowered, "add")
	if idx < 0 {
		return nil, ""
	}
	raw := strings.TrimSpace(input[idx+len("add"):])
	if raw == "" {
		return nil, ""
	}
	var keys []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		keys = append(keys, strings.ToLower(strings.ReplaceAll(part, " ", "_")))
	}
	return keys, raw
}

// modifyItem re-plans a single cart line: fresh offers for only that product,
// re-reasoning with the user's requirement, then an in-place update of that
// one line. Every other line is left untouched, and a failure anywhere leaves
// the whole cart exactly as it was.
func (o *Orchestrator) modifyItem(ctx context.Context, state *model.SessionState, params reason.CorrectionParams) {
	key := params.ProductKey
	if key == "" {
		state.PushMessage("Please tell me which product to change.")
		return
	}

	line := state.Cart.Line(key)
	if line == nil {
		state.PushMessage(fmt.Sprintf("'%s' isn't in your cart.", displayName(key)))
		return
	}

	offers, err := o.gateway.FetchOffers(ctx, key, true)
	if err != nil {
		logx.Warn().Err(err).Str("product", key).Msg("fresh fetch for modification failed")
		state.PushMessage(fmt.Sprintf("I couldn't find fresh options for %s, so I'm keeping your current selection.", displayName(key)))
		return
	}

	sel, err := o.reasoner.SelectVendor(ctx, key, groupBySource(offers), &reason.ModifyContext{
		ProductKey:  key,
		Requirement: params.Requirement,
		Current:     line,
	})
	if err != nil {
		logx.Error().Err(err).Str("product", key).Msg("modification reasoning failed")
		state.PushMessage("I couldn't process that change. Your cart is unchanged; please try again.")
		return
	}

	oldSelection := map[string]any{"brand": line.Brand, "vendor": line.Vendor, "price": line.Price}

	// Commit point: everything needed succeeded, apply the single-line update.
	state.Offers[key] = offers
	line.Brand = sel.Brand
	line.Vendor = sel.Source
	line.Price = sel.Price
	line.Rationale = "Modified: " + sel.Reasoning
	if params.NewQuantity > 0 {
		line.Quantity, line.Unit = model.NormalizeQuantity(params.NewQuantity, params.Unit)
	}
	state.Cart.Recalculate()

	state.PushMessage(fmt.Sprintf(
		"Updated %s: now %s (%v%s) from %s at %.2f. %s\nNew cart total: %.2f",
		displayName(key), sel.Brand, line.Quantity, line.Unit, sel.Source, sel.Price, sel.Reasoning, state.Cart.TotalPrice))

	o.recordAudit(ctx, state, model.MemoryTargetedModification, map[string]any{
		"product":       key,
		"requirement":   params.Requirement,
		"old_selection": oldSelection,
		"new_selection": map[string]any{"brand": sel.Brand, "vendor": sel.Source, "price": sel.Price},
		"reasoning":     sel.Reasoning,
		"cart_total":    state.Cart.TotalPrice,
	})
	state.RecordDecision("targeted_modification", map[string]any{"product": key})

	// An instruction can bundle a modification with brand-new items.
	if len(params.AdditionalItems) > 0 {
		pending := make([]string, 0, len(params.AdditionalItems))
		for _, extra := range params.AdditionalItems {
			if state.Cart.Line(extra) == nil {
				pending = append(pending, displayName(extra))
			}
		}
		if len(pending) > 0 {
			o.addItems(ctx, state, reason.CorrectionParams{NewItemsInput: strings.Join(pending, ", ")})
		}
	}
}

func (o *Orchestrator) removeItem(ctx context.Context, state *model.SessionState, params reason.CorrectionParams) {
	key := params.ProductKey
	if key == "" {
		state.PushMessage("Please specify which product to remove.")
		return
	}

	if !state.Cart.Remove(key) {
		state.PushMessage(fmt.Sprintf("'%s' isn't in your cart.", displayName(key)))
		return
	}

	state.PushMessage(fmt.Sprintf("Removed %s from your cart. New total: %.2f", displayName(key), state.Cart.TotalPrice))
	o.recordAudit(ctx, state, model.MemoryRemoval, map[string]any{
		"product":         key,
		"cart_total":      state.Cart.TotalPrice,
		"items_remaining": len(state.Cart.Lines),
	})
}

// addItems parses the new-item text and adds each product not already in the
// cart. Each product either fully joins the cart or is skipped with a notice;
// existing lines are never touched.
func (o *Orchestrator) addItems(ctx context.Context, state *model.SessionState, params reason.CorrectionParams) {
	input := params.NewItemsInput
	if input == "" && len(params.AdditionalItems) > 0 {
		names := make([]string, 0, len(params.AdditionalItems))
		for _, k := range params.AdditionalItems {
			names = append(names, displayName(k))
		}
		input = strings.Join(names, ", ")
	}
	if input == "" {
		state.PushMessage("Please specify which items to add.")
		return
	}

	items, err := o.reasoner.ParseList(ctx, input)
	if err != nil {
		logx.Error().Err(err).Str("input", input).Msg("parsing new items failed")
		state.PushMessage("I couldn't parse the new items. Try something like '1kg sugar, 500g tea'.")
		return
	}

	added := 0
	requested := make([]string, 0, len(items))
	for _, item := range items {
		requested = append(requested, item.Name)

		if state.Cart.Line(item.Name) != nil {
			state.PushMessage(fmt.Sprintf("%s is already in your cart, skipping it.", displayName(item.Name)))
			continue
		}

		offers, err := o.gateway.FetchOffers(ctx, item.Name, false)
		if err != nil {
			state.PushMessage(fmt.Sprintf("I couldn't find %s at any vendor.", displayName(item.Name)))
			continue
		}
		state.Offers[item.Name] = offers

		sel, err := o.reasoner.SelectVendor(ctx, item.Name, groupBySource(offers), nil)
		if err != nil {
			logx.Warn().Err(err).Str("product", item.Name).Msg("vendor reasoning for new item failed")
			continue
		}

		qty, unit := model.NormalizeQuantity(item.Quantity, item.Unit)
		state.Cart.Upsert(model.CartLine{
			ProductKey: item.Name,
			Brand:      sel.Brand,
			Vendor:     sel.Source,
			Price:      sel.Price,
			Quantity:   qty,
			Unit:       unit,
			Rationale:  "Added by user: " + sel.Reasoning,
		})
		added++
	}

	if added > 0 {
		state.PushMessage(fmt.Sprintf("Added %d new item(s). Updated cart total: %.2f", added, state.Cart.TotalPrice))
	} else {
		state.PushMessage("I couldn't add any new items. Please try different products.")
	}

	o.recordAudit(ctx, state, model.MemoryItemAddition, map[string]any{
		"items_added": added,
		"requested":   requested,
		"cart_total":  state.Cart.TotalPrice,
		"cart_items":  len(state.Cart.Lines),
	})
}

// recompareProduct re-runs vendor reasoning over the already-fetched offers
// for one product and reports the outcome. It is strictly read-only on the
// cart and never refetches.
func (o *Orchestrator) recompareProduct(ctx context.Context, state *model.SessionState, params reason.CorrectionParams) {
	key := params.ProductKey
	if key == "" {
		state.PushMessage("Please specify which product to recompare.")
		return
	}

	offers := state.Offers[key]
	if len(offers) == 0 {
		state.PushMessage(fmt.Sprintf("I don't have saved options for %s.", displayName(key)))
		return
	}

	sel, err := o.reasoner.SelectVendor(ctx, key, groupBySource(offers), nil)
	if err != nil {
		logx.Error().Err(err).Str("product", key).Msg("recomparison reasoning failed")
		state.PushMessage("I couldn't generate a detailed comparison right now.")
		return
	}

	state.PushMessage(fmt.Sprintf(
		"Comparison for %s:\n%s\nBest value: %s %v%s from %s at %.2f (confidence %.0f%%)",
		displayName(key), sel.Reasoning, sel.Brand, sel.PackSize, sel.PackUnit, sel.Source, sel.Price, sel.Confidence*100))

	o.recordAudit(ctx, state, model.MemoryRecomparison, map[string]any{
		"product":  key,
		"question": params.Question,
		"vendor":   sel.Source,
		"price":    sel.Price,
	})
}

// finalizeCheckout closes the session for a confirmation instruction. An
// empty cart bounces back to the correction gate instead of checking out.
func (o *Orchestrator) finalizeCheckout(ctx context.Context, state *model.SessionState, instruction string) {
	state.PendingInstruction = ""
	state.CorrectionInFlight = false

	if len(state.Cart.Lines) == 0 {
		state.AwaitingCorrection = true
		state.PushMessage("Your cart is empty. Add some items before checking out.")
		return
	}

	var b strings.Builder
	b.WriteString("Order confirmed!\n")
	for _, line := range state.Cart.Lines {
		fmt.Fprintf(&b, "  - %s: %s from %s, %.2f\n", displayName(line.ProductKey), line.Brand, line.Vendor, line.Price)
	}
	fmt.Fprintf(&b, "Items: %d\nTotal: %.2f\nThanks for shopping!", len(state.Cart.Lines), state.Cart.TotalPrice)
	state.PushMessage(b.String())

	state.AwaitingCorrection = false
	state.CheckedOut = true

	o.recordAudit(ctx, state, model.MemoryCheckout, map[string]any{
		"instruction": instruction,
		"items":       len(state.Cart.Lines),
		"total":       state.Cart.TotalPrice,
	})
	logx.Info().Str("sessionID", state.SessionID).Float64("total", state.Cart.TotalPrice).Msg("checkout complete")
}

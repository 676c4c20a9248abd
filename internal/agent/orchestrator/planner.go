package orchestrator

import (
	"github.com/google/uuid"

	"github.com/cartpilot/server/internal/agent/model"
)

// BuildPlan derives the fixed-order execution plan from the session's parsed
// list. Without parsed items the plan is a single parse step; with items it is
// the full fetch/compare/reason/validate/build sequence. The confirmation step
// is created already completed: presenting the cart is owned by the persist
// path, not by step execution. An existing plan whose build step completed is
// never rebuilt.
func BuildPlan(state *model.SessionState) *model.Plan {
	if state.Plan != nil && state.Plan.BuildCompleted() {
		return state.Plan
	}

	goal := ""
	if state.List != nil {
		goal = state.List.RawInput
	}

	plan := &model.Plan{
		PlanID:    uuid.NewString(),
		SessionID: state.SessionID,
		Goal:      goal,
	}

	id := 0
	next := func(action model.StepAction, params map[string]string, status model.StepStatus) {
		id++
		plan.Steps = append(plan.Steps, model.PlanStep{
			ID:         id,
			Action:     action,
			Parameters: params,
			Status:     status,
		})
	}

	if state.List == nil || len(state.List.Items) == 0 {
		next(model.ActionParseList, nil, model.StepPending)
		state.Plan = plan
		return plan
	}

	for _, item := range state.List.Items {
		next(model.ActionFetchOffers, map[string]string{"product_name": item.Name}, model.StepPending)
	}
	next(model.ActionComparePrices, nil, model.StepPending)
	next(model.ActionVendorReasoning, nil, model.StepPending)
	next(model.ActionValidateDecisions, nil, model.StepPending)
	next(model.ActionBuildCart, nil, model.StepPending)
	next(model.ActionAskConfirmation, nil, model.StepCompleted)

	state.Plan = plan
	return plan
}

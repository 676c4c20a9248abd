package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartpilot/server/internal/agent/model"
)

func stateWithPlan(steps ...model.PlanStep) *model.SessionState {
	state := model.NewSessionState("s1")
	state.Plan = &model.Plan{PlanID: "p1", SessionID: "s1", Steps: steps}
	return state
}

func TestRouteHaltsWhenAwaitingWithoutInstruction(t *testing.T) {
	state := model.NewSessionState("s1")
	state.AwaitingCorrection = true

	d := Route(state)
	assert.Equal(t, DecideHalt, d.Kind)
	assert.False(t, state.CorrectionInFlight)
}

func TestRouteClaimsInstructionForCorrection(t *testing.T) {
	state := model.NewSessionState("s1")
	state.AwaitingCorrection = true
	state.PendingInstruction = "swap the rice for organic"

	d := Route(state)
	assert.Equal(t, DecideCorrection, d.Kind)
	assert.Equal(t, "swap the rice for organic", d.Instruction)
	assert.True(t, state.CorrectionInFlight)
	// The instruction stays pending until the dispatch consumes it.
	assert.Equal(t, "swap the rice for organic", state.PendingInstruction)
}

func TestRouteClaimsInstructionForCheckout(t *testing.T) {
	for _, input := range []string{"confirm", "Yes", "CHECKOUT", " proceed ", "yes!", "Confirm."} {
		state := model.NewSessionState("s1")
		state.AwaitingCorrection = true
		state.PendingInstruction = input

		d := Route(state)
		assert.Equal(t, DecideCheckout, d.Kind, input)
		assert.True(t, state.CorrectionInFlight)
	}
}

func TestRouteKeywordInsideInstructionIsNotCheckout(t *testing.T) {
	for _, input := range []string{
		"yes, remove the groundnut",
		"can you confirm the rice price?",
		"yes please",
		"please proceed with cheaper rice",
		"checkout the bigbasket offer first",
	} {
		state := model.NewSessionState("s1")
		state.AwaitingCorrection = true
		state.PendingInstruction = input

		d := Route(state)
		assert.Equal(t, DecideCorrection, d.Kind, input)
		assert.Equal(t, input, d.Instruction)
	}
}

func TestRouteNeverDispatchesSameInstructionTwice(t *testing.T) {
	state := model.NewSessionState("s1")
	state.AwaitingCorrection = true
	state.PendingInstruction = "swap the rice"

	first := Route(state)
	require.Equal(t, DecideCorrection, first.Kind)

	// The dispatch never completed its resets; the router must discard the
	// instruction instead of handing it out again.
	second := Route(state)
	assert.Equal(t, DecideHalt, second.Kind)
	assert.Empty(t, state.PendingInstruction)
	assert.False(t, state.CorrectionInFlight)
	assert.True(t, state.AwaitingCorrection)

	third := Route(state)
	assert.Equal(t, DecideHalt, third.Kind)
}

func TestRouteRunsFirstPendingStep(t *testing.T) {
	state := stateWithPlan(
		model.PlanStep{ID: 1, Action: model.ActionFetchOffers, Status: model.StepCompleted},
		model.PlanStep{ID: 2, Action: model.ActionComparePrices, Status: model.StepPending},
		model.PlanStep{ID: 3, Action: model.ActionBuildCart, Status: model.StepPending},
	)

	d := Route(state)
	require.Equal(t, DecideStep, d.Kind)
	assert.Equal(t, 2, d.Step.ID)
}

func TestRoutePersistsWhenNoStepsRemain(t *testing.T) {
	state := stateWithPlan(
		model.PlanStep{ID: 1, Action: model.ActionBuildCart, Status: model.StepCompleted},
	)

	d := Route(state)
	assert.Equal(t, DecidePersist, d.Kind)
}

func TestRouteHaltsAfterCheckout(t *testing.T) {
	state := model.NewSessionState("s1")
	state.CheckedOut = true
	state.AwaitingCorrection = true
	state.PendingInstruction = "add more rice"

	d := Route(state)
	assert.Equal(t, DecideHalt, d.Kind)
	assert.False(t, state.CorrectionInFlight)
}

func TestRouteInstructionTakesPriorityOverPendingSteps(t *testing.T) {
	state := stateWithPlan(
		model.PlanStep{ID: 1, Action: model.ActionComparePrices, Status: model.StepPending},
	)
	state.AwaitingCorrection = true
	state.PendingInstruction = "remove the rice"

	d := Route(state)
	assert.Equal(t, DecideCorrection, d.Kind)
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(key, brand, vendor string, price, qty float64) CartLine {
	return CartLine{
		ProductKey: key,
		Brand:      brand,
		Vendor:     vendor,
		Price:      price,
		Quantity:   qty,
		Unit:       UnitKilogram,
	}
}

func TestCartUpsertInsertsAndRecomputesTotals(t *testing.T) {
	cart := NewCart("s1")

	cart.Upsert(line("basmati_rice", "Daawat", "zepto", 450, 5))
	cart.Upsert(line("groundnut", "Nutraj", "zepto", 360, 1))

	require.Len(t, cart.Lines, 2)
	assert.InDelta(t, 810, cart.TotalPrice, 1e-9)
	assert.InDelta(t, 6, cart.TotalQuantity, 1e-9)
}

func TestCartUpsertOverwritesExistingKeyInPlace(t *testing.T) {
	cart := NewCart("s1")
	cart.Upsert(line("basmati_rice", "Daawat", "zepto", 450, 5))
	cart.Upsert(line("groundnut", "Nutraj", "zepto", 360, 1))

	cart.Upsert(line("basmati_rice", "BB Royal Organic", "bigbasket", 520, 5))

	require.Len(t, cart.Lines, 2)
	// Position is preserved on overwrite.
	assert.Equal(t, "basmati_rice", cart.Lines[0].ProductKey)
	assert.Equal(t, "BB Royal Organic", cart.Lines[0].Brand)
	assert.Equal(t, "bigbasket", cart.Lines[0].Vendor)
	assert.InDelta(t, 880, cart.TotalPrice, 1e-9)
}

func TestCartRemove(t *testing.T) {
	cart := NewCart("s1")
	cart.Upsert(line("basmati_rice", "Daawat", "zepto", 450, 5))
	cart.Upsert(line("groundnut", "Nutraj", "zepto", 360, 1))

	assert.True(t, cart.Remove("groundnut"))
	assert.False(t, cart.Remove("groundnut"))

	require.Len(t, cart.Lines, 1)
	assert.InDelta(t, 450, cart.TotalPrice, 1e-9)
	assert.InDelta(t, 5, cart.TotalQuantity, 1e-9)
}

func TestCartLineLookupByKeyAndRecalculate(t *testing.T) {
	cart := NewCart("s1")
	cart.Upsert(line("toor_dal", "Tata Sampann", "zepto", 185, 1))

	got := cart.Line("toor_dal")
	require.NotNil(t, got)

	got.Price = 200
	cart.Recalculate()
	assert.InDelta(t, 200, cart.TotalPrice, 1e-9)

	assert.Nil(t, cart.Line("missing"))
}

func TestCartKeysInOrder(t *testing.T) {
	cart := NewCart("s1")
	cart.Upsert(line("basmati_rice", "Daawat", "zepto", 450, 5))
	cart.Upsert(line("groundnut", "Nutraj", "zepto", 360, 1))
	cart.Upsert(line("sugar", "Madhur", "zepto", 52, 1))

	assert.Equal(t, []string{"basmati_rice", "groundnut", "sugar"}, cart.Keys())
}

func TestNormalizeQuantity(t *testing.T) {
	qty, unit := NormalizeQuantity(500, UnitGram)
	assert.InDelta(t, 0.5, qty, 1e-9)
	assert.Equal(t, UnitKilogram, unit)

	qty, unit = NormalizeQuantity(860, UnitMillilitre)
	assert.InDelta(t, 0.86, qty, 1e-9)
	assert.Equal(t, UnitLitre, unit)

	qty, unit = NormalizeQuantity(2, UnitKilogram)
	assert.InDelta(t, 2, qty, 1e-9)
	assert.Equal(t, UnitKilogram, unit)

	qty, unit = NormalizeQuantity(3, UnitCount)
	assert.InDelta(t, 3, qty, 1e-9)
	assert.Equal(t, UnitCount, unit)
}

func TestPlanHelpers(t *testing.T) {
	plan := &Plan{
		Steps: []PlanStep{
			{ID: 1, Action: ActionFetchOffers, Status: StepCompleted},
			{ID: 2, Action: ActionFetchOffers, Status: StepFailed},
			{ID: 3, Action: ActionComparePrices, Status: StepPending},
			{ID: 4, Action: ActionBuildCart, Status: StepPending},
			{ID: 5, Action: ActionAskConfirmation, Status: StepCompleted},
		},
	}

	first := plan.FirstPending()
	require.NotNil(t, first)
	assert.Equal(t, 3, first.ID)

	assert.Len(t, plan.StepsByAction(ActionFetchOffers), 2)
	assert.False(t, plan.BuildCompleted())

	plan.StepByAction(ActionBuildCart).Status = StepCompleted
	assert.True(t, plan.BuildCompleted())

	var nilPlan *Plan
	assert.Nil(t, nilPlan.FirstPending())
	assert.Nil(t, nilPlan.StepByAction(ActionBuildCart))
}

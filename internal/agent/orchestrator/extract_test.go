package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cartpilot/server/internal/agent/model"
)

func TestQuantityExtractor(t *testing.T) {
	ex := NewQuantityExtractor()

	tests := []struct {
		input   string
		wantQty float64
		wantOK  bool
	}{
		{"make it 2kg", 2, true},
		{"I need 1.5 kg this time", 1.5, true},
		{"change to 500g", 0.5, true},
		{"500 g please", 0.5, true},
		{"0.5kg groundnut", 0.5, true},
		{"no quantity here", 0, false},
		{"also add 2L milk", 0, false},
	}

	for _, tc := range tests {
		qty, unit, ok := ex.Extract(tc.input)
		assert.Equal(t, tc.wantOK, ok, tc.input)
		if tc.wantOK {
			assert.InDelta(t, tc.wantQty, qty, 1e-9, tc.input)
			assert.Equal(t, model.UnitKilogram, unit, tc.input)
		}
	}
}

func TestIdentifyCartRefsFullPhrase(t *testing.T) {
	keys := []string{"basmati_rice", "fabric_conditioner", "groundnut"}

	refs := identifyCartRefs("I want organic basmati rice instead", keys)
	assert.Equal(t, []string{"basmati_rice"}, refs)
}

func TestIdentifyCartRefsNoFalseMatchForNewItems(t *testing.T) {
	keys := []string{"basmati_rice", "fabric_conditioner", "groundnut"}

	refs := identifyCartRefs("also add 2L milk", keys)
	assert.Empty(t, refs)
}

func TestIdentifyCartRefsMajorityWordMatch(t *testing.T) {
	keys := []string{"basmati_rice"}

	// One of two words suffices for a two-word key.
	assert.Equal(t, []string{"basmati_rice"}, identifyCartRefs("can you find cheaper rice?", keys))
	assert.Equal(t, []string{"basmati_rice"}, identifyCartRefs("the basmati looks expensive", keys))
}

func TestIdentifyCartRefsSingleWordKey(t *testing.T) {
	keys := []string{"groundnut", "sugar"}

	assert.Equal(t, []string{"groundnut"}, identifyCartRefs("swap the groundnut for a bigger pack", keys))
	assert.Empty(t, identifyCartRefs("everything looks fine", keys))
}

func TestIdentifyCartRefsOnlyReportsCartResidentKeys(t *testing.T) {
	refs := identifyCartRefs("add milk and remove the rice", []string{"groundnut"})
	assert.Empty(t, refs)
}

func TestIdentifyCartRefsPreservesCartOrder(t *testing.T) {
	keys := []string{"sugar", "groundnut"}

	refs := identifyCartRefs("less groundnut, more sugar", keys)
	assert.Equal(t, []string{"sugar", "groundnut"}, refs)
}

func TestExtractAdditions(t *testing.T) {
	keys, raw := extractAdditions("also add 1kg sugar, 500g tea")
	assert.Equal(t, []string{"1kg_sugar", "500g_tea"}, keys)
	assert.Equal(t, "1kg sugar, 500g tea", raw)

	keys, raw = extractAdditions("remove the rice")
	assert.Nil(t, keys)
	assert.Empty(t, raw)

	keys, _ = extractAdditions("add")
	assert.Nil(t, keys)
}

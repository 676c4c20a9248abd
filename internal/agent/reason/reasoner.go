// Package reason is the boundary to the external reasoning service. The core
// treats its outputs as opaque, possibly-absent recommendations; deterministic
// local logic always has the final word.
package reason

import (
	"context"

	"github.com/cartpilot/server/internal/agent/model"
)

// CorrectionAction is the classified intent of a post-build user instruction.
// The set is closed and matched exhaustively by the replanner.
type CorrectionAction string

const (
	ActionModify    CorrectionAction = "modify_item"
	ActionRemove    CorrectionAction = "remove_item"
	ActionAdd       CorrectionAction = "add_item"
	ActionRecompare CorrectionAction = "recompare"
	ActionNone      CorrectionAction = "none"
)

// ParseCorrectionAction maps a raw classifier string onto the closed action
// set, falling back to none for anything unrecognised.
func ParseCorrectionAction(s string) CorrectionAction {
	switch CorrectionAction(s) {
	case ActionModify, ActionRemove, ActionAdd, ActionRecompare:
		return CorrectionAction(s)
	default:
		return ActionNone
	}
}

// CorrectionParams are the parameters extracted for a classified action.
// Local deterministic extraction may augment or override them.
type CorrectionParams struct {
	ProductKey      string
	NewQuantity     float64
	Unit            model.Unit
	AdditionalItems []string
	NewItemsInput   string
	Question        string
	Requirement     string
}

// Classification is the classifier's verdict on one user instruction.
type Classification struct {
	Action   CorrectionAction
	Response string
	Params   CorrectionParams
}

// CartContext is the cart snapshot handed to the classifier for grounding.
type CartContext struct {
	Lines        []model.CartLine
	TotalPrice   float64
	UserInput    string
	ModifiedKeys []string
}

// ModifyContext carries the user's requirement when re-reasoning a single
// product during a targeted modification.
type ModifyContext struct {
	ProductKey  string
	Requirement string
	Current     *model.CartLine
}

// Classifier turns a free-text instruction into a classified action.
type Classifier interface {
	ClassifyFeedback(ctx context.Context, utterance string, cart CartContext) (*Classification, error)
}

// ListParser turns a natural-language grocery list into requested items.
type ListParser interface {
	ParseList(ctx context.Context, input string) ([]model.RequestedItem, error)
}

// VendorReasoner picks a vendor and variant among per-source offers.
type VendorReasoner interface {
	SelectVendor(ctx context.Context, productKey string, bySource map[string][]model.Offer, modCtx *ModifyContext) (*model.VendorSelection, error)
}

// Explainer produces user-facing text for a deterministic selection. It must
// never alter the decision it explains.
type Explainer interface {
	ExplainSelection(ctx context.Context, productKey string, decision model.SelectionDecision, quantity float64, unit model.Unit) (string, float64, error)
}

// Reasoner is the full reasoning-service surface the orchestrator depends on.
type Reasoner interface {
	Classifier
	ListParser
	VendorReasoner
	Explainer
}

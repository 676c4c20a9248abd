package model

// StepAction identifies one kind of plan step. The set is closed: the
// executor matches it exhaustively and treats anything else as a
// plan-integrity failure.
type StepAction string

const (
	ActionParseList         StepAction = "parse_list"
	ActionFetchOffers       StepAction = "fetch_offers"
	ActionComparePrices     StepAction = "compare_prices"
	ActionVendorReasoning   StepAction = "vendor_reasoning"
	ActionValidateDecisions StepAction = "validate_decisions"
	ActionBuildCart         StepAction = "build_cart"
	ActionAskConfirmation   StepAction = "ask_confirmation"
)

// StepStatus is the lifecycle state of a plan step.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
)

// PlanStep is one unit of work in the ordered execution plan. Steps are
// mutated in place by whichever component executes them, never reordered.
type PlanStep struct {
	ID         int               `json:"id"`
	Action     StepAction        `json:"action"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Status     StepStatus        `json:"status"`
	Result     string            `json:"result,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Plan is the ordered step sequence for one session turn.
type Plan struct {
	PlanID    string     `json:"plan_id"`
	SessionID string     `json:"session_id"`
	Goal      string     `json:"goal"`
	Steps     []PlanStep `json:"steps"`
}

// FirstPending returns the first step still pending, in plan order, or nil.
func (p *Plan) FirstPending() *PlanStep {
	if p == nil {
		return nil
	}
	for i := range p.Steps {
		if p.Steps[i].Status == StepPending {
			return &p.Steps[i]
		}
	}
	return nil
}

// StepByAction returns the first step with the given action, or nil.
func (p *Plan) StepByAction(action StepAction) *PlanStep {
	if p == nil {
		return nil
	}
	for i := range p.Steps {
		if p.Steps[i].Action == action {
			return &p.Steps[i]
		}
	}
	return nil
}

// StepsByAction returns every step with the given action, in plan order.
func (p *Plan) StepsByAction(action StepAction) []*PlanStep {
	if p == nil {
		return nil
	}
	var out []*PlanStep
	for i := range p.Steps {
		if p.Steps[i].Action == action {
			out = append(out, &p.Steps[i])
		}
	}
	return out
}

// BuildCompleted reports whether the build-cart step has completed. A plan is
// never rebuilt once this is true; all later changes route through the
// correction path.
func (p *Plan) BuildCompleted() bool {
	step := p.StepByAction(ActionBuildCart)
	return step != nil && step.Status == StepCompleted
}

package model

// Strategy names how a requested quantity is covered by offers.
type Strategy string

const (
	// StrategyExactPack buys one pack at least as large as the request.
	StrategyExactPack Strategy = "exact_pack"
	// StrategyAggregated covers the request at the best per-unit rate.
	StrategyAggregated Strategy = "aggregation"
)

// RationaleCode explains why a selection strategy won.
type RationaleCode string

const (
	RationaleExactPackPreferred RationaleCode = "exact_pack_preferred"
	RationaleAggregationCheaper RationaleCode = "aggregation_cheaper"
	RationaleNoExactPack        RationaleCode = "no_exact_pack"
)

// SelectionDecision is the deterministic outcome of comparing offers for a
// requested quantity. It carries no mutable state.
type SelectionDecision struct {
	Strategy   Strategy      `json:"strategy"`
	Chosen     Offer         `json:"chosen_offer"`
	TotalPrice float64       `json:"total_price"`
	Rationale  RationaleCode `json:"rationale_code"`
}

// Comparison pairs a deterministic selection with the explanatory text the
// reasoning service produced for it. The explainer never alters the decision.
type Comparison struct {
	Decision    SelectionDecision `json:"decision"`
	Explanation string            `json:"explanation"`
	Confidence  float64           `json:"confidence"`
}

// VendorSelection is the reasoning service's pick among per-source offers.
type VendorSelection struct {
	Source     string  `json:"selected_vendor"`
	Brand      string  `json:"brand"`
	PackSize   float64 `json:"pack_size"`
	PackUnit   Unit    `json:"pack_unit"`
	Price      float64 `json:"price"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

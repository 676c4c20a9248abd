package model

import "time"

// RequestedItem is one parsed entry of the user's grocery list. Immutable
// after creation except through a full re-parse.
type RequestedItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     Unit    `json:"unit"`
}

// GroceryList is the structured list produced from one user utterance.
type GroceryList struct {
	RawInput string          `json:"raw_input"`
	Items    []RequestedItem `json:"items"`
	ParsedAt time.Time       `json:"parsed_at"`
}

// DecisionRecord captures one decision made during the session, kept for
// display and audit only.
type DecisionRecord struct {
	Kind      string         `json:"kind"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// SessionState aggregates everything one conversation owns. It is created
// once per conversation and threaded through the scheduler; every dispatched
// action receives it, mutates it, and hands it back before the router is
// consulted again. The correction flags below are the scheduler's only
// concurrency mechanism: the router never runs two actions at once.
type SessionState struct {
	SessionID string       `json:"session_id"`
	List      *GroceryList `json:"grocery_list,omitempty"`
	// Offers caches the last aggregated offers per product key. A targeted
	// modification always refetches and replaces its product's slot.
	Offers        map[string][]Offer         `json:"offers"`
	Plan          *Plan                      `json:"plan,omitempty"`
	Cart          *Cart                      `json:"cart"`
	Comparisons   map[string]Comparison      `json:"comparisons"`
	VendorChoices map[string]VendorSelection `json:"vendor_choices"`
	Decisions     []DecisionRecord           `json:"decisions"`
	// Messages is the session-scoped log shown to the user. It is append
	// only; nothing ever rewrites an earlier entry.
	Messages []string `json:"messages"`

	// AwaitingCorrection is armed once the cart has been presented; the
	// router halts on it until an instruction arrives.
	AwaitingCorrection bool `json:"awaiting_correction"`
	// PendingInstruction holds the user's free-text instruction until the
	// router claims it.
	PendingInstruction string `json:"pending_instruction,omitempty"`
	// CorrectionInFlight is the exclusive claim flag: set when the router
	// dispatches an instruction, cleared when the router re-enters. It
	// guarantees each instruction is processed exactly once.
	CorrectionInFlight bool `json:"correction_in_flight"`

	CheckedOut  bool      `json:"checked_out"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// NewSessionState creates the state for a fresh conversation.
func NewSessionState(sessionID string) *SessionState {
	now := time.Now().UTC()
	return &SessionState{
		SessionID:     sessionID,
		Offers:        map[string][]Offer{},
		Cart:          NewCart(sessionID),
		Comparisons:   map[string]Comparison{},
		VendorChoices: map[string]VendorSelection{},
		Decisions:     []DecisionRecord{},
		Messages:      []string{},
		CreatedAt:     now,
		LastUpdated:   now,
	}
}

// PushMessage appends a user-facing message to the session log.
func (s *SessionState) PushMessage(msg string) {
	s.Messages = append(s.Messages, msg)
	s.LastUpdated = time.Now().UTC()
}

// RecordDecision appends a decision record.
func (s *SessionState) RecordDecision(kind string, payload map[string]any) {
	s.Decisions = append(s.Decisions, DecisionRecord{
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}

// RequestedItem returns the requested item matching a product key, or nil.
func (s *SessionState) RequestedItem(productKey string) *RequestedItem {
	if s.List == nil {
		return nil
	}
	for i := range s.List.Items {
		if s.List.Items[i].Name == productKey {
			return &s.List.Items[i]
		}
	}
	return nil
}

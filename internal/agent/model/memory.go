package model

import (
	"context"
	"time"
)

// MemoryType tags one audit snapshot by what produced it.
type MemoryType string

const (
	MemoryParsing              MemoryType = "parsing"
	MemoryAPICall              MemoryType = "api_call"
	MemoryDecision             MemoryType = "decision"
	MemoryUserFeedback         MemoryType = "user_feedback"
	MemoryCartState            MemoryType = "cart_state"
	MemoryCheckout             MemoryType = "checkout"
	MemoryRemoval              MemoryType = "removal"
	MemoryItemAddition         MemoryType = "item_addition"
	MemoryRecomparison         MemoryType = "recomparison"
	MemoryTargetedModification MemoryType = "targeted_modification"
)

// MemoryEntry is one append-only audit snapshot.
type MemoryEntry struct {
	SessionID string     `json:"session_id"`
	Type      MemoryType `json:"memory_type"`
	Content   any        `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
}

// AuditLog is the write-only audit trail. Entries are appended per session
// and never read back by the core at runtime; the trail exists for replay and
// debugging, not recovery.
type AuditLog interface {
	Append(ctx context.Context, sessionID string, memoryType MemoryType, content any) error
}

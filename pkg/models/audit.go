package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Audit event types.
const (
	AuditEventProviderMerged = "provider.merged"
)

// AuditEntry is an append-only history row attached to a provider.
// Entries are never mutated or deleted.
type AuditEntry struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	ProviderID  uuid.UUID       `db:"provider_id" json:"provider_id"`
	EventType   string          `db:"event_type" json:"event_type"`
	Description string          `db:"description" json:"description"`
	OldValue    json.RawMessage `db:"old_value" json:"old_value,omitempty"`
	NewValue    json.RawMessage `db:"new_value" json:"new_value,omitempty"`
	Actor       string          `db:"actor" json:"actor"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

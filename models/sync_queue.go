package models

import "encoding/json"

// EntityType names one of the four replicated entity kinds.
type EntityType string

const (
	EntityInspection  EntityType = "inspection"
	EntityPhoto       EntityType = "photo"
	EntityMeasurement EntityType = "measurement"
	EntityDamage      EntityType = "damage"
)

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	switch t {
	case EntityInspection, EntityPhoto, EntityMeasurement, EntityDamage:
		return true
	}
	return false
}

// QueueAction is the mutation kind carried by a queue item.
type QueueAction string

const (
	ActionCreate QueueAction = "create"
	ActionUpdate QueueAction = "update"
	ActionDelete QueueAction = "delete"
)

// QueueStatus is the delivery state of a queue item.
type QueueStatus string

const (
	QueueStatusPending    QueueStatus = "pending"
	QueueStatusProcessing QueueStatus = "processing"
	QueueStatusCompleted  QueueStatus = "completed"
	QueueStatusFailed     QueueStatus = "failed"
)

// Drain priorities, lower is more urgent. Photo evidence is the most valuable
// and time-sensitive payload, deletions the least.
const (
	PriorityPhoto       = 1
	PriorityMeasurement = 2
	PriorityInspection  = 3
	PriorityDamage      = 3
	PriorityDelete      = 4
)

// DefaultMaxRetries is the retry ceiling assigned to new queue items.
const DefaultMaxRetries = 3

// PriorityFor returns the drain priority for a mutation of the given kind.
func PriorityFor(entityType EntityType, action QueueAction) int {
	if action == ActionDelete {
		return PriorityDelete
	}
	switch entityType {
	case EntityPhoto:
		return PriorityPhoto
	case EntityMeasurement:
		return PriorityMeasurement
	case EntityDamage:
		return PriorityDamage
	default:
		return PriorityInspection
	}
}

// SyncQueueItem is one pending outbound mutation. Payload is a snapshot of
// the entity at mutation time, decoupled from later local edits; for deletes
// it carries only the entity identifier. SnapshotHash is the content digest
// the remote side reports back for divergence detection.
type SyncQueueItem struct {
	ID           string          `json:"id"`
	EntityType   EntityType      `json:"entity_type"`
	Action       QueueAction     `json:"action"`
	EntityID     string          `json:"entity_id"`
	Payload      json.RawMessage `json:"payload"`
	SnapshotHash string          `json:"snapshot_hash"`
	Priority     int             `json:"priority"`
	Status       QueueStatus     `json:"status"`
	RetryCount   int             `json:"retry_count"`
	MaxRetries   int             `json:"max_retries"`
	LastError    *string         `json:"last_error,omitempty"`
	DeviceID     string          `json:"device_id"`
	CreatedAt    int64           `json:"created_at"`
	ProcessedAt  *int64          `json:"processed_at,omitempty"`
}

// Exhausted reports whether the item has consumed its retry budget and must
// stay failed until an operator resends or discards it.
func (i *SyncQueueItem) Exhausted() bool {
	return i.RetryCount >= i.MaxRetries
}

package models

import "encoding/json"

// ConflictResolution tags how a conflict was settled.
type ConflictResolution string

const (
	// ResolutionLocal re-enqueues the stored local snapshot as authoritative.
	ResolutionLocal ConflictResolution = "local"
	// ResolutionRemote overwrites the local entity with the remote snapshot.
	ResolutionRemote ConflictResolution = "remote"
	// ResolutionMerged installs a caller-supplied merged payload as the new
	// local state and re-enqueues it.
	ResolutionMerged ConflictResolution = "merged"
	// ResolutionManual records the decision only; the operator has already
	// reconciled the divergence out-of-band.
	ResolutionManual ConflictResolution = "manual"
)

// Valid reports whether r is a known resolution tag.
func (r ConflictResolution) Valid() bool {
	switch r {
	case ResolutionLocal, ResolutionRemote, ResolutionMerged, ResolutionManual:
		return true
	}
	return false
}

// SyncConflict records a detected divergence between the assumed local state
// of an entity and what the remote system reported. Conflicts are never
// auto-deleted; they persist until explicitly resolved.
type SyncConflict struct {
	ID              string             `json:"id"`
	EntityType      EntityType         `json:"entity_type"`
	EntityID        string             `json:"entity_id"`
	LocalSnapshot   json.RawMessage    `json:"local_snapshot"`
	RemoteSnapshot  json.RawMessage    `json:"remote_snapshot"`
	LocalTimestamp  int64              `json:"local_timestamp"`
	RemoteTimestamp int64              `json:"remote_timestamp"`
	DetectedAt      int64              `json:"detected_at"`
	IsResolved      bool               `json:"is_resolved"`
	Resolution      ConflictResolution `json:"resolution,omitempty"`
	MergedSnapshot  json.RawMessage    `json:"merged_snapshot,omitempty"`
	ResolvedAt      *int64             `json:"resolved_at,omitempty"`
}

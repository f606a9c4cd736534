package models

import "encoding/json"

// RemoteSnapshot is the remote system's view of one entity, as returned by a
// conflicting push acknowledgment or a pull.
type RemoteSnapshot struct {
	EntityType EntityType      `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Snapshot   json.RawMessage `json:"snapshot"`
	Version    int64           `json:"version"`
	Hash       string          `json:"hash"`
	UpdatedAt  int64           `json:"updated_at"`
}

// PushResult is the outcome of delivering one queue item. Exactly one of the
// two shapes applies: Accepted true with Remote nil, or Accepted false with
// Remote holding the state the remote side reported instead. A conflicting
// push is a normal outcome, not an error.
type PushResult struct {
	Accepted bool
	Remote   *RemoteSnapshot
}

// PushRequest is the wire payload for delivering one queue item. EntityID
// plus the monotonically increasing item sequence lets the remote side
// de-duplicate a retried push.
type PushRequest struct {
	ItemID       string          `json:"item_id"`
	EntityType   EntityType      `json:"entity_type"`
	Action       QueueAction     `json:"action"`
	EntityID     string          `json:"entity_id"`
	Payload      json.RawMessage `json:"payload"`
	SnapshotHash string          `json:"snapshot_hash"`
	DeviceID     string          `json:"device_id"`
}

package models

// InspectionStatus is the lifecycle state of an inspection.
type InspectionStatus string

const (
	StatusDraft     InspectionStatus = "draft"
	StatusPending   InspectionStatus = "pending"
	StatusSynced    InspectionStatus = "synced"
	StatusCompleted InspectionStatus = "completed"
)

// Valid reports whether s is one of the known inspection statuses.
func (s InspectionStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusSynced, StatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether an inspection may move from s to target.
// Completed is terminal.
func (s InspectionStatus) CanTransitionTo(target InspectionStatus) bool {
	if !target.Valid() {
		return false
	}
	switch s {
	case StatusDraft:
		return target != StatusDraft
	case StatusPending, StatusSynced:
		return target != StatusDraft
	case StatusCompleted:
		return false
	}
	return false
}

// GeoPoint is an optional GPS fix captured with an entity.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	// AccuracyM is the reported horizontal accuracy in metres, zero when the
	// capturing device did not provide one.
	AccuracyM float64 `json:"accuracy_m,omitempty"`
}

// Inspection is the root aggregate of the local replica. Version strictly
// increases on every local mutation; IsSynced is reset to false by every local
// mutation and set true only by a successful sync acknowledgment.
type Inspection struct {
	ID        string           `json:"id"`
	Address   string           `json:"address"`
	Status    InspectionStatus `json:"status"`
	Notes     string           `json:"notes,omitempty"`
	Location  *GeoPoint        `json:"location,omitempty"`
	DeviceID  string           `json:"device_id"`
	Version   int64            `json:"version"`
	IsSynced  bool             `json:"is_synced"`
	CreatedAt int64            `json:"created_at"`
	UpdatedAt int64            `json:"updated_at"`
	SyncedAt  *int64           `json:"synced_at,omitempty"`
}

// InspectionUpdate carries the fields of an inspection that a caller may
// change. Nil pointers leave the stored value untouched.
type InspectionUpdate struct {
	Address  *string           `json:"address,omitempty"`
	Status   *InspectionStatus `json:"status,omitempty"`
	Notes    *string           `json:"notes,omitempty"`
	Location *GeoPoint         `json:"location,omitempty"`
}

// InspectionWithRelations is an inspection composed with every child record
// that references it.
type InspectionWithRelations struct {
	Inspection   Inspection     `json:"inspection"`
	Photos       []Photo        `json:"photos"`
	Measurements []Measurement  `json:"measurements"`
	Damage       []DamageRecord `json:"damage"`
}

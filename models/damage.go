package models

// DamageSeverity grades a recorded damage finding.
type DamageSeverity string

const (
	SeverityMinor    DamageSeverity = "minor"
	SeverityModerate DamageSeverity = "moderate"
	SeveritySevere   DamageSeverity = "severe"
)

// Valid reports whether s is a known severity grade.
func (s DamageSeverity) Valid() bool {
	switch s {
	case SeverityMinor, SeverityModerate, SeveritySevere:
		return true
	}
	return false
}

// DamageRecord documents damage found during an inspection. Severity and
// Notes may be amended after creation; everything else is immutable.
// PhotoIDs are weak references: deleting a photo does not touch the record.
type DamageRecord struct {
	ID           string         `json:"id"`
	InspectionID string         `json:"inspection_id"`
	Category     string         `json:"category"`
	Severity     DamageSeverity `json:"severity"`
	Notes        string         `json:"notes,omitempty"`
	PhotoIDs     []string       `json:"photo_ids,omitempty"`
	DeviceID     string         `json:"device_id"`
	CreatedAt    int64          `json:"created_at"`
	UpdatedAt    int64          `json:"updated_at"`
}

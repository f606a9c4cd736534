package models

// Legacy import types mirror the prior-format serialized archive. Binary
// photo payloads arrive base64-inlined and are converted to native byte
// buffers during import.

// LegacyArchive is the top-level shape of a serialized legacy export.
type LegacyArchive struct {
	ExportedAt  int64              `json:"exported_at"`
	Inspections []LegacyInspection `json:"inspections"`
}

// LegacyInspection is one prior-format inspection with its nested children.
// Synced records are imported without re-entering the outbound queue.
type LegacyInspection struct {
	ID           string              `json:"id"`
	Address      string              `json:"address"`
	Status       string              `json:"status"`
	Notes        string              `json:"notes,omitempty"`
	Latitude     *float64            `json:"latitude,omitempty"`
	Longitude    *float64            `json:"longitude,omitempty"`
	Synced       bool                `json:"synced"`
	CreatedAt    int64               `json:"created_at"`
	UpdatedAt    int64               `json:"updated_at"`
	Photos       []LegacyPhoto       `json:"photos,omitempty"`
	Measurements []LegacyMeasurement `json:"measurements,omitempty"`
	Damage       []LegacyDamage      `json:"damage,omitempty"`
}

// LegacyPhoto holds a base64-encoded payload in Data.
type LegacyPhoto struct {
	ID         string `json:"id"`
	Data       string `json:"data"`
	MIMEType   string `json:"mime_type"`
	CapturedAt int64  `json:"captured_at"`
	Synced     bool   `json:"synced"`
}

// LegacyMeasurement is a prior-format measurement row.
type LegacyMeasurement struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
	RecordedAt int64   `json:"recorded_at"`
	Synced     bool    `json:"synced"`
}

// LegacyDamage is a prior-format damage row.
type LegacyDamage struct {
	ID       string   `json:"id"`
	Category string   `json:"category"`
	Severity string   `json:"severity"`
	Notes    string   `json:"notes,omitempty"`
	PhotoIDs []string `json:"photo_ids,omitempty"`
	Synced   bool     `json:"synced"`
}

// ImportError ties one failed legacy record to the reason it was rejected.
type ImportError struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Reason     string     `json:"reason"`
}

// ImportSummary is the per-run result of a legacy migration. The legacy
// source may only be cleared when Errors is empty.
type ImportSummary struct {
	Migrated int           `json:"migrated"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors,omitempty"`
}

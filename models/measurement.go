package models

// Measurement is a single measured value taken during an inspection.
// Measurements are immutable once created.
type Measurement struct {
	ID           string  `json:"id"`
	InspectionID string  `json:"inspection_id"`
	Name         string  `json:"name"`
	Value        float64 `json:"value"`
	Unit         string  `json:"unit"`
	RecordedAt   int64   `json:"recorded_at"`
	DeviceID     string  `json:"device_id"`
	CreatedAt    int64   `json:"created_at"`
}

package models

// Photo is a captured image belonging to exactly one inspection. The payload
// is an opaque byte buffer with a declared MIME type; Thumbnail is an optional
// derived payload. RetryCount only grows, it is reset solely by an explicit
// operator action.
type Photo struct {
	ID           string            `json:"id"`
	InspectionID string            `json:"inspection_id"`
	Data         []byte            `json:"data"`
	Thumbnail    []byte            `json:"thumbnail,omitempty"`
	MIMEType     string            `json:"mime_type"`
	SizeBytes    int64             `json:"size_bytes"`
	CapturedAt   int64             `json:"captured_at"`
	Location     *GeoPoint         `json:"location,omitempty"`
	CameraMeta   map[string]string `json:"camera_meta,omitempty"`
	Synced       bool              `json:"synced"`
	RetryCount   int               `json:"retry_count"`
	UploadError  *string           `json:"upload_error,omitempty"`
	DeviceID     string            `json:"device_id"`
	CreatedAt    int64             `json:"created_at"`
}

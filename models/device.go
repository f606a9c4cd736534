package models

// Device is the stable per-install identity tagging every locally originated
// mutation. Exactly one row exists in the local store.
type Device struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
}

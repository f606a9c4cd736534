package service

import "errors"

var (
	// ErrNotFound reports a mutation or lookup against an entity that is not
	// in the local replica.
	ErrNotFound = errors.New("entity not found")
	// ErrValidation reports rejected input. No queue item is created for a
	// rejected mutation.
	ErrValidation = errors.New("invalid data provided")
	// ErrTransientSync reports a delivery attempt that failed for reasons
	// expected to clear up (network, remote 5xx, timeout).
	ErrTransientSync = errors.New("transient sync failure")

	// ErrConflictPayloadRequired reports a merged resolution submitted
	// without the merged snapshot.
	ErrConflictPayloadRequired = errors.New("merged resolution requires a payload")
	// ErrConflictAlreadyResolved reports a second resolution attempt.
	ErrConflictAlreadyResolved = errors.New("conflict already resolved")
	// ErrUnknownResolution reports a resolution tag outside the known set.
	ErrUnknownResolution = errors.New("unknown conflict resolution")
)

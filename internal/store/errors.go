package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrInspectionNotFound is returned when a query or update targets an
	// inspection identifier that does not exist in the local replica.
	ErrInspectionNotFound = errors.New("inspection was not found")

	// ErrPhotoNotFound is returned when a query or update targets a photo
	// identifier that does not exist in the local replica.
	ErrPhotoNotFound = errors.New("photo was not found")

	// ErrMeasurementNotFound is returned when a query or delete targets a
	// measurement identifier that does not exist in the local replica.
	ErrMeasurementNotFound = errors.New("measurement was not found")

	// ErrDamageNotFound is returned when a query or update targets a damage
	// record identifier that does not exist in the local replica.
	ErrDamageNotFound = errors.New("damage record was not found")

	// ErrQueueItemNotFound is returned when a state transition targets a sync
	// queue item that does not exist.
	ErrQueueItemNotFound = errors.New("sync queue item was not found")

	// ErrConflictNotFound is returned when a resolution targets a conflict
	// record that does not exist.
	ErrConflictNotFound = errors.New("conflict record was not found")

	// ErrDeviceNotRegistered is returned when the device identity row has not
	// been created yet.
	ErrDeviceNotRegistered = errors.New("device identity is not registered")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to execute statement")

	// ErrScanningRow is returned when scanning column values from a single
	// result row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails, typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan rows")
)

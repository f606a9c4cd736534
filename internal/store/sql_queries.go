package store

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/fieldsync/fieldsync/models"
)

const (
	insertInspection = `INSERT INTO inspections (id, address, status, notes, latitude, longitude, accuracy_m,
		device_id, version, is_synced, created_at, updated_at, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	selectInspection = `SELECT id, address, status, notes, latitude, longitude, accuracy_m,
		device_id, version, is_synced, created_at, updated_at, synced_at
		FROM inspections WHERE id = ?;`

	selectAllInspections = `SELECT id, address, status, notes, latitude, longitude, accuracy_m,
		device_id, version, is_synced, created_at, updated_at, synced_at
		FROM inspections ORDER BY created_at DESC;`

	deleteInspection = `DELETE FROM inspections WHERE id = ?;`

	deletePhotosByInspection       = `DELETE FROM photos WHERE inspection_id = ?;`
	deleteMeasurementsByInspection = `DELETE FROM measurements WHERE inspection_id = ?;`
	deleteDamageByInspection       = `DELETE FROM damage WHERE inspection_id = ?;`

	markInspectionSynced = `UPDATE inspections SET is_synced = 1, synced_at = ? WHERE id = ?;`

	insertPhoto = `INSERT INTO photos (id, inspection_id, data, thumbnail, mime_type, size_bytes, captured_at,
		latitude, longitude, accuracy_m, camera_meta, synced, retry_count, upload_error, device_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	selectPhoto = `SELECT id, inspection_id, data, thumbnail, mime_type, size_bytes, captured_at,
		latitude, longitude, accuracy_m, camera_meta, synced, retry_count, upload_error, device_id, created_at
		FROM photos WHERE id = ?;`

	selectPhotosByInspection = `SELECT id, inspection_id, data, thumbnail, mime_type, size_bytes, captured_at,
		latitude, longitude, accuracy_m, camera_meta, synced, retry_count, upload_error, device_id, created_at
		FROM photos WHERE inspection_id = ? ORDER BY captured_at ASC;`

	deletePhoto           = `DELETE FROM photos WHERE id = ?;`
	markPhotoSynced       = `UPDATE photos SET synced = 1, upload_error = NULL WHERE id = ?;`
	recordPhotoError      = `UPDATE photos SET retry_count = retry_count + 1, upload_error = ? WHERE id = ?;`
	resetPhotoUploadState = `UPDATE photos SET retry_count = 0, upload_error = NULL WHERE id = ?;`

	insertMeasurement = `INSERT INTO measurements (id, inspection_id, name, value, unit, recorded_at, device_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?);`

	selectMeasurement = `SELECT id, inspection_id, name, value, unit, recorded_at, device_id, created_at
		FROM measurements WHERE id = ?;`

	selectMeasurementsByInspection = `SELECT id, inspection_id, name, value, unit, recorded_at, device_id, created_at
		FROM measurements WHERE inspection_id = ? ORDER BY recorded_at ASC;`

	deleteMeasurement = `DELETE FROM measurements WHERE id = ?;`

	insertDamage = `INSERT INTO damage (id, inspection_id, category, severity, notes, photo_ids, device_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`

	selectDamage = `SELECT id, inspection_id, category, severity, notes, photo_ids, device_id, created_at, updated_at
		FROM damage WHERE id = ?;`

	selectDamageByInspection = `SELECT id, inspection_id, category, severity, notes, photo_ids, device_id, created_at, updated_at
		FROM damage WHERE inspection_id = ? ORDER BY created_at ASC;`

	deleteDamage = `DELETE FROM damage WHERE id = ?;`

	insertQueueItemSQL = `INSERT INTO sync_queue (id, entity_type, action, entity_id, payload, snapshot_hash,
		priority, status, retry_count, max_retries, last_error, device_id, created_at, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	markQueueProcessing = `UPDATE sync_queue SET status = 'processing' WHERE id = ?;`
	markQueueCompleted  = `UPDATE sync_queue SET status = 'completed', processed_at = ? WHERE id = ?;`
	markQueueFailed     = `UPDATE sync_queue SET status = 'failed', retry_count = retry_count + 1, last_error = ?, processed_at = ? WHERE id = ?;`

	countOpenQueueItems = `SELECT COUNT(*) FROM sync_queue WHERE status IN ('pending', 'processing')
		OR (status = 'failed' AND retry_count < max_retries);`

	selectExhaustedQueueItems = `SELECT id, entity_type, action, entity_id, payload, snapshot_hash,
		priority, status, retry_count, max_retries, last_error, device_id, created_at, processed_at
		FROM sync_queue WHERE status = 'failed' AND retry_count >= max_retries
		ORDER BY created_at ASC;`

	resetFailedQueueItem = `UPDATE sync_queue SET status = 'pending', retry_count = 0, last_error = NULL, processed_at = NULL
		WHERE id = ? AND status = 'failed';`

	discardQueueItem = `DELETE FROM sync_queue WHERE id = ? AND status = 'failed';`

	deleteCompletedQueueItems = `DELETE FROM sync_queue WHERE status = 'completed' AND processed_at < ?;`

	selectOpenQueueEntityIDs = `SELECT DISTINCT entity_id FROM sync_queue WHERE status IN ('pending', 'processing')
		OR (status = 'failed' AND retry_count < max_retries);`

	insertConflict = `INSERT INTO conflicts (id, entity_type, entity_id, local_snapshot, remote_snapshot,
		local_timestamp, remote_timestamp, detected_at, is_resolved, resolution, merged_snapshot, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	selectConflict = `SELECT id, entity_type, entity_id, local_snapshot, remote_snapshot,
		local_timestamp, remote_timestamp, detected_at, is_resolved, resolution, merged_snapshot, resolved_at
		FROM conflicts WHERE id = ?;`

	selectUnresolvedConflicts = `SELECT id, entity_type, entity_id, local_snapshot, remote_snapshot,
		local_timestamp, remote_timestamp, detected_at, is_resolved, resolution, merged_snapshot, resolved_at
		FROM conflicts WHERE is_resolved = 0 ORDER BY detected_at DESC;`

	markConflictResolved = `UPDATE conflicts SET is_resolved = 1, resolution = ?, merged_snapshot = ?, resolved_at = ?
		WHERE id = ? AND is_resolved = 0;`

	selectDevice = `SELECT id, created_at FROM device LIMIT 1;`
	insertDevice = `INSERT INTO device (id, created_at) VALUES (?, ?);`
)

var queueColumns = []string{
	"id", "entity_type", "action", "entity_id", "payload", "snapshot_hash",
	"priority", "status", "retry_count", "max_retries", "last_error",
	"device_id", "created_at", "processed_at",
}

// buildDequeueBatchQuery assembles the drain SELECT: every pending item plus
// every failed item with retry budget left, in deterministic
// (priority, created_at, id) order. created_at has second granularity, so the
// time-ordered UUIDv7 identifier breaks ties between items created in the
// same second.
func buildDequeueBatchQuery() (string, []any, error) {
	return sq.Select(queueColumns...).
		From("sync_queue").
		Where(sq.And{
			sq.Eq{"status": []string{string(models.QueueStatusPending), string(models.QueueStatusFailed)}},
			sq.Expr("retry_count < max_retries"),
		}).
		OrderBy("priority ASC", "created_at ASC", "id ASC").
		ToSql()
}

// buildInspectionUpdateQuery assembles the full-row UPDATE for a merged
// inspection. The service layer owns the merge; every mutable column is
// written so the row matches the snapshot that was enqueued.
func buildInspectionUpdateQuery(insp *models.Inspection) (string, []any, error) {
	lat, lon, acc := geoColumns(insp.Location)

	return sq.Update("inspections").
		Set("address", insp.Address).
		Set("status", string(insp.Status)).
		Set("notes", insp.Notes).
		Set("latitude", lat).
		Set("longitude", lon).
		Set("accuracy_m", acc).
		Set("version", insp.Version).
		Set("is_synced", insp.IsSynced).
		Set("updated_at", insp.UpdatedAt).
		Where(sq.Eq{"id": insp.ID}).
		ToSql()
}

// buildDamageAmendQuery assembles the UPDATE for the two amendable damage
// columns.
func buildDamageAmendQuery(d *models.DamageRecord) (string, []any, error) {
	return sq.Update("damage").
		Set("severity", string(d.Severity)).
		Set("notes", d.Notes).
		Set("updated_at", d.UpdatedAt).
		Where(sq.Eq{"id": d.ID}).
		ToSql()
}

// geoColumns flattens an optional GeoPoint into its three nullable columns.
func geoColumns(p *models.GeoPoint) (lat, lon, acc any) {
	if p == nil {
		return nil, nil, nil
	}
	return p.Latitude, p.Longitude, p.AccuracyM
}

package core

import "time"

// DefaultEditWindow is the period after creation during which a
// transaction may still be updated or deleted.
const DefaultEditWindow = 12 * time.Hour

// IsEditable reports whether a transaction created at createdAt may
// still be mutated at now. The boundary is inclusive: exactly window
// after creation is still editable, one second later is not. This is
// evaluated server-side on every update/delete request; client-side
// checks are advisory only.
func IsEditable(createdAt, now time.Time, window time.Duration) bool {
	return now.Sub(createdAt) <= window
}

package domain

import "time"

// Timestamps provides the creation and modification times shared by every
// persisted entity.
type Timestamps struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// Call this when creating a new entity.
func (t *Timestamps) InitTimestamps(now time.Time) {
	now = now.UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
}

// Touch updates the UpdatedAt timestamp.
func (t *Timestamps) Touch(now time.Time) {
	t.UpdatedAt = now.UTC()
}

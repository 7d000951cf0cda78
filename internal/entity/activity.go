package entity

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ActivityType is the custom type to enforce enum-like behavior
type ActivityType string

func (at ActivityType) String() string {
	return string(at)
}

const (
	ActivityCreated         ActivityType = "created"
	ActivityUpdated         ActivityType = "updated"
	ActivityPriorityChanged ActivityType = "priority_changed"
	ActivityPositionChanged ActivityType = "position_changed"
	ActivityOffered         ActivityType = "offered"
	ActivityOfferAccepted   ActivityType = "offer_accepted"
	ActivityOfferDeclined   ActivityType = "offer_declined"
	ActivityOfferExpired    ActivityType = "offer_expired"
	ActivityExpired         ActivityType = "expired"
	ActivityWithdrawn       ActivityType = "withdrawn"
	ActivityLost            ActivityType = "lost"
	ActivityEnrolled        ActivityType = "enrolled"
)

// Metadata is a free-form activity payload stored as JSON.
type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("can't marshal activity metadata: %w", err)
	}
	return string(b), nil
}

func (m *Metadata) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported activity metadata type %T", src)
	}
	if len(b) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(b, m)
}

// WaitlistActivity represents the waitlist_activity table. Rows are written
// once per state transition or material edit and never updated or deleted.
type WaitlistActivity struct {
	Id           int           `db:"id"`
	EntryId      int           `db:"entry_id"`
	TenantId     int           `db:"tenant_id"`
	ActivityType ActivityType  `db:"activity_type"`
	Description  string        `db:"description"`
	Metadata     Metadata      `db:"metadata"`
	ActorId      sql.NullInt32 `db:"actor_id"`
	CreatedAt    time.Time     `db:"created_at"`
}

// ActivityInsert carries a new audit row for a waitlist entry.
type ActivityInsert struct {
	EntryId      int
	TenantId     int
	ActivityType ActivityType
	Description  string
	Metadata     Metadata
	ActorId      int
}

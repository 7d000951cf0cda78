package entity

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/shopspring/decimal"
)

// EntryStatus is the custom type to enforce enum-like behavior
type EntryStatus string

func (es EntryStatus) String() string {
	return string(es)
}

const (
	StatusWaiting   EntryStatus = "waiting"
	StatusOffered   EntryStatus = "offered"
	StatusAccepted  EntryStatus = "accepted"
	StatusDeclined  EntryStatus = "declined"
	StatusExpired   EntryStatus = "expired"
	StatusWithdrawn EntryStatus = "withdrawn"
	StatusLost      EntryStatus = "lost"
	StatusEnrolled  EntryStatus = "enrolled"
)

// ValidEntryStatuses is a set of valid waitlist entry statuses
var ValidEntryStatuses = map[EntryStatus]bool{
	StatusWaiting:   true,
	StatusOffered:   true,
	StatusAccepted:  true,
	StatusDeclined:  true,
	StatusExpired:   true,
	StatusWithdrawn: true,
	StatusLost:      true,
	StatusEnrolled:  true,
}

// entryTransitions holds one entry per edge of the entry lifecycle graph.
// A status missing from the map is terminal.
var entryTransitions = map[EntryStatus][]EntryStatus{
	StatusWaiting:  {StatusOffered, StatusWithdrawn, StatusExpired, StatusLost},
	StatusOffered:  {StatusAccepted, StatusDeclined, StatusExpired, StatusWithdrawn, StatusLost},
	StatusAccepted: {StatusEnrolled, StatusWithdrawn, StatusLost},
}

// IsTerminal reports whether no further transition is possible from the status.
func (es EntryStatus) IsTerminal() bool {
	_, ok := entryTransitions[es]
	return !ok
}

// CanTransition reports whether the lifecycle graph has an edge from es to the target status.
func (es EntryStatus) CanTransition(to EntryStatus) bool {
	for _, next := range entryTransitions[es] {
		if next == to {
			return true
		}
	}
	return false
}

// EntryPriority is the custom type to enforce enum-like behavior
type EntryPriority string

func (ep EntryPriority) String() string {
	return string(ep)
}

const (
	PriorityNormal EntryPriority = "normal"
	PriorityHigh   EntryPriority = "high"
	PriorityUrgent EntryPriority = "urgent"
)

var ValidEntryPriorities = map[EntryPriority]bool{
	PriorityNormal: true,
	PriorityHigh:   true,
	PriorityUrgent: true,
}

// EntrySource is the custom type to enforce enum-like behavior
type EntrySource string

func (es EntrySource) String() string {
	return string(es)
}

const (
	SourceManual      EntrySource = "manual"
	SourcePipeline    EntrySource = "pipeline"
	SourceBookingPage EntrySource = "booking_page"
	SourcePortal      EntrySource = "portal"
	SourceWebsite     EntrySource = "website"
)

var ValidEntrySources = map[EntrySource]bool{
	SourceManual:      true,
	SourcePipeline:    true,
	SourceBookingPage: true,
	SourcePortal:      true,
	SourceWebsite:     true,
}

// WeekdaySet is a set of preferred weekdays stored as a JSON array.
type WeekdaySet []string

func (ws WeekdaySet) Value() (driver.Value, error) {
	if len(ws) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(ws)
	if err != nil {
		return nil, fmt.Errorf("can't marshal weekday set: %w", err)
	}
	return string(b), nil
}

func (ws *WeekdaySet) Scan(src any) error {
	if src == nil {
		*ws = nil
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported weekday set type %T", src)
	}
	if len(b) == 0 {
		*ws = nil
		return nil
	}
	return json.Unmarshal(b, ws)
}

// WaitlistEntry represents the waitlist_entry table: one family's request
// for lesson capacity on a given instrument, scoped to a tenant.
type WaitlistEntry struct {
	Id       int           `db:"id"`
	UUID     string        `db:"uuid"`
	TenantId int           `db:"tenant_id"`
	LeadId   sql.NullInt32 `db:"lead_id"`

	ContactName  string        `db:"contact_name"`
	ContactEmail string        `db:"contact_email"`
	ContactPhone string        `db:"contact_phone"`
	GuardianId   sql.NullInt32 `db:"guardian_id"`

	ChildFirstName    string `db:"child_first_name"`
	ChildLastName     string `db:"child_last_name"`
	ChildAge          int    `db:"child_age"`
	InstrumentId      int    `db:"instrument_id"`
	InstrumentName    string `db:"instrument_name"`
	LessonDurationMin int    `db:"lesson_duration_min"`

	PreferredTeacherId  sql.NullInt32  `db:"preferred_teacher_id"`
	PreferredLocationId sql.NullInt32  `db:"preferred_location_id"`
	PreferredWeekdays   WeekdaySet     `db:"preferred_weekdays"`
	EarliestTime        sql.NullString `db:"earliest_time"`
	LatestTime          sql.NullString `db:"latest_time"`
	ExperienceLevel     string         `db:"experience_level"`

	// Position is meaningful only while Status is waiting.
	Position int           `db:"position"`
	Status   EntryStatus   `db:"status"`
	Priority EntryPriority `db:"priority"`
	Source   EntrySource   `db:"source"`

	OfferedWeekday    sql.NullString `db:"offered_weekday"`
	OfferedStartTime  sql.NullString `db:"offered_start_time"`
	OfferedTeacherId  sql.NullInt32  `db:"offered_teacher_id"`
	OfferedLocationId sql.NullInt32  `db:"offered_location_id"`
	OfferedRate       sql.NullInt64  `db:"offered_rate"`
	OfferedAt         sql.NullTime   `db:"offered_at"`
	OfferExpiresAt    sql.NullTime   `db:"offer_expires_at"`
	RespondedAt       sql.NullTime   `db:"responded_at"`

	ConvertedStudentId sql.NullInt32 `db:"converted_student_id"`
	ConvertedAt        sql.NullTime  `db:"converted_at"`

	Notes     string        `db:"notes"`
	CreatedBy sql.NullInt32 `db:"created_by"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
}

// OfferedRateDecimal returns the offered lesson rate in major currency units.
// The rate itself is stored in minor units.
func (we *WaitlistEntry) OfferedRateDecimal() decimal.Decimal {
	if !we.OfferedRate.Valid {
		return decimal.Zero
	}
	return decimal.NewFromInt(we.OfferedRate.Int64).Div(decimal.NewFromInt(100))
}

// HasOpenOffer reports whether the entry currently awaits an offer response.
func (we *WaitlistEntry) HasOpenOffer() bool {
	return we.Status == StatusOffered && !we.RespondedAt.Valid
}

// WaitlistEntryNew carries validated input for adding an entry to the waitlist.
type WaitlistEntryNew struct {
	ContactName  string `valid:"required"`
	ContactEmail string `valid:"required,email"`
	ContactPhone string `valid:"-"`

	ChildFirstName    string `valid:"required"`
	ChildLastName     string `valid:"-"`
	ChildAge          int    `valid:"-"`
	InstrumentId      int    `valid:"required"`
	InstrumentName    string `valid:"required"`
	LessonDurationMin int    `valid:"-"`

	PreferredTeacherId  *int       `valid:"-"`
	PreferredLocationId *int       `valid:"-"`
	PreferredWeekdays   WeekdaySet `valid:"-"`
	EarliestTime        string     `valid:"-"`
	LatestTime          string     `valid:"-"`
	ExperienceLevel     string     `valid:"-"`

	Priority EntryPriority `valid:"-"`
	Source   EntrySource   `valid:"-"`
	LeadId   *int          `valid:"-"`
	Notes    string        `valid:"-"`
}

// Validate checks required contact/child fields and normalizes enum defaults.
func (en *WaitlistEntryNew) Validate() error {
	if _, err := govalidator.ValidateStruct(en); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	if en.Priority == "" {
		en.Priority = PriorityNormal
	}
	if !ValidEntryPriorities[en.Priority] {
		return &ValidationError{Message: fmt.Sprintf("invalid priority: %s", en.Priority)}
	}
	if en.Source == "" {
		en.Source = SourceManual
	}
	if !ValidEntrySources[en.Source] {
		return &ValidationError{Message: fmt.Sprintf("invalid source: %s", en.Source)}
	}
	for _, wd := range en.PreferredWeekdays {
		if !validWeekdays[wd] {
			return &ValidationError{Message: fmt.Sprintf("invalid preferred weekday: %s", wd)}
		}
	}
	return nil
}

var validWeekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// SlotOffer is the slot proposed to a waiting entry.
type SlotOffer struct {
	Weekday    string `valid:"required"`
	StartTime  string `valid:"required"`
	TeacherId  int    `valid:"required"`
	LocationId int    `valid:"required"`
	// RateMinor is the lesson rate in minor currency units.
	RateMinor int64 `valid:"required"`
}

func (so *SlotOffer) Validate() error {
	if _, err := govalidator.ValidateStruct(so); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	if !validWeekdays[so.Weekday] {
		return &ValidationError{Message: fmt.Sprintf("invalid weekday: %s", so.Weekday)}
	}
	if so.RateMinor < 0 {
		return &ValidationError{Message: "rate must not be negative"}
	}
	return nil
}

func (so *SlotOffer) RateDecimal() decimal.Decimal {
	return decimal.NewFromInt(so.RateMinor).Div(decimal.NewFromInt(100))
}

// EntryUpdate carries the editable fields of an entry. Nil pointers are left unchanged.
type EntryUpdate struct {
	ContactName  *string
	ContactEmail *string
	ContactPhone *string

	ChildFirstName    *string
	ChildLastName     *string
	ChildAge          *int
	LessonDurationMin *int

	PreferredTeacherId  *int
	PreferredLocationId *int
	PreferredWeekdays   *WeekdaySet
	EarliestTime        *string
	LatestTime          *string
	ExperienceLevel     *string

	Notes *string
}

func (eu *EntryUpdate) Validate() error {
	if eu.ContactEmail != nil && !govalidator.IsEmail(*eu.ContactEmail) {
		return &ValidationError{Message: fmt.Sprintf("invalid contact email: %s", *eu.ContactEmail)}
	}
	if eu.ContactName != nil && *eu.ContactName == "" {
		return &ValidationError{Message: "contact name must not be empty"}
	}
	if eu.ChildFirstName != nil && *eu.ChildFirstName == "" {
		return &ValidationError{Message: "child first name must not be empty"}
	}
	if eu.PreferredWeekdays != nil {
		for _, wd := range *eu.PreferredWeekdays {
			if !validWeekdays[wd] {
				return &ValidationError{Message: fmt.Sprintf("invalid preferred weekday: %s", wd)}
			}
		}
	}
	return nil
}

// EntryFilter narrows paged entry listings.
type EntryFilter struct {
	Status       EntryStatus
	InstrumentId int
	Priority     EntryPriority
	Search       string
}

// OrderFactor is the custom type to enforce enum-like behavior
type OrderFactor string

const (
	Ascending  OrderFactor = "ASC"
	Descending OrderFactor = "DESC"
)

func (of OrderFactor) String() string {
	if of != Descending {
		return string(Ascending)
	}
	return string(Descending)
}

// ValidationError is returned for malformed input before any write happens.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

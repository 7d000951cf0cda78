package httpapi

import (
	"database/sql"
	"time"

	"github.com/lessonlane/studio-manager/internal/entity"
)

func intPtr(v sql.NullInt32) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int32)
	return &i
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

// entryResponse is the JSON shape of a waitlist entry. Nullable columns render
// as absent fields.
type entryResponse struct {
	Id       int    `json:"id"`
	UUID     string `json:"uuid"`
	LeadId   *int   `json:"lead_id,omitempty"`

	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone,omitempty"`

	ChildFirstName    string `json:"child_first_name"`
	ChildLastName     string `json:"child_last_name,omitempty"`
	ChildAge          int    `json:"child_age,omitempty"`
	InstrumentId      int    `json:"instrument_id"`
	InstrumentName    string `json:"instrument_name"`
	LessonDurationMin int    `json:"lesson_duration_min"`

	PreferredTeacherId  *int     `json:"preferred_teacher_id,omitempty"`
	PreferredLocationId *int     `json:"preferred_location_id,omitempty"`
	PreferredWeekdays   []string `json:"preferred_weekdays,omitempty"`
	EarliestTime        string   `json:"earliest_time,omitempty"`
	LatestTime          string   `json:"latest_time,omitempty"`
	ExperienceLevel     string   `json:"experience_level,omitempty"`

	Position int    `json:"position"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Source   string `json:"source"`

	OfferedWeekday    string     `json:"offered_weekday,omitempty"`
	OfferedStartTime  string     `json:"offered_start_time,omitempty"`
	OfferedTeacherId  *int       `json:"offered_teacher_id,omitempty"`
	OfferedLocationId *int       `json:"offered_location_id,omitempty"`
	OfferedRate       string     `json:"offered_rate,omitempty"`
	OfferedAt         *time.Time `json:"offered_at,omitempty"`
	OfferExpiresAt    *time.Time `json:"offer_expires_at,omitempty"`
	RespondedAt       *time.Time `json:"responded_at,omitempty"`

	ConvertedStudentId *int       `json:"converted_student_id,omitempty"`
	ConvertedAt        *time.Time `json:"converted_at,omitempty"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newEntryResponse(e *entity.WaitlistEntry) *entryResponse {
	resp := &entryResponse{
		Id:                e.Id,
		UUID:              e.UUID,
		LeadId:            intPtr(e.LeadId),
		ContactName:       e.ContactName,
		ContactEmail:      e.ContactEmail,
		ContactPhone:      e.ContactPhone,
		ChildFirstName:    e.ChildFirstName,
		ChildLastName:     e.ChildLastName,
		ChildAge:          e.ChildAge,
		InstrumentId:      e.InstrumentId,
		InstrumentName:    e.InstrumentName,
		LessonDurationMin: e.LessonDurationMin,

		PreferredTeacherId:  intPtr(e.PreferredTeacherId),
		PreferredLocationId: intPtr(e.PreferredLocationId),
		PreferredWeekdays:   e.PreferredWeekdays,
		EarliestTime:        e.EarliestTime.String,
		LatestTime:          e.LatestTime.String,
		ExperienceLevel:     e.ExperienceLevel,

		Position: e.Position,
		Status:   e.Status.String(),
		Priority: e.Priority.String(),
		Source:   e.Source.String(),

		OfferedWeekday:    e.OfferedWeekday.String,
		OfferedStartTime:  e.OfferedStartTime.String,
		OfferedTeacherId:  intPtr(e.OfferedTeacherId),
		OfferedLocationId: intPtr(e.OfferedLocationId),
		OfferedAt:         timePtr(e.OfferedAt),
		OfferExpiresAt:    timePtr(e.OfferExpiresAt),
		RespondedAt:       timePtr(e.RespondedAt),

		ConvertedStudentId: intPtr(e.ConvertedStudentId),
		ConvertedAt:        timePtr(e.ConvertedAt),

		Notes:     e.Notes,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if e.OfferedRate.Valid {
		resp.OfferedRate = e.OfferedRateDecimal().StringFixed(2)
	}
	return resp
}

type studentResponse struct {
	Id        int       `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name,omitempty"`
	TeacherId *int      `json:"teacher_id,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func newStudentResponse(s *entity.Student) *studentResponse {
	return &studentResponse{
		Id:        s.Id,
		FirstName: s.FirstName,
		LastName:  s.LastName,
		TeacherId: intPtr(s.TeacherId),
		Status:    s.Status.String(),
		CreatedAt: s.CreatedAt,
	}
}

type activityResponse struct {
	Id           int             `json:"id"`
	ActivityType string          `json:"activity_type"`
	Description  string          `json:"description"`
	Metadata     entity.Metadata `json:"metadata,omitempty"`
	ActorId      *int            `json:"actor_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func newActivityResponse(a *entity.WaitlistActivity) *activityResponse {
	return &activityResponse{
		Id:           a.Id,
		ActivityType: a.ActivityType.String(),
		Description:  a.Description,
		Metadata:     a.Metadata,
		ActorId:      intPtr(a.ActorId),
		CreatedAt:    a.CreatedAt,
	}
}

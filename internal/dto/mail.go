package dto

import "time"

// SlotOfferDetails feeds the slot offer email template.
type SlotOfferDetails struct {
	TenantId       int
	ContactName    string
	ChildName      string
	InstrumentName string
	Weekday        string
	StartTime      string
	Rate           string
	ExpiresAt      time.Time
}

// EnrolmentDetails feeds the enrolment confirmation email template.
type EnrolmentDetails struct {
	TenantId       int
	ContactName    string
	ChildName      string
	InstrumentName string
}

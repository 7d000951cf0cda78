package entity

import "time"

const (
	// DefaultOfferExpiryHours is used when a tenant has not configured its own window.
	DefaultOfferExpiryHours = 48
	// DefaultWaitlistExpiryWeeks bounds how long an entry may sit in waiting.
	DefaultWaitlistExpiryWeeks = 26
)

// Tenant represents the tenant table: an isolated customer organisation.
// All waitlist data and operations are scoped to exactly one tenant.
type Tenant struct {
	Id                  int       `db:"id"`
	Name                string    `db:"name"`
	OfferExpiryHours    int       `db:"offer_expiry_hours"`
	WaitlistExpiryWeeks int       `db:"waitlist_expiry_weeks"`
	Active              bool      `db:"active"`
	CreatedAt           time.Time `db:"created_at"`
}

// OfferExpiry returns the tenant's configured offer window, falling back to the default.
func (t *Tenant) OfferExpiry() int {
	if t.OfferExpiryHours <= 0 {
		return DefaultOfferExpiryHours
	}
	return t.OfferExpiryHours
}

// WaitlistExpiry returns the tenant's configured waiting-age limit, falling back to the default.
func (t *Tenant) WaitlistExpiry() int {
	if t.WaitlistExpiryWeeks <= 0 {
		return DefaultWaitlistExpiryWeeks
	}
	return t.WaitlistExpiryWeeks
}

// TenantSettingsUpdate carries the configurable waitlist knobs of a tenant.
type TenantSettingsUpdate struct {
	OfferExpiryHours    int
	WaitlistExpiryWeeks int
}

func (tsu *TenantSettingsUpdate) Validate() error {
	if tsu.OfferExpiryHours <= 0 {
		return &ValidationError{Message: "offer expiry hours must be positive"}
	}
	if tsu.WaitlistExpiryWeeks <= 0 {
		return &ValidationError{Message: "waitlist expiry weeks must be positive"}
	}
	return nil
}

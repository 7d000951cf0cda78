package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryStatusTransitions(t *testing.T) {
	cases := []struct {
		from    EntryStatus
		to      EntryStatus
		allowed bool
	}{
		{StatusWaiting, StatusOffered, true},
		{StatusWaiting, StatusWithdrawn, true},
		{StatusWaiting, StatusExpired, true},
		{StatusWaiting, StatusLost, true},
		{StatusWaiting, StatusAccepted, false},
		{StatusWaiting, StatusEnrolled, false},

		{StatusOffered, StatusAccepted, true},
		{StatusOffered, StatusDeclined, true},
		{StatusOffered, StatusExpired, true},
		{StatusOffered, StatusWithdrawn, true},
		{StatusOffered, StatusLost, true},
		{StatusOffered, StatusEnrolled, false},
		{StatusOffered, StatusWaiting, false},

		{StatusAccepted, StatusEnrolled, true},
		{StatusAccepted, StatusWithdrawn, true},
		{StatusAccepted, StatusLost, true},
		{StatusAccepted, StatusDeclined, false},

		{StatusDeclined, StatusWaiting, false},
		{StatusExpired, StatusOffered, false},
		{StatusWithdrawn, StatusWaiting, false},
		{StatusLost, StatusOffered, false},
		{StatusEnrolled, StatusWithdrawn, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.allowed, c.from.CanTransition(c.to),
			"%s -> %s", c.from, c.to)
	}
}

func TestEntryStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusWaiting.IsTerminal())
	assert.False(t, StatusOffered.IsTerminal())
	assert.False(t, StatusAccepted.IsTerminal())

	assert.True(t, StatusDeclined.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
	assert.True(t, StatusWithdrawn.IsTerminal())
	assert.True(t, StatusLost.IsTerminal())
	assert.True(t, StatusEnrolled.IsTerminal())
}

func TestWaitlistEntryNewValidate(t *testing.T) {
	en := &WaitlistEntryNew{
		ContactName:    "Sarah Miller",
		ContactEmail:   "sarah@example.com",
		ChildFirstName: "Olivia",
		InstrumentId:   3,
		InstrumentName: "piano",
	}
	require.NoError(t, en.Validate())
	assert.Equal(t, PriorityNormal, en.Priority)
	assert.Equal(t, SourceManual, en.Source)

	bad := &WaitlistEntryNew{
		ContactName:    "Sarah Miller",
		ContactEmail:   "not-an-email",
		ChildFirstName: "Olivia",
		InstrumentId:   3,
		InstrumentName: "piano",
	}
	assert.Error(t, bad.Validate())

	missing := &WaitlistEntryNew{
		ContactEmail:   "sarah@example.com",
		ChildFirstName: "Olivia",
		InstrumentId:   3,
		InstrumentName: "piano",
	}
	assert.Error(t, missing.Validate())

	badWeekday := &WaitlistEntryNew{
		ContactName:       "Sarah Miller",
		ContactEmail:      "sarah@example.com",
		ChildFirstName:    "Olivia",
		InstrumentId:      3,
		InstrumentName:    "piano",
		PreferredWeekdays: WeekdaySet{"monday", "someday"},
	}
	assert.Error(t, badWeekday.Validate())

	badPriority := &WaitlistEntryNew{
		ContactName:    "Sarah Miller",
		ContactEmail:   "sarah@example.com",
		ChildFirstName: "Olivia",
		InstrumentId:   3,
		InstrumentName: "piano",
		Priority:       "critical",
	}
	assert.Error(t, badPriority.Validate())
}

func TestSlotOfferValidate(t *testing.T) {
	offer := &SlotOffer{
		Weekday:    "tuesday",
		StartTime:  "16:30",
		TeacherId:  7,
		LocationId: 2,
		RateMinor:  4500,
	}
	require.NoError(t, offer.Validate())
	assert.Equal(t, "45", offer.RateDecimal().String())

	badDay := &SlotOffer{
		Weekday:    "tue",
		StartTime:  "16:30",
		TeacherId:  7,
		LocationId: 2,
		RateMinor:  4500,
	}
	assert.Error(t, badDay.Validate())

	incomplete := &SlotOffer{Weekday: "tuesday"}
	assert.Error(t, incomplete.Validate())
}

func TestEntryUpdateValidate(t *testing.T) {
	email := "new@example.com"
	require.NoError(t, (&EntryUpdate{ContactEmail: &email}).Validate())

	badEmail := "nope"
	assert.Error(t, (&EntryUpdate{ContactEmail: &badEmail}).Validate())

	empty := ""
	assert.Error(t, (&EntryUpdate{ContactName: &empty}).Validate())
	assert.Error(t, (&EntryUpdate{ChildFirstName: &empty}).Validate())
}

func TestWeekdaySetRoundTrip(t *testing.T) {
	ws := WeekdaySet{"monday", "thursday"}
	v, err := ws.Value()
	require.NoError(t, err)

	var got WeekdaySet
	require.NoError(t, got.Scan(v))
	assert.Equal(t, ws, got)

	var empty WeekdaySet
	v, err = empty.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var fromNil WeekdaySet
	require.NoError(t, fromNil.Scan(nil))
	assert.Nil(t, fromNil)
}

func TestOfferedRateDecimal(t *testing.T) {
	e := &WaitlistEntry{}
	assert.True(t, e.OfferedRateDecimal().IsZero())

	e.OfferedRate.Int64 = 4550
	e.OfferedRate.Valid = true
	assert.Equal(t, "45.50", e.OfferedRateDecimal().StringFixed(2))
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/lessonlane/studio-manager/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetWaitlistStats(t *testing.T) {
	ms := newTestStore(t)
	ctx := context.Background()
	tenantId := newTestTenant(t, ms)

	_, err := ms.AddToWaitlist(ctx, tenantId, testEntryNew("Sarah Miller", "olivia", 3), 1)
	require.NoError(t, err)
	offered, err := ms.AddToWaitlist(ctx, tenantId, testEntryNew("Tom Reed", "jack", 3), 1)
	require.NoError(t, err)
	_, err = ms.OfferSlot(ctx, tenantId, offered.Id, testOffer(), 1)
	require.NoError(t, err)

	enrolled := acceptedEntry(t, ms, tenantId, testEntryNew("Ana Ortiz", "mia", 4))
	_, err = ms.Convert(ctx, tenantId, enrolled.Id, nil, 1)
	require.NoError(t, err)

	stats, err := ms.GetWaitlistStats(ctx, tenantId, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Waiting)
	assert.EqualValues(t, 1, stats.Offered)
	assert.EqualValues(t, 0, stats.Accepted)
	assert.EqualValues(t, 1, stats.EnrolledInWindow)
	assert.EqualValues(t, 2, stats.Active())

	// an enrolment outside the window is not counted
	backdate(t, ms, "converted_at", enrolled.Id, time.Now().Add(-100*24*time.Hour))
	stats, err = ms.GetWaitlistStats(ctx, tenantId, 90*24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 0, stats.EnrolledInWindow)
}

func TestGetInstrumentBreakdown(t *testing.T) {
	ms := newTestStore(t)
	ctx := context.Background()
	tenantId := newTestTenant(t, ms)

	for _, child := range []string{"olivia", "jack", "mia"} {
		_, err := ms.AddToWaitlist(ctx, tenantId, testEntryNew("Sarah Miller", child, 3), 1)
		require.NoError(t, err)
	}
	violin := testEntryNew("Tom Reed", "noah", 4)
	violin.InstrumentName = "violin"
	offered, err := ms.AddToWaitlist(ctx, tenantId, violin, 1)
	require.NoError(t, err)
	_, err = ms.OfferSlot(ctx, tenantId, offered.Id, testOffer(), 1)
	require.NoError(t, err)

	counts, err := ms.GetInstrumentBreakdown(ctx, tenantId)
	require.NoError(t, err)
	require.Len(t, counts, 2)

	// sorted by total descending
	assert.Equal(t, 3, counts[0].InstrumentId)
	assert.EqualValues(t, 3, counts[0].Waiting)
	assert.EqualValues(t, 0, counts[0].Offered)
	assert.EqualValues(t, 3, counts[0].Total)

	assert.Equal(t, 4, counts[1].InstrumentId)
	assert.EqualValues(t, 0, counts[1].Waiting)
	assert.EqualValues(t, 1, counts[1].Offered)
	assert.EqualValues(t, 1, counts[1].Total)
}

func TestTenantSettingsAffectOfferWindow(t *testing.T) {
	ms := newTestStore(t)
	ctx := context.Background()
	tenantId := newTestTenant(t, ms)

	require.NoError(t, ms.UpdateTenantSettings(ctx, tenantId, &entity.TenantSettingsUpdate{
		OfferExpiryHours:    24,
		WaitlistExpiryWeeks: 10,
	}))

	e, err := ms.AddToWaitlist(ctx, tenantId, testEntryNew("Sarah Miller", "olivia", 3), 1)
	require.NoError(t, err)
	got, err := ms.OfferSlot(ctx, tenantId, e.Id, testOffer(), 1)
	require.NoError(t, err)

	window := got.OfferExpiresAt.Time.Sub(got.OfferedAt.Time)
	assert.Equal(t, 24*time.Hour, window)
}

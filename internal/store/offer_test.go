package store

import (
	"context"
	"testing"
	"time"

	"github.com/lessonlane/studio-manager/internal/entity"
	gerr "github.com/lessonlane/studio-manager/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfferSlot(t *testing.T) {
	ms := newTestStore(t)
	ctx := context.Background()
	tenantId := newTestTenant(t, ms)

	e, err := ms.AddToWaitlist(ctx, tenantId, testEntryNew("Sarah Miller", "olivia", 3), 1)
	require.NoError(t, err)

	got, err := ms.OfferSlot(ctx, tenantId, e.Id, testOffer(), 1)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusOffered, got.Status)
	assert.True(t, got.HasOpenOffer())
	assert.Equal(t, "tuesday", got.OfferedWeekday.String)
	assert.Equal(t, "45.00", got.OfferedRateDecimal().StringFixed(2))
	require.True(t, got.OfferedAt.Valid)
	require.True(t, got.OfferExpiresAt.Valid)

	window := got.OfferExpiresAt.Time.Sub(got.OfferedAt.Time)
	assert.Equal(t, time.Duration(entity.DefaultOfferExpiryHours)*time.Hour, window)

	// only waiting entries can receive an offer
	_, err = ms.OfferSlot(ctx, tenantId, e.Id, testOffer(), 1)
	assert.Error(t, err)
}

func TestRespondToOffer(t *testing.T) {
	ms := newTestStore(t)
	ctx := context.Background()
	tenantId := newTestTenant(t, ms)

	accept, err := ms.AddToWaitlist(ctx, tenantId, testEntryNew("Sarah Miller", "olivia", 3), 1)
	require.NoError(t, err)
	decline, err := ms.AddToWaitlist(ctx, tenantId, testEntryNew("Tom Reed", "jack", 3), 1)
	require.NoError(t, err)

	_, err = ms.OfferSlot(ctx, tenantId, accept.Id, testOffer(), 1)
	require.NoError(t, err)
	_, err = ms.OfferSlot(ctx, tenantId, decline.Id, testOffer(), 1)
	require.NoError(t, err)

	got, err := ms.RespondToOffer(ctx, tenantId, accept.Id, true, 1)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAccepted, got.Status)
	assert.True(t, got.RespondedAt.Valid)
	assert.False(t, got.HasOpenOffer())

	got, err = ms.RespondToOffer(ctx, tenantId, decline.Id, false, 1)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDeclined, got.Status)

	// responding twice is a lifecycle violation
	_, err = ms.RespondToOffer(ctx, tenantId, accept.Id, false, 1)
	assert.Error(t, err)
}

func TestRespondToOverdueOfferRejected(t *testing.T) {
	ms := newTestStore(t)
	ctx := context.Background()
	tenantId := newTestTenant(t, ms)

	e, err := ms.AddToWaitlist(ctx, tenantId, testEntryNew("Sarah Miller", "olivia", 3), 1)
	require.NoError(t, err)
	_, err = ms.OfferSlot(ctx, tenantId, e.Id, testOffer(), 1)
	require.NoError(t, err)

	backdate(t, ms, "offer_expires_at", e.Id, time.Now().Add(-time.Hour))

	_, err = ms.RespondToOffer(ctx, tenantId, e.Id, true, 1)
	assert.ErrorIs(t, err, gerr.ErrOfferDeadlinePassed)

	// the sweeper has not run yet, so the stored status is still offered
	got, err := ms.GetEntryById(ctx, tenantId, e.Id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusOffered, got.Status)
}

func TestExpireOverdueOffers(t *testing.T) {
	ms := newTestStore(t)
	ctx := context.Background()
	tenantId := newTestTenant(t, ms)

	overdue, err := ms.AddToWaitlist(ctx, tenantId, testEntryNew("Sarah Miller", "olivia", 3), 1)
	require.NoError(t, err)
	fresh, err := ms.AddToWaitlist(ctx, tenantId, testEntryNew("Tom Reed", "jack", 3), 1)
	require.NoError(t, err)

	_, err = ms.OfferSlot(ctx, tenantId, overdue.Id, testOffer(), 1)
	require.NoError(t, err)
	_, err = ms.OfferSlot(ctx, tenantId, fresh.Id, testOffer(), 1)
	require.NoError(t, err)

	backdate(t, ms, "offer_expires_at", overdue.Id, time.Now().Add(-time.Hour))

	expired, err := ms.ExpireOverdueOffers(ctx, tenantId, 100)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, overdue.Id, expired[0].Id)

	got, err := ms.GetEntryById(ctx, tenantId, overdue.Id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusExpired, got.Status)

	got, err = ms.GetEntryById(ctx, tenantId, fresh.Id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusOffered, got.Status)

	// a second sweep finds nothing to do
	expired, err = ms.ExpireOverdueOffers(ctx, tenantId, 100)
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func TestExpireStaleWaiting(t *testing.T) {
	ms := newTestStore(t)
	ctx := context.Background()
	tenantId := newTestTenant(t, ms)

	stale1, err := ms.AddToWaitlist(ctx, tenantId, testEntryNew("Sarah Miller", "olivia", 3), 1)
	require.NoError(t, err)
	stale2, err := ms.AddToWaitlist(ctx, tenantId, testEntryNew("Tom Reed", "jack", 3), 1)
	require.NoError(t, err)
	fresh, err := ms.AddToWaitlist(ctx, tenantId, testEntryNew("Ana Ortiz", "mia", 3), 1)
	require.NoError(t, err)

	old := time.Now().Add(-time.Duration(entity.DefaultWaitlistExpiryWeeks+1) * 7 * 24 * time.Hour)
	backdate(t, ms, "created_at", stale1.Id, old)
	backdate(t, ms, "created_at", stale2.Id, old)

	expired, err := ms.ExpireStaleWaiting(ctx, tenantId, 100)
	require.NoError(t, err)
	assert.Len(t, expired, 2)

	// the survivor moved to the head of the queue
	positions := waitingPositions(t, ms, tenantId, 3)
	require.Len(t, positions, 1)
	assert.Equal(t, 1, positions[fresh.Id])

	// idempotent
	expired, err = ms.ExpireStaleWaiting(ctx, tenantId, 100)
	require.NoError(t, err)
	assert.Empty(t, expired)
}

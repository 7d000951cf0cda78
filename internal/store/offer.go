package store

import (
	"context"
	"fmt"
	"time"

	"github.com/lessonlane/studio-manager/internal/dependency"
	"github.com/lessonlane/studio-manager/internal/entity"
	gerr "github.com/lessonlane/studio-manager/internal/errors"
)

// OfferSlot proposes a lesson slot to a waiting entry. The offer clock starts
// at the transaction timestamp and runs for the tenant's configured window.
// The waiting position is released immediately so the queue stays dense while
// the family decides.
func (ms *MYSQLStore) OfferSlot(ctx context.Context, tenantId int, entryId int, offer *entity.SlotOffer, actor int) (*entity.WaitlistEntry, error) {
	if err := offer.Validate(); err != nil {
		return nil, err
	}

	var entry *entity.WaitlistEntry
	err := ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		current, err := getEntryForUpdate(ctx, rep, tenantId, entryId)
		if err != nil {
			return err
		}
		if current.Status != entity.StatusWaiting {
			return gerr.InvalidState(entity.StatusWaiting.String(), current.Status.String())
		}

		tenant, err := getTenant(ctx, rep, tenantId)
		if err != nil {
			return err
		}
		now := rep.Now()
		expiresAt := now.Add(time.Duration(tenant.OfferExpiry()) * time.Hour)

		err = ExecNamed(ctx, rep.DB(),
			`UPDATE waitlist_entry SET
				status = :status,
				offered_weekday = :weekday,
				offered_start_time = :startTime,
				offered_teacher_id = :teacherId,
				offered_location_id = :locationId,
				offered_rate = :rate,
				offered_at = :now,
				offer_expires_at = :expiresAt,
				responded_at = NULL,
				updated_at = :now
			WHERE id = :id AND tenant_id = :tenantId`,
			map[string]any{
				"status":     entity.StatusOffered,
				"weekday":    offer.Weekday,
				"startTime":  offer.StartTime,
				"teacherId":  offer.TeacherId,
				"locationId": offer.LocationId,
				"rate":       offer.RateMinor,
				"now":        now,
				"expiresAt":  expiresAt,
				"id":         entryId,
				"tenantId":   tenantId,
			})
		if err != nil {
			return fmt.Errorf("can't record slot offer: %w", err)
		}

		if err := releasePosition(ctx, rep, current); err != nil {
			return err
		}

		err = addActivity(ctx, rep, &entity.ActivityInsert{
			EntryId:      entryId,
			TenantId:     tenantId,
			ActivityType: entity.ActivityOffered,
			Description:  fmt.Sprintf("offered %s %s slot", offer.Weekday, offer.StartTime),
			Metadata: entity.Metadata{
				"weekday":     offer.Weekday,
				"start_time":  offer.StartTime,
				"teacher_id":  offer.TeacherId,
				"location_id": offer.LocationId,
				"rate":        offer.RateDecimal().String(),
				"expires_at":  expiresAt.Format(time.RFC3339),
			},
			ActorId: actor,
		})
		if err != nil {
			return err
		}

		entry, err = getEntryById(ctx, rep, tenantId, entryId)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// RespondToOffer records the family's decision on an open offer. An offer past
// its deadline can no longer be responded to, even if the sweeper has not
// stamped it expired yet.
func (ms *MYSQLStore) RespondToOffer(ctx context.Context, tenantId int, entryId int, accept bool, actor int) (*entity.WaitlistEntry, error) {
	var entry *entity.WaitlistEntry
	err := ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		current, err := getEntryForUpdate(ctx, rep, tenantId, entryId)
		if err != nil {
			return err
		}
		if current.Status != entity.StatusOffered {
			return gerr.InvalidState(entity.StatusOffered.String(), current.Status.String())
		}
		now := rep.Now()
		if current.OfferExpiresAt.Valid && !now.Before(current.OfferExpiresAt.Time) {
			return gerr.ErrOfferDeadlinePassed
		}

		status := entity.StatusDeclined
		activityType := entity.ActivityOfferDeclined
		description := "offer declined"
		if accept {
			status = entity.StatusAccepted
			activityType = entity.ActivityOfferAccepted
			description = "offer accepted"
		}

		err = ExecNamed(ctx, rep.DB(),
			`UPDATE waitlist_entry SET status = :status, responded_at = :now, updated_at = :now
			WHERE id = :id AND tenant_id = :tenantId`,
			map[string]any{
				"status":   status,
				"now":      now,
				"id":       entryId,
				"tenantId": tenantId,
			})
		if err != nil {
			return fmt.Errorf("can't record offer response: %w", err)
		}

		err = addActivity(ctx, rep, &entity.ActivityInsert{
			EntryId:      entryId,
			TenantId:     tenantId,
			ActivityType: activityType,
			Description:  description,
			Metadata: entity.Metadata{
				"weekday":    current.OfferedWeekday.String,
				"start_time": current.OfferedStartTime.String,
			},
			ActorId: actor,
		})
		if err != nil {
			return err
		}

		entry, err = getEntryById(ctx, rep, tenantId, entryId)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ExpireOverdueOffers stamps expired every open offer whose deadline has
// passed. Each expiry is guarded on the offered status so concurrent sweeps or
// late responses cannot double-transition an entry.
func (ms *MYSQLStore) ExpireOverdueOffers(ctx context.Context, tenantId int, limit int) ([]entity.WaitlistEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	var expired []entity.WaitlistEntry
	err := ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		now := rep.Now()
		overdue, err := QueryListNamed[entity.WaitlistEntry](ctx, rep.DB(),
			`SELECT * FROM waitlist_entry
			WHERE tenant_id = :tenantId AND status = :status AND offer_expires_at <= :now
			ORDER BY offer_expires_at LIMIT :limit FOR UPDATE`,
			map[string]any{
				"tenantId": tenantId,
				"status":   entity.StatusOffered,
				"now":      now,
				"limit":    limit,
			})
		if err != nil {
			return fmt.Errorf("can't get overdue offers: %w", err)
		}

		for _, e := range overdue {
			rows, err := ExecNamedRows(ctx, rep.DB(),
				`UPDATE waitlist_entry SET status = :expired, updated_at = :now
				WHERE id = :id AND tenant_id = :tenantId AND status = :offered`,
				map[string]any{
					"expired":  entity.StatusExpired,
					"offered":  entity.StatusOffered,
					"now":      now,
					"id":       e.Id,
					"tenantId": tenantId,
				})
			if err != nil {
				return fmt.Errorf("can't expire offer on entry %d: %w", e.Id, err)
			}
			if rows == 0 {
				continue
			}

			err = addActivity(ctx, rep, &entity.ActivityInsert{
				EntryId:      e.Id,
				TenantId:     tenantId,
				ActivityType: entity.ActivityOfferExpired,
				Description:  "offer expired without a response",
				Metadata: entity.Metadata{
					"offered_at": e.OfferedAt.Time.Format(time.RFC3339),
					"expired_at": e.OfferExpiresAt.Time.Format(time.RFC3339),
				},
			})
			if err != nil {
				return err
			}

			e.Status = entity.StatusExpired
			expired = append(expired, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

// ExpireStaleWaiting expires waiting entries older than the tenant's configured
// age limit and releases their queue positions. Entries are processed from the
// back of the queue so earlier releases don't shift positions still to be
// released.
func (ms *MYSQLStore) ExpireStaleWaiting(ctx context.Context, tenantId int, limit int) ([]entity.WaitlistEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	var expired []entity.WaitlistEntry
	err := ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		tenant, err := getTenant(ctx, rep, tenantId)
		if err != nil {
			return err
		}
		now := rep.Now()
		cutoff := now.Add(-time.Duration(tenant.WaitlistExpiry()) * 7 * 24 * time.Hour)

		stale, err := QueryListNamed[entity.WaitlistEntry](ctx, rep.DB(),
			`SELECT * FROM waitlist_entry
			WHERE tenant_id = :tenantId AND status = :status AND created_at <= :cutoff
			ORDER BY instrument_id, position DESC LIMIT :limit FOR UPDATE`,
			map[string]any{
				"tenantId": tenantId,
				"status":   entity.StatusWaiting,
				"cutoff":   cutoff,
				"limit":    limit,
			})
		if err != nil {
			return fmt.Errorf("can't get stale waiting entries: %w", err)
		}

		for _, e := range stale {
			rows, err := ExecNamedRows(ctx, rep.DB(),
				`UPDATE waitlist_entry SET status = :expired, updated_at = :now
				WHERE id = :id AND tenant_id = :tenantId AND status = :waiting`,
				map[string]any{
					"expired":  entity.StatusExpired,
					"waiting":  entity.StatusWaiting,
					"now":      now,
					"id":       e.Id,
					"tenantId": tenantId,
				})
			if err != nil {
				return fmt.Errorf("can't expire entry %d: %w", e.Id, err)
			}
			if rows == 0 {
				continue
			}

			if err := releasePosition(ctx, rep, &e); err != nil {
				return err
			}

			err = addActivity(ctx, rep, &entity.ActivityInsert{
				EntryId:      e.Id,
				TenantId:     tenantId,
				ActivityType: entity.ActivityExpired,
				Description:  fmt.Sprintf("expired after %d weeks on the waiting list", tenant.WaitlistExpiry()),
				Metadata: entity.Metadata{
					"created_at": e.CreatedAt.Format(time.RFC3339),
					"position":   e.Position,
				},
			})
			if err != nil {
				return err
			}

			e.Status = entity.StatusExpired
			expired = append(expired, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

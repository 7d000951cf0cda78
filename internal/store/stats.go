package store

import (
	"context"
	"fmt"
	"time"

	"github.com/lessonlane/studio-manager/internal/dependency"
	"github.com/lessonlane/studio-manager/internal/entity"
)

type statsStore struct {
	*MYSQLStore
}

// Stats returns an object implementing stats interface
func (ms *MYSQLStore) Stats() dependency.Stats {
	return &statsStore{
		MYSQLStore: ms,
	}
}

// GetWaitlistStats returns current status counts plus enrolments within the
// trailing window. A zero window defaults to 90 days.
func (ms *MYSQLStore) GetWaitlistStats(ctx context.Context, tenantId int, window time.Duration) (*entity.WaitlistStats, error) {
	if window <= 0 {
		window = 90 * 24 * time.Hour
	}
	since := ms.Now().Add(-window)

	stats, err := QueryNamedOne[entity.WaitlistStats](ctx, ms.DB(),
		`SELECT
			COUNT(CASE WHEN status = :waiting THEN 1 END) AS waiting_count,
			COUNT(CASE WHEN status = :offered THEN 1 END) AS offered_count,
			COUNT(CASE WHEN status = :accepted THEN 1 END) AS accepted_count,
			COUNT(CASE WHEN status = :enrolled AND converted_at >= :since THEN 1 END) AS enrolled_count
		FROM waitlist_entry
		WHERE tenant_id = :tenantId`,
		map[string]any{
			"waiting":  entity.StatusWaiting,
			"offered":  entity.StatusOffered,
			"accepted": entity.StatusAccepted,
			"enrolled": entity.StatusEnrolled,
			"since":    since,
			"tenantId": tenantId,
		})
	if err != nil {
		return nil, fmt.Errorf("can't get waitlist stats: %w", err)
	}
	return &stats, nil
}

// GetInstrumentBreakdown returns waiting and offered counts per instrument,
// largest queues first.
func (ms *MYSQLStore) GetInstrumentBreakdown(ctx context.Context, tenantId int) ([]entity.InstrumentCount, error) {
	counts, err := QueryListNamed[entity.InstrumentCount](ctx, ms.DB(),
		`SELECT
			instrument_id,
			instrument_name,
			COUNT(CASE WHEN status = :waiting THEN 1 END) AS waiting_count,
			COUNT(CASE WHEN status = :offered THEN 1 END) AS offered_count,
			COUNT(*) AS total_count
		FROM waitlist_entry
		WHERE tenant_id = :tenantId AND status IN (:statuses)
		GROUP BY instrument_id, instrument_name
		ORDER BY total_count DESC, instrument_name`,
		map[string]any{
			"waiting":  entity.StatusWaiting,
			"offered":  entity.StatusOffered,
			"tenantId": tenantId,
			"statuses": []entity.EntryStatus{entity.StatusWaiting, entity.StatusOffered},
		})
	if err != nil {
		return nil, fmt.Errorf("can't get instrument breakdown: %w", err)
	}
	return counts, nil
}

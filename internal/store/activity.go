package store

import (
	"context"
	"fmt"

	"github.com/lessonlane/studio-manager/internal/dependency"
	"github.com/lessonlane/studio-manager/internal/entity"
)

type activityStore struct {
	*MYSQLStore
}

// Activity returns an object implementing activity interface
func (ms *MYSQLStore) Activity() dependency.Activity {
	return &activityStore{
		MYSQLStore: ms,
	}
}

// AddActivity appends one audit row. Rows are immutable, there is no update
// or delete path.
func (ms *MYSQLStore) AddActivity(ctx context.Context, ai *entity.ActivityInsert) (int, error) {
	metadata, err := ai.Metadata.Value()
	if err != nil {
		return 0, err
	}
	id, err := ExecNamedLastId(ctx, ms.DB(),
		`INSERT INTO waitlist_activity (entry_id, tenant_id, activity_type, description, metadata, actor_id, created_at)
		VALUES (:entryId, :tenantId, :activityType, :description, :metadata, :actorId, :now)`,
		map[string]any{
			"entryId":      ai.EntryId,
			"tenantId":     ai.TenantId,
			"activityType": ai.ActivityType,
			"description":  ai.Description,
			"metadata":     metadata,
			"actorId":      nullActor(ai.ActorId),
			"now":          ms.Now(),
		})
	if err != nil {
		return 0, fmt.Errorf("can't insert activity: %w", err)
	}
	return id, nil
}

// GetActivitiesByEntryId returns the entry's audit trail, newest first.
func (ms *MYSQLStore) GetActivitiesByEntryId(ctx context.Context, tenantId int, entryId int) ([]entity.WaitlistActivity, error) {
	activities, err := QueryListNamed[entity.WaitlistActivity](ctx, ms.DB(),
		`SELECT * FROM waitlist_activity WHERE entry_id = :entryId AND tenant_id = :tenantId ORDER BY created_at DESC, id DESC`,
		map[string]any{"entryId": entryId, "tenantId": tenantId})
	if err != nil {
		return nil, fmt.Errorf("can't get activities: %w", err)
	}
	return activities, nil
}

func addActivity(ctx context.Context, rep dependency.Repository, ai *entity.ActivityInsert) error {
	_, err := rep.Activity().AddActivity(ctx, ai)
	return err
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/lessonlane/studio-manager/internal/dependency"
	"github.com/lessonlane/studio-manager/internal/entity"
	gerr "github.com/lessonlane/studio-manager/internal/errors"
)

type waitlistStore struct {
	*MYSQLStore
}

// Waitlist returns an object implementing waitlist interface
func (ms *MYSQLStore) Waitlist() dependency.Waitlist {
	return &waitlistStore{
		MYSQLStore: ms,
	}
}

// AddToWaitlist validates the new entry, assigns it the next queue position in
// its (tenant, instrument) partition and writes the created activity row.
func (ms *MYSQLStore) AddToWaitlist(ctx context.Context, tenantId int, en *entity.WaitlistEntryNew, actor int) (*entity.WaitlistEntry, error) {
	if err := en.Validate(); err != nil {
		return nil, err
	}

	var entry *entity.WaitlistEntry
	err := ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		position, err := nextWaitingPosition(ctx, rep, tenantId, en.InstrumentId)
		if err != nil {
			return fmt.Errorf("can't get next waiting position: %w", err)
		}

		query := `
		INSERT INTO waitlist_entry
			(uuid, tenant_id, lead_id, contact_name, contact_email, contact_phone,
			child_first_name, child_last_name, child_age, instrument_id, instrument_name,
			lesson_duration_min, preferred_teacher_id, preferred_location_id, preferred_weekdays,
			earliest_time, latest_time, experience_level, position, status, priority, source,
			notes, created_by, created_at, updated_at)
		VALUES
			(:uuid, :tenantId, :leadId, :contactName, :contactEmail, :contactPhone,
			:childFirstName, :childLastName, :childAge, :instrumentId, :instrumentName,
			:lessonDurationMin, :preferredTeacherId, :preferredLocationId, :preferredWeekdays,
			:earliestTime, :latestTime, :experienceLevel, :position, :status, :priority, :source,
			:notes, :createdBy, :now, :now)
		`
		weekdays, err := en.PreferredWeekdays.Value()
		if err != nil {
			return err
		}
		id, err := ExecNamedLastId(ctx, rep.DB(), query, map[string]any{
			"uuid":                uuid.New().String(),
			"tenantId":            tenantId,
			"leadId":              nullIntFromPtr(en.LeadId),
			"contactName":         en.ContactName,
			"contactEmail":        en.ContactEmail,
			"contactPhone":        en.ContactPhone,
			"childFirstName":      en.ChildFirstName,
			"childLastName":       en.ChildLastName,
			"childAge":            en.ChildAge,
			"instrumentId":        en.InstrumentId,
			"instrumentName":      en.InstrumentName,
			"lessonDurationMin":   en.LessonDurationMin,
			"preferredTeacherId":  nullIntFromPtr(en.PreferredTeacherId),
			"preferredLocationId": nullIntFromPtr(en.PreferredLocationId),
			"preferredWeekdays":   weekdays,
			"earliestTime":        nullStr(en.EarliestTime),
			"latestTime":          nullStr(en.LatestTime),
			"experienceLevel":     en.ExperienceLevel,
			"position":            position,
			"status":              entity.StatusWaiting,
			"priority":            en.Priority,
			"source":              en.Source,
			"notes":               en.Notes,
			"createdBy":           nullActor(actor),
			"now":                 rep.Now(),
		})
		if err != nil {
			return fmt.Errorf("can't insert waitlist entry: %w", err)
		}

		err = addActivity(ctx, rep, &entity.ActivityInsert{
			EntryId:      id,
			TenantId:     tenantId,
			ActivityType: entity.ActivityCreated,
			Description:  fmt.Sprintf("added to %s waiting list at position %d", en.InstrumentName, position),
			Metadata: entity.Metadata{
				"position": position,
				"source":   en.Source.String(),
			},
			ActorId: actor,
		})
		if err != nil {
			return err
		}

		entry, err = getEntryById(ctx, rep, tenantId, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetEntryById returns an entry scoped to the caller's tenant. Entries of other
// tenants are indistinguishable from missing ones.
func (ms *MYSQLStore) GetEntryById(ctx context.Context, tenantId int, entryId int) (*entity.WaitlistEntry, error) {
	return getEntryById(ctx, ms, tenantId, entryId)
}

// GetEntriesPaged returns a filtered page of entries plus the total match count.
func (ms *MYSQLStore) GetEntriesPaged(ctx context.Context, tenantId int, limit int, offset int, filter *entity.EntryFilter, orderFactor entity.OrderFactor) ([]entity.WaitlistEntry, int, error) {
	if limit <= 0 {
		limit = 50
	}
	where := []string{"tenant_id = :tenantId"}
	params := map[string]any{
		"tenantId": tenantId,
		"limit":    limit,
		"offset":   offset,
	}
	if filter != nil {
		if filter.Status != "" {
			if !entity.ValidEntryStatuses[filter.Status] {
				return nil, 0, &entity.ValidationError{Message: fmt.Sprintf("invalid status filter: %s", filter.Status)}
			}
			where = append(where, "status = :status")
			params["status"] = filter.Status
		}
		if filter.InstrumentId > 0 {
			where = append(where, "instrument_id = :instrumentId")
			params["instrumentId"] = filter.InstrumentId
		}
		if filter.Priority != "" {
			if !entity.ValidEntryPriorities[filter.Priority] {
				return nil, 0, &entity.ValidationError{Message: fmt.Sprintf("invalid priority filter: %s", filter.Priority)}
			}
			where = append(where, "priority = :priority")
			params["priority"] = filter.Priority
		}
		if filter.Search != "" {
			where = append(where, "(contact_name LIKE :search OR contact_email LIKE :search OR child_first_name LIKE :search OR child_last_name LIKE :search)")
			params["search"] = "%" + filter.Search + "%"
		}
	}
	whereClause := strings.Join(where, " AND ")

	count, err := QueryCountNamed(ctx, ms.DB(),
		`SELECT COUNT(*) FROM waitlist_entry WHERE `+whereClause, params)
	if err != nil {
		return nil, 0, fmt.Errorf("can't count waitlist entries: %w", err)
	}

	query := fmt.Sprintf(`SELECT * FROM waitlist_entry WHERE %s ORDER BY position %s, created_at %s LIMIT :limit OFFSET :offset`,
		whereClause, orderFactor.String(), orderFactor.String())
	entries, err := QueryListNamed[entity.WaitlistEntry](ctx, ms.DB(), query, params)
	if err != nil {
		return nil, 0, fmt.Errorf("can't get waitlist entries: %w", err)
	}

	return entries, int(count), nil
}

// UpdateEntry edits material fields of an entry and writes one updated activity
// row carrying the changed field set.
func (ms *MYSQLStore) UpdateEntry(ctx context.Context, tenantId int, entryId int, upd *entity.EntryUpdate, actor int) (*entity.WaitlistEntry, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}

	var entry *entity.WaitlistEntry
	err := ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		current, err := getEntryForUpdate(ctx, rep, tenantId, entryId)
		if err != nil {
			return err
		}

		sets, params, changed := buildEntryUpdate(current, upd)
		if len(sets) == 0 {
			entry = current
			return nil
		}
		params["id"] = entryId
		params["tenantId"] = tenantId
		params["now"] = rep.Now()

		query := fmt.Sprintf(`UPDATE waitlist_entry SET %s, updated_at = :now WHERE id = :id AND tenant_id = :tenantId`,
			strings.Join(sets, ", "))
		if err := ExecNamed(ctx, rep.DB(), query, params); err != nil {
			return fmt.Errorf("can't update waitlist entry: %w", err)
		}

		err = addActivity(ctx, rep, &entity.ActivityInsert{
			EntryId:      entryId,
			TenantId:     tenantId,
			ActivityType: entity.ActivityUpdated,
			Description:  "entry details updated",
			Metadata:     changed,
			ActorId:      actor,
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

// SetPriority changes the entry priority, logging old and new values in the
// activity metadata.
func (ms *MYSQLStore) SetPriority(ctx context.Context, tenantId int, entryId int, priority entity.EntryPriority, actor int) error {
	if !entity.ValidEntryPriorities[priority] {
		return &entity.ValidationError{Message: fmt.Sprintf("invalid priority: %s", priority)}
	}

	return ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		current, err := getEntryForUpdate(ctx, rep, tenantId, entryId)
		if err != nil {
			return err
		}
		if current.Priority == priority {
			return nil
		}

		err = ExecNamed(ctx, rep.DB(),
			`UPDATE waitlist_entry SET priority = :priority, updated_at = :now WHERE id = :id AND tenant_id = :tenantId`,
			map[string]any{
				"priority": priority,
				"id":       entryId,
				"tenantId": tenantId,
				"now":      rep.Now(),
			})
		if err != nil {
			return fmt.Errorf("can't update priority: %w", err)
		}

		return addActivity(ctx, rep, &entity.ActivityInsert{
			EntryId:      entryId,
			TenantId:     tenantId,
			ActivityType: entity.ActivityPriorityChanged,
			Description:  fmt.Sprintf("priority changed from %s to %s", current.Priority, priority),
			Metadata: entity.Metadata{
				"old_priority": current.Priority.String(),
				"new_priority": priority.String(),
			},
			ActorId: actor,
		})
	})
}

// Reorder reassigns positions 1..N over the waiting entries of one
// (tenant, instrument) partition. The id list must be exactly the partition's
// current waiting set.
func (ms *MYSQLStore) Reorder(ctx context.Context, tenantId int, instrumentId int, orderedIds []int, actor int) error {
	if len(orderedIds) == 0 {
		return &entity.ValidationError{Message: "ordered id list is empty"}
	}

	return ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		waiting, err := QueryListNamed[entity.WaitlistEntry](ctx, rep.DB(),
			`SELECT * FROM waitlist_entry
			WHERE tenant_id = :tenantId AND instrument_id = :instrumentId AND status = :status
			ORDER BY position FOR UPDATE`,
			map[string]any{
				"tenantId":     tenantId,
				"instrumentId": instrumentId,
				"status":       entity.StatusWaiting,
			})
		if err != nil {
			return fmt.Errorf("can't get waiting entries: %w", err)
		}

		if len(waiting) != len(orderedIds) {
			return &entity.ValidationError{Message: fmt.Sprintf("expected %d entry ids, got %d", len(waiting), len(orderedIds))}
		}
		byId := make(map[int]entity.WaitlistEntry, len(waiting))
		for _, e := range waiting {
			byId[e.Id] = e
		}

		for idx, id := range orderedIds {
			e, ok := byId[id]
			if !ok {
				return &entity.ValidationError{Message: fmt.Sprintf("entry %d is not waiting in this partition", id)}
			}
			newPosition := idx + 1
			if e.Position == newPosition {
				continue
			}

			err := ExecNamed(ctx, rep.DB(),
				`UPDATE waitlist_entry SET position = :position, updated_at = :now WHERE id = :id AND tenant_id = :tenantId`,
				map[string]any{
					"position": newPosition,
					"id":       id,
					"tenantId": tenantId,
					"now":      rep.Now(),
				})
			if err != nil {
				return fmt.Errorf("can't reposition entry %d: %w", id, err)
			}

			err = addActivity(ctx, rep, &entity.ActivityInsert{
				EntryId:      id,
				TenantId:     tenantId,
				ActivityType: entity.ActivityPositionChanged,
				Description:  fmt.Sprintf("moved from position %d to %d", e.Position, newPosition),
				Metadata: entity.Metadata{
					"old_position": e.Position,
					"new_position": newPosition,
				},
				ActorId: actor,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Withdraw moves a non-terminal entry to withdrawn. The queue position is
// compacted only when the entry was still waiting: once it left waiting (e.g.
// through an offer) its stored position no longer occupies a queue slot.
func (ms *MYSQLStore) Withdraw(ctx context.Context, tenantId int, entryId int, actor int) error {
	return ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		current, err := getEntryForUpdate(ctx, rep, tenantId, entryId)
		if err != nil {
			return err
		}
		if !current.Status.CanTransition(entity.StatusWithdrawn) {
			return gerr.InvalidState("waiting, offered or accepted", current.Status.String())
		}

		err = ExecNamed(ctx, rep.DB(),
			`UPDATE waitlist_entry SET status = :status, updated_at = :now WHERE id = :id AND tenant_id = :tenantId`,
			map[string]any{
				"status":   entity.StatusWithdrawn,
				"id":       entryId,
				"tenantId": tenantId,
				"now":      rep.Now(),
			})
		if err != nil {
			return fmt.Errorf("can't withdraw entry: %w", err)
		}

		if current.Status == entity.StatusWaiting {
			if err := releasePosition(ctx, rep, current); err != nil {
				return err
			}
		}

		return addActivity(ctx, rep, &entity.ActivityInsert{
			EntryId:      entryId,
			TenantId:     tenantId,
			ActivityType: entity.ActivityWithdrawn,
			Description:  "entry withdrawn",
			Metadata: entity.Metadata{
				"from_status": current.Status.String(),
			},
			ActorId: actor,
		})
	})
}

// MarkLost is the administrative override for unresponsive families. Valid from
// any non-terminal state.
func (ms *MYSQLStore) MarkLost(ctx context.Context, tenantId int, entryId int, actor int, reason string) error {
	return ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		current, err := getEntryForUpdate(ctx, rep, tenantId, entryId)
		if err != nil {
			return err
		}
		if !current.Status.CanTransition(entity.StatusLost) {
			return gerr.InvalidState("a non-terminal state", current.Status.String())
		}

		err = ExecNamed(ctx, rep.DB(),
			`UPDATE waitlist_entry SET status = :status, updated_at = :now WHERE id = :id AND tenant_id = :tenantId`,
			map[string]any{
				"status":   entity.StatusLost,
				"id":       entryId,
				"tenantId": tenantId,
				"now":      rep.Now(),
			})
		if err != nil {
			return fmt.Errorf("can't mark entry lost: %w", err)
		}

		if current.Status == entity.StatusWaiting {
			if err := releasePosition(ctx, rep, current); err != nil {
				return err
			}
		}

		md := entity.Metadata{"from_status": current.Status.String()}
		if reason != "" {
			md["reason"] = reason
		}
		return addActivity(ctx, rep, &entity.ActivityInsert{
			EntryId:      entryId,
			TenantId:     tenantId,
			ActivityType: entity.ActivityLost,
			Description:  "entry marked lost",
			Metadata:     md,
			ActorId:      actor,
		})
	})
}

// nextWaitingPosition returns max(position)+1 over the waiting entries of the
// partition, starting at 1 when the partition is empty.
func nextWaitingPosition(ctx context.Context, rep dependency.Repository, tenantId, instrumentId int) (int, error) {
	max, err := QueryCountNamed(ctx, rep.DB(),
		`SELECT COALESCE(MAX(position), 0) FROM waitlist_entry
		WHERE tenant_id = :tenantId AND instrument_id = :instrumentId AND status = :status FOR UPDATE`,
		map[string]any{
			"tenantId":     tenantId,
			"instrumentId": instrumentId,
			"status":       entity.StatusWaiting,
		})
	if err != nil {
		return 0, err
	}
	return int(max) + 1, nil
}

// releasePosition compacts the waiting queue after the entry left it: every
// waiting entry of the same partition positioned behind it moves up by one.
// Callers must only pass entries whose recorded position was taken while the
// entry was actually waiting.
func releasePosition(ctx context.Context, rep dependency.Repository, e *entity.WaitlistEntry) error {
	err := ExecNamed(ctx, rep.DB(),
		`UPDATE waitlist_entry SET position = position - 1
		WHERE tenant_id = :tenantId AND instrument_id = :instrumentId AND status = :status AND position > :position`,
		map[string]any{
			"tenantId":     e.TenantId,
			"instrumentId": e.InstrumentId,
			"status":       entity.StatusWaiting,
			"position":     e.Position,
		})
	if err != nil {
		return fmt.Errorf("can't compact queue positions: %w", err)
	}
	return nil
}

func getEntryById(ctx context.Context, rep dependency.Repository, tenantId, entryId int) (*entity.WaitlistEntry, error) {
	entry, err := QueryNamedOne[entity.WaitlistEntry](ctx, rep.DB(),
		`SELECT * FROM waitlist_entry WHERE id = :id AND tenant_id = :tenantId`,
		map[string]any{"id": entryId, "tenantId": tenantId})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gerr.ErrEntryNotFound
		}
		return nil, fmt.Errorf("can't get waitlist entry: %w", err)
	}
	return &entry, nil
}

// getEntryForUpdate loads the entry with a row lock so concurrent mutations of
// the same entry serialize.
func getEntryForUpdate(ctx context.Context, rep dependency.Repository, tenantId, entryId int) (*entity.WaitlistEntry, error) {
	entry, err := QueryNamedOne[entity.WaitlistEntry](ctx, rep.DB(),
		`SELECT * FROM waitlist_entry WHERE id = :id AND tenant_id = :tenantId FOR UPDATE`,
		map[string]any{"id": entryId, "tenantId": tenantId})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gerr.ErrEntryNotFound
		}
		return nil, fmt.Errorf("can't get waitlist entry: %w", err)
	}
	return &entry, nil
}

func buildEntryUpdate(current *entity.WaitlistEntry, upd *entity.EntryUpdate) ([]string, map[string]any, entity.Metadata) {
	sets := make([]string, 0, 8)
	params := map[string]any{}
	changed := entity.Metadata{}

	setStr := func(column, param string, old string, val *string) {
		if val == nil || *val == old {
			return
		}
		sets = append(sets, fmt.Sprintf("%s = :%s", column, param))
		params[param] = *val
		changed[column] = entity.Metadata{"old": old, "new": *val}
	}
	setInt := func(column, param string, old int, val *int) {
		if val == nil || *val == old {
			return
		}
		sets = append(sets, fmt.Sprintf("%s = :%s", column, param))
		params[param] = *val
		changed[column] = entity.Metadata{"old": old, "new": *val}
	}

	setStr("contact_name", "contactName", current.ContactName, upd.ContactName)
	setStr("contact_email", "contactEmail", current.ContactEmail, upd.ContactEmail)
	setStr("contact_phone", "contactPhone", current.ContactPhone, upd.ContactPhone)
	setStr("child_first_name", "childFirstName", current.ChildFirstName, upd.ChildFirstName)
	setStr("child_last_name", "childLastName", current.ChildLastName, upd.ChildLastName)
	setInt("child_age", "childAge", current.ChildAge, upd.ChildAge)
	setInt("lesson_duration_min", "lessonDurationMin", current.LessonDurationMin, upd.LessonDurationMin)
	setInt("preferred_teacher_id", "preferredTeacherId", int(current.PreferredTeacherId.Int32), upd.PreferredTeacherId)
	setInt("preferred_location_id", "preferredLocationId", int(current.PreferredLocationId.Int32), upd.PreferredLocationId)
	setStr("earliest_time", "earliestTime", current.EarliestTime.String, upd.EarliestTime)
	setStr("latest_time", "latestTime", current.LatestTime.String, upd.LatestTime)
	setStr("experience_level", "experienceLevel", current.ExperienceLevel, upd.ExperienceLevel)
	setStr("notes", "notes", current.Notes, upd.Notes)

	if upd.PreferredWeekdays != nil && !slices.Equal(*upd.PreferredWeekdays, current.PreferredWeekdays) {
		if v, err := upd.PreferredWeekdays.Value(); err == nil {
			sets = append(sets, "preferred_weekdays = :preferredWeekdays")
			params["preferredWeekdays"] = v
			changed["preferred_weekdays"] = entity.Metadata{
				"old": []string(current.PreferredWeekdays),
				"new": []string(*upd.PreferredWeekdays),
			}
		}
	}

	return sets, params, changed
}

func nullIntFromPtr(v *int) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*v), Valid: true}
}

func nullActor(actor int) sql.NullInt32 {
	if actor <= 0 {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(actor), Valid: true}
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

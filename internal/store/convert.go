package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lessonlane/studio-manager/internal/dependency"
	"github.com/lessonlane/studio-manager/internal/entity"
	gerr "github.com/lessonlane/studio-manager/internal/errors"
)

// Convert turns an accepted entry into an enrolled student inside one
// transaction: the guardian is resolved or created from the entry's contact
// details, the student is created and linked to the guardian as primary payer,
// and the entry is stamped enrolled. Partial conversions cannot be observed.
func (ms *MYSQLStore) Convert(ctx context.Context, tenantId int, entryId int, teacherOverride *int, actor int) (*entity.Student, error) {
	var student *entity.Student
	err := ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		entry, err := getEntryForUpdate(ctx, rep, tenantId, entryId)
		if err != nil {
			return err
		}
		if entry.Status != entity.StatusAccepted {
			return gerr.InvalidState(entity.StatusAccepted.String(), entry.Status.String())
		}

		guardianId, err := resolveGuardian(ctx, rep, tenantId, entry)
		if err != nil {
			return err
		}

		studentId, err := insertStudent(ctx, rep, tenantId, entry, teacherOverride)
		if err != nil {
			return err
		}

		err = linkStudentGuardian(ctx, rep, &entity.StudentGuardian{
			StudentId:    studentId,
			GuardianId:   guardianId,
			PrimaryPayer: true,
			CreatedAt:    rep.Now(),
		})
		if err != nil {
			return err
		}

		err = ExecNamed(ctx, rep.DB(),
			`UPDATE waitlist_entry SET
				status = :status,
				guardian_id = :guardianId,
				converted_student_id = :studentId,
				converted_at = :now,
				updated_at = :now
			WHERE id = :id AND tenant_id = :tenantId`,
			map[string]any{
				"status":     entity.StatusEnrolled,
				"guardianId": guardianId,
				"studentId":  studentId,
				"now":        rep.Now(),
				"id":         entryId,
				"tenantId":   tenantId,
			})
		if err != nil {
			return fmt.Errorf("can't stamp entry enrolled: %w", err)
		}

		err = addActivity(ctx, rep, &entity.ActivityInsert{
			EntryId:      entryId,
			TenantId:     tenantId,
			ActivityType: entity.ActivityEnrolled,
			Description:  fmt.Sprintf("converted to student %d", studentId),
			Metadata: entity.Metadata{
				"student_id":  studentId,
				"guardian_id": guardianId,
			},
			ActorId: actor,
		})
		if err != nil {
			return err
		}

		student, err = getStudentById(ctx, rep, tenantId, studentId)
		return err
	})
	if err != nil {
		return nil, err
	}
	return student, nil
}

// resolveGuardian reuses the guardian already linked to the entry, falls back
// to a tenant-scoped email lookup, and creates a new guardian from the entry's
// contact details when neither exists.
func resolveGuardian(ctx context.Context, rep dependency.Repository, tenantId int, entry *entity.WaitlistEntry) (int, error) {
	if entry.GuardianId.Valid {
		g, err := getGuardianById(ctx, rep, tenantId, int(entry.GuardianId.Int32))
		if err != nil {
			return 0, err
		}
		return g.Id, nil
	}

	g, err := getGuardianByEmail(ctx, rep, tenantId, entry.ContactEmail)
	if err == nil {
		return g.Id, nil
	}
	if err != gerr.ErrGuardianNotFound {
		return 0, err
	}

	return rep.Guardians().AddGuardian(ctx, tenantId, &entity.GuardianInsert{
		Name:  entry.ContactName,
		Email: entry.ContactEmail,
		Phone: entry.ContactPhone,
	})
}

// insertStudent creates the student row. The teacher resolves in order:
// explicit override, the offered slot's teacher, the entry's preferred
// teacher, otherwise unset.
func insertStudent(ctx context.Context, rep dependency.Repository, tenantId int, entry *entity.WaitlistEntry, teacherOverride *int) (int, error) {
	var teacherId sql.NullInt32
	switch {
	case teacherOverride != nil && *teacherOverride > 0:
		teacherId = sql.NullInt32{Int32: int32(*teacherOverride), Valid: true}
	case entry.OfferedTeacherId.Valid:
		teacherId = entry.OfferedTeacherId
	case entry.PreferredTeacherId.Valid:
		teacherId = entry.PreferredTeacherId
	}

	return addStudent(ctx, rep, tenantId, &entity.StudentInsert{
		FirstName: entry.ChildFirstName,
		LastName:  entry.ChildLastName,
		TeacherId: teacherId,
	})
}

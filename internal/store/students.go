package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lessonlane/studio-manager/internal/dependency"
	"github.com/lessonlane/studio-manager/internal/entity"
	gerr "github.com/lessonlane/studio-manager/internal/errors"
)

type studentsStore struct {
	*MYSQLStore
}

// Students returns an object implementing students interface
func (ms *MYSQLStore) Students() dependency.Students {
	return &studentsStore{
		MYSQLStore: ms,
	}
}

func (ms *MYSQLStore) GetStudentById(ctx context.Context, tenantId int, id int) (*entity.Student, error) {
	return getStudentById(ctx, ms, tenantId, id)
}

func getStudentById(ctx context.Context, rep dependency.Repository, tenantId, id int) (*entity.Student, error) {
	s, err := QueryNamedOne[entity.Student](ctx, rep.DB(),
		`SELECT * FROM student WHERE id = :id AND tenant_id = :tenantId`,
		map[string]any{"id": id, "tenantId": tenantId})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gerr.ErrStudentNotFound
		}
		return nil, fmt.Errorf("can't get student: %w", err)
	}
	return &s, nil
}

func addStudent(ctx context.Context, rep dependency.Repository, tenantId int, si *entity.StudentInsert) (int, error) {
	id, err := ExecNamedLastId(ctx, rep.DB(),
		`INSERT INTO student (tenant_id, first_name, last_name, teacher_id, status, created_at)
		VALUES (:tenantId, :firstName, :lastName, :teacherId, :status, :now)`,
		map[string]any{
			"tenantId":  tenantId,
			"firstName": si.FirstName,
			"lastName":  si.LastName,
			"teacherId": si.TeacherId,
			"status":    entity.StudentActive,
			"now":       rep.Now(),
		})
	if err != nil {
		return 0, fmt.Errorf("can't insert student: %w", err)
	}
	return id, nil
}

func linkStudentGuardian(ctx context.Context, rep dependency.Repository, link *entity.StudentGuardian) error {
	err := ExecNamed(ctx, rep.DB(),
		`INSERT INTO student_guardian (student_id, guardian_id, primary_payer, created_at)
		VALUES (:studentId, :guardianId, :primaryPayer, :now)`,
		map[string]any{
			"studentId":    link.StudentId,
			"guardianId":   link.GuardianId,
			"primaryPayer": link.PrimaryPayer,
			"now":          link.CreatedAt,
		})
	if err != nil {
		return fmt.Errorf("can't link student to guardian: %w", err)
	}
	return nil
}

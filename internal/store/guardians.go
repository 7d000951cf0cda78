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

type guardiansStore struct {
	*MYSQLStore
}

// Guardians returns an object implementing guardians interface
func (ms *MYSQLStore) Guardians() dependency.Guardians {
	return &guardiansStore{
		MYSQLStore: ms,
	}
}

// AddGuardian inserts a guardian. Emails are unique per tenant, a duplicate
// insert resolves to the existing guardian instead of failing.
func (ms *MYSQLStore) AddGuardian(ctx context.Context, tenantId int, gi *entity.GuardianInsert) (int, error) {
	id, err := ExecNamedLastId(ctx, ms.DB(),
		`INSERT INTO guardian (tenant_id, name, email, phone, created_at)
		VALUES (:tenantId, :name, :email, :phone, :now)`,
		map[string]any{
			"tenantId": tenantId,
			"name":     gi.Name,
			"email":    gi.Email,
			"phone":    gi.Phone,
			"now":      ms.Now(),
		})
	if err != nil {
		if ms.IsErrUniqueViolation(err) {
			existing, lookupErr := getGuardianByEmail(ctx, ms, tenantId, gi.Email)
			if lookupErr != nil {
				return 0, lookupErr
			}
			return existing.Id, nil
		}
		return 0, fmt.Errorf("can't insert guardian: %w", err)
	}
	return id, nil
}

func (ms *MYSQLStore) GetGuardianById(ctx context.Context, tenantId int, id int) (*entity.Guardian, error) {
	return getGuardianById(ctx, ms, tenantId, id)
}

func (ms *MYSQLStore) GetGuardianByEmail(ctx context.Context, tenantId int, email string) (*entity.Guardian, error) {
	return getGuardianByEmail(ctx, ms, tenantId, email)
}

func getGuardianById(ctx context.Context, rep dependency.Repository, tenantId, id int) (*entity.Guardian, error) {
	g, err := QueryNamedOne[entity.Guardian](ctx, rep.DB(),
		`SELECT * FROM guardian WHERE id = :id AND tenant_id = :tenantId`,
		map[string]any{"id": id, "tenantId": tenantId})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gerr.ErrGuardianNotFound
		}
		return nil, fmt.Errorf("can't get guardian: %w", err)
	}
	return &g, nil
}

func getGuardianByEmail(ctx context.Context, rep dependency.Repository, tenantId int, email string) (*entity.Guardian, error) {
	g, err := QueryNamedOne[entity.Guardian](ctx, rep.DB(),
		`SELECT * FROM guardian WHERE tenant_id = :tenantId AND email = :email`,
		map[string]any{"tenantId": tenantId, "email": email})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gerr.ErrGuardianNotFound
		}
		return nil, fmt.Errorf("can't get guardian by email: %w", err)
	}
	return &g, nil
}

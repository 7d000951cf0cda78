package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lessonlane/studio-manager/internal/cache"
	"github.com/lessonlane/studio-manager/internal/dependency"
	"github.com/lessonlane/studio-manager/internal/entity"
	gerr "github.com/lessonlane/studio-manager/internal/errors"
)

type tenantsStore struct {
	*MYSQLStore
}

// Tenants returns an object implementing tenants interface
func (ms *MYSQLStore) Tenants() dependency.Tenants {
	return &tenantsStore{
		MYSQLStore: ms,
	}
}

func (ms *MYSQLStore) AddTenant(ctx context.Context, name string) (*entity.Tenant, error) {
	if name == "" {
		return nil, &entity.ValidationError{Message: "tenant name must not be empty"}
	}
	id, err := ExecNamedLastId(ctx, ms.DB(),
		`INSERT INTO tenant (name, offer_expiry_hours, waitlist_expiry_weeks, active, created_at)
		VALUES (:name, :offerExpiryHours, :waitlistExpiryWeeks, TRUE, :now)`,
		map[string]any{
			"name":                name,
			"offerExpiryHours":    entity.DefaultOfferExpiryHours,
			"waitlistExpiryWeeks": entity.DefaultWaitlistExpiryWeeks,
			"now":                 ms.Now(),
		})
	if err != nil {
		return nil, fmt.Errorf("can't insert tenant: %w", err)
	}

	tenant, err := ms.GetTenantById(ctx, id)
	if err != nil {
		return nil, err
	}
	cache.UpsertTenant(*tenant)
	return tenant, nil
}

func (ms *MYSQLStore) GetTenantById(ctx context.Context, id int) (*entity.Tenant, error) {
	t, err := QueryNamedOne[entity.Tenant](ctx, ms.DB(),
		`SELECT * FROM tenant WHERE id = :id`,
		map[string]any{"id": id})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gerr.ErrTenantNotFound
		}
		return nil, fmt.Errorf("can't get tenant: %w", err)
	}
	return &t, nil
}

func (ms *MYSQLStore) ListActiveTenants(ctx context.Context) ([]entity.Tenant, error) {
	tenants, err := QueryListNamed[entity.Tenant](ctx, ms.DB(),
		`SELECT * FROM tenant WHERE active = TRUE ORDER BY id`,
		map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("can't list active tenants: %w", err)
	}
	return tenants, nil
}

// UpdateTenantSettings changes the tenant's waitlist knobs and refreshes the
// settings cache.
func (ms *MYSQLStore) UpdateTenantSettings(ctx context.Context, id int, upd *entity.TenantSettingsUpdate) error {
	if err := upd.Validate(); err != nil {
		return err
	}

	rows, err := ExecNamedRows(ctx, ms.DB(),
		`UPDATE tenant SET offer_expiry_hours = :offerExpiryHours, waitlist_expiry_weeks = :waitlistExpiryWeeks
		WHERE id = :id`,
		map[string]any{
			"offerExpiryHours":    upd.OfferExpiryHours,
			"waitlistExpiryWeeks": upd.WaitlistExpiryWeeks,
			"id":                  id,
		})
	if err != nil {
		return fmt.Errorf("can't update tenant settings: %w", err)
	}
	if rows == 0 {
		return gerr.ErrTenantNotFound
	}

	tenant, err := ms.GetTenantById(ctx, id)
	if err != nil {
		return err
	}
	cache.UpsertTenant(*tenant)
	return nil
}

// getTenant resolves tenant settings from the in-process cache, falling back
// to the database and repopulating the cache on a miss.
func getTenant(ctx context.Context, rep dependency.Repository, tenantId int) (*entity.Tenant, error) {
	if t, ok := cache.GetTenant(tenantId); ok {
		return &t, nil
	}
	t, err := rep.Tenants().GetTenantById(ctx, tenantId)
	if err != nil {
		return nil, err
	}
	cache.UpsertTenant(*t)
	return t, nil
}

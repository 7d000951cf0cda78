package cache

import (
	"sync"

	"github.com/lessonlane/studio-manager/internal/entity"
)

var (
	tenantsMu sync.RWMutex
	tenants   = map[int]entity.Tenant{}
)

// InitTenants replaces the cache content with the given tenants.
func InitTenants(list []entity.Tenant) {
	tenantsMu.Lock()
	defer tenantsMu.Unlock()
	tenants = make(map[int]entity.Tenant, len(list))
	for _, t := range list {
		tenants[t.Id] = t
	}
}

// GetTenant returns the cached tenant and whether it was present.
func GetTenant(id int) (entity.Tenant, bool) {
	tenantsMu.RLock()
	defer tenantsMu.RUnlock()
	t, ok := tenants[id]
	return t, ok
}

// UpsertTenant adds or refreshes one tenant.
func UpsertTenant(t entity.Tenant) {
	tenantsMu.Lock()
	defer tenantsMu.Unlock()
	tenants[t.Id] = t
}

// DeleteTenant drops one tenant from the cache.
func DeleteTenant(id int) {
	tenantsMu.Lock()
	defer tenantsMu.Unlock()
	delete(tenants, id)
}

// ActiveTenantIds returns the ids of cached active tenants.
func ActiveTenantIds() []int {
	tenantsMu.RLock()
	defer tenantsMu.RUnlock()
	ids := make([]int, 0, len(tenants))
	for id, t := range tenants {
		if t.Active {
			ids = append(ids, id)
		}
	}
	return ids
}

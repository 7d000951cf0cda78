package cache

import (
	"testing"

	"github.com/lessonlane/studio-manager/internal/entity"
	"github.com/stretchr/testify/assert"
)

func TestTenantCache(t *testing.T) {
	InitTenants([]entity.Tenant{
		{Id: 1, Name: "Riverside Music School", Active: true},
		{Id: 2, Name: "Harbour Strings", Active: false},
	})

	got, ok := GetTenant(1)
	assert.True(t, ok)
	assert.Equal(t, "Riverside Music School", got.Name)

	_, ok = GetTenant(99)
	assert.False(t, ok)

	UpsertTenant(entity.Tenant{Id: 3, Name: "Northside Academy", Active: true})
	got, ok = GetTenant(3)
	assert.True(t, ok)
	assert.Equal(t, "Northside Academy", got.Name)

	ids := ActiveTenantIds()
	assert.ElementsMatch(t, []int{1, 3}, ids)

	DeleteTenant(1)
	_, ok = GetTenant(1)
	assert.False(t, ok)
}

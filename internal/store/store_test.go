package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/lessonlane/studio-manager/internal/entity"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *MYSQLStore {
	dsn := os.Getenv("STUDIO_TEST_DSN")
	if dsn == "" {
		t.Skip("STUDIO_TEST_DSN is not set")
	}

	ms, err := NewForTest(context.Background(), Config{
		DSN:         dsn,
		Automigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(ms.Close)
	return ms
}

func newTestTenant(t *testing.T, ms *MYSQLStore) int {
	tenant, err := ms.AddTenant(context.Background(),
		fmt.Sprintf("test tenant %s %d", t.Name(), time.Now().UnixNano()))
	require.NoError(t, err)
	return tenant.Id
}

func testEntryNew(contact, child string, instrumentId int) *entity.WaitlistEntryNew {
	return &entity.WaitlistEntryNew{
		ContactName:    contact,
		ContactEmail:   fmt.Sprintf("%s@example.com", child),
		ChildFirstName: child,
		InstrumentId:   instrumentId,
		InstrumentName: "piano",
	}
}

func testOffer() *entity.SlotOffer {
	return &entity.SlotOffer{
		Weekday:    "tuesday",
		StartTime:  "16:30",
		TeacherId:  7,
		LocationId: 2,
		RateMinor:  4500,
	}
}

// backdate rewrites timestamps directly, bypassing the store API, to simulate
// the passage of time in expiry tests.
func backdate(t *testing.T, ms *MYSQLStore, column string, entryId int, to time.Time) {
	err := ExecNamed(context.Background(), ms.DB(),
		fmt.Sprintf(`UPDATE waitlist_entry SET %s = :to WHERE id = :id`, column),
		map[string]any{"to": to, "id": entryId})
	require.NoError(t, err)
}

func waitingPositions(t *testing.T, ms *MYSQLStore, tenantId, instrumentId int) map[int]int {
	entries, _, err := ms.GetEntriesPaged(context.Background(), tenantId, 100, 0,
		&entity.EntryFilter{Status: entity.StatusWaiting, InstrumentId: instrumentId}, entity.Ascending)
	require.NoError(t, err)

	positions := make(map[int]int, len(entries))
	for _, e := range entries {
		positions[e.Id] = e.Position
	}
	return positions
}

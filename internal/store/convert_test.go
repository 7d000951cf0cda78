package store

import (
	"context"
	"errors"
	"testing"

	"github.com/lessonlane/studio-manager/internal/dependency"
	"github.com/lessonlane/studio-manager/internal/entity"
	gerr "github.com/lessonlane/studio-manager/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countTenantRows(t *testing.T, ms *MYSQLStore, query string, tenantId int) int32 {
	count, err := QueryCountNamed(context.Background(), ms.DB(), query,
		map[string]any{"tenantId": tenantId})
	require.NoError(t, err)
	return count
}

func acceptedEntry(t *testing.T, ms *MYSQLStore, tenantId int, en *entity.WaitlistEntryNew) *entity.WaitlistEntry {
	ctx := context.Background()
	e, err := ms.AddToWaitlist(ctx, tenantId, en, 1)
	require.NoError(t, err)
	_, err = ms.OfferSlot(ctx, tenantId, e.Id, testOffer(), 1)
	require.NoError(t, err)
	got, err := ms.RespondToOffer(ctx, tenantId, e.Id, true, 1)
	require.NoError(t, err)
	return got
}

func TestConvert(t *testing.T) {
	ms := newTestStore(t)
	ctx := context.Background()
	tenantId := newTestTenant(t, ms)

	e := acceptedEntry(t, ms, tenantId, testEntryNew("Sarah Miller", "olivia", 3))

	student, err := ms.Convert(ctx, tenantId, e.Id, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, "olivia", student.FirstName)
	assert.Equal(t, entity.StudentActive, student.Status)
	// teacher comes from the offered slot
	require.True(t, student.TeacherId.Valid)
	assert.EqualValues(t, 7, student.TeacherId.Int32)

	got, err := ms.GetEntryById(ctx, tenantId, e.Id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusEnrolled, got.Status)
	require.True(t, got.ConvertedStudentId.Valid)
	assert.EqualValues(t, student.Id, got.ConvertedStudentId.Int32)
	assert.True(t, got.ConvertedAt.Valid)
	assert.True(t, got.GuardianId.Valid)

	guardian, err := ms.GetGuardianById(ctx, tenantId, int(got.GuardianId.Int32))
	require.NoError(t, err)
	assert.Equal(t, "Sarah Miller", guardian.Name)
	assert.Equal(t, "olivia@example.com", guardian.Email)

	// converting twice is a lifecycle violation
	_, err = ms.Convert(ctx, tenantId, e.Id, nil, 1)
	assert.Error(t, err)
}

func TestConvertReusesGuardianByEmail(t *testing.T) {
	ms := newTestStore(t)
	ctx := context.Background()
	tenantId := newTestTenant(t, ms)

	first := acceptedEntry(t, ms, tenantId, testEntryNew("Sarah Miller", "olivia", 3))
	_, err := ms.Convert(ctx, tenantId, first.Id, nil, 1)
	require.NoError(t, err)

	// second child, same contact email
	sibling := testEntryNew("Sarah Miller", "noah", 4)
	sibling.ContactEmail = "olivia@example.com"
	second := acceptedEntry(t, ms, tenantId, sibling)
	_, err = ms.Convert(ctx, tenantId, second.Id, nil, 1)
	require.NoError(t, err)

	e1, err := ms.GetEntryById(ctx, tenantId, first.Id)
	require.NoError(t, err)
	e2, err := ms.GetEntryById(ctx, tenantId, second.Id)
	require.NoError(t, err)
	assert.Equal(t, e1.GuardianId.Int32, e2.GuardianId.Int32)
}

func TestConvertTeacherOverride(t *testing.T) {
	ms := newTestStore(t)
	ctx := context.Background()
	tenantId := newTestTenant(t, ms)

	e := acceptedEntry(t, ms, tenantId, testEntryNew("Sarah Miller", "olivia", 3))

	override := 42
	student, err := ms.Convert(ctx, tenantId, e.Id, &override, 1)
	require.NoError(t, err)
	require.True(t, student.TeacherId.Valid)
	assert.EqualValues(t, 42, student.TeacherId.Int32)
}

func TestConvertRollsBackOnMidStepFailure(t *testing.T) {
	ms := newTestStore(t)
	ctx := context.Background()
	tenantId := newTestTenant(t, ms)

	e := acceptedEntry(t, ms, tenantId, testEntryNew("Sarah Miller", "olivia", 3))

	// run the conversion steps and fail after the inserts, the way a write
	// error partway through Convert would
	boom := errors.New("write failed")
	err := ms.Tx(ctx, func(ctx context.Context, rep dependency.Repository) error {
		entry, err := getEntryForUpdate(ctx, rep, tenantId, e.Id)
		require.NoError(t, err)
		_, err = resolveGuardian(ctx, rep, tenantId, entry)
		require.NoError(t, err)
		_, err = insertStudent(ctx, rep, tenantId, entry, nil)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Zero(t, countTenantRows(t, ms,
		`SELECT COUNT(*) FROM guardian WHERE tenant_id = :tenantId`, tenantId))
	assert.Zero(t, countTenantRows(t, ms,
		`SELECT COUNT(*) FROM student WHERE tenant_id = :tenantId`, tenantId))
	assert.Zero(t, countTenantRows(t, ms,
		`SELECT COUNT(*) FROM student_guardian sg
		JOIN student s ON s.id = sg.student_id WHERE s.tenant_id = :tenantId`, tenantId))

	got, err := ms.GetEntryById(ctx, tenantId, e.Id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAccepted, got.Status)
	assert.False(t, got.GuardianId.Valid)
	assert.False(t, got.ConvertedStudentId.Valid)
	assert.False(t, got.ConvertedAt.Valid)
}

func TestConvertGuardianFailureLeavesEntryAccepted(t *testing.T) {
	ms := newTestStore(t)
	ctx := context.Background()
	tenantId := newTestTenant(t, ms)
	otherTenant := newTestTenant(t, ms)

	e := acceptedEntry(t, ms, tenantId, testEntryNew("Sarah Miller", "olivia", 3))

	// point the entry at a guardian belonging to another tenant so the
	// guardian resolution step fails inside the transaction
	foreignGuardian, err := ms.Guardians().AddGuardian(ctx, otherTenant, &entity.GuardianInsert{
		Name:  "Someone Else",
		Email: "someone@example.com",
	})
	require.NoError(t, err)
	err = ExecNamed(ctx, ms.DB(),
		`UPDATE waitlist_entry SET guardian_id = :guardianId WHERE id = :id`,
		map[string]any{"guardianId": foreignGuardian, "id": e.Id})
	require.NoError(t, err)

	_, err = ms.Convert(ctx, tenantId, e.Id, nil, 1)
	require.ErrorIs(t, err, gerr.ErrGuardianNotFound)

	assert.Zero(t, countTenantRows(t, ms,
		`SELECT COUNT(*) FROM student WHERE tenant_id = :tenantId`, tenantId))

	got, err := ms.GetEntryById(ctx, tenantId, e.Id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAccepted, got.Status)
	assert.False(t, got.ConvertedStudentId.Valid)
}

func TestConvertRequiresAcceptedState(t *testing.T) {
	ms := newTestStore(t)
	ctx := context.Background()
	tenantId := newTestTenant(t, ms)

	waiting, err := ms.AddToWaitlist(ctx, tenantId, testEntryNew("Sarah Miller", "olivia", 3), 1)
	require.NoError(t, err)

	_, err = ms.Convert(ctx, tenantId, waiting.Id, nil, 1)
	assert.Error(t, err)

	// no partial writes happened
	var count int32
	count, err = QueryCountNamed(ctx, ms.DB(),
		`SELECT COUNT(*) FROM student WHERE tenant_id = :tenantId`,
		map[string]any{"tenantId": tenantId})
	require.NoError(t, err)
	assert.Zero(t, count)
}

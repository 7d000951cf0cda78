package dependency

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lessonlane/studio-manager/internal/dto"
	"github.com/lessonlane/studio-manager/internal/entity"
)

//go:generate mockery --with-expecter --case underscore --all --output=./mocks
type (
	ContextStore interface {
		Tx(ctx context.Context, fn func(ctx context.Context, store Repository) error) error
	}

	Waitlist interface {
		ContextStore
		// AddToWaitlist validates the entry, assigns the next queue position in its
		// (tenant, instrument) partition and writes the created activity row.
		AddToWaitlist(ctx context.Context, tenantId int, en *entity.WaitlistEntryNew, actor int) (*entity.WaitlistEntry, error)
		// GetEntryById returns an entry scoped to the caller's tenant.
		// Entries of other tenants are reported as not found.
		GetEntryById(ctx context.Context, tenantId int, entryId int) (*entity.WaitlistEntry, error)
		// GetEntriesPaged returns a filtered page of entries plus the total match count.
		GetEntriesPaged(ctx context.Context, tenantId int, limit int, offset int, filter *entity.EntryFilter, orderFactor entity.OrderFactor) ([]entity.WaitlistEntry, int, error)
		// UpdateEntry edits material fields of an entry and audits the changed set.
		UpdateEntry(ctx context.Context, tenantId int, entryId int, upd *entity.EntryUpdate, actor int) (*entity.WaitlistEntry, error)
		// SetPriority changes the entry priority, auditing old and new values.
		SetPriority(ctx context.Context, tenantId int, entryId int, priority entity.EntryPriority, actor int) error
		// Reorder reassigns positions 1..N over the waiting entries of one
		// (tenant, instrument) partition in the given order.
		Reorder(ctx context.Context, tenantId int, instrumentId int, orderedIds []int, actor int) error
		// Withdraw moves a non-terminal entry to withdrawn, compacting the queue
		// when the entry was still waiting.
		Withdraw(ctx context.Context, tenantId int, entryId int, actor int) error
		// MarkLost is the administrative override for unresponsive families.
		MarkLost(ctx context.Context, tenantId int, entryId int, actor int, reason string) error
		// OfferSlot proposes a lesson slot to a waiting entry and starts the offer clock.
		OfferSlot(ctx context.Context, tenantId int, entryId int, offer *entity.SlotOffer, actor int) (*entity.WaitlistEntry, error)
		// RespondToOffer records the family's accept/decline on an open offer.
		RespondToOffer(ctx context.Context, tenantId int, entryId int, accept bool, actor int) (*entity.WaitlistEntry, error)
		// Convert atomically turns an accepted entry into an enrolled student,
		// its guardian and their primary-payer link.
		Convert(ctx context.Context, tenantId int, entryId int, teacherOverride *int, actor int) (*entity.Student, error)
		// ExpireOverdueOffers expires open offers past their deadline. Idempotent.
		ExpireOverdueOffers(ctx context.Context, tenantId int, limit int) ([]entity.WaitlistEntry, error)
		// ExpireStaleWaiting expires waiting entries older than the tenant's
		// configured age limit, releasing their queue positions. Idempotent.
		ExpireStaleWaiting(ctx context.Context, tenantId int, limit int) ([]entity.WaitlistEntry, error)
	}

	Activity interface {
		// AddActivity appends one immutable audit row. There is no update or delete.
		AddActivity(ctx context.Context, ai *entity.ActivityInsert) (int, error)
		GetActivitiesByEntryId(ctx context.Context, tenantId int, entryId int) ([]entity.WaitlistActivity, error)
	}

	Guardians interface {
		AddGuardian(ctx context.Context, tenantId int, gi *entity.GuardianInsert) (int, error)
		GetGuardianById(ctx context.Context, tenantId int, id int) (*entity.Guardian, error)
		GetGuardianByEmail(ctx context.Context, tenantId int, email string) (*entity.Guardian, error)
	}

	Students interface {
		GetStudentById(ctx context.Context, tenantId int, id int) (*entity.Student, error)
	}

	Tenants interface {
		AddTenant(ctx context.Context, name string) (*entity.Tenant, error)
		GetTenantById(ctx context.Context, id int) (*entity.Tenant, error)
		ListActiveTenants(ctx context.Context) ([]entity.Tenant, error)
		UpdateTenantSettings(ctx context.Context, id int, upd *entity.TenantSettingsUpdate) error
	}

	Stats interface {
		// GetWaitlistStats returns current status counts plus enrolments within
		// the trailing window (90 days when window is zero).
		GetWaitlistStats(ctx context.Context, tenantId int, window time.Duration) (*entity.WaitlistStats, error)
		// GetInstrumentBreakdown returns waiting+offered counts per instrument,
		// sorted by total descending.
		GetInstrumentBreakdown(ctx context.Context, tenantId int) ([]entity.InstrumentCount, error)
	}

	Mail interface {
		AddMail(ctx context.Context, ser *entity.SendEmailRequest) (int, error)
		GetAllUnsent(ctx context.Context, withError bool) ([]entity.SendEmailRequest, error)
		UpdateSent(ctx context.Context, id int) error
		AddError(ctx context.Context, id int, errMsg string) error
	}

	Repository interface {
		Waitlist() Waitlist
		Activity() Activity
		Guardians() Guardians
		Students() Students
		Tenants() Tenants
		Stats() Stats
		Mail() Mail
		Tx(ctx context.Context, f func(context.Context, Repository) error) error
		TxBegin(ctx context.Context) (Repository, error)
		TxCommit(ctx context.Context) error
		TxRollback(ctx context.Context) error
		Now() time.Time
		InTx() bool
		Close()
		Ping(ctx context.Context) error
		IsErrUniqueViolation(err error) bool
		IsErrorRepeat(err error) bool
		DB() DB
	}

	// DB represents database interface.
	DB interface {
		BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

		// sqlx methods
		GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
		NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
		NamedQuery(query string, arg interface{}) (*sqlx.Rows, error)
		PrepareNamedContext(ctx context.Context, query string) (*sqlx.NamedStmt, error)
		PreparexContext(ctx context.Context, query string) (*sqlx.Stmt, error)
		QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
		QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
		SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	}

	Mailer interface {
		// SendSlotOffer notifies the family about a proposed slot. Failures are
		// recorded in the outbox for retry and never fail the offer itself.
		SendSlotOffer(ctx context.Context, rep Repository, to string, details *dto.SlotOfferDetails) error
		// SendEnrolmentConfirmation notifies the family after conversion.
		SendEnrolmentConfirmation(ctx context.Context, rep Repository, to string, details *dto.EnrolmentDetails) error
		Start(ctx context.Context) error
		Stop() error
	}

	// LeadNotifier forwards cross-system activity notes to the lead pipeline.
	// Implementations must be safe to call with a disabled configuration.
	LeadNotifier interface {
		NotifyQueued(ctx context.Context, tenantId int, leadId int, entryUUID string) error
		NotifyConverted(ctx context.Context, tenantId int, leadId int, studentId int) error
	}
)

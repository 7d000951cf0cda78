package admin

import (
	"context"
	"time"

	"log/slog"

	"github.com/lessonlane/studio-manager/internal/dependency"
	"github.com/lessonlane/studio-manager/internal/dto"
	"github.com/lessonlane/studio-manager/internal/entity"
)

// Server implements the admin waitlist operations behind the HTTP API.
type Server struct {
	repo   dependency.Repository
	mailer dependency.Mailer
	leads  dependency.LeadNotifier
}

// New creates a new server with admin handlers.
func New(r dependency.Repository, m dependency.Mailer, l dependency.LeadNotifier) *Server {
	return &Server{
		repo:   r,
		mailer: m,
		leads:  l,
	}
}

// AddToWaitlist queues a new entry and, for pipeline-sourced entries, notifies
// the lead pipeline in the background.
func (s *Server) AddToWaitlist(ctx context.Context, tenantId int, en *entity.WaitlistEntryNew, actor int) (*entity.WaitlistEntry, error) {
	entry, err := s.repo.Waitlist().AddToWaitlist(ctx, tenantId, en, actor)
	if err != nil {
		slog.Default().ErrorContext(ctx, "can't add waitlist entry",
			slog.String("err", err.Error()),
		)
		return nil, err
	}

	if entry.Source == entity.SourcePipeline && entry.LeadId.Valid {
		go func() {
			nctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := s.leads.NotifyQueued(nctx, tenantId, int(entry.LeadId.Int32), entry.UUID); err != nil {
				slog.Default().ErrorContext(nctx, "can't notify lead pipeline",
					slog.String("err", err.Error()),
					slog.Int("entry_id", entry.Id),
				)
			}
		}()
	}

	return entry, nil
}

func (s *Server) GetEntry(ctx context.Context, tenantId int, entryId int) (*entity.WaitlistEntry, error) {
	return s.repo.Waitlist().GetEntryById(ctx, tenantId, entryId)
}

func (s *Server) ListEntries(ctx context.Context, tenantId int, limit, offset int, filter *entity.EntryFilter, of entity.OrderFactor) ([]entity.WaitlistEntry, int, error) {
	return s.repo.Waitlist().GetEntriesPaged(ctx, tenantId, limit, offset, filter, of)
}

func (s *Server) UpdateEntry(ctx context.Context, tenantId int, entryId int, upd *entity.EntryUpdate, actor int) (*entity.WaitlistEntry, error) {
	return s.repo.Waitlist().UpdateEntry(ctx, tenantId, entryId, upd, actor)
}

func (s *Server) SetPriority(ctx context.Context, tenantId int, entryId int, priority entity.EntryPriority, actor int) error {
	return s.repo.Waitlist().SetPriority(ctx, tenantId, entryId, priority, actor)
}

func (s *Server) Reorder(ctx context.Context, tenantId int, instrumentId int, orderedIds []int, actor int) error {
	return s.repo.Waitlist().Reorder(ctx, tenantId, instrumentId, orderedIds, actor)
}

func (s *Server) Withdraw(ctx context.Context, tenantId int, entryId int, actor int) error {
	return s.repo.Waitlist().Withdraw(ctx, tenantId, entryId, actor)
}

func (s *Server) MarkLost(ctx context.Context, tenantId int, entryId int, actor int, reason string) error {
	return s.repo.Waitlist().MarkLost(ctx, tenantId, entryId, actor, reason)
}

// OfferSlot records the offer and emails the family. The email is queued in
// the outbox, so a delivery failure never rolls the offer back.
func (s *Server) OfferSlot(ctx context.Context, tenantId int, entryId int, offer *entity.SlotOffer, actor int) (*entity.WaitlistEntry, error) {
	entry, err := s.repo.Waitlist().OfferSlot(ctx, tenantId, entryId, offer, actor)
	if err != nil {
		slog.Default().ErrorContext(ctx, "can't offer slot",
			slog.String("err", err.Error()),
			slog.Int("entry_id", entryId),
		)
		return nil, err
	}

	details := &dto.SlotOfferDetails{
		TenantId:       tenantId,
		ContactName:    entry.ContactName,
		ChildName:      entry.ChildFirstName,
		InstrumentName: entry.InstrumentName,
		Weekday:        offer.Weekday,
		StartTime:      offer.StartTime,
		Rate:           offer.RateDecimal().StringFixed(2),
		ExpiresAt:      entry.OfferExpiresAt.Time,
	}
	if err := s.mailer.SendSlotOffer(ctx, s.repo, entry.ContactEmail, details); err != nil {
		slog.Default().ErrorContext(ctx, "can't send slot offer mail",
			slog.String("err", err.Error()),
			slog.Int("entry_id", entryId),
		)
	}

	return entry, nil
}

func (s *Server) RespondToOffer(ctx context.Context, tenantId int, entryId int, accept bool, actor int) (*entity.WaitlistEntry, error) {
	return s.repo.Waitlist().RespondToOffer(ctx, tenantId, entryId, accept, actor)
}

// Convert enrols the accepted entry, sends the confirmation email and notifies
// the lead pipeline when the entry came from it.
func (s *Server) Convert(ctx context.Context, tenantId int, entryId int, teacherOverride *int, actor int) (*entity.Student, error) {
	entry, err := s.repo.Waitlist().GetEntryById(ctx, tenantId, entryId)
	if err != nil {
		return nil, err
	}

	student, err := s.repo.Waitlist().Convert(ctx, tenantId, entryId, teacherOverride, actor)
	if err != nil {
		slog.Default().ErrorContext(ctx, "can't convert waitlist entry",
			slog.String("err", err.Error()),
			slog.Int("entry_id", entryId),
		)
		return nil, err
	}

	details := &dto.EnrolmentDetails{
		TenantId:       tenantId,
		ContactName:    entry.ContactName,
		ChildName:      entry.ChildFirstName,
		InstrumentName: entry.InstrumentName,
	}
	if err := s.mailer.SendEnrolmentConfirmation(ctx, s.repo, entry.ContactEmail, details); err != nil {
		slog.Default().ErrorContext(ctx, "can't send enrolment confirmation mail",
			slog.String("err", err.Error()),
			slog.Int("entry_id", entryId),
		)
	}

	if entry.Source == entity.SourcePipeline && entry.LeadId.Valid {
		go func() {
			nctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := s.leads.NotifyConverted(nctx, tenantId, int(entry.LeadId.Int32), student.Id); err != nil {
				slog.Default().ErrorContext(nctx, "can't notify lead pipeline",
					slog.String("err", err.Error()),
					slog.Int("entry_id", entryId),
				)
			}
		}()
	}

	return student, nil
}

func (s *Server) GetActivity(ctx context.Context, tenantId int, entryId int) ([]entity.WaitlistActivity, error) {
	if _, err := s.repo.Waitlist().GetEntryById(ctx, tenantId, entryId); err != nil {
		return nil, err
	}
	return s.repo.Activity().GetActivitiesByEntryId(ctx, tenantId, entryId)
}

func (s *Server) GetStats(ctx context.Context, tenantId int, window time.Duration) (*entity.WaitlistStats, error) {
	return s.repo.Stats().GetWaitlistStats(ctx, tenantId, window)
}

func (s *Server) GetInstrumentBreakdown(ctx context.Context, tenantId int) ([]entity.InstrumentCount, error) {
	return s.repo.Stats().GetInstrumentBreakdown(ctx, tenantId)
}

func (s *Server) UpdateTenantSettings(ctx context.Context, tenantId int, upd *entity.TenantSettingsUpdate) error {
	return s.repo.Tenants().UpdateTenantSettings(ctx, tenantId, upd)
}

package mail

import (
	"context"
	"fmt"

	"github.com/lessonlane/studio-manager/internal/dependency"
	"github.com/lessonlane/studio-manager/internal/dto"
)

const (
	SlotOffer          = "slot_offer.gohtml"
	EnrolmentConfirmed = "enrolment_confirmed.gohtml"
)

var templateSubjects = map[string]string{
	SlotOffer:          "A lesson slot is available for you",
	EnrolmentConfirmed: "Your enrolment is confirmed",
}

// SendSlotOffer notifies the family about a proposed lesson slot.
func (m *Mailer) SendSlotOffer(ctx context.Context, rep dependency.Repository, to string, details *dto.SlotOfferDetails) error {
	if details.ContactName == "" || details.InstrumentName == "" {
		return fmt.Errorf("incomplete slot offer details: %+v", details)
	}
	ser, err := m.buildSendEmailRequest(details.TenantId, to, SlotOffer, details)
	if err != nil {
		return err
	}
	return m.sendWithInsert(ctx, rep, ser)
}

// SendEnrolmentConfirmation notifies the family after a successful conversion.
func (m *Mailer) SendEnrolmentConfirmation(ctx context.Context, rep dependency.Repository, to string, details *dto.EnrolmentDetails) error {
	if details.ContactName == "" || details.ChildName == "" {
		return fmt.Errorf("incomplete enrolment details: %+v", details)
	}
	ser, err := m.buildSendEmailRequest(details.TenantId, to, EnrolmentConfirmed, details)
	if err != nil {
		return err
	}
	return m.sendWithInsert(ctx, rep, ser)
}

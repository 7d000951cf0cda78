package gerr

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrEntryNotFound    = status.Error(codes.NotFound, "waitlist entry not found")
	ErrTenantNotFound   = status.Error(codes.NotFound, "tenant not found")
	ErrGuardianNotFound = status.Error(codes.NotFound, "guardian not found")
	ErrStudentNotFound  = status.Error(codes.NotFound, "student not found")

	BadMailRequest      = status.Error(codes.DataLoss, "bad mail request")
	MailApiLimitReached = status.Error(codes.ResourceExhausted, "mail api limit reached")

	ErrOfferDeadlinePassed = status.Error(codes.FailedPrecondition, "offer deadline has passed")
)

// InvalidState reports a lifecycle guard violation, naming the required and
// actual entry states.
func InvalidState(required, actual string) error {
	return status.Errorf(codes.FailedPrecondition, "entry must be %s, currently %s", required, actual)
}

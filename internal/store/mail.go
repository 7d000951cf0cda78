package store

import (
	"context"
	"fmt"

	"github.com/lessonlane/studio-manager/internal/dependency"
	"github.com/lessonlane/studio-manager/internal/entity"
)

type mailStore struct {
	*MYSQLStore
}

// Mail returns an object implementing mail interface
func (ms *MYSQLStore) Mail() dependency.Mail {
	return &mailStore{
		MYSQLStore: ms,
	}
}

// AddMail queues one outbound email in the outbox.
func (ms *MYSQLStore) AddMail(ctx context.Context, ser *entity.SendEmailRequest) (int, error) {
	id, err := ExecNamedLastId(ctx, ms.DB(),
		`INSERT INTO mail_outbox (tenant_id, from_email, to_email, html, subject, reply_to, sent)
		VALUES (:tenantId, :from, :to, :html, :subject, :replyTo, FALSE)`,
		map[string]any{
			"tenantId": ser.TenantId,
			"from":     ser.From,
			"to":       ser.To,
			"html":     ser.Html,
			"subject":  ser.Subject,
			"replyTo":  ser.ReplyTo,
		})
	if err != nil {
		return 0, fmt.Errorf("can't insert mail: %w", err)
	}
	return id, nil
}

// GetAllUnsent returns queued emails, optionally including ones that already
// failed at least one send attempt.
func (ms *MYSQLStore) GetAllUnsent(ctx context.Context, withError bool) ([]entity.SendEmailRequest, error) {
	query := `SELECT * FROM mail_outbox WHERE sent = FALSE AND error_msg IS NULL ORDER BY id`
	if withError {
		query = `SELECT * FROM mail_outbox WHERE sent = FALSE ORDER BY id`
	}
	mails, err := QueryListNamed[entity.SendEmailRequest](ctx, ms.DB(), query, map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("can't get unsent mails: %w", err)
	}
	return mails, nil
}

// UpdateSent marks the email delivered.
func (ms *MYSQLStore) UpdateSent(ctx context.Context, id int) error {
	err := ExecNamed(ctx, ms.DB(),
		`UPDATE mail_outbox SET sent = TRUE, sent_at = :now, error_msg = NULL WHERE id = :id`,
		map[string]any{"now": ms.Now(), "id": id})
	if err != nil {
		return fmt.Errorf("can't mark mail sent: %w", err)
	}
	return nil
}

// AddError records a failed send attempt for later retry.
func (ms *MYSQLStore) AddError(ctx context.Context, id int, errMsg string) error {
	err := ExecNamed(ctx, ms.DB(),
		`UPDATE mail_outbox SET error_msg = :errMsg WHERE id = :id`,
		map[string]any{"errMsg": errMsg, "id": id})
	if err != nil {
		return fmt.Errorf("can't record mail error: %w", err)
	}
	return nil
}

package entity

import "database/sql"

// SendEmailRequest represents the mail_outbox table. Rows are written before a
// send attempt so failed sends can be retried by the mail worker.
type SendEmailRequest struct {
	Id       int            `db:"id"`
	TenantId int            `db:"tenant_id"`
	From     string         `db:"from_email"`
	To       string         `db:"to_email"`
	Html     string         `db:"html"`
	Subject  string         `db:"subject"`
	ReplyTo  string         `db:"reply_to"`
	Sent     bool           `db:"sent"`
	SentAt   sql.NullTime   `db:"sent_at"`
	ErrorMsg sql.NullString `db:"error_msg"`
}

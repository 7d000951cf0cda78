package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Config holds configuration for the lead pipeline notifier.
type Config struct {
	// WebhookURL is the lead pipeline endpoint. Empty disables notifications.
	WebhookURL  string        `mapstructure:"webhook_url"`
	APIToken    string        `mapstructure:"api_token"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

// Notifier posts waitlist milestones back to the lead pipeline so lead records
// stay in sync with the waiting list. A Notifier with an empty webhook URL is
// valid and drops all notifications.
type Notifier struct {
	c      *Config
	client *http.Client
}

func New(c *Config) *Notifier {
	timeout := c.HTTPTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{
		c:      c,
		client: &http.Client{Timeout: timeout},
	}
}

type event struct {
	Event     string `json:"event"`
	TenantId  int    `json:"tenant_id"`
	LeadId    int    `json:"lead_id"`
	EntryUUID string `json:"entry_uuid,omitempty"`
	StudentId int    `json:"student_id,omitempty"`
}

// NotifyQueued reports that a lead's enquiry reached the waiting list.
func (n *Notifier) NotifyQueued(ctx context.Context, tenantId int, leadId int, entryUUID string) error {
	return n.post(ctx, &event{
		Event:     "waitlist_queued",
		TenantId:  tenantId,
		LeadId:    leadId,
		EntryUUID: entryUUID,
	})
}

// NotifyConverted reports that a lead's enquiry converted to a student.
func (n *Notifier) NotifyConverted(ctx context.Context, tenantId int, leadId int, studentId int) error {
	return n.post(ctx, &event{
		Event:     "waitlist_converted",
		TenantId:  tenantId,
		LeadId:    leadId,
		StudentId: studentId,
	})
}

func (n *Notifier) post(ctx context.Context, ev *event) error {
	if n == nil || n.c.WebhookURL == "" {
		return nil
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal lead event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.c.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create POST request to %s: %w", n.c.WebhookURL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.c.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+n.c.APIToken)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make POST request to %s: %w", n.c.WebhookURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, n.c.WebhookURL)
	}
	return nil
}

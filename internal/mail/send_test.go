package mail

import (
	"testing"
	"time"

	"github.com/lessonlane/studio-manager/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		APIKey:    "test-key",
		FromEmail: "hello@lessonlane.test",
		FromName:  "Lesson Lane",
		ReplyTo:   "support@lessonlane.test",
	}
}

func TestBuildSlotOfferEmail(t *testing.T) {
	m, err := newMailer(testConfig(), nil)
	require.NoError(t, err)

	details := &dto.SlotOfferDetails{
		TenantId:       1,
		ContactName:    "Sarah Miller",
		ChildName:      "Olivia",
		InstrumentName: "piano",
		Weekday:        "tuesday",
		StartTime:      "16:30",
		Rate:           "45.00",
		ExpiresAt:      time.Date(2026, 9, 3, 16, 30, 0, 0, time.UTC),
	}

	ser, err := m.buildSendEmailRequest(1, "sarah@example.com", SlotOffer, details)
	require.NoError(t, err)

	assert.Equal(t, "sarah@example.com", ser.To)
	assert.Equal(t, "hello@lessonlane.test", ser.From)
	assert.Equal(t, templateSubjects[SlotOffer], ser.Subject)
	assert.Contains(t, ser.Html, "Sarah Miller")
	assert.Contains(t, ser.Html, "Olivia")
	assert.Contains(t, ser.Html, "piano")
	assert.Contains(t, ser.Html, "tuesday")
	assert.Contains(t, ser.Html, "16:30")
	assert.Contains(t, ser.Html, "45.00")
}

func TestBuildEnrolmentEmail(t *testing.T) {
	m, err := newMailer(testConfig(), nil)
	require.NoError(t, err)

	ser, err := m.buildSendEmailRequest(1, "sarah@example.com", EnrolmentConfirmed, &dto.EnrolmentDetails{
		TenantId:       1,
		ContactName:    "Sarah Miller",
		ChildName:      "Olivia",
		InstrumentName: "piano",
	})
	require.NoError(t, err)

	assert.Equal(t, templateSubjects[EnrolmentConfirmed], ser.Subject)
	assert.Contains(t, ser.Html, "Olivia is now enrolled for piano lessons")
}

func TestBuildUnknownTemplate(t *testing.T) {
	m, err := newMailer(testConfig(), nil)
	require.NoError(t, err)

	_, err = m.buildSendEmailRequest(1, "sarah@example.com", "missing.gohtml", struct{}{})
	assert.Error(t, err)
}

func TestIncompleteConfig(t *testing.T) {
	_, err := New(&Config{FromEmail: "hello@lessonlane.test"}, nil)
	assert.Error(t, err)
}

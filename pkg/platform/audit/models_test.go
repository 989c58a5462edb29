package audit

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	id "apertura/pkg/domain"
)

func TestAuditEvent_Category(t *testing.T) {
	tests := []struct {
		event AuditEvent
		want  EventCategory
	}{
		{EventSolicitudApproved, CategoryCompliance},
		{EventSignatureCanceled, CategoryCompliance},
		{EventAccessDenied, CategorySecurity},
		{EventAccountRegistrationFailed, CategoryOperations},
		{EventProviderSyncFailed, CategoryOperations},
		{AuditEvent("something_new"), CategoryOperations},
	}
	for _, tt := range tests {
		t.Run(string(tt.event), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.Category())
		})
	}
}

func TestAlert_ToEvent(t *testing.T) {
	solicitudID := id.SolicitudID(uuid.New())
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	event := Alert{
		Timestamp:   now,
		SolicitudID: solicitudID,
		Action:      string(EventAccountRegistrationFailed),
		Reason:      "registry unavailable",
		Severity:    SeverityCritical,
	}.ToEvent()

	assert.Equal(t, CategoryOperations, event.Category)
	assert.Equal(t, solicitudID, event.SolicitudID)
	assert.Equal(t, SeverityCritical, event.Severity)
	assert.Equal(t, now, event.Timestamp)
}

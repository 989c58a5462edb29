package audit

import (
	"time"

	id "apertura/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers lifecycle decisions with regulatory significance.
	// They are persisted fail-closed and kept for the full retention period.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers access violations against a solicitud.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers operational alerts that need a human to reconcile
	// state with an external system.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from the solicitud service to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category    EventCategory
	Timestamp   time.Time
	SolicitudID id.SolicitudID
	UserID      id.UserID
	Subject     string
	Action      string
	Decision    string
	Reason      string
	RequestID   string
	Severity    Severity
}

type AuditEvent string

const (
	// Lifecycle events
	EventSolicitudCreated   AuditEvent = "solicitud_created"
	EventSolicitudSubmitted AuditEvent = "solicitud_submitted"
	EventSolicitudApproved  AuditEvent = "solicitud_approved"
	EventSolicitudRejected  AuditEvent = "solicitud_rejected"
	EventSolicitudCanceled  AuditEvent = "solicitud_canceled"
	EventAccountRegistered  AuditEvent = "account_registered"

	// Signature workflow events
	EventSignatureCompleted AuditEvent = "signature_completed"
	EventSignatureCanceled  AuditEvent = "signature_canceled"

	// Operational alerts
	EventAccountRegistrationFailed AuditEvent = "account_registration_failed"
	EventProviderSyncFailed        AuditEvent = "provider_sync_failed"

	// Security events
	EventAccessDenied AuditEvent = "access_denied"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventSolicitudCreated:   CategoryCompliance,
	EventSolicitudSubmitted: CategoryCompliance,
	EventSolicitudApproved:  CategoryCompliance,
	EventSolicitudRejected:  CategoryCompliance,
	EventSolicitudCanceled:  CategoryCompliance,
	EventAccountRegistered:  CategoryCompliance,
	EventSignatureCompleted: CategoryCompliance,
	EventSignatureCanceled:  CategoryCompliance,

	EventAccessDenied: CategorySecurity,

	EventAccountRegistrationFailed: CategoryOperations,
	EventProviderSyncFailed:        CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Severity levels used to route operational alerts.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ComplianceEvent captures a lifecycle decision requiring guaranteed persistence.
type ComplianceEvent struct {
	Timestamp   time.Time
	SolicitudID id.SolicitudID
	UserID      id.UserID // who performed the action
	Subject     string    // titular display name
	Action      string
	Decision    string // resulting estado
	Reason      string
	RequestID   string
}

func (e ComplianceEvent) Category() EventCategory { return CategoryCompliance }

// ToEvent flattens the event for the generic stores.
func (e ComplianceEvent) ToEvent() Event {
	return Event{
		Category:    CategoryCompliance,
		Timestamp:   e.Timestamp,
		SolicitudID: e.SolicitudID,
		UserID:      e.UserID,
		Subject:     e.Subject,
		Action:      e.Action,
		Decision:    e.Decision,
		Reason:      e.Reason,
		RequestID:   e.RequestID,
	}
}

// Alert is an operational event that an operator must act on, such as an
// approved solicitud whose external account could not be registered.
type Alert struct {
	Timestamp   time.Time
	SolicitudID id.SolicitudID
	Action      string
	Reason      string
	RequestID   string
	Severity    Severity
}

func (a Alert) Category() EventCategory { return CategoryOperations }

// ToEvent flattens the alert for the generic stores.
func (a Alert) ToEvent() Event {
	return Event{
		Category:    CategoryOperations,
		Timestamp:   a.Timestamp,
		SolicitudID: a.SolicitudID,
		Action:      a.Action,
		Reason:      a.Reason,
		RequestID:   a.RequestID,
		Severity:    a.Severity,
	}
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	id "apertura/pkg/domain"
	audit "apertura/pkg/platform/audit"
	txcontext "apertura/pkg/platform/tx"

	"github.com/google/uuid"
)

// Store implements audit.Store over the audit_events table. Appends join the
// caller's transaction when one is present in the context.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append inserts an audit event. The category is always derived from the action.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := audit.AuditEvent(event.Action).Category()

	query := `
		INSERT INTO audit_events (
			id, category, action, solicitud_id, user_id,
			subject, decision, reason, severity, request_id, timestamp
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.New(),
		string(category),
		event.Action,
		optionalID(event.SolicitudID.IsNil(), event.SolicitudID.String()),
		optionalID(event.UserID.IsNil(), event.UserID.String()),
		event.Subject,
		event.Decision,
		event.Reason,
		string(event.Severity),
		event.RequestID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListBySolicitud returns the events of one solicitud, oldest first.
func (s *Store) ListBySolicitud(ctx context.Context, solicitudID id.SolicitudID) ([]audit.Event, error) {
	query := `
		SELECT category, action, solicitud_id, user_id, subject,
			   decision, reason, severity, request_id, timestamp
		FROM audit_events
		WHERE solicitud_id = $1
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, solicitudID.String())
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event       audit.Event
			category    string
			solicitudID string
			userID      string
			severity    string
		)
		if err := rows.Scan(
			&category,
			&event.Action,
			&solicitudID,
			&userID,
			&event.Subject,
			&event.Decision,
			&event.Reason,
			&severity,
			&event.RequestID,
			&event.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.Severity = audit.Severity(severity)
		if solicitudID != "" {
			if parsed, err := id.ParseSolicitudID(solicitudID); err == nil {
				event.SolicitudID = parsed
			}
		}
		if userID != "" {
			if parsed, err := id.ParseUserID(userID); err == nil {
				event.UserID = parsed
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func optionalID(isNil bool, value string) string {
	if isNil {
		return ""
	}
	return value
}

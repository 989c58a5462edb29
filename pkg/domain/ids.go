// Package domain holds typed identifiers shared across bounded contexts.
//
// Each identifier is a distinct named type over uuid.UUID so a SolicitudID can
// never be passed where a UserID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "apertura/pkg/domain-errors"
)

// maxIDLength bounds raw input before it reaches the UUID parser.
const maxIDLength = 64

type (
	UserID       uuid.UUID
	SolicitudID  uuid.UUID
	AccionistaID uuid.UUID
)

func (id UserID) String() string       { return uuid.UUID(id).String() }
func (id SolicitudID) String() string  { return uuid.UUID(id).String() }
func (id AccionistaID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id SolicitudID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id AccionistaID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func NewSolicitudID() SolicitudID   { return SolicitudID(uuid.New()) }
func NewAccionistaID() AccionistaID { return AccionistaID(uuid.New()) }

func (id UserID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id SolicitudID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id AccionistaID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error       { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *SolicitudID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *AccionistaID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

func ParseUserID(raw string) (UserID, error) {
	u, err := parseUUID(raw, "user_id")
	return UserID(u), err
}

func ParseSolicitudID(raw string) (SolicitudID, error) {
	u, err := parseUUID(raw, "solicitud_id")
	return SolicitudID(u), err
}

func ParseAccionistaID(raw string) (AccionistaID, error) {
	u, err := parseUUID(raw, "accionista_id")
	return AccionistaID(u), err
}

func parseUUID(raw, field string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	if len(raw) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is too long")
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must not be nil")
	}
	return u, nil
}

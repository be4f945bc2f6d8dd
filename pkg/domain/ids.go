// Package domain holds typed identifiers and domain primitives shared across
// the intake engine. Typed IDs prevent cross-entity assignment at compile
// time and enforce validity at trust boundaries.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "intake/pkg/domain-errors"
)

// Typed UUID identifiers for the core entities.
type (
	ApplicationID uuid.UUID
	IncidentID    uuid.UUID
	FileID        uuid.UUID
)

// NewApplicationID returns a fresh random application identifier.
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }

// NewIncidentID returns a fresh random incident identifier.
func NewIncidentID() IncidentID { return IncidentID(uuid.New()) }

// NewFileID returns a fresh random file identifier.
func NewFileID() FileID { return FileID(uuid.New()) }

func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id IncidentID) String() string    { return uuid.UUID(id).String() }
func (id FileID) String() string        { return uuid.UUID(id).String() }

func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id IncidentID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id FileID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }

// Text marshaling keeps IDs as canonical UUID strings on every wire format
// (JSON bodies, snapshots, audit events). Unmarshal applies the same rules
// as the Parse constructors.
func (id ApplicationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id IncidentID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id FileID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }

func (id *ApplicationID) UnmarshalText(b []byte) error {
	parsed, err := ParseApplicationID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *IncidentID) UnmarshalText(b []byte) error {
	parsed, err := ParseIncidentID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *FileID) UnmarshalText(b []byte) error {
	parsed, err := ParseFileID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Short returns the first UUID segment of the application ID. It is the
// applicant-visible short reference embedded in generated filenames.
func (id ApplicationID) Short() string {
	s := uuid.UUID(id).String()
	if i := strings.IndexByte(s, '-'); i > 0 {
		return s[:i]
	}
	return s
}

// ParseApplicationID validates and returns an ApplicationID.
func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return ApplicationID{}, err
	}
	return ApplicationID(u), nil
}

// ParseIncidentID validates and returns an IncidentID.
func ParseIncidentID(s string) (IncidentID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return IncidentID{}, err
	}
	return IncidentID(u), nil
}

// ParseFileID validates and returns a FileID.
func ParseFileID(s string) (FileID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return FileID{}, err
	}
	return FileID(u), nil
}

// parseUUID rejects empty, malformed, and nil UUIDs. All ID types share the
// same parsing rules so validation is uniform at every API entry point.
func parseUUID(s string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "nil id is not allowed")
	}
	return u, nil
}

package types

import (
	"database/sql/driver"
	"encoding/json"

	ierr "github.com/ispbilling/ispbilling/internal/errors"
)

// Metadata represents a JSONB field for storing key-value pairs
type Metadata map[string]string

// Scan implements the sql.Scanner interface for Metadata
func (m *Metadata) Scan(value interface{}) error {
	result := make(Metadata)
	if value == nil {
		*m = result
		return nil
	}
	if err := scanJSONB(value, &result); err != nil {
		return err
	}
	*m = result
	return nil
}

// Value implements the driver.Valuer interface for Metadata
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(make(Metadata))
	}
	return json.Marshal(m)
}

// Clone returns a copy that can be mutated independently
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func scanJSONB(value interface{}, dest any) error {
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return ierr.NewErrorf("failed to unmarshal JSONB value of type %T", value).
			Mark(ierr.ErrDatabase)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return ierr.WithError(err).
			WithHint("Stored JSON value could not be decoded").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

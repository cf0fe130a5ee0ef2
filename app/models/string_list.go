package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is an ordered list of strings stored as a JSON array in a
// text column. It always marshals to a JSON array, never null.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("models: encode string list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner. NULL and empty text scan as an empty list.
func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("models: cannot scan %T into StringList", src)
	}

	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}

	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("models: decode string list %q: %w", raw, err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

// MarshalJSON renders a nil list as [].
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// GormDataType keeps the column as text on every dialect.
func (StringList) GormDataType() string { return "text" }

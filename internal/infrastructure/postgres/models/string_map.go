package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringMap is stored as jsonb.
type StringMap map[string]string

func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *StringMap) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("string map: unsupported source type %T", src)
	}
	out := StringMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("string map: %w", err)
	}
	if len(out) == 0 {
		out = nil
	}
	*m = out
	return nil
}

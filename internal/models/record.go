package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is one run of run data. Its schema is defined by the backend.
type Record map[string]any

// Text returns the displayed string for a field. Missing fields are empty.
func (r Record) Text(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

// RunNumber returns the record's run number field as text.
func (r Record) RunNumber() string {
	return r.Text(FieldRunNumber)
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

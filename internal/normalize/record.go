// Package normalize maps loosely typed content records onto the fixed catalog types.
//
// Every mapping is total: missing or mistyped fields fall back to documented
// defaults. Lookups accept both the remote property name and the snapshot
// field name, so a record read back from a snapshot normalizes to itself.
package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is one decoded content row: property name to decoded value.
type Record map[string]any

// RecordOf converts a catalog value into a Record using its JSON field names.
func RecordOf(v any) (Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize: encode record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("normalize: decode record: %w", err)
	}
	return rec, nil
}

// lookup returns the first non-nil value stored under any of keys.
func (r Record) lookup(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// String returns the value as text. Lists yield their first element.
func (r Record) String(keys ...string) string {
	v, ok := r.lookup(keys...)
	if !ok {
		return ""
	}
	return scalarString(first(v))
}

// OptString is String with "" mapped to nil.
func (r Record) OptString(keys ...string) *string {
	s := r.String(keys...)
	if s == "" {
		return nil
	}
	return &s
}

// Strings returns the value as an ordered list; never nil.
func (r Record) Strings(keys ...string) []string {
	out := []string{}
	v, ok := r.lookup(keys...)
	if !ok {
		return out
	}
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			if s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range t {
			if s := scalarString(item); s != "" {
				out = append(out, s)
			}
		}
	default:
		if s := scalarString(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Number returns the value as a float, 0 when absent or unparsable.
func (r Record) Number(keys ...string) float64 {
	v, ok := r.lookup(keys...)
	if !ok {
		return 0
	}
	switch t := first(v).(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		f, _ := t.Float64()
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// first unwraps single-value lists; non-lists pass through.
func first(v any) any {
	switch t := v.(type) {
	case []string:
		if len(t) == 0 {
			return nil
		}
		return t[0]
	case []any:
		if len(t) == 0 {
			return nil
		}
		return t[0]
	}
	return v
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	}
	return ""
}

func formatOrder(order float64) string {
	return strconv.FormatFloat(order, 'f', -1, 64)
}

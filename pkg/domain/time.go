package domain

import "time"

// Time wraps time.Time with a tolerant JSON decoder. Persisted snapshots may
// contain timestamps written by older dashboard builds in formats the RFC 3339
// parser rejects; a value that cannot be parsed decodes to the zero time rather
// than failing the whole collection slot.
type Time struct {
	time.Time
}

// NewTime wraps a time.Time, normalizing to UTC.
func NewTime(t time.Time) Time {
	return Time{Time: t.UTC()}
}

// Equal reports whether two timestamps represent the same instant.
func (t Time) Equal(other Time) bool {
	return t.Time.Equal(other.Time)
}

// MarshalJSON encodes the timestamp as an RFC 3339 string. The zero value
// encodes as null so absent timestamps round-trip as absent.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return t.Time.MarshalJSON()
}

// UnmarshalJSON decodes an RFC 3339 string, substituting the zero time for
// null, empty, or unparsable input.
func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		t.Time = time.Time{}
		return nil
	}
	var parsed time.Time
	if err := parsed.UnmarshalJSON(data); err != nil {
		t.Time = time.Time{}
		return nil
	}
	t.Time = parsed
	return nil
}

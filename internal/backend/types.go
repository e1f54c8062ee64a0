package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Number decodes numeric fields the backend may send as JSON numbers or as
// decimal strings.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// Float returns the value as float64.
func (n Number) Float() float64 { return float64(n) }

// String formats the number without trailing zeros.
func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

// Timestamp decodes RFC3339 timestamps, date-only values, empty strings and
// nulls. The zero value means "not set".
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// DateString formats the date part as used by <input type="date">.
func (t Timestamp) DateString() string {
	if t.IsZero() {
		return ""
	}
	return t.Time.Format(time.DateOnly)
}

// ParseTimestamp accepts RFC3339 (with or without fractions), date-only
// strings and empty input.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// StringList decodes a JSON array of strings that may arrive double encoded
// as a string.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var out []string
	if err := decodeMaybeString(data, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// TeamRole is one entry of a project's assigned team.
type TeamRole struct {
	Role  string  `json:"role"`
	Users []int64 `json:"users"`
}

// TeamRoles keeps the backend order of assigned roles. Like StringList it
// tolerates a double encoded payload.
type TeamRoles []TeamRole

// UnmarshalJSON implements json.Unmarshaler.
func (r *TeamRoles) UnmarshalJSON(data []byte) error {
	var out []TeamRole
	if err := decodeMaybeString(data, &out); err != nil {
		return err
	}
	*r = out
	return nil
}

// Includes reports whether userID is assigned under any role.
func (r TeamRoles) Includes(userID int64) bool {
	for _, role := range r {
		for _, id := range role.Users {
			if id == userID {
				return true
			}
		}
	}
	return false
}

func decodeMaybeString(data []byte, out any) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		inner = strings.TrimSpace(inner)
		if inner == "" {
			return nil
		}
		data = []byte(inner)
	}
	return json.Unmarshal(data, out)
}

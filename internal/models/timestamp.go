package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Datetimes without a zone are local time. Bare dates are UTC midnight.
var timestampLayouts = []struct {
	layout string
	local  bool
}{
	{time.RFC3339Nano, false},
	{time.RFC3339, false},
	{"2006-01-02T15:04:05.999999999", true},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02 15:04:05.999999999Z07:00", false},
	{"2006-01-02 15:04:05", true},
	{"2006-01-02", false},
}

// Timestamp is a point in time as sent by the content API. Values that
// can't be parsed decode to the zero time instead of failing the whole list.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t}
}

func ParseTimestamp(s string) Timestamp {
	s = strings.TrimSpace(s)
	for _, l := range timestampLayouts {
		loc := time.UTC
		if l.local {
			loc = time.Local
		}
		if t, err := time.ParseInLocation(l.layout, s, loc); err == nil {
			return Timestamp{t}
		}
	}
	return Timestamp{}
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// null or a non string value
		*ts = Timestamp{}
		return nil
	}
	*ts = ParseTimestamp(s)
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.UTC().Format(time.RFC3339Nano))
}

// Epoch is the sort key used for recency ordering.
func (ts Timestamp) Epoch() int64 {
	if ts.IsZero() {
		return 0
	}
	return ts.UnixMilli()
}

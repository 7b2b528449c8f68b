package resource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Opaque, tree-shaped attributes attached to a record
type Properties map[string]any

// A summary format is a flat projection of a record used for quick display.
// Values are strings or numbers.
type Summary map[string]any

// Copy returns a shallow copy of the summary
func (s Summary) Copy() Summary {
	if s == nil {
		return nil
	}
	d := make(Summary, len(s))
	for k, v := range s {
		d[k] = v
	}
	return d
}

// A timestamp as reported by the service. Depending on the resource this is
// either an epoch number or a formatted string; both decode into a Timestamp
// and encode back to the same JSON kind.
type Timestamp string

// Numeric timestamps are epochs; they are written as JSON numbers
func (t Timestamp) numeric() bool {
	if t == "" {
		return false
	}
	c := t[0]
	return (c == '-' || (c >= '0' && c <= '9')) && json.Valid([]byte(t))
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	switch {
	case t == "":
		return []byte("null"), nil
	case t.numeric():
		return []byte(t), nil
	default:
		return json.Marshal(string(t))
	}
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '"':
		var s string
		err := json.Unmarshal(data, &s)
		if err != nil {
			return err
		}
		*t = Timestamp(s)
		return nil
	default:
		var n json.Number
		err := json.Unmarshal(data, &n)
		if err != nil {
			return fmt.Errorf("Invalid timestamp: %s", data)
		}
		*t = Timestamp(n.String())
		return nil
	}
}

// Time interprets the timestamp. Epoch values are scaled by magnitude since
// the service reports seconds for some resources and nanoseconds for others.
func (t Timestamp) Time() (time.Time, error) {
	if t == "" {
		return time.Time{}, nil
	}
	if n, err := strconv.ParseInt(string(t), 10, 64); err == nil {
		switch {
		case n > 1e17:
			return time.Unix(0, n), nil
		case n > 1e14:
			return time.UnixMicro(n), nil
		case n > 1e11:
			return time.UnixMilli(n), nil
		default:
			return time.Unix(n, 0), nil
		}
	}
	return time.Parse(time.RFC3339Nano, string(t))
}

func TimestampFromTime(v time.Time) Timestamp {
	return Timestamp(v.UTC().Format(time.RFC3339Nano))
}

// The fields common to customers, items, and programs
type Record struct {
	ID            string     `json:"id" validate:"required"`
	UserID        string     `json:"user_id,omitempty"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Status        string     `json:"status,omitempty"`
	Properties    Properties `json:"properties,omitempty"`
	SummaryFormat Summary    `json:"summary_format,omitempty"`
	CreatedAt     Timestamp  `json:"created_at,omitempty"`
	UpdatedAt     Timestamp  `json:"updated_at,omitempty"`
}

func (r Record) summary() Summary {
	return r.SummaryFormat
}

// Summarized is satisfied by any type embedding Record
type Summarized interface {
	summary() Summary
}

// The body of a create request
type Creation struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   Timestamp `json:"created_at,omitempty"`
}

// CreationFrom narrows a record to the fields accepted on create
func CreationFrom(r Record) Creation {
	return Creation{
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
}

// The body of an update request
type Update struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Properties  Properties `json:"properties"`
}

// UpdateFrom narrows a record to the fields accepted on update. Identity,
// ownership, timestamps and the summary format are never sent.
func UpdateFrom(r Record) Update {
	return Update{
		Name:        r.Name,
		Description: r.Description,
		Status:      r.Status,
		Properties:  r.Properties,
	}
}

type summaryUpdate struct {
	SummaryFormat Summary `json:"summary_format"`
}

// A fixed confirmation for operations whose response entity is discarded
type Message struct {
	Message string `json:"message"`
}

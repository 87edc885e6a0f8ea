package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Reserved row columns managed by the entity store rather than by callers.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Fields holds the named attributes of a concrete entity. The store treats them as opaque.
type Fields map[string]any

// Clone returns a shallow copy. Nested maps and slices are shared.
func (f Fields) Clone() Fields {
	if f == nil {
		return Fields{}
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// String returns the value under key when it is a string.
func (f Fields) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// Bool returns the value under key when it is a bool.
func (f Fields) Bool(key string) bool {
	b, _ := f[key].(bool)
	return b
}

// Float returns the numeric value under key, accepting the shapes produced by JSON and pgx.
func (f Fields) Float(key string) float64 {
	switch v := f[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		n, _ := v.Float64()
		return n
	default:
		return 0
	}
}

// Entity is one record of a business object held by an entity store.
type Entity struct {
	ID        string
	Fields    Fields
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Touch refreshes UpdatedAt to at, keeping it strictly after the previous value
// and never before CreatedAt.
func (e *Entity) Touch(at time.Time) {
	if e == nil {
		return
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = at
	}
	if !at.After(e.UpdatedAt) {
		at = e.UpdatedAt.Add(time.Microsecond)
	}
	if at.Before(e.CreatedAt) {
		at = e.CreatedAt
	}
	e.UpdatedAt = at
}

// Merge applies a shallow patch: top-level keys overwrite, nested values are replaced wholesale.
func (e *Entity) Merge(patch Fields) {
	if e.Fields == nil {
		e.Fields = Fields{}
	}
	for k, v := range StripReserved(patch) {
		e.Fields[k] = v
	}
}

// Clone returns a copy whose field map can be mutated independently.
func (e Entity) Clone() Entity {
	e.Fields = e.Fields.Clone()
	return e
}

// Row flattens the entity into a table row.
func (e Entity) Row() map[string]any {
	row := make(map[string]any, len(e.Fields)+3)
	for k, v := range e.Fields {
		row[k] = v
	}
	if e.ID != "" {
		row[FieldID] = e.ID
	}
	if !e.CreatedAt.IsZero() {
		row[FieldCreatedAt] = e.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if !e.UpdatedAt.IsZero() {
		row[FieldUpdatedAt] = e.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return row
}

func (e Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Row())
}

func (e *Entity) UnmarshalJSON(data []byte) error {
	var row map[string]any
	if err := json.Unmarshal(data, &row); err != nil {
		return err
	}
	parsed, err := EntityFromRow(row)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// EntityFromRow builds an entity from a remote or serialized row.
func EntityFromRow(row map[string]any) (Entity, error) {
	if row == nil {
		return Entity{}, ErrInvalidPayload
	}
	id, err := stringID(row[FieldID])
	if err != nil {
		return Entity{}, err
	}
	createdAt, err := parseTime(row[FieldCreatedAt])
	if err != nil {
		return Entity{}, WrapError(ErrCodeInvalid, "invalid created_at", err)
	}
	updatedAt, err := parseTime(row[FieldUpdatedAt])
	if err != nil {
		return Entity{}, WrapError(ErrCodeInvalid, "invalid updated_at", err)
	}
	if updatedAt.Before(createdAt) {
		updatedAt = createdAt
	}
	return Entity{
		ID:        id,
		Fields:    StripReserved(row),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// StripReserved returns a copy of fields without the store-managed columns.
func StripReserved(fields Fields) Fields {
	out := make(Fields, len(fields))
	for k, v := range fields {
		switch k {
		case FieldID, FieldCreatedAt, FieldUpdatedAt:
			continue
		}
		out[k] = v
	}
	return out
}

func stringID(v any) (string, error) {
	switch id := v.(type) {
	case nil:
		return "", nil
	case string:
		return id, nil
	case float64:
		return fmt.Sprintf("%.0f", id), nil
	case int64:
		return fmt.Sprintf("%d", id), nil
	case int:
		return fmt.Sprintf("%d", id), nil
	case fmt.Stringer:
		return id.String(), nil
	default:
		return "", NewError(ErrCodeInvalid, fmt.Sprintf("unsupported id type %T", v))
	}
}

func parseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t.UTC(), nil
	case string:
		if t == "" {
			return time.Time{}, nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, err
		}
		return parsed.UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported time type %T", v)
	}
}

package postgres

import (
	"encoding/json"
	"math/big"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lucidportal/backend/domain"
	"github.com/lucidportal/backend/repository"
)

// encodeValue prepares a field value for a pgx argument. Nested objects and lists go to jsonb.
func encodeValue(v any) any {
	switch val := v.(type) {
	case map[string]any, []any, []string, domain.Fields:
		b, err := json.Marshal(val)
		if err != nil {
			return nil
		}
		return string(b)
	default:
		return v
	}
}

func encodeRow(row repository.Row) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = encodeValue(v)
	}
	return out
}

// normalizeRow converts pgx-native values into JSON-friendly ones.
func normalizeRow(row map[string]any) repository.Row {
	for k, v := range row {
		row[k] = normalizeValue(v)
	}
	return row
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case [16]byte:
		return uuid.UUID(val).String()
	case pgtype.Numeric:
		if !val.Valid {
			return nil
		}
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case *big.Int:
		if val == nil {
			return nil
		}
		return val.String()
	default:
		return v
	}
}

func validColumns(row repository.Row) error {
	for col := range row {
		if !domain.ValidIdentifier(col) {
			return domain.WrapError(domain.ErrCodeInvalid, "invalid column", domain.NewError(domain.ErrCodeInvalid, col))
		}
	}
	return nil
}

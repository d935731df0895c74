package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Field is a single key/value pair used to build a Row.
type Field struct {
	Key   string
	Value any
}

// Row is one logical spreadsheet row: an insertion-ordered mapping from
// field identifier to a raw value (string, number or nil).
//
// A Row is immutable once built. Setting an existing key replaces its value
// but keeps the key at its original position.
type Row struct {
	keys   []string
	values map[string]any
}

// NewRow builds a Row from fields in order.
func NewRow(fields ...Field) Row {
	b := newRowBuilder(len(fields))
	for _, f := range fields {
		b.set(f.Key, f.Value)
	}
	return b.row()
}

// Get returns the value stored under key.
func (r Row) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Text returns the value under key formatted with FormatValue.
// Absent keys yield "".
func (r Row) Text(key string) string {
	return FormatValue(r.values[key])
}

// Keys returns the field identifiers in insertion order.
func (r Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of fields.
func (r Row) Len() int { return len(r.keys) }

// Fields returns the row contents as ordered pairs.
func (r Row) Fields() []Field {
	out := make([]Field, len(r.keys))
	for i, k := range r.keys {
		out[i] = Field{Key: k, Value: r.values[k]}
	}
	return out
}

// Strings returns the values of the row as text keyed by field.
func (r Row) Strings() map[string]string {
	out := make(map[string]string, len(r.keys))
	for _, k := range r.keys {
		out[k] = FormatValue(r.values[k])
	}
	return out
}

// MarshalJSON encodes the row as a JSON object preserving key order.
func (r Row) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range r.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// rowBuilder accumulates fields before a Row is handed out.
type rowBuilder struct {
	keys   []string
	values map[string]any
}

func newRowBuilder(size int) *rowBuilder {
	return &rowBuilder{
		keys:   make([]string, 0, size),
		values: make(map[string]any, size),
	}
}

// set stores v under key and reports whether the key was already present.
func (b *rowBuilder) set(key string, v any) bool {
	_, exists := b.values[key]
	if !exists {
		b.keys = append(b.keys, key)
	}
	b.values[key] = v
	return exists
}

func (b *rowBuilder) row() Row {
	return Row{keys: b.keys, values: b.values}
}

// FormatValue converts a raw cell value to its textual representation.
// nil becomes the empty string.
func FormatValue(v any) string {
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case decimal.Decimal:
		return val.String()
	case *decimal.Decimal:
		if val == nil {
			return ""
		}
		return val.String()
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format(DateLayout)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

package core

import "strings"

// Canonical field identifiers for ledger rows.
const (
	FieldType           = "type"
	FieldAmount         = "amount"
	FieldDate           = "date"
	FieldCategory1      = "category1"
	FieldCategory2      = "category2"
	FieldPaymentMethod1 = "paymentMethod1"
	FieldPaymentMethod2 = "paymentMethod2"
	FieldDescription    = "description"
	FieldMemo           = "memo"
)

// DefaultFieldOrder is the column order used for exports and templates.
var DefaultFieldOrder = []string{
	FieldType,
	FieldAmount,
	FieldDate,
	FieldCategory1,
	FieldCategory2,
	FieldPaymentMethod1,
	FieldPaymentMethod2,
	FieldDescription,
	FieldMemo,
}

// columnLabels lists the localized header of each canonical field.
// Order matches DefaultFieldOrder.
var columnLabels = []struct {
	Label string
	Field string
}{
	{"구분", FieldType},
	{"금액", FieldAmount},
	{"날짜", FieldDate},
	{"대분류", FieldCategory1},
	{"소분류", FieldCategory2},
	{"결제수단", FieldPaymentMethod1},
	{"세부결제수단", FieldPaymentMethod2},
	{"내용", FieldDescription},
	{"메모", FieldMemo},
}

// labelTable maps header labels to field identifiers. Canonical identifiers
// map to themselves so exported files import unchanged (lower-casing would
// otherwise turn paymentMethod1 into paymentmethod1).
var labelTable = func() map[string]string {
	m := make(map[string]string, 2*len(columnLabels))
	for _, c := range columnLabels {
		m[c.Label] = c.Field
		m[c.Field] = c.Field
	}
	return m
}()

var fieldLabels = func() map[string]string {
	m := make(map[string]string, len(columnLabels))
	for _, c := range columnLabels {
		m[c.Field] = c.Label
	}
	return m
}()

// MapLabel translates a header label into a field identifier.
// Unknown labels fall back to their trimmed, lower-cased form.
func MapLabel(label string) string {
	label = strings.TrimSpace(label)
	if id, ok := labelTable[label]; ok {
		return id
	}
	return strings.ToLower(label)
}

// LabelFor returns the localized header for a field identifier, or the
// identifier itself when it has no label.
func LabelFor(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}

// IsCanonicalField reports whether field belongs to the ledger vocabulary.
func IsCanonicalField(field string) bool {
	_, ok := fieldLabels[field]
	return ok
}

// Collision records source labels that mapped onto the same field.
// Labels are in row order; the value of the last one is kept.
type Collision struct {
	Field  string   `json:"field"`
	Labels []string `json:"labels"`
}

// MapRow rewrites every key of row through MapLabel. Values are unchanged.
// When several labels map to one field the last label in row order wins
// and the clash is returned as a Collision.
func MapRow(row Row) (Row, []Collision) {
	b := newRowBuilder(row.Len())
	sources := make(map[string][]string, row.Len())
	var clashed []string

	for _, key := range row.keys {
		id := MapLabel(key)
		if b.set(id, row.values[key]) && len(sources[id]) == 1 {
			clashed = append(clashed, id)
		}
		sources[id] = append(sources[id], key)
	}

	if len(clashed) == 0 {
		return b.row(), nil
	}

	collisions := make([]Collision, len(clashed))
	for i, id := range clashed {
		collisions[i] = Collision{Field: id, Labels: sources[id]}
	}
	return b.row(), collisions
}

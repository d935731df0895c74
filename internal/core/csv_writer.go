package core

import "strings"

// UTF8BOM is prepended to CSV downloads so spreadsheet viewers detect UTF-8.
const UTF8BOM = "\uFEFF"

// Escape returns the CSV representation of a single value. Text containing
// a comma, double quote or newline is quoted with inner quotes doubled.
func Escape(v any) string {
	s := FormatValue(v)
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ToDelimitedText serializes rows as CSV with a header line of fieldOrder.
// Lines are separated by "\n" with no trailing newline. Fields missing from
// a row are written as empty values.
func ToDelimitedText(rows []Row, fieldOrder []string) string {
	var b strings.Builder
	writeLine(&b, len(fieldOrder), func(i int) any { return fieldOrder[i] })

	for _, row := range rows {
		b.WriteByte('\n')
		writeLine(&b, len(fieldOrder), func(i int) any {
			v, _ := row.Get(fieldOrder[i])
			return v
		})
	}

	return b.String()
}

func writeLine(b *strings.Builder, n int, value func(int) any) {
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(Escape(value(i)))
	}
}

package core

// convert.go decodes canonical rows into typed transactions.
//
// Household spreadsheets are messy:
//   - Dates come as ISO, slash, dot, Korean (2024년 1월 2일) or Excel serials
//   - Amounts carry currency symbols, the 원 suffix and thousands separators
//   - The entry type is written in Korean or English
//
// Decoding failures are reported as *FieldError so callers can point the
// user at the offending cell.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// DateLayout is the date format used for exported values.
const DateLayout = "2006-01-02"

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future are
// moved to the previous century.
var TwoDigitYearPivot = 20

var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

var (
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"2006-1-2", "2006/1/2", "2006.1.2",
		"2006. 1. 2.", "2006. 1. 2", "2006. 01. 02.",
		"2006년 1월 2일", "2006년 01월 02일",
		"2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02T15:04:05Z07:00",
		"1/2/2006", "01/02/2006",
		"20060102",
	}
	twoDigitYearLayouts = []string{
		"01-02-06", "1-2-06", "1/2/06", "01/02/06", "06.01.02", "06. 1. 2.",
	}
)

// FieldError reports a cell that could not be decoded.
type FieldError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Reason)
}

// DecodeTransaction builds a Transaction from a canonical row.
// IDs and timestamps are left for the caller to assign.
func DecodeTransaction(row Row) (Transaction, error) {
	var tx Transaction

	typ, err := ParseTransactionType(row.Text(FieldType))
	if err != nil {
		return tx, err
	}

	amount, err := ParseAmount(row.Text(FieldAmount))
	if err != nil {
		return tx, err
	}

	date, err := ParseDate(row.Text(FieldDate))
	if err != nil {
		return tx, err
	}

	tx.Type = typ
	tx.Amount = amount
	tx.Date = date
	tx.Category1 = strings.TrimSpace(row.Text(FieldCategory1))
	tx.Category2 = strings.TrimSpace(row.Text(FieldCategory2))
	tx.PaymentMethod1 = strings.TrimSpace(row.Text(FieldPaymentMethod1))
	tx.PaymentMethod2 = strings.TrimSpace(row.Text(FieldPaymentMethod2))
	tx.Description = strings.TrimSpace(row.Text(FieldDescription))
	tx.Memo = strings.TrimSpace(row.Text(FieldMemo))
	return tx, nil
}

// ParseTransactionType accepts Korean and English spellings.
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "수입", "income", "in", "+":
		return TypeIncome, nil
	case "지출", "expense", "out", "-":
		return TypeExpense, nil
	case "":
		return "", &FieldError{Field: FieldType, Reason: "required field is empty"}
	default:
		return "", &FieldError{Field: FieldType, Value: s, Reason: "must be 수입/income or 지출/expense"}
	}
}

// ParseAmount parses a positive amount, tolerating currency symbols,
// the 원 suffix, thousands separators and accounting parentheses.
func ParseAmount(s string) (decimal.Decimal, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &FieldError{Field: FieldAmount, Reason: "required field is empty"}
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.NewReplacer(
		"₩", "", "￦", "", "$", "", "€", "", "£", "",
		"원", "", ",", "", " ", "",
	).Replace(s)

	if !numericRegex.MatchString(s) {
		return decimal.Zero, &FieldError{Field: FieldAmount, Value: raw, Reason: "invalid number"}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &FieldError{Field: FieldAmount, Value: raw, Reason: "invalid number"}
	}
	if negative {
		d = d.Neg()
	}
	if !d.IsPositive() {
		return decimal.Zero, &FieldError{Field: FieldAmount, Value: raw, Reason: "amount must be positive"}
	}
	return d, nil
}

// ParseDate parses the date formats seen in exported household ledgers.
// Bare numbers are read as Excel serial dates.
func ParseDate(s string) (time.Time, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &FieldError{Field: FieldDate, Reason: "required field is empty"}
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), nil
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return truncateDay(t), nil
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= 1 && serial < 2958466 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return truncateDay(t), nil
		}
	}

	return time.Time{}, &FieldError{Field: FieldDate, Value: raw, Reason: "invalid date"}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// TransactionRow converts a transaction into an export row in
// DefaultFieldOrder. Amounts are written as plain decimal text.
func TransactionRow(tx Transaction) Row {
	return NewRow(
		Field{FieldType, string(tx.Type)},
		Field{FieldAmount, tx.Amount.String()},
		Field{FieldDate, tx.Date.Format(DateLayout)},
		Field{FieldCategory1, tx.Category1},
		Field{FieldCategory2, tx.Category2},
		Field{FieldPaymentMethod1, tx.PaymentMethod1},
		Field{FieldPaymentMethod2, tx.PaymentMethod2},
		Field{FieldDescription, tx.Description},
		Field{FieldMemo, tx.Memo},
	)
}

package core

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func TestParseTransactionType(t *testing.T) {
	tests := []struct {
		in      string
		want    TransactionType
		wantErr bool
	}{
		{"수입", TypeIncome, false},
		{" income ", TypeIncome, false},
		{"INCOME", TypeIncome, false},
		{"지출", TypeExpense, false},
		{"expense", TypeExpense, false},
		{"-", TypeExpense, false},
		{"", "", true},
		{"이체", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTransactionType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTransactionType(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTransactionType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		want       string
		wantReason string
	}{
		{name: "integer", in: "12000", want: "12000"},
		{name: "thousands separators", in: "12,000", want: "12000"},
		{name: "won suffix", in: "12,000원", want: "12000"},
		{name: "won sign", in: "₩1,500.50", want: "1500.5"},
		{name: "fullwidth won sign", in: "￦ 800", want: "800"},
		{name: "dollar", in: "$9.99", want: "9.99"},
		{name: "leading decimal point", in: ".5", want: "0.5"},
		{name: "surrounding space", in: "  42 ", want: "42"},

		{name: "empty", in: "", wantReason: "required field is empty"},
		{name: "zero", in: "0", wantReason: "amount must be positive"},
		{name: "negative", in: "-100", wantReason: "amount must be positive"},
		{name: "accounting negative", in: "(1,000)", wantReason: "amount must be positive"},
		{name: "letters", in: "abc", wantReason: "invalid number"},
		{name: "two points", in: "1.2.3", wantReason: "invalid number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantReason != "" {
				var fe *FieldError
				if !errors.As(err, &fe) {
					t.Fatalf("ParseAmount(%q) err = %v, want *FieldError", tt.in, err)
				}
				if fe.Field != FieldAmount || fe.Reason != tt.wantReason {
					t.Errorf("FieldError = %+v, want reason %q", fe, tt.wantReason)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q): %v", tt.in, err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	jan15 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-15", jan15},
		{"2024/01/15", jan15},
		{"2024.01.15", jan15},
		{"2024.1.15", jan15},
		{"2024. 1. 15.", jan15},
		{"2024년 1월 15일", jan15},
		{"2024-01-15 13:45:00", jan15},
		{"2024-01-15T23:59:59+09:00", jan15},
		{"20240115", jan15},
		{"1/15/2024", jan15},
		{"45306", jan15},
		{"1/2/06", time.Date(2006, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if err != nil {
				t.Fatalf("ParseDate(%q): %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}

	for _, bad := range []string{"", "yesterday", "2024-13-01", "0"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q) succeeded, want error", bad)
		}
	}
}

func TestDecodeTransaction(t *testing.T) {
	row, _ := MapRow(NewRow(
		Field{"구분", "지출"},
		Field{"금액", "8,000원"},
		Field{"날짜", "2024.03.02"},
		Field{"대분류", " 식비 "},
		Field{"소분류", "점심"},
		Field{"결제수단", "카드"},
		Field{"내용", "김밥"},
	))

	tx, err := DecodeTransaction(row)
	if err != nil {
		t.Fatalf("DecodeTransaction: %v", err)
	}

	want := Transaction{
		Type:           TypeExpense,
		Amount:         decimal.NewFromInt(8000),
		Date:           time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		Category1:      "식비",
		Category2:      "점심",
		PaymentMethod1: "카드",
		Description:    "김밥",
	}
	opt := cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })
	if diff := cmp.Diff(want, tx, opt); diff != "" {
		t.Errorf("transaction mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeTransaction_FieldError(t *testing.T) {
	row := NewRow(
		Field{FieldType, "수입"},
		Field{FieldAmount, "many"},
		Field{FieldDate, "not a date"},
	)

	_, err := DecodeTransaction(row)
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FieldError", err)
	}
	if fe.Field != FieldAmount {
		t.Errorf("Field = %q, want the first failing field %q", fe.Field, FieldAmount)
	}
	if got, want := err.Error(), `amount "many": invalid number`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestTransactionRow(t *testing.T) {
	tx := Transaction{
		Type:   TypeIncome,
		Amount: decimal.RequireFromString("1500.50"),
		Date:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Memo:   "보너스",
	}

	row := TransactionRow(tx)

	if diff := cmp.Diff(DefaultFieldOrder, row.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	want := map[string]string{
		FieldType: "income", FieldAmount: "1500.5", FieldDate: "2024-05-01",
		FieldCategory1: "", FieldCategory2: "", FieldPaymentMethod1: "", FieldPaymentMethod2: "",
		FieldDescription: "", FieldMemo: "보너스",
	}
	if diff := cmp.Diff(want, row.Strings()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}

	// an exported row decodes back to the same transaction
	back, err := DecodeTransaction(row)
	if err != nil {
		t.Fatalf("DecodeTransaction: %v", err)
	}
	if back.Type != tx.Type || !back.Amount.Equal(tx.Amount) || !back.Date.Equal(tx.Date) || back.Memo != tx.Memo {
		t.Errorf("round trip = %+v, want %+v", back, tx)
	}
}

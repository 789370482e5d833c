package core

import (
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"2024-01-01", "2024-01-01", true},
		{" 2024-02-29 ", "2024-02-29", true},
		{"2023-02-29", "", false},
		{"2024-02-30", "", false},
		{"2024-13-01", "", false},
		{"01/02/2024", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || d.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, d, err)
			}
		} else if !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
		}
	}
}

func TestToday(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	now := time.Date(2024, 3, 9, 23, 30, 0, 0, loc)
	if got := Today(now).String(); got != "2024-03-09" {
		t.Fatalf("expected local calendar day, got %s", got)
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 0}).Validate(); err != nil {
		t.Fatalf("expected zero to be valid, got %v", err)
	}
	if err := (Money{Cents: -1}).Validate(); err == nil {
		t.Fatalf("expected error for negative amount")
	}
	if err := (Money{Cents: MaxAmountCents + 1}).Validate(); err == nil {
		t.Fatalf("expected error above the amount ceiling")
	}
}

func TestDraftAndExpenseValidate(t *testing.T) {
	good := Draft{
		Amount:      Money{Cents: 2000},
		Category:    "Food",
		Date:        NewDate(2024, 1, 1),
		Description: "Lunch",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := good.WithID("x").Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := good.WithID("  ").Validate(); !errors.Is(err, ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}

	bads := []struct {
		d    Draft
		want error
	}{
		{Draft{Amount: Money{Cents: -1}, Category: "c", Date: NewDate(2024, 1, 1), Description: "a"}, ErrInvalidAmount},
		{Draft{Amount: Money{Cents: 1}, Category: " ", Date: NewDate(2024, 1, 1), Description: "a"}, ErrEmptyCategory},
		{Draft{Amount: Money{Cents: 1}, Category: "c", Description: "a"}, ErrInvalidDate},
		{Draft{Amount: Money{Cents: 1}, Category: "c", Date: NewDate(2024, 1, 1), Description: ""}, ErrEmptyDescription},
	}
	for i, tc := range bads {
		if err := tc.d.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestExpenseJSONShape(t *testing.T) {
	e := Expense{
		ID:          "a1",
		Amount:      Money{Cents: 2050},
		Category:    "Food",
		Date:        NewDate(2024, 1, 1),
		Description: "Lunch",
	}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":"a1","amount":20.50,"category":"Food","date":"2024-01-01","description":"Lunch"}`
	if string(b) != want {
		t.Fatalf("unexpected json:\n got %s\nwant %s", b, want)
	}

	var back Expense
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != e {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, e)
	}
}

func TestDateUnmarshalRejectsInvalid(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2024-02-30"`), &d); err == nil {
		t.Fatalf("expected error")
	}
	if err := json.Unmarshal([]byte(`20240101`), &d); err == nil {
		t.Fatalf("expected error for non-string date")
	}
}

package core

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{".5", 50, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"0.00", 0, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{".", 0, false},
		{"1e3", 0, false},
		{"", 0, false},
		{"99999999999999999999", 0, false},
		{"1000000000000", MaxAmountCents, true},
		{"1000000000000.01", 0, false},
		{"50000000000000000", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:      "0.00",
		5:      "0.05",
		2000:   "20.00",
		123456: "1234.56",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Fatalf("%d: expected %s, got %s", cents, want, got)
		}
	}
}

func TestMoneyUnmarshalJSON(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{`20`, 2000, true},
		{`20.5`, 2050, true},
		{`0.125`, 13, true},
		{`"12.34"`, 1234, true},
		{`0`, 0, true},
		{`-1`, 0, false},
		{`"abc"`, 0, false},
		{`true`, 0, false},
		{`1000000000000`, MaxAmountCents, true},
		{`1000000000000.01`, 0, false},
		{`50000000000000000`, 0, false},
	}
	for _, tc := range cases {
		var m Money
		err := json.Unmarshal([]byte(tc.in), &m)
		if tc.ok {
			if err != nil || m.Cents != tc.out {
				t.Fatalf("%s expected %d, got %d (err=%v)", tc.in, tc.out, m.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%s expected error", tc.in)
		}
	}
}

func TestMoneyAddSaturates(t *testing.T) {
	if got := (Money{Cents: 2000}).Add(Money{Cents: 3000}); got.Cents != 5000 {
		t.Fatalf("2000+3000 = %d", got.Cents)
	}
	near := Money{Cents: math.MaxInt64 - 10}
	if got := near.Add(Money{Cents: 50}); got.Cents != math.MaxInt64 {
		t.Fatalf("expected saturation, got %d", got.Cents)
	}
	if got := (Money{Cents: math.MinInt64 + 1}).Add(Money{Cents: -5}); got.Cents != math.MinInt64 {
		t.Fatalf("expected negative saturation, got %d", got.Cents)
	}
}

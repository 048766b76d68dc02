// Copyright (c) 2025 BVK Chaitanya

package quote

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormat(t *testing.T) {
	d := decimal.RequireFromString

	if s := FormatPrice(d("1234.5"), "USD"); s != "$1,234.50" {
		t.Fatalf("wanted $1,234.50, got %q", s)
	}
	if s := FormatPrice(decimal.Zero, "USD"); s != NoValue {
		t.Fatalf("wanted %q, got %q", NoValue, s)
	}
	if s := FormatChangePercent(d("1.254")); s != "+1.25%" {
		t.Fatalf("wanted +1.25%%, got %q", s)
	}
	if s := FormatChangePercent(d("-0.4")); s != "-0.40%" {
		t.Fatalf("wanted -0.40%%, got %q", s)
	}
	if s := FormatChangePercent(decimal.Zero); s != "0.00%" {
		t.Fatalf("wanted 0.00%%, got %q", s)
	}
	if s := FormatMarketCap(d("2850000000000"), "USD"); s != "$2.85T" {
		t.Fatalf("wanted $2.85T, got %q", s)
	}
	if s := FormatMarketCap(d("410200000000"), "USD"); s != "$410.20B" {
		t.Fatalf("wanted $410.20B, got %q", s)
	}
	if s := FormatMarketCap(d("75000000"), "USD"); s != "$75.00M" {
		t.Fatalf("wanted $75.00M, got %q", s)
	}
	if s := FormatPERatio(d("28.46")); s != "28.5" {
		t.Fatalf("wanted 28.5, got %q", s)
	}
	if s := FormatPERatio(d("1234.5")); s != "1,234.5" {
		t.Fatalf("wanted 1,234.5, got %q", s)
	}
	if s := FormatPERatio(d("-3")); s != NoValue {
		t.Fatalf("wanted %q, got %q", NoValue, s)
	}
}

func TestCheckSymbol(t *testing.T) {
	for _, s := range []string{"AAPL", "BRK.B", "^GSPC", "EURUSD=X"} {
		if err := CheckSymbol(s); err != nil {
			t.Fatalf("%s: wanted nil, got %v", s, err)
		}
	}
	for _, s := range []string{"", "A/B", "AA PL", "aapl"} {
		if err := CheckSymbol(s); err == nil {
			t.Fatalf("%q: wanted non-nil error", s)
		}
	}
}

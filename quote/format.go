// Copyright (c) 2025 BVK Chaitanya

package quote

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NoValue is displayed for fields the market-data source didn't report.
const NoValue = "—"

var (
	million  = decimal.New(1, 6)
	billion  = decimal.New(1, 9)
	trillion = decimal.New(1, 12)

	printer = message.NewPrinter(language.English)
)

// FormatPrice renders an amount with the currency symbol, eg: "$1,234.50".
func FormatPrice(v decimal.Decimal, currency string) string {
	if v.IsZero() {
		return NoValue
	}
	cur := money.GetCurrency(currency)
	if cur == nil {
		return currency + " " + v.StringFixed(2)
	}
	minor := v.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, currency).Display()
}

// FormatChangePercent renders a signed percentage with two decimals, eg:
// "+1.25%" or "-0.40%".
func FormatChangePercent(pct decimal.Decimal) string {
	s := pct.StringFixed(2) + "%"
	if pct.IsPositive() {
		return "+" + s
	}
	return s
}

// FormatMarketCap renders a market capitalization in the largest unit that
// keeps the integer part non-zero, eg: "$2.85T", "$410.20B" or "$75.00M".
func FormatMarketCap(v decimal.Decimal, currency string) string {
	if !v.IsPositive() {
		return NoValue
	}
	symbol := currency + " "
	if c := money.GetCurrency(currency); c != nil {
		symbol = c.Grapheme
	}
	switch {
	case v.GreaterThanOrEqual(trillion):
		return symbol + v.Div(trillion).StringFixed(2) + "T"
	case v.GreaterThanOrEqual(billion):
		return symbol + v.Div(billion).StringFixed(2) + "B"
	case v.GreaterThanOrEqual(million):
		return symbol + v.Div(million).StringFixed(2) + "M"
	}
	return FormatPrice(v, currency)
}

// FormatPERatio renders a P/E ratio with one decimal and thousands grouping.
func FormatPERatio(v decimal.Decimal) string {
	if !v.IsPositive() {
		return NoValue
	}
	f, _ := v.Round(1).Float64()
	return printer.Sprintf("%.1f", f)
}

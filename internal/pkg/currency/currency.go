// Package currency converts a base price into every supported currency,
// formats amounts for display and resolves a visitor's preferred currency.
package currency

import (
	"strings"
)

// Code is an ISO 4217 currency code from the supported set.
type Code string

const (
	USD Code = "USD"
	TRY Code = "TRY"
	BRL Code = "BRL"
)

// Default is returned for any missing or unrecognized input.
const Default = USD

// Reference is the common unit every conversion goes through.
const Reference = USD

// Margin is applied to converted (non-base, non-override) amounts to absorb
// exchange-rate drift between rate updates.
const Margin = 1.04

// Supported lists the supported currencies in display order.
var Supported = []Code{USD, TRY, BRL}

// rates are units of each currency per one unit of Reference.
var rates = map[Code]float64{
	USD: 1,
	TRY: 33.5,
	BRL: 5.4,
}

var symbols = map[Code]string{
	USD: "$",
	TRY: "₺",
	BRL: "R$",
}

// Normalize uppercases and validates code, returning Default on anything
// outside the supported set.
func Normalize(code string) Code {
	c := Code(strings.ToUpper(strings.TrimSpace(code)))
	if IsSupported(c) {
		return c
	}
	return Default
}

// IsSupported reports whether c is one of the supported currencies.
func IsSupported(c Code) bool {
	_, ok := rates[c]
	return ok
}

// Parse is like Normalize but reports whether the input was recognized.
func Parse(code string) (Code, bool) {
	c := Code(strings.ToUpper(strings.TrimSpace(code)))
	if !IsSupported(c) {
		return Default, false
	}
	return c, true
}

// Symbol returns the display symbol of c.
func Symbol(c Code) string {
	if s, ok := symbols[c]; ok {
		return s
	}
	return string(c)
}

// Rate returns the units of c per one unit of Reference.
func Rate(c Code) float64 {
	return rates[Normalize(string(c))]
}

func (c Code) String() string {
	return string(c)
}

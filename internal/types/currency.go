package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a plan is created without a currency code
const DefaultCurrency = "USD"

// CURRENCY_CODES_SYMBOLS is a map of 3 digit ISO currency codes to their symbols
var CURRENCY_CODES_SYMBOLS = map[string]string{
	"usd": "$",
	"eur": "€",
	"gbp": "£",
	"aud": "AU$",
	"cad": "CA$",
	"chf": "CHF",
	"sek": "kr",
	"nzd": "NZ$",
	"hkd": "HK$",
	"sgd": "S$",
	"jpy": "¥",
	"cny": "¥",
	"inr": "₹",
	"brl": "R$",
	"mxn": "MX$",
	"krw": "₩",
	"zar": "R",
	"kes": "KSh",
	"ngn": "₦",
}

// zeroDecimalCurrencies have no minor unit
var zeroDecimalCurrencies = map[string]struct{}{
	"jpy": {},
	"krw": {},
}

// GetCurrencySymbol returns the symbol for a given currency code
// if the code is not found, it returns the code itself
func GetCurrencySymbol(code string) string {
	if symbol, ok := CURRENCY_CODES_SYMBOLS[strings.ToLower(code)]; ok {
		return symbol
	}
	return code
}

// GetCurrencyPrecision returns the number of decimal places of the currency's minor unit
func GetCurrencyPrecision(code string) int32 {
	if _, ok := zeroDecimalCurrencies[strings.ToLower(code)]; ok {
		return 0
	}
	return 2
}

// RoundToCurrencyPrecision rounds amount half away from zero to the currency's minor unit
func RoundToCurrencyPrecision(amount decimal.Decimal, code string) decimal.Decimal {
	return amount.Round(GetCurrencyPrecision(code))
}

// FormatAmount renders amount with the currency symbol, e.g. "$25.00"
func FormatAmount(amount decimal.Decimal, code string) string {
	precision := GetCurrencyPrecision(code)
	symbol := GetCurrencySymbol(code)
	if amount.IsNegative() {
		return "-" + symbol + amount.Abs().StringFixed(precision)
	}
	return symbol + amount.StringFixed(precision)
}

// IsValidCurrencyCode reports whether code looks like an ISO 4217 alpha code
func IsValidCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

package services

import "github.com/shopspring/decimal"

// dec parses a decimal literal for tests
func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

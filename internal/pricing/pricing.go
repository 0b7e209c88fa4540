package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Package prices are fixed for the collection period. Amounts are exact
// decimals to keep balance math free of cent-level drift.
var packages = map[string]decimal.Decimal{
	"A": decimal.RequireFromString("265.00"),
	"B": decimal.RequireFromString("1105.00"),
	"C": decimal.RequireFromString("1255.00"),
}

// Price returns the price for a package identifier.
func Price(pkg string) (decimal.Decimal, bool) {
	price, ok := packages[pkg]
	return price, ok
}

// Known reports whether the package identifier is priced.
func Known(pkg string) bool {
	_, ok := packages[pkg]
	return ok
}

// Packages returns the sorted list of package identifiers.
func Packages() []string {
	ids := make([]string, 0, len(packages))
	for id := range packages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

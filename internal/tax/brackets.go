package tax

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Bracket taxes the slice of income above Lower at Rate.
type Bracket struct {
	Lower decimal.Decimal `json:"lower"`
	Rate  decimal.Decimal `json:"rate"`
}

// Table is a progressive bracket table, kept highest threshold first.
type Table struct {
	brackets []Bracket
}

// NewTable validates the brackets and orders them highest threshold first.
func NewTable(brackets []Bracket) (*Table, error) {
	if len(brackets) == 0 {
		return nil, fmt.Errorf("bracket table is empty")
	}

	sorted := make([]Bracket, len(brackets))
	copy(sorted, brackets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Lower.GreaterThan(sorted[j].Lower)
	})

	one := decimal.NewFromInt(1)
	for i, b := range sorted {
		if b.Lower.IsNegative() {
			return nil, fmt.Errorf("bracket %s: negative threshold", b.Lower)
		}
		if b.Rate.IsNegative() || b.Rate.GreaterThanOrEqual(one) {
			return nil, fmt.Errorf("bracket %s: rate %s outside [0,1)", b.Lower, b.Rate)
		}
		if i > 0 && !sorted[i-1].Lower.GreaterThan(b.Lower) {
			return nil, fmt.Errorf("bracket %s: duplicate threshold", b.Lower)
		}
	}

	return &Table{brackets: sorted}, nil
}

// Brackets returns a copy of the table, highest threshold first.
func (t *Table) Brackets() []Bracket {
	out := make([]Bracket, len(t.brackets))
	copy(out, t.brackets)
	return out
}

// ComputeTax returns the tax owed on a net taxable income.
// Each bracket only taxes the part of income between its threshold and the
// next higher one. Income at or below the lowest threshold owes nothing.
func (t *Table) ComputeTax(netIncome decimal.Decimal) decimal.Decimal {
	tax := decimal.Zero
	income := netIncome
	if !income.IsPositive() {
		return tax
	}

	for _, b := range t.brackets {
		if income.GreaterThan(b.Lower) {
			tax = tax.Add(income.Sub(b.Lower).Mul(b.Rate))
			income = b.Lower
		}
	}

	return tax
}

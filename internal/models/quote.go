package models

import "github.com/shopspring/decimal"

// Quote is a live market quote for a ticker
type Quote struct {
	Symbol        string          `json:"symbol"`
	Current       decimal.Decimal `json:"c"`
	Change        decimal.Decimal `json:"d"`
	PercentChange decimal.Decimal `json:"dp"`
	High          decimal.Decimal `json:"h"`
	Low           decimal.Decimal `json:"l"`
	Open          decimal.Decimal `json:"o"`
	PreviousClose decimal.Decimal `json:"pc"`
	Timestamp     int64           `json:"t"`
}

// QuoteResult is one entry of a batch quote lookup; Error is set when the
// symbol could not be fetched.
type QuoteResult struct {
	Quote *Quote `json:"quote,omitempty"`
	Error string `json:"error,omitempty"`
}

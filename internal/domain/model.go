package domain

import "github.com/shopspring/decimal"

// Usage is the token accounting reported by the completion provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Cost             decimal.Decimal // USD, zero when the provider omits it
}

func (u Usage) HasCost() bool {
	return u.Cost.GreaterThan(decimal.Zero)
}

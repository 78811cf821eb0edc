package models

// ExtractedDeal is what the vision model reads off a deal screenshot.
type ExtractedDeal struct {
	Title         string      `json:"title" validate:"required"`
	StoreName     string      `json:"storeName" validate:"required"`
	StoreDomain   string      `json:"storeDomain,omitempty"`
	Description   string      `json:"description,omitempty"`
	SavingsAmount string      `json:"savingsAmount,omitempty"`
	SavingsType   SavingsType `json:"savingsType" validate:"omitempty,oneof=percentage fixed_amount bogo free_shipping free_gift other"`
	Code          string      `json:"code,omitempty"`
	URL           string      `json:"url,omitempty"`
	Conditions    string      `json:"conditions,omitempty"`
	CategoryGuess string      `json:"categoryGuess,omitempty" validate:"omitempty,oneof=electronics fashion home food travel beauty sports entertainment services other"`
}

package types

import "github.com/shopcanvas/backend/pkg/enums"

// PaymentInfo records how the shopper chose to pay. The method is a label,
// not a processed transaction; card sub-fields are display-only and present
// only for card methods. Card numbers are stored masked.
type PaymentInfo struct {
	Method        enums.PaymentMethod `json:"method"`
	CardNumber    string              `json:"card_number,omitempty"`
	CardHolder    string              `json:"card_holder,omitempty"`
	CardBrand     enums.CardBrand     `json:"card_brand,omitempty"`
	ExpiryMonth   string              `json:"expiry_month,omitempty"`
	ExpiryYear    string              `json:"expiry_year,omitempty"`
	TransactionID string              `json:"transaction_id,omitempty"`
}

package enums

import "strings"

// CardBrand is a cosmetic display hint derived from the card number prefix.
// It is never authoritative and is not used for any processing decision.
type CardBrand string

const (
	CardBrandVisa       CardBrand = "visa"
	CardBrandMastercard CardBrand = "mastercard"
	CardBrandUnknown    CardBrand = "unknown"
)

// DetectCardBrand inspects the leading digit of the (possibly spaced) card
// number. Prefix 4 reads as Visa, 5 as Mastercard, anything else is unknown.
func DetectCardBrand(cardNumber string) CardBrand {
	digits := strings.ReplaceAll(strings.TrimSpace(cardNumber), " ", "")
	switch {
	case strings.HasPrefix(digits, "4"):
		return CardBrandVisa
	case strings.HasPrefix(digits, "5"):
		return CardBrandMastercard
	default:
		return CardBrandUnknown
	}
}

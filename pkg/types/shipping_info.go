package types

// ShippingInfo is captured once at checkout and frozen into the order header.
// State and zip code may be blank; everything else is required at submission.
type ShippingInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// Package address defines the payment/shipping address shared by the
// protocol decoders and the cart.
package address

// Address mirrors the W3C PaymentAddress field set. Optional fields stay
// empty unless the source payload explicitly supplied a value.
type Address struct {
	Country           string
	AddressLines      []string
	Region            string
	City              string
	DependentLocality string
	PostalCode        string
	SortingCode       string
	LanguageCode      string
	Organization      string
	Recipient         string
	Phone             string
}

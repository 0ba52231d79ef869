package types

import "strings"

// ShippingAddress is the delivery contact block captured during checkout.
// Stored as jsonb on checkout sessions and orders.
type ShippingAddress struct {
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

// Validate returns a field-name keyed map of violations. Every field is
// required; an empty map means the address is complete.
func (a ShippingAddress) Validate() map[string]string {
	violations := map[string]string{}
	fields := map[string]string{
		"name":        a.Name,
		"surname":     a.Surname,
		"street":      a.Street,
		"city":        a.City,
		"postal_code": a.PostalCode,
		"phone":       a.Phone,
		"email":       a.Email,
	}
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			violations[name] = "is required"
		}
	}
	if a.Email != "" && !strings.Contains(a.Email, "@") {
		violations["email"] = "must be a valid email"
	}
	return violations
}

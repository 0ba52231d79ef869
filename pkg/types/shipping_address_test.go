package types

import "testing"

func TestShippingAddressValidateComplete(t *testing.T) {
	addr := ShippingAddress{
		Name:       "Ana",
		Surname:    "García",
		Street:     "Calle Mayor 1",
		City:       "Madrid",
		PostalCode: "28001",
		Phone:      "+34 600 000 000",
		Email:      "ana@example.com",
	}
	if violations := addr.Validate(); len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestShippingAddressValidateMissingEmail(t *testing.T) {
	addr := ShippingAddress{
		Name:       "Ana",
		Surname:    "García",
		Street:     "Calle Mayor 1",
		City:       "Madrid",
		PostalCode: "28001",
		Phone:      "+34 600 000 000",
	}
	violations := addr.Validate()
	if violations["email"] != "is required" {
		t.Fatalf("expected email violation, got %v", violations)
	}
	if len(violations) != 1 {
		t.Fatalf("expected a single violation, got %v", violations)
	}
}

func TestShippingAddressValidateBadEmail(t *testing.T) {
	addr := ShippingAddress{
		Name:       "Ana",
		Surname:    "García",
		Street:     "Calle Mayor 1",
		City:       "Madrid",
		PostalCode: "28001",
		Phone:      "+34 600 000 000",
		Email:      "not-an-email",
	}
	if violations := addr.Validate(); violations["email"] != "must be a valid email" {
		t.Fatalf("expected email format violation, got %v", violations)
	}
}

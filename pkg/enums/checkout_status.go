package enums

import "fmt"

// CheckoutStatus tracks the server-side checkout session state machine.
type CheckoutStatus string

const (
	CheckoutStatusDraft          CheckoutStatus = "draft"
	CheckoutStatusPaymentPending CheckoutStatus = "payment_pending"
	CheckoutStatusConfirmed      CheckoutStatus = "confirmed"
	CheckoutStatusFailed         CheckoutStatus = "failed"
)

var validCheckoutStatuses = []CheckoutStatus{
	CheckoutStatusDraft,
	CheckoutStatusPaymentPending,
	CheckoutStatusConfirmed,
	CheckoutStatusFailed,
}

// Transitions are strictly adjacent: draft and payment_pending may move
// back and forth, confirmed and failed are terminal.
var checkoutTransitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusDraft:          {CheckoutStatusPaymentPending},
	CheckoutStatusPaymentPending: {CheckoutStatusDraft, CheckoutStatusConfirmed, CheckoutStatusFailed},
}

// String implements fmt.Stringer.
func (s CheckoutStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CheckoutStatus.
func (s CheckoutStatus) IsValid() bool {
	for _, candidate := range validCheckoutStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the session can no longer move.
func (s CheckoutStatus) IsTerminal() bool {
	return len(checkoutTransitions[s]) == 0
}

// CanTransitionTo reports whether moving to the target status is allowed.
func (s CheckoutStatus) CanTransitionTo(target CheckoutStatus) bool {
	for _, candidate := range checkoutTransitions[s] {
		if candidate == target {
			return true
		}
	}
	return false
}

// ParseCheckoutStatus converts raw input into a CheckoutStatus.
func ParseCheckoutStatus(value string) (CheckoutStatus, error) {
	for _, candidate := range validCheckoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout status %q", value)
}

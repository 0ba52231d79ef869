// Package payments provides the charge gateway used at checkout
// confirmation. The only implementation is a deterministic simulator:
// no real payment provider is contacted.
package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/libreria-dev/libreria-backend/pkg/config"
	"github.com/libreria-dev/libreria-backend/pkg/enums"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
)

// ChargeRequest describes the payment to authorize.
type ChargeRequest struct {
	SessionID uuid.UUID
	Amount    decimal.Decimal
	Method    enums.PaymentMethod
	// CardLastFour drives the simulated decline rule for card payments.
	CardLastFour *string
}

// ChargeResult is the gateway outcome. A declined charge is a normal
// result, not an error.
type ChargeResult struct {
	Authorized bool
	Reference  string
	Reason     string
}

// Gateway authorizes checkout charges.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

type simulator struct {
	latency       time.Duration
	declineSuffix string
	sleep         func(ctx context.Context, d time.Duration) error
}

// NewSimulator builds the simulated gateway from payments config.
func NewSimulator(cfg config.PaymentsConfig) Gateway {
	return &simulator{
		latency:       cfg.SimulatedLatency,
		declineSuffix: cfg.DeclineSuffix,
		sleep:         sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *simulator) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if !req.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if req.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge amount cannot be negative")
	}

	if err := s.sleep(ctx, s.latency); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway timeout")
	}

	if req.Method == enums.PaymentMethodCard && req.CardLastFour != nil &&
		s.declineSuffix != "" && strings.HasSuffix(*req.CardLastFour, s.declineSuffix) {
		return &ChargeResult{
			Authorized: false,
			Reason:     "el pago ha sido rechazado por la entidad emisora",
		}, nil
	}

	return &ChargeResult{
		Authorized: true,
		Reference:  fmt.Sprintf("sim_%s", uuid.NewString()),
	}, nil
}

package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/internal/cart"
	"github.com/libreria-dev/libreria-backend/internal/cart/stockgate"
	"github.com/libreria-dev/libreria-backend/internal/coupons"
	"github.com/libreria-dev/libreria-backend/internal/orders"
	"github.com/libreria-dev/libreria-backend/internal/payments"
	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	"github.com/libreria-dev/libreria-backend/pkg/enums"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
	"github.com/libreria-dev/libreria-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type couponChecker interface {
	Redeemable(ctx context.Context, code string) (*models.Coupon, error)
}

type stockReserver func(ctx context.Context, tx *gorm.DB, requests []stockgate.Request) ([]stockgate.Result, error)

// ConfirmInput carries the last-step payment details.
type ConfirmInput struct {
	// CardLastFour feeds the simulated gateway's decline rule when the
	// session pays by card.
	CardLastFour *string
}

// Service drives the checkout session state machine from draft to a
// confirmed order.
type Service interface {
	Start(ctx context.Context, owner cart.Owner) (*models.CheckoutSession, error)
	Get(ctx context.Context, owner cart.Owner, sessionID uuid.UUID) (*models.CheckoutSession, error)
	SetShipping(ctx context.Context, owner cart.Owner, sessionID uuid.UUID, address types.ShippingAddress) (*models.CheckoutSession, error)
	SetPayment(ctx context.Context, owner cart.Owner, sessionID uuid.UUID, method enums.PaymentMethod) (*models.CheckoutSession, error)
	ApplyCoupon(ctx context.Context, owner cart.Owner, sessionID uuid.UUID, code string) (*models.CheckoutSession, error)
	RemoveCoupon(ctx context.Context, owner cart.Owner, sessionID uuid.UUID) (*models.CheckoutSession, error)
	// Back returns a payment_pending session to draft so the buyer can
	// edit shipping or coupon details.
	Back(ctx context.Context, owner cart.Owner, sessionID uuid.UUID) (*models.CheckoutSession, error)
	Confirm(ctx context.Context, owner cart.Owner, sessionID uuid.UUID, input ConfirmInput) (*models.CheckoutSession, error)
}

type service struct {
	tx       txRunner
	sessions SessionRepository
	carts    cart.CartRepository
	coupons  couponChecker
	couponDB coupons.CouponRepository
	orders   orders.OrderRepository
	gateway  payments.Gateway
	reserve  stockReserver
	now      func() time.Time
}

// ServiceParams bundles the dependencies required to build a checkout service.
type ServiceParams struct {
	TxRunner      txRunner
	SessionRepo   SessionRepository
	CartRepo      cart.CartRepository
	CouponChecker couponChecker
	CouponRepo    coupons.CouponRepository
	OrderRepo     orders.OrderRepository
	Gateway       payments.Gateway
}

// NewService constructs a checkout service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if params.SessionRepo == nil {
		return nil, fmt.Errorf("session repository is required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if params.CouponChecker == nil {
		return nil, fmt.Errorf("coupon checker is required")
	}
	if params.CouponRepo == nil {
		return nil, fmt.Errorf("coupon repository is required")
	}
	if params.OrderRepo == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway is required")
	}
	return &service{
		tx:       params.TxRunner,
		sessions: params.SessionRepo,
		carts:    params.CartRepo,
		coupons:  params.CouponChecker,
		couponDB: params.CouponRepo,
		orders:   params.OrderRepo,
		gateway:  params.Gateway,
		reserve:  stockgate.Reserve,
		now:      time.Now,
	}, nil
}

func (s *service) Start(ctx context.Context, owner cart.Owner) (*models.CheckoutSession, error) {
	record, err := s.loadCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(record.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	subtotal := cart.ComputeSubtotal(record.Items)

	// Reuse the open session for this cart instead of stacking drafts.
	if existing, err := s.sessions.FindOpenByCart(ctx, record.ID); err == nil {
		existing.Subtotal = subtotal
		existing.Discount, existing.Total = recomputeTotals(ctx, s.coupons, existing.CouponCode, subtotal)
		if _, err := s.sessions.Update(ctx, existing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "refresh session totals")
		}
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup open session")
	}

	session := &models.CheckoutSession{
		CartID:     record.ID,
		CustomerID: owner.CustomerID,
		Status:     enums.CheckoutStatusDraft,
		Subtotal:   subtotal,
		Discount:   decimal.Zero,
		Total:      subtotal,
	}
	created, err := s.sessions.Create(ctx, session)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create checkout session")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, owner cart.Owner, sessionID uuid.UUID) (*models.CheckoutSession, error) {
	return s.loadOwned(ctx, owner, sessionID)
}

func (s *service) SetShipping(ctx context.Context, owner cart.Owner, sessionID uuid.UUID, address types.ShippingAddress) (*models.CheckoutSession, error) {
	if problems := address.Validate(); len(problems) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping address").WithDetails(problems)
	}
	session, err := s.loadOwned(ctx, owner, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != enums.CheckoutStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "shipping can only change while the session is in draft")
	}
	session.ShippingAddress = &address
	if _, err := s.sessions.Update(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save shipping address")
	}
	return session, nil
}

func (s *service) SetPayment(ctx context.Context, owner cart.Owner, sessionID uuid.UUID, method enums.PaymentMethod) (*models.CheckoutSession, error) {
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	session, err := s.loadOwned(ctx, owner, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != enums.CheckoutStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment can only be selected while the session is in draft")
	}
	if session.ShippingAddress == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address must be set before choosing payment")
	}
	session.PaymentMethod = &method
	session.Status = enums.CheckoutStatusPaymentPending
	if _, err := s.sessions.Update(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save payment method")
	}
	return session, nil
}

func (s *service) ApplyCoupon(ctx context.Context, owner cart.Owner, sessionID uuid.UUID, code string) (*models.CheckoutSession, error) {
	session, err := s.loadOwned(ctx, owner, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != enums.CheckoutStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "coupons can only change while the session is in draft")
	}

	coupon, err := s.coupons.Redeemable(ctx, code)
	if err != nil {
		return nil, err
	}

	session.CouponCode = &coupon.Code
	session.Discount = percentOf(session.Subtotal, coupon.PercentOff)
	session.Total = session.Subtotal.Sub(session.Discount)
	if _, err := s.sessions.Update(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply coupon")
	}
	return session, nil
}

func (s *service) RemoveCoupon(ctx context.Context, owner cart.Owner, sessionID uuid.UUID) (*models.CheckoutSession, error) {
	session, err := s.loadOwned(ctx, owner, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != enums.CheckoutStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "coupons can only change while the session is in draft")
	}
	session.CouponCode = nil
	session.Discount = decimal.Zero
	session.Total = session.Subtotal
	if _, err := s.sessions.Update(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove coupon")
	}
	return session, nil
}

func (s *service) Back(ctx context.Context, owner cart.Owner, sessionID uuid.UUID) (*models.CheckoutSession, error) {
	session, err := s.loadOwned(ctx, owner, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Status.CanTransitionTo(enums.CheckoutStatusDraft) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("session in status %q cannot return to draft", session.Status))
	}
	session.Status = enums.CheckoutStatusDraft
	if _, err := s.sessions.Update(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reopen session")
	}
	return session, nil
}

var errPaymentDeclined = errors.New("payment declined")

func (s *service) Confirm(ctx context.Context, owner cart.Owner, sessionID uuid.UUID, input ConfirmInput) (*models.CheckoutSession, error) {
	session, err := s.loadOwned(ctx, owner, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Status.CanTransitionTo(enums.CheckoutStatusConfirmed) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("session in status %q cannot be confirmed", session.Status))
	}
	if session.ShippingAddress == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}
	if session.PaymentMethod == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}

	var declineReason string
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		sessions := s.sessions.WithTx(tx)
		carts := s.carts.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)
		couponRepo := s.couponDB.WithTx(tx)

		// Claim the session before touching stock or the gateway. The
		// pre-check above ran on a row loaded outside this transaction,
		// so a concurrent confirm of the same session could also have
		// seen payment_pending; the guarded update lets only one of
		// them through.
		claimed, err := sessions.ClaimPending(ctx, session.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claim session")
		}
		if !claimed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "session is no longer awaiting payment")
		}

		record, err := carts.FindByID(ctx, session.CartID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		if len(record.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		// Totals follow the cart as it exists right now, not the
		// snapshot taken when the session was started.
		subtotal := cart.ComputeSubtotal(record.Items)
		discount := decimal.Zero
		var coupon *models.Coupon
		if session.CouponCode != nil {
			coupon, err = s.coupons.Redeemable(ctx, *session.CouponCode)
			if err != nil {
				return err
			}
			discount = percentOf(subtotal, coupon.PercentOff)
		}
		total := subtotal.Sub(discount)

		requests := make([]stockgate.Request, len(record.Items))
		for i, item := range record.Items {
			requests[i] = stockgate.Request{
				CartItemID: item.ID,
				BookID:     item.BookID,
				Quantity:   item.Quantity,
			}
		}
		results, err := s.reserve(ctx, tx, requests)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reserve stock")
		}
		failed := make([]stockgate.Result, 0)
		for _, result := range results {
			if !result.Reserved {
				failed = append(failed, result)
			}
		}
		if len(failed) > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "some items are out of stock").WithDetails(failed)
		}

		session.PaymentAttempts++
		charge, err := s.gateway.Charge(ctx, payments.ChargeRequest{
			SessionID:    session.ID,
			Amount:       total,
			Method:       *session.PaymentMethod,
			CardLastFour: input.CardLastFour,
		})
		if err != nil {
			return err
		}
		if !charge.Authorized {
			declineReason = charge.Reason
			// Roll back the stock decrement by failing the tx.
			return errPaymentDeclined
		}

		now := s.now().UTC()
		order := &models.Order{
			Number:          orders.NewNumber(now),
			CustomerID:      session.CustomerID,
			Status:          enums.OrderStatusPending,
			ShippingAddress: *session.ShippingAddress,
			PaymentMethod:   *session.PaymentMethod,
			CouponCode:      session.CouponCode,
			Subtotal:        subtotal,
			Discount:        discount,
			Total:           total,
			PlacedAt:        now,
		}
		for _, item := range record.Items {
			line := models.OrderLineItem{
				BookID:    item.BookID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				Subtotal:  item.Subtotal(),
			}
			if item.Book != nil {
				line.Title = item.Book.Title
				line.ISBN = item.Book.ISBN
			}
			order.LineItems = append(order.LineItems, line)
		}
		if _, err := ordersRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		if coupon != nil {
			if err := couponRepo.IncrementRedemptions(ctx, coupon.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "redeem coupon")
			}
		}

		if err := carts.ClearItems(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}

		session.Status = enums.CheckoutStatusConfirmed
		session.Subtotal = subtotal
		session.Discount = discount
		session.Total = total
		session.OrderID = &order.ID
		session.ConfirmedAt = &now
		session.FailureReason = nil
		if _, err := sessions.Update(ctx, session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "confirm session")
		}
		return nil
	})

	if errors.Is(err, errPaymentDeclined) {
		// A decline is retryable: the session stays in payment_pending
		// with the reason recorded so the buyer can try again.
		session.FailureReason = &declineReason
		if _, updateErr := s.sessions.Update(ctx, session); updateErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, updateErr, "record payment failure")
		}
		return nil, pkgerrors.New(pkgerrors.CodeConflict, declineReason)
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *service) loadCart(ctx context.Context, owner cart.Owner) (*models.Cart, error) {
	if owner.CustomerID == nil && owner.SessionToken == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart owner required")
	}
	record, err := s.carts.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return record, nil
}

func (s *service) loadOwned(ctx context.Context, owner cart.Owner, sessionID uuid.UUID) (*models.CheckoutSession, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	record, err := s.loadCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load checkout session")
	}
	if session.CartID != record.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
	}
	return session, nil
}

// recomputeTotals re-derives discount and total from the current
// subtotal, dropping the coupon when it is no longer redeemable.
func recomputeTotals(ctx context.Context, checker couponChecker, code *string, subtotal decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if code == nil {
		return decimal.Zero, subtotal
	}
	coupon, err := checker.Redeemable(ctx, *code)
	if err != nil {
		return decimal.Zero, subtotal
	}
	discount := percentOf(subtotal, coupon.PercentOff)
	return discount, subtotal.Sub(discount)
}

func percentOf(amount decimal.Decimal, percent int) decimal.Decimal {
	return amount.
		Mul(decimal.NewFromInt(int64(percent))).
		Div(decimal.NewFromInt(100)).
		Round(2)
}

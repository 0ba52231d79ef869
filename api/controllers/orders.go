package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/libreria-dev/libreria-backend/api/responses"
	"github.com/libreria-dev/libreria-backend/api/validators"
	ordersvc "github.com/libreria-dev/libreria-backend/internal/orders"
	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	"github.com/libreria-dev/libreria-backend/pkg/enums"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
	"github.com/libreria-dev/libreria-backend/pkg/logger"
	"github.com/libreria-dev/libreria-backend/pkg/types"
)

type orderLineItemResponse struct {
	BookID    uuid.UUID       `json:"book_id"`
	Title     string          `json:"title"`
	ISBN      string          `json:"isbn"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type orderResponse struct {
	ID              uuid.UUID               `json:"id"`
	Number          string                  `json:"number"`
	Status          enums.OrderStatus       `json:"status"`
	ShippingAddress types.ShippingAddress   `json:"shipping_address"`
	PaymentMethod   enums.PaymentMethod     `json:"payment_method"`
	CouponCode      *string                 `json:"coupon_code,omitempty"`
	Subtotal        decimal.Decimal         `json:"subtotal"`
	Discount        decimal.Decimal         `json:"discount"`
	Total           decimal.Decimal         `json:"total"`
	LineItems       []orderLineItemResponse `json:"line_items"`
	PlacedAt        time.Time               `json:"placed_at"`
}

func newOrderResponse(o *models.Order) orderResponse {
	lines := make([]orderLineItemResponse, 0, len(o.LineItems))
	for _, line := range o.LineItems {
		lines = append(lines, orderLineItemResponse{
			BookID:    line.BookID,
			Title:     line.Title,
			ISBN:      line.ISBN,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  line.Subtotal,
		})
	}
	return orderResponse{
		ID:              o.ID,
		Number:          o.Number,
		Status:          o.Status,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		CouponCode:      o.CouponCode,
		Subtotal:        o.Subtotal,
		Discount:        o.Discount,
		Total:           o.Total,
		LineItems:       lines,
		PlacedAt:        o.PlacedAt,
	}
}

func newOrderResponses(rows []models.Order) []orderResponse {
	out := make([]orderResponse, 0, len(rows))
	for i := range rows {
		out = append(out, newOrderResponse(&rows[i]))
	}
	return out
}

// ListMyOrders returns the logged-in customer's order history.
func ListMyOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, total, err := svc.ListForCustomer(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WritePage(w, newOrderResponses(rows), params, total)
	}
}

func GetMyOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetForCustomer(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// CancelMyOrder cancels a pending or processing order and returns its
// units to stock.
func CancelMyOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

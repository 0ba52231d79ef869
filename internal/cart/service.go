package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/internal/cart/stockgate"
	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
)

const maxLineQuantity = 99

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart reads and mutations for both logged-in and
// anonymous owners.
type Service interface {
	Get(ctx context.Context, owner Owner) (*CartDTO, error)
	AddItem(ctx context.Context, owner Owner, bookID uuid.UUID, quantity int) (*CartDTO, error)
	UpdateItem(ctx context.Context, owner Owner, itemID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, owner Owner) (*CartDTO, error)
	// Merge folds the visitor's session cart into the customer's cart
	// after login. Quantities for the same book are added together.
	Merge(ctx context.Context, sessionToken string, customerID uuid.UUID) (*CartDTO, error)
}

type service struct {
	tx    txRunner
	carts CartRepository
	books bookLoader
}

// ServiceParams bundles the dependencies required to build a cart service.
type ServiceParams struct {
	TxRunner txRunner
	CartRepo CartRepository
	BookRepo bookLoader
}

// NewService constructs a cart service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if params.BookRepo == nil {
		return nil, fmt.Errorf("book repository is required")
	}
	return &service{
		tx:    params.TxRunner,
		carts: params.CartRepo,
		books: params.BookRepo,
	}, nil
}

func validateOwner(owner Owner) error {
	if owner.CustomerID == nil && owner.SessionToken == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "cart owner required")
	}
	if owner.CustomerID != nil && owner.SessionToken != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner must be a customer or a session, not both")
	}
	if owner.SessionToken != nil && *owner.SessionToken == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session token cannot be empty")
	}
	return nil
}

func validateQuantity(quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if quantity > maxLineQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity cannot exceed %d", maxLineQuantity))
	}
	return nil
}

func (s *service) Get(ctx context.Context, owner Owner) (*CartDTO, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	record, err := s.carts.FindOrCreate(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return FromCartModel(record), nil
}

func (s *service) AddItem(ctx context.Context, owner Owner, bookID uuid.UUID, quantity int) (*CartDTO, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	if bookID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	book, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load book")
	}
	if !book.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book is not available for sale")
	}

	var cartID uuid.UUID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)

		record, err := carts.FindOrCreate(ctx, owner)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		cartID = record.ID

		existing, err := carts.FindItemByBook(ctx, record.ID, bookID)
		switch {
		case err == nil:
			merged := existing.Quantity + quantity
			if merged > maxLineQuantity {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("quantity cannot exceed %d", maxLineQuantity))
			}
			if !stockgate.CanReserve(book, merged) {
				return pkgerrors.New(pkgerrors.CodeConflict, stockgate.InsufficientStockReason(book.Stock))
			}
			existing.Quantity = merged
			// Touching a line refreshes its captured price to the
			// current effective price.
			existing.UnitPrice = book.EffectivePrice()
			if _, err := carts.UpdateItem(ctx, existing); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "merge cart item")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if !stockgate.CanReserve(book, quantity) {
				return pkgerrors.New(pkgerrors.CodeConflict, stockgate.InsufficientStockReason(book.Stock))
			}
			item := &models.CartItem{
				CartID:    record.ID,
				BookID:    bookID,
				Quantity:  quantity,
				UnitPrice: book.EffectivePrice(),
			}
			if _, err := carts.UpsertItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add cart item")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup cart item")
		}

		return carts.Touch(ctx, record.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, cartID)
}

func (s *service) UpdateItem(ctx context.Context, owner Owner, itemID uuid.UUID, quantity int) (*CartDTO, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	if quantity > maxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity cannot exceed %d", maxLineQuantity))
	}

	record, err := s.findOwned(ctx, owner)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)

		item, err := carts.FindItem(ctx, record.ID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
		}

		// A zero or negative quantity removes the line.
		if quantity < 1 {
			if err := carts.DeleteItem(ctx, record.ID, itemID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
			}
			return carts.Touch(ctx, record.ID)
		}

		book := item.Book
		if book == nil {
			book, err = s.books.FindByID(ctx, item.BookID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load book")
			}
		}
		if !book.IsActive {
			return pkgerrors.New(pkgerrors.CodeValidation, "book is not available for sale")
		}
		if !stockgate.CanReserve(book, quantity) {
			return pkgerrors.New(pkgerrors.CodeConflict, stockgate.InsufficientStockReason(book.Stock))
		}

		item.Quantity = quantity
		item.UnitPrice = book.EffectivePrice()
		if _, err := carts.UpdateItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
		}
		return carts.Touch(ctx, record.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, record.ID)
}

func (s *service) RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*CartDTO, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}

	record, err := s.findOwned(ctx, owner)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		if _, err := carts.FindItem(ctx, record.ID, itemID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
		}
		if err := carts.DeleteItem(ctx, record.ID, itemID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
		}
		return carts.Touch(ctx, record.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, record.ID)
}

func (s *service) Clear(ctx context.Context, owner Owner) (*CartDTO, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}

	record, err := s.findOwned(ctx, owner)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		if err := carts.ClearItems(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}
		return carts.Touch(ctx, record.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, record.ID)
}

func (s *service) Merge(ctx context.Context, sessionToken string, customerID uuid.UUID) (*CartDTO, error) {
	if sessionToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session token is required")
	}
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	var targetID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)

		target, err := carts.FindOrCreate(ctx, Owner{CustomerID: &customerID})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer cart")
		}
		targetID = target.ID

		source, err := carts.FindByOwner(ctx, Owner{SessionToken: &sessionToken})
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session cart")
		}

		for _, item := range source.Items {
			existing, err := carts.FindItemByBook(ctx, target.ID, item.BookID)
			switch {
			case err == nil:
				// Folding carts at login must not fail, so an
				// oversized combined line caps at the maximum
				// instead of erroring.
				merged := existing.Quantity + item.Quantity
				if merged > maxLineQuantity {
					merged = maxLineQuantity
				}
				existing.Quantity = merged
				existing.UnitPrice = item.UnitPrice
				if _, err := carts.UpdateItem(ctx, existing); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "merge cart line")
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				moved := &models.CartItem{
					CartID:    target.ID,
					BookID:    item.BookID,
					Quantity:  item.Quantity,
					UnitPrice: item.UnitPrice,
				}
				if _, err := carts.UpsertItem(ctx, moved); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "move cart line")
				}
			default:
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup target line")
			}
		}

		if err := carts.ClearItems(ctx, source.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "drain session cart")
		}
		if err := carts.DeleteCart(ctx, source.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "drop session cart")
		}
		return carts.Touch(ctx, target.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, targetID)
}

func (s *service) findOwned(ctx context.Context, owner Owner) (*models.Cart, error) {
	record, err := s.carts.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return record, nil
}

func (s *service) reload(ctx context.Context, id uuid.UUID) (*CartDTO, error) {
	record, err := s.carts.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart")
	}
	return FromCartModel(record), nil
}

package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	"github.com/libreria-dev/libreria-backend/pkg/enums"
)

// SessionRepository defines persistence operations for checkout sessions.
type SessionRepository interface {
	WithTx(tx *gorm.DB) SessionRepository
	Create(ctx context.Context, session *models.CheckoutSession) (*models.CheckoutSession, error)
	Update(ctx context.Context, session *models.CheckoutSession) (*models.CheckoutSession, error)
	ClaimPending(ctx context.Context, id uuid.UUID) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.CheckoutSession, error)
	FindOpenByCart(ctx context.Context, cartID uuid.UUID) (*models.CheckoutSession, error)
}

// Repository persists checkout sessions.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a checkout session repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) SessionRepository {
	return &Repository{db: tx}
}

// Create inserts a new session row.
func (r *Repository) Create(ctx context.Context, session *models.CheckoutSession) (*models.CheckoutSession, error) {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// Update saves the session row.
func (r *Repository) Update(ctx context.Context, session *models.CheckoutSession) (*models.CheckoutSession, error) {
	if err := r.db.WithContext(ctx).Save(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// ClaimPending flips a payment_pending session to confirmed with a
// guarded update. A zero-row result means another request already
// claimed the session, so at most one confirmation can win.
func (r *Repository) ClaimPending(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CheckoutSession{}).
		Where("id = ? AND status = ?", id, enums.CheckoutStatusPaymentPending).
		UpdateColumn("status", enums.CheckoutStatusConfirmed)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindByID loads a session by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	if err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// FindOpenByCart returns the cart's non-terminal session, if any.
func (r *Repository) FindOpenByCart(ctx context.Context, cartID uuid.UUID) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND status IN ?", cartID, []enums.CheckoutStatus{
			enums.CheckoutStatusDraft,
			enums.CheckoutStatusPaymentPending,
		}).
		Order("created_at DESC").
		First(&session).
		Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

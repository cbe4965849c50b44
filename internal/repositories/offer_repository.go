// file: internal/repositories/offer_repository.go
package repositories

import (
	"campusmart/internal/database"
	"campusmart/internal/models"
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// offerRepository implements OfferRepository
type offerRepository struct {
	*BaseRepository
}

// NewOfferRepository creates a new offer repository
func NewOfferRepository(db *database.Manager, logger *zap.Logger) OfferRepository {
	return &offerRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

const offerColumns = `
	o.id, o.item_id, o.buyer_id, o.seller_id, o.original_price, o.offer_price,
	o.message, o.status, o.counter_price, o.counter_message, o.counter_created_at,
	o.valid_until, o.created_at, o.updated_at`

func scanOffer(row rowScanner) (*models.Offer, error) {
	o := &models.Offer{}
	var counterPrice sql.NullFloat64
	var counterMessage sql.NullString
	var counterCreatedAt sql.NullTime

	err := row.Scan(
		&o.ID, &o.ItemID, &o.BuyerID, &o.SellerID, &o.OriginalPrice, &o.OfferPrice,
		&o.Message, &o.Status, &counterPrice, &counterMessage, &counterCreatedAt,
		&o.ValidUntil, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// The counter block surfaces only while the offer is countered.
	if o.Status == models.OfferStatusCounterOffered && counterPrice.Valid {
		co := &models.CounterOffer{Price: counterPrice.Float64}
		if counterMessage.Valid {
			co.Message = &counterMessage.String
		}
		if counterCreatedAt.Valid {
			co.CreatedAt = counterCreatedAt.Time
		}
		o.CounterOffer = co
	}
	return o, nil
}

// Create inserts the offer and its "created" history entry together
func (r *offerRepository) Create(ctx context.Context, offer *models.Offer) error {
	return r.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO offers (item_id, buyer_id, seller_id, original_price, offer_price, message, status, valid_until)
			VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW() + INTERVAL '7 days'))
			RETURNING id, status, valid_until, created_at, updated_at`

		var validUntil interface{}
		if !offer.ValidUntil.IsZero() {
			validUntil = offer.ValidUntil
		}

		err := tx.QueryRowContext(ctx, query,
			offer.ItemID, offer.BuyerID, offer.SellerID,
			offer.OriginalPrice, offer.OfferPrice, offer.Message,
			models.OfferStatusPending, validUntil,
		).Scan(&offer.ID, &offer.Status, &offer.ValidUntil, &offer.CreatedAt, &offer.UpdatedAt)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return fmt.Errorf("%w: %v", ErrDuplicateActiveOffer, err)
			}
			return fmt.Errorf("failed to create offer: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO offer_history (offer_id, action, message, price, actor_id) VALUES ($1, $2, $3, $4, $5)`,
			offer.ID, models.OfferActionCreated, offer.Message, offer.OfferPrice, offer.BuyerID)
		if err != nil {
			return fmt.Errorf("failed to record offer creation: %w", err)
		}
		return nil
	})
}

// GetByID retrieves an offer, (nil, nil) when absent
func (r *offerRepository) GetByID(ctx context.Context, id int64) (*models.Offer, error) {
	query := `SELECT` + offerColumns + ` FROM offers o WHERE o.id = $1`
	offer, err := scanOffer(r.QueryRowContext(ctx, query, id))
	if r.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return offer, nil
}

// GetActiveByBuyerAndItem finds the buyer's live offer on an item, if any
func (r *offerRepository) GetActiveByBuyerAndItem(ctx context.Context, buyerID, itemID int64) (*models.Offer, error) {
	query := `SELECT` + offerColumns + `
		FROM offers o
		WHERE o.buyer_id = $1 AND o.item_id = $2 AND o.status IN ($3, $4)`

	offer, err := scanOffer(r.QueryRowContext(ctx, query,
		buyerID, itemID, models.OfferStatusPending, models.OfferStatusCounterOffered))
	if r.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active offer: %w", err)
	}
	return offer, nil
}

// Transition conditionally moves the offer out of an active state,
// fencing concurrent seller actions: the UPDATE only matches while
// the row is still pending or counter-offered.
func (r *offerRepository) Transition(ctx context.Context, offerID int64, newStatus string, counter *models.CounterOffer, entry *models.OfferHistoryEntry) (bool, error) {
	var transitioned bool
	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		var res sql.Result
		var err error

		if counter != nil {
			res, err = tx.ExecContext(ctx, `
				UPDATE offers
				SET status = $2, counter_price = $3, counter_message = $4, counter_created_at = NOW(), updated_at = NOW()
				WHERE id = $1 AND status IN ($5, $6)`,
				offerID, newStatus, counter.Price, counter.Message,
				models.OfferStatusPending, models.OfferStatusCounterOffered)
		} else {
			res, err = tx.ExecContext(ctx, `
				UPDATE offers
				SET status = $2, updated_at = NOW()
				WHERE id = $1 AND status IN ($3, $4)`,
				offerID, newStatus,
				models.OfferStatusPending, models.OfferStatusCounterOffered)
		}
		if err != nil {
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return nil
		}
		transitioned = true

		_, err = tx.ExecContext(ctx,
			`INSERT INTO offer_history (offer_id, action, message, price, actor_id) VALUES ($1, $2, $3, $4, $5)`,
			offerID, entry.Action, entry.Message, entry.Price, entry.ActorID)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to transition offer: %w", err)
	}
	return transitioned, nil
}

// CancelAllForItem force-cancels every active offer on an item
func (r *offerRepository) CancelAllForItem(ctx context.Context, itemID, actorID int64) ([]int64, error) {
	var cancelled []int64
	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			UPDATE offers
			SET status = $2, updated_at = NOW()
			WHERE item_id = $1 AND status IN ($3, $4)
			RETURNING id`,
			itemID, models.OfferStatusCancelled,
			models.OfferStatusPending, models.OfferStatusCounterOffered)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			cancelled = append(cancelled, id)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		for _, id := range cancelled {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO offer_history (offer_id, action, actor_id) VALUES ($1, $2, $3)`,
				id, models.OfferActionCancelled, actorID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to cancel offers for item: %w", err)
	}
	return cancelled, nil
}

// GetByItem returns all offers on an item, newest first
func (r *offerRepository) GetByItem(ctx context.Context, itemID int64) ([]*models.Offer, error) {
	query := `SELECT` + offerColumns + ` FROM offers o WHERE o.item_id = $1 ORDER BY o.created_at DESC`

	rows, err := r.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item offers: %w", err)
	}
	defer rows.Close()

	var offers []*models.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}

// GetByBuyer pages through a buyer's offers, optionally by status
func (r *offerRepository) GetByBuyer(ctx context.Context, buyerID int64, status string, params models.PaginationParams) (*models.PaginatedResponse[*models.Offer], error) {
	where := `WHERE o.buyer_id = $1`
	args := []interface{}{buyerID}
	if status != "" && status != "all" {
		where += ` AND o.status = $2`
		args = append(args, status)
	}

	query := `SELECT` + offerColumns + ` FROM offers o ` + where + ` ORDER BY o.created_at DESC`
	query, pagedArgs := r.AppendPagination(query, args, params)

	rows, err := r.QueryContext(ctx, query, pagedArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to get buyer offers: %w", err)
	}
	defer rows.Close()

	var offers []*models.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	total, err := r.GetTotalCount(ctx, `SELECT COUNT(*) FROM offers o `+where, args...)
	if err != nil {
		return nil, err
	}

	return &models.PaginatedResponse[*models.Offer]{
		Data:       offers,
		Pagination: models.NewPaginationMeta(params, total),
	}, nil
}

// GetHistory returns the append-only transition log, oldest first
func (r *offerRepository) GetHistory(ctx context.Context, offerID int64) ([]*models.OfferHistoryEntry, error) {
	query := `
		SELECT id, offer_id, action, message, price, actor_id, created_at
		FROM offer_history
		WHERE offer_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.QueryContext(ctx, query, offerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get offer history: %w", err)
	}
	defer rows.Close()

	var entries []*models.OfferHistoryEntry
	for rows.Next() {
		e := &models.OfferHistoryEntry{}
		if err := rows.Scan(&e.ID, &e.OfferID, &e.Action, &e.Message, &e.Price, &e.ActorID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteByItem removes all offers (and, via FK, their history) for an
// item. Part of the listing cascade.
func (r *offerRepository) DeleteByItem(ctx context.Context, itemID int64) error {
	_, err := r.ExecContext(ctx, `DELETE FROM offers WHERE item_id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete offers for item: %w", err)
	}
	return nil
}

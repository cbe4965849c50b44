// file: internal/repositories/listing_repository.go
package repositories

import (
	"campusmart/internal/database"
	"campusmart/internal/models"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// listingRepository implements ListingRepository
type listingRepository struct {
	*BaseRepository
}

// NewListingRepository creates a new listing repository
func NewListingRepository(db *database.Manager, logger *zap.Logger) ListingRepository {
	return &listingRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

const listingColumns = `
	l.id, l.seller_id, l.title, l.description, l.price, l.category,
	l.tags, l.condition, l.negotiable, l.urgent_sale, l.featured,
	l.seller_name, l.seller_email, l.seller_verified,
	l.is_sold, l.sold_at, l.sold_to, l.views, l.likes_count,
	l.boost_active, l.boost_expires_at,
	l.location_campus, l.location_hostel, l.location_block, l.location_room,
	l.created_at, l.updated_at`

// rowScanner lets the scan helper work with *sql.Row and *sql.Rows alike.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanListingRow scans a full listing row. withLikedAt additionally
// consumes a trailing liked_at column from join queries.
func scanListingRow(row rowScanner, withLikedAt bool) (*models.Listing, error) {
	l := &models.Listing{}
	dest := []interface{}{
		&l.ID, &l.SellerID, &l.Title, &l.Description, &l.Price, &l.Category,
		&l.Tags, &l.Condition, &l.Negotiable, &l.UrgentSale, &l.Featured,
		&l.SellerName, &l.SellerEmail, &l.SellerVerified,
		&l.IsSold, &l.SoldAt, &l.SoldTo, &l.Views, &l.LikesCount,
		&l.Boost.IsActive, &l.Boost.ExpiresAt,
		&l.Location.Campus, &l.Location.Hostel, &l.Location.Block, &l.Location.Room,
		&l.CreatedAt, &l.UpdatedAt,
	}
	if withLikedAt {
		var likedAt time.Time
		dest = append(dest, &likedAt)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	l.CreatedAtHuman = models.FormatTimeHuman(l.CreatedAt)
	return l, nil
}

// ===============================
// CRUD
// ===============================

// Create inserts the listing with its media in one transaction.
// Seller snapshot fields must already be populated by the service.
func (r *listingRepository) Create(ctx context.Context, listing *models.Listing) error {
	return r.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO listings (
				seller_id, title, description, price, category, tags, condition,
				negotiable, urgent_sale, featured,
				seller_name, seller_email, seller_verified,
				location_campus, location_hostel, location_block, location_room
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			RETURNING id, created_at, updated_at`

		err := tx.QueryRowContext(ctx, query,
			listing.SellerID, listing.Title, listing.Description, listing.Price,
			listing.Category, listing.Tags, listing.Condition,
			listing.Negotiable, listing.UrgentSale, listing.Featured,
			listing.SellerName, listing.SellerEmail, listing.SellerVerified,
			listing.Location.Campus, listing.Location.Hostel,
			listing.Location.Block, listing.Location.Room,
		).Scan(&listing.ID, &listing.CreatedAt, &listing.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create listing: %w", err)
		}

		return r.replaceMediaTx(ctx, tx, listing)
	})
}

// GetByID retrieves a listing with media, (nil, nil) when absent
func (r *listingRepository) GetByID(ctx context.Context, id int64) (*models.Listing, error) {
	query := `SELECT` + listingColumns + ` FROM listings l WHERE l.id = $1`
	listing, err := scanListingRow(r.QueryRowContext(ctx, query, id), false)
	if r.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	if err := r.loadMedia(ctx, []*models.Listing{listing}); err != nil {
		return nil, err
	}
	return listing, nil
}

// Update performs the full-field replace, media included. Snapshot
// and counter columns are deliberately left untouched.
func (r *listingRepository) Update(ctx context.Context, listing *models.Listing) error {
	return r.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE listings SET
				title = $2, description = $3, price = $4, category = $5, tags = $6,
				condition = $7, negotiable = $8, urgent_sale = $9,
				location_campus = $10, location_hostel = $11, location_block = $12, location_room = $13,
				updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at`

		err := tx.QueryRowContext(ctx, query,
			listing.ID, listing.Title, listing.Description, listing.Price,
			listing.Category, listing.Tags, listing.Condition,
			listing.Negotiable, listing.UrgentSale,
			listing.Location.Campus, listing.Location.Hostel,
			listing.Location.Block, listing.Location.Room,
		).Scan(&listing.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to update listing: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM listing_images WHERE listing_id = $1`, listing.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM listing_videos WHERE listing_id = $1`, listing.ID); err != nil {
			return err
		}
		return r.replaceMediaTx(ctx, tx, listing)
	})
}

// Delete removes the listing row. Related offers, comments and
// messages are removed by the service's cascade, not here.
func (r *listingRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkSold flips the sale state and timestamps it
func (r *listingRepository) MarkSold(ctx context.Context, id int64, soldTo *int64) error {
	result, err := r.ExecContext(ctx,
		`UPDATE listings SET is_sold = TRUE, sold_at = NOW(), sold_to = $2, updated_at = NOW() WHERE id = $1`,
		id, soldTo)
	if err != nil {
		return fmt.Errorf("failed to mark listing sold: %w", err)
	}
	return requireRow(result)
}

// UnmarkSold returns the listing to the active pool
func (r *listingRepository) UnmarkSold(ctx context.Context, id int64) error {
	result, err := r.ExecContext(ctx,
		`UPDATE listings SET is_sold = FALSE, sold_at = NULL, sold_to = NULL, updated_at = NOW() WHERE id = $1`,
		id)
	if err != nil {
		return fmt.Errorf("failed to unmark listing sold: %w", err)
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ===============================
// SEARCH
// ===============================

// buildFilterClause translates a ListingFilter into a WHERE fragment
// with positional args. All criteria are AND-combined.
func buildFilterClause(filter ListingFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	next := func() string { return fmt.Sprintf("$%d", len(args)+1) }

	if filter.IsSold != nil {
		clauses = append(clauses, "l.is_sold = "+next())
		args = append(args, *filter.IsSold)
	}
	if filter.Search != "" {
		p1 := next()
		args = append(args, "%"+filter.Search+"%")
		p2 := next()
		args = append(args, strings.ToLower(filter.Search))
		// Tags are stored lowercased, so a lowercased needle gives
		// case-insensitive substring matching.
		clauses = append(clauses, fmt.Sprintf(
			"(l.title ILIKE %s OR l.description ILIKE %s OR EXISTS (SELECT 1 FROM unnest(l.tags) t WHERE t LIKE '%%' || %s || '%%'))",
			p1, p1, p2))
	}
	if filter.Category != "" && filter.Category != "all" {
		clauses = append(clauses, "l.category = "+next())
		args = append(args, filter.Category)
	}
	if filter.MinPrice != nil {
		clauses = append(clauses, "l.price >= "+next())
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		clauses = append(clauses, "l.price <= "+next())
		args = append(args, *filter.MaxPrice)
	}
	if len(filter.Tags) > 0 {
		lowered := make([]string, 0, len(filter.Tags))
		for _, t := range filter.Tags {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" {
				lowered = append(lowered, t)
			}
		}
		if len(lowered) > 0 {
			clauses = append(clauses, "l.tags && "+next())
			args = append(args, pq.Array(lowered))
		}
	}
	if filter.Campus != "" {
		clauses = append(clauses, "l.location_campus ILIKE "+next())
		args = append(args, "%"+filter.Campus+"%")
	}
	if filter.Hostel != "" {
		clauses = append(clauses, "l.location_hostel ILIKE "+next())
		args = append(args, "%"+filter.Hostel+"%")
	}
	if filter.Block != "" {
		clauses = append(clauses, "l.location_block ILIKE "+next())
		args = append(args, "%"+filter.Block+"%")
	}
	if filter.Condition != "" {
		clauses = append(clauses, "l.condition = "+next())
		args = append(args, filter.Condition)
	}
	if filter.Negotiable != nil {
		clauses = append(clauses, "l.negotiable = "+next())
		args = append(args, *filter.Negotiable)
	}
	if filter.UrgentSale != nil {
		clauses = append(clauses, "l.urgent_sale = "+next())
		args = append(args, *filter.UrgentSale)
	}
	if filter.SellerID != nil {
		clauses = append(clauses, "l.seller_id = "+next())
		args = append(args, *filter.SellerID)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// Search runs the composed filter, returning a page plus totals.
func (r *listingRepository) Search(ctx context.Context, filter ListingFilter, params models.PaginationParams) (*models.PaginatedResponse[*models.Listing], error) {
	where, args := buildFilterClause(filter)

	query := `SELECT` + listingColumns + ` FROM listings l ` + where + ` ` + r.OrderClause(params.Sort, params.Order)
	query, pagedArgs := r.AppendPagination(query, args, params)

	rows, err := r.QueryContext(ctx, query, pagedArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to search listings: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		listing, err := scanListingRow(rows, false)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadMedia(ctx, listings); err != nil {
		return nil, err
	}

	total, err := r.GetTotalCount(ctx, `SELECT COUNT(*) FROM listings l `+where, args...)
	if err != nil {
		return nil, err
	}

	return &models.PaginatedResponse[*models.Listing]{
		Data:       listings,
		Pagination: models.NewPaginationMeta(params, total),
	}, nil
}

// GetBySeller lists a seller's items; status is all|active|sold.
func (r *listingRepository) GetBySeller(ctx context.Context, sellerID int64, status string, params models.PaginationParams) (*models.PaginatedResponse[*models.Listing], error) {
	filter := ListingFilter{SellerID: &sellerID}
	switch status {
	case "active":
		f := false
		filter.IsSold = &f
	case "sold":
		t := true
		filter.IsSold = &t
	}
	return r.Search(ctx, filter, params)
}

// GetSellerOtherItems returns other active listings by the same seller
func (r *listingRepository) GetSellerOtherItems(ctx context.Context, sellerID, excludeID int64, limit int) ([]*models.Listing, error) {
	query := `SELECT` + listingColumns + `
		FROM listings l
		WHERE l.seller_id = $1 AND l.id <> $2 AND l.is_sold = FALSE
		ORDER BY l.created_at DESC
		LIMIT $3`

	rows, err := r.QueryContext(ctx, query, sellerID, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get seller items: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		listing, err := scanListingRow(rows, false)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadMedia(ctx, listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// ===============================
// VIEWS
// ===============================

// RegisterView counts a logged-in view once per user per calendar
// day. The unique constraint on (listing_id, user_id, view_day)
// makes the insert race-free; the counter bumps only when the insert
// landed.
func (r *listingRepository) RegisterView(ctx context.Context, listingID, userID int64) (bool, error) {
	var counted bool
	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO listing_views (listing_id, user_id) VALUES ($1, $2)
			 ON CONFLICT (listing_id, user_id, view_day) DO NOTHING`,
			listingID, userID)
		if err != nil {
			return err
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if inserted == 0 {
			return nil
		}
		counted = true
		_, err = tx.ExecContext(ctx, `UPDATE listings SET views = views + 1 WHERE id = $1`, listingID)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to register view: %w", err)
	}
	return counted, nil
}

// IncrementViews is the anonymous path: a single atomic bump
func (r *listingRepository) IncrementViews(ctx context.Context, listingID int64) error {
	result, err := r.ExecContext(ctx, `UPDATE listings SET views = views + 1 WHERE id = $1`, listingID)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return requireRow(result)
}

// ===============================
// AGGREGATIONS
// ===============================

// GetUserStats summarizes a seller's activity in one scan
func (r *listingRepository) GetUserStats(ctx context.Context, sellerID int64) (*models.UserListingStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE NOT is_sold),
			COUNT(*) FILTER (WHERE is_sold),
			COALESCE(SUM(views), 0),
			COALESCE(SUM(price) FILTER (WHERE is_sold), 0)
		FROM listings
		WHERE seller_id = $1`

	stats := &models.UserListingStats{}
	err := r.QueryRowContext(ctx, query, sellerID).Scan(
		&stats.TotalItems, &stats.ActiveItems, &stats.SoldItems,
		&stats.TotalViews, &stats.TotalEarnings,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	return stats, nil
}

// GetTrendingTags returns top-N tag frequency among unsold listings
func (r *listingRepository) GetTrendingTags(ctx context.Context, limit int) ([]*models.TagCount, error) {
	query := `
		SELECT t AS tag, COUNT(*) AS count
		FROM listings, unnest(tags) AS t
		WHERE is_sold = FALSE
		GROUP BY t
		ORDER BY count DESC, t ASC
		LIMIT $1`

	rows, err := r.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get trending tags: %w", err)
	}
	defer rows.Close()

	var tags []*models.TagCount
	for rows.Next() {
		tc := &models.TagCount{}
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		tags = append(tags, tc)
	}
	return tags, rows.Err()
}

// GetCategoryBreakdown counts unsold listings per category
func (r *listingRepository) GetCategoryBreakdown(ctx context.Context) ([]*models.CategoryCount, error) {
	query := `
		SELECT category, COUNT(*) AS count
		FROM listings
		WHERE is_sold = FALSE
		GROUP BY category
		ORDER BY count DESC`

	rows, err := r.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get category breakdown: %w", err)
	}
	defer rows.Close()

	var out []*models.CategoryCount
	for rows.Next() {
		c := &models.CategoryCount{}
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetMarketplaceStats returns marketplace-wide totals
func (r *listingRepository) GetMarketplaceStats(ctx context.Context) (*models.MarketplaceStats, error) {
	stats := &models.MarketplaceStats{}
	err := r.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE NOT is_sold),
			COUNT(*) FILTER (WHERE is_sold),
			COUNT(DISTINCT seller_id)
		FROM listings`,
	).Scan(&stats.ActiveListings, &stats.SoldItems, &stats.TotalSellers)
	if err != nil {
		return nil, fmt.Errorf("failed to get marketplace stats: %w", err)
	}

	breakdown, err := r.GetCategoryBreakdown(ctx)
	if err != nil {
		return nil, err
	}
	stats.CategoriesBreakdown = breakdown
	return stats, nil
}

// ===============================
// MEDIA
// ===============================

func (r *listingRepository) replaceMediaTx(ctx context.Context, tx *sql.Tx, listing *models.Listing) error {
	for i, img := range listing.Images {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO listing_images (listing_id, url, caption, is_primary, position) VALUES ($1, $2, $3, $4, $5)`,
			listing.ID, img.URL, img.Caption, img.IsPrimary, i,
		); err != nil {
			return fmt.Errorf("failed to save listing image: %w", err)
		}
	}
	for i, vid := range listing.Videos {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO listing_videos (listing_id, url, caption, duration, position) VALUES ($1, $2, $3, $4, $5)`,
			listing.ID, vid.URL, vid.Caption, vid.Duration, i,
		); err != nil {
			return fmt.Errorf("failed to save listing video: %w", err)
		}
	}
	return nil
}

// loadMedia batch-attaches images and videos to the given listings
func (r *listingRepository) loadMedia(ctx context.Context, listings []*models.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	byID := make(map[int64]*models.Listing, len(listings))
	ids := make([]int64, 0, len(listings))
	for _, l := range listings {
		byID[l.ID] = l
		ids = append(ids, l.ID)
	}

	rows, err := r.QueryContext(ctx,
		`SELECT listing_id, url, caption, is_primary FROM listing_images WHERE listing_id = ANY($1) ORDER BY listing_id, position`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load listing images: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var listingID int64
		img := models.ListingImage{}
		if err := rows.Scan(&listingID, &img.URL, &img.Caption, &img.IsPrimary); err != nil {
			return err
		}
		if l := byID[listingID]; l != nil {
			l.Images = append(l.Images, img)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	vrows, err := r.QueryContext(ctx,
		`SELECT listing_id, url, caption, duration FROM listing_videos WHERE listing_id = ANY($1) ORDER BY listing_id, position`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load listing videos: %w", err)
	}
	defer vrows.Close()
	for vrows.Next() {
		var listingID int64
		vid := models.ListingVideo{}
		if err := vrows.Scan(&listingID, &vid.URL, &vid.Caption, &vid.Duration); err != nil {
			return err
		}
		if l := byID[listingID]; l != nil {
			l.Videos = append(l.Videos, vid)
		}
	}
	return vrows.Err()
}

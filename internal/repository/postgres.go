package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/mmcloughlin/geohash"

	"carappx/internal/model"
)

// geohash prefix length used for nearby prefiltering; 5 characters is
// roughly a 3 km cell
const nearbyGeohashChars = 5

// PostgresRepository handles database operations
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	// Disable prepared statement caching to avoid "unnamed prepared statement does not exist" errors
	if !strings.Contains(dsn, "?") {
		dsn += "?prefer_simple_protocol=true"
	} else {
		dsn += "&prefer_simple_protocol=true"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

const listingColumns = `
	id, name, address, category, description, images, price, rating, reviews,
	latitude, longitude, is_open, wait_time, working_hours, phone, type,
	owner_id, geohash, created_at, updated_at`

// MapListings returns the denormalized listing set for the map screen:
// every listing that carries coordinates.
func (r *PostgresRepository) MapListings(ctx context.Context) ([]model.ServiceListing, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM listings
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
		ORDER BY id`, listingColumns)

	var listings []model.ServiceListing
	if err := r.db.SelectContext(ctx, &listings, query); err != nil {
		return nil, fmt.Errorf("failed to load map listings: %w", err)
	}
	return listings, nil
}

// ListingsByType returns listings of one service type, paginated, with the
// total match count.
func (r *PostgresRepository) ListingsByType(ctx context.Context, serviceType string, limit, offset int) ([]model.ServiceListing, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM listings WHERE type = $1", serviceType); err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM listings
		WHERE type = $1
		ORDER BY rating DESC, id
		LIMIT $2 OFFSET $3`, listingColumns)

	var listings []model.ServiceListing
	if err := r.db.SelectContext(ctx, &listings, query, serviceType, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to load listings: %w", err)
	}
	return listings, total, nil
}

// ListingByID retrieves a single listing.
func (r *PostgresRepository) ListingByID(ctx context.Context, id string) (*model.ServiceListing, error) {
	query := fmt.Sprintf("SELECT %s FROM listings WHERE id = $1", listingColumns)

	var listing model.ServiceListing
	if err := r.db.GetContext(ctx, &listing, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	return &listing, nil
}

// ListingsByOwner returns everything the owner has published.
func (r *PostgresRepository) ListingsByOwner(ctx context.Context, ownerID string) ([]model.ServiceListing, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM listings
		WHERE owner_id = $1
		ORDER BY created_at DESC`, listingColumns)

	var listings []model.ServiceListing
	if err := r.db.SelectContext(ctx, &listings, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to load owner listings: %w", err)
	}
	return listings, nil
}

// ListingsNear prefilters by geohash prefix around the coordinate. The
// prefix cell is coarse; callers refine with exact haversine distance.
func (r *PostgresRepository) ListingsNear(ctx context.Context, lat, lng float64) ([]model.ServiceListing, error) {
	prefix := geohash.EncodeWithPrecision(lat, lng, nearbyGeohashChars)

	query := fmt.Sprintf(`
		SELECT %s FROM listings
		WHERE geohash LIKE $1
		ORDER BY id`, listingColumns)

	var listings []model.ServiceListing
	if err := r.db.SelectContext(ctx, &listings, query, prefix+"%"); err != nil {
		return nil, fmt.Errorf("failed to load nearby listings: %w", err)
	}
	return listings, nil
}

// CreateItem inserts a wizard-created listing. The geohash column is derived
// from the coordinates at write time so nearby queries stay cheap.
func (r *PostgresRepository) CreateItem(ctx context.Context, listing *model.ServiceListing) (*model.ServiceListing, error) {
	if listing.ID == "" {
		listing.ID = uuid.NewString()
	}
	if listing.HasValidCoordinates() {
		listing.Geohash = geohash.Encode(*listing.Latitude, *listing.Longitude)
	}
	now := time.Now().UTC()
	listing.CreatedAt = now
	listing.UpdatedAt = now

	query := `
		INSERT INTO listings (
			id, name, address, category, description, images, price, rating,
			reviews, latitude, longitude, is_open, wait_time, working_hours,
			phone, type, owner_id, geohash, created_at, updated_at
		) VALUES (
			:id, :name, :address, :category, :description, :images, :price,
			:rating, :reviews, :latitude, :longitude, :is_open, :wait_time,
			:working_hours, :phone, :type, :owner_id, :geohash, :created_at,
			:updated_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	return listing, nil
}

// CreateBooking inserts a new booking.
func (r *PostgresRepository) CreateBooking(ctx context.Context, b *model.Booking) error {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	query := `
		INSERT INTO bookings (
			id, user_id, listing_id, service_type, details, status,
			scheduled_at, created_at, updated_at
		) VALUES (
			:id, :user_id, :listing_id, :service_type, :details, :status,
			:scheduled_at, :created_at, :updated_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, b); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// BookingByID retrieves a booking. Returns (nil, nil) when no booking
// exists, matching the BookingStore contract.
func (r *PostgresRepository) BookingByID(ctx context.Context, id string) (*model.Booking, error) {
	var b model.Booking
	if err := r.db.GetContext(ctx, &b, "SELECT * FROM bookings WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	return &b, nil
}

// BookingsByUser returns the user's bookings, newest first.
func (r *PostgresRepository) BookingsByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.SelectContext(ctx, &bookings,
		"SELECT * FROM bookings WHERE user_id = $1 ORDER BY scheduled_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}
	return bookings, nil
}

// UpdateBookingStatus sets a booking's status.
func (r *PostgresRepository) UpdateBookingStatus(ctx context.Context, id string, status model.BookingStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3",
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("booking %s not found", id)
	}
	return nil
}

// Brands returns the distinct car brands known to the lookup tables.
func (r *PostgresRepository) Brands(ctx context.Context) ([]string, error) {
	var brands []string
	if err := r.db.SelectContext(ctx, &brands,
		"SELECT DISTINCT brand FROM car_models ORDER BY brand"); err != nil {
		return nil, fmt.Errorf("failed to load brands: %w", err)
	}
	return brands, nil
}

// ModelsForBrand returns the model list registered for a brand.
func (r *PostgresRepository) ModelsForBrand(ctx context.Context, brand string) ([]string, error) {
	var models []string
	if err := r.db.SelectContext(ctx, &models,
		"SELECT model FROM car_models WHERE brand = $1 ORDER BY model", brand); err != nil {
		return nil, fmt.Errorf("failed to load models: %w", err)
	}
	return models, nil
}

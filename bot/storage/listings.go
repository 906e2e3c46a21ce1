// Package storage persists finished listings in PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m3rciful/carhub/bot/listing"
	"github.com/m3rciful/carhub/core/logger"
)

// listingRow mirrors the listings table. Kind-specific columns are NULL
// on the other path.
type listingRow struct {
	ID        int64          `db:"id"`
	Ref       string         `db:"ref"`
	UserID    int64          `db:"user_id"`
	Username  sql.NullString `db:"username"`
	Kind      string         `db:"kind"`
	Make      string         `db:"make"`
	Model     string         `db:"model"`
	Year      string         `db:"year"`
	Phone     string         `db:"phone"`
	Condition string         `db:"condition"`
	Photos    pq.StringArray `db:"photos"`
	PlateCode string         `db:"plate_code"`
	Price     string         `db:"price"`

	Color          sql.NullString `db:"color"`
	PlateMasked    sql.NullString `db:"plate_masked"`
	PlateRegion    sql.NullString `db:"plate_region"`
	AdvancePayment sql.NullString `db:"advance_payment"`
	Warranty       sql.NullString `db:"warranty"`
	Purpose        sql.NullString `db:"purpose"`
	Region         sql.NullString `db:"region"`

	CreatedAt time.Time `db:"created_at"`
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toRow(l *listing.Listing) listingRow {
	row := listingRow{
		ID:        l.ID,
		Ref:       l.Ref.String(),
		UserID:    l.UserID,
		Username:  nullString(l.Username),
		Kind:      string(l.Kind),
		Make:      l.Make,
		Model:     l.Model,
		Year:      l.Year,
		Phone:     l.Phone,
		Condition: l.Condition,
		Photos:    pq.StringArray(append([]string{}, l.Photos...)),
		PlateCode: l.PlateCode(),
		Price:     l.Price(),
		CreatedAt: l.CreatedAt,
	}
	if s := l.Sale; s != nil {
		row.Color = nullString(s.Color)
		row.PlateMasked = nullString(s.PlateMasked)
		row.PlateRegion = nullString(s.PlateRegion)
	}
	if r := l.Rental; r != nil {
		row.AdvancePayment = nullString(r.AdvancePayment)
		row.Warranty = nullString(r.Warranty)
		row.Purpose = nullString(r.Purpose)
		row.Region = nullString(r.Region)
	}
	return row
}

func (row listingRow) toListing() (listing.Listing, error) {
	ref, err := uuid.Parse(row.Ref)
	if err != nil {
		return listing.Listing{}, fmt.Errorf("listing %d: bad ref %q: %w", row.ID, row.Ref, err)
	}
	l := listing.Listing{
		ID:        row.ID,
		Ref:       ref,
		UserID:    row.UserID,
		Username:  row.Username.String,
		Kind:      listing.Kind(row.Kind),
		Make:      row.Make,
		Model:     row.Model,
		Year:      row.Year,
		Phone:     row.Phone,
		Condition: row.Condition,
		Photos:    []string(row.Photos),
		CreatedAt: row.CreatedAt,
	}
	switch l.Kind {
	case listing.KindSale:
		l.Sale = &listing.Sale{
			Color:       row.Color.String,
			PlateCode:   row.PlateCode,
			PlateMasked: row.PlateMasked.String,
			PlateRegion: row.PlateRegion.String,
			Price:       row.Price,
		}
	case listing.KindRental:
		l.Rental = &listing.Rental{
			PlateCode:      row.PlateCode,
			DailyPrice:     row.Price,
			AdvancePayment: row.AdvancePayment.String,
			Warranty:       row.Warranty.String,
			Purpose:        row.Purpose.String,
			Region:         row.Region.String,
		}
	}
	return l, l.Validate()
}

const insertListingSQL = `
INSERT INTO listings (
	ref, user_id, username, kind, make, model, year, phone, condition, photos,
	plate_code, price, color, plate_masked, plate_region,
	advance_payment, warranty, purpose, region
) VALUES (
	:ref, :user_id, :username, :kind, :make, :model, :year, :phone, :condition, :photos,
	:plate_code, :price, :color, :plate_masked, :plate_region,
	:advance_payment, :warranty, :purpose, :region
) RETURNING id, created_at`

const selectListingSQL = `
SELECT id, ref, user_id, username, kind, make, model, year, phone, condition, photos,
	plate_code, price, color, plate_masked, plate_region,
	advance_payment, warranty, purpose, region, created_at
FROM listings`

// ListingStore persists listings in PostgreSQL.
type ListingStore struct {
	db *sqlx.DB
}

// NewListingStore wraps an open connection.
func NewListingStore(db *sqlx.DB) *ListingStore {
	return &ListingStore{db: db}
}

// Insert stores l and returns the generated id. l.ID and l.CreatedAt are
// updated on success.
func (s *ListingStore) Insert(ctx context.Context, l *listing.Listing) (int64, error) {
	if err := l.Validate(); err != nil {
		return 0, err
	}
	query, args, err := sqlx.Named(insertListingSQL, toRow(l))
	if err != nil {
		return 0, fmt.Errorf("bind insert listing: %w", err)
	}
	query = s.db.Rebind(query)

	start := time.Now()
	var out struct {
		ID        int64     `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	err = s.db.QueryRowxContext(ctx, query, args...).StructScan(&out)
	took := logger.Took(start)
	if err != nil {
		logger.Error(ctx, "db", "listing.insert",
			slog.String("status", "fail"),
			slog.String("ref", l.ShortRef()),
			slog.Duration("duration_ms", took),
			slog.String("err", err.Error()),
		)
		return 0, fmt.Errorf("insert listing: %w", err)
	}
	l.ID = out.ID
	l.CreatedAt = out.CreatedAt
	logger.Debug(ctx, "db", "listing.insert",
		slog.String("status", "ok"),
		slog.Int64("listing_id", out.ID),
		slog.String("ref", l.ShortRef()),
		slog.Duration("duration_ms", took),
	)
	return out.ID, nil
}

// Get loads one listing by id.
func (s *ListingStore) Get(ctx context.Context, id int64) (listing.Listing, error) {
	var row listingRow
	if err := s.db.GetContext(ctx, &row, s.db.Rebind(selectListingSQL+" WHERE id = ?"), id); err != nil {
		return listing.Listing{}, fmt.Errorf("get listing %d: %w", id, err)
	}
	return row.toListing()
}

// Count returns the number of listings matching f.
func (s *ListingStore) Count(ctx context.Context, f listing.Filter) (int, error) {
	query, args := countQuery(f)
	var n int
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return n, nil
}

// countQuery builds the COUNT statement with ? placeholders.
func countQuery(f listing.Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.UserID != 0 {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.Since)
	}
	query := "SELECT COUNT(*) FROM listings"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	return query, args
}

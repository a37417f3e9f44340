package dataset

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/homefinder/backend/internal/domain/listing"
)

// ListingRecord is the row shape of a database-backed dataset. Seeding
// writes cleaned listings into it; DatabaseSource reads it back out.
// Column names mirror the CSV schema.
type ListingRecord struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Type          string          `gorm:"type:varchar(100);not null"`
	Title         string          `gorm:"type:text;not null"`
	Location      string          `gorm:"type:text;not null"`
	City          string          `gorm:"type:varchar(100)"`
	Bedroom       int             `gorm:"not null"`
	Bathroom      int             `gorm:"not null"`
	SizeSqm       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Price         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ContactPerson string          `gorm:"type:varchar(200);not null"`
	ImageLink     string          `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName returns the default table name for GORM
func (ListingRecord) TableName() string {
	return "listings"
}

// DatabaseSource reads a listings table and serves it in the same
// delimited shape as the other sources, so one loader pipeline covers
// files, object storage and the database.
type DatabaseSource struct {
	db    *gorm.DB
	table string
}

// NewDatabaseSource creates a source over a listings table. An empty
// table name falls back to the default.
func NewDatabaseSource(db *gorm.DB, table string) *DatabaseSource {
	if table == "" {
		table = ListingRecord{}.TableName()
	}
	return &DatabaseSource{db: db, table: table}
}

// URI returns the database URI of the source
func (s *DatabaseSource) URI() string {
	return "db://" + s.table
}

// Fingerprint combines the row count with the newest updated_at stamp.
// Tables without an updated_at column fall back to the count alone.
func (s *DatabaseSource) Fingerprint(ctx context.Context) (string, error) {
	var res struct {
		RowCount   int64
		MaxUpdated sql.NullTime
	}
	err := s.db.WithContext(ctx).Table(s.table).
		Select("count(*) as row_count, max(updated_at) as max_updated").
		Scan(&res).Error
	if err == nil {
		if res.MaxUpdated.Valid {
			return fmt.Sprintf("%d-%d", res.RowCount, res.MaxUpdated.Time.UnixNano()), nil
		}
		return strconv.FormatInt(res.RowCount, 10), nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Table(s.table).Count(&count).Error; err != nil {
		return "", fmt.Errorf("failed to fingerprint dataset table: %w", err)
	}
	return strconv.FormatInt(count, 10), nil
}

// Open renders the table rows as a delimited stream with the standard
// header. Rows come out in insertion order.
func (s *DatabaseSource) Open(ctx context.Context) (io.ReadCloser, error) {
	var records []ListingRecord
	if err := s.db.WithContext(ctx).Table(s.table).
		Order("created_at, id").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to read dataset table: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := append([]string{}, RequiredColumns...)
	header = append(header, ColCity)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to render dataset header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.Type,
			rec.Title,
			rec.Location,
			strconv.Itoa(rec.Bedroom),
			strconv.Itoa(rec.Bathroom),
			rec.SizeSqm.String(),
			rec.Price.String(),
			rec.ContactPerson,
			rec.ImageLink,
			rec.City,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to render dataset row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to render dataset: %w", err)
	}

	return io.NopCloser(&buf), nil
}

// SeedListings bulk-inserts cleaned listings into a dataset table. The
// created_at stamps increase monotonically so insertion-order reads
// reproduce the original source order.
func SeedListings(ctx context.Context, db *gorm.DB, table string, listings []*listing.Listing) error {
	if table == "" {
		table = ListingRecord{}.TableName()
	}

	now := time.Now()
	records := make([]ListingRecord, 0, len(listings))
	for i, l := range listings {
		stamp := now.Add(time.Duration(i) * time.Microsecond)
		records = append(records, ListingRecord{
			ID:            l.ID,
			Type:          l.Type,
			Title:         l.Title,
			Location:      l.Location,
			City:          l.City,
			Bedroom:       l.Bedrooms,
			Bathroom:      l.Bathrooms,
			SizeSqm:       l.SizeSqm,
			Price:         l.Price,
			ContactPerson: l.PhoneNumber,
			ImageLink:     l.ImageLink,
			CreatedAt:     stamp,
			UpdatedAt:     stamp,
		})
	}
	if len(records) == 0 {
		return nil
	}

	if err := db.WithContext(ctx).Table(table).CreateInBatches(records, 500).Error; err != nil {
		return fmt.Errorf("failed to seed dataset table: %w", err)
	}
	return nil
}

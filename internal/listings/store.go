package listings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/millennium/areamatch/internal/geo"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS listings (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		title        TEXT    NOT NULL,
		address      TEXT    NOT NULL,
		latitude     REAL    NOT NULL,
		longitude    REAL    NOT NULL,
		price        REAL    NOT NULL,
		description  TEXT    NOT NULL,
		bedrooms     INTEGER NOT NULL DEFAULT 0,
		bathrooms    INTEGER NOT NULL DEFAULT 0,
		area         REAL    NOT NULL DEFAULT 0,
		seller_name  TEXT    NOT NULL DEFAULT 'Anonymous',
		seller_phone TEXT    NOT NULL DEFAULT '',
		created_at   TEXT    NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS listings_price ON listings(price)`,
}

type Store struct {
	db     *sql.DB
	bounds geo.Bounds
	now    func() time.Time
}

// Open opens (creating if needed) the SQLite database at path and applies
// pending migrations.
func Open(ctx context.Context, path string, bounds geo.Bounds) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// one writer; also keeps ":memory:" on a single connection
	db.SetMaxOpenConns(1)

	if !strings.Contains(path, ":memory:") {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, bounds: bounds, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for i := version; i < len(migrations); i++ {
		if err := s.tx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1))
			return err
		}); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *Store) tx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%v (rollback: %w)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Add validates d and stores it. The returned listing carries its new ID.
func (s *Store) Add(ctx context.Context, d Draft) (Listing, error) {
	if err := d.Validate(s.bounds); err != nil {
		return Listing{}, err
	}
	l := Listing{
		Title:       *d.Title,
		Address:     *d.Address,
		Latitude:    *d.Latitude,
		Longitude:   *d.Longitude,
		Price:       *d.Price,
		Description: *d.Description,
		Bedrooms:    d.Bedrooms,
		Bathrooms:   d.Bathrooms,
		Area:        d.Area,
		SellerName:  d.SellerName,
		SellerPhone: d.SellerPhone,
		CreatedAt:   s.now().UTC(),
	}
	if strings.TrimSpace(l.SellerName) == "" {
		l.SellerName = DefaultSellerName
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO listings
		(title, address, latitude, longitude, price, description,
		 bedrooms, bathrooms, area, seller_name, seller_phone, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.Title, l.Address, l.Latitude, l.Longitude, l.Price, l.Description,
		l.Bedrooms, l.Bathrooms, l.Area, l.SellerName, l.SellerPhone,
		l.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Listing{}, fmt.Errorf("insert listing: %w", err)
	}
	if l.ID, err = res.LastInsertId(); err != nil {
		return Listing{}, fmt.Errorf("listing id: %w", err)
	}
	return l, nil
}

const selectColumns = `SELECT id, title, address, latitude, longitude, price, description,
	bedrooms, bathrooms, area, seller_name, seller_phone, created_at FROM listings`

// All returns every listing in insertion order, without quality scores.
func (s *Store) All(ctx context.Context) ([]Listing, error) {
	return s.query(ctx, selectColumns+` ORDER BY id`)
}

// List returns every listing with quality scores.
func (s *Store) List(ctx context.Context) ([]Listing, error) {
	ls, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	QualityScores(ls)
	return ls, nil
}

// InPriceRange returns listings priced within [lo, hi], in insertion order.
func (s *Store) InPriceRange(ctx context.Context, lo, hi float64) ([]Listing, error) {
	return s.query(ctx, selectColumns+` WHERE price >= ? AND price <= ? ORDER BY id`, lo, hi)
}

func (s *Store) Get(ctx context.Context, id int64) (Listing, error) {
	ls, err := s.query(ctx, selectColumns+` WHERE id = ?`, id)
	if err != nil {
		return Listing{}, err
	}
	if len(ls) == 0 {
		return Listing{}, sql.ErrNoRows
	}
	return ls[0], nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Listing, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []Listing{}
	for rows.Next() {
		var (
			l       Listing
			created string
		)
		if err := rows.Scan(&l.ID, &l.Title, &l.Address, &l.Latitude, &l.Longitude, &l.Price,
			&l.Description, &l.Bedrooms, &l.Bathrooms, &l.Area, &l.SellerName, &l.SellerPhone,
			&created); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		if l.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("listing %d created_at: %w", l.ID, err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// IsNotFound reports whether err means no listing matched.
func IsNotFound(err error) bool { return errors.Is(err, sql.ErrNoRows) }

package history

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"        // postgres driver
	_ "modernc.org/sqlite"       // sqlite driver

	"github.com/plip123/nft-marketplace/internal/core/types"
)

// Drivers accepted by NewSQLRepository.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS listings (
	listing_id BIGINT PRIMARY KEY,
	seller     TEXT NOT NULL,
	token_id   BIGINT NOT NULL,
	unit_price BIGINT NOT NULL,
	quantity   BIGINT NOT NULL,
	expiry     BIGINT NOT NULL,
	created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS listings_seller ON listings (seller, created_at);

CREATE TABLE IF NOT EXISTS sales (
	listing_id  BIGINT NOT NULL,
	seller      TEXT NOT NULL,
	buyer       TEXT NOT NULL,
	quantity    BIGINT NOT NULL,
	price_paid  BIGINT NOT NULL,
	currency    TEXT NOT NULL,
	occurred_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS sales_listing ON sales (listing_id, occurred_at);
CREATE INDEX IF NOT EXISTS sales_seller ON sales (seller, occurred_at);
CREATE INDEX IF NOT EXISTS sales_buyer ON sales (buyer, occurred_at);

CREATE TABLE IF NOT EXISTS cancellations (
	listing_id  BIGINT PRIMARY KEY,
	seller      TEXT NOT NULL,
	occurred_at BIGINT NOT NULL
);
`

// SQLRepository implements Repository over database/sql with either the
// sqlite or postgres driver.
type SQLRepository struct {
	driver string
	dsn    string
	db     *sql.DB
}

// NewSQLRepository builds a repository for the given driver and DSN. For
// sqlite the DSN is a file path or ":memory:".
func NewSQLRepository(driver, dsn string) (*SQLRepository, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	return &SQLRepository{driver: driver, dsn: dsn}, nil
}

// Open connects and initializes the schema.
func (r *SQLRepository) Open(ctx context.Context) error {
	db, err := sql.Open(r.driver, r.dsn)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping history database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize history schema: %w", err)
	}
	r.db = db
	return nil
}

func (r *SQLRepository) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// rebind rewrites ? placeholders to $n for postgres. Queries are written in
// sqlite form.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func (r *SQLRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	if r.db == nil {
		return ErrNotOpen
	}
	_, err := r.db.ExecContext(ctx, r.rebind(query), args...)
	return err
}

func (r *SQLRepository) RecordListing(ctx context.Context, row ListingRow) error {
	return r.exec(ctx,
		`INSERT INTO listings (listing_id, seller, token_id, unit_price, quantity, expiry, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		int64(row.ListingID), row.Seller.String(), int64(row.TokenID), int64(row.UnitPrice),
		int64(row.Quantity), row.Expiry.Unix(), row.CreatedAt.Unix())
}

func (r *SQLRepository) RecordSale(ctx context.Context, row SaleRow) error {
	return r.exec(ctx,
		`INSERT INTO sales (listing_id, seller, buyer, quantity, price_paid, currency, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		int64(row.ListingID), row.Seller.String(), row.Buyer.String(), int64(row.Quantity),
		int64(row.PricePaid), row.Currency, row.OccurredAt.Unix())
}

func (r *SQLRepository) RecordCancellation(ctx context.Context, row CancellationRow) error {
	return r.exec(ctx,
		`INSERT INTO cancellations (listing_id, seller, occurred_at) VALUES (?, ?, ?)`,
		int64(row.ListingID), row.Seller.String(), row.OccurredAt.Unix())
}

func (r *SQLRepository) ListingsBySeller(ctx context.Context, seller types.Address, limit int) ([]ListingRow, error) {
	if r.db == nil {
		return nil, ErrNotOpen
	}
	rows, err := r.db.QueryContext(ctx, r.rebind(
		`SELECT listing_id, seller, token_id, unit_price, quantity, expiry, created_at
		 FROM listings WHERE seller = ? ORDER BY created_at DESC, listing_id DESC LIMIT ?`),
		seller.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ListingRow
	for rows.Next() {
		var (
			row                          ListingRow
			listingID, tokenID           int64
			unitPrice, quantity          int64
			expiry, createdAt            int64
			sellerText                   string
		)
		if err := rows.Scan(&listingID, &sellerText, &tokenID, &unitPrice, &quantity, &expiry, &createdAt); err != nil {
			return nil, err
		}
		addr, err := types.ParseAddress(sellerText)
		if err != nil {
			return nil, fmt.Errorf("corrupt seller address %q: %w", sellerText, err)
		}
		row.ListingID = uint64(listingID)
		row.Seller = addr
		row.TokenID = uint64(tokenID)
		row.UnitPrice = uint64(unitPrice)
		row.Quantity = uint64(quantity)
		row.Expiry = time.Unix(expiry, 0).UTC()
		row.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLRepository) SalesByAccount(ctx context.Context, account types.Address, limit int) ([]SaleRow, error) {
	return r.querySales(ctx,
		`SELECT listing_id, seller, buyer, quantity, price_paid, currency, occurred_at
		 FROM sales WHERE seller = ? OR buyer = ?
		 ORDER BY occurred_at DESC, listing_id DESC LIMIT ?`,
		account.String(), account.String(), limit)
}

func (r *SQLRepository) SalesByListing(ctx context.Context, listingID uint64) ([]SaleRow, error) {
	return r.querySales(ctx,
		`SELECT listing_id, seller, buyer, quantity, price_paid, currency, occurred_at
		 FROM sales WHERE listing_id = ? ORDER BY occurred_at ASC`,
		int64(listingID))
}

func (r *SQLRepository) querySales(ctx context.Context, query string, args ...interface{}) ([]SaleRow, error) {
	if r.db == nil {
		return nil, ErrNotOpen
	}
	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SaleRow
	for rows.Next() {
		var (
			row                    SaleRow
			listingID, quantity    int64
			pricePaid, occurredAt  int64
			sellerText, buyerText  string
		)
		if err := rows.Scan(&listingID, &sellerText, &buyerText, &quantity, &pricePaid, &row.Currency, &occurredAt); err != nil {
			return nil, err
		}
		seller, err := types.ParseAddress(sellerText)
		if err != nil {
			return nil, fmt.Errorf("corrupt seller address %q: %w", sellerText, err)
		}
		buyer, err := types.ParseAddress(buyerText)
		if err != nil {
			return nil, fmt.Errorf("corrupt buyer address %q: %w", buyerText, err)
		}
		row.ListingID = uint64(listingID)
		row.Seller = seller
		row.Buyer = buyer
		row.Quantity = uint64(quantity)
		row.PricePaid = uint64(pricePaid)
		row.OccurredAt = time.Unix(occurredAt, 0).UTC()
		out = append(out, row)
	}
	return out, rows.Err()
}

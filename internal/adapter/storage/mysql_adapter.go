package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/cart-sync/internal/core/domain"
)

var (
	ErrOptimisticLock = errors.New("optimistic lock conflict")
	ErrNotFound       = errors.New("not found")
)

// ER_DUP_ENTRY
const mysqlErrDuplicateEntry = 1062

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		price DECIMAL(12,2) NOT NULL DEFAULT 0,
		image VARCHAR(1024) NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS inventory (
		product_id BIGINT PRIMARY KEY,
		stock INT NOT NULL DEFAULT 0,
		version INT NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// Migrate creates the catalog tables if they do not exist.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range mysqlSchema {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, productID int64) (domain.Product, error) {
	var p domain.Product
	err := m.db.QueryRowContext(ctx, `
		SELECT id, title, price, image
		FROM products WHERE id = ?`, productID,
	).Scan(&p.ID, &p.Title, &p.Price, &p.Image)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("query product: %w", err)
	}

	return p, nil
}

func (m *MySQLAdapter) GetStock(ctx context.Context, productID int64) (domain.StockLevel, error) {
	inv, err := m.GetInventory(ctx, productID)
	if err != nil {
		return domain.StockLevel{}, err
	}
	if inv == nil {
		return domain.StockLevel{}, fmt.Errorf("stock %d: %w", productID, ErrNotFound)
	}

	return inv.StockLevel(), nil
}

func (m *MySQLAdapter) GetInventory(ctx context.Context, productID int64) (*domain.Inventory, error) {
	var inv domain.Inventory
	err := m.db.QueryRowContext(ctx, `
		SELECT product_id, stock, version, created_at, updated_at
		FROM inventory WHERE product_id = ?`, productID,
	).Scan(&inv.ProductID, &inv.Quantity, &inv.Version, &inv.CreatedAt, &inv.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}

	return &inv, nil
}

func (m *MySQLAdapter) UpdateInventory(ctx context.Context, inv domain.Inventory) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE inventory
		SET stock = ?, version = version + 1, updated_at = NOW()
		WHERE product_id = ? AND version = ?`,
		inv.Quantity, inv.ProductID, inv.Version,
	)
	if err != nil {
		return fmt.Errorf("update inventory: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrOptimisticLock
	}

	return nil
}

func (m *MySQLAdapter) UpsertProduct(ctx context.Context, p domain.Product) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO products (id, title, price, image)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE title = VALUES(title), price = VALUES(price),
			image = VALUES(image), updated_at = NOW()`,
		p.ID, p.Title, p.Price, p.Image,
	)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

// SetStock sets the available quantity. The first call for a product
// inserts its inventory row; later calls go through UpdateInventory. Both
// paths report a concurrent writer as ErrOptimisticLock.
func (m *MySQLAdapter) SetStock(ctx context.Context, productID int64, quantity int) error {
	inv, err := m.GetInventory(ctx, productID)
	if err != nil {
		return err
	}

	if inv == nil {
		_, err := m.db.ExecContext(ctx, `
			INSERT INTO inventory (product_id, stock, version) VALUES (?, ?, 0)`,
			productID, quantity,
		)
		if isDuplicateKey(err) {
			return ErrOptimisticLock
		}
		if err != nil {
			return fmt.Errorf("insert inventory: %w", err)
		}
		return nil
	}

	inv.Quantity = quantity
	return m.UpdateInventory(ctx, *inv)
}

func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlErrDuplicateEntry
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/cart-sync/internal/core/domain"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/cartsync?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("MySQL not available: %v", err)
	}

	if err := NewMySQLAdapter(db).Migrate(context.Background()); err != nil {
		db.Close()
		t.Fatalf("migrate failed: %v", err)
	}

	return db
}

func TestUpsertProduct_GetProduct(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	p := domain.Product{ID: 900001, Title: "Tênis de Caminhada", Price: 179.9, Image: "https://example.com/shoe.jpg"}
	if err := adapter.UpsertProduct(ctx, p); err != nil {
		t.Fatalf("UpsertProduct failed: %v", err)
	}
	defer db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, p.ID)

	got, err := adapter.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if got != p {
		t.Errorf("expected %+v, got %+v", p, got)
	}

	// Upsert replaces the attributes
	p.Price = 159.9
	if err := adapter.UpsertProduct(ctx, p); err != nil {
		t.Fatalf("UpsertProduct failed: %v", err)
	}
	got, _ = adapter.GetProduct(ctx, p.ID)
	if got.Price != 159.9 {
		t.Errorf("expected price 159.9, got %v", got.Price)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	_, err := NewMySQLAdapter(db).GetProduct(context.Background(), -1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestSetStock_GetStock(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	db.ExecContext(ctx, `DELETE FROM inventory WHERE product_id = 900002`)
	defer db.ExecContext(ctx, `DELETE FROM inventory WHERE product_id = 900002`)

	// First call inserts
	if err := adapter.SetStock(ctx, 900002, 3); err != nil {
		t.Fatalf("SetStock failed: %v", err)
	}
	// Second call goes through the version check
	if err := adapter.SetStock(ctx, 900002, 5); err != nil {
		t.Fatalf("SetStock failed: %v", err)
	}

	level, err := adapter.GetStock(ctx, 900002)
	if err != nil {
		t.Fatalf("GetStock failed: %v", err)
	}
	if level.ProductID != 900002 || level.Amount != 5 {
		t.Errorf("unexpected stock level: %+v", level)
	}

	inv, err := adapter.GetInventory(ctx, 900002)
	if err != nil {
		t.Fatalf("GetInventory failed: %v", err)
	}
	if inv.Version != 1 {
		t.Errorf("expected version 1, got %d", inv.Version)
	}
}

func TestGetStock_NotFound(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	inv, err := adapter.GetInventory(ctx, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv != nil {
		t.Error("expected nil for nonexistent product")
	}

	if _, err := adapter.GetStock(ctx, -1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestUpdateInventory_OptimisticLock(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	// Setup
	_, err := db.ExecContext(ctx, `
		INSERT INTO inventory (product_id, stock, version) VALUES (900003, 100, 1)
		ON DUPLICATE KEY UPDATE stock = 100, version = 1`)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	defer db.ExecContext(ctx, `DELETE FROM inventory WHERE product_id = 900003`)

	// Update with correct version
	inv := domain.Inventory{
		ProductID: 900003,
		Quantity:  90,
		Version:   1,
	}

	err = adapter.UpdateInventory(ctx, inv)
	if err != nil {
		t.Fatalf("UpdateInventory failed: %v", err)
	}

	// Verify version incremented
	var version int
	db.QueryRowContext(ctx, `SELECT version FROM inventory WHERE product_id = 900003`).Scan(&version)
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}

	// Try update with stale version
	inv.Version = 1 // stale
	err = adapter.UpdateInventory(ctx, inv)
	if err != ErrOptimisticLock {
		t.Errorf("expected ErrOptimisticLock, got: %v", err)
	}
}

func TestSetStock_ConcurrentFirstInsert(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	db.ExecContext(ctx, `DELETE FROM inventory WHERE product_id = 900004`)
	defer db.ExecContext(ctx, `DELETE FROM inventory WHERE product_id = 900004`)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(quantity int) {
			defer wg.Done()
			errs <- adapter.SetStock(ctx, 900004, quantity)
		}(i)
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrOptimisticLock):
		default:
			t.Errorf("expected nil or ErrOptimisticLock, got: %v", err)
		}
	}
	if succeeded == 0 {
		t.Error("expected at least one writer to succeed")
	}

	if _, err := adapter.GetStock(ctx, 900004); err != nil {
		t.Errorf("GetStock failed: %v", err)
	}
}

func TestIsDuplicateKey(t *testing.T) {
	dup := &mysql.MySQLError{Number: mysqlErrDuplicateEntry, Message: "Duplicate entry '1' for key 'PRIMARY'"}

	if !isDuplicateKey(dup) {
		t.Error("expected duplicate entry to match")
	}
	if !isDuplicateKey(fmt.Errorf("insert inventory: %w", dup)) {
		t.Error("expected wrapped duplicate entry to match")
	}
	if isDuplicateKey(&mysql.MySQLError{Number: 1146}) {
		t.Error("expected other mysql errors not to match")
	}
	if isDuplicateKey(nil) || isDuplicateKey(errors.New("boom")) {
		t.Error("expected non-mysql errors not to match")
	}
}

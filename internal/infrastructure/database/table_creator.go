// Package database provides tenant instantiation
package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/plateful/plateful-go/internal/infrastructure/security"
)

// TableCreator handles the creation of the database schema for a new tenant.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build the tenant's database tables and indexes.
func (tc *TableCreator) CreateSchema(db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

// SeedInitialContent adds the default catalog rows required for a new tenant to function.
func (tc *TableCreator) SeedInitialContent(db *sql.DB) error {
	// Idempotently create the default "Menu" category.
	var categoryID string
	err := db.QueryRow("SELECT id FROM categories WHERE slug = 'menu'").Scan(&categoryID)
	if err == sql.ErrNoRows {
		categoryID = security.GenerateULID()
		_, err = db.Exec(`INSERT INTO categories (id, title, slug, weight) VALUES (?, ?, ?, ?)`, categoryID, "Menu", "menu", 0)
		if err != nil {
			return fmt.Errorf("failed to insert default category: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to check for default category: %w", err)
	}

	// Idempotently create the default special so the scheduling page has a row.
	var specialExists bool
	err = db.QueryRow("SELECT EXISTS(SELECT 1 FROM specials WHERE slug = 'daily-special')").Scan(&specialExists)
	if err != nil {
		return fmt.Errorf("failed to check for special existence: %w", err)
	}

	if !specialExists {
		specialID := security.GenerateULID()
		now := time.Now().UTC()
		_, err = db.Exec(`INSERT INTO specials (id, title, slug, price_cents, active, days, created, changed) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			specialID, "Daily Special", "daily-special", 0, 0, "[]", now, now)
		if err != nil {
			return fmt.Errorf("failed to insert default special: %w", err)
		}
	}

	return nil
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS categories (id TEXT PRIMARY KEY, title TEXT NOT NULL, slug TEXT NOT NULL UNIQUE, weight INTEGER NOT NULL DEFAULT 0)`,
	`CREATE TABLE IF NOT EXISTS products (id TEXT PRIMARY KEY, title TEXT NOT NULL, slug TEXT NOT NULL UNIQUE, category_id TEXT REFERENCES categories(id), description TEXT, price_cents INTEGER NOT NULL DEFAULT 0, status TEXT NOT NULL DEFAULT 'active', image_url TEXT, created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, changed TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS customers (id TEXT PRIMARY KEY, name TEXT NOT NULL, email TEXT NOT NULL UNIQUE, phone TEXT, address TEXT, created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, changed TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS orders (id TEXT PRIMARY KEY, number TEXT NOT NULL UNIQUE, customer_id TEXT REFERENCES customers(id), customer_name TEXT NOT NULL, status TEXT NOT NULL DEFAULT 'pending', payment_status TEXT NOT NULL DEFAULT 'unpaid', total_cents INTEGER NOT NULL DEFAULT 0, note TEXT, created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, changed TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS order_items (id TEXT PRIMARY KEY, order_id TEXT NOT NULL REFERENCES orders(id), product_id TEXT NOT NULL REFERENCES products(id), title TEXT NOT NULL, quantity INTEGER NOT NULL DEFAULT 1, price_cents INTEGER NOT NULL DEFAULT 0)`,
	`CREATE TABLE IF NOT EXISTS specials (id TEXT PRIMARY KEY, title TEXT NOT NULL, slug TEXT NOT NULL UNIQUE, product_id TEXT REFERENCES products(id), description TEXT, price_cents INTEGER NOT NULL DEFAULT 0, active BOOLEAN DEFAULT 1, days TEXT NOT NULL DEFAULT '[]', created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, changed TIMESTAMP)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_categories_slug ON categories(slug)`,
	`CREATE INDEX IF NOT EXISTS idx_products_slug ON products(slug)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category_id ON products(category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_products_status ON products(status)`,
	`CREATE INDEX IF NOT EXISTS idx_customers_email ON customers(email)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_number ON orders(number)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_payment_status ON orders(payment_status)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_customer_id ON orders(customer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_created ON orders(created)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_product_id ON order_items(product_id)`,
	`CREATE INDEX IF NOT EXISTS idx_specials_slug ON specials(slug)`,
	`CREATE INDEX IF NOT EXISTS idx_specials_active ON specials(active)`,
}

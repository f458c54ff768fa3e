package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/Lixing-Zhang/product-catalog/internal/models"
)

const productsTable = `
	CREATE TABLE IF NOT EXISTS products (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL,
		description TEXT NOT NULL,
		price       REAL NOT NULL CHECK (price >= 0),
		category    TEXT NOT NULL
	);`

var _ ProductRepository = (*SQLiteProductRepository)(nil)

// SQLiteProductRepository implements ProductRepository on a SQLite file.
// AUTOINCREMENT keeps identifiers from being reused after deletes.
type SQLiteProductRepository struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and makes sure the
// products table exists. When the table is empty it is filled with seed.
func OpenSQLite(ctx context.Context, path string, seed []models.Product) (*SQLiteProductRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	r := &SQLiteProductRepository{db: db}
	if err := r.init(ctx, seed); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteProductRepository) init(ctx context.Context, seed []models.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, productsTable); err != nil {
		return fmt.Errorf("create products table: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if count == 0 {
		for _, p := range seed {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO products (id, name, description, price, category) VALUES (?, ?, ?, ?, ?)`,
				p.ID, p.Name, p.Description, p.Price, p.Category,
			)
			if err != nil {
				return fmt.Errorf("seed product %d: %w", p.ID, err)
			}
		}
	}

	return tx.Commit()
}

// Close closes the database.
func (r *SQLiteProductRepository) Close() error {
	return r.db.Close()
}

// GetAll returns all products ordered by identifier
func (r *SQLiteProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, price, category FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// GetByID returns a product by its ID
func (r *SQLiteProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, price, category FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &p, nil
}

// Create stores the draft under a fresh identifier
func (r *SQLiteProductRepository) Create(ctx context.Context, draft models.Draft) (models.Product, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO products (name, description, price, category) VALUES (?, ?, ?, ?)`,
		draft.Name, draft.Description, draft.Price, draft.Category,
	)
	if err != nil {
		return models.Product{}, fmt.Errorf("insert product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return draft.WithID(id), nil
}

// Update replaces every non-id field of an existing product
func (r *SQLiteProductRepository) Update(ctx context.Context, id int64, draft models.Draft) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = ?, description = ?, price = ?, category = ? WHERE id = ?`,
		draft.Name, draft.Description, draft.Price, draft.Category, id,
	)
	if err != nil {
		return fmt.Errorf("update product %d: %w", id, err)
	}
	return requireRow(res)
}

// Delete removes a product
func (r *SQLiteProductRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

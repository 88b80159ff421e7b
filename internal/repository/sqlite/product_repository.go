package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"
)

const createProductsTable = `
CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	price REAL NOT NULL DEFAULT 0,
	description TEXT NOT NULL DEFAULT '',
	image_url TEXT NOT NULL DEFAULT '',
	images TEXT NOT NULL DEFAULT '[]',
	category TEXT NOT NULL DEFAULT '',
	sizes TEXT NOT NULL DEFAULT '[]',
	stock INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) repository.ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createProductsTable); err != nil {
		return fmt.Errorf("create products table: %w", err)
	}
	return nil
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	images, err := encodeStrings(product.Images)
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}
	sizes, err := encodeStrings(product.Sizes)
	if err != nil {
		return fmt.Errorf("encode sizes: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO products (id, name, price, description, image_url, images, category, sizes, stock, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID,
		product.Name,
		product.Price,
		product.Description,
		product.ImageURL,
		images,
		product.Category,
		sizes,
		product.Stock,
		product.CreatedAt.UTC(),
		product.UpdatedAt.UTC(),
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return fmt.Errorf("insert product: %w", repository.ErrDuplicate)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	images, err := encodeStrings(product.Images)
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}
	sizes, err := encodeStrings(product.Sizes)
	if err != nil {
		return fmt.Errorf("encode sizes: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE products
SET name=?, price=?, description=?, image_url=?, images=?, category=?, sizes=?, stock=?, updated_at=?
WHERE id=?`,
		product.Name,
		product.Price,
		product.Description,
		product.ImageURL,
		images,
		product.Category,
		sizes,
		product.Stock,
		product.UpdatedAt.UTC(),
		product.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("product rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("product %s: %w", product.ID, repository.ErrNotFound)
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("product rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("product %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, price, description, image_url, images, category, sizes, stock, created_at, updated_at
FROM products
WHERE id=?`,
		id,
	)
	return scanProduct(row)
}

func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		conditions = append(conditions, "(instr(lower(name), lower(?)) > 0 OR instr(lower(description), lower(?)) > 0)")
		args = append(args, filter.Search, filter.Search)
	}

	query := `
SELECT id, name, price, description, image_url, images, category, sizes, stock, created_at, updated_at
FROM products`
	if len(conditions) > 0 {
		query += "\nWHERE " + strings.Join(conditions, " AND ")
	}
	// rowid preserves insertion order
	query += "\nORDER BY rowid ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	return products, rows.Err()
}

func scanProduct(scanner interface {
	Scan(dest ...any) error
}) (*domain.Product, error) {
	var (
		product   domain.Product
		images    string
		sizes     string
		createdAt time.Time
		updatedAt time.Time
	)

	if err := scanner.Scan(
		&product.ID,
		&product.Name,
		&product.Price,
		&product.Description,
		&product.ImageURL,
		&images,
		&product.Category,
		&sizes,
		&product.Stock,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	var err error
	if product.Images, err = decodeStrings(images); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	if product.Sizes, err = decodeStrings(sizes); err != nil {
		return nil, fmt.Errorf("decode sizes: %w", err)
	}
	product.CreatedAt = createdAt.UTC()
	product.UpdatedAt = updatedAt.UTC()
	return &product, nil
}

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeStrings(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

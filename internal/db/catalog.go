package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// CreateSeller inserts a new seller account
func (r *Repository) CreateSeller(ctx context.Context, s *Seller) error {
	query := `
		INSERT INTO sellers (id, name, email, password, phone, photo_url, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.db.Pool().QueryRow(
		ctx,
		query,
		s.ID,
		s.Name,
		s.Email,
		s.Password,
		s.Phone,
		s.PhotoURL,
		s.IsAdmin,
	).Scan(&s.CreatedAt)

	if err != nil {
		r.logger.Error("failed to create seller",
			zap.Error(err),
			zap.String("seller_id", s.ID.String()),
		)
		return fmt.Errorf("insert seller: %w", err)
	}

	r.logger.Info("seller created",
		zap.String("seller_id", s.ID.String()),
		zap.Bool("is_admin", s.IsAdmin),
	)

	return nil
}

// ListSellers retrieves all seller accounts
func (r *Repository) ListSellers(ctx context.Context) ([]*Seller, error) {
	query := `
		SELECT id, name, email, password, phone, photo_url, is_admin, created_at
		FROM sellers
		ORDER BY name
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		r.logger.Error("failed to list sellers", zap.Error(err))
		return nil, fmt.Errorf("query sellers: %w", err)
	}
	defer rows.Close()

	var sellers []*Seller
	for rows.Next() {
		var s Seller
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Password, &s.Phone, &s.PhotoURL, &s.IsAdmin, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan seller: %w", err)
		}
		sellers = append(sellers, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sellers: %w", err)
	}

	return sellers, nil
}

// GetSellerByEmail retrieves a seller by email for the login check
func (r *Repository) GetSellerByEmail(ctx context.Context, email string) (*Seller, error) {
	query := `
		SELECT id, name, email, password, phone, photo_url, is_admin, created_at
		FROM sellers
		WHERE email = $1
	`

	var s Seller
	err := r.db.Pool().QueryRow(ctx, query, email).Scan(
		&s.ID, &s.Name, &s.Email, &s.Password, &s.Phone, &s.PhotoURL, &s.IsAdmin, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("seller %s: %w", email, ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get seller by email", zap.Error(err))
		return nil, fmt.Errorf("query seller: %w", err)
	}

	return &s, nil
}

// UpdateSeller updates a seller's profile fields. An empty password
// keeps the stored one.
func (r *Repository) UpdateSeller(ctx context.Context, s *Seller) error {
	query := `
		UPDATE sellers SET
			name = $2, email = $3, phone = $4, photo_url = $5, is_admin = $6,
			password = CASE WHEN $7 = '' THEN password ELSE $7 END
		WHERE id = $1
	`

	tag, err := r.db.Pool().Exec(ctx, query, s.ID, s.Name, s.Email, s.Phone, s.PhotoURL, s.IsAdmin, s.Password)
	if err != nil {
		r.logger.Error("failed to update seller",
			zap.Error(err),
			zap.String("seller_id", s.ID.String()),
		)
		return fmt.Errorf("update seller: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("seller %s: %w", s.ID, ErrNotFound)
	}

	return nil
}

// DeleteSeller removes a seller account permanently
func (r *Repository) DeleteSeller(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool().Exec(ctx, `DELETE FROM sellers WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("failed to delete seller",
			zap.Error(err),
			zap.String("seller_id", id.String()),
		)
		return fmt.Errorf("delete seller: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("seller %s: %w", id, ErrNotFound)
	}

	r.logger.Info("seller deleted", zap.String("seller_id", id.String()))
	return nil
}

// CreateProduct inserts a catalog product
func (r *Repository) CreateProduct(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO products (id, name, description, price, image_url, demo_link)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.db.Pool().QueryRow(
		ctx,
		query,
		p.ID,
		p.Name,
		p.Description,
		p.Price,
		p.ImageURL,
		p.DemoLink,
	).Scan(&p.CreatedAt)

	if err != nil {
		r.logger.Error("failed to create product",
			zap.Error(err),
			zap.String("product_id", p.ID.String()),
		)
		return fmt.Errorf("insert product: %w", err)
	}

	r.logger.Info("product created", zap.String("product_id", p.ID.String()))
	return nil
}

// ListProducts retrieves the product catalog
func (r *Repository) ListProducts(ctx context.Context) ([]*Product, error) {
	query := `
		SELECT id, name, description, price, image_url, demo_link, created_at
		FROM products
		ORDER BY name
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		r.logger.Error("failed to list products", zap.Error(err))
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.DemoLink, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

// UpdateProduct updates a catalog product
func (r *Repository) UpdateProduct(ctx context.Context, p *Product) error {
	query := `
		UPDATE products SET
			name = $2, description = $3, price = $4, image_url = $5, demo_link = $6
		WHERE id = $1
	`

	tag, err := r.db.Pool().Exec(ctx, query, p.ID, p.Name, p.Description, p.Price, p.ImageURL, p.DemoLink)
	if err != nil {
		r.logger.Error("failed to update product",
			zap.Error(err),
			zap.String("product_id", p.ID.String()),
		)
		return fmt.Errorf("update product: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", p.ID, ErrNotFound)
	}

	return nil
}

// DeleteProduct removes a catalog product
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool().Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("failed to delete product",
			zap.Error(err),
			zap.String("product_id", id.String()),
		)
		return fmt.Errorf("delete product: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}

	r.logger.Info("product deleted", zap.String("product_id", id.String()))
	return nil
}

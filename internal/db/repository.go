package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Repository handles database operations for clients and messages
type Repository struct {
	db     *DB
	logger *zap.Logger
}

// NewRepository creates a new repository
func NewRepository(db *DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// CreateClient inserts a new client into the database
func (r *Repository) CreateClient(ctx context.Context, c *Client) error {
	query := `
		INSERT INTO clients (
			id, name, email, whatsapp, address, app_name,
			monthly_value, payment_link, due_day, status, sale_date
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool().QueryRow(
		ctx,
		query,
		c.ID,
		c.Name,
		c.Email,
		c.Whatsapp,
		c.Address,
		c.AppName,
		c.MonthlyValue,
		c.PaymentLink,
		c.DueDay,
		c.Status,
		c.SaleDate,
	).Scan(&c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create client",
			zap.Error(err),
			zap.String("client_id", c.ID.String()),
		)
		return fmt.Errorf("insert client: %w", err)
	}

	r.logger.Info("client created",
		zap.String("client_id", c.ID.String()),
		zap.String("status", c.Status),
		zap.Int("due_day", c.DueDay),
	)

	return nil
}

const clientColumns = `
	id, name, email, whatsapp, address, app_name,
	monthly_value, payment_link, due_day, status,
	sale_date, last_payment_date, created_at, updated_at
`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Whatsapp,
		&c.Address,
		&c.AppName,
		&c.MonthlyValue,
		&c.PaymentLink,
		&c.DueDay,
		&c.Status,
		&c.SaleDate,
		&c.LastPaymentDate,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetClient retrieves a client by ID
func (r *Repository) GetClient(ctx context.Context, id uuid.UUID) (*Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

	c, err := scanClient(r.db.Pool().QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("client %s: %w", id, ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get client",
			zap.Error(err),
			zap.String("client_id", id.String()),
		)
		return nil, fmt.Errorf("query client: %w", err)
	}

	return c, nil
}

// ListClients retrieves all clients, newest first
func (r *Repository) ListClients(ctx context.Context) ([]*Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY created_at DESC`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		r.logger.Error("failed to list clients", zap.Error(err))
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	var clients []*Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}

	return clients, nil
}

// ListClientsByStatus retrieves clients with the given lifecycle status
func (r *Repository) ListClientsByStatus(ctx context.Context, status string) ([]*Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE status = $1 ORDER BY created_at DESC`

	rows, err := r.db.Pool().Query(ctx, query, status)
	if err != nil {
		r.logger.Error("failed to list clients by status",
			zap.Error(err),
			zap.String("status", status),
		)
		return nil, fmt.Errorf("query clients by status: %w", err)
	}
	defer rows.Close()

	var clients []*Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}

	return clients, nil
}

// UpdateClient updates the editable fields of a client.
// Status is not touched here; use UpdateClientStatus for lifecycle changes.
func (r *Repository) UpdateClient(ctx context.Context, c *Client) error {
	query := `
		UPDATE clients SET
			name = $2, email = $3, whatsapp = $4, address = $5,
			app_name = $6, monthly_value = $7, payment_link = $8,
			due_day = $9, sale_date = $10, last_payment_date = $11,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool().Exec(
		ctx,
		query,
		c.ID,
		c.Name,
		c.Email,
		c.Whatsapp,
		c.Address,
		c.AppName,
		c.MonthlyValue,
		c.PaymentLink,
		c.DueDay,
		c.SaleDate,
		c.LastPaymentDate,
	)
	if err != nil {
		r.logger.Error("failed to update client",
			zap.Error(err),
			zap.String("client_id", c.ID.String()),
		)
		return fmt.Errorf("update client: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client %s: %w", c.ID, ErrNotFound)
	}

	return nil
}

// UpdateClientStatus overwrites the lifecycle status of a client.
// Any status can follow any other; the lifecycle is intentionally
// permissive (see alerts.SetStatus).
func (r *Repository) UpdateClientStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE clients SET status = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Pool().Exec(ctx, query, id, status)
	if err != nil {
		r.logger.Error("failed to update client status",
			zap.Error(err),
			zap.String("client_id", id.String()),
			zap.String("status", status),
		)
		return fmt.Errorf("update client status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client %s: %w", id, ErrNotFound)
	}

	r.logger.Info("client status updated",
		zap.String("client_id", id.String()),
		zap.String("status", status),
	)

	return nil
}

// DeleteClient removes a client permanently. There is no soft delete.
func (r *Repository) DeleteClient(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool().Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("failed to delete client",
			zap.Error(err),
			zap.String("client_id", id.String()),
		)
		return fmt.Errorf("delete client: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("client %s: %w", id, ErrNotFound)
	}

	r.logger.Info("client deleted", zap.String("client_id", id.String()))
	return nil
}

// CreateMessage inserts an admin message
func (r *Repository) CreateMessage(ctx context.Context, m *Message) error {
	query := `
		INSERT INTO messages (id, content, sender_name, receiver_email)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := r.db.Pool().QueryRow(
		ctx,
		query,
		m.ID,
		m.Content,
		m.SenderName,
		m.ReceiverEmail,
	).Scan(&m.CreatedAt)

	if err != nil {
		r.logger.Error("failed to create message",
			zap.Error(err),
			zap.String("message_id", m.ID.String()),
		)
		return fmt.Errorf("insert message: %w", err)
	}

	r.logger.Info("message created",
		zap.String("message_id", m.ID.String()),
		zap.Bool("broadcast", m.ReceiverEmail == nil),
	)

	return nil
}

// ListMessages retrieves all messages, newest first
func (r *Repository) ListMessages(ctx context.Context) ([]*Message, error) {
	query := `
		SELECT id, content, sender_name, receiver_email, created_at
		FROM messages
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		r.logger.Error("failed to list messages", zap.Error(err))
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Content, &m.SenderName, &m.ReceiverEmail, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

// DeleteMessage removes a message by ID. Deleting a message that is
// already gone is a no-op, so retries have no side effects.
func (r *Repository) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool().Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("failed to delete message",
			zap.Error(err),
			zap.String("message_id", id.String()),
		)
		return fmt.Errorf("delete message: %w", err)
	}

	if tag.RowsAffected() > 0 {
		r.logger.Info("message deleted", zap.String("message_id", id.String()))
	}

	return nil
}

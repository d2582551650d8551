package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
	"github.com/regolet/mikrotikmonitoring/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.EndpointStore = (*EndpointRepo)(nil)

// EndpointRepo is the SQLite implementation of the EndpointStore port
// interface. Passwords are sealed with AES-256-GCM when a key is configured.
type EndpointRepo struct {
	db  *DB
	box secretBox
}

// NewEndpointRepo creates a new EndpointRepo. key must be 32 bytes, or nil to
// store passwords unencrypted.
func NewEndpointRepo(db *DB, key []byte) *EndpointRepo {
	return &EndpointRepo{db: db, box: secretBox{key: key}}
}

const endpointColumns = `id, name, description, host, port, username, secret, secret_encrypted,
	transport, enabled, status, last_connection, created_at, updated_at`

// Add inserts the endpoint and its empty category set in one transaction.
func (r *EndpointRepo) Add(ctx context.Context, ep model.Endpoint) error {
	secret, encrypted, err := r.box.seal(ep.Password)
	if err != nil {
		return fmt.Errorf("seal password for endpoint %s: %w", ep.ID, err)
	}

	now := time.Now().UTC()
	if ep.CreatedAt.IsZero() {
		ep.CreatedAt = now
	}
	if ep.UpdatedAt.IsZero() {
		ep.UpdatedAt = ep.CreatedAt
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	const insertEndpoint = `INSERT INTO endpoints (` + endpointColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, insertEndpoint,
		ep.ID, ep.Name, ep.Description, ep.Host, ep.Port, ep.Username,
		secret, boolToInt(encrypted), string(ep.Transport), boolToInt(ep.Enabled),
		string(ep.Status), nullableTime(ep.LastConnection),
		formatTime(ep.CreatedAt), formatTime(ep.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("add endpoint %s: %w", ep.ID, driven.ErrEndpointExists)
		}
		return fmt.Errorf("add endpoint %s: %w", ep.ID, err)
	}

	const insertCategories = `INSERT INTO category_sets (endpoint_id, payload, updated_at) VALUES (?, '[]', ?)`
	if _, err := tx.ExecContext(ctx, insertCategories, ep.ID, formatTime(now)); err != nil {
		return fmt.Errorf("provision categories for endpoint %s: %w", ep.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add endpoint %s: %w", ep.ID, err)
	}
	return nil
}

// Update overwrites every stored field of the endpoint.
func (r *EndpointRepo) Update(ctx context.Context, ep model.Endpoint) error {
	secret, encrypted, err := r.box.seal(ep.Password)
	if err != nil {
		return fmt.Errorf("seal password for endpoint %s: %w", ep.ID, err)
	}

	const query = `UPDATE endpoints SET
		name = ?, description = ?, host = ?, port = ?, username = ?,
		secret = ?, secret_encrypted = ?, transport = ?, enabled = ?,
		status = ?, last_connection = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query,
		ep.Name, ep.Description, ep.Host, ep.Port, ep.Username,
		secret, boolToInt(encrypted), string(ep.Transport), boolToInt(ep.Enabled),
		string(ep.Status), nullableTime(ep.LastConnection), formatTime(ep.UpdatedAt),
		ep.ID,
	)
	if err != nil {
		return fmt.Errorf("update endpoint %s: %w", ep.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update endpoint %s: %w", ep.ID, driven.ErrEndpointNotFound)
	}
	return nil
}

// Delete removes the endpoint. Foreign key cascades remove its groups and
// category set in the same statement.
func (r *EndpointRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM endpoints WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete endpoint %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete endpoint %s: %w", id, driven.ErrEndpointNotFound)
	}
	return nil
}

// ListAll returns all endpoints in creation order.
func (r *EndpointRepo) ListAll(ctx context.Context) ([]model.Endpoint, error) {
	const query = `SELECT ` + endpointColumns + ` FROM endpoints ORDER BY created_at, id`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list endpoints: %w", err)
	}
	defer rows.Close()

	var endpoints []model.Endpoint
	for rows.Next() {
		ep, err := r.scanEndpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan endpoint: %w", err)
		}
		endpoints = append(endpoints, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate endpoints: %w", err)
	}

	return endpoints, nil
}

func (r *EndpointRepo) scanEndpoint(s scanner) (model.Endpoint, error) {
	var (
		ep                   model.Endpoint
		secret               string
		encrypted, enabled   int
		transport, status    string
		lastConnection       sql.NullString
		createdAt, updatedAt string
	)

	err := s.Scan(&ep.ID, &ep.Name, &ep.Description, &ep.Host, &ep.Port, &ep.Username,
		&secret, &encrypted, &transport, &enabled, &status, &lastConnection,
		&createdAt, &updatedAt)
	if err != nil {
		return model.Endpoint{}, err
	}

	ep.Password, err = r.box.open(secret, encrypted == 1)
	if err != nil {
		return model.Endpoint{}, fmt.Errorf("open password for endpoint %s: %w", ep.ID, err)
	}

	ep.Transport = model.TransportMode(transport)
	ep.Enabled = enabled == 1
	ep.Status = model.ConnectionStatus(status)

	if lastConnection.Valid {
		t, err := parseTime(lastConnection.String)
		if err != nil {
			return model.Endpoint{}, fmt.Errorf("parse last_connection: %w", err)
		}
		ep.LastConnection = &t
	}

	ep.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return model.Endpoint{}, fmt.Errorf("parse created_at: %w", err)
	}
	ep.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return model.Endpoint{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return ep, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
	"github.com/regolet/mikrotikmonitoring/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CategoryStore = (*CategoryRepo)(nil)

// CategoryRepo stores each endpoint's category list as one JSON document.
type CategoryRepo struct {
	db *DB
}

// NewCategoryRepo creates a new CategoryRepo backed by the given DB.
func NewCategoryRepo(db *DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

// Get returns the endpoint's categories, or an empty list if none are stored.
func (r *CategoryRepo) Get(ctx context.Context, endpointID string) ([]model.Category, error) {
	const query = `SELECT payload FROM category_sets WHERE endpoint_id = ?`

	var payload string
	err := r.db.Reader.QueryRowContext(ctx, query, endpointID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return []model.Category{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get categories for endpoint %s: %w", endpointID, err)
	}

	categories := []model.Category{}
	if err := json.Unmarshal([]byte(payload), &categories); err != nil {
		return nil, fmt.Errorf("decode categories for endpoint %s: %w", endpointID, err)
	}
	return categories, nil
}

// Replace stores categories as the endpoint's complete list.
func (r *CategoryRepo) Replace(ctx context.Context, endpointID string, categories []model.Category) error {
	if categories == nil {
		categories = []model.Category{}
	}
	payload, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}

	const query = `INSERT INTO category_sets (endpoint_id, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(endpoint_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`

	_, err = r.db.Writer.ExecContext(ctx, query, endpointID, string(payload), formatTime(time.Now()))
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("replace categories for endpoint %s: %w", endpointID, driven.ErrEndpointNotFound)
		}
		return fmt.Errorf("replace categories for endpoint %s: %w", endpointID, err)
	}
	return nil
}

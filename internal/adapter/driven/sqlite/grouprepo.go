package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
	"github.com/regolet/mikrotikmonitoring/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GroupStore = (*GroupRepo)(nil)

// GroupRepo is the SQLite implementation of the GroupStore port interface.
// Group names are unique per endpoint, compared case-insensitively.
type GroupRepo struct {
	db *DB
}

// NewGroupRepo creates a new GroupRepo backed by the given DB.
func NewGroupRepo(db *DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// ListByEndpoint returns the endpoint's groups ordered by name.
func (r *GroupRepo) ListByEndpoint(ctx context.Context, endpointID string) ([]model.Group, error) {
	const query = `SELECT id, endpoint_id, name, description, accounts, created_at, updated_at
		FROM account_groups WHERE endpoint_id = ? ORDER BY name`

	rows, err := r.db.Reader.QueryContext(ctx, query, endpointID)
	if err != nil {
		return nil, fmt.Errorf("list groups for endpoint %s: %w", endpointID, err)
	}
	defer rows.Close()

	groups := []model.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}

	return groups, nil
}

// Create inserts a group and returns it with its assigned ID.
func (r *GroupRepo) Create(ctx context.Context, group model.Group) (model.Group, error) {
	accounts, err := encodeAccounts(group.Accounts)
	if err != nil {
		return model.Group{}, err
	}

	now := time.Now().UTC()
	group.CreatedAt = now
	group.UpdatedAt = now

	const query = `INSERT INTO account_groups (endpoint_id, name, description, accounts, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	result, err := r.db.Writer.ExecContext(ctx, query,
		group.EndpointID, group.Name, group.Description, accounts,
		formatTime(now), formatTime(now),
	)
	if err != nil {
		return model.Group{}, fmt.Errorf("create group %q: %w", group.Name, groupWriteError(err))
	}

	group.ID, err = result.LastInsertId()
	if err != nil {
		return model.Group{}, fmt.Errorf("read group id: %w", err)
	}
	if group.Accounts == nil {
		group.Accounts = []string{}
	}
	return group, nil
}

// Update changes a group's name and description.
func (r *GroupRepo) Update(ctx context.Context, group model.Group) error {
	const query = `UPDATE account_groups SET name = ?, description = ?, updated_at = ?
		WHERE id = ? AND endpoint_id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query,
		group.Name, group.Description, formatTime(time.Now()), group.ID, group.EndpointID)
	if err != nil {
		return fmt.Errorf("update group %d: %w", group.ID, groupWriteError(err))
	}
	return requireAffected(result, fmt.Sprintf("update group %d", group.ID), driven.ErrGroupNotFound)
}

// SetAccounts replaces a group's member list.
func (r *GroupRepo) SetAccounts(ctx context.Context, endpointID string, groupID int64, accounts []string) error {
	payload, err := encodeAccounts(accounts)
	if err != nil {
		return err
	}

	const query = `UPDATE account_groups SET accounts = ?, updated_at = ? WHERE id = ? AND endpoint_id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, payload, formatTime(time.Now()), groupID, endpointID)
	if err != nil {
		return fmt.Errorf("set accounts for group %d: %w", groupID, err)
	}
	return requireAffected(result, fmt.Sprintf("set accounts for group %d", groupID), driven.ErrGroupNotFound)
}

// Delete removes a group.
func (r *GroupRepo) Delete(ctx context.Context, endpointID string, groupID int64) error {
	const query = `DELETE FROM account_groups WHERE id = ? AND endpoint_id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, groupID, endpointID)
	if err != nil {
		return fmt.Errorf("delete group %d: %w", groupID, err)
	}
	return requireAffected(result, fmt.Sprintf("delete group %d", groupID), driven.ErrGroupNotFound)
}

func scanGroup(s scanner) (model.Group, error) {
	var (
		g                    model.Group
		accounts             string
		createdAt, updatedAt string
	)

	if err := s.Scan(&g.ID, &g.EndpointID, &g.Name, &g.Description, &accounts, &createdAt, &updatedAt); err != nil {
		return model.Group{}, err
	}

	if err := json.Unmarshal([]byte(accounts), &g.Accounts); err != nil {
		return model.Group{}, fmt.Errorf("decode accounts of group %d: %w", g.ID, err)
	}
	if g.Accounts == nil {
		g.Accounts = []string{}
	}

	var err error
	g.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return model.Group{}, fmt.Errorf("parse created_at: %w", err)
	}
	g.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return model.Group{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return g, nil
}

func encodeAccounts(accounts []string) (string, error) {
	if accounts == nil {
		accounts = []string{}
	}
	data, err := json.Marshal(accounts)
	if err != nil {
		return "", fmt.Errorf("encode accounts: %w", err)
	}
	return string(data), nil
}

// groupWriteError maps constraint failures to port sentinels.
func groupWriteError(err error) error {
	switch {
	case isUniqueViolation(err):
		return driven.ErrGroupExists
	case isForeignKeyViolation(err):
		return driven.ErrEndpointNotFound
	default:
		return err
	}
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func requireAffected(result rowsAffecter, op string, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, notFound)
	}
	return nil
}

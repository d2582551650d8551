package driven

import (
	"context"
	"errors"

	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
)

var (
	// ErrGroupNotFound indicates the requested group does not exist.
	ErrGroupNotFound = errors.New("group not found")

	// ErrGroupExists indicates a group with the same name already exists
	// for the endpoint.
	ErrGroupExists = errors.New("group name already exists")
)

// GroupStore defines the driven port for endpoint-scoped group persistence.
type GroupStore interface {
	ListByEndpoint(ctx context.Context, endpointID string) ([]model.Group, error)
	Create(ctx context.Context, group model.Group) (model.Group, error)
	Update(ctx context.Context, group model.Group) error
	SetAccounts(ctx context.Context, endpointID string, groupID int64, accounts []string) error
	Delete(ctx context.Context, endpointID string, groupID int64) error
}

// CategoryStore defines the driven port for per-endpoint category lists.
// Get returns an empty list when nothing has been stored.
type CategoryStore interface {
	Get(ctx context.Context, endpointID string) ([]model.Category, error)
	Replace(ctx context.Context, endpointID string, categories []model.Category) error
}

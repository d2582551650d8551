package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
	"github.com/regolet/mikrotikmonitoring/internal/domain/port/driven"
)

// ErrInvalidGroup is returned for a group or category without a name.
var ErrInvalidGroup = errors.New("invalid group")

// GroupService manages endpoint-scoped account groups and categories.
type GroupService struct {
	registry   *Registry
	groups     driven.GroupStore
	categories driven.CategoryStore
}

// NewGroupService creates a GroupService.
func NewGroupService(registry *Registry, groups driven.GroupStore, categories driven.CategoryStore) *GroupService {
	return &GroupService{registry: registry, groups: groups, categories: categories}
}

// List returns the endpoint's groups.
func (s *GroupService) List(ctx context.Context, endpointID string) ([]model.Group, error) {
	if err := s.requireEndpoint(endpointID); err != nil {
		return nil, err
	}
	return s.groups.ListByEndpoint(ctx, endpointID)
}

// Create adds a group. Member names are trimmed and de-duplicated.
func (s *GroupService) Create(ctx context.Context, endpointID, name, description string, accounts []string) (model.Group, error) {
	if err := s.requireEndpoint(endpointID); err != nil {
		return model.Group{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Group{}, fmt.Errorf("%w: group name is required", ErrInvalidGroup)
	}

	g, err := s.groups.Create(ctx, model.Group{
		EndpointID:  endpointID,
		Name:        name,
		Description: strings.TrimSpace(description),
		Accounts:    normalizeMembers(accounts),
	})
	if err != nil {
		return model.Group{}, err
	}

	slog.Info("group created", "endpoint", endpointID, "group", g.ID, "name", g.Name)
	return g, nil
}

// Rename changes a group's name and description.
func (s *GroupService) Rename(ctx context.Context, endpointID string, groupID int64, name, description string) error {
	if err := s.requireEndpoint(endpointID); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: group name is required", ErrInvalidGroup)
	}

	return s.groups.Update(ctx, model.Group{
		ID:          groupID,
		EndpointID:  endpointID,
		Name:        name,
		Description: strings.TrimSpace(description),
	})
}

// SetMembers replaces a group's account list.
func (s *GroupService) SetMembers(ctx context.Context, endpointID string, groupID int64, accounts []string) error {
	if err := s.requireEndpoint(endpointID); err != nil {
		return err
	}
	return s.groups.SetAccounts(ctx, endpointID, groupID, normalizeMembers(accounts))
}

// Delete removes a group.
func (s *GroupService) Delete(ctx context.Context, endpointID string, groupID int64) error {
	if err := s.requireEndpoint(endpointID); err != nil {
		return err
	}
	if err := s.groups.Delete(ctx, endpointID, groupID); err != nil {
		return err
	}

	slog.Info("group deleted", "endpoint", endpointID, "group", groupID)
	return nil
}

// Categories returns the endpoint's categories.
func (s *GroupService) Categories(ctx context.Context, endpointID string) ([]model.Category, error) {
	if err := s.requireEndpoint(endpointID); err != nil {
		return nil, err
	}
	return s.categories.Get(ctx, endpointID)
}

// ReplaceCategories stores categories as the endpoint's complete list.
func (s *GroupService) ReplaceCategories(ctx context.Context, endpointID string, categories []model.Category) error {
	if err := s.requireEndpoint(endpointID); err != nil {
		return err
	}

	cleaned := make([]model.Category, 0, len(categories))
	for _, c := range categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("%w: category name is required", ErrInvalidGroup)
		}
		cleaned = append(cleaned, model.Category{Name: name, Groups: normalizeMembers(c.Groups)})
	}

	return s.categories.Replace(ctx, endpointID, cleaned)
}

func (s *GroupService) requireEndpoint(id string) error {
	if _, ok := s.registry.Get(id); !ok {
		return fmt.Errorf("endpoint %s: %w", id, driven.ErrEndpointNotFound)
	}
	return nil
}

// normalizeMembers trims names, drops blanks and keeps the first of any
// duplicates.
func normalizeMembers(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

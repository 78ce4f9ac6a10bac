package auth

import (
	"context"
	"errors"
	"fmt"
)

// Resolver computes effective access for a (user, action, entity)
// triple. It reads current persisted state on every call; permissions
// can change between calls so nothing is cached.
type Resolver struct {
	store Store
}

// NewResolver constructs a permission resolver.
func NewResolver(store Store) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	return &Resolver{store: store}, nil
}

// Can reports whether the user may perform the named action on the
// given entity. Resolution order, first decisive match wins:
//
//  1. an IndividualPermission row for exactly this (user, action,
//     entity); its IsAllowed flag is authoritative either way;
//  2. a RoleAction grant for the user's role, which allows;
//  3. default deny.
//
// An unknown action name or entity type denies; only infrastructure
// failures surface as errors.
func (r *Resolver) Can(ctx context.Context, userID int64, actionName, entityType string, entityID int64) (bool, error) {
	if userID <= 0 || actionName == "" || entityType == "" {
		return false, fmt.Errorf("%w: user, action and entity type are required", ErrInvalidInput)
	}

	action, err := r.store.Roles().FindActionByName(ctx, actionName, entityType)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	override, err := r.store.Permissions().FindIndividual(ctx, userID, action.ID, entityID, entityType)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if override != nil {
		return override.IsAllowed, nil
	}

	user, err := r.store.Users().FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return r.store.Roles().HasRoleAction(ctx, user.RoleID, action.ID)
}

// Require is Can for callers that treat denial as an error.
func (r *Resolver) Require(ctx context.Context, userID int64, actionName, entityType string, entityID int64) error {
	allowed, err := r.Can(ctx, userID, actionName, entityType, entityID)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrPermissionDenied
	}
	return nil
}

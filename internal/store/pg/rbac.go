package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/NassaQ/server/internal/auth"
)

type roleStore struct{ db *sql.DB }

func (s *roleStore) Find(ctx context.Context, id int64) (*auth.Role, error) {
	var role auth.Role
	err := s.db.QueryRowContext(ctx, `
		select role_id, role_name, coalesce(description, '')
		from roles where role_id = $1
	`, id).Scan(&role.ID, &role.Name, &role.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (s *roleStore) FindActionByName(ctx context.Context, name, entityType string) (*auth.Action, error) {
	var action auth.Action
	err := s.db.QueryRowContext(ctx, `
		select action_id, action_name, entity_type
		from actions where action_name = $1 and entity_type = $2
	`, name, entityType).Scan(&action.ID, &action.Name, &action.EntityType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &action, nil
}

func (s *roleStore) HasRoleAction(ctx context.Context, roleID, actionID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		select 1 from role_actions where role_id = $1 and action_id = $2
	`, roleID, actionID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type permissionStore struct{ db *sql.DB }

func (s *permissionStore) FindIndividual(ctx context.Context, userID, actionID, entityID int64, entityType string) (*auth.IndividualPermission, error) {
	var p auth.IndividualPermission
	err := s.db.QueryRowContext(ctx, `
		select permission_id, user_id, action_id, entity_id, entity_type, is_allowed, is_inherited
		from individual_permissions
		where user_id = $1 and action_id = $2 and entity_id = $3 and entity_type = $4
	`, userID, actionID, entityID, entityType).Scan(
		&p.ID, &p.UserID, &p.ActionID, &p.EntityID, &p.EntityType, &p.IsAllowed, &p.IsInherited,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *permissionStore) Grant(ctx context.Context, p *auth.IndividualPermission) error {
	err := s.db.QueryRowContext(ctx, `
		insert into individual_permissions (user_id, action_id, entity_id, entity_type, is_allowed, is_inherited)
		values ($1, $2, $3, $4, $5, $6)
		on conflict (user_id, action_id, entity_id, entity_type)
		do update set is_allowed = excluded.is_allowed, is_inherited = excluded.is_inherited
		returning permission_id
	`, p.UserID, p.ActionID, p.EntityID, p.EntityType, p.IsAllowed, p.IsInherited).Scan(&p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return auth.ErrConflict
		}
		return err
	}
	return nil
}

func (s *permissionStore) Revoke(ctx context.Context, permissionID int64) error {
	res, err := s.db.ExecContext(ctx, `
		delete from individual_permissions where permission_id = $1
	`, permissionID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auth.ErrNotFound
	}
	return nil
}

package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/NassaQ/server/internal/auth"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return NewStore(db), mock
}

func TestUserCreate(t *testing.T) {
	store, mock := newMock(t)
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("insert into users").
		WithArgs("alice", "alice@corp.io", "hash", int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "created_at"}).AddRow(int64(7), created))

	u := &auth.User{Username: "alice", Email: "alice@corp.io", PasswordHash: "hash", RoleID: 2}
	if err := store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID != 7 || !u.CreatedAt.Equal(created) {
		t.Errorf("user = %+v", u)
	}
}

func TestUserCreateUniqueViolation(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("insert into users").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "users_email_key"})

	u := &auth.User{Username: "alice", Email: "alice@corp.io", PasswordHash: "hash", RoleID: 2}
	if err := store.Users().Create(context.Background(), u); !errors.Is(err, auth.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestUserFindByEmail(t *testing.T) {
	store, mock := newMock(t)
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	cols := []string{"user_id", "username", "email", "password_hash", "role_id", "created_at"}
	mock.ExpectQuery("select user_id, username, email, password_hash, role_id, created_at").
		WithArgs("alice@corp.io").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(7), "alice", "alice@corp.io", "hash", int64(2), created))

	u, err := store.Users().FindByEmail(context.Background(), "alice@corp.io")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if u.ID != 7 || u.Username != "alice" || u.RoleID != 2 {
		t.Errorf("user = %+v", u)
	}
}

func TestUserFindByIDNotFound(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("select user_id, username, email, password_hash, role_id, created_at").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	if _, err := store.Users().FindByID(context.Background(), 99); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestEmailExists(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("select 1 from users where email").
		WithArgs("alice@corp.io").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery("select 1 from users where email").
		WithArgs("nobody@corp.io").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := store.Users().EmailExists(context.Background(), "alice@corp.io")
	if err != nil || !exists {
		t.Fatalf("EmailExists = %v, %v", exists, err)
	}
	exists, err = store.Users().EmailExists(context.Background(), "nobody@corp.io")
	if err != nil || exists {
		t.Fatalf("EmailExists(absent) = %v, %v", exists, err)
	}
}

func TestRoleFind(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("select role_id, role_name").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"role_id", "role_name", "coalesce"}).AddRow(int64(2), "editor", ""))

	role, err := store.Roles().Find(context.Background(), 2)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if role.Name != "editor" || role.Description != "" {
		t.Errorf("role = %+v", role)
	}
}

func TestFindActionByName(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("select action_id, action_name, entity_type").
		WithArgs("document:read", "Document").
		WillReturnRows(sqlmock.NewRows([]string{"action_id", "action_name", "entity_type"}).
			AddRow(int64(10), "document:read", "Document"))

	action, err := store.Roles().FindActionByName(context.Background(), "document:read", "Document")
	if err != nil {
		t.Fatalf("FindActionByName: %v", err)
	}
	if action.ID != 10 {
		t.Errorf("action = %+v", action)
	}

	mock.ExpectQuery("select action_id, action_name, entity_type").
		WithArgs("document:teleport", "Document").
		WillReturnRows(sqlmock.NewRows([]string{"action_id"}))

	if _, err := store.Roles().FindActionByName(context.Background(), "document:teleport", "Document"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestHasRoleAction(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("select 1 from role_actions").
		WithArgs(int64(2), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery("select 1 from role_actions").
		WithArgs(int64(3), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	ok, err := store.Roles().HasRoleAction(context.Background(), 2, 10)
	if err != nil || !ok {
		t.Fatalf("HasRoleAction = %v, %v", ok, err)
	}
	ok, err = store.Roles().HasRoleAction(context.Background(), 3, 10)
	if err != nil || ok {
		t.Fatalf("HasRoleAction(absent) = %v, %v", ok, err)
	}
}

func TestFindIndividual(t *testing.T) {
	store, mock := newMock(t)

	cols := []string{"permission_id", "user_id", "action_id", "entity_id", "entity_type", "is_allowed", "is_inherited"}
	mock.ExpectQuery("select permission_id, user_id, action_id").
		WithArgs(int64(7), int64(10), int64(55), "Document").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(1), int64(7), int64(10), int64(55), "Document", false, false))

	p, err := store.Permissions().FindIndividual(context.Background(), 7, 10, 55, "Document")
	if err != nil {
		t.Fatalf("FindIndividual: %v", err)
	}
	if p.IsAllowed {
		t.Error("expected deny override")
	}
}

func TestGrantUpserts(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("insert into individual_permissions").
		WithArgs(int64(7), int64(10), int64(55), "Document", true, false).
		WillReturnRows(sqlmock.NewRows([]string{"permission_id"}).AddRow(int64(3)))

	p := &auth.IndividualPermission{UserID: 7, ActionID: 10, EntityID: 55, EntityType: "Document", IsAllowed: true}
	if err := store.Permissions().Grant(context.Background(), p); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if p.ID != 3 {
		t.Errorf("permission id = %d, want 3", p.ID)
	}
}

func TestRevoke(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("delete from individual_permissions").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("delete from individual_permissions").
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Permissions().Revoke(context.Background(), 3); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := store.Permissions().Revoke(context.Background(), 99); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestAuditAppend(t *testing.T) {
	store, mock := newMock(t)
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	userID := int64(7)

	mock.ExpectQuery("insert into logs").
		WithArgs(ts, "user.login", userID, nil, "").
		WillReturnRows(sqlmock.NewRows([]string{"log_id"}).AddRow(int64(100)))

	entry := &auth.AuditEntry{Timestamp: ts, ActionType: "user.login", UserID: &userID}
	if err := store.Audit().Append(context.Background(), entry); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if entry.ID != 100 {
		t.Errorf("log id = %d, want 100", entry.ID)
	}
}

func TestAuditListRecent(t *testing.T) {
	store, mock := newMock(t)
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	cols := []string{"log_id", "log_timestamp", "action_type", "user_id", "entity_id", "coalesce"}
	mock.ExpectQuery("select log_id, log_timestamp, action_type").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(2), ts, "user.login", int64(7), nil, "").
			AddRow(int64(1), ts, "user.registered", nil, nil, "email=a@b.com"))

	entries, err := store.Audit().ListRecent(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	if entries[0].UserID == nil || *entries[0].UserID != 7 {
		t.Errorf("entry[0].UserID = %v", entries[0].UserID)
	}
	if entries[1].UserID != nil {
		t.Errorf("entry[1].UserID = %v, want nil", entries[1].UserID)
	}
	if entries[1].Details != "email=a@b.com" {
		t.Errorf("details = %q", entries[1].Details)
	}
}

package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/otpauth/internal/server/repositories/blacklist"
	"github.com/dmitrijs2005/otpauth/internal/server/repositories/loginactivities"
	"github.com/dmitrijs2005/otpauth/internal/server/repositories/otps"
	"github.com/dmitrijs2005/otpauth/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNewPostgresRepositoryManager_ReturnsInterface(t *testing.T) {
	if m := NewPostgresRepositoryManager(); m == nil {
		t.Fatal("NewPostgresRepositoryManager() nil")
	}
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := &PostgresRepositoryManager{}

	if u := m.Users(db); u == nil {
		t.Fatal("Users() nil")
	}
	if o := m.PasswordResetOTPs(db); o == nil {
		t.Fatal("PasswordResetOTPs() nil")
	}
	if la := m.LoginActivities(db); la == nil {
		t.Fatal("LoginActivities() nil")
	}
	if bl := m.Blacklist(db); bl == nil {
		t.Fatal("Blacklist() nil")
	}

	var _ *users.PostgresRepository = m.Users(db).(*users.PostgresRepository)
	var _ *otps.PostgresRepository = m.PasswordResetOTPs(db).(*otps.PostgresRepository)
	var _ *loginactivities.PostgresRepository = m.LoginActivities(db).(*loginactivities.PostgresRepository)
	var _ *blacklist.PostgresStore = m.Blacklist(db).(*blacklist.PostgresStore)
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/otpauth/internal/dbx"
	"github.com/dmitrijs2005/otpauth/internal/server/repositories/blacklist"
	"github.com/dmitrijs2005/otpauth/internal/server/repositories/loginactivities"
	"github.com/dmitrijs2005/otpauth/internal/server/repositories/otps"
	"github.com/dmitrijs2005/otpauth/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// runs against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	PasswordResetOTPs(db dbx.DBTX) otps.Repository
	LoginActivities(db dbx.DBTX) loginactivities.Repository
	Blacklist(db dbx.DBTX) blacklist.Store
}

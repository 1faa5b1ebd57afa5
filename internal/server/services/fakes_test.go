package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/otpauth/internal/common"
	"github.com/dmitrijs2005/otpauth/internal/dbx"
	"github.com/dmitrijs2005/otpauth/internal/logging"
	"github.com/dmitrijs2005/otpauth/internal/server/auth"
	"github.com/dmitrijs2005/otpauth/internal/server/config"
	"github.com/dmitrijs2005/otpauth/internal/server/geo"
	"github.com/dmitrijs2005/otpauth/internal/server/models"
	"github.com/dmitrijs2005/otpauth/internal/server/repositories/blacklist"
	"github.com/dmitrijs2005/otpauth/internal/server/repositories/loginactivities"
	"github.com/dmitrijs2005/otpauth/internal/server/repositories/otps"
	"github.com/dmitrijs2005/otpauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/otpauth/internal/server/security"
)

var errBoom = errors.New("boom")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

// --- users ---

type fakeUsersRepo struct {
	mu     sync.Mutex
	byID   map[string]*models.User
	seq    int
	getErr error
	setErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}}
}

func (f *fakeUsersRepo) copyOf(u *models.User) *models.User {
	c := *u
	return &c
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	f.seq++
	c := f.copyOf(u)
	c.ID = fmt.Sprintf("user-%d", f.seq)
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	f.byID[c.ID] = c
	return f.copyOf(c), nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			return f.copyOf(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return f.copyOf(u), nil
}

func (f *fakeUsersRepo) List(ctx context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.User, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, f.copyOf(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsersRepo) SetOTP(ctx context.Context, id string, code string, issuedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.OTP = &code
	u.OTPCreatedAt = &issuedAt
	return nil
}

func (f *fakeUsersRepo) ClearOTP(ctx context.Context, id string, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok || u.OTP == nil || *u.OTP != code {
		return common.ErrorNotFound
	}
	u.OTP = nil
	u.OTPCreatedAt = nil
	return nil
}

func (f *fakeUsersRepo) UpdateProfile(ctx context.Context, id string, fullName string, phone *string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.FullName = fullName
	u.Phone = phone
	return f.copyOf(u), nil
}

func (f *fakeUsersRepo) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUsersRepo) SetProfileImage(ctx context.Context, id string, key *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.ProfileImage = key
	return nil
}

// --- password reset otps ---

type fakeOTPRepo struct {
	mu   sync.Mutex
	rows []*models.PasswordResetOTP
}

func (f *fakeOTPRepo) Create(ctx context.Context, otp *models.PasswordResetOTP) (*models.PasswordResetOTP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *otp
	c.ID = fmt.Sprintf("otp-%d", len(f.rows)+1)
	f.rows = append(f.rows, &c)
	out := c
	return &out, nil
}

func (f *fakeOTPRepo) FindLatestActive(ctx context.Context, email string, now time.Time) (*models.PasswordResetOTP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.rows) - 1; i >= 0; i-- {
		o := f.rows[i]
		if o.Email == email && o.Valid(now) {
			c := *o
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeOTPRepo) GetByID(ctx context.Context, id string) (*models.PasswordResetOTP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.rows {
		if o.ID == id {
			c := *o
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeOTPRepo) MarkUsed(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.rows {
		if o.ID == id && !o.Used {
			o.Used = true
			return nil
		}
	}
	return common.ErrorNotFound
}

// --- login activities ---

type fakeActivityRepo struct {
	mu        sync.Mutex
	rows      []*models.LoginActivity
	createErr error
}

func (f *fakeActivityRepo) Create(ctx context.Context, a *models.LoginActivity) (*models.LoginActivity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	c := *a
	c.ID = fmt.Sprintf("act-%d", len(f.rows)+1)
	f.rows = append(f.rows, &c)
	return &c, nil
}

func (f *fakeActivityRepo) ListByUser(ctx context.Context, userID string) ([]*models.LoginActivity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.LoginActivity{}
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].UserID == userID {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

// --- blacklist ---

type fakeBlacklist struct {
	mu   sync.Mutex
	jtis map[string]bool
}

func (f *fakeBlacklist) Add(ctx context.Context, token *models.BlacklistedToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.jtis == nil {
		f.jtis = map[string]bool{}
	}
	if f.jtis[token.JTI] {
		return common.ErrorAlreadyExists
	}
	f.jtis[token.JTI] = true
	return nil
}

func (f *fakeBlacklist) Contains(ctx context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jtis[jti], nil
}

// --- manager ---

type fakeRepoManager struct {
	users      *fakeUsersRepo
	otps       *fakeOTPRepo
	activities *fakeActivityRepo
	blacklist  *fakeBlacklist
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:      newFakeUsersRepo(),
		otps:       &fakeOTPRepo{},
		activities: &fakeActivityRepo{},
		blacklist:  &fakeBlacklist{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error           { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                     { return m.users }
func (m *fakeRepoManager) PasswordResetOTPs(db dbx.DBTX) otps.Repository          { return m.otps }
func (m *fakeRepoManager) LoginActivities(db dbx.DBTX) loginactivities.Repository { return m.activities }
func (m *fakeRepoManager) Blacklist(db dbx.DBTX) blacklist.Store                  { return m.blacklist }

// --- collaborators ---

type sentCode struct {
	kind  string
	email string
	code  string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (n *fakeNotifier) SendLoginOTP(ctx context.Context, email, code string) error {
	return n.record("login", email, code)
}

func (n *fakeNotifier) SendPasswordResetOTP(ctx context.Context, email, code string) error {
	return n.record("reset", email, code)
}

func (n *fakeNotifier) record(kind, email, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentCode{kind: kind, email: email, code: code})
	return nil
}

func (n *fakeNotifier) last(t *testing.T) sentCode {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		t.Fatalf("no code was sent")
	}
	return n.sent[len(n.sent)-1]
}

type fakeGeo struct {
	loc   geo.Location
	calls []string
}

func (g *fakeGeo) Locate(ctx context.Context, ip string) geo.Location {
	g.calls = append(g.calls, ip)
	return g.loc
}

// --- fixture ---

type authFixture struct {
	svc      *AuthService
	mock     sqlmock.Sqlmock
	rm       *fakeRepoManager
	notifier *fakeNotifier
	geo      *fakeGeo
	tokens   *auth.TokenAuthority
	now      time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db, mock := newSQLMockDB(t)
	rm := newFakeRepoManager()
	cfg := &config.Config{
		SecretKey:                    "test-secret",
		AccessTokenValidityDuration:  5 * time.Minute,
		RefreshTokenValidityDuration: 24 * time.Hour,
		OTPValidityDuration:          10 * time.Minute,
	}
	tokens := auth.NewTokenAuthority([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration,
		cfg.RefreshTokenValidityDuration, rm.blacklist)
	n := &fakeNotifier{}
	g := &fakeGeo{}

	f := &authFixture{
		mock:     mock,
		rm:       rm,
		notifier: n,
		geo:      g,
		tokens:   tokens,
		now:      time.Now(),
	}
	f.svc = NewAuthService(db, rm, security.NewBcryptHasher(4), tokens, n, g, discardLogger(), cfg)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *authFixture) register(t *testing.T, email, password string) *models.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), RegisterParams{Email: email, Password: password, FullName: "Test User"})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	return u
}

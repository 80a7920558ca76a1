package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"festivalscheduling/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRoleRepo implements domain.RoleRepository for tests.
type fakeRoleRepo struct {
	byCode    map[string]*domain.Role
	listByUID map[string][]*domain.Role
	getErr    error
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{
		byCode:    map[string]*domain.Role{domain.RoleOrganizer: {ID: "role-1", Code: domain.RoleOrganizer}},
		listByUID: make(map[string][]*domain.Role),
	}
}

func (f *fakeRoleRepo) GetByCode(ctx context.Context, code string) (*domain.Role, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if r, ok := f.byCode[code]; ok {
		return r, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRoleRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Role, error) {
	return f.listByUID[userID], nil
}

// fakeTokenIssuer implements domain.TokenIssuer for tests.
type fakeTokenIssuer struct {
	token string
	err   error
	roles []string
}

func (f *fakeTokenIssuer) Issue(userID, email string, roles []string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.roles = roles
	if f.token != "" {
		return f.token, nil
	}
	return "token-" + userID, nil
}

// fakeUserRepo implements domain.UserRepository for tests.
type fakeUserRepo struct {
	byID      map[string]*domain.User
	byEmail   map[string]*domain.User
	roles     map[string][]string
	roleRepo  *fakeRoleRepo
	getErr    error
	updateErr error
}

func newFakeUserRepo(roleRepo *fakeRoleRepo) *fakeUserRepo {
	return &fakeUserRepo{
		byID:     make(map[string]*domain.User),
		byEmail:  make(map[string]*domain.User),
		roles:    make(map[string][]string),
		roleRepo: roleRepo,
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	u.ID = "created-1"
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, u *domain.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.byID[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserRepo) AssignRole(ctx context.Context, userID, roleID string) error {
	for _, r := range f.roleRepo.byCode {
		if r.ID == roleID {
			f.roleRepo.listByUID[userID] = append(f.roleRepo.listByUID[userID], r)
		}
	}
	return nil
}

// fakeLoginCodeRepo keeps one pending code per email.
type fakeLoginCodeRepo struct {
	codes map[string]string
	exp   map[string]time.Time
}

func newFakeLoginCodeRepo() *fakeLoginCodeRepo {
	return &fakeLoginCodeRepo{codes: make(map[string]string), exp: make(map[string]time.Time)}
}

func (f *fakeLoginCodeRepo) Create(ctx context.Context, email, codeHash string, expiresAt time.Time) error {
	f.codes[email] = codeHash
	f.exp[email] = expiresAt
	return nil
}

func (f *fakeLoginCodeRepo) Consume(ctx context.Context, email, codeHash string) (bool, error) {
	if f.codes[email] != codeHash || time.Now().After(f.exp[email]) {
		return false, nil
	}
	delete(f.codes, email)
	return true, nil
}

type userFixture struct {
	users  *fakeUserRepo
	roles  *fakeRoleRepo
	codes  *fakeLoginCodeRepo
	issuer *fakeTokenIssuer
	email  *fakeEmailService
	svc    domain.UserService
}

func newUserFixture() *userFixture {
	f := &userFixture{
		roles:  newFakeRoleRepo(),
		codes:  newFakeLoginCodeRepo(),
		issuer: &fakeTokenIssuer{},
		email:  &fakeEmailService{},
	}
	f.users = newFakeUserRepo(f.roles)
	f.svc = NewUserService(f.users, f.roles, f.codes, f.issuer, time.Hour, f.email)
	return f
}

func TestUserService_LoginCodeFlow_NewOrganizer(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture()

	require.NoError(t, f.svc.RequestLoginCode(ctx, " Ana@Example.com "))
	require.Len(t, f.email.loginCodes, 1)
	sent := f.email.loginCodes[0]
	assert.Equal(t, "ana@example.com", sent.Email)
	assert.Len(t, sent.Code, loginCodeDigits)
	assert.Equal(t, loginCodeExpiryMins, sent.ExpiresInMinutes)
	assert.Equal(t, hashLoginCode(sent.Code), f.codes.codes["ana@example.com"])

	token, user, err := f.svc.VerifyLoginCode(ctx, "ana@example.com", sent.Code)
	require.NoError(t, err)
	assert.Equal(t, "token-created-1", token)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, []string{domain.RoleOrganizer}, f.issuer.roles)

	_, _, err = f.svc.VerifyLoginCode(ctx, "ana@example.com", sent.Code)
	assert.ErrorIs(t, err, domain.ErrInvalidLoginCode)
}

func TestUserService_VerifyLoginCode(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		email   string
		code    string
		setup   func(f *userFixture)
		wantErr error
	}{
		{
			name:  "existing user",
			email: "luis@example.com",
			code:  "123456",
			setup: func(f *userFixture) {
				u := &domain.User{ID: "u1", Email: "luis@example.com"}
				f.users.byID["u1"] = u
				f.users.byEmail["luis@example.com"] = u
				f.codes.codes["luis@example.com"] = hashLoginCode("123456")
				f.codes.exp["luis@example.com"] = time.Now().Add(time.Minute)
			},
		},
		{
			name:    "invalid email",
			email:   "nope",
			code:    "123456",
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "malformed code",
			email:   "luis@example.com",
			code:    "12ab",
			wantErr: domain.ErrInvalidLoginCode,
		},
		{
			name:  "expired code",
			email: "luis@example.com",
			code:  "123456",
			setup: func(f *userFixture) {
				f.codes.codes["luis@example.com"] = hashLoginCode("123456")
				f.codes.exp["luis@example.com"] = time.Now().Add(-time.Minute)
			},
			wantErr: domain.ErrInvalidLoginCode,
		},
		{
			name:  "wrong code",
			email: "luis@example.com",
			code:  "654321",
			setup: func(f *userFixture) {
				f.codes.codes["luis@example.com"] = hashLoginCode("123456")
				f.codes.exp["luis@example.com"] = time.Now().Add(time.Minute)
			},
			wantErr: domain.ErrInvalidLoginCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUserFixture()
			if tt.setup != nil {
				tt.setup(f)
			}
			token, user, err := f.svc.VerifyLoginCode(ctx, tt.email, tt.code)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "token-u1", token)
			assert.Equal(t, "u1", user.ID)
		})
	}
}

func TestUserService_RequestLoginCode_Errors(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture()

	assert.ErrorIs(t, f.svc.RequestLoginCode(ctx, "not-an-email"), domain.ErrInvalidInput)

	f.email.err = errors.New("ses down")
	err := f.svc.RequestLoginCode(ctx, "ana@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send login code email")
}

func TestUserService_GetByID(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		id       string
		setup    func(*fakeUserRepo)
		wantUser *domain.User
		wantErr  error
	}{
		{
			name: "success",
			id:   "user-1",
			setup: func(f *fakeUserRepo) {
				f.byID["user-1"] = &domain.User{ID: "user-1", Email: "a@b.com", Name: "Alice"}
			},
			wantUser: &domain.User{ID: "user-1", Email: "a@b.com", Name: "Alice"},
		},
		{
			name:    "not found",
			id:      "missing",
			setup:   func(f *fakeUserRepo) {},
			wantErr: domain.ErrUserNotFound,
		},
		{
			name:  "repo error",
			id:    "user-1",
			setup: func(f *fakeUserRepo) { f.getErr = sql.ErrConnDone },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUserFixture()
			tt.setup(f.users)

			user, err := f.svc.GetByID(ctx, tt.id)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}
			if tt.wantUser != nil {
				require.NoError(t, err)
				assert.Equal(t, tt.wantUser.ID, user.ID)
				assert.Equal(t, tt.wantUser.Name, user.Name)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, sql.ErrConnDone)
			assert.NotErrorIs(t, err, domain.ErrUserNotFound)
		})
	}
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture()
	f.users.byID["user-1"] = &domain.User{ID: "user-1", Email: "a@b.com", Name: "Alice"}

	user := &domain.User{ID: "user-1", Name: "  Alice  ", LastName: " Smith "}
	require.NoError(t, f.svc.Update(ctx, user))
	assert.Equal(t, "Alice", f.users.byID["user-1"].Name)
	assert.Equal(t, "Smith", f.users.byID["user-1"].LastName)
	assert.False(t, user.UpdatedAt.IsZero())

	err := f.svc.Update(ctx, &domain.User{ID: "missing"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	f.users.updateErr = errors.New("db down")
	err = f.svc.Update(ctx, &domain.User{ID: "user-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update user")
}

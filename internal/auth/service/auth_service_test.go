package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ocastrobeltran/gestio-qa-backend/internal/auth/domain"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/auth/repository"
)

var userCols = []string{"id", "full_name", "email", "password_hash", "role", "created_at", "updated_at"}

func setupAuthService(t *testing.T) (*AuthService, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	svc := NewAuthService(repository.NewUserRepository(db), "test-secret", time.Hour)
	return svc, mock, db
}

func userRow(t *testing.T, id int64, email, password, role string) *sqlmock.Rows {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	now := time.Now()
	return sqlmock.NewRows(userCols).AddRow(id, "Ana Pérez", email, string(hash), role, now, now)
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials return user and token", func(t *testing.T) {
		svc, mock, db := setupAuthService(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs("ana@acme.com").
			WillReturnRows(userRow(t, 1, "ana@acme.com", "s3cretpass", domain.RoleAnalyst))

		user, token, err := svc.Login(context.Background(), "ana@acme.com", "s3cretpass")
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
		assert.NotEmpty(t, token)

		claims, err := svc.ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, int64(1), claims.UserID)
		assert.Equal(t, domain.RoleAnalyst, claims.Role)
	})

	t.Run("wrong password yields bad credentials", func(t *testing.T) {
		svc, mock, db := setupAuthService(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs("ana@acme.com").
			WillReturnRows(userRow(t, 1, "ana@acme.com", "s3cretpass", domain.RoleAnalyst))

		_, _, err := svc.Login(context.Background(), "ana@acme.com", "wrong")
		assert.ErrorIs(t, err, domain.ErrBadCredentials)
	})

	t.Run("unknown email yields the same error as wrong password", func(t *testing.T) {
		svc, mock, db := setupAuthService(t)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs("nadie@acme.com").
			WillReturnError(sql.ErrNoRows)

		_, _, err := svc.Login(context.Background(), "nadie@acme.com", "whatever")
		assert.ErrorIs(t, err, domain.ErrBadCredentials)
	})
}

func TestRegister(t *testing.T) {
	t.Run("defaults role to stakeholder", func(t *testing.T) {
		svc, mock, db := setupAuthService(t)
		defer db.Close()

		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("Ana Pérez", "ana@acme.com", sqlmock.AnyArg(), domain.RoleStakeholder).
			WillReturnRows(userRow(t, 2, "ana@acme.com", "irrelevant", domain.RoleStakeholder))

		user, err := svc.Register(context.Background(), domain.RoleAdmin, "Ana Pérez", "ana@acme.com", "s3cretpass", "")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleStakeholder, user.Role)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("only admins may mint admins", func(t *testing.T) {
		svc, mock, db := setupAuthService(t)
		defer db.Close()

		_, err := svc.Register(context.Background(), domain.RoleAnalyst, "Eve", "eve@acme.com", "s3cretpass", domain.RoleAdmin)
		assert.ErrorIs(t, err, domain.ErrAdminOnlyRole)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stored password is a bcrypt hash, not the input", func(t *testing.T) {
		svc, mock, db := setupAuthService(t)
		defer db.Close()

		var stored string
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("Ana", "ana@acme.com", hashCaptor{&stored}, domain.RoleAnalyst).
			WillReturnRows(userRow(t, 3, "ana@acme.com", "irrelevant", domain.RoleAnalyst))

		_, err := svc.Register(context.Background(), domain.RoleAdmin, "Ana", "ana@acme.com", "s3cretpass", domain.RoleAnalyst)
		require.NoError(t, err)
		assert.NotEqual(t, "s3cretpass", stored)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte("s3cretpass")))
	})
}

// hashCaptor matches any string argument and keeps it for inspection.
type hashCaptor struct{ dst *string }

func (h hashCaptor) Match(v driver.Value) bool {
	s, ok := v.(string)
	if ok {
		*h.dst = s
	}
	return ok
}

func TestParseToken(t *testing.T) {
	t.Run("garbage is invalid", func(t *testing.T) {
		svc, _, db := setupAuthService(t)
		defer db.Close()

		_, err := svc.ParseToken("not.a.token")
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	})

	t.Run("expired token is reported as expired", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		svc := NewAuthService(repository.NewUserRepository(db), "test-secret", -time.Minute)
		token, err := svc.SignToken(&domain.User{ID: 1, Role: domain.RoleAdmin})
		require.NoError(t, err)

		_, err = svc.ParseToken(token)
		assert.ErrorIs(t, err, domain.ErrTokenExpired)
	})

	t.Run("token signed with another secret is rejected", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		other := NewAuthService(repository.NewUserRepository(db), "other-secret", time.Hour)
		token, err := other.SignToken(&domain.User{ID: 1, Role: domain.RoleAdmin})
		require.NoError(t, err)

		svc, _, db2 := setupAuthService(t)
		defer db2.Close()

		_, err = svc.ParseToken(token)
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	})
}

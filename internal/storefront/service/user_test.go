package service_test

import (
	"context"
	"testing"

	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/domain"
	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/service"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	valid := service.RegisterInput{
		Email:     "new@example.com",
		Password:  "password123",
		FirstName: "Test",
		LastName:  "User",
	}

	t.Run("valid input creates a customer", func(t *testing.T) {
		u, err := env.users.Register(ctx, valid)
		require.NoError(t, err)
		require.NotEmpty(t, u.ID)
		require.Equal(t, "new@example.com", u.Email)
		require.Equal(t, domain.RoleUser, u.Role)
		require.NotEqual(t, "password123", u.PasswordHash)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		_, err := env.users.Register(ctx, valid)
		require.ErrorIs(t, err, service.ErrEmailTaken)
	})

	t.Run("email is normalized to lower case", func(t *testing.T) {
		in := valid
		in.Email = "MiXeD@Example.Com"
		u, err := env.users.Register(ctx, in)
		require.NoError(t, err)
		require.Equal(t, "mixed@example.com", u.Email)
	})

	t.Run("validation failures name the field", func(t *testing.T) {
		cases := []struct {
			name  string
			in    service.RegisterInput
			field string
		}{
			{"missing email", service.RegisterInput{Password: "password123", FirstName: "A", LastName: "B"}, "email"},
			{"bad email format", service.RegisterInput{Email: "not-an-email", Password: "password123", FirstName: "A", LastName: "B"}, "email"},
			{"missing password", service.RegisterInput{Email: "a@example.com", FirstName: "A", LastName: "B"}, "password"},
			{"short password", service.RegisterInput{Email: "a@example.com", Password: "short", FirstName: "A", LastName: "B"}, "password"},
			{"missing first name", service.RegisterInput{Email: "a@example.com", Password: "password123", LastName: "B"}, "firstName"},
			{"missing last name", service.RegisterInput{Email: "a@example.com", Password: "password123", FirstName: "A"}, "lastName"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := env.users.Register(ctx, tc.in)

				var verr *service.ValidationError
				require.ErrorAs(t, err, &verr)
				require.Contains(t, verr.Fields, tc.field)
			})
		}
	})
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.registerUser(t, "alice@example.com", domain.RoleUser)

	t.Run("correct credentials", func(t *testing.T) {
		u, err := env.users.Authenticate(ctx, "alice@example.com", "password123")
		require.NoError(t, err)
		require.Equal(t, "alice@example.com", u.Email)
	})

	t.Run("email lookup is case-insensitive", func(t *testing.T) {
		_, err := env.users.Authenticate(ctx, "ALICE@example.com", "password123")
		require.NoError(t, err)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		_, errWrongPassword := env.users.Authenticate(ctx, "alice@example.com", "wrong-password")
		_, errUnknownEmail := env.users.Authenticate(ctx, "nobody@example.com", "password123")

		require.ErrorIs(t, errWrongPassword, service.ErrInvalidCredentials)
		require.ErrorIs(t, errUnknownEmail, service.ErrInvalidCredentials)
		require.Equal(t, errWrongPassword.Error(), errUnknownEmail.Error())
	})

	t.Run("empty inputs fail without a store hit", func(t *testing.T) {
		_, err := env.users.Authenticate(ctx, "", "")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})
}

func TestSeedDemoUsers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.users.SeedDemoUsers(ctx))

	t.Run("demo accounts can log in", func(t *testing.T) {
		u, err := env.users.Authenticate(ctx, "user@example.com", "password")
		require.NoError(t, err)
		require.Equal(t, domain.RoleUser, u.Role)

		admin, err := env.users.Authenticate(ctx, "admin@example.com", "password")
		require.NoError(t, err)
		require.Equal(t, domain.RoleAdmin, admin.Role)
	})

	t.Run("seeding is skipped once users exist", func(t *testing.T) {
		require.NoError(t, env.users.SeedDemoUsers(ctx))

		empty, err := env.store.Users().IsEmpty(ctx)
		require.NoError(t, err)
		require.False(t, empty)
	})
}

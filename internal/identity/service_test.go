package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	user, err := svc.Register(ctx, Registration{
		Name:     "Ana Souza",
		Email:    "ana@example.com",
		Document: "12345678901",
		Password: "hunter22",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "hunter22", string(user.PasswordHash), "password must be hashed")

	authed, err := svc.Authenticate(ctx, Credentials{Document: "12345678901", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	_, err := svc.Register(ctx, Registration{Document: "12345678901", Password: "hunter22"})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, Credentials{Document: "12345678901", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, Credentials{Document: "00000000000", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown document must look like a bad password")
}

func TestRegisterRejectsDuplicateDocument(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	_, err := svc.Register(ctx, Registration{Document: "12345678901", Password: "hunter22"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, Registration{Document: "12345678901", Password: "another1"})
	assert.ErrorIs(t, err, ErrDocumentTaken)
}

func TestRegisterValidatesInput(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	_, err := svc.Register(ctx, Registration{Document: "", Password: "hunter22"})
	assert.Error(t, err)

	_, err = svc.Register(ctx, Registration{Document: "12345678901", Password: "short"})
	assert.Error(t, err)
}

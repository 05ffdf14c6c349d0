package service

import (
	"context"
	"testing"

	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserAdminDisableRevokesSessions(t *testing.T) {
	env := newServiceTestEnv(t)
	ctx := context.Background()
	svc := NewUserAdminService(repository.NewUserRepository(env.db), env.sessions)

	user, session, err := env.users.Register(ctx, RegisterInput{Email: "ban@example.com", Password: "password123"})
	require.NoError(t, err)
	require.NotNil(t, env.sessions.Verify(ctx, session.Token))

	_, err = svc.SetStatus(ctx, user.ID, "frozen")
	assert.ErrorIs(t, err, ErrUserStatusInvalid)

	updated, err := svc.SetStatus(ctx, user.ID, constants.UserStatusDisabled)
	require.NoError(t, err)
	assert.Equal(t, constants.UserStatusDisabled, updated.Status)
	assert.Nil(t, env.sessions.Verify(ctx, session.Token))

	users, total, err := svc.List(ctx, repository.UserListFilter{Status: constants.UserStatusDisabled, Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, "ban@example.com", users[0].Email)

	_, err = svc.Get(ctx, user.ID+99)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

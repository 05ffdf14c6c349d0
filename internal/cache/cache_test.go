package cache

import (
	"context"
	"testing"
	"time"

	"github.com/shopcore-next/internal/config"
	"github.com/shopcore-next/internal/models"

	"github.com/stretchr/testify/require"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	require.NoError(t, InitRedis(&config.RedisConfig{Enabled: false}))
	ctx := context.Background()

	require.False(t, Enabled())
	require.Nil(t, Client())
	require.NoError(t, Ping(ctx))
	require.NoError(t, SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute))
	var dest map[string]int
	hit, err := GetJSON(ctx, "k", &dest)
	require.NoError(t, err)
	require.False(t, hit)

	state, hit, err := GetAdminAuthState(ctx, 1)
	require.NoError(t, err)
	require.False(t, hit)
	require.Nil(t, state)
	require.NoError(t, SetAdminAuthState(ctx, BuildAdminAuthState(&models.Admin{ID: 1, Username: "root", TokenVersion: 2})))
	require.NoError(t, DelSessionIdentity(ctx, "hash"))
}

func TestInitRedisAndClose(t *testing.T) {
	require.NoError(t, InitRedis(&config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1, Prefix: "unit"}))
	t.Cleanup(func() { _ = Close() })
	require.True(t, Enabled())
	require.NotNil(t, Client())

	// 端口不可达，读写返回错误而不是 panic
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := GetJSON(ctx, "missing", &struct{}{})
	require.Error(t, err)

	require.NoError(t, Close())
	require.False(t, Enabled())
	require.NoError(t, Close())
}

func TestBuildKey(t *testing.T) {
	require.Equal(t, "shopcore:auth:admin:7", buildKey("shopcore", adminAuthStateKey(7)))
	require.Equal(t, "shopcore", buildKey("shopcore", "  "))
	require.Equal(t, "p:session:abc", buildKey("p", sessionKey("abc")))
}

func TestBuildAdminAuthState(t *testing.T) {
	state := BuildAdminAuthState(&models.Admin{ID: 3, Username: "ops", TokenVersion: 5, IsSuper: true})
	require.Equal(t, uint(3), state.AdminID)
	require.Equal(t, uint64(5), state.TokenVersion)
	require.True(t, state.IsSuper)
}

package services

import (
	"context"
	"testing"
	"time"

	"it-inventory/internal/dto"
	"it-inventory/internal/entities"
	"it-inventory/internal/repositories"
	"it-inventory/pkg/config"
	apperrors "it-inventory/pkg/errors"
	"it-inventory/pkg/middleware"
	"it-inventory/pkg/service"
	"it-inventory/pkg/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type authEnv struct {
	*testEnv
	mr    *miniredis.Miniredis
	cache repositories.CacheRepositoryInterface
	jwt   service.JWTService
	auth  AuthServiceInterface
	users UserServiceInterface
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	env := newTestEnv(t)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := repositories.NewRedisCacheRepository(client)
	jwtSvc := service.NewJWTService("test-secret", time.Hour)
	txManager := &memTxManager{db: env.db}
	cfg := config.AuthConfig{MaxLoginAttempts: 3, LockoutDuration: 15 * time.Minute}

	return &authEnv{
		testEnv: env,
		mr:      mr,
		cache:   cache,
		jwt:     jwtSvc,
		auth:    NewAuthService(txManager, env.userRepo, cache, env.audit, jwtSvc, cfg, env.metrics, zap.NewNop()),
		users:   NewUserService(txManager, env.userRepo, env.audit, zap.NewNop()),
	}
}

// seedUser кладёт пользователя напрямую в таблицу, минуя журнал.
func (env *authEnv) seedUser(t *testing.T, username, password string, role entities.UserRole, status entities.UserStatus) *entities.User {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)

	env.db.mu.Lock()
	defer env.db.mu.Unlock()
	u := &entities.User{Username: username, Password: hash, Role: role, Status: status}
	require.NoError(t, env.userRepo.CreateInTx(context.Background(), nil, u))
	return u
}

func TestAuth_LoginIssuesTokenAndRecordsHistory(t *testing.T) {
	env := newAuthEnv(t)
	user := env.seedUser(t, "Admin", "s3cret-pass", entities.RoleAdmin, entities.UserActive)

	resp, err := env.auth.Login(context.Background(), dto.LoginDTO{Username: "admin", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.Equal(t, "admin", resp.User.Role)

	claims, err := env.jwt.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, entities.RoleAdmin, claims.Role)

	entries, _, err := env.historyRepo.List(context.Background(), repositories.HistoryFilter{EntityType: entities.EntityUser, EntityID: user.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entities.ActionLogin, entries[0].Action)
}

func TestAuth_LoginUnknownUser(t *testing.T) {
	env := newAuthEnv(t)

	_, err := env.auth.Login(context.Background(), dto.LoginDTO{Username: "ghost", Password: "whatever"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestAuth_LockoutAfterFailedAttempts(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()
	env.seedUser(t, "operator", "right-pass", entities.RoleOperator, entities.UserActive)

	for i := 0; i < 3; i++ {
		_, err := env.auth.Login(ctx, dto.LoginDTO{Username: "operator", Password: "wrong-pass"})
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	}

	_, err := env.auth.Login(ctx, dto.LoginDTO{Username: "operator", Password: "right-pass"})
	require.ErrorIs(t, err, apperrors.ErrAccountLocked)

	env.mr.FastForward(16 * time.Minute)
	_, err = env.auth.Login(ctx, dto.LoginDTO{Username: "operator", Password: "right-pass"})
	require.NoError(t, err)
}

func TestAuth_SuccessfulLoginResetsAttempts(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, "operator", "right-pass", entities.RoleOperator, entities.UserActive)

	_, err := env.auth.Login(ctx, dto.LoginDTO{Username: "operator", Password: "wrong-pass"})
	require.Error(t, err)
	_, err = env.auth.Login(ctx, dto.LoginDTO{Username: "operator", Password: "right-pass"})
	require.NoError(t, err)

	exists, err := env.cache.Exists(ctx, "login_attempts:"+uintToString(u.ID))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAuth_DisabledUser(t *testing.T) {
	env := newAuthEnv(t)
	env.seedUser(t, "former", "right-pass", entities.RoleOperator, entities.UserDisabled)

	_, err := env.auth.Login(context.Background(), dto.LoginDTO{Username: "former", Password: "right-pass"})
	assert.ErrorIs(t, err, apperrors.ErrUserDisabled)
}

func TestAuth_LogoutRevokesToken(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()

	require.NoError(t, env.auth.Logout(ctx, "token-1", time.Now().Add(time.Hour)))
	revoked, err := env.cache.Exists(ctx, middleware.RevokedTokenKey("token-1"))
	require.NoError(t, err)
	assert.True(t, revoked)

	// Истёкший токен отзывать незачем.
	require.NoError(t, env.auth.Logout(ctx, "token-2", time.Now().Add(-time.Minute)))
	revoked, err = env.cache.Exists(ctx, middleware.RevokedTokenKey("token-2"))
	require.NoError(t, err)
	assert.False(t, revoked)

	assert.ErrorIs(t, env.auth.Logout(ctx, "", time.Now().Add(time.Hour)), apperrors.ErrInvalidToken)
}

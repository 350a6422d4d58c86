package services

import (
	"context"
	"strconv"
	"testing"

	"it-inventory/internal/dto"
	"it-inventory/internal/entities"
	"it-inventory/internal/repositories"
	apperrors "it-inventory/pkg/errors"
	"it-inventory/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintToString(v uint64) string { return strconv.FormatUint(v, 10) }

func userHistory(t *testing.T, env *authEnv, id uint64) []entities.HistoryEntry {
	t.Helper()
	entries, _, err := env.historyRepo.List(context.Background(), repositories.HistoryFilter{EntityType: entities.EntityUser, EntityID: id})
	require.NoError(t, err)
	return entries
}

func TestUserService_Create(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()

	created, err := env.users.Create(ctx, operator, dto.CreateUserDTO{Username: "petrov", Password: "petrov-pass", Role: "operator"})
	require.NoError(t, err)
	assert.Equal(t, "active", created.Status)

	entries := userHistory(t, env, created.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, "Пользователь petrov был добавлен в систему с ролью operator", entries[0].Description)

	_, err = env.users.Create(ctx, operator, dto.CreateUserDTO{Username: "PETROV", Password: "other-pass", Role: "operator"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}

func TestUserService_CreateRejectsPasswordEqualToUsername(t *testing.T) {
	env := newAuthEnv(t)

	_, err := env.users.Create(context.Background(), operator, dto.CreateUserDTO{Username: "petrov", Password: "Petrov", Role: "operator"})
	var invalid *apperrors.InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

func TestUserService_UpdateDescribesChanges(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, "petrov", "old-pass", entities.RoleOperator, entities.UserActive)

	name, role, password := "sidorov", "admin", "old-pass"
	updated, err := env.users.Update(ctx, operator, u.ID, dto.UpdateUserDTO{Username: &name, Role: &role, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "sidorov", updated.Username)
	assert.Equal(t, "admin", updated.Role)

	entries := userHistory(t, env, u.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, `Имя: "petrov" → "sidorov" | Роль: "operator" → "admin" | Пароль введён тот же, не изменён`, entries[0].Description)
}

func TestUserService_UpdateChangesPassword(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, "petrov", "old-pass", entities.RoleOperator, entities.UserActive)

	password := "new-pass"
	_, err := env.users.Update(ctx, operator, u.ID, dto.UpdateUserDTO{Password: &password})
	require.NoError(t, err)

	stored, err := env.userRepo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, utils.PasswordMatches(stored.Password, "new-pass"))
	assert.Equal(t, "Пароль был изменён", userHistory(t, env, u.ID)[0].Description)
}

func TestUserService_UpdateDisabledUser(t *testing.T) {
	env := newAuthEnv(t)
	u := env.seedUser(t, "petrov", "old-pass", entities.RoleOperator, entities.UserDisabled)

	name := "sidorov"
	_, err := env.users.Update(context.Background(), operator, u.ID, dto.UpdateUserDTO{Username: &name})
	var invalid *apperrors.InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

func TestUserService_DeleteIsSoft(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, "petrov", "old-pass", entities.RoleOperator, entities.UserActive)

	require.NoError(t, env.users.Delete(ctx, operator, u.ID))

	stored, err := env.userRepo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.UserDisabled, stored.Status)
	entries := userHistory(t, env, u.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, entities.ActionDelete, entries[0].Action)

	self := entities.Actor{ID: u.ID, Username: "petrov", Role: entities.RoleAdmin}
	var invalid *apperrors.InvalidInputError
	assert.ErrorAs(t, env.users.Delete(ctx, self, u.ID), &invalid)
}

func TestUserService_DeleteDisabledUserKeepsHistory(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, "petrov", "old-pass", entities.RoleOperator, entities.UserActive)

	require.NoError(t, env.users.Delete(ctx, operator, u.ID))
	require.NoError(t, env.users.Delete(ctx, operator, u.ID))
	assert.Len(t, userHistory(t, env, u.ID), 1)

	disabled := env.seedUser(t, "sidorov", "old-pass", entities.RoleOperator, entities.UserDisabled)
	require.NoError(t, env.users.Delete(ctx, operator, disabled.ID))
	assert.Empty(t, userHistory(t, env, disabled.ID))
}

func TestUserService_ChangeStatusCannotDisableSelf(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, "petrov", "old-pass", entities.RoleAdmin, entities.UserActive)
	self := entities.Actor{ID: u.ID, Username: "petrov", Role: entities.RoleAdmin}

	_, err := env.users.ChangeStatus(ctx, self, u.ID, entities.UserDisabled)
	var invalid *apperrors.InvalidInputError
	require.ErrorAs(t, err, &invalid)

	stored, err := env.userRepo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.UserActive, stored.Status)
	assert.Empty(t, userHistory(t, env, u.ID))

	_, err = env.users.ChangeStatus(ctx, self, u.ID, entities.UserActive)
	assert.NoError(t, err)
}

func TestUserService_ChangeStatusIsIdempotent(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, "petrov", "old-pass", entities.RoleOperator, entities.UserActive)

	_, err := env.users.ChangeStatus(ctx, operator, u.ID, entities.UserActive)
	require.NoError(t, err)
	assert.Empty(t, userHistory(t, env, u.ID))

	res, err := env.users.ChangeStatus(ctx, operator, u.ID, entities.UserDisabled)
	require.NoError(t, err)
	assert.Equal(t, "disabled", res.Status)
	assert.Len(t, userHistory(t, env, u.ID), 1)
}

func TestUserService_ChangePassword(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, "petrov", "old-pass", entities.RoleOperator, entities.UserActive)
	actor := entities.Actor{ID: u.ID, Username: u.Username, Role: u.Role}

	err := env.users.ChangePassword(ctx, actor, dto.ChangePasswordDTO{OldPassword: "wrong", NewPassword: "new-pass"})
	var invalid *apperrors.InvalidInputError
	require.ErrorAs(t, err, &invalid)

	require.NoError(t, env.users.ChangePassword(ctx, actor, dto.ChangePasswordDTO{OldPassword: "old-pass", NewPassword: "new-pass"}))
	_, err = env.auth.Login(ctx, dto.LoginDTO{Username: "petrov", Password: "new-pass"})
	assert.NoError(t, err)
}

func TestUserService_List(t *testing.T) {
	env := newAuthEnv(t)
	env.seedUser(t, "petrov", "old-pass", entities.RoleOperator, entities.UserActive)
	env.seedUser(t, "admin", "admin-pass", entities.RoleAdmin, entities.UserActive)

	res, err := env.users.List(context.Background(), testFilter())
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "petrov", res.Items[0].Username)
	assert.Equal(t, uint64(1), res.Pagination.TotalPages)
}

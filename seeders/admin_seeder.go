package seeders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"it-inventory/internal/entities"
	"it-inventory/internal/repositories"
	apperrors "it-inventory/pkg/errors"
	"it-inventory/pkg/utils"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// SeedAdmin создаёт первого администратора. Если пользователь с таким логином
// уже есть, ничего не меняет и возвращает false.
func SeedAdmin(ctx context.Context, db repositories.DB, username, password string, logger *zap.Logger) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, apperrors.NewInvalidInputError("логин и пароль администратора обязательны")
	}

	userRepo := repositories.NewUserRepository(db)
	txManager := repositories.NewTxManager(db, 0)

	_, err := userRepo.FindByUsername(ctx, username)
	if err == nil {
		logger.Info("Администратор уже существует, пропускаем", zap.String("username", username))
		return false, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return false, fmt.Errorf("ошибка при проверке существования пользователя: %w", err)
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return false, err
	}

	admin := &entities.User{
		Username: username,
		Password: hashed,
		Role:     entities.RoleAdmin,
		Status:   entities.UserActive,
	}
	err = txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return userRepo.CreateInTx(ctx, tx, admin)
	})
	if err != nil {
		return false, fmt.Errorf("не удалось создать администратора: %w", err)
	}

	logger.Info("Администратор создан", zap.Uint64("id", admin.ID), zap.String("username", admin.Username))
	return true, nil
}

package utils

import (
	"context"

	"it-inventory/internal/entities"
	"it-inventory/pkg/contextkeys"
	apperrors "it-inventory/pkg/errors"
)

// WithActor кладёт в контекст пользователя, от имени которого идёт запрос.
func WithActor(ctx context.Context, actor entities.Actor) context.Context {
	ctx = context.WithValue(ctx, contextkeys.UserIDKey, actor.ID)
	ctx = context.WithValue(ctx, contextkeys.UsernameKey, actor.Username)
	return context.WithValue(ctx, contextkeys.UserRoleKey, actor.Role)
}

func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok || userID == 0 {
		return 0, apperrors.ErrUserIDNotFoundInContext
	}
	return userID, nil
}

func GetActorFromCtx(ctx context.Context) (entities.Actor, error) {
	userID, err := GetUserIDFromCtx(ctx)
	if err != nil {
		return entities.Actor{}, err
	}
	username, _ := ctx.Value(contextkeys.UsernameKey).(string)
	role, _ := ctx.Value(contextkeys.UserRoleKey).(entities.UserRole)
	return entities.Actor{ID: userID, Username: username, Role: role}, nil
}

func GetTokenIDFromCtx(ctx context.Context) string {
	jti, _ := ctx.Value(contextkeys.TokenIDKey).(string)
	return jti
}

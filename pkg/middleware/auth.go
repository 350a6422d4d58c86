package middleware

import (
	"context"
	"strings"

	"it-inventory/internal/entities"
	"it-inventory/internal/repositories"
	"it-inventory/pkg/contextkeys"
	apperrors "it-inventory/pkg/errors"
	"it-inventory/pkg/service"
	"it-inventory/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RevokedTokenKey - ключ в кэше, по которому хранится отозванный jti.
func RevokedTokenKey(jti string) string {
	return "revoked:" + jti
}

type AuthMiddleware struct {
	jwtService service.JWTService
	cache      repositories.CacheRepositoryInterface
	logger     *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, cache repositories.CacheRepositoryInterface, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtSvc,
		cache:      cache,
		logger:     logger,
	}
}

func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return utils.ErrorResponse(c, apperrors.ErrEmptyAuthHeader, m.logger)
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			m.logger.Warn("AuthMiddleware: неверный формат заголовка Authorization")
			return utils.ErrorResponse(c, apperrors.ErrInvalidAuthHeader, m.logger)
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			m.logger.Warn("AuthMiddleware: ошибка валидации токена", zap.Error(err))
			return utils.ErrorResponse(c, err, m.logger)
		}

		ctx := c.Request().Context()
		revoked, err := m.cache.Exists(ctx, RevokedTokenKey(claims.ID))
		if err != nil {
			return utils.ErrorResponse(c, err, m.logger)
		}
		if revoked {
			return utils.ErrorResponse(c, apperrors.ErrTokenRevoked, m.logger)
		}

		ctx = utils.WithActor(ctx, entities.Actor{ID: claims.UserID, Username: claims.Username, Role: claims.Role})
		ctx = context.WithValue(ctx, contextkeys.TokenIDKey, claims.ID)
		if claims.ExpiresAt != nil {
			ctx = context.WithValue(ctx, contextkeys.TokenExpKey, claims.ExpiresAt.Time)
		}
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}

// RequireRole пропускает только пользователей с одной из ролей.
// Должен стоять после Auth.
func (m *AuthMiddleware) RequireRole(roles ...entities.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, err := utils.GetActorFromCtx(c.Request().Context())
			if err != nil {
				return utils.ErrorResponse(c, err, m.logger)
			}
			for _, role := range roles {
				if actor.Role == role {
					return next(c)
				}
			}
			m.logger.Warn("доступ запрещён",
				zap.Uint64("userID", actor.ID),
				zap.String("role", string(actor.Role)),
				zap.String("uri", c.Request().RequestURI),
			)
			return utils.ErrorResponse(c, apperrors.ErrForbidden, m.logger)
		}
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"it-inventory/internal/dto"
	"it-inventory/internal/entities"
	"it-inventory/internal/repositories"
	"it-inventory/pkg/config"
	apperrors "it-inventory/pkg/errors"
	"it-inventory/pkg/metrics"
	"it-inventory/pkg/middleware"
	"it-inventory/pkg/service"
	"it-inventory/pkg/utils"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.LoginResponseDTO, error)
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
	Me(ctx context.Context, userID uint64) (*entities.User, error)
}

type AuthService struct {
	txManager  repositories.TxManagerInterface
	userRepo   repositories.UserRepositoryInterface
	cacheRepo  repositories.CacheRepositoryInterface
	audit      AuditServiceInterface
	jwtService service.JWTService
	cfg        config.AuthConfig
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewAuthService(
	txManager repositories.TxManagerInterface,
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	audit AuditServiceInterface,
	jwtService service.JWTService,
	cfg config.AuthConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) AuthServiceInterface {
	return &AuthService{
		txManager:  txManager,
		userRepo:   userRepo,
		cacheRepo:  cacheRepo,
		audit:      audit,
		jwtService: jwtService,
		cfg:        cfg,
		metrics:    m,
		logger:     logger,
	}
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (resp *dto.LoginResponseDTO, err error) {
	defer func() { s.metrics.ObserveLogin(err) }()

	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(payload.Username))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.checkLockout(ctx, user.ID); err != nil {
		return nil, err
	}
	if !utils.PasswordMatches(user.Password, payload.Password) {
		s.handleFailedLoginAttempt(ctx, user.ID)
		s.logger.Warn("неверный пароль", zap.Uint64("userID", user.ID))
		return nil, apperrors.ErrInvalidCredentials
	}
	if user.Status != entities.UserActive {
		return nil, apperrors.ErrUserDisabled
	}
	s.resetLoginAttempts(ctx, user.ID)

	actor := entities.Actor{ID: user.ID, Username: user.Username, Role: user.Role}
	token, claims, err := s.jwtService.GenerateToken(actor)
	if err != nil {
		return nil, fmt.Errorf("не удалось выпустить токен: %w", err)
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.audit.Record(ctx, tx, actor, entities.ActionLogin, entities.EntityUser, user.ID, "Пользователь вошёл в систему")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("пользователь вошёл в систему", zap.Uint64("userID", user.ID))
	return &dto.LoginResponseDTO{
		AccessToken: token,
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        dto.NewUserDTO(user),
	}, nil
}

// Logout отзывает токен до истечения его срока.
func (s *AuthService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return apperrors.ErrInvalidToken
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.cacheRepo.Set(ctx, middleware.RevokedTokenKey(tokenID), "1", ttl)
}

func (s *AuthService) Me(ctx context.Context, userID uint64) (*entities.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

func (s *AuthService) checkLockout(ctx context.Context, userID uint64) error {
	locked, err := s.cacheRepo.Exists(ctx, fmt.Sprintf("lockout:%d", userID))
	if err != nil {
		s.logger.Error("не удалось проверить блокировку", zap.Error(err))
		return nil
	}
	if locked {
		return apperrors.ErrAccountLocked
	}
	return nil
}

func (s *AuthService) handleFailedLoginAttempt(ctx context.Context, userID uint64) {
	attemptsKey := fmt.Sprintf("login_attempts:%d", userID)
	attempts, err := s.cacheRepo.IncrWithTTL(ctx, attemptsKey, s.cfg.LockoutDuration)
	if err != nil {
		s.logger.Error("не удалось учесть неудачную попытку входа", zap.Error(err))
		return
	}
	if attempts >= int64(s.cfg.MaxLoginAttempts) {
		_ = s.cacheRepo.Set(ctx, fmt.Sprintf("lockout:%d", userID), "locked", s.cfg.LockoutDuration)
		_ = s.cacheRepo.Del(ctx, attemptsKey)
		s.logger.Warn("учётная запись заблокирована", zap.Uint64("userID", userID))
	}
}

func (s *AuthService) resetLoginAttempts(ctx context.Context, userID uint64) {
	_ = s.cacheRepo.Del(ctx, fmt.Sprintf("login_attempts:%d", userID), fmt.Sprintf("lockout:%d", userID))
}

package services

import (
	"context"
	"fmt"

	"it-inventory/internal/entities"
	"it-inventory/internal/repositories"
	apperrors "it-inventory/pkg/errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// AuditServiceInterface - единственный писатель журнала. Запись делается только
// в транзакции изменения, которое она описывает.
type AuditServiceInterface interface {
	Record(ctx context.Context, tx pgx.Tx, actor entities.Actor, action entities.HistoryAction,
		entityType entities.EntityType, entityID uint64, description string) error
}

type AuditService struct {
	historyRepo repositories.HistoryRepositoryInterface
	logger      *zap.Logger
}

func NewAuditService(historyRepo repositories.HistoryRepositoryInterface, logger *zap.Logger) AuditServiceInterface {
	return &AuditService{historyRepo: historyRepo, logger: logger}
}

func (s *AuditService) Record(ctx context.Context, tx pgx.Tx, actor entities.Actor, action entities.HistoryAction,
	entityType entities.EntityType, entityID uint64, description string,
) error {
	if actor.ID == 0 {
		return apperrors.ErrUserIDNotFoundInContext
	}
	if !action.Valid() || !entityType.Valid() {
		return fmt.Errorf("журнал: недопустимое действие %q для %q", action, entityType)
	}

	entry := &entities.HistoryEntry{
		EntityType:  entityType,
		EntityID:    entityID,
		ActorID:     actor.ID,
		ActorName:   actor.Username,
		Action:      action,
		Description: description,
	}
	if err := s.historyRepo.CreateInTx(ctx, tx, entry); err != nil {
		return fmt.Errorf("не удалось записать историю: %w", err)
	}

	s.logger.Debug("запись в журнал",
		zap.String("action", string(action)),
		zap.String("entity", string(entityType)),
		zap.Uint64("entityID", entityID),
		zap.Uint64("actorID", actor.ID),
	)
	return nil
}

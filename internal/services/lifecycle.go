package services

import (
	"context"
	"fmt"

	"it-inventory/internal/entities"
	"it-inventory/internal/repositories"
	apperrors "it-inventory/pkg/errors"
	"it-inventory/pkg/metrics"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// LifecycleServiceInterface - единственный, кто меняет статус техники.
type LifecycleServiceInterface interface {
	ReturnToService(ctx context.Context, actor entities.Actor, equipmentID uint64) (*entities.Equipment, error)
	SendToRepair(ctx context.Context, actor entities.Actor, equipmentID uint64) (*entities.Equipment, error)
	Decommission(ctx context.Context, actor entities.Actor, equipmentID uint64) (*entities.Equipment, error)
}

type LifecycleService struct {
	txManager     repositories.TxManagerInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	custodyRepo   repositories.CustodyRepositoryInterface
	audit         AuditServiceInterface
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

func NewLifecycleService(
	txManager repositories.TxManagerInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	custodyRepo repositories.CustodyRepositoryInterface,
	audit AuditServiceInterface,
	m *metrics.Metrics,
	logger *zap.Logger,
) LifecycleServiceInterface {
	return &LifecycleService{
		txManager:     txManager,
		equipmentRepo: equipmentRepo,
		custodyRepo:   custodyRepo,
		audit:         audit,
		metrics:       m,
		logger:        logger,
	}
}

func (s *LifecycleService) ReturnToService(ctx context.Context, actor entities.Actor, equipmentID uint64) (*entities.Equipment, error) {
	return s.transition(ctx, actor, equipmentID, entities.StatusInService)
}

func (s *LifecycleService) SendToRepair(ctx context.Context, actor entities.Actor, equipmentID uint64) (*entities.Equipment, error) {
	return s.transition(ctx, actor, equipmentID, entities.StatusInRepair)
}

func (s *LifecycleService) Decommission(ctx context.Context, actor entities.Actor, equipmentID uint64) (*entities.Equipment, error) {
	return s.transition(ctx, actor, equipmentID, entities.StatusDecommissioned)
}

// fromPhrase и toPhrase - формы статуса для текста журнала.
func fromPhrase(s entities.EquipmentStatus) string {
	switch s {
	case entities.StatusInService:
		return "рабочего состояния"
	case entities.StatusInRepair:
		return "ремонтного состояния"
	case entities.StatusDecommissioned:
		return "нерабочего состояния"
	}
	return string(s)
}

func toPhrase(s entities.EquipmentStatus) string {
	switch s {
	case entities.StatusInService:
		return "рабочее состояние"
	case entities.StatusInRepair:
		return "ремонтное состояние"
	case entities.StatusDecommissioned:
		return "нерабочее состояние"
	}
	return string(s)
}

// transition блокирует технику и её запись на складе, проверяет допустимость перехода
// и в одной транзакции меняет статус и пишет журнал.
// Техника, выданная сотруднику, статус не меняет.
func (s *LifecycleService) transition(ctx context.Context, actor entities.Actor, equipmentID uint64, to entities.EquipmentStatus) (*entities.Equipment, error) {
	if actor.ID == 0 {
		return nil, apperrors.ErrUserIDNotFoundInContext
	}

	var (
		result *entities.Equipment
		from   entities.EquipmentStatus
	)
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		equipment, err := s.equipmentRepo.FindByIDForUpdate(ctx, tx, equipmentID)
		if err != nil {
			return err
		}
		from = equipment.Status

		if !from.CanTransitionTo(to) {
			return &apperrors.InvalidTransitionError{From: string(from), To: string(to)}
		}

		if _, err := s.custodyRepo.FindByEquipmentIDForUpdate(ctx, tx, equipmentID); err != nil {
			return err
		}

		if err := s.equipmentRepo.UpdateStatusInTx(ctx, tx, equipmentID, to); err != nil {
			return err
		}

		description := fmt.Sprintf("Техника была переведена из %s в %s", fromPhrase(from), toPhrase(to))
		if err := s.audit.Record(ctx, tx, actor, entities.ActionUpdate, entities.EntityEquipment, equipmentID, description); err != nil {
			return err
		}

		equipment.Status = to
		result = equipment
		return nil
	})
	s.metrics.ObserveTransition(string(from), string(to), err)
	if err != nil {
		s.logger.Warn("смена статуса не выполнена",
			zap.Uint64("equipmentID", equipmentID),
			zap.String("to", string(to)),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("статус техники изменён",
		zap.Uint64("equipmentID", equipmentID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.Uint64("actorID", actor.ID),
	)
	return result, nil
}

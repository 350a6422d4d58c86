package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"it-inventory/internal/dto"
	"it-inventory/internal/entities"
	"it-inventory/internal/repositories"
	apperrors "it-inventory/pkg/errors"
	"it-inventory/pkg/types"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type EquipmentServiceInterface interface {
	Create(ctx context.Context, actor entities.Actor, createDTO dto.CreateEquipmentDTO) (*entities.Equipment, error)
	Update(ctx context.Context, actor entities.Actor, id uint64, updateDTO dto.UpdateEquipmentDTO) (*entities.Equipment, error)
	GetByID(ctx context.Context, id uint64) (*entities.Equipment, error)
	List(ctx context.Context, filter types.Filter) (*types.PagedResult[entities.Equipment], error)
}

type EquipmentService struct {
	txManager     repositories.TxManagerInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	custody       CustodyServiceInterface
	audit         AuditServiceInterface
	logger        *zap.Logger
}

func NewEquipmentService(
	txManager repositories.TxManagerInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	custody CustodyServiceInterface,
	audit AuditServiceInterface,
	logger *zap.Logger,
) EquipmentServiceInterface {
	return &EquipmentService{
		txManager:     txManager,
		equipmentRepo: equipmentRepo,
		custody:       custody,
		audit:         audit,
		logger:        logger,
	}
}

// NormalizeMac приводит MAC-адрес к виду AA:BB:CC. Пустая строка означает отсутствие адреса.
func NormalizeMac(mac string) null.String {
	mac = strings.TrimSpace(mac)
	if mac == "" {
		return null.String{}
	}
	return null.StringFrom(strings.ToUpper(strings.ReplaceAll(mac, "-", ":")))
}

// duplicateOf сообщает первое совпавшее уникальное поле: инвентарный, серийный номер, MAC.
func duplicateOf(existing, candidate *entities.Equipment) error {
	switch {
	case existing.InventoryNumber == candidate.InventoryNumber:
		return &apperrors.DuplicateError{Field: "inventory_number", Value: candidate.InventoryNumber}
	case existing.SerialNumber == candidate.SerialNumber:
		return &apperrors.DuplicateError{Field: "serial_number", Value: candidate.SerialNumber}
	default:
		return &apperrors.DuplicateError{Field: "mac_address", Value: candidate.MacAddress.String}
	}
}

func (s *EquipmentService) checkUnique(ctx context.Context, tx pgx.Tx, candidate *entities.Equipment) error {
	existing, err := s.equipmentRepo.FindConflictInTx(ctx, tx, candidate)
	if err == nil {
		return duplicateOf(existing, candidate)
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	return err
}

// Create регистрирует технику и в той же транзакции ставит её на склад ИТ.
func (s *EquipmentService) Create(ctx context.Context, actor entities.Actor, createDTO dto.CreateEquipmentDTO) (*entities.Equipment, error) {
	equipment := &entities.Equipment{
		Name:            strings.TrimSpace(createDTO.Name),
		InventoryNumber: strings.TrimSpace(createDTO.InventoryNumber),
		SerialNumber:    strings.TrimSpace(createDTO.SerialNumber),
		MacAddress:      NormalizeMac(createDTO.MacAddress.String),
		Status:          entities.StatusInService,
	}
	if equipment.Name == "" || equipment.InventoryNumber == "" || equipment.SerialNumber == "" {
		return nil, apperrors.NewInvalidInputError("наименование, инвентарный и серийный номер обязательны")
	}

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.checkUnique(ctx, tx, equipment); err != nil {
			return err
		}
		if err := s.equipmentRepo.CreateInTx(ctx, tx, equipment); err != nil {
			return err
		}
		_, err := s.custody.Intake(ctx, tx, actor, equipment)
		return err
	})
	if err != nil {
		s.logger.Warn("техника не создана",
			zap.String("inventoryNumber", equipment.InventoryNumber),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("техника добавлена",
		zap.Uint64("equipmentID", equipment.ID),
		zap.String("inventoryNumber", equipment.InventoryNumber),
		zap.Uint64("actorID", actor.ID),
	)
	return equipment, nil
}

func quoted(v null.String) string {
	if !v.Valid {
		return `""`
	}
	return fmt.Sprintf("%q", v.String)
}

// describeChanges возвращает по одному предложению на каждое изменённое поле.
func describeChanges(before, after *entities.Equipment) []string {
	var changes []string
	if before.Name != after.Name {
		changes = append(changes, fmt.Sprintf("Название изменено с %q на %q", before.Name, after.Name))
	}
	if before.InventoryNumber != after.InventoryNumber {
		changes = append(changes, fmt.Sprintf("Инв. номер изменён с %q на %q", before.InventoryNumber, after.InventoryNumber))
	}
	if before.SerialNumber != after.SerialNumber {
		changes = append(changes, fmt.Sprintf("Серийный номер изменён с %q на %q", before.SerialNumber, after.SerialNumber))
	}
	if before.MacAddress != after.MacAddress {
		changes = append(changes, fmt.Sprintf("MAC-адрес изменён с %s на %s", quoted(before.MacAddress), quoted(after.MacAddress)))
	}
	return changes
}

func (s *EquipmentService) Update(ctx context.Context, actor entities.Actor, id uint64, updateDTO dto.UpdateEquipmentDTO) (*entities.Equipment, error) {
	var result *entities.Equipment

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.equipmentRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		updated := *current
		if updateDTO.Name != nil {
			updated.Name = strings.TrimSpace(*updateDTO.Name)
		}
		if updateDTO.InventoryNumber != nil {
			updated.InventoryNumber = strings.TrimSpace(*updateDTO.InventoryNumber)
		}
		if updateDTO.SerialNumber != nil {
			updated.SerialNumber = strings.TrimSpace(*updateDTO.SerialNumber)
		}
		if updateDTO.MacAddress != nil {
			updated.MacAddress = NormalizeMac(*updateDTO.MacAddress)
		}
		if updated.Name == "" || updated.InventoryNumber == "" || updated.SerialNumber == "" {
			return apperrors.NewInvalidInputError("наименование, инвентарный и серийный номер не могут быть пустыми")
		}

		changes := describeChanges(current, &updated)
		if len(changes) == 0 {
			result = current
			return nil
		}

		if err := s.checkUnique(ctx, tx, &updated); err != nil {
			return err
		}
		if err := s.equipmentRepo.UpdateInTx(ctx, tx, &updated); err != nil {
			return err
		}
		if err := s.custody.RefreshSnapshot(ctx, tx, &updated); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, tx, actor, entities.ActionUpdate, entities.EntityEquipment, id, strings.Join(changes, ", ")); err != nil {
			return err
		}

		result = &updated
		return nil
	})
	if err != nil {
		s.logger.Warn("техника не обновлена", zap.Uint64("equipmentID", id), zap.Error(err))
		return nil, err
	}
	return result, nil
}

func (s *EquipmentService) GetByID(ctx context.Context, id uint64) (*entities.Equipment, error) {
	return s.equipmentRepo.FindByID(ctx, id)
}

func (s *EquipmentService) List(ctx context.Context, filter types.Filter) (*types.PagedResult[entities.Equipment], error) {
	items, total, err := s.equipmentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &types.PagedResult[entities.Equipment]{Items: items, Pagination: types.NewPagination(total, filter)}, nil
}

package services

import (
	"context"
	"fmt"
	"path"

	"it-inventory/internal/entities"
	"it-inventory/internal/repositories"
	apperrors "it-inventory/pkg/errors"
	"it-inventory/pkg/filestorage"
	"it-inventory/pkg/metrics"
	"it-inventory/pkg/types"
	"it-inventory/pkg/utils"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Каталоги архива актов.
const (
	TransferredDir = "transferred"
	AcceptionDir   = "acception"
)

// статус «выдана сотруднику» для ошибки перехода; в таблице equipment его нет.
const issuedState = "issued"

// CustodyServiceInterface ведёт учёт, где находится техника: на складе ИТ или у сотрудника.
// Для каждого инвентарного номера существует ровно одна из двух записей.
type CustodyServiceInterface interface {
	Intake(ctx context.Context, tx pgx.Tx, actor entities.Actor, equipment *entities.Equipment) (*entities.CustodyRecord, error)
	IssueToEmployee(ctx context.Context, actor entities.Actor, ref entities.CustodyRef, employee entities.Employee, stagingPath string) (*entities.TransferRecord, error)
	ReturnFromEmployee(ctx context.Context, actor entities.Actor, ref entities.TransferRef, stagingPath string) (*entities.CustodyRecord, error)
	RefreshSnapshot(ctx context.Context, tx pgx.Tx, equipment *entities.Equipment) error

	FindCustody(ctx context.Context, ref entities.CustodyRef) (*entities.CustodyRecord, error)
	FindTransfer(ctx context.Context, ref entities.TransferRef) (*entities.TransferRecord, error)
	ListCustody(ctx context.Context, filter types.Filter) (*types.PagedResult[entities.CustodyRecord], error)
	ListTransfers(ctx context.Context, filter types.Filter) (*types.PagedResult[entities.TransferRecord], error)
}

type CustodyService struct {
	txManager     repositories.TxManagerInterface
	custodyRepo   repositories.CustodyRepositoryInterface
	transferRepo  repositories.TransferRepositoryInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	audit         AuditServiceInterface
	storage       filestorage.FileStorageInterface
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

func NewCustodyService(
	txManager repositories.TxManagerInterface,
	custodyRepo repositories.CustodyRepositoryInterface,
	transferRepo repositories.TransferRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	audit AuditServiceInterface,
	storage filestorage.FileStorageInterface,
	m *metrics.Metrics,
	logger *zap.Logger,
) CustodyServiceInterface {
	return &CustodyService{
		txManager:     txManager,
		custodyRepo:   custodyRepo,
		transferRepo:  transferRepo,
		equipmentRepo: equipmentRepo,
		audit:         audit,
		storage:       storage,
		metrics:       m,
		logger:        logger,
	}
}

// Intake ставит новую технику на склад ИТ. Вызывается в транзакции создания техники
// и пишет единственную запись журнала о ней.
func (s *CustodyService) Intake(ctx context.Context, tx pgx.Tx, actor entities.Actor, equipment *entities.Equipment) (*entities.CustodyRecord, error) {
	rec := &entities.CustodyRecord{
		EquipmentID:     equipment.ID,
		EquipmentName:   equipment.Name,
		InventoryNumber: equipment.InventoryNumber,
		SerialNumber:    equipment.SerialNumber,
		MacAddress:      equipment.MacAddress,
		Department:      entities.ITSupportDepartment,
		ActorID:         actor.ID,
	}
	if err := s.custodyRepo.CreateInTx(ctx, tx, rec); err != nil {
		return nil, err
	}

	description := fmt.Sprintf("Новая техника принята на склад: «%s», инв. № %s, серийный № %s",
		equipment.Name, equipment.InventoryNumber, equipment.SerialNumber)
	if err := s.audit.Record(ctx, tx, actor, entities.ActionCreate, entities.EntityEquipment, equipment.ID, description); err != nil {
		return nil, err
	}

	s.metrics.ObserveCustody("intake", nil)
	return rec, nil
}

func (s *CustodyService) IssueToEmployee(ctx context.Context, actor entities.Actor, ref entities.CustodyRef, employee entities.Employee, stagingPath string) (*entities.TransferRecord, error) {
	var (
		archived string
		result   *entities.TransferRecord
	)

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		custody, err := s.custodyRepo.FindForUpdate(ctx, tx, ref)
		if err != nil {
			return err
		}

		equipment, err := s.equipmentRepo.FindByIDForUpdate(ctx, tx, custody.EquipmentID)
		if err != nil {
			return err
		}
		if equipment.Status != entities.StatusInService {
			return &apperrors.InvalidTransitionError{From: string(equipment.Status), To: issuedState}
		}

		if err := s.custodyRepo.DeleteInTx(ctx, tx, custody.ID); err != nil {
			return err
		}

		archived, err = s.archive(stagingPath, path.Join(TransferredDir, utils.Slugify(employee.ShortName)))
		if err != nil {
			return err
		}

		rec := &entities.TransferRecord{
			Employee:        employee,
			EquipmentID:     equipment.ID,
			EquipmentName:   equipment.Name,
			InventoryNumber: equipment.InventoryNumber,
			SerialNumber:    equipment.SerialNumber,
			MacAddress:      equipment.MacAddress,
			DocumentPath:    archived,
			ActorID:         actor.ID,
		}
		if err := s.transferRepo.CreateInTx(ctx, tx, rec); err != nil {
			return err
		}

		description := fmt.Sprintf("Техника «%s» (инв. № %s) передана сотруднику %s, %s",
			equipment.Name, equipment.InventoryNumber, employee.FullName, employee.Department)
		if err := s.audit.Record(ctx, tx, actor, entities.ActionTransfer, entities.EntityEquipment, equipment.ID, description); err != nil {
			return err
		}

		result = rec
		return nil
	})
	s.metrics.ObserveCustody("issue", err)
	if err != nil {
		s.compensate(archived)
		s.logger.Warn("выдача техники не выполнена",
			zap.String("inventoryNumber", ref.InventoryNumber),
			zap.Uint64("actorID", actor.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("техника выдана сотруднику",
		zap.Uint64("transferID", result.ID),
		zap.String("inventoryNumber", result.InventoryNumber),
		zap.String("employee", employee.FullName),
	)
	return result, nil
}

func (s *CustodyService) ReturnFromEmployee(ctx context.Context, actor entities.Actor, ref entities.TransferRef, stagingPath string) (*entities.CustodyRecord, error) {
	var (
		archived string
		result   *entities.CustodyRecord
	)

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		transfer, err := s.transferRepo.FindForUpdate(ctx, tx, ref)
		if err != nil {
			return err
		}

		equipment, err := s.equipmentRepo.FindByIDForUpdate(ctx, tx, transfer.EquipmentID)
		if err != nil {
			return err
		}

		if err := s.transferRepo.DeleteInTx(ctx, tx, transfer.ID); err != nil {
			return err
		}

		archived, err = s.archive(stagingPath, AcceptionDir)
		if err != nil {
			return err
		}

		rec := &entities.CustodyRecord{
			EquipmentID:     equipment.ID,
			EquipmentName:   equipment.Name,
			InventoryNumber: equipment.InventoryNumber,
			SerialNumber:    equipment.SerialNumber,
			MacAddress:      equipment.MacAddress,
			Department:      entities.ITSupportDepartment,
			DocumentPath:    null.StringFrom(archived),
			ActorID:         actor.ID,
		}
		if err := s.custodyRepo.CreateInTx(ctx, tx, rec); err != nil {
			return err
		}

		description := fmt.Sprintf("Техника «%s» (инв. № %s) возвращена от сотрудника %s на склад",
			equipment.Name, equipment.InventoryNumber, transfer.FullName)
		if err := s.audit.Record(ctx, tx, actor, entities.ActionAccept, entities.EntityEquipment, equipment.ID, description); err != nil {
			return err
		}

		result = rec
		return nil
	})
	s.metrics.ObserveCustody("return", err)
	if err != nil {
		s.compensate(archived)
		s.logger.Warn("возврат техники не выполнен",
			zap.Uint64("transferID", ref.ID),
			zap.Uint64("actorID", actor.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("техника возвращена на склад",
		zap.Uint64("custodyID", result.ID),
		zap.String("inventoryNumber", result.InventoryNumber),
	)
	return result, nil
}

// RefreshSnapshot переносит изменённые данные техники в ту запись учёта, где она сейчас числится.
func (s *CustodyService) RefreshSnapshot(ctx context.Context, tx pgx.Tx, equipment *entities.Equipment) error {
	if err := s.custodyRepo.UpdateSnapshotInTx(ctx, tx, equipment); err != nil {
		return err
	}
	return s.transferRepo.UpdateSnapshotInTx(ctx, tx, equipment)
}

func (s *CustodyService) archive(stagingPath, dir string) (string, error) {
	archived, err := s.storage.Copy(stagingPath, dir)
	if err != nil {
		return "", &apperrors.StorageError{Op: "copy", Path: stagingPath, Err: err}
	}
	return archived, nil
}

// compensate удаляет копию акта, если транзакция после копирования не прошла.
func (s *CustodyService) compensate(archived string) {
	if archived == "" {
		return
	}
	if err := s.storage.Delete(archived); err != nil {
		s.logger.Error("не удалось удалить копию акта после отката", zap.String("path", archived), zap.Error(err))
	}
}

func (s *CustodyService) FindCustody(ctx context.Context, ref entities.CustodyRef) (*entities.CustodyRecord, error) {
	return s.custodyRepo.FindByRef(ctx, ref)
}

func (s *CustodyService) FindTransfer(ctx context.Context, ref entities.TransferRef) (*entities.TransferRecord, error) {
	return s.transferRepo.FindByRef(ctx, ref)
}

func (s *CustodyService) ListCustody(ctx context.Context, filter types.Filter) (*types.PagedResult[entities.CustodyRecord], error) {
	items, total, err := s.custodyRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &types.PagedResult[entities.CustodyRecord]{Items: items, Pagination: types.NewPagination(total, filter)}, nil
}

func (s *CustodyService) ListTransfers(ctx context.Context, filter types.Filter) (*types.PagedResult[entities.TransferRecord], error) {
	items, total, err := s.transferRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &types.PagedResult[entities.TransferRecord]{Items: items, Pagination: types.NewPagination(total, filter)}, nil
}


package repositories

import (
	"context"
	"errors"
	"fmt"

	"it-inventory/internal/entities"
	apperrors "it-inventory/pkg/errors"
	"it-inventory/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

const equipmentTable = "equipment"

var equipmentColumns = []string{
	"id", "name", "inventory_number", "serial_number", "mac_address", "status", "created_at", "updated_at",
}

// Поля, по которым разрешён поиск в списке техники.
var EquipmentSearchColumns = []string{"name", "inventory_number", "serial_number", "mac_address"}

type EquipmentRepositoryInterface interface {
	FindByID(ctx context.Context, id uint64) (*entities.Equipment, error)
	List(ctx context.Context, filter types.Filter) ([]entities.Equipment, uint64, error)

	CreateInTx(ctx context.Context, tx pgx.Tx, e *entities.Equipment) error
	FindByIDInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error)
	FindConflictInTx(ctx context.Context, tx pgx.Tx, candidate *entities.Equipment) (*entities.Equipment, error)
	UpdateInTx(ctx context.Context, tx pgx.Tx, e *entities.Equipment) error
	UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, status entities.EquipmentStatus) error
}

type EquipmentRepository struct {
	storage DB
}

func NewEquipmentRepository(storage DB) EquipmentRepositoryInterface {
	return &EquipmentRepository{storage: storage}
}

func scanEquipment(row rowScanner) (entities.Equipment, error) {
	var e entities.Equipment
	err := row.Scan(&e.ID, &e.Name, &e.InventoryNumber, &e.SerialNumber, &e.MacAddress, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (r *EquipmentRepository) findOne(ctx context.Context, q querier, builder sq.SelectBuilder) (*entities.Equipment, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	e, err := scanEquipment(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *EquipmentRepository) FindByID(ctx context.Context, id uint64) (*entities.Equipment, error) {
	return r.findOne(ctx, r.storage, psql.Select(equipmentColumns...).From(equipmentTable).Where(sq.Eq{"id": id}))
}

func (r *EquipmentRepository) FindByIDInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	return r.findOne(ctx, tx, psql.Select(equipmentColumns...).From(equipmentTable).Where(sq.Eq{"id": id}))
}

// FindByIDForUpdate блокирует строку до конца транзакции.
func (r *EquipmentRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	return r.findOne(ctx, tx, psql.Select(equipmentColumns...).From(equipmentTable).Where(sq.Eq{"id": id}).Suffix("FOR UPDATE"))
}

// FindConflictInTx ищет другую технику с тем же инвентарным, серийным номером или MAC-адресом.
func (r *EquipmentRepository) FindConflictInTx(ctx context.Context, tx pgx.Tx, candidate *entities.Equipment) (*entities.Equipment, error) {
	match := sq.Or{
		sq.Eq{"inventory_number": candidate.InventoryNumber},
		sq.Eq{"serial_number": candidate.SerialNumber},
	}
	if candidate.MacAddress.Valid {
		match = append(match, sq.Eq{"mac_address": candidate.MacAddress.String})
	}

	builder := psql.Select(equipmentColumns...).From(equipmentTable).Where(match)
	if candidate.ID != 0 {
		builder = builder.Where(sq.NotEq{"id": candidate.ID})
	}
	return r.findOne(ctx, tx, builder.OrderBy("id").Limit(1))
}

func (r *EquipmentRepository) CreateInTx(ctx context.Context, tx pgx.Tx, e *entities.Equipment) error {
	query := `
		INSERT INTO equipment (name, inventory_number, serial_number, mac_address, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := tx.QueryRow(ctx, query, e.Name, e.InventoryNumber, e.SerialNumber, e.MacAddress, e.Status).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return r.mapUnique(err, e)
	}
	return nil
}

func (r *EquipmentRepository) UpdateInTx(ctx context.Context, tx pgx.Tx, e *entities.Equipment) error {
	query := `
		UPDATE equipment
		SET name = $1, inventory_number = $2, serial_number = $3, mac_address = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at`

	err := tx.QueryRow(ctx, query, e.Name, e.InventoryNumber, e.SerialNumber, e.MacAddress, e.ID).Scan(&e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return r.mapUnique(err, e)
	}
	return nil
}

func (r *EquipmentRepository) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, status entities.EquipmentStatus) error {
	result, err := tx.Exec(ctx, `UPDATE equipment SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *EquipmentRepository) List(ctx context.Context, filter types.Filter) ([]entities.Equipment, uint64, error) {
	p := paramsFromFilter(filter)
	p.Table = equipmentTable
	p.Columns = equipmentColumns
	p.OrderBy = "id DESC"
	p.AllowedFilterColumns = []string{"status"}
	p.AllowedSearchColumns = EquipmentSearchColumns
	p.DefaultSearchColumns = EquipmentSearchColumns
	p.DateColumn = "created_at"

	if status, ok := filter.Filter["status"]; ok && status != "" && !entities.EquipmentStatus(status).Valid() {
		return nil, 0, apperrors.NewInvalidInputError("неизвестный статус техники: %s", status)
	}

	items, total, err := FetchDataAndCount(ctx, r.storage, p, scanEquipment)
	if err != nil {
		return nil, 0, fmt.Errorf("список техники: %w", err)
	}
	return items, total, nil
}

func (r *EquipmentRepository) mapUnique(err error, e *entities.Equipment) error {
	return uniqueViolation(err, map[string][2]string{
		"equipment_inventory_number_key": {"inventory_number", e.InventoryNumber},
		"equipment_serial_number_key":    {"serial_number", e.SerialNumber},
		"equipment_mac_address_key":      {"mac_address", e.MacAddress.String},
	})
}

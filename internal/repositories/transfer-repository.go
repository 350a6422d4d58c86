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

const transferTable = "transfer"

var transferColumns = []string{
	"id", "employee_full_name", "employee_short_name", "department", "division", "position",
	"passport_number", "passport_issue_date", "passport_issued_by",
	"equipment_id", "equipment_name", "inventory_number", "serial_number", "mac_address",
	"document_path", "actor_id", "created_at",
}

var transferSearchColumns = []string{"employee_full_name", "equipment_name", "inventory_number", "serial_number", "department"}

type TransferRepositoryInterface interface {
	List(ctx context.Context, filter types.Filter) ([]entities.TransferRecord, uint64, error)
	FindByRef(ctx context.Context, ref entities.TransferRef) (*entities.TransferRecord, error)

	CreateInTx(ctx context.Context, tx pgx.Tx, rec *entities.TransferRecord) error
	FindForUpdate(ctx context.Context, tx pgx.Tx, ref entities.TransferRef) (*entities.TransferRecord, error)
	DeleteInTx(ctx context.Context, tx pgx.Tx, id uint64) error
	UpdateSnapshotInTx(ctx context.Context, tx pgx.Tx, e *entities.Equipment) error
}

type TransferRepository struct {
	storage DB
}

func NewTransferRepository(storage DB) TransferRepositoryInterface {
	return &TransferRepository{storage: storage}
}

func scanTransfer(row rowScanner) (entities.TransferRecord, error) {
	var t entities.TransferRecord
	err := row.Scan(
		&t.ID, &t.FullName, &t.ShortName, &t.Department, &t.Division, &t.Position,
		&t.PassportNumber, &t.PassportIssueDate, &t.PassportIssuedBy,
		&t.EquipmentID, &t.EquipmentName, &t.InventoryNumber, &t.SerialNumber, &t.MacAddress,
		&t.DocumentPath, &t.ActorID, &t.CreatedAt,
	)
	return t, err
}

func (r *TransferRepository) findOne(ctx context.Context, q querier, builder sq.SelectBuilder) (*entities.TransferRecord, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	t, err := scanTransfer(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNoMatchingTransferRecord
		}
		return nil, err
	}
	return &t, nil
}

func transferRefCondition(ref entities.TransferRef) sq.Eq {
	return sq.Eq{"id": ref.ID, "inventory_number": ref.InventoryNumber, "equipment_name": ref.EquipmentName}
}

func (r *TransferRepository) FindByRef(ctx context.Context, ref entities.TransferRef) (*entities.TransferRecord, error) {
	return r.findOne(ctx, r.storage, psql.Select(transferColumns...).From(transferTable).Where(transferRefCondition(ref)))
}

// FindForUpdate находит и блокирует запись о выдаче. Все три поля ссылки должны совпасть.
func (r *TransferRepository) FindForUpdate(ctx context.Context, tx pgx.Tx, ref entities.TransferRef) (*entities.TransferRecord, error) {
	return r.findOne(ctx, tx, psql.Select(transferColumns...).From(transferTable).Where(transferRefCondition(ref)).Suffix("FOR UPDATE"))
}

func (r *TransferRepository) CreateInTx(ctx context.Context, tx pgx.Tx, rec *entities.TransferRecord) error {
	query := `
		INSERT INTO transfer (
			employee_full_name, employee_short_name, department, division, position,
			passport_number, passport_issue_date, passport_issued_by,
			equipment_id, equipment_name, inventory_number, serial_number, mac_address,
			document_path, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at`

	err := tx.QueryRow(ctx, query,
		rec.FullName, rec.ShortName, rec.Department, rec.Division, rec.Position,
		rec.PassportNumber, rec.PassportIssueDate, rec.PassportIssuedBy,
		rec.EquipmentID, rec.EquipmentName, rec.InventoryNumber, rec.SerialNumber, rec.MacAddress,
		rec.DocumentPath, rec.ActorID,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return uniqueViolation(err, map[string][2]string{
			"transfer_inventory_number_key": {"inventory_number", rec.InventoryNumber},
		})
	}
	return nil
}

func (r *TransferRepository) DeleteInTx(ctx context.Context, tx pgx.Tx, id uint64) error {
	result, err := tx.Exec(ctx, `DELETE FROM transfer WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNoMatchingTransferRecord
	}
	return nil
}

func (r *TransferRepository) UpdateSnapshotInTx(ctx context.Context, tx pgx.Tx, e *entities.Equipment) error {
	_, err := tx.Exec(ctx, `
		UPDATE transfer
		SET equipment_name = $1, inventory_number = $2, serial_number = $3, mac_address = $4
		WHERE equipment_id = $5`,
		e.Name, e.InventoryNumber, e.SerialNumber, e.MacAddress, e.ID)
	return err
}

func (r *TransferRepository) List(ctx context.Context, filter types.Filter) ([]entities.TransferRecord, uint64, error) {
	p := paramsFromFilter(filter)
	p.Table = transferTable
	p.Columns = transferColumns
	p.OrderBy = "id DESC"
	p.AllowedFilterColumns = []string{"department"}
	p.AllowedSearchColumns = transferSearchColumns
	p.DefaultSearchColumns = transferSearchColumns
	p.DateColumn = "created_at"

	items, total, err := FetchDataAndCount(ctx, r.storage, p, scanTransfer)
	if err != nil {
		return nil, 0, fmt.Errorf("список выданной техники: %w", err)
	}
	return items, total, nil
}

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

// Названия колонок склада сохранены из исходной схемы учёта.
const custodyTable = "custody"

var custodyColumns = []string{
	"id", "equipment_id", "naimenovaniya_tex", "inv_tex", "seriyniy_nomer", "mac_address",
	"podrazdelenie", "document_path", "actor_id", "created_at",
}

var custodySearchColumns = []string{"naimenovaniya_tex", "inv_tex", "seriyniy_nomer", "mac_address"}

type CustodyRepositoryInterface interface {
	List(ctx context.Context, filter types.Filter) ([]entities.CustodyRecord, uint64, error)
	FindByRef(ctx context.Context, ref entities.CustodyRef) (*entities.CustodyRecord, error)

	CreateInTx(ctx context.Context, tx pgx.Tx, rec *entities.CustodyRecord) error
	FindForUpdate(ctx context.Context, tx pgx.Tx, ref entities.CustodyRef) (*entities.CustodyRecord, error)
	FindByEquipmentIDForUpdate(ctx context.Context, tx pgx.Tx, equipmentID uint64) (*entities.CustodyRecord, error)
	DeleteInTx(ctx context.Context, tx pgx.Tx, id uint64) error
	UpdateSnapshotInTx(ctx context.Context, tx pgx.Tx, e *entities.Equipment) error
}

type CustodyRepository struct {
	storage DB
}

func NewCustodyRepository(storage DB) CustodyRepositoryInterface {
	return &CustodyRepository{storage: storage}
}

func scanCustody(row rowScanner) (entities.CustodyRecord, error) {
	var c entities.CustodyRecord
	err := row.Scan(&c.ID, &c.EquipmentID, &c.EquipmentName, &c.InventoryNumber, &c.SerialNumber, &c.MacAddress,
		&c.Department, &c.DocumentPath, &c.ActorID, &c.CreatedAt)
	return c, err
}

func (r *CustodyRepository) findOne(ctx context.Context, q querier, builder sq.SelectBuilder) (*entities.CustodyRecord, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	c, err := scanCustody(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNoMatchingCustodyRecord
		}
		return nil, err
	}
	return &c, nil
}

func refCondition(ref entities.CustodyRef) sq.Eq {
	return sq.Eq{"inv_tex": ref.InventoryNumber, "naimenovaniya_tex": ref.EquipmentName}
}

// FindByRef читает запись склада без блокировки.
func (r *CustodyRepository) FindByRef(ctx context.Context, ref entities.CustodyRef) (*entities.CustodyRecord, error) {
	return r.findOne(ctx, r.storage, psql.Select(custodyColumns...).From(custodyTable).Where(refCondition(ref)))
}

// FindForUpdate находит и блокирует запись склада по инвентарному номеру и наименованию.
func (r *CustodyRepository) FindForUpdate(ctx context.Context, tx pgx.Tx, ref entities.CustodyRef) (*entities.CustodyRecord, error) {
	return r.findOne(ctx, tx, psql.Select(custodyColumns...).From(custodyTable).Where(refCondition(ref)).Suffix("FOR UPDATE"))
}

func (r *CustodyRepository) FindByEquipmentIDForUpdate(ctx context.Context, tx pgx.Tx, equipmentID uint64) (*entities.CustodyRecord, error) {
	return r.findOne(ctx, tx, psql.Select(custodyColumns...).From(custodyTable).Where(sq.Eq{"equipment_id": equipmentID}).Suffix("FOR UPDATE"))
}

func (r *CustodyRepository) CreateInTx(ctx context.Context, tx pgx.Tx, rec *entities.CustodyRecord) error {
	query := `
		INSERT INTO custody (equipment_id, naimenovaniya_tex, inv_tex, seriyniy_nomer, mac_address, podrazdelenie, document_path, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := tx.QueryRow(ctx, query,
		rec.EquipmentID, rec.EquipmentName, rec.InventoryNumber, rec.SerialNumber, rec.MacAddress,
		rec.Department, rec.DocumentPath, rec.ActorID,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return uniqueViolation(err, map[string][2]string{
			"custody_inv_tex_key": {"inventory_number", rec.InventoryNumber},
		})
	}
	return nil
}

func (r *CustodyRepository) DeleteInTx(ctx context.Context, tx pgx.Tx, id uint64) error {
	result, err := tx.Exec(ctx, `DELETE FROM custody WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNoMatchingCustodyRecord
	}
	return nil
}

// UpdateSnapshotInTx обновляет снимок данных техники, если она на складе.
func (r *CustodyRepository) UpdateSnapshotInTx(ctx context.Context, tx pgx.Tx, e *entities.Equipment) error {
	_, err := tx.Exec(ctx, `
		UPDATE custody
		SET naimenovaniya_tex = $1, inv_tex = $2, seriyniy_nomer = $3, mac_address = $4
		WHERE equipment_id = $5`,
		e.Name, e.InventoryNumber, e.SerialNumber, e.MacAddress, e.ID)
	return err
}

func (r *CustodyRepository) List(ctx context.Context, filter types.Filter) ([]entities.CustodyRecord, uint64, error) {
	p := paramsFromFilter(filter)
	p.Table = custodyTable
	p.Columns = custodyColumns
	p.OrderBy = "id DESC"
	p.AllowedSearchColumns = custodySearchColumns
	p.DefaultSearchColumns = custodySearchColumns
	p.DateColumn = "created_at"

	items, total, err := FetchDataAndCount(ctx, r.storage, p, scanCustody)
	if err != nil {
		return nil, 0, fmt.Errorf("список склада: %w", err)
	}
	return items, total, nil
}

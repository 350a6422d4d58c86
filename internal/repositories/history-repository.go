package repositories

import (
	"context"
	"fmt"

	"it-inventory/internal/entities"
	apperrors "it-inventory/pkg/errors"
	"it-inventory/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

const historyTable = "history"

var historyColumns = []string{"id", "entity_type", "entity_id", "actor_id", "actor_name", "action", "description", "created_at"}

// HistoryFilter сужает журнал до одной сущности или одного пользователя.
type HistoryFilter struct {
	types.Filter
	EntityType entities.EntityType
	EntityID   uint64
	ActorID    uint64
}

type HistoryRepositoryInterface interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, entry *entities.HistoryEntry) error
	List(ctx context.Context, filter HistoryFilter) ([]entities.HistoryEntry, uint64, error)
}

type HistoryRepository struct {
	storage DB
}

func NewHistoryRepository(storage DB) HistoryRepositoryInterface {
	return &HistoryRepository{storage: storage}
}

// CreateInTx пишет запись журнала в транзакции вызывающего.
func (r *HistoryRepository) CreateInTx(ctx context.Context, tx pgx.Tx, entry *entities.HistoryEntry) error {
	query := `
		INSERT INTO history (entity_type, entity_id, actor_id, actor_name, action, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	return tx.QueryRow(ctx, query,
		entry.EntityType, entry.EntityID, entry.ActorID, entry.ActorName, entry.Action, entry.Description,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func scanHistory(row rowScanner) (entities.HistoryEntry, error) {
	var h entities.HistoryEntry
	err := row.Scan(&h.ID, &h.EntityType, &h.EntityID, &h.ActorID, &h.ActorName, &h.Action, &h.Description, &h.CreatedAt)
	return h, err
}

func (r *HistoryRepository) List(ctx context.Context, filter HistoryFilter) ([]entities.HistoryEntry, uint64, error) {
	p := paramsFromFilter(filter.Filter)
	p.Table = historyTable
	p.Columns = historyColumns
	p.OrderBy = "created_at DESC, id DESC"
	p.AllowedFilterColumns = []string{"action", "entity_type"}
	p.AllowedSearchColumns = []string{"description", "actor_name"}
	p.DefaultSearchColumns = []string{"description"}
	p.DateColumn = "created_at"

	if action, ok := filter.Filter.Filter["action"]; ok && action != "" && !entities.HistoryAction(action).Valid() {
		return nil, 0, apperrors.NewInvalidInputError("неизвестное действие: %s", action)
	}

	where := sq.Eq{}
	if filter.EntityType != "" {
		where["entity_type"] = filter.EntityType
	}
	if filter.EntityID != 0 {
		where["entity_id"] = filter.EntityID
	}
	if filter.ActorID != 0 {
		where["actor_id"] = filter.ActorID
	}
	if len(where) > 0 {
		p.Where = where
	}

	items, total, err := FetchDataAndCount(ctx, r.storage, p, scanHistory)
	if err != nil {
		return nil, 0, fmt.Errorf("журнал: %w", err)
	}
	return items, total, nil
}

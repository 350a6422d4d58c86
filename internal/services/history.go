package services

import (
	"context"

	"it-inventory/internal/entities"
	"it-inventory/internal/repositories"
	apperrors "it-inventory/pkg/errors"
	"it-inventory/pkg/types"

	"go.uber.org/zap"
)

type HistoryServiceInterface interface {
	List(ctx context.Context, filter types.Filter) (*types.PagedResult[entities.HistoryEntry], error)
	ListByEquipment(ctx context.Context, equipmentID uint64, filter types.Filter) (*types.PagedResult[entities.HistoryEntry], error)
	ListByActor(ctx context.Context, userID uint64, filter types.Filter) (*types.PagedResult[entities.HistoryEntry], error)
}

type HistoryService struct {
	historyRepo repositories.HistoryRepositoryInterface
	logger      *zap.Logger
}

func NewHistoryService(historyRepo repositories.HistoryRepositoryInterface, logger *zap.Logger) HistoryServiceInterface {
	return &HistoryService{historyRepo: historyRepo, logger: logger}
}

// List отдаёт весь журнал. Фильтр по типу сущности приходит в filter[entity_type].
func (s *HistoryService) List(ctx context.Context, filter types.Filter) (*types.PagedResult[entities.HistoryEntry], error) {
	if et, ok := filter.Filter["entity_type"]; ok && et != "" && !entities.EntityType(et).Valid() {
		return nil, apperrors.NewInvalidInputError("неизвестный тип сущности: %s", et)
	}
	return s.list(ctx, repositories.HistoryFilter{Filter: filter})
}

func (s *HistoryService) ListByEquipment(ctx context.Context, equipmentID uint64, filter types.Filter) (*types.PagedResult[entities.HistoryEntry], error) {
	return s.list(ctx, repositories.HistoryFilter{
		Filter:     filter,
		EntityType: entities.EntityEquipment,
		EntityID:   equipmentID,
	})
}

func (s *HistoryService) ListByActor(ctx context.Context, userID uint64, filter types.Filter) (*types.PagedResult[entities.HistoryEntry], error) {
	return s.list(ctx, repositories.HistoryFilter{Filter: filter, ActorID: userID})
}

func (s *HistoryService) list(ctx context.Context, filter repositories.HistoryFilter) (*types.PagedResult[entities.HistoryEntry], error) {
	items, total, err := s.historyRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("не удалось получить журнал", zap.Error(err))
		return nil, err
	}
	return &types.PagedResult[entities.HistoryEntry]{
		Items:      items,
		Pagination: types.NewPagination(total, filter.Filter),
	}, nil
}

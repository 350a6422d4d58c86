package controllers

import (
	"context"
	"net/http"

	"it-inventory/internal/entities"
	"it-inventory/internal/services"
	"it-inventory/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type LifecycleController struct {
	lifecycleService services.LifecycleServiceInterface
	logger           *zap.Logger
}

func NewLifecycleController(lifecycleService services.LifecycleServiceInterface, logger *zap.Logger) *LifecycleController {
	return &LifecycleController{lifecycleService: lifecycleService, logger: logger}
}

type transitionFunc func(ctx context.Context, actor entities.Actor, equipmentID uint64) (*entities.Equipment, error)

func (c *LifecycleController) handle(ctx echo.Context, fn transitionFunc, message string) error {
	actor, err := utils.GetActorFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := fn(ctx.Request().Context(), actor, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, message, http.StatusOK)
}

func (c *LifecycleController) ReturnToService(ctx echo.Context) error {
	return c.handle(ctx, c.lifecycleService.ReturnToService, "Техника переведена в рабочее состояние")
}

func (c *LifecycleController) SendToRepair(ctx echo.Context) error {
	return c.handle(ctx, c.lifecycleService.SendToRepair, "Техника отправлена в ремонт")
}

func (c *LifecycleController) Decommission(ctx echo.Context) error {
	return c.handle(ctx, c.lifecycleService.Decommission, "Техника переведена в нерабочее состояние")
}

package controllers

import (
	"net/http"

	"it-inventory/internal/services"
	"it-inventory/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type CustodyController struct {
	custodyService services.CustodyServiceInterface
	logger         *zap.Logger
}

func NewCustodyController(custodyService services.CustodyServiceInterface, logger *zap.Logger) *CustodyController {
	return &CustodyController{custodyService: custodyService, logger: logger}
}

// GetCustody - техника на складе ИТ.
func (c *CustodyController) GetCustody(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	res, err := c.custodyService.ListCustody(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Список техники на складе получен", http.StatusOK, res.Pagination.TotalCount)
}

// GetTransfers - техника, выданная сотрудникам.
func (c *CustodyController) GetTransfers(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	res, err := c.custodyService.ListTransfers(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Список выданной техники получен", http.StatusOK, res.Pagination.TotalCount)
}

package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"it-inventory/internal/services"
	"it-inventory/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportController struct {
	excelService services.ExcelServiceInterface
	logger       *zap.Logger
}

func NewExportController(excelService services.ExcelServiceInterface, logger *zap.Logger) *ExportController {
	return &ExportController{excelService: excelService, logger: logger}
}

// Export выгружает таблицу :table в xlsx. Учитываются date_from/date_to и фильтры списка.
func (c *ExportController) Export(ctx echo.Context) error {
	table := ctx.Param("table")
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	var buf bytes.Buffer
	if err := c.excelService.Export(ctx.Request().Context(), table, filter, &buf); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	fileName := fmt.Sprintf("%s_%s.xlsx", table, time.Now().Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, fileName))
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

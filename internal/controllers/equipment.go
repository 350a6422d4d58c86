package controllers

import (
	"net/http"

	"it-inventory/internal/dto"
	"it-inventory/internal/services"
	"it-inventory/pkg/config"
	"it-inventory/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type EquipmentController struct {
	equipmentService services.EquipmentServiceInterface
	excelService     services.ExcelServiceInterface
	logger           *zap.Logger
}

func NewEquipmentController(
	equipmentService services.EquipmentServiceInterface,
	excelService services.ExcelServiceInterface,
	logger *zap.Logger,
) *EquipmentController {
	return &EquipmentController{
		equipmentService: equipmentService,
		excelService:     excelService,
		logger:           logger,
	}
}

func (c *EquipmentController) GetEquipments(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	res, err := c.equipmentService.List(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Список техники успешно получен", http.StatusOK, res.Pagination.TotalCount)
}

func (c *EquipmentController) FindEquipment(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.equipmentService.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Техника успешно найдена", http.StatusOK)
}

func (c *EquipmentController) CreateEquipment(ctx echo.Context) error {
	actor, err := utils.GetActorFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var createDTO dto.CreateEquipmentDTO
	if err := bindAndValidate(ctx, &createDTO); err != nil {
		c.logger.Warn("CreateEquipment: неверные данные", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.equipmentService.Create(ctx.Request().Context(), actor, createDTO)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Техника успешно добавлена", http.StatusCreated)
}

func (c *EquipmentController) UpdateEquipment(ctx echo.Context) error {
	actor, err := utils.GetActorFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var updateDTO dto.UpdateEquipmentDTO
	if err := bindAndValidate(ctx, &updateDTO); err != nil {
		c.logger.Warn("UpdateEquipment: неверные данные", zap.Uint64("id", id), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.equipmentService.Update(ctx.Request().Context(), actor, id, updateDTO)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Техника успешно обновлена", http.StatusOK)
}

// ImportEquipment принимает xlsx в поле "file". Ошибки строк не прерывают импорт.
func (c *EquipmentController) ImportEquipment(ctx echo.Context) error {
	actor, err := utils.GetActorFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	fileHeader, src, err := uploadedFile(ctx, "file", config.UploadEquipmentImport)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if fileHeader == nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "Файл не был передан"), c.logger)
	}
	defer src.Close()

	res, err := c.excelService.ImportEquipment(ctx.Request().Context(), actor, src)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	c.logger.Info("ImportEquipment: файл обработан", zap.String("file", fileHeader.Filename), zap.Int("created", res.Created))
	return utils.SuccessResponse(ctx, res, "Импорт техники завершён", http.StatusOK)
}

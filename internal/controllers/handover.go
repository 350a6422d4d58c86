package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"path"
	"time"

	"it-inventory/internal/dto"
	"it-inventory/internal/services"
	"it-inventory/pkg/config"
	"it-inventory/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type HandoverController struct {
	handoverService services.HandoverServiceInterface
	logger          *zap.Logger
}

func NewHandoverController(handoverService services.HandoverServiceInterface, logger *zap.Logger) *HandoverController {
	return &HandoverController{handoverService: handoverService, logger: logger}
}

// signedDocument достаёт необязательный скан подписанного акта из поля "file".
func (c *HandoverController) signedDocument(ctx echo.Context) (*services.SignedDocument, func(), error) {
	fileHeader, src, err := uploadedFile(ctx, "file", config.UploadHandoverDocument)
	if err != nil || fileHeader == nil {
		return nil, func() {}, err
	}
	return &services.SignedDocument{FileName: fileHeader.Filename, Content: src}, func() { _ = src.Close() }, nil
}

// Issue выдаёт технику сотруднику. Принимает JSON или multipart с полями "data" и "file".
func (c *HandoverController) Issue(ctx echo.Context) error {
	actor, err := utils.GetActorFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var issueDTO dto.IssueDTO
	if err := bindAndValidate(ctx, &issueDTO); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	signed, closeFile, err := c.signedDocument(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	defer closeFile()

	res, err := c.handoverService.Issue(ctx.Request().Context(), actor, issueDTO, signed)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Техника передана сотруднику", http.StatusCreated)
}

func (c *HandoverController) Return(ctx echo.Context) error {
	actor, err := utils.GetActorFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var returnDTO dto.ReturnDTO
	if err := bindAndValidate(ctx, &returnDTO); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	signed, closeFile, err := c.signedDocument(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	defer closeFile()

	res, err := c.handoverService.Return(ctx.Request().Context(), actor, returnDTO, signed)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Техника возвращена на склад", http.StatusCreated)
}

// Certificate отдаёт PDF акта для печати и подписи.
func (c *HandoverController) Certificate(ctx echo.Context) error {
	var certDTO dto.CertificateDTO
	if err := bindAndValidate(ctx, &certDTO); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var buf bytes.Buffer
	if err := c.handoverService.Preview(ctx.Request().Context(), &buf, certDTO); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	fileName := fmt.Sprintf("akt_%s_%s.pdf", certDTO.Direction, time.Now().Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s"`, fileName))
	return ctx.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}

// Document отдаёт архивный акт по пути из записи о передаче или приёмке.
func (c *HandoverController) Document(ctx echo.Context) error {
	documentPath := ctx.Param("*")
	rc, contentType, err := c.handoverService.OpenDocument(ctx.Request().Context(), documentPath)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	defer rc.Close()

	header := ctx.Response().Header()
	header.Set(echo.HeaderXContentTypeOptions, "nosniff")
	header.Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, path.Base(documentPath)))
	return ctx.Stream(http.StatusOK, contentType, rc)
}

package controllers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	apperrors "it-inventory/pkg/errors"
	"it-inventory/pkg/validation"

	"github.com/labstack/echo/v4"
)

func parseID(ctx echo.Context, param string) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param(param), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewHttpError(
			http.StatusBadRequest,
			"Неверный формат ID",
			apperrors.ErrBadRequest,
			map[string]interface{}{"param": ctx.Param(param)},
		)
	}
	return id, nil
}

// bindAndValidate читает тело запроса. Для multipart/form-data JSON берётся из поля "data".
func bindAndValidate(ctx echo.Context, dst interface{}) error {
	if dataString := ctx.FormValue("data"); dataString != "" {
		if err := json.Unmarshal([]byte(dataString), dst); err != nil {
			return apperrors.NewHttpError(http.StatusBadRequest, "некорректный JSON в поле 'data'", err, nil)
		}
	} else if err := ctx.Bind(dst); err != nil {
		return apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных в теле запроса", err, nil)
	}
	return ctx.Validate(dst)
}

// uploadedFile открывает необязательный файл из поля field и проверяет его по правилам контекста.
// Вызывающий закрывает файл.
func uploadedFile(ctx echo.Context, field, uploadContext string) (*multipart.FileHeader, multipart.File, error) {
	fileHeader, err := ctx.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, nil
		}
		return nil, nil, apperrors.NewHttpError(http.StatusBadRequest, "Файл не был передан", err, nil)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, nil, apperrors.NewHttpError(http.StatusInternalServerError, "Ошибка обработки файла", err, nil)
	}
	if err := validation.ValidateFile(fileHeader.Size, src, uploadContext); err != nil {
		_ = src.Close()
		return nil, nil, apperrors.NewHttpError(http.StatusBadRequest, err.Error(), apperrors.ErrBadRequest, nil)
	}
	return fileHeader, src, nil
}

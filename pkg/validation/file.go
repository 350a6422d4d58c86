package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"

	"it-inventory/pkg/config"
	apperrors "it-inventory/pkg/errors"
)

// ValidateFile проверяет размер и MIME-тип загружаемого файла.
// contextName - ключ из config.UploadContexts.
func ValidateFile(size int64, file io.ReadSeeker, contextName string) error {
	rules, ok := config.UploadContexts[contextName]
	if !ok {
		return fmt.Errorf("внутренняя ошибка: неизвестный контекст загрузки '%s'", contextName)
	}

	if rules.MaxSizeMB > 0 {
		maxSizeBytes := rules.MaxSizeMB * 1024 * 1024
		if size > maxSizeBytes {
			return fmt.Errorf("размер файла (%.2f MB) превышает лимит в %d MB", float64(size)/1024/1024, rules.MaxSizeMB)
		}
	}

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("ошибка чтения файла")
	}

	// Курсор нужно вернуть в начало, файл читается дальше целиком.
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("ошибка обработки файла")
	}

	mimeType := http.DetectContentType(buffer[:n])
	if !slices.Contains(rules.AllowedMimeTypes, mimeType) {
		return fmt.Errorf("недопустимый формат файла: %s", mimeType)
	}

	return nil
}

// DetectExtension определяет расширение файла по его содержимому.
// Прочитанное начало файла возвращается вместе с остатком в новом io.Reader.
func DetectExtension(file io.Reader, contextName string) (string, io.Reader, error) {
	rules, ok := config.UploadContexts[contextName]
	if !ok {
		return "", nil, fmt.Errorf("внутренняя ошибка: неизвестный контекст загрузки '%s'", contextName)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, fmt.Errorf("ошибка чтения файла: %w", err)
	}

	mimeType := http.DetectContentType(head[:n])
	ext, ok := rules.Extensions[mimeType]
	if !ok {
		return "", nil, apperrors.NewInvalidInputError("недопустимый формат файла: %s", mimeType)
	}
	return ext, io.MultiReader(bytes.NewReader(head[:n]), file), nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"it-inventory/internal/dto"
	"it-inventory/internal/entities"
	"it-inventory/internal/repositories"
	apperrors "it-inventory/pkg/errors"
	"it-inventory/pkg/types"

	"github.com/aarondl/null/v8"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Таблицы, доступные для выгрузки.
const (
	ExportEquipment = "equipment"
	ExportCustody   = "custody"
	ExportTransfers = "transfers"
	ExportHistory   = "history"
	ExportUsers     = "users"
)

type ExcelServiceInterface interface {
	ImportEquipment(ctx context.Context, actor entities.Actor, file io.Reader) (*dto.ImportResultDTO, error)
	Export(ctx context.Context, table string, filter types.Filter, w io.Writer) error
}

type ExcelService struct {
	equipment     EquipmentServiceInterface
	validator     echo.Validator
	equipmentRepo repositories.EquipmentRepositoryInterface
	custodyRepo   repositories.CustodyRepositoryInterface
	transferRepo  repositories.TransferRepositoryInterface
	historyRepo   repositories.HistoryRepositoryInterface
	userRepo      repositories.UserRepositoryInterface
	logger        *zap.Logger
}

func NewExcelService(
	equipment EquipmentServiceInterface,
	validator echo.Validator,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	custodyRepo repositories.CustodyRepositoryInterface,
	transferRepo repositories.TransferRepositoryInterface,
	historyRepo repositories.HistoryRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	logger *zap.Logger,
) ExcelServiceInterface {
	return &ExcelService{
		equipment:     equipment,
		validator:     validator,
		equipmentRepo: equipmentRepo,
		custodyRepo:   custodyRepo,
		transferRepo:  transferRepo,
		historyRepo:   historyRepo,
		userRepo:      userRepo,
		logger:        logger,
	}
}

// Допустимые заголовки колонок импорта.
var importHeaders = map[string]string{
	"name":              "name",
	"equipment_name":    "name",
	"наименование":      "name",
	"inventory_number":  "inventory_number",
	"инвентарный номер": "inventory_number",
	"serial_number":     "serial_number",
	"серийный номер":    "serial_number",
	"mac_address":       "mac_address",
	"mac":               "mac_address",
	"mac-адрес":         "mac_address",
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ImportEquipment создаёт технику построчно. Каждая строка - отдельная транзакция,
// ошибка в строке не отменяет остальные.
func (s *ExcelService) ImportEquipment(ctx context.Context, actor entities.Actor, file io.Reader) (*dto.ImportResultDTO, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("не удалось прочитать файл Excel: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewInvalidInputError("в файле нет листов")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("чтение листа %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewInvalidInputError("файл пуст")
	}

	idx := map[string]int{"name": -1, "inventory_number": -1, "serial_number": -1, "mac_address": -1}
	for i, h := range rows[0] {
		if col, ok := importHeaders[strings.ToLower(strings.TrimSpace(h))]; ok {
			idx[col] = i
		}
	}
	for _, col := range []string{"name", "inventory_number", "serial_number"} {
		if idx[col] < 0 {
			return nil, apperrors.NewInvalidInputError("в файле нет колонки %s", col)
		}
	}

	result := &dto.ImportResultDTO{Errors: []string{}}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		createDTO := dto.CreateEquipmentDTO{
			Name:            cell(row, idx["name"]),
			InventoryNumber: cell(row, idx["inventory_number"]),
			SerialNumber:    cell(row, idx["serial_number"]),
		}
		if mac := cell(row, idx["mac_address"]); mac != "" {
			createDTO.MacAddress = null.StringFrom(mac)
		}
		if createDTO.Name == "" && createDTO.InventoryNumber == "" && createDTO.SerialNumber == "" {
			continue
		}

		inv := createDTO.InventoryNumber
		if inv == "" {
			inv = "не указан"
		}
		if err := s.validator.Validate(createDTO); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Строка %d (inventory_number: %s): %s", i+1, inv, describeValidation(err)))
			continue
		}
		if _, err := s.equipment.Create(ctx, actor, createDTO); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Строка %d (inventory_number: %s): %s", i+1, inv, err.Error()))
			continue
		}
		result.Created++
	}

	s.logger.Info("импорт техники завершён",
		zap.Int("created", result.Created),
		zap.Int("errors", len(result.Errors)),
		zap.Uint64("actorID", actor.ID),
	)
	return result, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
	}
	return "неверные поля - " + strings.Join(fields, ", ")
}

const exportDateFormat = "02.01.2006 15:04"

type sheetData struct {
	name    string
	headers []interface{}
	rows    [][]interface{}
}

// Export выгружает таблицу целиком (без пагинации) с учётом периода из filter.
func (s *ExcelService) Export(ctx context.Context, table string, filter types.Filter, w io.Writer) error {
	filter.WithPagination = false
	filter.Limit, filter.Offset = 0, 0

	data, err := s.collect(ctx, table, filter)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", data.name); err != nil {
		return err
	}
	if err := f.SetSheetRow(data.name, "A1", &data.headers); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastCol, _ := excelize.CoordinatesToCellName(len(data.headers), 1)
	if err := f.SetCellStyle(data.name, "A1", lastCol, style); err != nil {
		return err
	}

	for i := range data.rows {
		addr, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(data.name, addr, &data.rows[i]); err != nil {
			return err
		}
	}
	lastColName, _ := excelize.ColumnNumberToName(len(data.headers))
	_ = f.SetColWidth(data.name, "A", lastColName, 22)

	return f.Write(w)
}

func formatTime(t time.Time) string {
	return t.Format(exportDateFormat)
}

func (s *ExcelService) collect(ctx context.Context, table string, filter types.Filter) (*sheetData, error) {
	switch table {
	case ExportEquipment:
		items, _, err := s.equipmentRepo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		data := &sheetData{name: "Техника", headers: []interface{}{"№", "Наименование", "Инв. номер", "Серийный номер", "MAC-адрес", "Статус", "Создано"}}
		for i, e := range items {
			data.rows = append(data.rows, []interface{}{i + 1, e.Name, e.InventoryNumber, e.SerialNumber, e.MacAddress.String, e.Status.Label(), formatTime(e.CreatedAt)})
		}
		return data, nil

	case ExportCustody:
		items, _, err := s.custodyRepo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		data := &sheetData{name: "Склад", headers: []interface{}{"№", "Наименование", "Инв. номер", "Серийный номер", "MAC-адрес", "Подразделение", "Принято"}}
		for i, c := range items {
			data.rows = append(data.rows, []interface{}{i + 1, c.EquipmentName, c.InventoryNumber, c.SerialNumber, c.MacAddress.String, c.Department, formatTime(c.CreatedAt)})
		}
		return data, nil

	case ExportTransfers:
		items, _, err := s.transferRepo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		data := &sheetData{name: "Выдано", headers: []interface{}{"№", "ФИО", "Департамент", "Отдел", "Должность", "Наименование", "Инв. номер", "Серийный номер", "Выдано"}}
		for i, t := range items {
			data.rows = append(data.rows, []interface{}{i + 1, t.FullName, t.Department, t.Division.String, t.Position.String, t.EquipmentName, t.InventoryNumber, t.SerialNumber, formatTime(t.CreatedAt)})
		}
		return data, nil

	case ExportHistory:
		items, _, err := s.historyRepo.List(ctx, repositories.HistoryFilter{Filter: filter})
		if err != nil {
			return nil, err
		}
		data := &sheetData{name: "История", headers: []interface{}{"№", "Дата", "Пользователь", "Действие", "Объект", "ID объекта", "Описание"}}
		for i, h := range items {
			data.rows = append(data.rows, []interface{}{i + 1, formatTime(h.CreatedAt), h.ActorName, string(h.Action), string(h.EntityType), h.EntityID, h.Description})
		}
		return data, nil

	case ExportUsers:
		items, _, err := s.userRepo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		data := &sheetData{name: "Пользователи", headers: []interface{}{"№", "Логин", "Роль", "Статус", "Создан"}}
		for i, u := range items {
			data.rows = append(data.rows, []interface{}{i + 1, u.Username, string(u.Role), string(u.Status), formatTime(u.CreatedAt)})
		}
		return data, nil
	}
	return nil, apperrors.NewInvalidInputError("таблица %q не поддерживает выгрузку", table)
}

package dto

import (
	"it-inventory/internal/entities"

	"github.com/aarondl/null/v8"
)

type EmployeeDTO struct {
	FullName          string      `json:"full_name"           validate:"required,not_blank,max=255"`
	ShortName         string      `json:"short_name"          validate:"required,not_blank,max=100"`
	Department        string      `json:"department"          validate:"required,not_blank,max=255"`
	Division          null.String `json:"division"            validate:"omitempty,max=255"`
	Position          null.String `json:"position"            validate:"omitempty,max=255"`
	PassportNumber    null.String `json:"passport_number"     validate:"omitempty,max=20"`
	PassportIssueDate null.Time   `json:"passport_issue_date"`
	PassportIssuedBy  null.String `json:"passport_issued_by"  validate:"omitempty,max=255"`
}

func (d EmployeeDTO) ToEntity() entities.Employee {
	return entities.Employee{
		FullName:          d.FullName,
		ShortName:         d.ShortName,
		Department:        d.Department,
		Division:          d.Division,
		Position:          d.Position,
		PassportNumber:    d.PassportNumber,
		PassportIssueDate: d.PassportIssueDate,
		PassportIssuedBy:  d.PassportIssuedBy,
	}
}

// IssueDTO - выдача техники со склада сотруднику.
type IssueDTO struct {
	InventoryNumber string      `json:"inventory_number" validate:"required,not_blank"`
	EquipmentName   string      `json:"equipment_name"   validate:"required,not_blank"`
	Employee        EmployeeDTO `json:"employee"`
}

func (d IssueDTO) Ref() entities.CustodyRef {
	return entities.CustodyRef{InventoryNumber: d.InventoryNumber, EquipmentName: d.EquipmentName}
}

// ReturnDTO - возврат техники от сотрудника на склад.
type ReturnDTO struct {
	TransferID      uint64 `json:"transfer_id"      validate:"required,gt=0"`
	InventoryNumber string `json:"inventory_number" validate:"required,not_blank"`
	EquipmentName   string `json:"equipment_name"   validate:"required,not_blank"`
}

func (d ReturnDTO) Ref() entities.TransferRef {
	return entities.TransferRef{ID: d.TransferID, InventoryNumber: d.InventoryNumber, EquipmentName: d.EquipmentName}
}

// CertificateDTO - предпросмотр акта без изменения учёта.
type CertificateDTO struct {
	Direction       string      `json:"direction"        validate:"required,oneof=issue return"`
	InventoryNumber string      `json:"inventory_number" validate:"required,not_blank"`
	EquipmentName   string      `json:"equipment_name"   validate:"required,not_blank"`
	SerialNumber    string      `json:"serial_number"`
	Employee        EmployeeDTO `json:"employee"`
}

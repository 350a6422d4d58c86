package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// ITSupportDepartment - подразделение, за которым числится техника на складе.
const ITSupportDepartment = "ИТ Суппорт"

// CustodyRecord - техника на складе ИТ. Хранит снимок данных техники на момент приёма.
type CustodyRecord struct {
	ID              uint64      `json:"id"`
	EquipmentID     uint64      `json:"equipment_id"`
	EquipmentName   string      `json:"equipment_name"`
	InventoryNumber string      `json:"inventory_number"`
	SerialNumber    string      `json:"serial_number"`
	MacAddress      null.String `json:"mac_address"`
	Department      string      `json:"department"`
	DocumentPath    null.String `json:"document_path"`
	ActorID         uint64      `json:"actor_id"`
	CreatedAt       time.Time   `json:"created_at"`
}

type Employee struct {
	FullName          string      `json:"full_name"`
	ShortName         string      `json:"short_name"`
	Department        string      `json:"department"`
	Division          null.String `json:"division"`
	Position          null.String `json:"position"`
	PassportNumber    null.String `json:"passport_number"`
	PassportIssueDate null.Time   `json:"passport_issue_date"`
	PassportIssuedBy  null.String `json:"passport_issued_by"`
}

// TransferRecord - техника, выданная сотруднику.
type TransferRecord struct {
	ID uint64 `json:"id"`
	Employee
	EquipmentID     uint64      `json:"equipment_id"`
	EquipmentName   string      `json:"equipment_name"`
	InventoryNumber string      `json:"inventory_number"`
	SerialNumber    string      `json:"serial_number"`
	MacAddress      null.String `json:"mac_address"`
	DocumentPath    string      `json:"document_path"`
	ActorID         uint64      `json:"actor_id"`
	CreatedAt       time.Time   `json:"created_at"`
}

// CustodyRef указывает на запись склада, которую нужно выдать.
type CustodyRef struct {
	InventoryNumber string
	EquipmentName   string
}

// TransferRef указывает на запись о выдаче, которую нужно вернуть.
type TransferRef struct {
	ID              uint64
	InventoryNumber string
	EquipmentName   string
}

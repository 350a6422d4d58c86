package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

type EquipmentStatus string

const (
	StatusInService      EquipmentStatus = "in_service"
	StatusInRepair       EquipmentStatus = "in_repair"
	StatusDecommissioned EquipmentStatus = "decommissioned"
)

func (s EquipmentStatus) Valid() bool {
	switch s {
	case StatusInService, StatusInRepair, StatusDecommissioned:
		return true
	}
	return false
}

// Label возвращает название статуса так, как его видят пользователи и журнал.
func (s EquipmentStatus) Label() string {
	switch s {
	case StatusInService:
		return "В рабочем состоянии"
	case StatusInRepair:
		return "В ремонте"
	case StatusDecommissioned:
		return "В нерабочем состоянии"
	}
	return string(s)
}

// CanTransitionTo: в ремонт и обратно в работу можно из любого другого статуса,
// списать можно только работающую или ремонтируемую технику.
func (s EquipmentStatus) CanTransitionTo(to EquipmentStatus) bool {
	switch to {
	case StatusInService:
		return s == StatusInRepair || s == StatusDecommissioned
	case StatusInRepair:
		return s == StatusInService || s == StatusDecommissioned
	case StatusDecommissioned:
		return s == StatusInService || s == StatusInRepair
	}
	return false
}

type Equipment struct {
	ID              uint64          `json:"id"`
	Name            string          `json:"name"`
	InventoryNumber string          `json:"inventory_number"`
	SerialNumber    string          `json:"serial_number"`
	MacAddress      null.String     `json:"mac_address"`
	Status          EquipmentStatus `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

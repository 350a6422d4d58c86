package dto

import "github.com/aarondl/null/v8"

type CreateEquipmentDTO struct {
	Name            string      `json:"name"             validate:"required,not_blank,max=255"`
	InventoryNumber string      `json:"inventory_number" validate:"required,inventory_number,max=100"`
	SerialNumber    string      `json:"serial_number"    validate:"required,not_blank,max=100"`
	MacAddress      null.String `json:"mac_address"      validate:"omitempty,mac_address"`
}

// UpdateEquipmentDTO - частичное обновление. Пустой mac_address удаляет адрес.
type UpdateEquipmentDTO struct {
	Name            *string `json:"name,omitempty"             validate:"omitempty,not_blank,max=255"`
	InventoryNumber *string `json:"inventory_number,omitempty" validate:"omitempty,inventory_number,max=100"`
	SerialNumber    *string `json:"serial_number,omitempty"    validate:"omitempty,not_blank,max=100"`
	MacAddress      *string `json:"mac_address,omitempty"      validate:"omitempty,mac_address"`
}

type ImportResultDTO struct {
	Created int      `json:"created"`
	Errors  []string `json:"errors"`
}

package entities

import "time"

type HistoryAction string

const (
	ActionCreate   HistoryAction = "create"
	ActionUpdate   HistoryAction = "update"
	ActionDelete   HistoryAction = "delete"
	ActionTransfer HistoryAction = "transfer"
	ActionAccept   HistoryAction = "accept"
	ActionLogin    HistoryAction = "login"
)

func (a HistoryAction) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionTransfer, ActionAccept, ActionLogin:
		return true
	}
	return false
}

type EntityType string

const (
	EntityEquipment EntityType = "equipment"
	EntityUser      EntityType = "user"
)

func (t EntityType) Valid() bool {
	switch t {
	case EntityEquipment, EntityUser:
		return true
	}
	return false
}

// HistoryEntry - неизменяемая запись журнала аудита.
type HistoryEntry struct {
	ID          uint64        `json:"id"`
	EntityType  EntityType    `json:"entity_type"`
	EntityID    uint64        `json:"entity_id"`
	ActorID     uint64        `json:"actor_id"`
	ActorName   string        `json:"actor_name"`
	Action      HistoryAction `json:"action"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"created_at"`
}

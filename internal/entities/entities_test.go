package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEquipmentStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to EquipmentStatus
		allowed  bool
	}{
		{StatusInRepair, StatusInService, true},
		{StatusDecommissioned, StatusInService, true},
		{StatusInService, StatusInService, false},
		{StatusInService, StatusInRepair, true},
		{StatusDecommissioned, StatusInRepair, true},
		{StatusInRepair, StatusInRepair, false},
		{StatusInService, StatusDecommissioned, true},
		{StatusInRepair, StatusDecommissioned, true},
		{StatusDecommissioned, StatusDecommissioned, false},
		{StatusInService, EquipmentStatus("lost"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, StatusInRepair.Valid())
	assert.False(t, EquipmentStatus("broken").Valid())
	assert.Equal(t, "В ремонте", StatusInRepair.Label())
	assert.Equal(t, "broken", EquipmentStatus("broken").Label())

	assert.True(t, ActionAccept.Valid())
	assert.False(t, HistoryAction("purge").Valid())
	assert.True(t, EntityUser.Valid())
	assert.False(t, EntityType("order").Valid())
	assert.True(t, RoleOperator.Valid())
	assert.False(t, UserStatus("banned").Valid())
}

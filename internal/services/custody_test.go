package services

import (
	"context"
	"testing"

	"it-inventory/internal/entities"
	apperrors "it-inventory/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var laptopRef = entities.CustodyRef{InventoryNumber: "INV-001", EquipmentName: "Laptop-7"}

func TestCustody_IssueAndReturnScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	e := env.intake(t, "Laptop-7", "INV-001", "SN-001", "AA:BB:CC")
	equipment, custody, transfers, history := env.db.counts()
	require.Equal(t, []int{1, 1, 0, 1}, []int{equipment, custody, transfers, history})

	transfer, err := env.custody.IssueToEmployee(ctx, operator, laptopRef, ivanov(), env.stageDocument(t))
	require.NoError(t, err)
	assert.Equal(t, "INV-001", transfer.InventoryNumber)
	assert.Equal(t, "Ivanov", transfer.ShortName)
	assert.Equal(t, e.ID, transfer.EquipmentID)
	assert.Contains(t, transfer.DocumentPath, "transferred/ivanov/")

	_, err = env.custody.FindCustody(ctx, laptopRef)
	assert.ErrorIs(t, err, apperrors.ErrNoMatchingCustodyRecord)
	_, custody, transfers, history = env.db.counts()
	require.Equal(t, []int{0, 1, 2}, []int{custody, transfers, history})
	requireLedgerConsistent(t, env.db)

	rec, err := env.custody.ReturnFromEmployee(ctx, operator, entities.TransferRef{
		ID: transfer.ID, InventoryNumber: "INV-001", EquipmentName: "Laptop-7",
	}, env.stageDocument(t))
	require.NoError(t, err)
	assert.Equal(t, entities.ITSupportDepartment, rec.Department)
	assert.True(t, rec.DocumentPath.Valid)
	assert.Contains(t, rec.DocumentPath.String, "acception/")

	_, custody, transfers, history = env.db.counts()
	require.Equal(t, []int{1, 0, 3}, []int{custody, transfers, history})
	requireLedgerConsistent(t, env.db)

	entries := env.db.historyFor(e.ID)
	require.Len(t, entries, 3)
	assert.Equal(t, []entities.HistoryAction{entities.ActionCreate, entities.ActionTransfer, entities.ActionAccept},
		[]entities.HistoryAction{entries[0].Action, entries[1].Action, entries[2].Action})

	stored, err := env.equipment.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusInService, stored.Status)
}

func TestCustody_IssueWithoutCustodyRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.intake(t, "Laptop-7", "INV-001", "SN-001", "")
	staged := env.stageDocument(t)

	_, err := env.custody.IssueToEmployee(ctx, operator, entities.CustodyRef{InventoryNumber: "INV-404", EquipmentName: "Laptop-7"}, ivanov(), staged)
	require.ErrorIs(t, err, apperrors.ErrNoMatchingCustodyRecord)

	// Наименование тоже должно совпасть.
	_, err = env.custody.IssueToEmployee(ctx, operator, entities.CustodyRef{InventoryNumber: "INV-001", EquipmentName: "Laptop-8"}, ivanov(), staged)
	require.ErrorIs(t, err, apperrors.ErrNoMatchingCustodyRecord)

	_, custody, transfers, history := env.db.counts()
	assert.Equal(t, []int{1, 0, 1}, []int{custody, transfers, history})
	assert.Empty(t, env.storage.filesIn(TransferredDir))
}

func TestCustody_IssueTwiceFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.intake(t, "Laptop-7", "INV-001", "SN-001", "")

	_, err := env.custody.IssueToEmployee(ctx, operator, laptopRef, ivanov(), env.stageDocument(t))
	require.NoError(t, err)
	_, err = env.custody.IssueToEmployee(ctx, operator, laptopRef, ivanov(), env.stageDocument(t))
	require.ErrorIs(t, err, apperrors.ErrNoMatchingCustodyRecord)

	requireLedgerConsistent(t, env.db)
	assert.Len(t, env.storage.filesIn(TransferredDir), 1)
}

func TestCustody_IssueRequiresWorkingEquipment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	e := env.intake(t, "Laptop-7", "INV-001", "SN-001", "")
	_, err := env.lifecycle.SendToRepair(ctx, operator, e.ID)
	require.NoError(t, err)

	_, err = env.custody.IssueToEmployee(ctx, operator, laptopRef, ivanov(), env.stageDocument(t))

	var transition *apperrors.InvalidTransitionError
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, string(entities.StatusInRepair), transition.From)
	assert.Equal(t, "issued", transition.To)
	_, custody, transfers, _ := env.db.counts()
	assert.Equal(t, []int{1, 0}, []int{custody, transfers})
}

func TestCustody_CopyFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	env.intake(t, "Laptop-7", "INV-001", "SN-001", "")
	staged := env.stageDocument(t)
	env.storage.fail("copy", assert.AnError)

	_, err := env.custody.IssueToEmployee(context.Background(), operator, laptopRef, ivanov(), staged)

	require.ErrorIs(t, err, apperrors.ErrStorage)
	require.ErrorIs(t, err, assert.AnError)
	_, custody, transfers, history := env.db.counts()
	assert.Equal(t, []int{1, 0, 1}, []int{custody, transfers, history})
}

func TestCustody_FailureAfterCopyDeletesArchivedDocument(t *testing.T) {
	env := newTestEnv(t)
	env.intake(t, "Laptop-7", "INV-001", "SN-001", "")
	staged := env.stageDocument(t)
	env.db.failHistory = assert.AnError

	_, err := env.custody.IssueToEmployee(context.Background(), operator, laptopRef, ivanov(), staged)

	require.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, env.storage.filesIn(TransferredDir))
	require.Len(t, env.storage.deleted, 1)
	assert.Contains(t, env.storage.deleted[0], TransferredDir+"/ivanov/")

	_, custody, transfers, history := env.db.counts()
	assert.Equal(t, []int{1, 0, 1}, []int{custody, transfers, history})
	requireLedgerConsistent(t, env.db)
}

func TestCustody_ReturnRequiresFullReference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.intake(t, "Laptop-7", "INV-001", "SN-001", "")
	transfer, err := env.custody.IssueToEmployee(ctx, operator, laptopRef, ivanov(), env.stageDocument(t))
	require.NoError(t, err)

	_, err = env.custody.ReturnFromEmployee(ctx, operator, entities.TransferRef{
		ID: transfer.ID, InventoryNumber: "INV-002", EquipmentName: "Laptop-7",
	}, env.stageDocument(t))
	require.ErrorIs(t, err, apperrors.ErrNoMatchingTransferRecord)

	_, custody, transfers, history := env.db.counts()
	assert.Equal(t, []int{0, 1, 2}, []int{custody, transfers, history})
	assert.Empty(t, env.storage.filesIn(AcceptionDir))
}

func TestCustody_LedgerStaysConsistent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	items := []struct{ name, inv, serial string }{
		{"Laptop-1", "INV-001", "SN-001"},
		{"Laptop-2", "INV-002", "SN-002"},
		{"Monitor", "INV-003", "SN-003"},
	}
	for _, it := range items {
		env.intake(t, it.name, it.inv, it.serial, "")
	}

	issued := map[string]*entities.TransferRecord{}
	for round := 0; round < 3; round++ {
		for _, it := range items {
			if tr, ok := issued[it.inv]; ok {
				_, err := env.custody.ReturnFromEmployee(ctx, operator, entities.TransferRef{
					ID: tr.ID, InventoryNumber: it.inv, EquipmentName: it.name,
				}, env.stageDocument(t))
				require.NoError(t, err)
				delete(issued, it.inv)
			} else if (round+len(it.inv))%2 == 0 || round == 0 {
				tr, err := env.custody.IssueToEmployee(ctx, operator,
					entities.CustodyRef{InventoryNumber: it.inv, EquipmentName: it.name}, ivanov(), env.stageDocument(t))
				require.NoError(t, err)
				issued[it.inv] = tr
			}
			requireLedgerConsistent(t, env.db)
		}
	}
}

func TestCustody_Lists(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.intake(t, "Laptop-7", "INV-001", "SN-001", "")
	env.intake(t, "Laptop-8", "INV-002", "SN-002", "")
	_, err := env.custody.IssueToEmployee(ctx, operator, laptopRef, ivanov(), env.stageDocument(t))
	require.NoError(t, err)

	custody, err := env.custody.ListCustody(ctx, testFilter())
	require.NoError(t, err)
	require.Len(t, custody.Items, 1)
	assert.Equal(t, "INV-002", custody.Items[0].InventoryNumber)

	transfers, err := env.custody.ListTransfers(ctx, testFilter())
	require.NoError(t, err)
	require.Len(t, transfers.Items, 1)
	assert.Equal(t, uint64(1), transfers.Pagination.TotalCount)
}

package services

import (
	"context"
	"strings"
	"testing"

	"it-inventory/internal/dto"
	"it-inventory/internal/entities"
	"it-inventory/pkg/config"
	"it-inventory/pkg/metrics"
	"it-inventory/pkg/types"

	"github.com/aarondl/null/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var operator = entities.Actor{ID: 100, Username: "operator", Role: entities.RoleOperator}

var stagingDir = config.UploadContexts[config.UploadHandoverDocument].PathPrefix

type testEnv struct {
	db       *memDB
	storage  *memStorage
	renderer *stubRenderer
	metrics  *metrics.Metrics

	equipmentRepo *memEquipmentRepo
	custodyRepo   *memCustodyRepo
	transferRepo  *memTransferRepo
	historyRepo   *memHistoryRepo
	userRepo      *memUserRepo

	audit     AuditServiceInterface
	custody   CustodyServiceInterface
	equipment EquipmentServiceInterface
	lifecycle LifecycleServiceInterface
	handover  HandoverServiceInterface
	history   HistoryServiceInterface
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newMemDB()
	env := &testEnv{
		db:            db,
		storage:       newMemStorage(),
		renderer:      &stubRenderer{},
		metrics:       metrics.New(prometheus.NewRegistry()),
		equipmentRepo: &memEquipmentRepo{db: db},
		custodyRepo:   &memCustodyRepo{db: db},
		transferRepo:  &memTransferRepo{db: db},
		historyRepo:   &memHistoryRepo{db: db},
		userRepo:      &memUserRepo{db: db},
	}
	txManager := &memTxManager{db: db}
	logger := zap.NewNop()

	env.audit = NewAuditService(env.historyRepo, logger)
	env.custody = NewCustodyService(txManager, env.custodyRepo, env.transferRepo, env.equipmentRepo,
		env.audit, env.storage, env.metrics, logger)
	env.equipment = NewEquipmentService(txManager, env.equipmentRepo, env.custody, env.audit, logger)
	env.lifecycle = NewLifecycleService(txManager, env.equipmentRepo, env.custodyRepo, env.audit, env.metrics, logger)
	env.handover = NewHandoverService(env.custody, env.renderer, env.storage, config.PDFConfig{
		IssuerName:     "Петров П.П.",
		IssuerPosition: "Специалист ИТ Суппорт",
		Organization:   "ЗАО «Банк»",
	}, logger)
	env.history = NewHistoryService(env.historyRepo, logger)
	return env
}

func (env *testEnv) intake(t *testing.T, name, inv, serial, mac string) *entities.Equipment {
	t.Helper()
	createDTO := dto.CreateEquipmentDTO{Name: name, InventoryNumber: inv, SerialNumber: serial}
	if mac != "" {
		createDTO.MacAddress = null.StringFrom(mac)
	}
	e, err := env.equipment.Create(context.Background(), operator, createDTO)
	require.NoError(t, err)
	return e
}

// stageDocument кладёт акт во временный каталог, как это делает HandoverService.
func (env *testEnv) stageDocument(t *testing.T) string {
	t.Helper()
	p, err := env.storage.Save(strings.NewReader("%PDF-1.3 signed"), "act.pdf", stagingDir)
	require.NoError(t, err)
	return p
}

func ivanov() entities.Employee {
	return entities.Employee{
		FullName:   "Иванов Иван Иванович",
		ShortName:  "Ivanov",
		Department: "Бухгалтерия",
		Position:   null.StringFrom("Бухгалтер"),
	}
}

// requireLedgerConsistent: каждая техника числится ровно в одном месте.
func requireLedgerConsistent(t *testing.T, db *memDB) {
	t.Helper()
	db.mu.Lock()
	defer db.mu.Unlock()

	where := map[string]int{}
	for _, c := range db.custody {
		where[c.InventoryNumber]++
	}
	for _, tr := range db.transfers {
		where[tr.InventoryNumber]++
	}
	for _, e := range db.equipment {
		require.Equal(t, 1, where[e.InventoryNumber], "инв. № %s", e.InventoryNumber)
	}
	require.Len(t, where, len(db.equipment))
}

func testFilter() types.Filter {
	return types.Filter{Page: 1, Limit: 10, WithPagination: true}
}

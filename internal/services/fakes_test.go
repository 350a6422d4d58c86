package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"it-inventory/internal/entities"
	"it-inventory/internal/repositories"
	apperrors "it-inventory/pkg/errors"
	"it-inventory/pkg/pdf"
	"it-inventory/pkg/types"

	"github.com/jackc/pgx/v5"
)

// memDB - таблицы в памяти. Транзакции выполняются по одной под mu,
// при ошибке состояние откатывается к снимку.
type memDB struct {
	mu        sync.Mutex
	nextID    uint64
	equipment map[uint64]entities.Equipment
	custody   map[uint64]entities.CustodyRecord
	transfers map[uint64]entities.TransferRecord
	users     map[uint64]entities.User
	history   []entities.HistoryEntry

	// failHistory заставляет следующую запись журнала вернуть ошибку.
	failHistory error
}

func newMemDB() *memDB {
	return &memDB{
		equipment: map[uint64]entities.Equipment{},
		custody:   map[uint64]entities.CustodyRecord{},
		transfers: map[uint64]entities.TransferRecord{},
		users:     map[uint64]entities.User{},
	}
}

func (db *memDB) id() uint64 {
	db.nextID++
	return db.nextID
}

type memSnapshot struct {
	nextID    uint64
	equipment map[uint64]entities.Equipment
	custody   map[uint64]entities.CustodyRecord
	transfers map[uint64]entities.TransferRecord
	users     map[uint64]entities.User
	history   []entities.HistoryEntry
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (db *memDB) snapshot() memSnapshot {
	return memSnapshot{
		nextID:    db.nextID,
		equipment: cloneMap(db.equipment),
		custody:   cloneMap(db.custody),
		transfers: cloneMap(db.transfers),
		users:     cloneMap(db.users),
		history:   append([]entities.HistoryEntry(nil), db.history...),
	}
}

func (db *memDB) restore(s memSnapshot) {
	db.nextID = s.nextID
	db.equipment = s.equipment
	db.custody = s.custody
	db.transfers = s.transfers
	db.users = s.users
	db.history = s.history
}

// counts возвращает размеры таблиц без блокировки транзакций; вызывать между операциями.
func (db *memDB) counts() (equipment, custody, transfers, history int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.equipment), len(db.custody), len(db.transfers), len(db.history)
}

func (db *memDB) historyFor(entityID uint64) []entities.HistoryEntry {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []entities.HistoryEntry
	for _, h := range db.history {
		if h.EntityType == entities.EntityEquipment && h.EntityID == entityID {
			out = append(out, h)
		}
	}
	return out
}

type memTxManager struct {
	db *memDB
}

func (m *memTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	snap := m.db.snapshot()
	if err := fn(nil); err != nil {
		m.db.restore(snap)
		return err
	}
	return nil
}

func sortedValues[V any](m map[uint64]V) []V {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// --- equipment ---

type memEquipmentRepo struct{ db *memDB }

var _ repositories.EquipmentRepositoryInterface = (*memEquipmentRepo)(nil)

func (r *memEquipmentRepo) FindByID(ctx context.Context, id uint64) (*entities.Equipment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.FindByIDInTx(ctx, nil, id)
}

func (r *memEquipmentRepo) List(ctx context.Context, filter types.Filter) ([]entities.Equipment, uint64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	items := sortedValues(r.db.equipment)
	return items, uint64(len(items)), nil
}

func (r *memEquipmentRepo) CreateInTx(ctx context.Context, tx pgx.Tx, e *entities.Equipment) error {
	e.ID = r.db.id()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	r.db.equipment[e.ID] = *e
	return nil
}

func (r *memEquipmentRepo) FindByIDInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	e, ok := r.db.equipment[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &e, nil
}

func (r *memEquipmentRepo) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	return r.FindByIDInTx(ctx, tx, id)
}

func (r *memEquipmentRepo) FindConflictInTx(ctx context.Context, tx pgx.Tx, candidate *entities.Equipment) (*entities.Equipment, error) {
	for _, e := range sortedValues(r.db.equipment) {
		if e.ID == candidate.ID {
			continue
		}
		if e.InventoryNumber == candidate.InventoryNumber || e.SerialNumber == candidate.SerialNumber ||
			(candidate.MacAddress.Valid && e.MacAddress == candidate.MacAddress) {
			return &e, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memEquipmentRepo) UpdateInTx(ctx context.Context, tx pgx.Tx, e *entities.Equipment) error {
	if _, ok := r.db.equipment[e.ID]; !ok {
		return apperrors.ErrNotFound
	}
	e.UpdatedAt = time.Now()
	r.db.equipment[e.ID] = *e
	return nil
}

func (r *memEquipmentRepo) UpdateStatusInTx(ctx context.Context, tx pgx.Tx, id uint64, status entities.EquipmentStatus) error {
	e, ok := r.db.equipment[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	e.Status = status
	r.db.equipment[id] = e
	return nil
}

// --- custody ---

type memCustodyRepo struct{ db *memDB }

var _ repositories.CustodyRepositoryInterface = (*memCustodyRepo)(nil)

func (r *memCustodyRepo) List(ctx context.Context, filter types.Filter) ([]entities.CustodyRecord, uint64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	items := sortedValues(r.db.custody)
	return items, uint64(len(items)), nil
}

func (r *memCustodyRepo) find(match func(entities.CustodyRecord) bool) (*entities.CustodyRecord, error) {
	for _, c := range sortedValues(r.db.custody) {
		if match(c) {
			return &c, nil
		}
	}
	return nil, apperrors.ErrNoMatchingCustodyRecord
}

func (r *memCustodyRepo) byRef(ref entities.CustodyRef) func(entities.CustodyRecord) bool {
	return func(c entities.CustodyRecord) bool {
		return c.InventoryNumber == ref.InventoryNumber && c.EquipmentName == ref.EquipmentName
	}
}

func (r *memCustodyRepo) FindByRef(ctx context.Context, ref entities.CustodyRef) (*entities.CustodyRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.find(r.byRef(ref))
}

func (r *memCustodyRepo) CreateInTx(ctx context.Context, tx pgx.Tx, rec *entities.CustodyRecord) error {
	for _, c := range r.db.custody {
		if c.InventoryNumber == rec.InventoryNumber {
			return &apperrors.DuplicateError{Field: "inventory_number", Value: rec.InventoryNumber}
		}
	}
	rec.ID = r.db.id()
	rec.CreatedAt = time.Now()
	r.db.custody[rec.ID] = *rec
	return nil
}

func (r *memCustodyRepo) FindForUpdate(ctx context.Context, tx pgx.Tx, ref entities.CustodyRef) (*entities.CustodyRecord, error) {
	return r.find(r.byRef(ref))
}

func (r *memCustodyRepo) FindByEquipmentIDForUpdate(ctx context.Context, tx pgx.Tx, equipmentID uint64) (*entities.CustodyRecord, error) {
	return r.find(func(c entities.CustodyRecord) bool { return c.EquipmentID == equipmentID })
}

func (r *memCustodyRepo) DeleteInTx(ctx context.Context, tx pgx.Tx, id uint64) error {
	if _, ok := r.db.custody[id]; !ok {
		return apperrors.ErrNoMatchingCustodyRecord
	}
	delete(r.db.custody, id)
	return nil
}

func (r *memCustodyRepo) UpdateSnapshotInTx(ctx context.Context, tx pgx.Tx, e *entities.Equipment) error {
	for id, c := range r.db.custody {
		if c.EquipmentID == e.ID {
			c.EquipmentName, c.InventoryNumber, c.SerialNumber, c.MacAddress = e.Name, e.InventoryNumber, e.SerialNumber, e.MacAddress
			r.db.custody[id] = c
		}
	}
	return nil
}

// --- transfer ---

type memTransferRepo struct{ db *memDB }

var _ repositories.TransferRepositoryInterface = (*memTransferRepo)(nil)

func (r *memTransferRepo) List(ctx context.Context, filter types.Filter) ([]entities.TransferRecord, uint64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	items := sortedValues(r.db.transfers)
	return items, uint64(len(items)), nil
}

func (r *memTransferRepo) find(ref entities.TransferRef) (*entities.TransferRecord, error) {
	t, ok := r.db.transfers[ref.ID]
	if !ok || t.InventoryNumber != ref.InventoryNumber || t.EquipmentName != ref.EquipmentName {
		return nil, apperrors.ErrNoMatchingTransferRecord
	}
	return &t, nil
}

func (r *memTransferRepo) FindByRef(ctx context.Context, ref entities.TransferRef) (*entities.TransferRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.find(ref)
}

func (r *memTransferRepo) CreateInTx(ctx context.Context, tx pgx.Tx, rec *entities.TransferRecord) error {
	for _, t := range r.db.transfers {
		if t.InventoryNumber == rec.InventoryNumber {
			return &apperrors.DuplicateError{Field: "inventory_number", Value: rec.InventoryNumber}
		}
	}
	rec.ID = r.db.id()
	rec.CreatedAt = time.Now()
	r.db.transfers[rec.ID] = *rec
	return nil
}

func (r *memTransferRepo) FindForUpdate(ctx context.Context, tx pgx.Tx, ref entities.TransferRef) (*entities.TransferRecord, error) {
	return r.find(ref)
}

func (r *memTransferRepo) DeleteInTx(ctx context.Context, tx pgx.Tx, id uint64) error {
	if _, ok := r.db.transfers[id]; !ok {
		return apperrors.ErrNoMatchingTransferRecord
	}
	delete(r.db.transfers, id)
	return nil
}

func (r *memTransferRepo) UpdateSnapshotInTx(ctx context.Context, tx pgx.Tx, e *entities.Equipment) error {
	for id, t := range r.db.transfers {
		if t.EquipmentID == e.ID {
			t.EquipmentName, t.InventoryNumber, t.SerialNumber, t.MacAddress = e.Name, e.InventoryNumber, e.SerialNumber, e.MacAddress
			r.db.transfers[id] = t
		}
	}
	return nil
}

// --- history ---

type memHistoryRepo struct{ db *memDB }

var _ repositories.HistoryRepositoryInterface = (*memHistoryRepo)(nil)

func (r *memHistoryRepo) CreateInTx(ctx context.Context, tx pgx.Tx, entry *entities.HistoryEntry) error {
	if err := r.db.failHistory; err != nil {
		r.db.failHistory = nil
		return err
	}
	entry.ID = r.db.id()
	entry.CreatedAt = time.Now()
	r.db.history = append(r.db.history, *entry)
	return nil
}

func (r *memHistoryRepo) List(ctx context.Context, filter repositories.HistoryFilter) ([]entities.HistoryEntry, uint64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []entities.HistoryEntry
	for _, h := range r.db.history {
		if filter.EntityType != "" && h.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != 0 && h.EntityID != filter.EntityID {
			continue
		}
		if filter.ActorID != 0 && h.ActorID != filter.ActorID {
			continue
		}
		out = append(out, h)
	}
	return out, uint64(len(out)), nil
}

// --- users ---

type memUserRepo struct{ db *memDB }

var _ repositories.UserRepositoryInterface = (*memUserRepo)(nil)

func (r *memUserRepo) FindByID(ctx context.Context, id uint64) (*entities.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.FindByIDForUpdate(ctx, nil, id)
}

func (r *memUserRepo) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if strings.EqualFold(u.Username, username) {
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memUserRepo) List(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	items := sortedValues(r.db.users)
	return items, uint64(len(items)), nil
}

func (r *memUserRepo) CreateInTx(ctx context.Context, tx pgx.Tx, u *entities.User) error {
	u.ID = r.db.id()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.db.users[u.ID] = *u
	return nil
}

func (r *memUserRepo) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error) {
	u, ok := r.db.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (r *memUserRepo) UsernameTakenInTx(ctx context.Context, tx pgx.Tx, username string, exceptID uint64) (bool, error) {
	for _, u := range r.db.users {
		if u.ID != exceptID && strings.EqualFold(u.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) UpdateInTx(ctx context.Context, tx pgx.Tx, u *entities.User) error {
	if _, ok := r.db.users[u.ID]; !ok {
		return apperrors.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	r.db.users[u.ID] = *u
	return nil
}

// --- файлы и акты ---

type memStorage struct {
	mu      sync.Mutex
	n       int
	files   map[string][]byte
	failOps map[string]error
	deleted []string
}

func newMemStorage() *memStorage {
	return &memStorage{files: map[string][]byte{}, failOps: map[string]error{}}
}

func (s *memStorage) Save(file io.Reader, originalFileName string, prefix string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOps["save"]; err != nil {
		return "", err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	s.n++
	p := path.Join(prefix, fmt.Sprintf("%d%s", s.n, path.Ext(originalFileName)))
	s.files[p] = data
	return p, nil
}

func (s *memStorage) Copy(srcPath string, prefix string) (string, error) {
	s.mu.Lock()
	if err := s.failOps["copy"]; err != nil {
		s.mu.Unlock()
		return "", err
	}
	data, ok := s.files[srcPath]
	s.mu.Unlock()
	if !ok {
		return "", errors.New("файл не найден: " + srcPath)
	}
	return s.Save(bytes.NewReader(data), srcPath, prefix)
}

func (s *memStorage) Open(filePath string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOps["open"]; err != nil {
		return nil, err
	}
	data, ok := s.files[filePath]
	if !ok {
		return nil, fmt.Errorf("%s: %w", filePath, fs.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStorage) Delete(filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, filePath)
	s.deleted = append(s.deleted, filePath)
	return nil
}

func (s *memStorage) fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOps[op] = err
}

// filesIn возвращает пути файлов в каталоге dir.
func (s *memStorage) filesIn(dir string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for p := range s.files {
		if strings.HasPrefix(p, dir+"/") {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

type stubRenderer struct {
	err      error
	rendered []pdf.Certificate
}

func (r *stubRenderer) Render(w io.Writer, c pdf.Certificate) error {
	if r.err != nil {
		return r.err
	}
	r.rendered = append(r.rendered, c)
	_, err := io.WriteString(w, "%PDF-1.3 stub")
	return err
}

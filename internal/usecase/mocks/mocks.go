package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/remitdesk/internal/domain"
	"github.com/iho/remitdesk/internal/usecase"
)

// FakeServiceRepository is an in-memory ServiceRepository.
type FakeServiceRepository struct {
	mu       sync.RWMutex
	services map[string]*domain.Service

	CreateFunc  func(ctx context.Context, service *domain.Service) error
	GetByIDFunc func(ctx context.Context, id string) (*domain.Service, error)
}

func NewFakeServiceRepository(services ...*domain.Service) *FakeServiceRepository {
	m := &FakeServiceRepository{services: make(map[string]*domain.Service)}
	for _, s := range services {
		m.services[s.ID] = s
	}
	return m
}

func (m *FakeServiceRepository) Create(ctx context.Context, service *domain.Service) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, service)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[service.ID] = service
	return nil
}

func (m *FakeServiceRepository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.services[id]; ok {
		return s, nil
	}
	return nil, domain.ErrServiceNotFound
}

func (m *FakeServiceRepository) List(ctx context.Context, limit, offset int) ([]*domain.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var services []*domain.Service
	for _, s := range m.services {
		services = append(services, s)
	}
	return services, nil
}

// FakeCommissionRepository is an in-memory CommissionRepository.
type FakeCommissionRepository struct {
	mu          sync.RWMutex
	commissions []*domain.ServiceCommission

	ListByServiceFunc func(ctx context.Context, serviceID string, activeOnly bool) ([]*domain.ServiceCommission, error)
}

func NewFakeCommissionRepository(commissions ...*domain.ServiceCommission) *FakeCommissionRepository {
	return &FakeCommissionRepository{commissions: commissions}
}

func (m *FakeCommissionRepository) Create(ctx context.Context, tx usecase.Transaction, commission *domain.ServiceCommission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commissions = append(m.commissions, commission)
	return nil
}

func (m *FakeCommissionRepository) ListByService(ctx context.Context, serviceID string, activeOnly bool) ([]*domain.ServiceCommission, error) {
	if m.ListByServiceFunc != nil {
		return m.ListByServiceFunc(ctx, serviceID, activeOnly)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.ServiceCommission
	for _, c := range m.commissions {
		if c.ServiceID != serviceID || (activeOnly && !c.IsActive) {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// FakeTransactionRepository is an in-memory TransactionRepository.
type FakeTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction

	CreateFunc      func(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error
	UpdateFunc      func(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error
	UpdateGroupFunc func(ctx context.Context, tx usecase.Transaction, id string, groupID *string, updatedAt time.Time) error
}

func NewFakeTransactionRepository(transactions ...*domain.Transaction) *FakeTransactionRepository {
	m := &FakeTransactionRepository{transactions: make(map[string]*domain.Transaction)}
	for _, t := range transactions {
		m.transactions[t.ID] = t
	}
	return m
}

func (m *FakeTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, transaction)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *transaction
	m.transactions[transaction.ID] = &clone
	return nil
}

func (m *FakeTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.transactions[id]; ok {
		clone := *t
		return &clone, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *FakeTransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	return m.GetByID(ctx, id)
}

func (m *FakeTransactionRepository) Update(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, transaction)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[transaction.ID]; !ok {
		return domain.ErrTransactionNotFound
	}
	clone := *transaction
	m.transactions[transaction.ID] = &clone
	return nil
}

func (m *FakeTransactionRepository) UpdateGroup(ctx context.Context, tx usecase.Transaction, id string, groupID *string, updatedAt time.Time) error {
	if m.UpdateGroupFunc != nil {
		return m.UpdateGroupFunc(ctx, tx, id, groupID, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	t.GroupID = groupID
	t.UpdatedAt = updatedAt
	return nil
}

func (m *FakeTransactionRepository) ListByClient(ctx context.Context, clientID string, limit, offset int) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Transaction
	for _, t := range m.transactions {
		if t.ClientID == clientID {
			out = append(out, t)
		}
	}
	return out, nil
}

// FakeGroupRepository is an in-memory GroupRepository.
type FakeGroupRepository struct {
	mu     sync.RWMutex
	groups map[string]*domain.TransactionGroup

	GetByIDFunc func(ctx context.Context, id string) (*domain.TransactionGroup, error)
}

func NewFakeGroupRepository(groups ...*domain.TransactionGroup) *FakeGroupRepository {
	m := &FakeGroupRepository{groups: make(map[string]*domain.TransactionGroup)}
	for _, g := range groups {
		m.groups[g.ID] = g
	}
	return m
}

func (m *FakeGroupRepository) Create(ctx context.Context, tx usecase.Transaction, group *domain.TransactionGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[group.ID] = group
	return nil
}

func (m *FakeGroupRepository) GetByID(ctx context.Context, id string) (*domain.TransactionGroup, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.groups[id]; ok {
		return g, nil
	}
	return nil, domain.ErrGroupNotFound
}

func (m *FakeGroupRepository) ListByClient(ctx context.Context, clientID string) ([]*domain.TransactionGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.TransactionGroup
	for _, g := range m.groups {
		if g.ClientID == clientID {
			out = append(out, g)
		}
	}
	return out, nil
}

// FakeOutboxRepository records created events.
type FakeOutboxRepository struct {
	mu     sync.Mutex
	Events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewFakeOutboxRepository() *FakeOutboxRepository {
	return &FakeOutboxRepository{}
}

func (m *FakeOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *FakeOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range m.Events {
		if !e.Published && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *FakeOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
			return nil
		}
	}
	return fmt.Errorf("event %s not found", id)
}

func (m *FakeOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range m.Events {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *FakeOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return nil
}

// EventTypes returns the recorded event types in order.
func (m *FakeOutboxRepository) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.Events))
	for i, e := range m.Events {
		types[i] = e.EventType
	}
	return types
}

// FakeTransactionManager hands out FakeTransactions.
type FakeTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewFakeTransactionManager() *FakeTransactionManager {
	return &FakeTransactionManager{}
}

func (m *FakeTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &FakeTransaction{}, nil
}

// FakeTransaction is a no-op database transaction.
type FakeTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *FakeTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *FakeTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// FakeIDGenerator returns sequential ids.
type FakeIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewFakeIDGenerator() *FakeIDGenerator {
	return &FakeIDGenerator{}
}

func (m *FakeIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("id-%d", m.counter)
}

// FakeIdempotencyStore is an in-memory IdempotencyStore.
type FakeIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewFakeIdempotencyStore() *FakeIdempotencyStore {
	return &FakeIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *FakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *FakeIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *FakeIdempotencyStore) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// FakeScheduleCache is an in-memory ScheduleCache with per-service generations.
type FakeScheduleCache struct {
	mu          sync.Mutex
	surcharges  map[string]map[int]decimal.Decimal
	generations map[string]int64
}

func NewFakeScheduleCache() *FakeScheduleCache {
	return &FakeScheduleCache{
		surcharges:  make(map[string]map[int]decimal.Decimal),
		generations: make(map[string]int64),
	}
}

func (m *FakeScheduleCache) GetSurcharge(ctx context.Context, serviceID string, elapsedDays int) (decimal.Decimal, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pct, ok := m.surcharges[serviceID][elapsedDays]
	return pct, ok, nil
}

func (m *FakeScheduleCache) Generation(ctx context.Context, serviceID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generations[serviceID], nil
}

func (m *FakeScheduleCache) SetSurcharge(ctx context.Context, serviceID string, generation int64, elapsedDays int, pct decimal.Decimal, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generations[serviceID] != generation {
		return false, nil
	}
	if m.surcharges[serviceID] == nil {
		m.surcharges[serviceID] = make(map[int]decimal.Decimal)
	}
	m.surcharges[serviceID][elapsedDays] = pct
	return true, nil
}

func (m *FakeScheduleCache) InvalidateService(ctx context.Context, serviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generations[serviceID]++
	delete(m.surcharges, serviceID)
	return nil
}

package services_test

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/carebooking/internal/adapters/cache"
	"github.com/zatekoja/carebooking/internal/domain/entities"
	"github.com/zatekoja/carebooking/internal/domain/repositories"
)

// Mocks

type MockDoctorRepository struct {
	mock.Mock
}

func (m *MockDoctorRepository) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Doctor, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*entities.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) ListBySpecialization(ctx context.Context, specializationID string) ([]*entities.Doctor, error) {
	args := m.Called(ctx, specializationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Doctor), args.Error(1)
}

type MockAvailabilityRepository struct {
	mock.Mock
}

func (m *MockAvailabilityRepository) ListActiveByDoctor(ctx context.Context, doctorID string) ([]entities.AvailabilityWindow, error) {
	args := m.Called(ctx, doctorID)
	return args.Get(0).([]entities.AvailabilityWindow), args.Error(1)
}

func (m *MockAvailabilityRepository) ListActiveByDoctors(ctx context.Context, doctorIDs []string) ([]entities.AvailabilityWindow, error) {
	args := m.Called(ctx, doctorIDs)
	return args.Get(0).([]entities.AvailabilityWindow), args.Error(1)
}

type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) Create(ctx context.Context, appointment *entities.DoctorAppointment) error {
	args := m.Called(ctx, appointment)
	return args.Error(0)
}

func (m *MockAppointmentRepository) GetByID(ctx context.Context, id string) (*entities.DoctorAppointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DoctorAppointment), args.Error(1)
}

func (m *MockAppointmentRepository) Reschedule(ctx context.Context, appointment *entities.DoctorAppointment) error {
	args := m.Called(ctx, appointment)
	return args.Error(0)
}

func (m *MockAppointmentRepository) Cancel(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAppointmentRepository) ListBookedInstants(ctx context.Context, doctorID string, from, to time.Time) ([]entities.BookedInstant, error) {
	args := m.Called(ctx, doctorID, from, to)
	return args.Get(0).([]entities.BookedInstant), args.Error(1)
}

func (m *MockAppointmentRepository) ListBookedInstantsByDoctors(ctx context.Context, doctorIDs []string, from, to time.Time) ([]entities.BookedInstant, error) {
	args := m.Called(ctx, doctorIDs, from, to)
	return args.Get(0).([]entities.BookedInstant), args.Error(1)
}

func (m *MockAppointmentRepository) ListBySubscriber(ctx context.Context, subscriberID string, filter repositories.AppointmentFilter) ([]*entities.DoctorAppointment, error) {
	args := m.Called(ctx, subscriberID, filter)
	return args.Get(0).([]*entities.DoctorAppointment), args.Error(1)
}

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *entities.ServiceSession, checkpoints []entities.VitalsCheckpoint) error {
	args := m.Called(ctx, session, checkpoints)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id string) (*entities.ServiceSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ServiceSession), args.Error(1)
}

func (m *MockSessionRepository) ListCheckpoints(ctx context.Context, sessionID string) ([]entities.VitalsCheckpoint, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]entities.VitalsCheckpoint), args.Error(1)
}

func (m *MockSessionRepository) ListWithoutCheckpoints(ctx context.Context, after *repositories.SessionCursor, limit int) ([]*entities.ServiceSession, error) {
	args := m.Called(ctx, after, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ServiceSession), args.Error(1)
}

func (m *MockSessionRepository) AddCheckpoints(ctx context.Context, sessionID string, checkpoints []entities.VitalsCheckpoint) error {
	args := m.Called(ctx, sessionID, checkpoints)
	return args.Error(0)
}

type MockMedicationRepository struct {
	mock.Mock
}

func (m *MockMedicationRepository) SaveSchedules(ctx context.Context, sessionID string, schedules []*entities.MedicationSchedule) error {
	args := m.Called(ctx, sessionID, schedules)
	return args.Error(0)
}

func (m *MockMedicationRepository) ListBySession(ctx context.Context, sessionID string) ([]*entities.MedicationSchedule, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.MedicationSchedule), args.Error(1)
}

// MockCacheProvider is an in-memory cache with glob deletes
type MockCacheProvider struct {
	mu      sync.RWMutex
	data    map[string][]byte
	deleted []string
}

func NewMockCacheProvider() *MockCacheProvider {
	return &MockCacheProvider{
		data:    make(map[string][]byte),
		deleted: make([]string, 0),
	}
}

func (m *MockCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if val, ok := m.data[key]; ok {
		return val, nil
	}
	return nil, cache.ErrCacheMiss
}

func (m *MockCacheProvider) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCacheProvider) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *MockCacheProvider) DeletePattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.data, key)
			m.deleted = append(m.deleted, key)
		}
	}
	return nil
}

func (m *MockCacheProvider) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *MockCacheProvider) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

func (m *MockCacheProvider) Deleted() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.deleted...)
}

// MockEventBus records published events and fans them out to subscribers
type MockEventBus struct {
	mu          sync.Mutex
	subscribers map[string][]chan *entities.BookingEvent
	published   []*entities.BookingEvent
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{
		subscribers: make(map[string][]chan *entities.BookingEvent),
		published:   make([]*entities.BookingEvent, 0),
	}
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.BookingEvent) error {
	return m.Broadcast(ctx, event, channel)
}

func (m *MockEventBus) Broadcast(ctx context.Context, event *entities.BookingEvent, channels ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, event)
	for _, channel := range channels {
		for _, ch := range m.subscribers[channel] {
			select {
			case ch <- event:
			default:
			}
		}
	}
	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.BookingEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan *entities.BookingEvent, 10)
	m.subscribers[channel] = append(m.subscribers[channel], ch)
	return ch, nil
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subscribers[channel] {
		close(ch)
	}
	delete(m.subscribers, channel)
	return nil
}

func (m *MockEventBus) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for channel, channels := range m.subscribers {
		for _, ch := range channels {
			close(ch)
		}
		delete(m.subscribers, channel)
	}
	return nil
}

func (m *MockEventBus) Published() []*entities.BookingEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entities.BookingEvent(nil), m.published...)
}

func (m *MockEventBus) SubscriberCount(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers[channel])
}

// MockMessageSender records outgoing texts
type MockMessageSender struct {
	mock.Mock
}

func (m *MockMessageSender) SendText(ctx context.Context, to, body string) (string, error) {
	args := m.Called(ctx, to, body)
	return args.String(0), args.Error(1)
}

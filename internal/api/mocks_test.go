package api

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/upkeepai/upkeep-api/internal/api/shared"
	"github.com/upkeepai/upkeep-api/internal/config"
	"github.com/upkeepai/upkeep-api/internal/domain"
	"github.com/upkeepai/upkeep-api/internal/events"
	"github.com/upkeepai/upkeep-api/internal/service"
	"github.com/upkeepai/upkeep-api/internal/service/auth"
	"github.com/upkeepai/upkeep-api/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withUserID injects an authenticated user ID the way the auth middleware
// would.
func withUserID(r *http.Request, userID uuid.UUID) *http.Request {
	ctx := context.WithValue(r.Context(), shared.UserIDContextKey, userID)
	return r.WithContext(ctx)
}

func doRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// fakeUserStore implements store.UserStore.
type fakeUserStore struct {
	createFn     func(ctx context.Context, user *domain.User) error
	getByEmailFn func(ctx context.Context, email string) (*domain.User, error)
}

func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	if f.createFn != nil {
		return f.createFn(ctx, user)
	}
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) WithTx(tx *sql.Tx) store.UserStore { return f }

// fakeJWTService implements auth.JWTService with canned tokens.
type fakeJWTService struct {
	validateRefreshFn func(ctx context.Context, token string) (*auth.Claims, error)
}

func (f *fakeJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return "access-" + userID.String(), nil
}

func (f *fakeJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	return nil, auth.ErrInvalidToken
}

func (f *fakeJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return "refresh-" + userID.String(), nil
}

func (f *fakeJWTService) ValidateRefreshToken(ctx context.Context, token string) (*auth.Claims, error) {
	if f.validateRefreshFn != nil {
		return f.validateRefreshFn(ctx, token)
	}
	return nil, auth.ErrInvalidRefreshToken
}

// fakePasswordVerifier accepts one configured password.
type fakePasswordVerifier struct {
	accept string
}

func (f *fakePasswordVerifier) Compare(hashedPassword, password string) error {
	if password == f.accept {
		return nil
	}
	return errors.New("password mismatch")
}

// fakeItemStore implements store.ItemStore for handler tests.
type fakeItemStore struct {
	mu sync.Mutex

	items    map[uuid.UUID]*domain.Item
	deleteFn func(ctx context.Context, id, userID uuid.UUID) error
}

func newFakeItemStore() *fakeItemStore {
	return &fakeItemStore{items: map[uuid.UUID]*domain.Item{}}
}

func (f *fakeItemStore) Create(ctx context.Context, item *domain.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[item.ID] = item
	return nil
}

func (f *fakeItemStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, store.ErrItemNotFound
	}
	return item, nil
}

func (f *fakeItemStore) GetForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok || item.UserID != userID {
		return nil, store.ErrItemNotFound
	}
	return item, nil
}

func (f *fakeItemStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.Item{}
	for _, item := range f.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeItemStore) ClaimPendingGeneration(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (f *fakeItemStore) MarkGenerationReady(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (f *fakeItemStore) MarkGenerationFailed(ctx context.Context, id uuid.UUID, message string) error {
	return nil
}

func (f *fakeItemStore) FindStalePending(ctx context.Context, olderThan time.Duration) ([]*domain.Item, error) {
	return nil, nil
}

func (f *fakeItemStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id, userID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok || item.UserID != userID {
		return store.ErrItemNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeItemStore) WithTx(tx *sql.Tx) store.ItemStore { return f }

// fakeTaskStore implements store.TaskStore for handler tests.
type fakeTaskStore struct {
	tasks []*domain.Task
}

func (f *fakeTaskStore) CreateBatch(ctx context.Context, tasks []*domain.Task) error {
	f.tasks = append(f.tasks, tasks...)
	return nil
}

func (f *fakeTaskStore) ListByItem(ctx context.Context, userID, itemID uuid.UUID) ([]*domain.Task, error) {
	out := []*domain.Task{}
	for _, task := range f.tasks {
		if task.UserID == userID && task.ItemID == itemID {
			out = append(out, task)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	out := []*domain.Task{}
	for _, task := range f.tasks {
		if task.UserID == userID {
			out = append(out, task)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) CountCreatedBetween(
	ctx context.Context,
	userID uuid.UUID,
	start, end time.Time,
) (int, error) {
	return 0, nil
}

func (f *fakeTaskStore) WithTx(tx *sql.Tx) store.TaskStore { return f }

// recordingEmitter captures emitted generation events.
type recordingEmitter struct {
	mu      sync.Mutex
	emitted []*events.GenerationRequestedEvent
}

func (e *recordingEmitter) EmitEvent(ctx context.Context, event *events.GenerationRequestedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emitted = append(e.emitted, event)
	return nil
}

func newTestServices(
	t *testing.T,
	itemStore *fakeItemStore,
	taskStore *fakeTaskStore,
	emitter *recordingEmitter,
) (*service.ItemService, *service.TaskDeliveryService) {
	t.Helper()

	itemSvc, err := service.NewItemService(new(sql.DB), itemStore, taskStore, emitter, testLogger())
	require.NoError(t, err)

	delivery, err := service.NewTaskDeliveryService(itemStore, taskStore, config.GenerationConfig{
		DailyTaskLimit:            100,
		WorkerCount:               1,
		QueueSize:                 1,
		StuckItemAgeMinutes:       30,
		StuckCheckIntervalMinutes: 5,
		PollCeilingSeconds:        1,
		PollIntervalMillis:        10,
	}, testLogger())
	require.NoError(t, err)

	return itemSvc, delivery
}

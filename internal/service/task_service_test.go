package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"taskdesk/internal/apperror"
	"taskdesk/internal/domain"
	"taskdesk/internal/repository"
)

// mockTaskRepo emula el contrato transaccional del gateway: WithinTx
// serializa las transacciones igual que lo haría el lock de fila.
type mockTaskRepo struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	nextID int64
	tasks  map[int64]domain.Task

	lastGetForUpdate bool
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{tasks: make(map[int64]domain.Task)}
}

func (m *mockTaskRepo) Create(_ context.Context, task domain.Task) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	task.ID = m.nextID
	m.tasks[task.ID] = task
	return task, nil
}

func (m *mockTaskRepo) GetByID(_ context.Context, id int64, forUpdate bool) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastGetForUpdate = forUpdate
	task, ok := m.tasks[id]
	if !ok {
		return domain.Task{}, pgx.ErrNoRows
	}
	return task, nil
}

func (m *mockTaskRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tasks := make([]domain.Task, 0)
	for _, task := range m.tasks {
		if task.OwnerID == ownerID {
			tasks = append(tasks, task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID > tasks[j].ID
	})
	return tasks, nil
}

func (m *mockTaskRepo) Update(_ context.Context, task domain.Task) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[task.ID]; !ok {
		return domain.Task{}, pgx.ErrNoRows
	}
	m.tasks[task.ID] = task
	return task, nil
}

func (m *mockTaskRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.tasks, id)
	return nil
}

func (m *mockTaskRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, repo repository.TaskRepository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, m)
}

func newTaskService(repo repository.TaskRepository) *TaskService {
	return NewTaskService(zap.NewNop(), repo)
}

func TestTaskServiceCreate_NormalizesAndDefaults(t *testing.T) {
	repo := newMockTaskRepo()
	svc := newTaskService(repo)

	task, err := svc.Create(context.Background(), "owner-1", CreateTaskInput{
		Title:       "  Buy milk  ",
		Description: "  two liters  ",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Title != "Buy milk" || task.Description != "two liters" {
		t.Fatalf("expected trimmed fields, got %q / %q", task.Title, task.Description)
	}
	if task.Completed {
		t.Fatalf("expected completed to default to false")
	}
	if !task.CreatedAt.Equal(task.UpdatedAt) {
		t.Fatalf("expected created_at == updated_at at creation")
	}
	if task.OwnerID != "owner-1" {
		t.Fatalf("expected owner to be the subject")
	}
}

func TestTaskServiceCreate_ValidationFailures(t *testing.T) {
	repo := newMockTaskRepo()
	svc := newTaskService(repo)

	_, err := svc.Create(context.Background(), "owner-1", CreateTaskInput{Title: "   "})
	if code := appErrCode(t, err); code != apperror.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for blank title, got %s", code)
	}

	_, err = svc.Create(context.Background(), "owner-1", CreateTaskInput{
		Title: strings.Repeat("x", 201),
	})
	if code := appErrCode(t, err); code != apperror.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for long title, got %s", code)
	}

	_, err = svc.Create(context.Background(), "owner-1", CreateTaskInput{
		Title:       "ok",
		Description: strings.Repeat("x", 2001),
	})
	if code := appErrCode(t, err); code != apperror.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for long description, got %s", code)
	}
}

func TestTaskServiceCreate_LengthLimitsCountCharacters(t *testing.T) {
	repo := newMockTaskRepo()
	svc := newTaskService(repo)

	// 200 caracteres multibyte (400 bytes) siguen dentro del límite.
	title := strings.Repeat("é", 200)
	task, err := svc.Create(context.Background(), "owner-1", CreateTaskInput{
		Title:       title,
		Description: strings.Repeat("ñ", 2000),
	})
	if err != nil {
		t.Fatalf("create with multibyte fields at the limit: %v", err)
	}
	if task.Title != title {
		t.Fatalf("expected multibyte title preserved")
	}

	_, err = svc.Create(context.Background(), "owner-1", CreateTaskInput{
		Title: strings.Repeat("é", 201),
	})
	if code := appErrCode(t, err); code != apperror.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for 201-char title, got %s", code)
	}
	_, err = svc.Create(context.Background(), "owner-1", CreateTaskInput{
		Title:       "ok",
		Description: strings.Repeat("ñ", 2001),
	})
	if code := appErrCode(t, err); code != apperror.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for 2001-char description, got %s", code)
	}
}

func TestTaskServiceGet_RoundTrip(t *testing.T) {
	repo := newMockTaskRepo()
	svc := newTaskService(repo)

	created, err := svc.Create(context.Background(), "owner-1", CreateTaskInput{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := svc.Get(context.Background(), "owner-1", created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != created.Title || got.Description != created.Description || got.Completed {
		t.Fatalf("expected round-trip to preserve fields, got %+v", got)
	}
	if repo.lastGetForUpdate {
		t.Fatalf("plain get must not take a row lock")
	}
}

func TestTaskServiceOwnership_NotFoundBeforeForbidden(t *testing.T) {
	repo := newMockTaskRepo()
	svc := newTaskService(repo)

	created, err := svc.Create(context.Background(), "owner-a", CreateTaskInput{Title: "secret"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Id inexistente: 404 para cualquiera, dueño o no.
	_, err = svc.Get(context.Background(), "owner-b", created.ID+100)
	if code := appErrCode(t, err); code != apperror.CodeTaskNotFound {
		t.Fatalf("expected TASK_NOT_FOUND, got %s", code)
	}

	// Existe pero pertenece a otro: 403.
	_, err = svc.Get(context.Background(), "owner-b", created.ID)
	if code := appErrCode(t, err); code != apperror.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %s", code)
	}

	// Misma regla para mutaciones.
	_, err = svc.Update(context.Background(), "owner-b", created.ID, UpdateTaskInput{})
	if code := appErrCode(t, err); code != apperror.CodeForbidden {
		t.Fatalf("expected FORBIDDEN on update, got %s", code)
	}
	err = svc.Delete(context.Background(), "owner-b", created.ID)
	if code := appErrCode(t, err); code != apperror.CodeForbidden {
		t.Fatalf("expected FORBIDDEN on delete, got %s", code)
	}
	_, err = svc.ToggleComplete(context.Background(), "owner-b", created.ID)
	if code := appErrCode(t, err); code != apperror.CodeForbidden {
		t.Fatalf("expected FORBIDDEN on toggle, got %s", code)
	}
}

func TestTaskServiceUpdate_Partial(t *testing.T) {
	repo := newMockTaskRepo()
	svc := newTaskService(repo)

	created, err := svc.Create(context.Background(), "owner-1", CreateTaskInput{
		Title:       "original",
		Description: "keep me",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newTitle := "  renamed  "
	updated, err := svc.Update(context.Background(), "owner-1", created.ID, UpdateTaskInput{Title: &newTitle})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "renamed" {
		t.Fatalf("expected trimmed new title, got %q", updated.Title)
	}
	if updated.Description != "keep me" {
		t.Fatalf("expected description untouched, got %q", updated.Description)
	}
	if updated.OwnerID != "owner-1" {
		t.Fatalf("owner must be immutable")
	}
	if !repo.lastGetForUpdate {
		t.Fatalf("update must fetch with a row lock")
	}
}

func TestTaskServiceDelete(t *testing.T) {
	repo := newMockTaskRepo()
	svc := newTaskService(repo)

	created, err := svc.Create(context.Background(), "owner-1", CreateTaskInput{Title: "bye"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(context.Background(), "owner-1", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = svc.Get(context.Background(), "owner-1", created.ID)
	if code := appErrCode(t, err); code != apperror.CodeTaskNotFound {
		t.Fatalf("expected TASK_NOT_FOUND after delete, got %s", code)
	}
}

func TestTaskServiceToggle_UsesLockedFetch(t *testing.T) {
	repo := newMockTaskRepo()
	svc := newTaskService(repo)

	created, err := svc.Create(context.Background(), "owner-1", CreateTaskInput{Title: "toggle me"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	toggled, err := svc.ToggleComplete(context.Background(), "owner-1", created.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.Completed {
		t.Fatalf("expected completed true after first toggle")
	}
	if !repo.lastGetForUpdate {
		t.Fatalf("toggle must fetch with a row lock")
	}
}

func TestTaskServiceToggle_NoLostUpdates(t *testing.T) {
	repo := newMockTaskRepo()
	svc := newTaskService(repo)

	created, err := svc.Create(context.Background(), "owner-1", CreateTaskInput{Title: "contended"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const toggles = 7
	var wg sync.WaitGroup
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ToggleComplete(context.Background(), "owner-1", created.ID); err != nil {
				t.Errorf("toggle: %v", err)
			}
		}()
	}
	wg.Wait()

	final, err := svc.Get(context.Background(), "owner-1", created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// Cantidad impar de toggles confirmados: el estado final es determinista.
	if final.Completed != (toggles%2 == 1) {
		t.Fatalf("lost update: expected completed=%v after %d toggles, got %v", toggles%2 == 1, toggles, final.Completed)
	}
}

func TestTaskServiceList_NewestFirst(t *testing.T) {
	repo := newMockTaskRepo()
	svc := newTaskService(repo)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		repo.nextID++
		repo.tasks[repo.nextID] = domain.Task{
			ID:        repo.nextID,
			OwnerID:   "owner-1",
			Title:     "task",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}
	repo.nextID++
	repo.tasks[repo.nextID] = domain.Task{
		ID:        repo.nextID,
		OwnerID:   "someone-else",
		Title:     "not mine",
		CreatedAt: base.Add(time.Hour),
	}

	tasks, err := svc.List(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	for i := 1; i < len(tasks); i++ {
		if tasks[i].CreatedAt.After(tasks[i-1].CreatedAt) {
			t.Fatalf("expected newest-first ordering")
		}
	}
}

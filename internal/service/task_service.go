package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"taskdesk/internal/apperror"
	"taskdesk/internal/domain"
	"taskdesk/internal/repository"
)

const (
	titleMaxLen       = 200
	descriptionMaxLen = 2000
)

// TaskService aplica las reglas de negocio sobre tareas. Toda mutación corre
// dentro de una transacción del repositorio; la serialización entre requests
// concurrentes sobre la misma tarea la da el lock de fila, nunca un mutex en
// proceso, porque puede haber varias instancias del servidor.
type TaskService struct {
	logger *zap.Logger
	tasks  repository.TaskRepository
}

func NewTaskService(logger *zap.Logger, tasks repository.TaskRepository) *TaskService {
	return &TaskService{
		logger: logger,
		tasks:  tasks,
	}
}

type CreateTaskInput struct {
	Title       string
	Description string
}

type UpdateTaskInput struct {
	Title       *string
	Description *string
}

// Create normaliza, valida y persiste una tarea nueva del sujeto.
func (s *TaskService) Create(ctx context.Context, subjectID string, input CreateTaskInput) (domain.Task, error) {
	if s.tasks == nil {
		return domain.Task{}, errors.New("task service not configured")
	}

	title, details := normalizeTitle(input.Title)
	description, descDetails := normalizeDescription(input.Description)
	details = append(details, descDetails...)
	if len(details) > 0 {
		return domain.Task{}, apperror.Validation(details)
	}

	now := time.Now().UTC()
	task := domain.Task{
		OwnerID:     subjectID,
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return s.tasks.Create(ctx, task)
}

// List devuelve las tareas del sujeto, más recientes primero.
func (s *TaskService) List(ctx context.Context, subjectID string) ([]domain.Task, error) {
	if s.tasks == nil {
		return nil, errors.New("task service not configured")
	}
	return s.tasks.ListByOwner(ctx, subjectID)
}

// Get devuelve una tarea del sujeto. Lectura sin lock.
func (s *TaskService) Get(ctx context.Context, subjectID string, taskID int64) (domain.Task, error) {
	if s.tasks == nil {
		return domain.Task{}, errors.New("task service not configured")
	}
	return s.fetchOwned(ctx, s.tasks, taskID, subjectID, false)
}

// Update aplica una edición parcial de title/description. El owner_id es
// inmutable: nunca se toma del request.
func (s *TaskService) Update(ctx context.Context, subjectID string, taskID int64, input UpdateTaskInput) (domain.Task, error) {
	if s.tasks == nil {
		return domain.Task{}, errors.New("task service not configured")
	}

	var details []apperror.FieldError
	var title, description string
	if input.Title != nil {
		title, details = normalizeTitle(*input.Title)
	}
	if input.Description != nil {
		var descDetails []apperror.FieldError
		description, descDetails = normalizeDescription(*input.Description)
		details = append(details, descDetails...)
	}
	if len(details) > 0 {
		return domain.Task{}, apperror.Validation(details)
	}

	var updated domain.Task
	err := s.tasks.WithinTx(ctx, func(ctx context.Context, repo repository.TaskRepository) error {
		task, err := s.fetchOwned(ctx, repo, taskID, subjectID, true)
		if err != nil {
			return err
		}
		if input.Title != nil {
			task.Title = title
		}
		if input.Description != nil {
			task.Description = description
		}
		task.UpdatedAt = time.Now().UTC()
		updated, err = repo.Update(ctx, task)
		return err
	})
	if err != nil {
		return domain.Task{}, err
	}
	return updated, nil
}

// Delete borra la tarea de forma permanente.
func (s *TaskService) Delete(ctx context.Context, subjectID string, taskID int64) error {
	if s.tasks == nil {
		return errors.New("task service not configured")
	}
	return s.tasks.WithinTx(ctx, func(ctx context.Context, repo repository.TaskRepository) error {
		if _, err := s.fetchOwned(ctx, repo, taskID, subjectID, true); err != nil {
			return err
		}
		return repo.Delete(ctx, taskID)
	})
}

// ToggleComplete invierte el flag completed. El fetch con lock es obligatorio:
// sin él, dos toggles concurrentes sobre la misma fila pierden una escritura.
func (s *TaskService) ToggleComplete(ctx context.Context, subjectID string, taskID int64) (domain.Task, error) {
	if s.tasks == nil {
		return domain.Task{}, errors.New("task service not configured")
	}

	var updated domain.Task
	err := s.tasks.WithinTx(ctx, func(ctx context.Context, repo repository.TaskRepository) error {
		task, err := s.fetchOwned(ctx, repo, taskID, subjectID, true)
		if err != nil {
			return err
		}
		task.Completed = !task.Completed
		task.UpdatedAt = time.Now().UTC()
		updated, err = repo.Update(ctx, task)
		return err
	})
	if err != nil {
		return domain.Task{}, err
	}
	return updated, nil
}

// normalizeTitle recorta espacios y valida el largo. El recorte es parte del
// contrato de entrada, no un efecto escondido del validador. Los límites se
// miden en caracteres, no en bytes: un título en UTF-8 multibyte cuenta igual
// que uno ASCII.
func normalizeTitle(raw string) (string, []apperror.FieldError) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", []apperror.FieldError{{Field: "title", Message: "Title cannot be empty or whitespace only"}}
	}
	if utf8.RuneCountInString(title) > titleMaxLen {
		return "", []apperror.FieldError{{Field: "title", Message: "Title must be at most 200 characters"}}
	}
	return title, nil
}

func normalizeDescription(raw string) (string, []apperror.FieldError) {
	description := strings.TrimSpace(raw)
	if utf8.RuneCountInString(description) > descriptionMaxLen {
		return "", []apperror.FieldError{{Field: "description", Message: "Description must be at most 2000 characters"}}
	}
	return description, nil
}

package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"taskdesk/internal/apperror"
	"taskdesk/internal/domain"
	"taskdesk/internal/repository"
)

// fetchOwned busca la tarea y aplica el control de propiedad. El orden es
// deliberado: primero existencia (404), después dueño (403); un id que no
// existe devuelve 404 para cualquiera, sin revelar nada más. Con lock=true el
// fetch toma un lock exclusivo de fila que vive hasta el fin de la
// transacción que lo envuelve.
func (s *TaskService) fetchOwned(ctx context.Context, repo repository.TaskRepository, taskID int64, subjectID string, lock bool) (domain.Task, error) {
	task, err := repo.GetByID(ctx, taskID, lock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, apperror.TaskNotFound(taskID)
		}
		return domain.Task{}, err
	}
	if task.OwnerID != subjectID {
		// Se registra sujeto y recurso, nunca el contenido de la tarea.
		if s.logger != nil {
			s.logger.Warn("task access denied",
				zap.String("event_type", "authz_failure"),
				zap.String("user_id", subjectID),
				zap.Int64("resource_id", taskID),
			)
		}
		return domain.Task{}, apperror.Forbidden()
	}
	return task, nil
}

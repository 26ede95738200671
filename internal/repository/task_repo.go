package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskdesk/internal/domain"
)

// Querier abstrae un pool o una transacción de pgx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TaskRepository define el contrato de persistencia para tareas.
// GetByID con forUpdate=true toma un lock exclusivo de fila que dura hasta
// el fin de la transacción; solo tiene sentido dentro de WithinTx.
type TaskRepository interface {
	Create(ctx context.Context, task domain.Task) (domain.Task, error)
	GetByID(ctx context.Context, id int64, forUpdate bool) (domain.Task, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error)
	Update(ctx context.Context, task domain.Task) (domain.Task, error)
	Delete(ctx context.Context, id int64) error
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo TaskRepository) error) error
}

// PgTaskRepository implementa TaskRepository usando pgxpool. Dentro de una
// transacción, db es la transacción en curso en vez del pool.
type PgTaskRepository struct {
	pool *pgxpool.Pool
	db   Querier
}

func NewPgTaskRepository(pool *pgxpool.Pool) *PgTaskRepository {
	return &PgTaskRepository{pool: pool, db: pool}
}

// WithinTx ejecuta fn dentro de una transacción: commit si fn devuelve nil,
// rollback ante cualquier error, incluidos los de lógica de negocio.
func (r *PgTaskRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, repo TaskRepository) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &PgTaskRepository{pool: r.pool, db: tx})
	})
}

func (r *PgTaskRepository) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	const query = `
		INSERT INTO tasks (owner_id, title, description, completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		task.OwnerID,
		task.Title,
		task.Description,
		task.Completed,
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&task.ID)
	if err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

func (r *PgTaskRepository) GetByID(ctx context.Context, id int64, forUpdate bool) (domain.Task, error) {
	query := `
		SELECT id, owner_id, title, description, completed, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}
	var t domain.Task
	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.OwnerID,
		&t.Title,
		&t.Description,
		&t.Completed,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Task{}, err
	}
	return t, err
}

func (r *PgTaskRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	const query = `
		SELECT id, owner_id, title, description, completed, created_at, updated_at
		FROM tasks
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(
			&t.ID,
			&t.OwnerID,
			&t.Title,
			&t.Description,
			&t.Completed,
			&t.CreatedAt,
			&t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *PgTaskRepository) Update(ctx context.Context, task domain.Task) (domain.Task, error) {
	const query = `
		UPDATE tasks
		SET title = $1, description = $2, completed = $3, updated_at = $4
		WHERE id = $5
	`
	tag, err := r.db.Exec(ctx, query,
		task.Title,
		task.Description,
		task.Completed,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return domain.Task{}, err
	}
	if tag.RowsAffected() == 0 {
		return domain.Task{}, pgx.ErrNoRows
	}
	return task, nil
}

func (r *PgTaskRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

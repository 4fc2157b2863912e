package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/taskboard/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

const taskColumns = `t.id::text, t.board_id::text, t.title, t.description, t.priority,
	t.due_date, t.tags, t.status, t.version, t.created_at, t.updated_at`

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{
		pool: pool,
	}
}

// Create вставляет задачу, только если доска принадлежит пользователю
func (r *TaskRepo) Create(ctx context.Context, userID string, t model.Task) (model.Task, error) {
	if !validID(userID) || !validID(t.BoardID) {
		return t, ErrorNotFound
	}
	row := r.pool.QueryRow(ctx, `
		WITH t AS (
			INSERT INTO tasks (board_id, title, description, priority, due_date, tags, status)
			SELECT b.id, $3, $4, $5, $6, $7, $8
			FROM boards b
			WHERE b.id = $1 AND b.user_id = $2
			RETURNING *
		)
		SELECT `+taskColumns+` FROM t
	`, t.BoardID, userID, t.Title, t.Description, t.Priority, t.DueDate, t.Tags, t.Status)

	created, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return created, mapError(err)
}

func (r *TaskRepo) Get(ctx context.Context, userID, id string) (model.Task, error) {
	if !validID(userID) || !validID(id) {
		return model.Task{}, ErrorNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks t
		JOIN boards b ON b.id = t.board_id
		WHERE t.id = $1 AND b.user_id = $2
	`, id, userID)

	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, err
}

func (r *TaskRepo) List(ctx context.Context, userID string) ([]model.Task, error) {
	if !validID(userID) {
		return []model.Task{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks t
		JOIN boards b ON b.id = t.board_id
		WHERE b.user_id = $1
		ORDER BY t.created_at, t.id
	`, userID)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func (r *TaskRepo) ListByBoard(ctx context.Context, userID, boardID string) ([]model.Task, error) {
	if !validID(userID) || !validID(boardID) {
		return []model.Task{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks t
		JOIN boards b ON b.id = t.board_id
		WHERE b.user_id = $1 AND t.board_id = $2
		ORDER BY t.created_at, t.id
	`, userID, boardID)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

// Update применяет частичные изменения. Если передан Version, проверяется версия (optimistic lock).
func (r *TaskRepo) Update(ctx context.Context, userID, id string, p model.TaskPatch) (model.Task, error) {
	if !validID(userID) || !validID(id) {
		return model.Task{}, ErrorNotFound
	}
	row := r.pool.QueryRow(ctx, `
		WITH t AS (
			UPDATE tasks
			SET title = COALESCE($3::text, tasks.title),
				description = COALESCE($4::text, tasks.description),
				priority = COALESCE($5::text, tasks.priority),
				due_date = CASE WHEN $10::bool THEN NULL ELSE COALESCE($6::timestamptz, tasks.due_date) END,
				tags = COALESCE($7::text[], tasks.tags),
				status = COALESCE($8::text, tasks.status),
				version = tasks.version + 1,
				updated_at = now()
			FROM boards b
			WHERE tasks.id = $1 AND tasks.board_id = b.id AND b.user_id = $2
				AND ($9::int IS NULL OR tasks.version = $9::int)
			RETURNING tasks.*
		)
		SELECT `+taskColumns+` FROM t
	`, id, userID, p.Title, p.Description, p.Priority, p.DueDate, p.Tags, p.Status, p.Version, p.ClearDueDate)

	t, err := scanTask(row)
	if !errors.Is(err, pgx.ErrNoRows) {
		return t, mapError(err)
	}
	if p.Version == nil {
		return t, ErrorNotFound
	}
	// Задача есть, но версия не совпала
	if _, getErr := r.Get(ctx, userID, id); getErr != nil {
		return t, getErr
	}
	return t, ErrorConflict
}

func (r *TaskRepo) Delete(ctx context.Context, userID, id string) error {
	if !validID(userID) || !validID(id) {
		return ErrorNotFound
	}
	cmd, err := r.pool.Exec(ctx, `
		DELETE FROM tasks t
		USING boards b
		WHERE t.id = $1 AND t.board_id = b.id AND b.user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

// SaveIdempotencyKey запоминает ключ в пространстве пользователя: одинаковые ключи
// разных пользователей не пересекаются.
func (r *TaskRepo) SaveIdempotencyKey(ctx context.Context, userID, key string, resourceID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO idempotency_keys (user_id, key, resource_id) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, key) DO NOTHING
	`, userID, key, resourceID)
	return mapError(err)
}

func (r *TaskRepo) GetIdempotencyKey(ctx context.Context, userID, key string) (string, error) {
	if !validID(userID) {
		return "", ErrorNotFound
	}

	var id string
	err := r.pool.QueryRow(ctx, `
		SELECT resource_id::text FROM idempotency_keys WHERE user_id = $1 AND key = $2
	`, userID, key).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrorNotFound
	}
	return id, err
}

// RelocateOrphans переносит задачи, чей статус не совпадает ни с одной колонкой доски,
// в первую колонку. Строки берутся с SKIP LOCKED, несколько воркеров не пересекаются.
func (r *TaskRepo) RelocateOrphans(ctx context.Context, limit int) ([]model.TaskRelocation, error) {
	rows, err := r.pool.Query(ctx, `
		WITH orphans AS (
			SELECT t.id, t.status AS from_status, b.columns->0->>'id' AS to_status, b.user_id
			FROM tasks t
			JOIN boards b ON b.id = t.board_id
			WHERE jsonb_array_length(b.columns) > 0
				AND NOT EXISTS (
					SELECT 1 FROM jsonb_array_elements(b.columns) AS c
					WHERE c->>'id' = t.status
				)
			ORDER BY t.updated_at
			LIMIT $1
			FOR UPDATE OF t SKIP LOCKED
		)
		UPDATE tasks
		SET status = orphans.to_status, version = tasks.version + 1, updated_at = now()
		FROM orphans
		WHERE tasks.id = orphans.id
		RETURNING tasks.id::text, tasks.board_id::text, orphans.user_id::text, orphans.from_status, tasks.status
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var moved []model.TaskRelocation
	for rows.Next() {
		var m model.TaskRelocation
		if err := rows.Scan(&m.TaskID, &m.BoardID, &m.UserID, &m.FromStatus, &m.ToStatus); err != nil {
			return nil, err
		}
		moved = append(moved, m)
	}
	return moved, rows.Err()
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID, &t.BoardID, &t.Title, &t.Description, &t.Priority,
		&t.DueDate, &t.Tags, &t.Status, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return t, err
}

func collectTasks(rows pgx.Rows) ([]model.Task, error) {
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// validID - все идентификаторы в БД uuid, остальное заведомо не найдется
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return ErrorConflict
		case pgerrcode.ForeignKeyViolation:
			return ErrorNotFound
		}
	}
	return err
}

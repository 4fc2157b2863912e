package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/taskboard/internal/model"
)

const boardColumns = `id::text, user_id::text, title, color, columns, created_at, updated_at`

// storedColumn - то, что лежит в boards.columns. taskIds не храним.
type storedColumn struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type BoardRepo struct {
	pool *pgxpool.Pool
}

func NewBoardRepo(pool *pgxpool.Pool) *BoardRepo {
	return &BoardRepo{pool: pool}
}

func (r *BoardRepo) Create(ctx context.Context, b model.Board) (model.Board, error) {
	if !validID(b.UserID) {
		return b, ErrorNotFound
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO boards (user_id, title, color, columns)
		VALUES ($1, $2, $3, $4)
		RETURNING `+boardColumns,
		b.UserID, b.Title, b.Color, toStored(b.Columns))

	created, err := scanBoard(row)
	return created, mapError(err)
}

func (r *BoardRepo) Get(ctx context.Context, userID, id string) (model.Board, error) {
	if !validID(userID) || !validID(id) {
		return model.Board{}, ErrorNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+boardColumns+`
		FROM boards
		WHERE id = $1 AND user_id = $2
	`, id, userID)

	b, err := scanBoard(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return b, ErrorNotFound
	}
	return b, err
}

func (r *BoardRepo) List(ctx context.Context, userID string) ([]model.Board, error) {
	if !validID(userID) {
		return []model.Board{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+boardColumns+`
		FROM boards
		WHERE user_id = $1
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	boards := make([]model.Board, 0)
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

func (r *BoardRepo) Update(ctx context.Context, b model.Board) (model.Board, error) {
	if !validID(b.UserID) || !validID(b.ID) {
		return b, ErrorNotFound
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE boards
		SET title = $3, color = $4, columns = $5, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+boardColumns,
		b.ID, b.UserID, b.Title, b.Color, toStored(b.Columns))

	updated, err := scanBoard(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return b, ErrorNotFound
	}
	return updated, mapError(err)
}

// Delete удаляет доску, задачи удаляются каскадно (ON DELETE CASCADE)
func (r *BoardRepo) Delete(ctx context.Context, userID, id string) error {
	if !validID(userID) || !validID(id) {
		return ErrorNotFound
	}
	cmd, err := r.pool.Exec(ctx, "DELETE FROM boards WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func scanBoard(row pgx.Row) (model.Board, error) {
	var (
		b    model.Board
		cols []storedColumn
	)
	err := row.Scan(&b.ID, &b.UserID, &b.Title, &b.Color, &cols, &b.CreatedAt, &b.UpdatedAt)
	b.Columns = fromStored(cols)
	return b, err
}

func toStored(cols []model.Column) []storedColumn {
	out := make([]storedColumn, 0, len(cols))
	for _, c := range cols {
		out = append(out, storedColumn{ID: c.ID, Title: c.Title})
	}
	return out
}

func fromStored(cols []storedColumn) []model.Column {
	out := make([]model.Column, 0, len(cols))
	for _, c := range cols {
		out = append(out, model.Column{ID: c.ID, Title: c.Title, TaskIDs: []string{}})
	}
	return out
}

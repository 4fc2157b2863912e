package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/BuzzLyutic/taskboard/migrations"
)

// SetupTestDB поднимает PostgreSQL в testcontainers и накатывает схему.
// Без docker тест пропускается.
func SetupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	if err := migrations.Apply(ctx, pool); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// TruncateTables очищает все таблицы
func TruncateTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), "TRUNCATE users, boards, tasks, idempotency_keys CASCADE")
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
}

// SeedUser создает пользователя и возвращает его id
func SeedUser(t *testing.T, pool *pgxpool.Pool, email string) string {
	t.Helper()

	var id string
	err := pool.QueryRow(context.Background(), `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, 'x')
		RETURNING id::text
	`, "User "+email, email).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return id
}

// SeedBoard создает доску с колонками todo/doing/done (id колонок как есть)
func SeedBoard(t *testing.T, pool *pgxpool.Pool, userID, title string) string {
	t.Helper()

	var id string
	err := pool.QueryRow(context.Background(), `
		INSERT INTO boards (user_id, title, color, columns)
		VALUES ($1, $2, '#e9d5ff',
			'[{"id":"todo","title":"Todo"},{"id":"doing","title":"In Progress"},{"id":"done","title":"Done"}]')
		RETURNING id::text
	`, userID, title).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to seed board: %v", err)
	}
	return id
}

// SeedTasks создает задачи с указанным статусом
func SeedTasks(t *testing.T, pool *pgxpool.Pool, boardID, status string, count int) []string {
	t.Helper()

	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		var id string
		err := pool.QueryRow(context.Background(), `
			INSERT INTO tasks (board_id, title, status)
			VALUES ($1, $2, $3)
			RETURNING id::text
		`, boardID, fmt.Sprintf("Task %d", i+1), status).Scan(&id)
		if err != nil {
			t.Fatalf("Failed to seed task: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

// WaitForCondition ждет выполнения условия с таймаутом
func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false
}

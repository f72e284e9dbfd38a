package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"github.com/userdir/userdir/internal/model"
)

// seedLockID serializes schema creation and seeding across replicas.
const seedLockID int64 = 515151

// PostgresStore keeps the directory in a PostgreSQL table.
// Insertion order is the order of the seq column.
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgres connects to databaseURL, creates the users table if it does
// not exist and seeds it when it is empty.
func NewPostgres(ctx context.Context, databaseURL, table string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool, table: pq.QuoteIdentifier(table)}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", seedLockID); err != nil {
		return fmt.Errorf("failed to acquire seed lock: %w", err)
	}

	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq        BIGSERIAL PRIMARY KEY,
			id         BIGINT NOT NULL,
			name       TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`, s.table)
	if _, err := tx.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	var count int64
	if err := tx.QueryRow(ctx, "SELECT count(*) FROM "+s.table).Scan(&count); err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}

	if count == 0 {
		batch := &pgx.Batch{}
		insert := fmt.Sprintf("INSERT INTO %s (id, name) VALUES ($1, $2)", s.table)
		for _, u := range model.SeedUsers() {
			batch.Queue(insert, u.ID, u.Name)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to seed users: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}

// List returns every user ordered by insertion.
func (s *PostgresStore) List(ctx context.Context) ([]model.User, error) {
	query := fmt.Sprintf(`
		SELECT id, name
		FROM %s
		ORDER BY seq
	`, s.table)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// Append inserts user after every existing row.
func (s *PostgresStore) Append(ctx context.Context, user model.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name)
		VALUES ($1, $2)
	`, s.table)

	if _, err := s.pool.Exec(ctx, query, user.ID, user.Name); err != nil {
		return fmt.Errorf("failed to append user: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Pool returns the underlying connection pool.
// Use sparingly - prefer adding methods to PostgresStore.
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

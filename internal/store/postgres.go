package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore backs UserStore with a Postgres database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to Postgres using dsn and verifies the
// connection before returning.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			username   TEXT PRIMARY KEY,
			balance    BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS game_records (
			id           BIGSERIAL PRIMARY KEY,
			room_id      TEXT NOT NULL,
			room_name    TEXT NOT NULL,
			username     TEXT NOT NULL,
			total_buy_in BIGINT NOT NULL,
			final_chips  BIGINT NOT NULL,
			ended_at     TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS game_records_username_idx ON game_records (username)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

// VerifyUser creates the account row if it does not exist yet. New
// accounts start at zero balance; funding happens out of band.
func (s *PostgresStore) VerifyUser(ctx context.Context, username string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username) VALUES ($1) ON CONFLICT (username) DO NOTHING`,
		username,
	)
	if err != nil {
		return fmt.Errorf("failed to verify user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT username, balance, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&u.Username, &u.Balance, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) UpdateBalance(ctx context.Context, username string, delta int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET balance = balance + $2
		 WHERE username = $1 AND balance + $2 >= 0`,
		username, delta,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if n == 0 {
		// Distinguish unknown user from insufficient funds.
		if _, err := s.GetUser(ctx, username); err != nil {
			return err
		}
		return ErrInsufficientBalance
	}
	return nil
}

func (s *PostgresStore) RecordGame(ctx context.Context, rec GameRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO game_records (room_id, room_name, username, total_buy_in, final_chips, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.RoomID, rec.RoomName, rec.Username, rec.TotalBuyIn, rec.FinalChips, rec.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Package store persists player accounts and completed game records.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the requested user does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrInsufficientBalance indicates a debit would take the balance negative.
	ErrInsufficientBalance = errors.New("store: insufficient balance")
)

// User is a player account. Balance is in chip minor units (hundredths).
type User struct {
	Username  string
	Balance   int64
	CreatedAt time.Time
}

// GameRecord summarizes one player's completed room session.
// Monetary fields are in chip minor units.
type GameRecord struct {
	RoomID     string
	RoomName   string
	Username   string
	TotalBuyIn int64
	FinalChips int64
	EndedAt    time.Time
}

// UserStore is the persistence boundary for accounts and session records.
type UserStore interface {
	// VerifyUser ensures an account exists for username, creating one
	// when absent. Called once per authenticated connection.
	VerifyUser(ctx context.Context, username string) error

	// GetUser returns the account for username, or ErrNotFound.
	GetUser(ctx context.Context, username string) (*User, error)

	// UpdateBalance adjusts the account balance by delta (negative to
	// debit). Returns ErrInsufficientBalance when a debit would take the
	// balance below zero, and ErrNotFound for unknown users.
	UpdateBalance(ctx context.Context, username string, delta int64) error

	// RecordGame stores a completed session record.
	RecordGame(ctx context.Context, rec GameRecord) error

	// Close releases any underlying resources.
	Close() error
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Pool sizing: the engine's writes arrive in short bursts (the daily
// generation fan-out and the five-minute sweep), so a modest pool with
// idle recycling covers it.
const (
	poolMaxOpenConns    = 20
	poolMaxIdleConns    = 10
	poolConnMaxLifetime = 30 * time.Minute
	poolConnMaxIdleTime = 2 * time.Minute
	connectPingTimeout  = 5 * time.Second
)

// NewPostgresConnection opens a pooled PostgreSQL connection and
// verifies it with a bounded ping before handing it out.
func NewPostgresConnection(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(poolMaxOpenConns)
	db.SetMaxIdleConns(poolMaxIdleConns)
	db.SetConnMaxLifetime(poolConnMaxLifetime)
	db.SetConnMaxIdleTime(poolConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), connectPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

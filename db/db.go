package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // Import postgres driver
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func Connect(dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database within %v: %w", timeout, err)
	}

	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS tournaments (
	id                   TEXT PRIMARY KEY,
	organizer_id         TEXT NOT NULL,
	status               TEXT NOT NULL,
	scheduled_publish_at TIMESTAMPTZ,
	version              INTEGER NOT NULL DEFAULT 0,
	document             JSONB NOT NULL,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS tournaments_organizer_idx ON tournaments (organizer_id, created_at DESC);
CREATE INDEX IF NOT EXISTS tournaments_publish_due_idx ON tournaments (scheduled_publish_at)
	WHERE scheduled_publish_at IS NOT NULL;
`

// Migrate creates the aggregate table when it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// ConnectMongo opens a client and pings it within timeout.
func ConnectMongo(uri, database string, timeout time.Duration) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongo within %v: %w", timeout, err)
	}
	return client, client.Database(database), nil
}

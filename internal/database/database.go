package database

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/nfrund/chatkit/internal/config"
	"github.com/surrealdb/surrealdb.go"
)

// NewDB creates and configures a new SurrealDB connection.
func NewDB(ctx context.Context, cfg *config.Config) (*surrealdb.DB, error) {
	db, err := surrealdb.FromEndpointURLString(ctx, cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to surrealdb at %s: %w", redactDBURL(cfg.DBUrl), err)
	}

	authData := &surrealdb.Auth{
		Username: cfg.DBUser,
		Password: cfg.DBPass,
	}

	if _, err = db.SignIn(ctx, authData); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}

	if err = db.Use(ctx, cfg.DBNs, cfg.DBDb); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to use namespace/db: %w", err)
	}

	if err = initSchema(ctx, db); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	slog.Info("Connected to SurrealDB", "url", redactDBURL(cfg.DBUrl), "ns", cfg.DBNs, "db", cfg.DBDb)
	return db, nil
}

// schema holds the definitions the stores rely on. Email uniqueness is
// enforced here, at the storage layer, so concurrent signups cannot both
// pass an application-level existence check and insert duplicates.
const schema = `
	DEFINE INDEX IF NOT EXISTS user_email ON TABLE user FIELDS email UNIQUE;
`

// initSchema applies the schema on startup. Definitions are idempotent,
// so reconnects and restarts are safe.
func initSchema(ctx context.Context, db *surrealdb.DB) error {
	if _, err := surrealdb.Query[any](ctx, db, schema, nil); err != nil {
		return err
	}
	return nil
}

// redactDBURL returns the URL string with any password replaced, so
// credentials never reach the logs.
func redactDBURL(dbURL string) string {
	parsed, err := url.Parse(dbURL)
	if err != nil {
		return "invalid-url"
	}
	return parsed.Redacted()
}

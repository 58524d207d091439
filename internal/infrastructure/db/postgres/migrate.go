package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"go.uber.org/zap"
)

//go:embed schema.sql
var schema string

// Migrate applies the idempotent schema at startup.
func Migrate(ctx context.Context, db DB, logger *zap.Logger) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("db schema is up to date")

	return nil
}

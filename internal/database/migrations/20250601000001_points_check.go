package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `
			ALTER TABLE users
			ADD CONSTRAINT users_points_range
			CHECK (points >= 0 AND points <= 9007199254740991)
		`)
		if err != nil {
			return fmt.Errorf("failed to add points constraint: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `ALTER TABLE users DROP CONSTRAINT IF EXISTS users_points_range`)
		if err != nil {
			return fmt.Errorf("failed to drop points constraint: %w", err)
		}

		return nil
	})
}

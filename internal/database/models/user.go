package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/peechi-bot/peechi/internal/database/dbretry"
	"github.com/peechi-bot/peechi/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// UserModel handles database operations for point ledger records.
type UserModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewUser creates a UserModel.
func NewUser(db *bun.DB, logger *zap.Logger) *UserModel {
	return &UserModel{
		db:     db,
		logger: logger.Named("db_user"),
	}
}

// GetUser retrieves a user by id. Returns types.ErrUserNotFound if no record exists.
func (r *UserModel) GetUser(ctx context.Context, userID string) (*types.User, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.User, error) {
		user := new(types.User)

		err := r.db.NewSelect().Model(user).
			Where("user_id = ?", userID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrUserNotFound
			}
			return nil, fmt.Errorf("failed to get user: %w (userID=%s)", err, userID)
		}

		return user, nil
	})
}

// CreateUser inserts a new user. An existing record with the same id is left untouched.
func (r *UserModel) CreateUser(ctx context.Context, user *types.User) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().Model(user).
			On("CONFLICT (user_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create user: %w (userID=%s)", err, user.UserID)
		}

		r.logger.Debug("Created user", zap.String("userID", user.UserID))
		return nil
	})
}

// UpdateUser locks the user row, applies fn and writes the result back in a
// single transaction. Concurrent updates to the same user are serialized by
// the row lock. Returns types.ErrUserNotFound if no record exists.
func (r *UserModel) UpdateUser(ctx context.Context, userID string, fn func(*types.User) error) error {
	return dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		user := new(types.User)

		err := tx.NewSelect().Model(user).
			Where("user_id = ?", userID).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return types.ErrUserNotFound
			}
			return fmt.Errorf("failed to lock user: %w (userID=%s)", err, userID)
		}

		if err := fn(user); err != nil {
			return err
		}

		_, err = tx.NewUpdate().Model(user).
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update user: %w (userID=%s)", err, userID)
		}

		return nil
	})
}

// SaveProfile creates the user or updates the name and pronouns of an existing one.
func (r *UserModel) SaveProfile(ctx context.Context, user *types.User) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().Model(user).
			On("CONFLICT (user_id) DO UPDATE").
			Set("name = EXCLUDED.name").
			Set("pronouns = EXCLUDED.pronouns").
			Set("last_updated = EXCLUDED.last_updated").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to save user profile: %w (userID=%s)", err, user.UserID)
		}

		return nil
	})
}

// GetLeaderboard returns up to limit users ordered by points descending.
// Message history is not loaded.
func (r *UserModel) GetLeaderboard(ctx context.Context, limit int) ([]*types.User, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.User, error) {
		var users []*types.User

		err := r.db.NewSelect().Model(&users).
			Column("user_id", "name", "pronouns", "points", "last_updated").
			Order("points DESC", "user_id ASC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get leaderboard: %w", err)
		}

		return users, nil
	})
}

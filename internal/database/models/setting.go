package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/peechi-bot/peechi/internal/database/dbretry"
	"github.com/peechi-bot/peechi/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SettingModel handles the guild settings row. Settings are fetched once
// and served from memory until Reload is called.
type SettingModel struct {
	db     *bun.DB
	logger *zap.Logger
	group  singleflight.Group
	cache  *types.GuildSetting
	mu     sync.RWMutex
}

// NewSetting creates a SettingModel with database access.
func NewSetting(db *bun.DB, logger *zap.Logger) *SettingModel {
	return &SettingModel{
		db:     db,
		logger: logger.Named("db_setting"),
	}
}

// GetGuildSettings returns the cached settings, loading them on first use.
func (r *SettingModel) GetGuildSettings(ctx context.Context) (*types.GuildSetting, error) {
	r.mu.RLock()
	cached := r.cache
	r.mu.RUnlock()

	if cached != nil {
		return cached, nil
	}

	return r.load(ctx)
}

// Reload discards the cached settings and fetches them again.
func (r *SettingModel) Reload(ctx context.Context) (*types.GuildSetting, error) {
	r.mu.Lock()
	r.cache = nil
	r.mu.Unlock()

	return r.load(ctx)
}

// SaveGuildSettings writes the settings row and refreshes the cache.
func (r *SettingModel) SaveGuildSettings(ctx context.Context, settings *types.GuildSetting) error {
	settings.ID = types.GuildSettingID
	settings.UpdatedAt = time.Now()

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().Model(settings).
			On("CONFLICT (id) DO UPDATE").
			Set("verified_role_id = EXCLUDED.verified_role_id").
			Set("verification_channel_id = EXCLUDED.verification_channel_id").
			Set("admin_channel_id = EXCLUDED.admin_channel_id").
			Set("error_channel_id = EXCLUDED.error_channel_id").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save guild settings: %w", err)
	}

	r.mu.Lock()
	r.cache = settings
	r.mu.Unlock()

	return nil
}

// load fetches the settings row, creating an empty one if none exists.
// Concurrent callers share a single query.
func (r *SettingModel) load(ctx context.Context) (*types.GuildSetting, error) {
	result, err, _ := r.group.Do("guild_settings", func() (any, error) {
		return dbretry.Operation(ctx, func(ctx context.Context) (*types.GuildSetting, error) {
			settings := &types.GuildSetting{
				ID:        types.GuildSettingID,
				UpdatedAt: time.Now(),
			}

			err := r.db.NewSelect().Model(settings).
				WherePK().
				Scan(ctx)
			if err != nil {
				if !errors.Is(err, sql.ErrNoRows) {
					return nil, fmt.Errorf("failed to get guild settings: %w", err)
				}

				_, err = r.db.NewInsert().Model(settings).
					On("CONFLICT (id) DO NOTHING").
					Exec(ctx)
				if err != nil {
					return nil, fmt.Errorf("failed to create guild settings: %w", err)
				}

				r.logger.Warn("Guild settings were missing, created an empty row")
			}

			r.mu.Lock()
			r.cache = settings
			r.mu.Unlock()

			return settings, nil
		})
	})
	if err != nil {
		return nil, err
	}

	return result.(*types.GuildSetting), nil
}

package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"
)

// Source lists upcoming calendar events.
type Source interface {
	UpcomingEvents(ctx context.Context, from, to time.Time, limit int64) ([]Event, error)
}

// Guild manages a guild's scheduled events.
type Guild interface {
	ListEvents(ctx context.Context) ([]GuildEvent, error)
	CreateEvent(ctx context.Context, event ScheduledEvent) error
	UpdateEvent(ctx context.Context, id snowflake.ID, event ScheduledEvent) error
	DeleteEvent(ctx context.Context, id snowflake.ID) error
}

// Result summarizes a sync run.
type Result struct {
	Fetched int
	Created []string
	Updated []string
	Deleted []string
	Failed  []string
}

// Changes is the number of guild events written or removed.
func (r *Result) Changes() int {
	return len(r.Created) + len(r.Updated) + len(r.Deleted)
}

// Syncer mirrors a calendar into a guild.
type Syncer struct {
	source    Source
	limit     int64
	lookahead time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewSyncer creates a Syncer reading up to limit events in the next lookahead.
func NewSyncer(source Source, limit int64, lookahead time.Duration, logger *zap.Logger) *Syncer {
	return &Syncer{
		source:    source,
		limit:     limit,
		lookahead: lookahead,
		logger:    logger.Named("calendar"),
		now:       time.Now,
	}
}

// Sync applies the calendar to guild. Individual event failures are collected
// in the result; only failures to read either side abort the run.
func (s *Syncer) Sync(ctx context.Context, guild Guild) (*Result, error) {
	now := s.now()

	upcoming, err := s.source.UpcomingEvents(ctx, now, now.Add(s.lookahead), s.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar events: %w", err)
	}

	result := &Result{Fetched: len(upcoming)}
	if len(upcoming) == 0 {
		return result, nil
	}

	existing, err := guild.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild events: %w", err)
	}

	plan := Diff(upcoming, existing)

	for _, event := range plan.Create {
		scheduled, err := Validate(event, now)
		if err == nil {
			err = guild.CreateEvent(ctx, scheduled)
		}
		if err != nil {
			s.logger.Warn("Failed to create guild event",
				zap.String("calendarID", event.ID),
				zap.String("summary", event.Title()),
				zap.Error(err))
			result.Failed = append(result.Failed, fmt.Sprintf("%s (%v)", event.Title(), err))
			continue
		}

		s.logger.Info("Created guild event", zap.String("summary", event.Title()))
		result.Created = append(result.Created, event.Title())
	}

	for _, update := range plan.Update {
		scheduled, err := Validate(update.Event, now)
		if err == nil {
			err = guild.UpdateEvent(ctx, update.Target.ID, scheduled)
		}
		if err != nil {
			s.logger.Warn("Failed to update guild event",
				zap.String("calendarID", update.Event.ID),
				zap.Uint64("eventID", uint64(update.Target.ID)),
				zap.Error(err))
			result.Failed = append(result.Failed, fmt.Sprintf("%s (%v)", update.Event.Title(), err))
			continue
		}

		s.logger.Info("Updated guild event", zap.String("summary", update.Event.Title()))
		result.Updated = append(result.Updated, update.Event.Title())
	}

	for _, guildEvent := range plan.Delete {
		if err := guild.DeleteEvent(ctx, guildEvent.ID); err != nil {
			s.logger.Warn("Failed to delete guild event",
				zap.Uint64("eventID", uint64(guildEvent.ID)),
				zap.Error(err))
			result.Failed = append(result.Failed, guildEvent.Name+" (delete failed)")
			continue
		}

		s.logger.Info("Deleted guild event", zap.String("name", guildEvent.Name))
		result.Deleted = append(result.Deleted, guildEvent.Name)
	}

	return result, nil
}

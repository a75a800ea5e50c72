package calendar

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleSource reads a public or API-key readable Google Calendar.
type GoogleSource struct {
	service    *gcal.Service
	calendarID string
	logger     *zap.Logger
}

// NewGoogleSource creates a source for calendarID authenticated with apiKey.
func NewGoogleSource(ctx context.Context, apiKey, calendarID string, logger *zap.Logger) (*GoogleSource, error) {
	if apiKey == "" || calendarID == "" {
		return nil, ErrCalendarMissing
	}

	service, err := gcal.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &GoogleSource{
		service:    service,
		calendarID: calendarID,
		logger:     logger.Named("google_calendar"),
	}, nil
}

// UpcomingEvents lists single events starting between from and to, earliest first.
func (g *GoogleSource) UpcomingEvents(ctx context.Context, from, to time.Time, limit int64) ([]Event, error) {
	response, err := g.service.Events.List(g.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		MaxResults(limit).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(response.Items))
	for _, item := range response.Items {
		if item == nil || item.Id == "" {
			g.logger.Warn("Skipping calendar event without an id")
			continue
		}

		events = append(events, Event{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			Location:    item.Location,
			Start:       eventTime(item.Start),
			End:         eventTime(item.End),
		})
	}

	g.logger.Info("Fetched calendar events", zap.Int("count", len(events)))

	return events, nil
}

func eventTime(t *gcal.EventDateTime) string {
	if t == nil {
		return ""
	}
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}

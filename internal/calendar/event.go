// Package calendar mirrors upcoming Google Calendar events into guild scheduled events.
package calendar

import (
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/disgoorg/snowflake/v2"
)

var (
	ErrMissingStart    = errors.New("event must have a start time")
	ErrInvalidTime     = errors.New("event time is not a valid date")
	ErrStartNotFuture  = errors.New("event start time must be in the future")
	ErrEndBeforeStart  = errors.New("event end time must be after start time")
	ErrCalendarMissing = errors.New("calendar is not configured")
)

const (
	MaxNameLength        = 100
	MaxDescriptionLength = 950
	MaxLocationLength    = 100

	DefaultTitle    = "No Title"
	DefaultLocation = "TBD"
	DefaultDuration = time.Hour
)

var markerPattern = regexp.MustCompile(`\[cal:([^\]]+)\]`)

// Event is an upcoming calendar entry. Start and End hold either an RFC 3339
// timestamp or, for all-day events, a plain date.
type Event struct {
	ID          string
	Summary     string
	Description string
	Location    string
	Start       string
	End         string
}

// Title is the event summary or DefaultTitle.
func (e Event) Title() string {
	if e.Summary == "" {
		return DefaultTitle
	}
	return e.Summary
}

// GuildEvent is an existing guild scheduled event.
type GuildEvent struct {
	ID          snowflake.ID
	Name        string
	Description string
}

// CalendarID returns the calendar event id embedded in the description.
func (g GuildEvent) CalendarID() (string, bool) {
	match := markerPattern.FindStringSubmatch(g.Description)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// ScheduledEvent is the validated guild event written for a calendar event.
type ScheduledEvent struct {
	Name        string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

// Marker tags a guild event description with its calendar event id.
func Marker(calendarID string) string {
	return fmt.Sprintf("[cal:%s]", calendarID)
}

// Validate converts a calendar event into a guild event, enforcing Discord's
// limits. now is the reference for the future start requirement.
func Validate(event Event, now time.Time) (ScheduledEvent, error) {
	if event.Start == "" {
		return ScheduledEvent{}, ErrMissingStart
	}

	start, err := parseTime(event.Start)
	if err != nil {
		return ScheduledEvent{}, err
	}

	end := start.Add(DefaultDuration)
	if event.End != "" {
		if end, err = parseTime(event.End); err != nil {
			return ScheduledEvent{}, err
		}
	}

	if !start.After(now) {
		return ScheduledEvent{}, ErrStartNotFuture
	}

	if !end.After(start) {
		return ScheduledEvent{}, ErrEndBeforeStart
	}

	description := Marker(event.ID)
	if event.Description != "" {
		description = truncate(event.Description, MaxDescriptionLength) + "\n\n" + description
	}

	location := truncate(event.Location, MaxLocationLength)
	if location == "" {
		location = DefaultLocation
	}

	return ScheduledEvent{
		Name:        truncate(event.Title(), MaxNameLength),
		Description: description,
		Location:    location,
		Start:       start,
		End:         end,
	}, nil
}

func parseTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	return t, nil
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

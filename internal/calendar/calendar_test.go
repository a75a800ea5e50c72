package calendar_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/peechi-bot/peechi/internal/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		event   calendar.Event
		wantErr error
		check   func(t *testing.T, got calendar.ScheduledEvent)
	}{
		{
			name:    "missing start",
			event:   calendar.Event{ID: "a"},
			wantErr: calendar.ErrMissingStart,
		},
		{
			name:    "unparseable start",
			event:   calendar.Event{ID: "a", Start: "soon"},
			wantErr: calendar.ErrInvalidTime,
		},
		{
			name:    "start in the past",
			event:   calendar.Event{ID: "a", Start: "2025-02-01T10:00:00Z"},
			wantErr: calendar.ErrStartNotFuture,
		},
		{
			name:    "end before start",
			event:   calendar.Event{ID: "a", Start: "2025-03-02T10:00:00Z", End: "2025-03-02T09:00:00Z"},
			wantErr: calendar.ErrEndBeforeStart,
		},
		{
			name:  "defaults",
			event: calendar.Event{ID: "abc", Start: "2025-03-02T10:00:00Z"},
			check: func(t *testing.T, got calendar.ScheduledEvent) {
				t.Helper()
				assert.Equal(t, calendar.DefaultTitle, got.Name)
				assert.Equal(t, calendar.DefaultLocation, got.Location)
				assert.Equal(t, "[cal:abc]", got.Description)
				assert.Equal(t, time.Hour, got.End.Sub(got.Start))
			},
		},
		{
			name:  "all day event",
			event: calendar.Event{ID: "day", Summary: "Hack Night", Start: "2025-03-05", End: "2025-03-06"},
			check: func(t *testing.T, got calendar.ScheduledEvent) {
				t.Helper()
				assert.Equal(t, "Hack Night", got.Name)
				assert.Equal(t, 24*time.Hour, got.End.Sub(got.Start))
			},
		},
		{
			name: "truncates long fields",
			event: calendar.Event{
				ID:          "long",
				Summary:     strings.Repeat("n", 150),
				Description: strings.Repeat("d", 2000),
				Location:    strings.Repeat("l", 120),
				Start:       "2025-03-02T10:00:00Z",
			},
			check: func(t *testing.T, got calendar.ScheduledEvent) {
				t.Helper()
				assert.Len(t, got.Name, calendar.MaxNameLength)
				assert.Len(t, got.Location, calendar.MaxLocationLength)
				assert.True(t, strings.HasSuffix(got.Description, "\n\n[cal:long]"))
				assert.Len(t, got.Description, calendar.MaxDescriptionLength+len("\n\n[cal:long]"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := calendar.Validate(tt.event, now)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestGuildEventCalendarID(t *testing.T) {
	t.Parallel()

	id, ok := calendar.GuildEvent{Description: "Bring snacks\n\n[cal:evt_42]"}.CalendarID()
	assert.True(t, ok)
	assert.Equal(t, "evt_42", id)

	_, ok = calendar.GuildEvent{Description: "Manually created"}.CalendarID()
	assert.False(t, ok)
}

func TestDiff(t *testing.T) {
	t.Parallel()

	upcoming := []calendar.Event{
		{ID: "keep", Summary: "Keep"},
		{ID: "new", Summary: "New"},
	}
	existing := []calendar.GuildEvent{
		{ID: 1, Name: "Keep", Description: "[cal:keep]"},
		{ID: 2, Name: "Gone", Description: "x\n\n[cal:gone]"},
		{ID: 3, Name: "Manual", Description: "no marker"},
		{ID: 4, Name: "Keep copy", Description: "[cal:keep]"},
	}

	plan := calendar.Diff(upcoming, existing)
	require.False(t, plan.Empty())

	require.Len(t, plan.Create, 1)
	assert.Equal(t, "new", plan.Create[0].ID)

	require.Len(t, plan.Update, 1)
	assert.Equal(t, snowflake.ID(1), plan.Update[0].Target.ID)
	assert.Equal(t, "keep", plan.Update[0].Event.ID)

	deleted := make([]snowflake.ID, 0, len(plan.Delete))
	for _, event := range plan.Delete {
		deleted = append(deleted, event.ID)
	}
	assert.ElementsMatch(t, []snowflake.ID{2, 4}, deleted)

	assert.True(t, calendar.Diff(nil, nil).Empty())
}

type fakeSource struct {
	events []calendar.Event
	err    error
}

func (f *fakeSource) UpcomingEvents(context.Context, time.Time, time.Time, int64) ([]calendar.Event, error) {
	return f.events, f.err
}

type fakeGuild struct {
	mu        sync.Mutex
	events    []calendar.GuildEvent
	listErr   error
	deleteErr error
	created   []calendar.ScheduledEvent
	updated   map[snowflake.ID]calendar.ScheduledEvent
	deleted   []snowflake.ID
}

func (f *fakeGuild) ListEvents(context.Context) ([]calendar.GuildEvent, error) {
	return f.events, f.listErr
}

func (f *fakeGuild) CreateEvent(_ context.Context, event calendar.ScheduledEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, event)
	return nil
}

func (f *fakeGuild) UpdateEvent(_ context.Context, id snowflake.ID, event calendar.ScheduledEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = make(map[snowflake.ID]calendar.ScheduledEvent)
	}
	f.updated[id] = event
	return nil
}

func (f *fakeGuild) DeleteEvent(_ context.Context, id snowflake.ID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func newSyncer(source calendar.Source) *calendar.Syncer {
	syncer := calendar.NewSyncer(source, 20, 31*24*time.Hour, zap.NewNop())
	calendar.SetNow(syncer, func() time.Time { return now })
	return syncer
}

func TestSyncerSync(t *testing.T) {
	t.Parallel()

	source := &fakeSource{events: []calendar.Event{
		{ID: "standup", Summary: "Standup", Start: "2025-03-03T09:00:00Z", End: "2025-03-03T09:15:00Z"},
		{ID: "retro", Summary: "Retro", Start: "2025-03-04T15:00:00Z"},
		{ID: "stale", Summary: "Stale", Start: "2025-02-20T15:00:00Z"},
	}}
	guild := &fakeGuild{events: []calendar.GuildEvent{
		{ID: 10, Name: "Retro", Description: "[cal:retro]"},
		{ID: 11, Name: "Cancelled", Description: "[cal:cancelled]"},
		{ID: 12, Name: "Manual", Description: "hand made"},
	}}

	result, err := newSyncer(source).Sync(t.Context(), guild)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, []string{"Standup"}, result.Created)
	assert.Equal(t, []string{"Retro"}, result.Updated)
	assert.Equal(t, []string{"Cancelled"}, result.Deleted)
	require.Len(t, result.Failed, 1)
	assert.Contains(t, result.Failed[0], "Stale")
	assert.Equal(t, 3, result.Changes())

	require.Len(t, guild.created, 1)
	assert.Equal(t, "[cal:standup]", guild.created[0].Description)
	assert.Contains(t, guild.updated, snowflake.ID(10))
	assert.Equal(t, []snowflake.ID{11}, guild.deleted)
}

func TestSyncerSyncNoEvents(t *testing.T) {
	t.Parallel()

	guild := &fakeGuild{listErr: errors.New("should not be called")}

	result, err := newSyncer(&fakeSource{}).Sync(t.Context(), guild)
	require.NoError(t, err)
	assert.Zero(t, result.Fetched)
	assert.Zero(t, result.Changes())
}

func TestSyncerSyncFailures(t *testing.T) {
	t.Parallel()

	_, err := newSyncer(&fakeSource{err: errors.New("quota")}).Sync(t.Context(), &fakeGuild{})
	require.Error(t, err)

	source := &fakeSource{events: []calendar.Event{{ID: "a", Start: "2025-03-03T09:00:00Z"}}}
	_, err = newSyncer(source).Sync(t.Context(), &fakeGuild{listErr: errors.New("forbidden")})
	require.Error(t, err)

	guild := &fakeGuild{
		events:    []calendar.GuildEvent{{ID: 5, Name: "Old", Description: "[cal:old]"}},
		deleteErr: errors.New("missing access"),
	}
	result, err := newSyncer(source).Sync(t.Context(), guild)
	require.NoError(t, err)
	assert.Equal(t, []string{"Old (delete failed)"}, result.Failed)
	assert.Len(t, result.Created, 1)
}

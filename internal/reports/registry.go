// Package reports keeps pending message reports in memory until a reporter
// picks a category or the report expires.
package reports

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultTTL is how long a report stays resolvable.
	DefaultTTL = 30 * time.Minute
	// DefaultSweepInterval is how often expired reports are purged.
	DefaultSweepInterval = 10 * time.Minute
	// DefaultMaxReports is the number of reports held before eviction starts.
	DefaultMaxReports = 1000
)

// Origin is the interaction a report was raised from. Resolving a report
// clears the category buttons shown on it.
type Origin interface {
	ClearComponents(ctx context.Context) error
}

// Message is the snapshot of a flagged message.
type Message struct {
	ID              snowflake.ID
	ChannelID       snowflake.ID
	GuildID         snowflake.ID
	AuthorID        snowflake.ID
	AuthorName      string
	AuthorUsername  string
	AuthorAvatarURL string
	Content         string
	Attachments     int
	SentAt          time.Time
}

// URL links to the flagged message in the Discord client.
func (m Message) URL() string {
	return "https://discord.com/channels/" + m.GuildID.String() + "/" + m.ChannelID.String() + "/" + m.ID.String()
}

// Report is a pending moderation report.
type Report struct {
	ID        string
	Origin    Origin
	Message   Message
	CreatedAt time.Time
}

// Registry stores pending reports keyed by id.
type Registry struct {
	reports       map[string]*Report
	logger        *zap.Logger
	now           func() time.Time
	newID         func() string
	ttl           time.Duration
	sweepInterval time.Duration
	maxReports    int
	mu            sync.Mutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithTTL sets how long reports remain valid.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithSweepInterval sets the background purge interval.
func WithSweepInterval(interval time.Duration) Option {
	return func(r *Registry) {
		if interval > 0 {
			r.sweepInterval = interval
		}
	}
}

// WithMaxReports sets the capacity that triggers eviction.
func WithMaxReports(limit int) Option {
	return func(r *Registry) {
		if limit > 1 {
			r.maxReports = limit
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithIDGenerator replaces the report id generator.
func WithIDGenerator(newID func() string) Option {
	return func(r *Registry) {
		r.newID = newID
	}
}

// NewRegistry creates an empty registry. Call Start to enable the background sweep.
func NewRegistry(logger *zap.Logger, opts ...Option) *Registry {
	r := &Registry{
		reports:       make(map[string]*Report),
		logger:        logger.Named("reports"),
		now:           time.Now,
		newID:         uuid.NewString,
		ttl:           DefaultTTL,
		sweepInterval: DefaultSweepInterval,
		maxReports:    DefaultMaxReports,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Start runs the periodic sweep until ctx is cancelled.
func (r *Registry) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := r.Sweep(); removed > 0 {
					r.logger.Debug("Swept expired reports",
						zap.Int("removed", removed),
						zap.Int("remaining", r.Len()))
				}
			}
		}
	}()
}

// Create stores a new report and returns its id. It never refuses a report;
// at capacity it purges expired reports and then evicts the oldest half.
func (r *Registry) Create(origin Origin, message Message) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.reports) >= r.maxReports {
		r.purgeExpiredLocked()
	}

	if len(r.reports) >= r.maxReports {
		evicted := r.evictOldestLocked(len(r.reports) / 2)
		r.logger.Warn("Report registry at capacity, evicted oldest reports",
			zap.Int("evicted", evicted),
			zap.Int("capacity", r.maxReports))
	}

	id := r.newID()
	r.reports[id] = &Report{
		ID:        id,
		Origin:    origin,
		Message:   message,
		CreatedAt: r.now(),
	}

	return id
}

// Get returns the report with the given id. Expired reports are removed
// and reported as absent.
func (r *Registry) Get(id string) (*Report, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, ok := r.reports[id]
	if !ok {
		return nil, false
	}

	if r.expired(report, r.now()) {
		delete(r.reports, id)
		return nil, false
	}

	return report, true
}

// Delete removes a report and reports whether anything was removed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reports[id]; !ok {
		return false
	}

	delete(r.reports, id)
	return true
}

// Len returns the number of stored reports, expired or not.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.reports)
}

// Sweep removes every expired report and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.purgeExpiredLocked()
}

func (r *Registry) expired(report *Report, now time.Time) bool {
	return now.Sub(report.CreatedAt) > r.ttl
}

func (r *Registry) purgeExpiredLocked() int {
	now := r.now()
	removed := 0

	for id, report := range r.reports {
		if r.expired(report, now) {
			delete(r.reports, id)
			removed++
		}
	}

	return removed
}

// evictOldestLocked removes the n oldest reports by creation time.
func (r *Registry) evictOldestLocked(n int) int {
	if n <= 0 {
		return 0
	}

	ordered := make([]*Report, 0, len(r.reports))
	for _, report := range r.reports {
		ordered = append(ordered, report)
	}

	slices.SortFunc(ordered, func(a, b *Report) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	for _, report := range ordered[:n] {
		delete(r.reports, report.ID)
	}

	return n
}

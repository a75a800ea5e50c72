// Package ledger awards points for chat activity and answers point queries.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/peechi-bot/peechi/internal/database/types"
	"github.com/peechi-bot/peechi/internal/points"
	"go.uber.org/zap"
)

var (
	// ErrPersistence marks failures of the backing store.
	ErrPersistence = errors.New("ledger persistence failure")
	// ErrInvalidDelta is returned for awards outside [0, MaxAwardPerCall].
	ErrInvalidDelta = errors.New("invalid point delta")
	// ErrCeilingExceeded is returned when an award would pass types.MaxSafePoints.
	ErrCeilingExceeded = errors.New("award would exceed the point ceiling")
)

const (
	// MaxAwardPerCall bounds a single award.
	MaxAwardPerCall = 1_000_000

	// MinLeaderboardSize and MaxLeaderboardSize bound leaderboard requests.
	MinLeaderboardSize = 1
	MaxLeaderboardSize = 100
)

// Outcome reasons reported by ProcessMessage.
const (
	ReasonDuplicate    = "Message too similar to recent messages"
	ReasonTooShort     = "Message too short or invalid"
	ReasonAwardFailed  = "Failed to update user points"
	ReasonProcessError = "Error processing message"
)

// Store is the persistence the ledger runs on.
type Store interface {
	// GetUser returns types.ErrUserNotFound when no record exists.
	GetUser(ctx context.Context, userID string) (*types.User, error)
	// CreateUser inserts the record, leaving an existing one untouched.
	CreateUser(ctx context.Context, user *types.User) error
	// UpdateUser applies fn to the locked record inside one transaction.
	UpdateUser(ctx context.Context, userID string, fn func(*types.User) error) error
	// SaveProfile creates the record or updates its name and pronouns.
	SaveProfile(ctx context.Context, user *types.User) error
	// GetLeaderboard returns up to limit records by points descending.
	GetLeaderboard(ctx context.Context, limit int) ([]*types.User, error)
}

// Result is the outcome of scoring one message.
type Result struct {
	PointsAwarded int
	Reason        string
}

// Service is the user point ledger.
type Service struct {
	store  Store
	cache  *LeaderboardCache
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a ledger. cache may be nil to always read leaderboards from the store.
func NewService(store Store, cache *LeaderboardCache, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		logger: logger.Named("ledger"),
		now:    time.Now,
	}
}

// GetUser returns the user record. Store failures are logged and reported as absent.
func (s *Service) GetUser(ctx context.Context, userID string) (*types.User, bool) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, types.ErrUserNotFound) {
			s.logger.Error("Failed to fetch user",
				zap.String("userID", userID),
				zap.Error(err))
		}
		return nil, false
	}

	return user, true
}

// CreateUser creates a user with no points and no history.
func (s *Service) CreateUser(ctx context.Context, userID, name, pronouns string) (*types.User, error) {
	user := &types.User{
		UserID:       userID,
		Name:         name,
		Pronouns:     pronouns,
		Points:       0,
		LastUpdated:  s.now(),
		LastMessages: []types.MessageHistory{},
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		s.logger.Error("Failed to create user",
			zap.String("userID", userID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.logger.Info("Created new user",
		zap.String("userID", userID),
		zap.String("name", name))

	return user, nil
}

// UpdateProfile records the name and pronouns a member verified with,
// creating their record if needed.
func (s *Service) UpdateProfile(ctx context.Context, userID, name, pronouns string) error {
	err := s.store.SaveProfile(ctx, &types.User{
		UserID:       userID,
		Name:         name,
		Pronouns:     pronouns,
		LastUpdated:  s.now(),
		LastMessages: []types.MessageHistory{},
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	return nil
}

// AwardPoints adds delta points to an existing user and records the message
// in their history. It returns false without changing anything if the user
// does not exist, the delta is invalid or the total would pass the ceiling.
func (s *Service) AwardPoints(ctx context.Context, userID string, delta int, message types.MessageHistory) bool {
	if delta < 0 || delta > MaxAwardPerCall {
		s.logger.Warn("Rejected invalid point award",
			zap.String("userID", userID),
			zap.Int("delta", delta),
			zap.Error(ErrInvalidDelta))
		return false
	}

	err := s.store.UpdateUser(ctx, userID, func(user *types.User) error {
		if user.Points > types.MaxSafePoints-int64(delta) {
			return ErrCeilingExceeded
		}

		user.Points += int64(delta)
		user.PushMessage(message)
		user.LastUpdated = s.now()

		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, types.ErrUserNotFound):
			s.logger.Warn("Attempted to award points to a missing user", zap.String("userID", userID))
		case errors.Is(err, ErrCeilingExceeded):
			s.logger.Warn("Point award would exceed the ceiling",
				zap.String("userID", userID),
				zap.Int("delta", delta))
		default:
			s.logger.Error("Failed to award points",
				zap.String("userID", userID),
				zap.Int("delta", delta),
				zap.Error(err))
		}
		return false
	}

	s.logger.Debug("Awarded points",
		zap.String("userID", userID),
		zap.Int("delta", delta))

	return true
}

// ProcessMessage scores a message and credits its author. It never fails;
// every path reports the points awarded and a reason.
func (s *Service) ProcessMessage(ctx context.Context, userID, name, content, channelID string) Result {
	user, ok := s.GetUser(ctx, userID)
	if !ok {
		created, err := s.CreateUser(ctx, userID, name, "")
		if err != nil {
			return Result{PointsAwarded: 0, Reason: ReasonProcessError}
		}
		user = created
	}

	if points.IsDuplicate(content, user.RecentContents()) {
		return Result{PointsAwarded: 0, Reason: ReasonDuplicate}
	}

	score := points.Score(content)
	if score == 0 {
		return Result{PointsAwarded: 0, Reason: ReasonTooShort}
	}

	message := types.MessageHistory{
		Content:   content,
		Timestamp: s.now(),
		ChannelID: channelID,
	}

	if !s.AwardPoints(ctx, userID, score, message) {
		return Result{PointsAwarded: 0, Reason: ReasonAwardFailed}
	}

	return Result{
		PointsAwarded: score,
		Reason:        fmt.Sprintf("Awarded %d points for unique message", score),
	}
}

// ClampLeaderboardLimit bounds a requested leaderboard size.
func ClampLeaderboardLimit(limit int) int {
	return min(max(limit, MinLeaderboardSize), MaxLeaderboardSize)
}

// GetLeaderboard returns the top users by points. The limit is clamped to
// [MinLeaderboardSize, MaxLeaderboardSize]. Malformed records are skipped.
func (s *Service) GetLeaderboard(ctx context.Context, limit int) []*types.User {
	limit = ClampLeaderboardLimit(limit)

	if s.cache != nil {
		if users, ok := s.cache.Get(ctx); ok {
			return users[:min(limit, len(users))]
		}
	}

	fetch := limit
	if s.cache != nil {
		fetch = MaxLeaderboardSize
	}

	rows, err := s.store.GetLeaderboard(ctx, fetch)
	if err != nil {
		s.logger.Error("Failed to fetch leaderboard", zap.Error(err))
		return []*types.User{}
	}

	users := make([]*types.User, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		if err := row.Validate(); err != nil {
			s.logger.Warn("Skipping malformed leaderboard entry", zap.Error(err))
			continue
		}
		users = append(users, row)
	}

	if s.cache != nil {
		s.cache.Set(ctx, users)
	}

	return users[:min(limit, len(users))]
}

// InvalidateLeaderboard drops any cached leaderboard.
func (s *Service) InvalidateLeaderboard(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx)
}

package ledger_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/peechi-bot/peechi/internal/database/types"
	"github.com/peechi-bot/peechi/internal/ledger"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errStoreDown = errors.New("store down")

// memStore is an in-memory Store with row-level locking semantics.
type memStore struct {
	mu          sync.Mutex
	users       map[string]types.User
	failGet     bool
	failCreate  bool
	leaderboard []*types.User
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]types.User)}
}

func (m *memStore) GetUser(_ context.Context, userID string) (*types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failGet {
		return nil, errStoreDown
	}

	user, ok := m.users[userID]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	user.LastMessages = slices.Clone(user.LastMessages)
	return &user, nil
}

func (m *memStore) CreateUser(_ context.Context, user *types.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failCreate {
		return errStoreDown
	}
	if _, ok := m.users[user.UserID]; !ok {
		m.users[user.UserID] = *user
	}
	return nil
}

func (m *memStore) UpdateUser(_ context.Context, userID string, fn func(*types.User) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return types.ErrUserNotFound
	}
	user.LastMessages = slices.Clone(user.LastMessages)

	if err := fn(&user); err != nil {
		return err
	}
	m.users[userID] = user
	return nil
}

func (m *memStore) SaveProfile(_ context.Context, user *types.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.users[user.UserID]
	if !ok {
		m.users[user.UserID] = *user
		return nil
	}
	existing.Name = user.Name
	existing.Pronouns = user.Pronouns
	existing.LastUpdated = user.LastUpdated
	m.users[user.UserID] = existing
	return nil
}

func (m *memStore) GetLeaderboard(_ context.Context, limit int) ([]*types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.leaderboard != nil {
		return m.leaderboard[:min(limit, len(m.leaderboard))], nil
	}

	users := make([]*types.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, &user)
	}
	slices.SortFunc(users, func(a, b *types.User) int {
		if a.Points != b.Points {
			if a.Points > b.Points {
				return -1
			}
			return 1
		}
		return strings.Compare(a.UserID, b.UserID)
	})
	return users[:min(limit, len(users))], nil
}

func (m *memStore) points(userID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[userID].Points
}

func setupService(t *testing.T) (*ledger.Service, *memStore) {
	t.Helper()
	store := newMemStore()
	return ledger.NewService(store, nil, zap.NewNop()), store
}

func message(content string) types.MessageHistory {
	return types.MessageHistory{Content: content, Timestamp: time.Now(), ChannelID: "42"}
}

const longMessage = "I think we should meet at the park tomorrow afternoon"

func TestGetAndCreateUser(t *testing.T) {
	t.Parallel()
	svc, store := setupService(t)
	ctx := t.Context()

	_, ok := svc.GetUser(ctx, "1")
	assert.False(t, ok)

	user, err := svc.CreateUser(ctx, "1", "Ada", "she/her")
	require.NoError(t, err)
	assert.Equal(t, int64(0), user.Points)
	assert.Empty(t, user.LastMessages)

	got, ok := svc.GetUser(ctx, "1")
	require.True(t, ok)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, "she/her", got.Pronouns)

	store.failGet = true
	_, ok = svc.GetUser(ctx, "1")
	assert.False(t, ok)
}

func TestCreateUserPersistenceFailure(t *testing.T) {
	t.Parallel()
	svc, store := setupService(t)
	store.failCreate = true

	_, err := svc.CreateUser(t.Context(), "1", "Ada", "")
	require.ErrorIs(t, err, ledger.ErrPersistence)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestAwardPoints(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	tests := []struct {
		name       string
		start      int64
		delta      int
		wantOK     bool
		wantPoints int64
	}{
		{name: "zero delta", start: 5, delta: 0, wantOK: true, wantPoints: 5},
		{name: "regular award", start: 5, delta: 3, wantOK: true, wantPoints: 8},
		{name: "per call cap", start: 0, delta: ledger.MaxAwardPerCall, wantOK: true, wantPoints: ledger.MaxAwardPerCall},
		{name: "over per call cap", start: 0, delta: ledger.MaxAwardPerCall + 1, wantOK: false, wantPoints: 0},
		{name: "negative delta", start: 10, delta: -1, wantOK: false, wantPoints: 10},
		{name: "reaches ceiling", start: types.MaxSafePoints - 4, delta: 4, wantOK: true, wantPoints: types.MaxSafePoints},
		{name: "passes ceiling", start: types.MaxSafePoints - 3, delta: 4, wantOK: false, wantPoints: types.MaxSafePoints - 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, store := setupService(t)
			store.users["1"] = types.User{UserID: "1", Name: "Ada", Points: tt.start}

			ok := svc.AwardPoints(ctx, "1", tt.delta, message("hello world again"))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantPoints, store.points("1"))

			if !tt.wantOK {
				assert.Empty(t, store.users["1"].LastMessages)
			}
		})
	}
}

func TestAwardPointsMissingUser(t *testing.T) {
	t.Parallel()
	svc, store := setupService(t)

	assert.False(t, svc.AwardPoints(t.Context(), "ghost", 2, message("hello there friend")))
	assert.Empty(t, store.users)
}

func TestAwardPointsKeepsFiveMostRecent(t *testing.T) {
	t.Parallel()
	svc, store := setupService(t)
	store.users["1"] = types.User{UserID: "1"}

	for i := range 7 {
		require.True(t, svc.AwardPoints(t.Context(), "1", 1, message(strings.Repeat("x", i+1))))
	}

	history := store.users["1"].LastMessages
	require.Len(t, history, types.MaxMessageHistory)
	assert.Equal(t, "xxxxxxx", history[0].Content)
	assert.Equal(t, "xxx", history[4].Content)
}

func TestAwardPointsConcurrent(t *testing.T) {
	t.Parallel()
	svc, store := setupService(t)
	store.users["1"] = types.User{UserID: "1"}

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.AwardPoints(t.Context(), "1", 2, message("concurrent award"))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), store.points("1"))
}

func TestProcessMessage(t *testing.T) {
	t.Parallel()
	svc, store := setupService(t)
	ctx := t.Context()

	result := svc.ProcessMessage(ctx, "1", "Ada", "hi", "42")
	assert.Equal(t, 0, result.PointsAwarded)
	assert.Equal(t, ledger.ReasonTooShort, result.Reason)

	user, ok := svc.GetUser(ctx, "1")
	require.True(t, ok)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, int64(0), user.Points)

	result = svc.ProcessMessage(ctx, "1", "Ada", longMessage, "42")
	assert.Equal(t, 3, result.PointsAwarded)
	assert.Equal(t, "Awarded 3 points for unique message", result.Reason)
	assert.Equal(t, int64(3), store.points("1"))

	result = svc.ProcessMessage(ctx, "1", "Ada", longMessage+"!", "42")
	assert.Equal(t, 0, result.PointsAwarded)
	assert.Equal(t, ledger.ReasonDuplicate, result.Reason)
	assert.Equal(t, int64(3), store.points("1"))
}

func TestProcessMessageStoreFailure(t *testing.T) {
	t.Parallel()
	svc, store := setupService(t)
	store.failCreate = true

	result := svc.ProcessMessage(t.Context(), "1", "Ada", longMessage, "42")
	assert.Equal(t, ledger.Result{PointsAwarded: 0, Reason: ledger.ReasonProcessError}, result)
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()
	svc, store := setupService(t)
	store.users["1"] = types.User{UserID: "1", Name: "old", Points: 12}

	require.NoError(t, svc.UpdateProfile(t.Context(), "1", "Ada", "they/them"))

	user := store.users["1"]
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "they/them", user.Pronouns)
	assert.Equal(t, int64(12), user.Points)
}

func TestClampLeaderboardLimit(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1, ledger.ClampLeaderboardLimit(0))
	assert.Equal(t, 1, ledger.ClampLeaderboardLimit(-5))
	assert.Equal(t, 10, ledger.ClampLeaderboardLimit(10))
	assert.Equal(t, 100, ledger.ClampLeaderboardLimit(1000))
}

func TestGetLeaderboard(t *testing.T) {
	t.Parallel()
	svc, store := setupService(t)
	store.users["a"] = types.User{UserID: "a", Points: 5}
	store.users["b"] = types.User{UserID: "b", Points: 9}
	store.users["c"] = types.User{UserID: "c", Points: 5}

	users := svc.GetLeaderboard(t.Context(), 10)
	require.Len(t, users, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{users[0].UserID, users[1].UserID, users[2].UserID})

	assert.Len(t, svc.GetLeaderboard(t.Context(), 0), 1)
}

func TestGetLeaderboardSkipsMalformed(t *testing.T) {
	t.Parallel()
	svc, store := setupService(t)
	store.leaderboard = []*types.User{
		{UserID: "a", Points: 10},
		{UserID: "b", Points: -1},
		nil,
		{UserID: "", Points: 3},
		{UserID: "c", Points: 2},
	}

	users := svc.GetLeaderboard(t.Context(), 10)
	require.Len(t, users, 2)
	assert.Equal(t, "a", users[0].UserID)
	assert.Equal(t, "c", users[1].UserID)
}

func TestGetLeaderboardCached(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	store := newMemStore()
	store.users["a"] = types.User{UserID: "a", Name: "Ada", Points: 7}
	cache := ledger.NewLeaderboardCache(client, time.Minute, zap.NewNop())
	svc := ledger.NewService(store, cache, zap.NewNop())
	ctx := t.Context()

	users := svc.GetLeaderboard(ctx, 5)
	require.Len(t, users, 1)
	assert.True(t, mr.Exists("peechi:leaderboard:top"))

	// Cached copy is served until invalidated.
	store.users["b"] = types.User{UserID: "b", Points: 100}
	users = svc.GetLeaderboard(ctx, 5)
	require.Len(t, users, 1)
	assert.Equal(t, "Ada", users[0].Name)

	require.NoError(t, svc.InvalidateLeaderboard(ctx))
	users = svc.GetLeaderboard(ctx, 5)
	require.Len(t, users, 2)
	assert.Equal(t, "b", users[0].UserID)

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("peechi:leaderboard:top"))
}

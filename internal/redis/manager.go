// Package redis hands out rueidis clients per logical database.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/peechi-bot/peechi/internal/setup/config"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// CacheDBIndex stores derived data such as cached leaderboards.
const CacheDBIndex = 0

// pingTimeout bounds the reachability check of a new client.
const pingTimeout = 5 * time.Second

// Manager lazily opens one client per database index and reuses it.
type Manager struct {
	clients map[int]rueidis.Client
	address string
	cfg     *config.Redis
	logger  *zap.Logger
	mu      sync.Mutex
}

// NewManager creates a Manager. No connection is made until GetClient.
func NewManager(cfg *config.Redis, logger *zap.Logger) *Manager {
	return &Manager{
		clients: make(map[int]rueidis.Client),
		address: cfg.Host + ":" + strconv.Itoa(cfg.Port),
		cfg:     cfg,
		logger:  logger.Named("redis"),
	}
}

// GetClient returns the client for dbIndex, opening and pinging it on first use.
func (m *Manager) GetClient(dbIndex int) (rueidis.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if client, ok := m.clients[dbIndex]; ok {
		return client, nil
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{m.address},
		Username:     m.cfg.Username,
		Password:     m.cfg.Password,
		SelectDB:     dbIndex,
		ClientName:   "peechi",
		DisableCache: true, // nothing reads through DoCache

	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis db %d: %w", dbIndex, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis db %d is not responding: %w", dbIndex, err)
	}

	m.clients[dbIndex] = client
	m.logger.Info("Connected to redis",
		zap.String("address", m.address),
		zap.Int("dbIndex", dbIndex))

	return client, nil
}

// Close closes every open client. The Manager can be reused afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for dbIndex, client := range m.clients {
		client.Close()
		delete(m.clients, dbIndex)
	}
	m.logger.Debug("Closed redis clients")
}

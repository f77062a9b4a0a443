// Package database provides the MongoDB connection manager, models, and the
// conversation data access layer (Store).
package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/nutrichat/nutrichat/internal/config"
)

// ErrUnavailable indicates the database could not be reached. Callers map it
// to a 500-class response.
var ErrUnavailable = errors.New("database unavailable")

const pingTimeout = 2 * time.Second

// Manager holds the process-wide MongoDB client. The client is opened lazily
// on first use, probed with a ping before each reuse, and replaced when the
// probe fails. The mutex makes a caller arriving mid-connect wait for the
// in-flight attempt and reuse its result instead of opening a second client.
type Manager struct {
	mu     sync.Mutex
	cfg    config.MongoConfig
	client *mongo.Client
	logger *slog.Logger
}

// NewManager creates a manager for the configured MongoDB deployment.
// No connection is made until the first Collection call.
func NewManager(cfg config.MongoConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		cfg:    cfg,
		logger: logger.With("component", "database"),
	}
}

// Collection returns the live conversations collection, connecting or
// reconnecting as needed. Returns an error wrapping ErrUnavailable when the
// deployment cannot be reached.
func (m *Manager) Collection(ctx context.Context) (*mongo.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := m.client.Ping(pingCtx, readpref.Primary())
		cancel()

		if err == nil {
			return m.collection(), nil
		}

		m.logger.WarnContext(ctx, "database ping failed, discarding cached client", "error", err)
		m.disconnectLocked(ctx)
	}

	if err := m.connectLocked(ctx); err != nil {
		return nil, err
	}

	return m.collection(), nil
}

// Ping reports whether the database is reachable right now.
func (m *Manager) Ping(ctx context.Context) error {
	_, err := m.Collection(ctx)
	return err
}

// Close disconnects the cached client. Safe to call when never connected.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		return nil
	}

	err := m.client.Disconnect(ctx)
	m.client = nil
	if err != nil {
		return fmt.Errorf("failed to disconnect from database: %w", err)
	}

	m.logger.InfoContext(ctx, "database connection closed")
	return nil
}

func (m *Manager) connectLocked(ctx context.Context) error {
	start := time.Now()

	opts := options.Client().
		ApplyURI(m.cfg.URI).
		SetMaxPoolSize(m.cfg.MaxPoolSize).
		SetConnectTimeout(m.cfg.ConnectTimeout).
		SetMaxConnIdleTime(m.cfg.MaxConnIdleTime)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to connect to database", "error", err)
		return fmt.Errorf("%w: connect: %v", ErrUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	err = client.Ping(pingCtx, readpref.Primary())
	cancel()
	if err != nil {
		if dcErr := client.Disconnect(ctx); dcErr != nil {
			m.logger.WarnContext(ctx, "error discarding unreachable client", "error", dcErr)
		}
		m.logger.ErrorContext(ctx, "database unreachable", "error", err)
		return fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}

	m.client = client

	if err := m.ensureIndexesLocked(ctx); err != nil {
		m.disconnectLocked(ctx)
		return err
	}

	m.logger.InfoContext(ctx, "database connected",
		"database", m.cfg.Database,
		"collection", m.cfg.Collection,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// ensureIndexesLocked creates the unique sessionId index so concurrent first
// requests for the same session cannot insert duplicate documents. Index
// creation is idempotent, repeating it on reconnect is a no-op.
func (m *Manager) ensureIndexesLocked(ctx context.Context) error {
	_, err := m.collection().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "sessionId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to ensure session index", "error", err)
		return fmt.Errorf("%w: ensure indexes: %v", ErrUnavailable, err)
	}
	return nil
}

func (m *Manager) disconnectLocked(ctx context.Context) {
	if m.client == nil {
		return
	}
	if err := m.client.Disconnect(ctx); err != nil {
		m.logger.WarnContext(ctx, "error disconnecting stale client", "error", err)
	}
	m.client = nil
}

func (m *Manager) collection() *mongo.Collection {
	return m.client.Database(m.cfg.Database).Collection(m.cfg.Collection)
}
